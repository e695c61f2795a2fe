package postgres

import (
	"time"

	"github.com/google/uuid"
)

type orderModel struct {
	OrderID       uuid.UUID  `gorm:"column:order_id;type:uuid;primaryKey"`
	OrderNumber   string     `gorm:"column:order_number"`
	BuyerID       uuid.UUID  `gorm:"column:buyer_id"`
	WebsiteID     uuid.UUID  `gorm:"column:website_id"`
	PricingTierID uuid.UUID  `gorm:"column:pricing_tier_id"`
	TotalAmount   int64      `gorm:"column:total_amount"`
	PlatformFee   int64      `gorm:"column:platform_fee"`
	Status        string     `gorm:"column:status"`
	ProviderRef   *string    `gorm:"column:provider_reference"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`
	PaidAt        *time.Time `gorm:"column:paid_at"`
}

func (orderModel) TableName() string { return "orders" }

type refundModel struct {
	RefundID               uuid.UUID `gorm:"column:refund_id;type:uuid;primaryKey"`
	RefundNumber           string    `gorm:"column:refund_number"`
	OrderID                uuid.UUID `gorm:"column:order_id"`
	RequesterID            uuid.UUID `gorm:"column:requester_id"`
	OriginalAmount         int64     `gorm:"column:original_amount"`
	RefundAmount           int64     `gorm:"column:refund_amount"`
	ReasonCategory         string    `gorm:"column:reason_category"`
	Reason                 string    `gorm:"column:reason"`
	Status                 string    `gorm:"column:status"`
	StatusMessage          string    `gorm:"column:status_message"`
	AdminNotes             string    `gorm:"column:admin_notes"`
	ReconciliationRequired bool      `gorm:"column:reconciliation_required"`
	CreatedAt              time.Time `gorm:"column:created_at"`
	UpdatedAt              time.Time `gorm:"column:updated_at"`
}

func (refundModel) TableName() string { return "refunds" }

type payoutModel struct {
	PayoutID      uuid.UUID `gorm:"column:payout_id;type:uuid;primaryKey"`
	CreatorID     uuid.UUID `gorm:"column:creator_id"`
	Amount        int64     `gorm:"column:amount"`
	BankAccountID uuid.UUID `gorm:"column:bank_account_id"`
	Status        string    `gorm:"column:status"`
	StatusMessage string    `gorm:"column:status_message"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (payoutModel) TableName() string { return "payouts" }

type creatorBalanceModel struct {
	CreatorID        uuid.UUID `gorm:"column:creator_id;type:uuid;primaryKey"`
	AvailableBalance int64     `gorm:"column:available_balance"`
	PendingBalance   int64     `gorm:"column:pending_balance"`
	ReservedBalance  int64     `gorm:"column:reserved_balance"`
	WithdrawnBalance int64     `gorm:"column:withdrawn_balance"`
	TotalEarnings    int64     `gorm:"column:total_earnings"`
	TotalRefunded    int64     `gorm:"column:total_refunded"`
	UpdatedAt        time.Time `gorm:"column:updated_at"`
}

func (creatorBalanceModel) TableName() string { return "creator_balances" }

type balanceEntryModel struct {
	EntryID     uuid.UUID `gorm:"column:entry_id;type:uuid;primaryKey"`
	CreatorID   uuid.UUID `gorm:"column:creator_id"`
	OrderID     uuid.UUID `gorm:"column:order_id"`
	Amount      int64     `gorm:"column:amount"`
	Status      string    `gorm:"column:status"`
	AvailableAt time.Time `gorm:"column:available_at"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (balanceEntryModel) TableName() string { return "balance_entries" }

type bankAccountModel struct {
	BankAccountID          uuid.UUID `gorm:"column:bank_account_id;type:uuid;primaryKey"`
	CreatorID              uuid.UUID `gorm:"column:creator_id"`
	BankName               string    `gorm:"column:bank_name"`
	AccountNumberEncrypted []byte    `gorm:"column:account_number_encrypted"`
	AccountName            string    `gorm:"column:account_name"`
	IsPrimary              bool      `gorm:"column:is_primary"`
	CreatedAt              time.Time `gorm:"column:created_at"`
}

func (bankAccountModel) TableName() string { return "bank_accounts" }

type creatorApplicationModel struct {
	ApplicationID   uuid.UUID  `gorm:"column:application_id;type:uuid;primaryKey"`
	UserID          uuid.UUID  `gorm:"column:user_id"`
	Status          string     `gorm:"column:status"`
	Bio             string     `gorm:"column:bio"`
	Expertise       string     `gorm:"column:expertise"`
	PortfolioURL    string     `gorm:"column:portfolio_url"`
	RejectionReason string     `gorm:"column:rejection_reason"`
	ReviewedBy      *uuid.UUID `gorm:"column:reviewed_by"`
	ReviewedAt      *time.Time `gorm:"column:reviewed_at"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
}

func (creatorApplicationModel) TableName() string { return "creator_applications" }

type websiteModel struct {
	WebsiteID    uuid.UUID `gorm:"column:website_id;type:uuid;primaryKey"`
	CreatorID    uuid.UUID `gorm:"column:creator_id"`
	Name         string    `gorm:"column:name"`
	Status       string    `gorm:"column:status"`
	StatusReason string    `gorm:"column:status_reason"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (websiteModel) TableName() string { return "websites" }

type pricingTierModel struct {
	TierID       uuid.UUID `gorm:"column:tier_id;type:uuid;primaryKey"`
	WebsiteID    uuid.UUID `gorm:"column:website_id"`
	Name         string    `gorm:"column:name"`
	Price        int64     `gorm:"column:price"`
	DurationDays int       `gorm:"column:duration_days"`
	IsActive     bool      `gorm:"column:is_active"`
}

func (pricingTierModel) TableName() string { return "pricing_tiers" }

type reportModel struct {
	ReportID       uuid.UUID  `gorm:"column:report_id;type:uuid;primaryKey"`
	WebsiteID      uuid.UUID  `gorm:"column:website_id"`
	ReporterID     uuid.UUID  `gorm:"column:reporter_id"`
	ReasonCategory string     `gorm:"column:reason_category"`
	Detail         string     `gorm:"column:detail"`
	Status         string     `gorm:"column:status"`
	AdminNote      string     `gorm:"column:admin_note"`
	ResolvedBy     *uuid.UUID `gorm:"column:resolved_by"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
}

func (reportModel) TableName() string { return "reports" }

type userRoleModel struct {
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	Role      string    `gorm:"column:role"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (userRoleModel) TableName() string { return "user_roles" }

type creatorProfileModel struct {
	CreatorID    uuid.UUID `gorm:"column:creator_id;type:uuid;primaryKey"`
	Bio          string    `gorm:"column:bio"`
	Expertise    string    `gorm:"column:expertise"`
	PortfolioURL string    `gorm:"column:portfolio_url"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (creatorProfileModel) TableName() string { return "creator_profiles" }

type outboxModel struct {
	OutboxID     uuid.UUID  `gorm:"column:outbox_id;type:uuid;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      string     `gorm:"column:payload;type:jsonb"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
	RetryCount   int        `gorm:"column:retry_count"`
	LastError    *string    `gorm:"column:last_error"`
	LastErrorAt  *time.Time `gorm:"column:last_error_at"`
}

func (outboxModel) TableName() string { return "settlement_outbox" }

type idempotencyModel struct {
	IdempotencyKey string    `gorm:"column:idempotency_key;primaryKey"`
	RequestHash    string    `gorm:"column:request_hash"`
	Status         string    `gorm:"column:status"`
	ResponseCode   int       `gorm:"column:response_code"`
	ResponseBody   *string   `gorm:"column:response_body;type:jsonb"`
	ExpiresAt      time.Time `gorm:"column:expires_at"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (idempotencyModel) TableName() string { return "settlement_idempotency" }
