package application

import (
	"time"

	"github.com/findinggems/settlement-service/internal/domain"
	"github.com/google/uuid"
)

// Config carries the settlement policy knobs resolved at bootstrap.
type Config struct {
	// PlatformFee is the fixed surcharge retained by the marketplace on every
	// order, in minor units.
	PlatformFee int64
	// MinimumPayout is the smallest withdrawable amount, in minor units.
	MinimumPayout int64
	// OrderExpiry bounds how long a pending order may await payment.
	OrderExpiry time.Duration
	// HoldingWindow is how long a confirmed credit stays in pending_balance
	// before maturing into available_balance.
	HoldingWindow time.Duration
	// InstructionTTL bounds the lifetime of generated payment instructions.
	InstructionTTL time.Duration
	// BalanceCacheTTL bounds staleness of the balance read projection.
	BalanceCacheTTL time.Duration
	IdempotencyTTL  time.Duration
	MaturationBatch int
}

type CreateOrderInput struct {
	WebsiteID     uuid.UUID `json:"website_id"`
	PricingTierID uuid.UUID `json:"pricing_tier_id"`
}

type InitiatePaymentInput struct {
	OrderID uuid.UUID            `json:"order_id"`
	Method  domain.PaymentMethod `json:"method"`
}

type ConfirmPaymentInput struct {
	OrderID           uuid.UUID `json:"order_id"`
	ProviderReference string    `json:"provider_reference"`
}

type RequestRefundInput struct {
	OrderID        uuid.UUID `json:"order_id"`
	ReasonCategory string    `json:"reason_category"`
	Reason         string    `json:"reason"`
}

type ReviewRefundInput struct {
	Decision   string `json:"decision"`
	AdminNotes string `json:"admin_notes"`
	// RefundAmount lets the admin shrink the refund below the snapshot taken
	// at request time. Nil keeps the full original amount.
	RefundAmount *int64 `json:"refund_amount,omitempty"`
}

// ReviewRefundOutput pairs the refund with how the reversal was funded.
type ReviewRefundOutput struct {
	Refund  domain.Refund         `json:"refund"`
	Outcome domain.ReverseOutcome `json:"outcome"`
}

type RequestPayoutInput struct {
	Amount        int64      `json:"amount"`
	BankAccountID *uuid.UUID `json:"bank_account_id,omitempty"`
}

type AddBankAccountInput struct {
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
}

type SubmitApplicationInput struct {
	Bio          string `json:"bio"`
	Expertise    string `json:"expertise"`
	PortfolioURL string `json:"portfolio_url"`
}

type ReviewApplicationInput struct {
	Decision        string `json:"decision"`
	RejectionReason string `json:"rejection_reason"`
}

type SubmitWebsiteInput struct {
	Name string `json:"name"`
}

type ModerateWebsiteInput struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason"`
}

type CreateReportInput struct {
	WebsiteID      uuid.UUID `json:"website_id"`
	ReasonCategory string    `json:"reason_category"`
	Detail         string    `json:"detail"`
}

type ResolveReportInput struct {
	Decision  string `json:"decision"`
	AdminNote string `json:"admin_note"`
}

type Pagination struct {
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
	Total  int64 `json:"total"`
}

type OrderListOutput struct {
	Items      []domain.Order `json:"items"`
	Pagination Pagination     `json:"pagination"`
}

type RefundListOutput struct {
	Items      []domain.Refund `json:"items"`
	Pagination Pagination      `json:"pagination"`
}

type PayoutListOutput struct {
	Items      []domain.Payout `json:"items"`
	Pagination Pagination      `json:"pagination"`
}
