package ports

import (
	"context"
	"time"

	"github.com/findinggems/settlement-service/internal/domain"
	"github.com/google/uuid"
)

// ConfirmPaymentParams carries everything the single payment-confirmation
// transaction needs: the order flip, the creator credit, and the holding
// period for the new balance entry.
type ConfirmPaymentParams struct {
	OrderID           uuid.UUID
	ProviderReference string
	CreatorID         uuid.UUID
	NetAmount         int64
	PaidAt            time.Time
	AvailableAt       time.Time
}

// OrderRepository owns order rows. ConfirmPaidTx is transactional across the
// order, the creator balance, the maturation entry, and the outbox, because a
// paid order without its credit (or vice versa) would break the ledger.
type OrderRepository interface {
	Create(ctx context.Context, order domain.Order) error
	GetByID(ctx context.Context, orderID uuid.UUID) (domain.Order, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]domain.Order, int64, error)
	// ConfirmPaidTx returns credited=false without side effects when the order
	// is already paid (duplicate webhook).
	ConfirmPaidTx(ctx context.Context, params ConfirmPaymentParams, event OutboxEvent) (order domain.Order, credited bool, err error)
	// ExpireStalePendingTx flips every pending order created before cutoff to
	// expired, writing one outbox event per order in the same transaction.
	ExpireStalePendingTx(ctx context.Context, cutoff, now time.Time, makeEvent func(domain.Order) OutboxEvent) ([]domain.Order, error)
	// UpdateStatus guards the expected from-status in the same statement.
	UpdateStatus(ctx context.Context, orderID uuid.UUID, from, to domain.OrderStatus, now time.Time) (domain.Order, error)
}

// BalanceRepository serializes all mutations per creator row (SELECT ... FOR
// UPDATE or equivalent). Cross-creator operations never contend.
type BalanceRepository interface {
	GetByCreator(ctx context.Context, creatorID uuid.UUID) (domain.CreatorBalance, error)
	// ListMaturable returns pending entries whose holding period has elapsed.
	ListMaturable(ctx context.Context, now time.Time, limit int) ([]domain.BalanceEntry, error)
	// MatureEntryTx re-checks the entry status under the row lock before moving
	// pending to available, so overlapping maintenance runs stay idempotent.
	MatureEntryTx(ctx context.Context, entryID uuid.UUID, now time.Time, event OutboxEvent) (bool, error)
}

// RequestPayoutParams is the payout insert plus its reservation; both happen
// in one transaction so the available check has no read-then-write gap.
type RequestPayoutParams struct {
	Payout domain.Payout
	Now    time.Time
}

type PayoutQuery struct {
	CreatorID *uuid.UUID
	Status    domain.PayoutStatus
	Limit     int
	Offset    int
}

type PayoutRepository interface {
	// CreateWithReserveTx locks the balance row, re-checks available funds,
	// moves them to reserved, and inserts the payout. Returns
	// domain.ErrInsufficientBalance when the amount no longer fits.
	CreateWithReserveTx(ctx context.Context, params RequestPayoutParams, event OutboxEvent) (domain.Payout, error)
	GetByID(ctx context.Context, payoutID uuid.UUID) (domain.Payout, error)
	List(ctx context.Context, query PayoutQuery) ([]domain.Payout, int64, error)
	// UpdateStatus guards the expected from-status in the same statement.
	UpdateStatus(ctx context.Context, payoutID uuid.UUID, from, to domain.PayoutStatus, message string, now time.Time) (domain.Payout, error)
	// CompleteTx moves reserved to withdrawn together with the status flip.
	CompleteTx(ctx context.Context, payoutID uuid.UUID, now time.Time, event OutboxEvent) (domain.Payout, error)
	// ReleaseTx returns the reservation to available on rejection/cancellation.
	ReleaseTx(ctx context.Context, payoutID uuid.UUID, from, to domain.PayoutStatus, message string, now time.Time, event OutboxEvent) (domain.Payout, error)
}

type RefundQuery struct {
	RequesterID *uuid.UUID
	Status      domain.RefundStatus
	Limit       int
	Offset      int
}

// ApproveRefundParams drives the one transaction that settles an approved
// refund: balance reversal, order flip, refund update, outbox event.
type ApproveRefundParams struct {
	RefundID     uuid.UUID
	RefundAmount int64
	AdminNotes   string
	Now          time.Time
	// ReconciliationEvent is written instead of Event when the balance cannot
	// cover the reversal.
	Event               OutboxEvent
	ReconciliationEvent OutboxEvent
}

type RefundRepository interface {
	Create(ctx context.Context, refund domain.Refund, event OutboxEvent) error
	GetByID(ctx context.Context, refundID uuid.UUID) (domain.Refund, error)
	// ListOpenByOrder supports the at-most-one-refund-per-order guard.
	ListOpenByOrder(ctx context.Context, orderID uuid.UUID) ([]domain.Refund, error)
	List(ctx context.Context, query RefundQuery) ([]domain.Refund, int64, error)
	UpdateStatus(ctx context.Context, refundID uuid.UUID, from, to domain.RefundStatus, message, adminNotes string, now time.Time, event *OutboxEvent) (domain.Refund, error)
	// ApproveTx fails with domain.ErrConflict when the order was already
	// refunded by a different request.
	ApproveTx(ctx context.Context, params ApproveRefundParams) (domain.Refund, domain.ReverseOutcome, error)
}

type BankAccountRepository interface {
	// Create marks the creator's first account primary inside the insert
	// transaction.
	Create(ctx context.Context, account domain.BankAccount) (domain.BankAccount, error)
	GetByID(ctx context.Context, bankAccountID uuid.UUID) (domain.BankAccount, error)
	GetPrimary(ctx context.Context, creatorID uuid.UUID) (domain.BankAccount, error)
	ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]domain.BankAccount, error)
	// SetPrimaryTx atomically demotes the old primary and promotes the new one.
	SetPrimaryTx(ctx context.Context, creatorID, bankAccountID uuid.UUID) error
}

// ApproveApplicationParams bundles the provisioning side effects of an
// approval: role promotion, profile upsert, zeroed balance row, outbox event.
// All writes are keyed by the creator id so retries are safe.
type ApproveApplicationParams struct {
	ApplicationID uuid.UUID
	ReviewedBy    uuid.UUID
	Now           time.Time
	Event         OutboxEvent
}

type ApplicationRepository interface {
	// Create rejects a second concurrent pending application per user with
	// domain.ErrConflict.
	Create(ctx context.Context, app domain.CreatorApplication) error
	GetByID(ctx context.Context, applicationID uuid.UUID) (domain.CreatorApplication, error)
	ApproveTx(ctx context.Context, params ApproveApplicationParams) (domain.CreatorApplication, error)
	Reject(ctx context.Context, applicationID, reviewedBy uuid.UUID, reason string, now time.Time) (domain.CreatorApplication, error)
}

type WebsiteRepository interface {
	Create(ctx context.Context, website domain.Website) error
	GetByID(ctx context.Context, websiteID uuid.UUID) (domain.Website, error)
	GetTier(ctx context.Context, tierID uuid.UUID) (domain.PricingTier, error)
	UpdateStatus(ctx context.Context, websiteID uuid.UUID, from, to domain.WebsiteStatus, reason string, now time.Time, event OutboxEvent) (domain.Website, error)
}

type ReportRepository interface {
	Create(ctx context.Context, report domain.Report) error
	GetByID(ctx context.Context, reportID uuid.UUID) (domain.Report, error)
	Resolve(ctx context.Context, reportID uuid.UUID, status domain.ReportStatus, note string, resolvedBy uuid.UUID, now time.Time, event OutboxEvent) (domain.Report, error)
}

// OutboxEvent is the write-side event payload prior to storage. It is
// adapter-neutral to keep application code independent of broker specifics.
type OutboxEvent struct {
	EventID      uuid.UUID
	EventType    string
	PartitionKey string
	Payload      []byte
	OccurredAt   time.Time
}

// OutboxRecord is durable outbox state including retry/error metadata.
type OutboxRecord struct {
	OutboxID     uuid.UUID
	EventType    string
	PartitionKey string
	Payload      []byte
	RetryCount   int
	LastError    *string
	CreatedAt    time.Time
	PublishedAt  *time.Time
}

type OutboxRepository interface {
	FetchUnpublished(ctx context.Context, limit int) ([]OutboxRecord, error)
	MarkPublished(ctx context.Context, outboxID uuid.UUID, publishedAt time.Time) error
	MarkFailed(ctx context.Context, outboxID uuid.UUID, reason string, failedAt time.Time) error
}

// IdempotencyRecord mirrors a completed or reserved request keyed by the
// caller-supplied Idempotency-Key header.
type IdempotencyRecord struct {
	IdempotencyKey string
	RequestHash    string
	Status         string
	ResponseCode   int
	ResponseBody   []byte
	ExpiresAt      time.Time
}

type IdempotencyRepository interface {
	Get(ctx context.Context, key string, now time.Time) (*IdempotencyRecord, error)
	Reserve(ctx context.Context, key, requestHash string, expiresAt time.Time) error
	Complete(ctx context.Context, key string, responseCode int, responseBody []byte, now time.Time) error
}
