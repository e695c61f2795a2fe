package domain

import (
	"time"

	"github.com/google/uuid"
)

// CreatorBalance is the per-creator ledger row. Amounts are minor units.
//
// Accounting identity, held after every mutation:
//
//	TotalEarnings = Available + Pending + Reserved + Withdrawn + TotalRefunded
//
// TotalRefunded only counts reversals actually debited from a bucket; an
// over-withdrawn refund flagged for reconciliation leaves the row untouched.
type CreatorBalance struct {
	CreatorID        uuid.UUID `json:"creator_id"`
	AvailableBalance int64     `json:"available_balance"`
	PendingBalance   int64     `json:"pending_balance"`
	ReservedBalance  int64     `json:"reserved_balance"`
	WithdrawnBalance int64     `json:"withdrawn_balance"`
	TotalEarnings    int64     `json:"total_earnings"`
	TotalRefunded    int64     `json:"total_refunded"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Consistent verifies the identity and the non-negativity invariant.
func (b CreatorBalance) Consistent() bool {
	if b.AvailableBalance < 0 || b.PendingBalance < 0 || b.ReservedBalance < 0 ||
		b.WithdrawnBalance < 0 || b.TotalRefunded < 0 {
		return false
	}
	return b.TotalEarnings == b.AvailableBalance+b.PendingBalance+b.ReservedBalance+b.WithdrawnBalance+b.TotalRefunded
}

type BalanceEntryStatus string

const (
	BalanceEntryStatusPending  BalanceEntryStatus = "pending"
	BalanceEntryStatusMatured  BalanceEntryStatus = "matured"
	BalanceEntryStatusReversed BalanceEntryStatus = "reversed"
)

// BalanceEntry tracks one order credit through the holding period. Maturation
// is per entry so a still-refundable order's credit is never released early.
type BalanceEntry struct {
	EntryID     uuid.UUID          `json:"entry_id"`
	CreatorID   uuid.UUID          `json:"creator_id"`
	OrderID     uuid.UUID          `json:"order_id"`
	Amount      int64              `json:"amount"`
	Status      BalanceEntryStatus `json:"status"`
	AvailableAt time.Time          `json:"available_at"`
	CreatedAt   time.Time          `json:"created_at"`
}

// ReverseOutcome reports how an approved refund was funded.
type ReverseOutcome struct {
	FromAvailable int64 `json:"from_available"`
	FromPending   int64 `json:"from_pending"`
	// Reconciliation is set when neither bucket could cover the refund because
	// the creator had already withdrawn the matching funds.
	Reconciliation bool `json:"reconciliation"`
}
