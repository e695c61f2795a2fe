package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type RefundStatus string

const (
	RefundStatusRequested   RefundStatus = "requested"
	RefundStatusUnderReview RefundStatus = "under_review"
	RefundStatusApproved    RefundStatus = "approved"
	RefundStatusRejected    RefundStatus = "rejected"
	RefundStatusProcessing  RefundStatus = "processing"
	RefundStatusCompleted   RefundStatus = "completed"
	RefundStatusCancelled   RefundStatus = "cancelled"
)

// refundTransitions encodes the review pipeline. Cancellation is only open to
// the requester while the refund has not been decided.
var refundTransitions = map[RefundStatus][]RefundStatus{
	RefundStatusRequested:   {RefundStatusUnderReview, RefundStatusCancelled},
	RefundStatusUnderReview: {RefundStatusApproved, RefundStatusRejected, RefundStatusCancelled},
	RefundStatusApproved:    {RefundStatusProcessing},
	RefundStatusProcessing:  {RefundStatusCompleted},
}

func (s RefundStatus) CanTransitionTo(next RefundStatus) bool {
	for _, allowed := range refundTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s RefundStatus) Terminal() bool {
	return len(refundTransitions[s]) == 0
}

// Open reports whether the refund still occupies the order's single refund
// slot. Rejected and cancelled refunds free the slot for a new request.
func (s RefundStatus) Open() bool {
	return s != RefundStatusRejected && s != RefundStatusCancelled
}

type Refund struct {
	RefundID       uuid.UUID    `json:"refund_id"`
	RefundNumber   string       `json:"refund_number"`
	OrderID        uuid.UUID    `json:"order_id"`
	RequesterID    uuid.UUID    `json:"requester_id"`
	OriginalAmount int64        `json:"original_amount"`
	RefundAmount   int64        `json:"refund_amount"`
	ReasonCategory string       `json:"reason_category"`
	Reason         string       `json:"reason"`
	Status         RefundStatus `json:"status"`
	StatusMessage  string       `json:"status_message,omitempty"`
	AdminNotes     string       `json:"admin_notes,omitempty"`
	// ReconciliationRequired marks an approved refund whose funds had already
	// been withdrawn by the creator. The balance is left untouched and the
	// shortfall is settled out-of-band.
	ReconciliationRequired bool      `json:"reconciliation_required,omitempty"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

func ValidateRefundRequestInput(reasonCategory, reason string) error {
	if strings.TrimSpace(reasonCategory) == "" {
		return ErrInvalidInput
	}
	if strings.TrimSpace(reason) == "" {
		return ErrInvalidInput
	}
	return nil
}

// ValidateRefundAmount guards the snapshot invariant: an admin-adjusted amount
// may shrink the refund but never exceed what the buyer originally paid.
func ValidateRefundAmount(amount, original int64) error {
	if amount <= 0 || amount > original {
		return ErrInvalidInput
	}
	return nil
}
