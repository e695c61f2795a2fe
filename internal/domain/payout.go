package domain

import (
	"time"

	"github.com/google/uuid"
)

type PayoutStatus string

const (
	PayoutStatusPending    PayoutStatus = "pending"
	PayoutStatusProcessing PayoutStatus = "processing"
	PayoutStatusCompleted  PayoutStatus = "completed"
	PayoutStatusRejected   PayoutStatus = "rejected"
	PayoutStatusCancelled  PayoutStatus = "cancelled"
)

// payoutTransitions: the creator may only cancel while pending; an admin can
// reject from any pre-terminal state, and completion requires prior approval.
var payoutTransitions = map[PayoutStatus][]PayoutStatus{
	PayoutStatusPending:    {PayoutStatusProcessing, PayoutStatusRejected, PayoutStatusCancelled},
	PayoutStatusProcessing: {PayoutStatusCompleted, PayoutStatusRejected},
}

func (s PayoutStatus) CanTransitionTo(next PayoutStatus) bool {
	for _, allowed := range payoutTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s PayoutStatus) Terminal() bool {
	return len(payoutTransitions[s]) == 0
}

type Payout struct {
	PayoutID      uuid.UUID    `json:"payout_id"`
	CreatorID     uuid.UUID    `json:"creator_id"`
	Amount        int64        `json:"amount"`
	BankAccountID uuid.UUID    `json:"bank_account_id"`
	Status        PayoutStatus `json:"status"`
	StatusMessage string       `json:"status_message,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

func ValidatePayoutAmount(amount, minimum int64) error {
	if amount < minimum {
		return ErrInvalidInput
	}
	return nil
}
