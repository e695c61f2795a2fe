package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// BankAccount is referenced, never owned, by payouts. Exactly one account per
// creator carries IsPrimary at any time; the swap is transactional.
type BankAccount struct {
	BankAccountID uuid.UUID `json:"bank_account_id"`
	CreatorID     uuid.UUID `json:"creator_id"`
	BankName      string    `json:"bank_name"`
	AccountNumber string    `json:"account_number"`
	AccountName   string    `json:"account_name"`
	IsPrimary     bool      `json:"is_primary"`
	CreatedAt     time.Time `json:"created_at"`
}

func ValidateBankAccountInput(bankName, accountNumber, accountName string) error {
	if strings.TrimSpace(bankName) == "" {
		return ErrInvalidInput
	}
	digits := strings.TrimSpace(accountNumber)
	if len(digits) < 6 {
		return ErrInvalidInput
	}
	if strings.TrimSpace(accountName) == "" {
		return ErrInvalidInput
	}
	return nil
}

// MaskAccountNumber keeps only the trailing four digits for read surfaces.
func MaskAccountNumber(number string) string {
	if len(number) <= 4 {
		return number
	}
	return strings.Repeat("*", len(number)-4) + number[len(number)-4:]
}
