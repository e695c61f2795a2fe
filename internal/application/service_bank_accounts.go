package application

import (
	"context"
	"strings"

	"github.com/findinggems/settlement-service/internal/domain"
	"github.com/google/uuid"
)

// AddBankAccount registers a payout destination. The account number is
// encrypted at rest; the creator's first account becomes primary.
func (s *Service) AddBankAccount(ctx context.Context, actor Actor, input AddBankAccountInput) (domain.BankAccount, error) {
	if err := s.requireAuthenticated(actor); err != nil {
		return domain.BankAccount{}, err
	}
	if actor.Role != domain.RoleCreator {
		return domain.BankAccount{}, domain.ErrForbidden
	}
	if err := domain.ValidateBankAccountInput(input.BankName, input.AccountNumber, input.AccountName); err != nil {
		return domain.BankAccount{}, err
	}
	encrypted, err := s.encryption.Encrypt(actor.UserID.String(), strings.TrimSpace(input.AccountNumber))
	if err != nil {
		return domain.BankAccount{}, err
	}
	account := domain.BankAccount{
		BankAccountID: uuid.New(),
		CreatorID:     actor.UserID,
		BankName:      strings.TrimSpace(input.BankName),
		AccountNumber: string(encrypted),
		AccountName:   strings.TrimSpace(input.AccountName),
		CreatedAt:     s.nowFn(),
	}
	created, err := s.bankAccounts.Create(ctx, account)
	if err != nil {
		return domain.BankAccount{}, err
	}
	created.AccountNumber = domain.MaskAccountNumber(strings.TrimSpace(input.AccountNumber))
	return created, nil
}

// SetPrimaryBankAccount swaps the primary flag atomically so exactly one
// account per creator carries it at any time.
func (s *Service) SetPrimaryBankAccount(ctx context.Context, actor Actor, bankAccountID uuid.UUID) error {
	if err := s.requireAuthenticated(actor); err != nil {
		return err
	}
	account, err := s.bankAccounts.GetByID(ctx, bankAccountID)
	if err != nil {
		return err
	}
	if account.CreatorID != actor.UserID {
		return domain.ErrForbidden
	}
	return s.bankAccounts.SetPrimaryTx(ctx, actor.UserID, bankAccountID)
}

// ListBankAccounts returns the creator's accounts with numbers decrypted and
// masked down to the trailing digits.
func (s *Service) ListBankAccounts(ctx context.Context, actor Actor, creatorID uuid.UUID) ([]domain.BankAccount, error) {
	if err := s.requireOwnerOrAdmin(actor, creatorID); err != nil {
		return nil, err
	}
	accounts, err := s.bankAccounts.ListByCreator(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.BankAccount, 0, len(accounts))
	for _, account := range accounts {
		plain, err := s.encryption.Decrypt(account.CreatorID.String(), []byte(account.AccountNumber))
		if err != nil {
			plain = ""
		}
		account.AccountNumber = domain.MaskAccountNumber(plain)
		out = append(out, account)
	}
	return out, nil
}
