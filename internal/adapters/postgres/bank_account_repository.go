package postgres

import (
	"context"
	"errors"

	"github.com/findinggems/settlement-service/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type bankAccountRepository struct {
	db *gorm.DB
}

// Create inserts the account and promotes it to primary when it is the
// creator's first. The count and insert share a transaction so two first
// accounts cannot both win; the partial unique index backstops the race.
func (r *bankAccountRepository) Create(ctx context.Context, account domain.BankAccount) (domain.BankAccount, error) {
	rec := bankAccountModel{
		BankAccountID:          account.BankAccountID,
		CreatorID:              account.CreatorID,
		BankName:               account.BankName,
		AccountNumberEncrypted: []byte(account.AccountNumber),
		AccountName:            account.AccountName,
		IsPrimary:              account.IsPrimary,
		CreatedAt:              account.CreatedAt,
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&bankAccountModel{}).
			Where("creator_id = ?", account.CreatorID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing == 0 {
			rec.IsPrimary = true
		}
		if err := tx.Create(&rec).Error; err != nil {
			if isUniqueViolation(err) {
				return domain.ErrConflict
			}
			return err
		}
		return nil
	})
	if err != nil {
		return domain.BankAccount{}, err
	}
	return toDomainBankAccount(rec), nil
}

func (r *bankAccountRepository) GetByID(ctx context.Context, bankAccountID uuid.UUID) (domain.BankAccount, error) {
	var rec bankAccountModel
	if err := r.db.WithContext(ctx).Where("bank_account_id = ?", bankAccountID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.BankAccount{}, domain.ErrNotFound
		}
		return domain.BankAccount{}, err
	}
	return toDomainBankAccount(rec), nil
}

func (r *bankAccountRepository) GetPrimary(ctx context.Context, creatorID uuid.UUID) (domain.BankAccount, error) {
	var rec bankAccountModel
	if err := r.db.WithContext(ctx).
		Where("creator_id = ? AND is_primary", creatorID).
		Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.BankAccount{}, domain.ErrNotFound
		}
		return domain.BankAccount{}, err
	}
	return toDomainBankAccount(rec), nil
}

func (r *bankAccountRepository) ListByCreator(ctx context.Context, creatorID uuid.UUID) ([]domain.BankAccount, error) {
	var rows []bankAccountModel
	if err := r.db.WithContext(ctx).
		Where("creator_id = ?", creatorID).
		Order("created_at").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.BankAccount, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainBankAccount(row))
	}
	return out, nil
}

func (r *bankAccountRepository) SetPrimaryTx(ctx context.Context, creatorID, bankAccountID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec bankAccountModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("bank_account_id = ? AND creator_id = ?", bankAccountID, creatorID).
			Take(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		if rec.IsPrimary {
			return nil
		}
		if err := tx.Model(&bankAccountModel{}).
			Where("creator_id = ? AND is_primary", creatorID).
			Update("is_primary", false).Error; err != nil {
			return err
		}
		return tx.Model(&bankAccountModel{}).
			Where("bank_account_id = ?", bankAccountID).
			Update("is_primary", true).Error
	})
}
