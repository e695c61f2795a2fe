package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/findinggems/settlement-service/internal/domain"
	"github.com/findinggems/settlement-service/internal/ports"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type balanceRepository struct {
	db *gorm.DB
}

func (r *balanceRepository) GetByCreator(ctx context.Context, creatorID uuid.UUID) (domain.CreatorBalance, error) {
	var rec creatorBalanceModel
	if err := r.db.WithContext(ctx).Where("creator_id = ?", creatorID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.CreatorBalance{}, domain.ErrNotFound
		}
		return domain.CreatorBalance{}, err
	}
	return toDomainBalance(rec), nil
}

func (r *balanceRepository) ListMaturable(ctx context.Context, now time.Time, limit int) ([]domain.BalanceEntry, error) {
	var rows []balanceEntryModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND available_at <= ?", string(domain.BalanceEntryStatusPending), now).
		Order("available_at").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.BalanceEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainBalanceEntry(row))
	}
	return out, nil
}

// MatureEntryTx moves one held credit from pending to available. The entry is
// re-checked under its row lock so concurrent sweeps (or a refund reversal
// that consumed the entry meanwhile) make this a no-op instead of a double
// release.
func (r *balanceRepository) MatureEntryTx(ctx context.Context, entryID uuid.UUID, now time.Time, event ports.OutboxEvent) (bool, error) {
	matured := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry balanceEntryModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("entry_id = ?", entryID).
			Take(&entry).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if entry.Status != string(domain.BalanceEntryStatusPending) || entry.AvailableAt.After(now) {
			return nil
		}

		bal, err := lockBalance(tx, entry.CreatorID)
		if err != nil {
			return err
		}
		if bal.PendingBalance < entry.Amount {
			return fmt.Errorf("ledger drift: pending %d below entry %d for creator %s",
				bal.PendingBalance, entry.Amount, entry.CreatorID)
		}
		bal.PendingBalance -= entry.Amount
		bal.AvailableBalance += entry.Amount
		bal.UpdatedAt = now
		if err := tx.Save(&bal).Error; err != nil {
			return err
		}

		entry.Status = string(domain.BalanceEntryStatusMatured)
		if err := tx.Save(&entry).Error; err != nil {
			return err
		}
		if err := insertOutbox(tx, event); err != nil {
			return err
		}
		matured = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return matured, nil
}

// lockBalance takes the creator's ledger row FOR UPDATE. All balance
// mutations go through this lock, which is what serializes a concurrent
// payout request against a refund approval on the same creator.
func lockBalance(tx *gorm.DB, creatorID uuid.UUID) (creatorBalanceModel, error) {
	var bal creatorBalanceModel
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("creator_id = ?", creatorID).
		Take(&bal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return creatorBalanceModel{}, domain.ErrNotFound
		}
		return creatorBalanceModel{}, err
	}
	return bal, nil
}

// lockOrInitBalance is lockBalance with lazy row creation, used by the
// payment path so a credit for a creator provisioned elsewhere still lands.
func lockOrInitBalance(tx *gorm.DB, creatorID uuid.UUID, now time.Time) (creatorBalanceModel, error) {
	bal, err := lockBalance(tx, creatorID)
	if err == nil {
		return bal, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return creatorBalanceModel{}, err
	}
	fresh := creatorBalanceModel{CreatorID: creatorID, UpdatedAt: now}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&fresh).Error; err != nil {
		return creatorBalanceModel{}, err
	}
	return lockBalance(tx, creatorID)
}
