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

type payoutRepository struct {
	db *gorm.DB
}

// CreateWithReserveTx re-checks available funds under the balance row lock
// before moving them to reserved. Two concurrent requests against the same
// creator queue on the lock, and the second one sees the already reduced
// available balance.
func (r *payoutRepository) CreateWithReserveTx(ctx context.Context, params ports.RequestPayoutParams, event ports.OutboxEvent) (domain.Payout, error) {
	var out domain.Payout
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bal, err := lockBalance(tx, params.Payout.CreatorID)
		if err != nil {
			return err
		}
		if bal.AvailableBalance < params.Payout.Amount {
			return fmt.Errorf("%w: available %d, requested %d",
				domain.ErrInsufficientBalance, bal.AvailableBalance, params.Payout.Amount)
		}
		bal.AvailableBalance -= params.Payout.Amount
		bal.ReservedBalance += params.Payout.Amount
		bal.UpdatedAt = params.Now
		if err := tx.Save(&bal).Error; err != nil {
			return err
		}

		rec := payoutModel{
			PayoutID:      params.Payout.PayoutID,
			CreatorID:     params.Payout.CreatorID,
			Amount:        params.Payout.Amount,
			BankAccountID: params.Payout.BankAccountID,
			Status:        string(params.Payout.Status),
			StatusMessage: params.Payout.StatusMessage,
			CreatedAt:     params.Payout.CreatedAt,
			UpdatedAt:     params.Payout.UpdatedAt,
		}
		if err := tx.Create(&rec).Error; err != nil {
			if isUniqueViolation(err) {
				return domain.ErrConflict
			}
			return err
		}
		if err := insertOutbox(tx, event); err != nil {
			return err
		}
		out = toDomainPayout(rec)
		return nil
	})
	if err != nil {
		return domain.Payout{}, err
	}
	return out, nil
}

func (r *payoutRepository) GetByID(ctx context.Context, payoutID uuid.UUID) (domain.Payout, error) {
	var rec payoutModel
	if err := r.db.WithContext(ctx).Where("payout_id = ?", payoutID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Payout{}, domain.ErrNotFound
		}
		return domain.Payout{}, err
	}
	return toDomainPayout(rec), nil
}

func (r *payoutRepository) List(ctx context.Context, query ports.PayoutQuery) ([]domain.Payout, int64, error) {
	scope := r.db.WithContext(ctx).Model(&payoutModel{})
	if query.CreatorID != nil {
		scope = scope.Where("creator_id = ?", *query.CreatorID)
	}
	if query.Status != "" {
		scope = scope.Where("status = ?", string(query.Status))
	}
	var total int64
	if err := scope.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []payoutModel
	if err := scope.Order("created_at desc").Limit(query.Limit).Offset(query.Offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]domain.Payout, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainPayout(row))
	}
	return out, total, nil
}

func (r *payoutRepository) UpdateStatus(ctx context.Context, payoutID uuid.UUID, from, to domain.PayoutStatus, message string, now time.Time) (domain.Payout, error) {
	res := r.db.WithContext(ctx).
		Model(&payoutModel{}).
		Where("payout_id = ? AND status = ?", payoutID, string(from)).
		Updates(map[string]any{"status": string(to), "status_message": message, "updated_at": now})
	if res.Error != nil {
		return domain.Payout{}, res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, payoutID); err != nil {
			return domain.Payout{}, err
		}
		return domain.Payout{}, fmt.Errorf("%w: payout no longer %s", domain.ErrConflict, from)
	}
	return r.GetByID(ctx, payoutID)
}

// CompleteTx settles a processing payout: reserved funds become withdrawn in
// the same transaction as the status flip and the outbox event.
func (r *payoutRepository) CompleteTx(ctx context.Context, payoutID uuid.UUID, now time.Time, event ports.OutboxEvent) (domain.Payout, error) {
	var out domain.Payout
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := lockPayout(tx, payoutID)
		if err != nil {
			return err
		}
		if rec.Status != string(domain.PayoutStatusProcessing) {
			return fmt.Errorf("%w: payout is %s", domain.ErrInvalidTransition, rec.Status)
		}

		bal, err := lockBalance(tx, rec.CreatorID)
		if err != nil {
			return err
		}
		if bal.ReservedBalance < rec.Amount {
			return fmt.Errorf("ledger drift: reserved %d below payout %d for creator %s",
				bal.ReservedBalance, rec.Amount, rec.CreatorID)
		}
		bal.ReservedBalance -= rec.Amount
		bal.WithdrawnBalance += rec.Amount
		bal.UpdatedAt = now
		if err := tx.Save(&bal).Error; err != nil {
			return err
		}

		rec.Status = string(domain.PayoutStatusCompleted)
		rec.UpdatedAt = now
		if err := tx.Save(&rec).Error; err != nil {
			return err
		}
		if err := insertOutbox(tx, event); err != nil {
			return err
		}
		out = toDomainPayout(rec)
		return nil
	})
	if err != nil {
		return domain.Payout{}, err
	}
	return out, nil
}

// ReleaseTx undoes the reservation when a payout is rejected or cancelled.
func (r *payoutRepository) ReleaseTx(ctx context.Context, payoutID uuid.UUID, from, to domain.PayoutStatus, message string, now time.Time, event ports.OutboxEvent) (domain.Payout, error) {
	var out domain.Payout
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := lockPayout(tx, payoutID)
		if err != nil {
			return err
		}
		if rec.Status != string(from) {
			return fmt.Errorf("%w: payout is %s", domain.ErrConflict, rec.Status)
		}

		bal, err := lockBalance(tx, rec.CreatorID)
		if err != nil {
			return err
		}
		if bal.ReservedBalance < rec.Amount {
			return fmt.Errorf("ledger drift: reserved %d below payout %d for creator %s",
				bal.ReservedBalance, rec.Amount, rec.CreatorID)
		}
		bal.ReservedBalance -= rec.Amount
		bal.AvailableBalance += rec.Amount
		bal.UpdatedAt = now
		if err := tx.Save(&bal).Error; err != nil {
			return err
		}

		rec.Status = string(to)
		rec.StatusMessage = message
		rec.UpdatedAt = now
		if err := tx.Save(&rec).Error; err != nil {
			return err
		}
		if err := insertOutbox(tx, event); err != nil {
			return err
		}
		out = toDomainPayout(rec)
		return nil
	})
	if err != nil {
		return domain.Payout{}, err
	}
	return out, nil
}

func lockPayout(tx *gorm.DB, payoutID uuid.UUID) (payoutModel, error) {
	var rec payoutModel
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("payout_id = ?", payoutID).
		Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return payoutModel{}, domain.ErrNotFound
		}
		return payoutModel{}, err
	}
	return rec, nil
}
