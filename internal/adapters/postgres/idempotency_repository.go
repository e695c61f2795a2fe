package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/findinggems/settlement-service/internal/domain"
	"github.com/findinggems/settlement-service/internal/ports"
	"gorm.io/gorm"
)

type idempotencyRepository struct {
	db *gorm.DB
}

func (r *idempotencyRepository) Get(ctx context.Context, key string, now time.Time) (*ports.IdempotencyRecord, error) {
	var rec idempotencyModel
	if err := r.db.WithContext(ctx).Where("idempotency_key = ?", key).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !rec.ExpiresAt.After(now) {
		// An expired key behaves like a fresh one. The row is reclaimed on the
		// next Reserve rather than deleted here, to keep Get side-effect free.
		return nil, nil
	}
	out := &ports.IdempotencyRecord{
		IdempotencyKey: rec.IdempotencyKey,
		RequestHash:    rec.RequestHash,
		Status:         rec.Status,
		ResponseCode:   rec.ResponseCode,
		ExpiresAt:      rec.ExpiresAt,
	}
	if rec.ResponseBody != nil {
		out.ResponseBody = []byte(*rec.ResponseBody)
	}
	return out, nil
}

func (r *idempotencyRepository) Reserve(ctx context.Context, key, requestHash string, expiresAt time.Time) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Reclaim an expired row for this key before inserting.
		if err := tx.Where("idempotency_key = ? AND expires_at <= ?", key, now).
			Delete(&idempotencyModel{}).Error; err != nil {
			return err
		}
		rec := idempotencyModel{
			IdempotencyKey: key,
			RequestHash:    requestHash,
			Status:         "reserved",
			ExpiresAt:      expiresAt,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := tx.Create(&rec).Error; err != nil {
			if isUniqueViolation(err) {
				return domain.ErrIdempotencyConflict
			}
			return err
		}
		return nil
	})
}

func (r *idempotencyRepository) Complete(ctx context.Context, key string, responseCode int, responseBody []byte, now time.Time) error {
	body := string(responseBody)
	return r.db.WithContext(ctx).
		Model(&idempotencyModel{}).
		Where("idempotency_key = ?", key).
		Updates(map[string]any{
			"status":        "completed",
			"response_code": responseCode,
			"response_body": &body,
			"updated_at":    now,
		}).Error
}
