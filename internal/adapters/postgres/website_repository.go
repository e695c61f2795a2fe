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
)

type websiteRepository struct {
	db *gorm.DB
}

func (r *websiteRepository) Create(ctx context.Context, website domain.Website) error {
	rec := websiteModel{
		WebsiteID:    website.WebsiteID,
		CreatorID:    website.CreatorID,
		Name:         website.Name,
		Status:       string(website.Status),
		StatusReason: website.StatusReason,
		CreatedAt:    website.CreatedAt,
		UpdatedAt:    website.UpdatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *websiteRepository) GetByID(ctx context.Context, websiteID uuid.UUID) (domain.Website, error) {
	var rec websiteModel
	if err := r.db.WithContext(ctx).Where("website_id = ?", websiteID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Website{}, domain.ErrNotFound
		}
		return domain.Website{}, err
	}
	return toDomainWebsite(rec), nil
}

func (r *websiteRepository) GetTier(ctx context.Context, tierID uuid.UUID) (domain.PricingTier, error) {
	var rec pricingTierModel
	if err := r.db.WithContext(ctx).Where("tier_id = ?", tierID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.PricingTier{}, domain.ErrNotFound
		}
		return domain.PricingTier{}, err
	}
	return toDomainTier(rec), nil
}

func (r *websiteRepository) UpdateStatus(ctx context.Context, websiteID uuid.UUID, from, to domain.WebsiteStatus, reason string, now time.Time, event ports.OutboxEvent) (domain.Website, error) {
	var out domain.Website
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&websiteModel{}).
			Where("website_id = ? AND status = ?", websiteID, string(from)).
			Updates(map[string]any{"status": string(to), "status_reason": reason, "updated_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var rec websiteModel
			if err := tx.Where("website_id = ?", websiteID).Take(&rec).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return domain.ErrNotFound
				}
				return err
			}
			return fmt.Errorf("%w: website is %s", domain.ErrConflict, rec.Status)
		}
		if err := insertOutbox(tx, event); err != nil {
			return err
		}
		var rec websiteModel
		if err := tx.Where("website_id = ?", websiteID).Take(&rec).Error; err != nil {
			return err
		}
		out = toDomainWebsite(rec)
		return nil
	})
	if err != nil {
		return domain.Website{}, err
	}
	return out, nil
}
