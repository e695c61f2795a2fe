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

type applicationRepository struct {
	db *gorm.DB
}

func (r *applicationRepository) Create(ctx context.Context, app domain.CreatorApplication) error {
	rec := creatorApplicationModel{
		ApplicationID: app.ApplicationID,
		UserID:        app.UserID,
		Status:        string(app.Status),
		Bio:           app.Bio,
		Expertise:     app.Expertise,
		PortfolioURL:  app.PortfolioURL,
		CreatedAt:     app.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		// Partial unique index: one pending application per user.
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *applicationRepository) GetByID(ctx context.Context, applicationID uuid.UUID) (domain.CreatorApplication, error) {
	var rec creatorApplicationModel
	if err := r.db.WithContext(ctx).Where("application_id = ?", applicationID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.CreatorApplication{}, domain.ErrNotFound
		}
		return domain.CreatorApplication{}, err
	}
	return toDomainApplication(rec), nil
}

// ApproveTx flips the application and provisions the creator: role promotion,
// profile seeded from the application, and a zeroed balance row. Every write
// is keyed by the user id, so a retried approval converges on the same state.
func (r *applicationRepository) ApproveTx(ctx context.Context, params ports.ApproveApplicationParams) (domain.CreatorApplication, error) {
	var out domain.CreatorApplication
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec creatorApplicationModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("application_id = ?", params.ApplicationID).
			Take(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		if rec.Status != string(domain.ApplicationStatusPending) {
			return fmt.Errorf("%w: application is %s", domain.ErrConflict, rec.Status)
		}

		reviewedBy := params.ReviewedBy
		reviewedAt := params.Now
		rec.Status = string(domain.ApplicationStatusApproved)
		rec.ReviewedBy = &reviewedBy
		rec.ReviewedAt = &reviewedAt
		if err := tx.Save(&rec).Error; err != nil {
			return err
		}

		role := userRoleModel{UserID: rec.UserID, Role: string(domain.RoleCreator), UpdatedAt: params.Now}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"role", "updated_at"}),
		}).Create(&role).Error; err != nil {
			return err
		}

		profile := creatorProfileModel{
			CreatorID:    rec.UserID,
			Bio:          rec.Bio,
			Expertise:    rec.Expertise,
			PortfolioURL: rec.PortfolioURL,
			CreatedAt:    params.Now,
			UpdatedAt:    params.Now,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "creator_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"bio", "expertise", "portfolio_url", "updated_at"}),
		}).Create(&profile).Error; err != nil {
			return err
		}

		balance := creatorBalanceModel{CreatorID: rec.UserID, UpdatedAt: params.Now}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&balance).Error; err != nil {
			return err
		}

		if err := insertOutbox(tx, params.Event); err != nil {
			return err
		}
		out = toDomainApplication(rec)
		return nil
	})
	if err != nil {
		return domain.CreatorApplication{}, err
	}
	return out, nil
}

func (r *applicationRepository) Reject(ctx context.Context, applicationID, reviewedBy uuid.UUID, reason string, now time.Time) (domain.CreatorApplication, error) {
	var out domain.CreatorApplication
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&creatorApplicationModel{}).
			Where("application_id = ? AND status = ?", applicationID, string(domain.ApplicationStatusPending)).
			Updates(map[string]any{
				"status":           string(domain.ApplicationStatusRejected),
				"rejection_reason": reason,
				"reviewed_by":      reviewedBy,
				"reviewed_at":      now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var rec creatorApplicationModel
			if err := tx.Where("application_id = ?", applicationID).Take(&rec).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return domain.ErrNotFound
				}
				return err
			}
			return fmt.Errorf("%w: application is %s", domain.ErrConflict, rec.Status)
		}
		var rec creatorApplicationModel
		if err := tx.Where("application_id = ?", applicationID).Take(&rec).Error; err != nil {
			return err
		}
		out = toDomainApplication(rec)
		return nil
	})
	if err != nil {
		return domain.CreatorApplication{}, err
	}
	return out, nil
}
