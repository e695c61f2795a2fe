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

type reportRepository struct {
	db *gorm.DB
}

func (r *reportRepository) Create(ctx context.Context, report domain.Report) error {
	rec := reportModel{
		ReportID:       report.ReportID,
		WebsiteID:      report.WebsiteID,
		ReporterID:     report.ReporterID,
		ReasonCategory: report.ReasonCategory,
		Detail:         report.Detail,
		Status:         string(report.Status),
		CreatedAt:      report.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *reportRepository) GetByID(ctx context.Context, reportID uuid.UUID) (domain.Report, error) {
	var rec reportModel
	if err := r.db.WithContext(ctx).Where("report_id = ?", reportID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Report{}, domain.ErrNotFound
		}
		return domain.Report{}, err
	}
	return toDomainReport(rec), nil
}

func (r *reportRepository) Resolve(ctx context.Context, reportID uuid.UUID, status domain.ReportStatus, note string, resolvedBy uuid.UUID, now time.Time, event ports.OutboxEvent) (domain.Report, error) {
	var out domain.Report
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&reportModel{}).
			Where("report_id = ? AND status = ?", reportID, string(domain.ReportStatusPending)).
			Updates(map[string]any{
				"status":      string(status),
				"admin_note":  note,
				"resolved_by": resolvedBy,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var rec reportModel
			if err := tx.Where("report_id = ?", reportID).Take(&rec).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return domain.ErrNotFound
				}
				return err
			}
			return fmt.Errorf("%w: report is %s", domain.ErrConflict, rec.Status)
		}
		if err := insertOutbox(tx, event); err != nil {
			return err
		}
		var rec reportModel
		if err := tx.Where("report_id = ?", reportID).Take(&rec).Error; err != nil {
			return err
		}
		out = toDomainReport(rec)
		return nil
	})
	if err != nil {
		return domain.Report{}, err
	}
	return out, nil
}
