package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/findinggems/settlement-service/internal/domain"
	"github.com/findinggems/settlement-service/internal/ports"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type refundRepository struct {
	db *gorm.DB
}

func (r *refundRepository) Create(ctx context.Context, refund domain.Refund, event ports.OutboxEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := refundModel{
			RefundID:       refund.RefundID,
			RefundNumber:   refund.RefundNumber,
			OrderID:        refund.OrderID,
			RequesterID:    refund.RequesterID,
			OriginalAmount: refund.OriginalAmount,
			RefundAmount:   refund.RefundAmount,
			ReasonCategory: refund.ReasonCategory,
			Reason:         refund.Reason,
			Status:         string(refund.Status),
			StatusMessage:  refund.StatusMessage,
			AdminNotes:     refund.AdminNotes,
			CreatedAt:      refund.CreatedAt,
			UpdatedAt:      refund.UpdatedAt,
		}
		if err := tx.Create(&rec).Error; err != nil {
			// The partial unique index on open refunds per order fires here when
			// a second request races the existence check.
			if isUniqueViolation(err) {
				return domain.ErrConflict
			}
			return err
		}
		return insertOutbox(tx, event)
	})
}

func (r *refundRepository) GetByID(ctx context.Context, refundID uuid.UUID) (domain.Refund, error) {
	var rec refundModel
	if err := r.db.WithContext(ctx).Where("refund_id = ?", refundID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Refund{}, domain.ErrNotFound
		}
		return domain.Refund{}, err
	}
	return toDomainRefund(rec), nil
}

func (r *refundRepository) ListOpenByOrder(ctx context.Context, orderID uuid.UUID) ([]domain.Refund, error) {
	var rows []refundModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ? AND status NOT IN ?", orderID,
			[]string{string(domain.RefundStatusRejected), string(domain.RefundStatusCancelled)}).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Refund, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainRefund(row))
	}
	return out, nil
}

func (r *refundRepository) List(ctx context.Context, query ports.RefundQuery) ([]domain.Refund, int64, error) {
	scope := r.db.WithContext(ctx).Model(&refundModel{})
	if query.RequesterID != nil {
		scope = scope.Where("requester_id = ?", *query.RequesterID)
	}
	if query.Status != "" {
		scope = scope.Where("status = ?", string(query.Status))
	}
	var total int64
	if err := scope.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []refundModel
	if err := scope.Order("created_at desc").Limit(query.Limit).Offset(query.Offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]domain.Refund, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainRefund(row))
	}
	return out, total, nil
}

func (r *refundRepository) UpdateStatus(ctx context.Context, refundID uuid.UUID, from, to domain.RefundStatus, message, adminNotes string, now time.Time, event *ports.OutboxEvent) (domain.Refund, error) {
	var out domain.Refund
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fields := map[string]any{
			"status":         string(to),
			"status_message": message,
			"updated_at":     now,
		}
		if adminNotes != "" {
			fields["admin_notes"] = adminNotes
		}
		res := tx.Model(&refundModel{}).
			Where("refund_id = ? AND status = ?", refundID, string(from)).
			Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var rec refundModel
			if err := tx.Where("refund_id = ?", refundID).Take(&rec).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return domain.ErrNotFound
				}
				return err
			}
			return fmt.Errorf("%w: refund is %s", domain.ErrConflict, rec.Status)
		}
		if event != nil {
			if err := insertOutbox(tx, *event); err != nil {
				return err
			}
		}
		var rec refundModel
		if err := tx.Where("refund_id = ?", refundID).Take(&rec).Error; err != nil {
			return err
		}
		out = toDomainRefund(rec)
		return nil
	})
	if err != nil {
		return domain.Refund{}, err
	}
	return out, nil
}

// ApproveTx settles an approved refund in one transaction: the balance
// reversal (available first, then pending), the order flip to refunded, the
// refund row itself, and the outbox event. When the creator has already
// withdrawn the funds, no balance is touched; the refund is flagged for
// reconciliation and the alternate event is written instead.
func (r *refundRepository) ApproveTx(ctx context.Context, params ports.ApproveRefundParams) (domain.Refund, domain.ReverseOutcome, error) {
	var (
		out     domain.Refund
		outcome domain.ReverseOutcome
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec refundModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("refund_id = ?", params.RefundID).
			Take(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		if rec.Status != string(domain.RefundStatusUnderReview) {
			return fmt.Errorf("%w: refund is %s", domain.ErrConflict, rec.Status)
		}

		var order orderModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("order_id = ?", rec.OrderID).
			Take(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		if order.Status == string(domain.OrderStatusRefunded) {
			return fmt.Errorf("%w: order already refunded", domain.ErrConflict)
		}
		if order.Status != string(domain.OrderStatusPaid) {
			return fmt.Errorf("%w: order is %s", domain.ErrInvalidTransition, order.Status)
		}

		var site websiteModel
		if err := tx.Where("website_id = ?", order.WebsiteID).Take(&site).Error; err != nil {
			return fmt.Errorf("resolve creator for order %s: %w", order.OrderID, err)
		}

		bal, err := lockBalance(tx, site.CreatorID)
		if err != nil {
			return err
		}

		amount := params.RefundAmount
		fromAvailable := min64(bal.AvailableBalance, amount)
		fromPending := min64(bal.PendingBalance, amount-fromAvailable)
		covered := fromAvailable+fromPending == amount

		if covered {
			bal.AvailableBalance -= fromAvailable
			bal.PendingBalance -= fromPending
			bal.TotalRefunded += amount
			bal.UpdatedAt = params.Now
			if err := tx.Save(&bal).Error; err != nil {
				return err
			}
			if fromPending > 0 {
				if err := consumePendingEntries(tx, site.CreatorID, order.OrderID, fromPending); err != nil {
					return err
				}
			}
			outcome = domain.ReverseOutcome{FromAvailable: fromAvailable, FromPending: fromPending}
		} else {
			outcome = domain.ReverseOutcome{Reconciliation: true}
		}

		rec.Status = string(domain.RefundStatusApproved)
		rec.RefundAmount = amount
		rec.AdminNotes = params.AdminNotes
		rec.ReconciliationRequired = outcome.Reconciliation
		rec.UpdatedAt = params.Now
		if err := tx.Save(&rec).Error; err != nil {
			return err
		}

		order.Status = string(domain.OrderStatusRefunded)
		order.UpdatedAt = params.Now
		if err := tx.Save(&order).Error; err != nil {
			return err
		}

		event := params.Event
		if outcome.Reconciliation {
			event = params.ReconciliationEvent
		}
		if err := insertOutbox(tx, event); err != nil {
			return err
		}
		out = toDomainRefund(rec)
		return nil
	})
	if err != nil {
		return domain.Refund{}, domain.ReverseOutcome{}, err
	}
	return out, outcome, nil
}

// consumePendingEntries debits the reversal's pending share from the
// creator's maturation entries, so the maintenance sweep cannot later release
// funds the refund already returned. The pending bucket is fungible across
// orders while the entries are not: the refunded order's share may exceed its
// own entry (or that entry may have matured already) with the remainder
// funded by other orders' credits. The refunded order's entry is consumed
// first, then the oldest other credits, each capped at what it holds.
func consumePendingEntries(tx *gorm.DB, creatorID, orderID uuid.UUID, amount int64) error {
	var entries []balanceEntryModel
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("creator_id = ? AND status = ?", creatorID, string(domain.BalanceEntryStatusPending)).
		Order("created_at asc").
		Find(&entries).Error; err != nil {
		return err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].OrderID == orderID && entries[j].OrderID != orderID
	})

	remaining := amount
	for _, entry := range entries {
		if remaining == 0 {
			break
		}
		take := min64(entry.Amount, remaining)
		if take == entry.Amount {
			// Fully consumed. Keep the amount for audit, flip the status.
			if err := tx.Model(&balanceEntryModel{}).
				Where("entry_id = ?", entry.EntryID).
				Update("status", string(domain.BalanceEntryStatusReversed)).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Model(&balanceEntryModel{}).
				Where("entry_id = ?", entry.EntryID).
				Update("amount", entry.Amount-take).Error; err != nil {
				return err
			}
		}
		remaining -= take
	}
	if remaining > 0 {
		// The pending bucket covered the reversal but the entries do not sum to
		// the bucket. Abort rather than let the books diverge further.
		return fmt.Errorf("ledger drift: pending entries short %d of reversal %d for creator %s", remaining, amount, creatorID)
	}
	return nil
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
