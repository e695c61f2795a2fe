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

type orderRepository struct {
	db *gorm.DB
}

func (r *orderRepository) Create(ctx context.Context, order domain.Order) error {
	rec := orderModel{
		OrderID:       order.OrderID,
		OrderNumber:   order.OrderNumber,
		BuyerID:       order.BuyerID,
		WebsiteID:     order.WebsiteID,
		PricingTierID: order.PricingTierID,
		TotalAmount:   order.TotalAmount,
		PlatformFee:   order.PlatformFee,
		Status:        string(order.Status),
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, orderID uuid.UUID) (domain.Order, error) {
	var rec orderModel
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Order{}, domain.ErrNotFound
		}
		return domain.Order{}, err
	}
	return toDomainOrder(rec), nil
}

func (r *orderRepository) ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]domain.Order, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&orderModel{}).Where("buyer_id = ?", buyerID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []orderModel
	if err := r.db.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Order("created_at desc").
		Limit(limit).Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	out := make([]domain.Order, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainOrder(row))
	}
	return out, total, nil
}

// ConfirmPaidTx performs the whole payment confirmation as one transaction:
// order flip, balance credit into pending, maturation entry, outbox event.
// A duplicate webhook finds the order already paid and returns without side
// effects. The unique index on balance_entries(order_id) backstops the credit
// against any race the row lock misses.
func (r *orderRepository) ConfirmPaidTx(ctx context.Context, params ports.ConfirmPaymentParams, event ports.OutboxEvent) (domain.Order, bool, error) {
	var out domain.Order
	credited := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec orderModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("order_id = ?", params.OrderID).
			Take(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		if rec.Status == string(domain.OrderStatusPaid) {
			out = toDomainOrder(rec)
			return nil
		}
		if rec.Status != string(domain.OrderStatusPending) {
			return fmt.Errorf("%w: order is %s", domain.ErrInvalidTransition, rec.Status)
		}

		paidAt := params.PaidAt
		rec.Status = string(domain.OrderStatusPaid)
		rec.PaidAt = &paidAt
		rec.UpdatedAt = paidAt
		rec.ProviderRef = nullableString(params.ProviderReference)
		if err := tx.Save(&rec).Error; err != nil {
			return err
		}

		bal, err := lockOrInitBalance(tx, params.CreatorID, paidAt)
		if err != nil {
			return err
		}
		bal.PendingBalance += params.NetAmount
		bal.TotalEarnings += params.NetAmount
		bal.UpdatedAt = paidAt
		if err := tx.Save(&bal).Error; err != nil {
			return err
		}

		entry := balanceEntryModel{
			EntryID:     uuid.New(),
			CreatorID:   params.CreatorID,
			OrderID:     params.OrderID,
			Amount:      params.NetAmount,
			Status:      string(domain.BalanceEntryStatusPending),
			AvailableAt: params.AvailableAt,
			CreatedAt:   paidAt,
		}
		if err := tx.Create(&entry).Error; err != nil {
			if isUniqueViolation(err) {
				return domain.ErrConflict
			}
			return err
		}
		if err := insertOutbox(tx, event); err != nil {
			return err
		}

		out = toDomainOrder(rec)
		credited = true
		return nil
	})
	if err != nil {
		return domain.Order{}, false, err
	}
	return out, credited, nil
}

// ExpireStalePendingTx sweeps pending orders older than cutoff. SKIP LOCKED
// lets an overlapping sweep or a racing ConfirmPayment win without deadlock.
func (r *orderRepository) ExpireStalePendingTx(ctx context.Context, cutoff, now time.Time, makeEvent func(domain.Order) ports.OutboxEvent) ([]domain.Order, error) {
	var expired []domain.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []orderModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ? AND created_at < ?", string(domain.OrderStatusPending), cutoff).
			Find(&rows).Error; err != nil {
			return err
		}
		for i := range rows {
			rows[i].Status = string(domain.OrderStatusExpired)
			rows[i].UpdatedAt = now
			if err := tx.Save(&rows[i]).Error; err != nil {
				return err
			}
			order := toDomainOrder(rows[i])
			if err := insertOutbox(tx, makeEvent(order)); err != nil {
				return err
			}
			expired = append(expired, order)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return expired, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, orderID uuid.UUID, from, to domain.OrderStatus, now time.Time) (domain.Order, error) {
	res := r.db.WithContext(ctx).
		Model(&orderModel{}).
		Where("order_id = ? AND status = ?", orderID, string(from)).
		Updates(map[string]any{"status": string(to), "updated_at": now})
	if res.Error != nil {
		return domain.Order{}, res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, orderID); err != nil {
			return domain.Order{}, err
		}
		return domain.Order{}, fmt.Errorf("%w: order no longer %s", domain.ErrConflict, from)
	}
	return r.GetByID(ctx, orderID)
}
