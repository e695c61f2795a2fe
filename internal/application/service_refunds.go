package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/findinggems/settlement-service/internal/domain"
	"github.com/findinggems/settlement-service/internal/ports"
	"github.com/google/uuid"
)

// RequestRefund opens a reversal request against a paid order. The original
// amount is snapshotted now; a later price change on the tier never affects
// the refund. An Idempotency-Key is mandatory; retries replay the original
// refund.
func (s *Service) RequestRefund(ctx context.Context, actor Actor, input RequestRefundInput, idempotencyKey string) (domain.Refund, error) {
	if err := s.requireAuthenticated(actor); err != nil {
		return domain.Refund{}, err
	}
	if idempotencyKey == "" {
		return domain.Refund{}, domain.ErrIdempotencyRequired
	}
	if err := domain.ValidateRefundRequestInput(input.ReasonCategory, input.Reason); err != nil {
		return domain.Refund{}, err
	}
	// Replay before the single-open-refund guard: the refund created by the
	// first attempt occupies the order's slot, so a retry must short-circuit
	// here instead of tripping over its own earlier success.
	cached, err := s.replayIdempotent(ctx, idempotencyKey, input)
	if err != nil {
		return domain.Refund{}, err
	}
	if cached != nil {
		var replay domain.Refund
		if err := json.Unmarshal(cached, &replay); err != nil {
			return domain.Refund{}, err
		}
		return replay, nil
	}
	order, err := s.orders.GetByID(ctx, input.OrderID)
	if err != nil {
		return domain.Refund{}, err
	}
	if order.BuyerID != actor.UserID {
		return domain.Refund{}, domain.ErrForbidden
	}
	if order.Status == domain.OrderStatusRefunded {
		return domain.Refund{}, fmt.Errorf("%w: order already refunded", domain.ErrConflict)
	}
	if order.Status != domain.OrderStatusPaid {
		return domain.Refund{}, fmt.Errorf("%w: order is %s", domain.ErrInvalidTransition, order.Status)
	}
	open, err := s.refunds.ListOpenByOrder(ctx, order.OrderID)
	if err != nil {
		return domain.Refund{}, err
	}
	if len(open) > 0 {
		return domain.Refund{}, fmt.Errorf("%w: refund already open for order", domain.ErrConflict)
	}

	now := s.nowFn()
	refund := domain.Refund{
		RefundID:       uuid.New(),
		RefundNumber:   refundNumber(now),
		OrderID:        order.OrderID,
		RequesterID:    actor.UserID,
		OriginalAmount: order.TotalAmount,
		RefundAmount:   order.TotalAmount,
		ReasonCategory: strings.TrimSpace(input.ReasonCategory),
		Reason:         strings.TrimSpace(input.Reason),
		Status:         domain.RefundStatusRequested,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	event := s.newOutboxEvent(domain.EventRefundRequested, order.OrderID.String(), map[string]any{
		"refund_id":       refund.RefundID.String(),
		"refund_number":   refund.RefundNumber,
		"order_id":        order.OrderID.String(),
		"requester_id":    actor.UserID.String(),
		"original_amount": refund.OriginalAmount,
		"reason_category": refund.ReasonCategory,
	}, now)
	if err := s.refunds.Create(ctx, refund, event); err != nil {
		return domain.Refund{}, err
	}
	if err := s.completeIdempotent(ctx, idempotencyKey, 201, refund); err != nil {
		return domain.Refund{}, err
	}
	return refund, nil
}

// BeginReview claims a requested refund for admin review.
func (s *Service) BeginReview(ctx context.Context, actor Actor, refundID uuid.UUID) (domain.Refund, error) {
	if err := s.requireAdmin(actor); err != nil {
		return domain.Refund{}, err
	}
	refund, err := s.refunds.GetByID(ctx, refundID)
	if err != nil {
		return domain.Refund{}, err
	}
	if !refund.Status.CanTransitionTo(domain.RefundStatusUnderReview) {
		return domain.Refund{}, transitionErr(string(refund.Status), string(domain.RefundStatusUnderReview))
	}
	return s.refunds.UpdateStatus(ctx, refundID, refund.Status, domain.RefundStatusUnderReview, "", "", s.nowFn(), nil)
}

// ReviewRefund decides an under-review refund. Approval settles the reversal
// in one transaction: balance debit, order flip to refunded, refund update.
// When the creator already withdrew the funds the refund is still approved but
// flagged for manual reconciliation and the balance is left untouched.
func (s *Service) ReviewRefund(ctx context.Context, actor Actor, refundID uuid.UUID, input ReviewRefundInput) (ReviewRefundOutput, error) {
	if err := s.requireAdmin(actor); err != nil {
		return ReviewRefundOutput{}, err
	}
	refund, err := s.refunds.GetByID(ctx, refundID)
	if err != nil {
		return ReviewRefundOutput{}, err
	}

	switch input.Decision {
	case "reject":
		if !refund.Status.CanTransitionTo(domain.RefundStatusRejected) {
			return ReviewRefundOutput{}, reviewTransitionErr(refund.Status, domain.RefundStatusRejected)
		}
		now := s.nowFn()
		event := s.newOutboxEvent(domain.EventRefundRejected, refund.OrderID.String(), map[string]any{
			"refund_id": refund.RefundID.String(),
			"order_id":  refund.OrderID.String(),
		}, now)
		rejected, err := s.refunds.UpdateStatus(ctx, refundID, refund.Status, domain.RefundStatusRejected, "rejected by admin", input.AdminNotes, now, &event)
		if err != nil {
			return ReviewRefundOutput{}, err
		}
		return ReviewRefundOutput{Refund: rejected}, nil

	case "approve":
		if !refund.Status.CanTransitionTo(domain.RefundStatusApproved) {
			return ReviewRefundOutput{}, reviewTransitionErr(refund.Status, domain.RefundStatusApproved)
		}
		amount := refund.RefundAmount
		if input.RefundAmount != nil {
			amount = *input.RefundAmount
		}
		if err := domain.ValidateRefundAmount(amount, refund.OriginalAmount); err != nil {
			return ReviewRefundOutput{}, fmt.Errorf("%w: refund amount out of range", err)
		}
		order, err := s.orders.GetByID(ctx, refund.OrderID)
		if err != nil {
			return ReviewRefundOutput{}, err
		}
		website, err := s.websites.GetByID(ctx, order.WebsiteID)
		if err != nil {
			return ReviewRefundOutput{}, err
		}

		now := s.nowFn()
		approved := s.newOutboxEvent(domain.EventRefundApproved, refund.OrderID.String(), map[string]any{
			"refund_id":     refund.RefundID.String(),
			"order_id":      refund.OrderID.String(),
			"creator_id":    website.CreatorID.String(),
			"refund_amount": amount,
		}, now)
		reconciliation := s.newOutboxEvent(domain.EventRefundReconciliationRequired, refund.OrderID.String(), map[string]any{
			"refund_id":     refund.RefundID.String(),
			"order_id":      refund.OrderID.String(),
			"creator_id":    website.CreatorID.String(),
			"refund_amount": amount,
		}, now)
		updated, outcome, err := s.refunds.ApproveTx(ctx, ports.ApproveRefundParams{
			RefundID:            refund.RefundID,
			RefundAmount:        amount,
			AdminNotes:          input.AdminNotes,
			Now:                 now,
			Event:               approved,
			ReconciliationEvent: reconciliation,
		})
		if err != nil {
			return ReviewRefundOutput{}, err
		}
		s.invalidateBalance(ctx, website.CreatorID)
		return ReviewRefundOutput{Refund: updated, Outcome: outcome}, nil

	default:
		return ReviewRefundOutput{}, fmt.Errorf("%w: decision must be approve or reject", domain.ErrInvalidInput)
	}
}

// MarkRefundProcessing records that the external money movement started.
func (s *Service) MarkRefundProcessing(ctx context.Context, actor Actor, refundID uuid.UUID) (domain.Refund, error) {
	if err := s.requireAdmin(actor); err != nil {
		return domain.Refund{}, err
	}
	refund, err := s.refunds.GetByID(ctx, refundID)
	if err != nil {
		return domain.Refund{}, err
	}
	if !refund.Status.CanTransitionTo(domain.RefundStatusProcessing) {
		return domain.Refund{}, reviewTransitionErr(refund.Status, domain.RefundStatusProcessing)
	}
	return s.refunds.UpdateStatus(ctx, refundID, refund.Status, domain.RefundStatusProcessing, "refund transfer initiated", "", s.nowFn(), nil)
}

// CompleteRefund finalizes the workflow after the bank confirms the transfer.
func (s *Service) CompleteRefund(ctx context.Context, actor Actor, refundID uuid.UUID) (domain.Refund, error) {
	if err := s.requireAdmin(actor); err != nil {
		return domain.Refund{}, err
	}
	refund, err := s.refunds.GetByID(ctx, refundID)
	if err != nil {
		return domain.Refund{}, err
	}
	if !refund.Status.CanTransitionTo(domain.RefundStatusCompleted) {
		return domain.Refund{}, reviewTransitionErr(refund.Status, domain.RefundStatusCompleted)
	}
	now := s.nowFn()
	event := s.newOutboxEvent(domain.EventRefundCompleted, refund.OrderID.String(), map[string]any{
		"refund_id": refund.RefundID.String(),
		"order_id":  refund.OrderID.String(),
	}, now)
	return s.refunds.UpdateStatus(ctx, refundID, refund.Status, domain.RefundStatusCompleted, "refund completed", "", now, &event)
}

// CancelRefund is open to the original requester while the refund is still
// requested or under review.
func (s *Service) CancelRefund(ctx context.Context, actor Actor, refundID uuid.UUID) (domain.Refund, error) {
	if err := s.requireAuthenticated(actor); err != nil {
		return domain.Refund{}, err
	}
	refund, err := s.refunds.GetByID(ctx, refundID)
	if err != nil {
		return domain.Refund{}, err
	}
	if refund.RequesterID != actor.UserID {
		return domain.Refund{}, domain.ErrForbidden
	}
	if !refund.Status.CanTransitionTo(domain.RefundStatusCancelled) {
		return domain.Refund{}, reviewTransitionErr(refund.Status, domain.RefundStatusCancelled)
	}
	return s.refunds.UpdateStatus(ctx, refundID, refund.Status, domain.RefundStatusCancelled, "cancelled by requester", "", s.nowFn(), nil)
}

func (s *Service) GetRefund(ctx context.Context, actor Actor, refundID uuid.UUID) (domain.Refund, error) {
	if err := s.requireAuthenticated(actor); err != nil {
		return domain.Refund{}, err
	}
	refund, err := s.refunds.GetByID(ctx, refundID)
	if err != nil {
		return domain.Refund{}, err
	}
	if err := s.requireOwnerOrAdmin(actor, refund.RequesterID); err != nil {
		return domain.Refund{}, err
	}
	return refund, nil
}

func (s *Service) ListRefunds(ctx context.Context, actor Actor, query ports.RefundQuery) (RefundListOutput, error) {
	if err := s.requireAuthenticated(actor); err != nil {
		return RefundListOutput{}, err
	}
	if actor.Role != domain.RoleAdmin {
		requester := actor.UserID
		query.RequesterID = &requester
	}
	if query.Limit <= 0 {
		query.Limit = 20
	}
	if query.Offset < 0 {
		query.Offset = 0
	}
	items, total, err := s.refunds.List(ctx, query)
	if err != nil {
		return RefundListOutput{}, err
	}
	return RefundListOutput{
		Items:      items,
		Pagination: Pagination{Limit: query.Limit, Offset: query.Offset, Total: total},
	}, nil
}

func reviewTransitionErr(from domain.RefundStatus, to domain.RefundStatus) error {
	if from.Terminal() {
		return fmt.Errorf("%w: refund already %s", domain.ErrConflict, from)
	}
	return transitionErr(string(from), string(to))
}

func transitionErr(from, to string) error {
	return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, to)
}
