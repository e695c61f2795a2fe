package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/findinggems/settlement-service/internal/domain"
	"github.com/findinggems/settlement-service/internal/ports"
	"github.com/google/uuid"
)

// RequestPayout reserves available funds for withdrawal. The reservation and
// the payout insert share one transaction, so the available-balance check has
// no read-then-write gap: two concurrent requests whose sum exceeds the
// balance can never both succeed. An Idempotency-Key is mandatory; a retried
// request replays the original payout instead of reserving twice.
func (s *Service) RequestPayout(ctx context.Context, actor Actor, input RequestPayoutInput, idempotencyKey string) (domain.Payout, error) {
	if err := s.requireAuthenticated(actor); err != nil {
		return domain.Payout{}, err
	}
	if actor.Role != domain.RoleCreator {
		return domain.Payout{}, domain.ErrForbidden
	}
	if idempotencyKey == "" {
		return domain.Payout{}, domain.ErrIdempotencyRequired
	}
	if err := domain.ValidatePayoutAmount(input.Amount, s.cfg.MinimumPayout); err != nil {
		return domain.Payout{}, fmt.Errorf("%w: amount below minimum payout %d", err, s.cfg.MinimumPayout)
	}

	account, err := s.resolveBankAccount(ctx, actor, input.BankAccountID)
	if err != nil {
		return domain.Payout{}, err
	}

	cached, err := s.replayIdempotent(ctx, idempotencyKey, input)
	if err != nil {
		return domain.Payout{}, err
	}
	if cached != nil {
		var replay domain.Payout
		if err := json.Unmarshal(cached, &replay); err != nil {
			return domain.Payout{}, err
		}
		return replay, nil
	}

	now := s.nowFn()
	payout := domain.Payout{
		PayoutID:      uuid.New(),
		CreatorID:     actor.UserID,
		Amount:        input.Amount,
		BankAccountID: account.BankAccountID,
		Status:        domain.PayoutStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	event := s.newOutboxEvent(domain.EventPayoutRequested, actor.UserID.String(), map[string]any{
		"payout_id":  payout.PayoutID.String(),
		"creator_id": actor.UserID.String(),
		"amount":     payout.Amount,
	}, now)
	created, err := s.payouts.CreateWithReserveTx(ctx, ports.RequestPayoutParams{Payout: payout, Now: now}, event)
	if err != nil {
		return domain.Payout{}, err
	}
	s.invalidateBalance(ctx, actor.UserID)
	if err := s.completeIdempotent(ctx, idempotencyKey, 201, created); err != nil {
		return domain.Payout{}, err
	}
	return created, nil
}

// ApprovePayout moves a pending payout into processing; money stays reserved
// until the bank confirms.
func (s *Service) ApprovePayout(ctx context.Context, actor Actor, payoutID uuid.UUID) (domain.Payout, error) {
	if err := s.requireAdmin(actor); err != nil {
		return domain.Payout{}, err
	}
	payout, err := s.payouts.GetByID(ctx, payoutID)
	if err != nil {
		return domain.Payout{}, err
	}
	if !payout.Status.CanTransitionTo(domain.PayoutStatusProcessing) {
		return domain.Payout{}, payoutTransitionErr(payout.Status, domain.PayoutStatusProcessing)
	}
	return s.payouts.UpdateStatus(ctx, payoutID, payout.Status, domain.PayoutStatusProcessing, "approved for processing", s.nowFn())
}

// CompletePayout finalizes a processing payout after bank confirmation,
// moving the reservation into withdrawn.
func (s *Service) CompletePayout(ctx context.Context, actor Actor, payoutID uuid.UUID) (domain.Payout, error) {
	if err := s.requireAdmin(actor); err != nil {
		return domain.Payout{}, err
	}
	payout, err := s.payouts.GetByID(ctx, payoutID)
	if err != nil {
		return domain.Payout{}, err
	}
	if !payout.Status.CanTransitionTo(domain.PayoutStatusCompleted) {
		return domain.Payout{}, payoutTransitionErr(payout.Status, domain.PayoutStatusCompleted)
	}
	now := s.nowFn()
	event := s.newOutboxEvent(domain.EventPayoutCompleted, payout.CreatorID.String(), map[string]any{
		"payout_id":  payout.PayoutID.String(),
		"creator_id": payout.CreatorID.String(),
		"amount":     payout.Amount,
	}, now)
	completed, err := s.payouts.CompleteTx(ctx, payoutID, now, event)
	if err != nil {
		return domain.Payout{}, err
	}
	s.invalidateBalance(ctx, payout.CreatorID)
	return completed, nil
}

// RejectPayout returns the reservation to available. Admins may reject from
// any pre-terminal state; a reason is mandatory.
func (s *Service) RejectPayout(ctx context.Context, actor Actor, payoutID uuid.UUID, reason string) (domain.Payout, error) {
	if err := s.requireAdmin(actor); err != nil {
		return domain.Payout{}, err
	}
	if strings.TrimSpace(reason) == "" {
		return domain.Payout{}, fmt.Errorf("%w: rejection reason required", domain.ErrInvalidInput)
	}
	payout, err := s.payouts.GetByID(ctx, payoutID)
	if err != nil {
		return domain.Payout{}, err
	}
	if !payout.Status.CanTransitionTo(domain.PayoutStatusRejected) {
		return domain.Payout{}, payoutTransitionErr(payout.Status, domain.PayoutStatusRejected)
	}
	now := s.nowFn()
	event := s.newOutboxEvent(domain.EventPayoutRejected, payout.CreatorID.String(), map[string]any{
		"payout_id":  payout.PayoutID.String(),
		"creator_id": payout.CreatorID.String(),
		"amount":     payout.Amount,
		"reason":     reason,
	}, now)
	rejected, err := s.payouts.ReleaseTx(ctx, payoutID, payout.Status, domain.PayoutStatusRejected, reason, now, event)
	if err != nil {
		return domain.Payout{}, err
	}
	s.invalidateBalance(ctx, payout.CreatorID)
	return rejected, nil
}

// CancelPayout is open to the owning creator while the payout is pending.
func (s *Service) CancelPayout(ctx context.Context, actor Actor, payoutID uuid.UUID) (domain.Payout, error) {
	if err := s.requireAuthenticated(actor); err != nil {
		return domain.Payout{}, err
	}
	payout, err := s.payouts.GetByID(ctx, payoutID)
	if err != nil {
		return domain.Payout{}, err
	}
	if payout.CreatorID != actor.UserID {
		return domain.Payout{}, domain.ErrForbidden
	}
	if payout.Status != domain.PayoutStatusPending {
		return domain.Payout{}, payoutTransitionErr(payout.Status, domain.PayoutStatusCancelled)
	}
	now := s.nowFn()
	event := s.newOutboxEvent(domain.EventPayoutCancelled, payout.CreatorID.String(), map[string]any{
		"payout_id":  payout.PayoutID.String(),
		"creator_id": payout.CreatorID.String(),
		"amount":     payout.Amount,
	}, now)
	cancelled, err := s.payouts.ReleaseTx(ctx, payoutID, payout.Status, domain.PayoutStatusCancelled, "cancelled by creator", now, event)
	if err != nil {
		return domain.Payout{}, err
	}
	s.invalidateBalance(ctx, payout.CreatorID)
	return cancelled, nil
}

func (s *Service) GetPayout(ctx context.Context, actor Actor, payoutID uuid.UUID) (domain.Payout, error) {
	if err := s.requireAuthenticated(actor); err != nil {
		return domain.Payout{}, err
	}
	payout, err := s.payouts.GetByID(ctx, payoutID)
	if err != nil {
		return domain.Payout{}, err
	}
	if err := s.requireOwnerOrAdmin(actor, payout.CreatorID); err != nil {
		return domain.Payout{}, err
	}
	return payout, nil
}

func (s *Service) ListPayouts(ctx context.Context, actor Actor, query ports.PayoutQuery) (PayoutListOutput, error) {
	if err := s.requireAuthenticated(actor); err != nil {
		return PayoutListOutput{}, err
	}
	if actor.Role != domain.RoleAdmin {
		creator := actor.UserID
		query.CreatorID = &creator
	}
	if query.Limit <= 0 {
		query.Limit = 20
	}
	if query.Offset < 0 {
		query.Offset = 0
	}
	items, total, err := s.payouts.List(ctx, query)
	if err != nil {
		return PayoutListOutput{}, err
	}
	return PayoutListOutput{
		Items:      items,
		Pagination: Pagination{Limit: query.Limit, Offset: query.Offset, Total: total},
	}, nil
}

func (s *Service) resolveBankAccount(ctx context.Context, actor Actor, bankAccountID *uuid.UUID) (domain.BankAccount, error) {
	if bankAccountID == nil {
		account, err := s.bankAccounts.GetPrimary(ctx, actor.UserID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.BankAccount{}, fmt.Errorf("%w: no primary bank account on file", domain.ErrInvalidInput)
			}
			return domain.BankAccount{}, err
		}
		return account, nil
	}
	account, err := s.bankAccounts.GetByID(ctx, *bankAccountID)
	if err != nil {
		return domain.BankAccount{}, err
	}
	if account.CreatorID != actor.UserID {
		return domain.BankAccount{}, domain.ErrForbidden
	}
	return account, nil
}

func payoutTransitionErr(from, to domain.PayoutStatus) error {
	if from.Terminal() {
		return fmt.Errorf("%w: payout already %s", domain.ErrConflict, from)
	}
	return transitionErr(string(from), string(to))
}
