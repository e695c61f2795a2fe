package application

import (
	"context"

	"github.com/findinggems/settlement-service/internal/domain"
	"github.com/google/uuid"
)

// GetBalance serves the creator's ledger row through the Redis projection.
// The cache is never authoritative: misses fall back to Postgres and every
// mutating path invalidates the key.
func (s *Service) GetBalance(ctx context.Context, actor Actor, creatorID uuid.UUID) (domain.CreatorBalance, error) {
	if err := s.requireOwnerOrAdmin(actor, creatorID); err != nil {
		return domain.CreatorBalance{}, err
	}
	if s.balanceCache != nil {
		if cached, err := s.balanceCache.Get(ctx, creatorID); err == nil && cached != nil {
			return *cached, nil
		}
	}
	balance, err := s.balances.GetByCreator(ctx, creatorID)
	if err != nil {
		return domain.CreatorBalance{}, err
	}
	if s.balanceCache != nil {
		_ = s.balanceCache.Set(ctx, balance, s.cfg.BalanceCacheTTL)
	}
	return balance, nil
}

// MaturePendingCredits releases held credits whose refund window has closed.
// Maturation is per entry: each entry is re-checked under the balance row lock
// so overlapping sweeps never double-release a credit.
func (s *Service) MaturePendingCredits(ctx context.Context) (int, error) {
	now := s.nowFn()
	batch := s.cfg.MaturationBatch
	if batch <= 0 {
		batch = 100
	}
	entries, err := s.balances.ListMaturable(ctx, now, batch)
	if err != nil {
		return 0, err
	}
	matured := 0
	for _, entry := range entries {
		event := s.newOutboxEvent(domain.EventCreditMatured, entry.CreatorID.String(), map[string]any{
			"entry_id":   entry.EntryID.String(),
			"creator_id": entry.CreatorID.String(),
			"order_id":   entry.OrderID.String(),
			"amount":     entry.Amount,
		}, now)
		ok, err := s.balances.MatureEntryTx(ctx, entry.EntryID, now, event)
		if err != nil {
			return matured, err
		}
		if ok {
			matured++
			s.invalidateBalance(ctx, entry.CreatorID)
		}
	}
	return matured, nil
}
