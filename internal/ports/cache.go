package ports

import (
	"context"
	"time"

	"github.com/findinggems/settlement-service/internal/domain"
	"github.com/google/uuid"
)

// BalanceCache is a read-through projection of the balance row. It is never
// authoritative: every mutating path invalidates it and readers fall back to
// Postgres on a miss.
type BalanceCache interface {
	Get(ctx context.Context, creatorID uuid.UUID) (*domain.CreatorBalance, error)
	Set(ctx context.Context, balance domain.CreatorBalance, ttl time.Duration) error
	Invalidate(ctx context.Context, creatorID uuid.UUID) error
}

// PaymentInstructionStore holds the opaque instructions produced by
// InitiatePayment until the gateway callback or the TTL wins.
type PaymentInstructionStore interface {
	Put(ctx context.Context, instruction domain.PaymentInstruction, ttl time.Duration) error
	Get(ctx context.Context, orderID uuid.UUID) (*domain.PaymentInstruction, error)
}
