package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/findinggems/settlement-service/internal/domain"
	"github.com/findinggems/settlement-service/internal/ports"
	"github.com/google/uuid"
)

// Service implements the settlement core: order lifecycle, refund and payout
// workflows, the creator balance ledger, and the admin moderation gate.
type Service struct {
	cfg          Config
	orders       ports.OrderRepository
	balances     ports.BalanceRepository
	refunds      ports.RefundRepository
	payouts      ports.PayoutRepository
	bankAccounts ports.BankAccountRepository
	applications ports.ApplicationRepository
	websites     ports.WebsiteRepository
	reports      ports.ReportRepository
	idempotency  ports.IdempotencyRepository
	balanceCache ports.BalanceCache
	instructions ports.PaymentInstructionStore
	encryption   ports.Encryption
	nowFn        func() time.Time
}

type Dependencies struct {
	Config       Config
	Orders       ports.OrderRepository
	Balances     ports.BalanceRepository
	Refunds      ports.RefundRepository
	Payouts      ports.PayoutRepository
	BankAccounts ports.BankAccountRepository
	Applications ports.ApplicationRepository
	Websites     ports.WebsiteRepository
	Reports      ports.ReportRepository
	Idempotency  ports.IdempotencyRepository
	BalanceCache ports.BalanceCache
	Instructions ports.PaymentInstructionStore
	Encryption   ports.Encryption
}

func NewService(deps Dependencies) *Service {
	return &Service{
		cfg:          deps.Config,
		orders:       deps.Orders,
		balances:     deps.Balances,
		refunds:      deps.Refunds,
		payouts:      deps.Payouts,
		bankAccounts: deps.BankAccounts,
		applications: deps.Applications,
		websites:     deps.Websites,
		reports:      deps.Reports,
		idempotency:  deps.Idempotency,
		balanceCache: deps.BalanceCache,
		instructions: deps.Instructions,
		encryption:   deps.Encryption,
		nowFn:        func() time.Time { return time.Now().UTC() },
	}
}

// Actor is the verified caller identity propagated from the transport layer.
type Actor struct {
	UserID uuid.UUID
	Role   domain.Role
}

func (s *Service) requireAuthenticated(actor Actor) error {
	if actor.UserID == uuid.Nil {
		return domain.ErrUnauthorized
	}
	return nil
}

// requireAdmin is the single capability check wrapping every moderation and
// admin-only workflow transition.
func (s *Service) requireAdmin(actor Actor) error {
	if err := s.requireAuthenticated(actor); err != nil {
		return err
	}
	if actor.Role != domain.RoleAdmin {
		return domain.ErrForbidden
	}
	return nil
}

func (s *Service) requireOwnerOrAdmin(actor Actor, ownerID uuid.UUID) error {
	if err := s.requireAuthenticated(actor); err != nil {
		return err
	}
	if actor.Role != domain.RoleAdmin && actor.UserID != ownerID {
		return domain.ErrForbidden
	}
	return nil
}

func (s *Service) newOutboxEvent(eventType, partitionKey string, payload any, occurredAt time.Time) ports.OutboxEvent {
	blob, err := json.Marshal(payload)
	if err != nil {
		blob = []byte(`{}`)
	}
	return ports.OutboxEvent{
		EventID:      uuid.New(),
		EventType:    eventType,
		PartitionKey: partitionKey,
		Payload:      blob,
		OccurredAt:   occurredAt,
	}
}

// replayIdempotent resolves a cached response for the given key. It returns
// the cached payload when the same request was already completed, and reserves
// the key otherwise.
func (s *Service) replayIdempotent(ctx context.Context, key string, request any) ([]byte, error) {
	requestHash := hashPayload(request)
	now := s.nowFn()
	existing, err := s.idempotency.Get(ctx, key, now)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.RequestHash != requestHash {
			return nil, domain.ErrIdempotencyConflict
		}
		if len(existing.ResponseBody) > 0 {
			return existing.ResponseBody, nil
		}
		// Reserved but never completed: the original attempt died mid-flight.
		return nil, domain.ErrIdempotencyConflict
	}
	if err := s.idempotency.Reserve(ctx, key, requestHash, now.Add(s.cfg.IdempotencyTTL)); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Service) completeIdempotent(ctx context.Context, key string, responseCode int, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.idempotency.Complete(ctx, key, responseCode, payload, s.nowFn())
}

func (s *Service) invalidateBalance(ctx context.Context, creatorID uuid.UUID) {
	if s.balanceCache == nil {
		return
	}
	_ = s.balanceCache.Invalidate(ctx, creatorID)
}

func hashPayload(value any) string {
	blob, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(blob)
	return hex.EncodeToString(sum[:])
}

func orderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), shortRef())
}

func refundNumber(now time.Time) string {
	return fmt.Sprintf("REF-%s-%s", now.Format("20060102"), shortRef())
}

func shortRef() string {
	raw := uuid.NewString()
	return raw[:8]
}
