package application

import (
	"context"
	"fmt"

	"github.com/findinggems/settlement-service/internal/domain"
	"github.com/findinggems/settlement-service/internal/ports"
	"github.com/google/uuid"
)

// CreateOrder inserts a pending order for an active tier on an active listing.
// The platform fee is a fixed surcharge on top of the tier price.
func (s *Service) CreateOrder(ctx context.Context, actor Actor, input CreateOrderInput) (domain.Order, error) {
	if err := s.requireAuthenticated(actor); err != nil {
		return domain.Order{}, err
	}
	tier, err := s.websites.GetTier(ctx, input.PricingTierID)
	if err != nil {
		return domain.Order{}, err
	}
	if !tier.IsActive || tier.WebsiteID != input.WebsiteID {
		return domain.Order{}, fmt.Errorf("%w: pricing tier unavailable", domain.ErrInvalidInput)
	}
	website, err := s.websites.GetByID(ctx, input.WebsiteID)
	if err != nil {
		return domain.Order{}, err
	}
	if website.Status != domain.WebsiteStatusActive {
		return domain.Order{}, fmt.Errorf("%w: website is not active", domain.ErrInvalidInput)
	}

	now := s.nowFn()
	order := domain.Order{
		OrderID:       uuid.New(),
		OrderNumber:   orderNumber(now),
		BuyerID:       actor.UserID,
		WebsiteID:     website.WebsiteID,
		PricingTierID: tier.TierID,
		TotalAmount:   tier.Price + s.cfg.PlatformFee,
		PlatformFee:   s.cfg.PlatformFee,
		Status:        domain.OrderStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

func (s *Service) GetOrder(ctx context.Context, actor Actor, orderID uuid.UUID) (domain.Order, error) {
	if err := s.requireAuthenticated(actor); err != nil {
		return domain.Order{}, err
	}
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if err := s.requireOwnerOrAdmin(actor, order.BuyerID); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

func (s *Service) ListOrders(ctx context.Context, actor Actor, limit, offset int) (OrderListOutput, error) {
	if err := s.requireAuthenticated(actor); err != nil {
		return OrderListOutput{}, err
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	items, total, err := s.orders.ListByBuyer(ctx, actor.UserID, limit, offset)
	if err != nil {
		return OrderListOutput{}, err
	}
	return OrderListOutput{
		Items:      items,
		Pagination: Pagination{Limit: limit, Offset: offset, Total: total},
	}, nil
}

// InitiatePayment generates opaque instructions for an external gateway. It
// never mutates order status; confirmation arrives through ConfirmPayment.
func (s *Service) InitiatePayment(ctx context.Context, actor Actor, input InitiatePaymentInput) (domain.PaymentInstruction, error) {
	if err := s.requireAuthenticated(actor); err != nil {
		return domain.PaymentInstruction{}, err
	}
	if !domain.ValidPaymentMethod(input.Method) {
		return domain.PaymentInstruction{}, fmt.Errorf("%w: unknown payment method", domain.ErrInvalidInput)
	}
	order, err := s.orders.GetByID(ctx, input.OrderID)
	if err != nil {
		return domain.PaymentInstruction{}, err
	}
	if err := s.requireOwnerOrAdmin(actor, order.BuyerID); err != nil {
		return domain.PaymentInstruction{}, err
	}
	if order.Status != domain.OrderStatusPending {
		return domain.PaymentInstruction{}, fmt.Errorf("%w: order is %s", domain.ErrInvalidTransition, order.Status)
	}

	now := s.nowFn()
	instruction := domain.PaymentInstruction{
		OrderID:           order.OrderID,
		Method:            input.Method,
		ProviderReference: uuid.NewString(),
		Amount:            order.TotalAmount,
		Instructions:      instructionText(input.Method, order),
		ExpiresAt:         now.Add(s.cfg.InstructionTTL),
	}
	if err := s.instructions.Put(ctx, instruction, s.cfg.InstructionTTL); err != nil {
		return domain.PaymentInstruction{}, err
	}
	return instruction, nil
}

// ConfirmPayment is the payment-callback entrypoint. It is idempotent: a
// duplicate webhook for an already-paid order returns success with no second
// credit. The first confirmation flips the order and lands the net amount in
// the creator's pending balance within one transaction.
func (s *Service) ConfirmPayment(ctx context.Context, input ConfirmPaymentInput) (domain.Order, error) {
	order, err := s.orders.GetByID(ctx, input.OrderID)
	if err != nil {
		return domain.Order{}, err
	}
	if order.Status == domain.OrderStatusPaid {
		return order, nil
	}
	if order.Status != domain.OrderStatusPending {
		return domain.Order{}, fmt.Errorf("%w: order is %s", domain.ErrInvalidTransition, order.Status)
	}
	website, err := s.websites.GetByID(ctx, order.WebsiteID)
	if err != nil {
		return domain.Order{}, err
	}

	now := s.nowFn()
	net := order.NetAmount()
	event := s.newOutboxEvent(domain.EventOrderPaid, order.OrderID.String(), map[string]any{
		"order_id":           order.OrderID.String(),
		"order_number":       order.OrderNumber,
		"creator_id":         website.CreatorID.String(),
		"net_amount":         net,
		"platform_fee":       order.PlatformFee,
		"provider_reference": input.ProviderReference,
		"paid_at":            now,
	}, now)

	confirmed, credited, err := s.orders.ConfirmPaidTx(ctx, ports.ConfirmPaymentParams{
		OrderID:           order.OrderID,
		ProviderReference: input.ProviderReference,
		CreatorID:         website.CreatorID,
		NetAmount:         net,
		PaidAt:            now,
		AvailableAt:       now.Add(s.cfg.HoldingWindow),
	}, event)
	if err != nil {
		return domain.Order{}, err
	}
	if credited {
		s.invalidateBalance(ctx, website.CreatorID)
	}
	return confirmed, nil
}

// ExpireStalePending is the scheduled sweep for orders that never got paid.
// Safe to run repeatedly and to overlap with live requests.
func (s *Service) ExpireStalePending(ctx context.Context) (int, error) {
	now := s.nowFn()
	cutoff := now.Add(-s.cfg.OrderExpiry)
	expired, err := s.orders.ExpireStalePendingTx(ctx, cutoff, now, func(order domain.Order) ports.OutboxEvent {
		return s.newOutboxEvent(domain.EventOrderExpired, order.OrderID.String(), map[string]any{
			"order_id":     order.OrderID.String(),
			"order_number": order.OrderNumber,
			"expired_at":   now,
		}, now)
	})
	if err != nil {
		return 0, err
	}
	return len(expired), nil
}

func instructionText(method domain.PaymentMethod, order domain.Order) string {
	switch method {
	case domain.PaymentMethodBankTransfer:
		return fmt.Sprintf("transfer %d to virtual account for order %s", order.TotalAmount, order.OrderNumber)
	case domain.PaymentMethodEWallet:
		return fmt.Sprintf("approve e-wallet charge of %d for order %s", order.TotalAmount, order.OrderNumber)
	default:
		return fmt.Sprintf("scan QR to pay %d for order %s", order.TotalAmount, order.OrderNumber)
	}
}
