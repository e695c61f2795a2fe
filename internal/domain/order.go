package domain

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusFailed    OrderStatus = "failed"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusExpired   OrderStatus = "expired"
	OrderStatusRefunded  OrderStatus = "refunded"
)

type PaymentMethod string

const (
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodEWallet      PaymentMethod = "e_wallet"
	PaymentMethodQR           PaymentMethod = "qr"
)

// orderTransitions is the closed edge set for order status changes.
// An order is never revived out of a terminal state; "refunded" is only
// reachable from "paid" and only through an approved refund.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending: {OrderStatusPaid, OrderStatusFailed, OrderStatusCancelled, OrderStatusExpired},
	OrderStatusPaid:    {OrderStatusRefunded},
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return len(orderTransitions[s]) == 0
}

type Order struct {
	OrderID       uuid.UUID   `json:"order_id"`
	OrderNumber   string      `json:"order_number"`
	BuyerID       uuid.UUID   `json:"buyer_id"`
	WebsiteID     uuid.UUID   `json:"website_id"`
	PricingTierID uuid.UUID   `json:"pricing_tier_id"`
	TotalAmount   int64       `json:"total_amount"`
	PlatformFee   int64       `json:"platform_fee"`
	Status        OrderStatus `json:"status"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
	PaidAt        *time.Time  `json:"paid_at,omitempty"`
}

// NetAmount is the creator credit for a confirmed payment: the platform fee
// stays with the marketplace.
func (o Order) NetAmount() int64 {
	return o.TotalAmount - o.PlatformFee
}

func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentMethodBankTransfer, PaymentMethodEWallet, PaymentMethodQR:
		return true
	}
	return false
}

// PaymentInstruction is the opaque payload handed to the buyer after
// InitiatePayment. The gateway itself is out of scope; confirmation arrives
// later through the payment callback carrying ProviderReference.
type PaymentInstruction struct {
	OrderID           uuid.UUID     `json:"order_id"`
	Method            PaymentMethod `json:"method"`
	ProviderReference string        `json:"provider_reference"`
	Amount            int64         `json:"amount"`
	Instructions      string        `json:"instructions"`
	ExpiresAt         time.Time     `json:"expires_at"`
}
