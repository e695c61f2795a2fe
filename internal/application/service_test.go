package application_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/findinggems/settlement-service/internal/application"
	"github.com/findinggems/settlement-service/internal/domain"
	"github.com/findinggems/settlement-service/internal/ports"
)

func TestOrderPaymentLifecycle(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	order, err := f.service.CreateOrder(ctx, f.buyer, application.CreateOrderInput{
		WebsiteID:     f.websiteID,
		PricingTierID: f.tierID,
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if order.Status != domain.OrderStatusPending {
		t.Fatalf("new order status = %s, want pending", order.Status)
	}
	if order.TotalAmount != tierPrice+platformFee {
		t.Fatalf("total amount = %d, want %d", order.TotalAmount, tierPrice+platformFee)
	}

	instruction, err := f.service.InitiatePayment(ctx, f.buyer, application.InitiatePaymentInput{
		OrderID: order.OrderID,
		Method:  domain.PaymentMethodBankTransfer,
	})
	if err != nil {
		t.Fatalf("initiate payment failed: %v", err)
	}
	if instruction.Amount != order.TotalAmount || instruction.ProviderReference == "" {
		t.Fatalf("unexpected instruction: %+v", instruction)
	}

	paid, err := f.service.ConfirmPayment(ctx, application.ConfirmPaymentInput{
		OrderID:           order.OrderID,
		ProviderReference: instruction.ProviderReference,
	})
	if err != nil {
		t.Fatalf("confirm payment failed: %v", err)
	}
	if paid.Status != domain.OrderStatusPaid || paid.PaidAt == nil {
		t.Fatalf("order not marked paid: %+v", paid)
	}

	balance, err := f.service.GetBalance(ctx, f.creator, f.creatorID)
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	net := order.TotalAmount - order.PlatformFee
	if balance.PendingBalance != net {
		t.Fatalf("pending balance = %d, want %d", balance.PendingBalance, net)
	}
	if balance.TotalEarnings != net {
		t.Fatalf("total earnings = %d, want %d", balance.TotalEarnings, net)
	}
	if !balance.Consistent() {
		t.Fatalf("balance identity broken after credit: %+v", balance)
	}

	// Duplicate webhook: success without a second credit.
	again, err := f.service.ConfirmPayment(ctx, application.ConfirmPaymentInput{
		OrderID:           order.OrderID,
		ProviderReference: instruction.ProviderReference,
	})
	if err != nil {
		t.Fatalf("duplicate confirm failed: %v", err)
	}
	if again.Status != domain.OrderStatusPaid {
		t.Fatalf("duplicate confirm status = %s", again.Status)
	}
	if got := f.balances.snapshot(f.creatorID).PendingBalance; got != net {
		t.Fatalf("pending balance after duplicate webhook = %d, want %d", got, net)
	}
}

func TestConfirmPaymentRejectsDecidedOrders(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	order, err := f.service.CreateOrder(ctx, f.buyer, application.CreateOrderInput{
		WebsiteID:     f.websiteID,
		PricingTierID: f.tierID,
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if _, err := f.orders.UpdateStatus(ctx, order.OrderID, domain.OrderStatusPending, domain.OrderStatusCancelled, time.Now().UTC()); err != nil {
		t.Fatalf("cancel order failed: %v", err)
	}

	_, err = f.service.ConfirmPayment(ctx, application.ConfirmPaymentInput{
		OrderID:           order.OrderID,
		ProviderReference: "provider-ref",
	})
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition for cancelled order, got %v", err)
	}
}

func TestExpireStalePendingOrders(t *testing.T) {
	t.Parallel()

	// A negative expiry puts the cutoff in the future, so every pending order
	// is already stale from the sweep's point of view.
	cfg := defaultTestConfig()
	cfg.OrderExpiry = -time.Minute
	f := newFixtureWithConfig(cfg)
	ctx := context.Background()

	order, err := f.service.CreateOrder(ctx, f.buyer, application.CreateOrderInput{
		WebsiteID:     f.websiteID,
		PricingTierID: f.tierID,
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	expired, err := f.service.ExpireStalePending(ctx)
	if err != nil {
		t.Fatalf("expire sweep failed: %v", err)
	}
	if expired != 1 {
		t.Fatalf("expired count = %d, want 1", expired)
	}
	got, err := f.service.GetOrder(ctx, f.buyer, order.OrderID)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if got.Status != domain.OrderStatusExpired {
		t.Fatalf("order status = %s, want expired", got.Status)
	}

	// Second sweep finds nothing.
	expired, err = f.service.ExpireStalePending(ctx)
	if err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}
	if expired != 0 {
		t.Fatalf("second sweep expired %d orders", expired)
	}
}

func TestMaturePendingCredits(t *testing.T) {
	t.Parallel()

	// Zero holding window makes credits maturable on the next sweep.
	cfg := defaultTestConfig()
	cfg.HoldingWindow = 0
	f := newFixtureWithConfig(cfg)
	ctx := context.Background()

	net := f.payOrder(t, ctx)

	matured, err := f.service.MaturePendingCredits(ctx)
	if err != nil {
		t.Fatalf("maturation sweep failed: %v", err)
	}
	if matured != 1 {
		t.Fatalf("matured count = %d, want 1", matured)
	}
	balance := f.balances.snapshot(f.creatorID)
	if balance.PendingBalance != 0 || balance.AvailableBalance != net {
		t.Fatalf("balance after maturation: %+v", balance)
	}
	if !balance.Consistent() {
		t.Fatalf("balance identity broken after maturation: %+v", balance)
	}

	matured, err = f.service.MaturePendingCredits(ctx)
	if err != nil {
		t.Fatalf("second maturation sweep failed: %v", err)
	}
	if matured != 0 {
		t.Fatalf("second sweep matured %d entries", matured)
	}
}

func TestRequestPayoutInsufficientBalance(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.addBankAccount(t, ctx)

	_, err := f.service.RequestPayout(ctx, f.creator, application.RequestPayoutInput{
		Amount: minimumPayout,
	}, "payout-broke")
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
}

func TestPayoutLifecycle(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.addBankAccount(t, ctx)
	f.balances.deposit(f.creatorID, 500000)

	payout, err := f.service.RequestPayout(ctx, f.creator, application.RequestPayoutInput{
		Amount: 200000,
	}, "payout-lifecycle")
	if err != nil {
		t.Fatalf("request payout failed: %v", err)
	}
	balance := f.balances.snapshot(f.creatorID)
	if balance.AvailableBalance != 300000 || balance.ReservedBalance != 200000 {
		t.Fatalf("balance after reservation: %+v", balance)
	}

	if _, err := f.service.ApprovePayout(ctx, f.admin, payout.PayoutID); err != nil {
		t.Fatalf("approve payout failed: %v", err)
	}
	// Completion requires prior approval.
	completed, err := f.service.CompletePayout(ctx, f.admin, payout.PayoutID)
	if err != nil {
		t.Fatalf("complete payout failed: %v", err)
	}
	if completed.Status != domain.PayoutStatusCompleted {
		t.Fatalf("payout status = %s, want completed", completed.Status)
	}
	balance = f.balances.snapshot(f.creatorID)
	if balance.ReservedBalance != 0 || balance.WithdrawnBalance != 200000 {
		t.Fatalf("balance after completion: %+v", balance)
	}
	if !balance.Consistent() {
		t.Fatalf("balance identity broken after payout: %+v", balance)
	}

	if _, err := f.service.CompletePayout(ctx, f.admin, payout.PayoutID); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict on double completion, got %v", err)
	}
}

func TestRejectPayoutReleasesReservation(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.addBankAccount(t, ctx)
	f.balances.deposit(f.creatorID, 300000)

	payout, err := f.service.RequestPayout(ctx, f.creator, application.RequestPayoutInput{
		Amount: 150000,
	}, "payout-to-reject")
	if err != nil {
		t.Fatalf("request payout failed: %v", err)
	}

	if _, err := f.service.RejectPayout(ctx, f.admin, payout.PayoutID, ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected reason requirement, got %v", err)
	}
	rejected, err := f.service.RejectPayout(ctx, f.admin, payout.PayoutID, "bank account mismatch")
	if err != nil {
		t.Fatalf("reject payout failed: %v", err)
	}
	if rejected.Status != domain.PayoutStatusRejected {
		t.Fatalf("payout status = %s, want rejected", rejected.Status)
	}
	balance := f.balances.snapshot(f.creatorID)
	if balance.AvailableBalance != 300000 || balance.ReservedBalance != 0 {
		t.Fatalf("reservation not released: %+v", balance)
	}
}

func TestCancelPayoutOwnershipAndState(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.addBankAccount(t, ctx)
	f.balances.deposit(f.creatorID, 300000)

	payout, err := f.service.RequestPayout(ctx, f.creator, application.RequestPayoutInput{
		Amount: 150000,
	}, "payout-to-cancel")
	if err != nil {
		t.Fatalf("request payout failed: %v", err)
	}

	if _, err := f.service.CancelPayout(ctx, f.buyer, payout.PayoutID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden for non-owner, got %v", err)
	}
	cancelled, err := f.service.CancelPayout(ctx, f.creator, payout.PayoutID)
	if err != nil {
		t.Fatalf("cancel payout failed: %v", err)
	}
	if cancelled.Status != domain.PayoutStatusCancelled {
		t.Fatalf("payout status = %s, want cancelled", cancelled.Status)
	}
	if got := f.balances.snapshot(f.creatorID).AvailableBalance; got != 300000 {
		t.Fatalf("available after cancel = %d, want 300000", got)
	}
}

func TestRequestPayoutIdempotency(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.addBankAccount(t, ctx)
	f.balances.deposit(f.creatorID, 500000)

	input := application.RequestPayoutInput{Amount: 200000}
	if _, err := f.service.RequestPayout(ctx, f.creator, input, ""); !errors.Is(err, domain.ErrIdempotencyRequired) {
		t.Fatalf("expected key requirement, got %v", err)
	}
	first, err := f.service.RequestPayout(ctx, f.creator, input, "key-1")
	if err != nil {
		t.Fatalf("first request failed: %v", err)
	}
	replay, err := f.service.RequestPayout(ctx, f.creator, input, "key-1")
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if replay.PayoutID != first.PayoutID {
		t.Fatalf("replay created a new payout")
	}
	if got := f.balances.snapshot(f.creatorID).ReservedBalance; got != 200000 {
		t.Fatalf("reserved after replay = %d, want 200000", got)
	}

	_, err = f.service.RequestPayout(ctx, f.creator, application.RequestPayoutInput{Amount: 250000}, "key-1")
	if !errors.Is(err, domain.ErrIdempotencyConflict) {
		t.Fatalf("expected idempotency conflict for reused key, got %v", err)
	}
}

func TestConcurrentPayoutRequestsReserveOnce(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.addBankAccount(t, ctx)
	f.balances.deposit(f.creatorID, 300000)

	// Two requests whose sum exceeds the balance race each other; the
	// reservation happens inside one transaction, so exactly one may win.
	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.service.RequestPayout(ctx, f.creator, application.RequestPayoutInput{
				Amount: 200000,
			}, fmt.Sprintf("race-%d", i))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	var won, lost int
	for err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, domain.ErrInsufficientBalance):
			lost++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if won != 1 || lost != 1 {
		t.Fatalf("winners = %d, losers = %d, want exactly one of each", won, lost)
	}
	balance := f.balances.snapshot(f.creatorID)
	if balance.AvailableBalance != 100000 || balance.ReservedBalance != 200000 {
		t.Fatalf("balance after race: %+v", balance)
	}
	if !balance.Consistent() {
		t.Fatalf("identity violated: %+v", balance)
	}
}

func TestBalanceIdentityUnderRandomOperations(t *testing.T) {
	t.Parallel()

	cfg := defaultTestConfig()
	cfg.HoldingWindow = 0
	f := newFixtureWithConfig(cfg)
	ctx := context.Background()
	f.addBankAccount(t, ctx)

	// A fixed seed keeps the sequence reproducible on failure.
	rng := rand.New(rand.NewSource(424242))
	var paid, pendingPayouts []uuid.UUID

	check := func(step int) {
		t.Helper()
		balance := f.balances.snapshot(f.creatorID)
		if !balance.Consistent() {
			t.Fatalf("step %d: identity violated: %+v", step, balance)
		}
		if sum := f.balances.pendingEntrySum(f.creatorID); sum != balance.PendingBalance {
			t.Fatalf("step %d: pending entries %d out of step with bucket %d", step, sum, balance.PendingBalance)
		}
	}

	for step := 0; step < 400; step++ {
		switch rng.Intn(5) {
		case 0: // a buyer pays for a new order
			order, err := f.service.CreateOrder(ctx, f.buyer, application.CreateOrderInput{
				WebsiteID:     f.websiteID,
				PricingTierID: f.tierID,
			})
			if err != nil {
				t.Fatalf("step %d: create order failed: %v", step, err)
			}
			if _, err := f.service.ConfirmPayment(ctx, application.ConfirmPaymentInput{
				OrderID:           order.OrderID,
				ProviderReference: "provider-" + order.OrderNumber,
			}); err != nil {
				t.Fatalf("step %d: confirm payment failed: %v", step, err)
			}
			paid = append(paid, order.OrderID)
		case 1: // the maintenance sweep releases matured credits
			if _, err := f.service.MaturePendingCredits(ctx); err != nil {
				t.Fatalf("step %d: maturation failed: %v", step, err)
			}
		case 2: // the creator asks for money out
			payout, err := f.service.RequestPayout(ctx, f.creator, application.RequestPayoutInput{
				Amount: minimumPayout,
			}, fmt.Sprintf("rand-payout-%d", step))
			if errors.Is(err, domain.ErrInsufficientBalance) {
				break
			}
			if err != nil {
				t.Fatalf("step %d: request payout failed: %v", step, err)
			}
			pendingPayouts = append(pendingPayouts, payout.PayoutID)
		case 3: // an admin decides an open payout
			if len(pendingPayouts) == 0 {
				break
			}
			id := pendingPayouts[0]
			pendingPayouts = pendingPayouts[1:]
			if rng.Intn(2) == 0 {
				if _, err := f.service.ApprovePayout(ctx, f.admin, id); err != nil {
					t.Fatalf("step %d: approve payout failed: %v", step, err)
				}
				if _, err := f.service.CompletePayout(ctx, f.admin, id); err != nil {
					t.Fatalf("step %d: complete payout failed: %v", step, err)
				}
			} else {
				if _, err := f.service.RejectPayout(ctx, f.admin, id, "verification failed"); err != nil {
					t.Fatalf("step %d: reject payout failed: %v", step, err)
				}
			}
		case 4: // a paid order gets refunded in full
			if len(paid) == 0 {
				break
			}
			orderID := paid[0]
			paid = paid[1:]
			refund, err := f.service.RequestRefund(ctx, f.buyer, application.RequestRefundInput{
				OrderID:        orderID,
				ReasonCategory: "other",
				Reason:         "buyer walked away",
			}, fmt.Sprintf("rand-refund-%d", step))
			if err != nil {
				t.Fatalf("step %d: request refund failed: %v", step, err)
			}
			if _, err := f.service.BeginReview(ctx, f.admin, refund.RefundID); err != nil {
				t.Fatalf("step %d: begin review failed: %v", step, err)
			}
			if _, err := f.service.ReviewRefund(ctx, f.admin, refund.RefundID, application.ReviewRefundInput{
				Decision: "approve",
			}); err != nil {
				t.Fatalf("step %d: approve refund failed: %v", step, err)
			}
		}
		check(step)
	}
}

func TestRefundApprovalFullyCovered(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	// Matured earnings cover the fee component; the net credit is still pending.
	f.balances.deposit(f.creatorID, platformFee)

	net := f.payOrder(t, ctx)
	order := f.lastOrder(t)

	refund, err := f.service.RequestRefund(ctx, f.buyer, application.RequestRefundInput{
		OrderID:        order.OrderID,
		ReasonCategory: "not_as_described",
		Reason:         "listing metrics were fabricated",
	}, "refund-covered")
	if err != nil {
		t.Fatalf("request refund failed: %v", err)
	}
	if refund.RefundAmount != order.TotalAmount {
		t.Fatalf("refund snapshot = %d, want %d", refund.RefundAmount, order.TotalAmount)
	}

	if _, err := f.service.BeginReview(ctx, f.admin, refund.RefundID); err != nil {
		t.Fatalf("begin review failed: %v", err)
	}
	out, err := f.service.ReviewRefund(ctx, f.admin, refund.RefundID, application.ReviewRefundInput{
		Decision: "approve",
	})
	if err != nil {
		t.Fatalf("approve refund failed: %v", err)
	}
	if out.Refund.Status != domain.RefundStatusApproved || out.Refund.ReconciliationRequired {
		t.Fatalf("unexpected refund after approval: %+v", out.Refund)
	}
	if out.Outcome.Reconciliation {
		t.Fatalf("covered refund flagged for reconciliation")
	}
	if out.Outcome.FromAvailable+out.Outcome.FromPending != order.TotalAmount {
		t.Fatalf("reversal split %+v does not cover %d", out.Outcome, order.TotalAmount)
	}
	if out.Outcome.FromPending != net {
		t.Fatalf("pending reversal = %d, want %d", out.Outcome.FromPending, net)
	}

	balance := f.balances.snapshot(f.creatorID)
	if balance.TotalRefunded != order.TotalAmount {
		t.Fatalf("total refunded = %d, want %d", balance.TotalRefunded, order.TotalAmount)
	}
	if balance.PendingBalance != 0 {
		t.Fatalf("pending not reversed: %+v", balance)
	}
	if !balance.Consistent() {
		t.Fatalf("balance identity broken after refund: %+v", balance)
	}

	got, err := f.service.GetOrder(ctx, f.buyer, order.OrderID)
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if got.Status != domain.OrderStatusRefunded {
		t.Fatalf("order status = %s, want refunded", got.Status)
	}

	// The reversed credit must never mature later.
	matured, err := f.service.MaturePendingCredits(ctx)
	if err != nil {
		t.Fatalf("maturation sweep failed: %v", err)
	}
	if matured != 0 {
		t.Fatalf("reversed entry matured anyway")
	}
}

func TestRefundApprovalShortfallFlagsReconciliation(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	f.payOrder(t, ctx)
	order := f.lastOrder(t)

	// Simulate the credit having already been withdrawn.
	f.balances.drain(f.creatorID)

	refund, err := f.service.RequestRefund(ctx, f.buyer, application.RequestRefundInput{
		OrderID:        order.OrderID,
		ReasonCategory: "fraud",
		Reason:         "traffic numbers were inflated",
	}, "refund-shortfall")
	if err != nil {
		t.Fatalf("request refund failed: %v", err)
	}
	if _, err := f.service.BeginReview(ctx, f.admin, refund.RefundID); err != nil {
		t.Fatalf("begin review failed: %v", err)
	}
	before := f.balances.snapshot(f.creatorID)

	out, err := f.service.ReviewRefund(ctx, f.admin, refund.RefundID, application.ReviewRefundInput{
		Decision: "approve",
	})
	if err != nil {
		t.Fatalf("approve refund failed: %v", err)
	}
	if !out.Outcome.Reconciliation || !out.Refund.ReconciliationRequired {
		t.Fatalf("shortfall not flagged: %+v", out)
	}
	after := f.balances.snapshot(f.creatorID)
	if after != before {
		t.Fatalf("balance mutated on reconciliation path: before %+v after %+v", before, after)
	}
}

func TestRefundApprovalFundedAcrossPendingOrders(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	// Two paid orders, both credits still pending. The full refund of the
	// first order (fee included) exceeds its own pending credit, so the
	// remainder comes out of the second order's credit.
	net := f.payOrder(t, ctx)
	first := f.lastOrder(t)
	f.payOrder(t, ctx)

	refund, err := f.service.RequestRefund(ctx, f.buyer, application.RequestRefundInput{
		OrderID:        first.OrderID,
		ReasonCategory: "not_as_described",
		Reason:         "placement never went live",
	}, "refund-cross-entry")
	if err != nil {
		t.Fatalf("request refund failed: %v", err)
	}
	if _, err := f.service.BeginReview(ctx, f.admin, refund.RefundID); err != nil {
		t.Fatalf("begin review failed: %v", err)
	}
	out, err := f.service.ReviewRefund(ctx, f.admin, refund.RefundID, application.ReviewRefundInput{
		Decision: "approve",
	})
	if err != nil {
		t.Fatalf("approve refund failed: %v", err)
	}

	total := first.TotalAmount
	if out.Outcome.Reconciliation {
		t.Fatalf("pending funds covered the reversal, got reconciliation")
	}
	if out.Outcome.FromAvailable != 0 || out.Outcome.FromPending != total {
		t.Fatalf("outcome = %+v, want all %d from pending", out.Outcome, total)
	}
	balance := f.balances.snapshot(f.creatorID)
	if balance.PendingBalance != 2*net-total {
		t.Fatalf("pending after reversal = %d, want %d", balance.PendingBalance, 2*net-total)
	}
	if balance.TotalRefunded != total {
		t.Fatalf("total refunded = %d, want %d", balance.TotalRefunded, total)
	}
	if !balance.Consistent() {
		t.Fatalf("identity violated: %+v", balance)
	}
	if sum := f.balances.pendingEntrySum(f.creatorID); sum != balance.PendingBalance {
		t.Fatalf("pending entries %d out of step with bucket %d", sum, balance.PendingBalance)
	}
}

func TestRefundApprovalAfterOwnCreditMatured(t *testing.T) {
	t.Parallel()

	cfg := defaultTestConfig()
	cfg.HoldingWindow = 0
	f := newFixtureWithConfig(cfg)
	ctx := context.Background()

	// The refunded order's credit has matured into available; the fee share of
	// the reversal is funded by a later order's still-pending credit.
	net := f.payOrder(t, ctx)
	first := f.lastOrder(t)
	if _, err := f.service.MaturePendingCredits(ctx); err != nil {
		t.Fatalf("maturation failed: %v", err)
	}
	f.payOrder(t, ctx)

	refund, err := f.service.RequestRefund(ctx, f.buyer, application.RequestRefundInput{
		OrderID:        first.OrderID,
		ReasonCategory: "fraud",
		Reason:         "audience was botted",
	}, "refund-after-maturation")
	if err != nil {
		t.Fatalf("request refund failed: %v", err)
	}
	if _, err := f.service.BeginReview(ctx, f.admin, refund.RefundID); err != nil {
		t.Fatalf("begin review failed: %v", err)
	}
	out, err := f.service.ReviewRefund(ctx, f.admin, refund.RefundID, application.ReviewRefundInput{
		Decision: "approve",
	})
	if err != nil {
		t.Fatalf("approve refund failed: %v", err)
	}

	total := first.TotalAmount
	if out.Outcome.FromAvailable != net || out.Outcome.FromPending != total-net {
		t.Fatalf("outcome = %+v, want %d available / %d pending", out.Outcome, net, total-net)
	}
	balance := f.balances.snapshot(f.creatorID)
	if balance.AvailableBalance != 0 || balance.PendingBalance != net-(total-net) {
		t.Fatalf("balance after reversal: %+v", balance)
	}
	if !balance.Consistent() {
		t.Fatalf("identity violated: %+v", balance)
	}
	if sum := f.balances.pendingEntrySum(f.creatorID); sum != balance.PendingBalance {
		t.Fatalf("pending entries %d out of step with bucket %d", sum, balance.PendingBalance)
	}
}

func TestRefundSingleOpenSlotPerOrder(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	f.payOrder(t, ctx)
	order := f.lastOrder(t)

	first, err := f.service.RequestRefund(ctx, f.buyer, application.RequestRefundInput{
		OrderID:        order.OrderID,
		ReasonCategory: "other",
		Reason:         "changed my mind",
	}, "slot-first")
	if err != nil {
		t.Fatalf("first refund failed: %v", err)
	}
	_, err = f.service.RequestRefund(ctx, f.buyer, application.RequestRefundInput{
		OrderID:        order.OrderID,
		ReasonCategory: "other",
		Reason:         "second attempt",
	}, "slot-second")
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict for second open refund, got %v", err)
	}

	// Cancelling frees the slot for a new request.
	if _, err := f.service.CancelRefund(ctx, f.buyer, first.RefundID); err != nil {
		t.Fatalf("cancel refund failed: %v", err)
	}
	if _, err := f.service.RequestRefund(ctx, f.buyer, application.RequestRefundInput{
		OrderID:        order.OrderID,
		ReasonCategory: "other",
		Reason:         "second attempt",
	}, "slot-third"); err != nil {
		t.Fatalf("refund after cancellation failed: %v", err)
	}
}

func TestRefundGuards(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	f.payOrder(t, ctx)
	order := f.lastOrder(t)

	// Only the buyer may open a refund for the order.
	_, err := f.service.RequestRefund(ctx, f.creator, application.RequestRefundInput{
		OrderID:        order.OrderID,
		ReasonCategory: "other",
		Reason:         "not my order",
	}, "guard-wrong-user")
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden for non-buyer, got %v", err)
	}

	refund, err := f.service.RequestRefund(ctx, f.buyer, application.RequestRefundInput{
		OrderID:        order.OrderID,
		ReasonCategory: "other",
		Reason:         "changed my mind",
	}, "guard-refund")
	if err != nil {
		t.Fatalf("request refund failed: %v", err)
	}

	// Review surfaces are admin-only.
	if _, err := f.service.BeginReview(ctx, f.buyer, refund.RefundID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden for non-admin review, got %v", err)
	}
	// Approval straight from requested is off the table.
	if _, err := f.service.ReviewRefund(ctx, f.admin, refund.RefundID, application.ReviewRefundInput{
		Decision: "approve",
	}); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	// Only the requester may cancel.
	if _, err := f.service.CancelRefund(ctx, f.creator, refund.RefundID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden cancel, got %v", err)
	}
}

func TestRefundAdminAdjustedAmount(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	net := f.payOrder(t, ctx)
	order := f.lastOrder(t)

	refund, err := f.service.RequestRefund(ctx, f.buyer, application.RequestRefundInput{
		OrderID:        order.OrderID,
		ReasonCategory: "partial",
		Reason:         "half of the placement never ran",
	}, "refund-partial")
	if err != nil {
		t.Fatalf("request refund failed: %v", err)
	}
	if _, err := f.service.BeginReview(ctx, f.admin, refund.RefundID); err != nil {
		t.Fatalf("begin review failed: %v", err)
	}

	over := order.TotalAmount + 1
	if _, err := f.service.ReviewRefund(ctx, f.admin, refund.RefundID, application.ReviewRefundInput{
		Decision:     "approve",
		RefundAmount: &over,
	}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected rejection of over-refund, got %v", err)
	}

	half := net / 2
	out, err := f.service.ReviewRefund(ctx, f.admin, refund.RefundID, application.ReviewRefundInput{
		Decision:     "approve",
		RefundAmount: &half,
	})
	if err != nil {
		t.Fatalf("approve adjusted refund failed: %v", err)
	}
	if out.Refund.RefundAmount != half {
		t.Fatalf("refund amount = %d, want %d", out.Refund.RefundAmount, half)
	}
	balance := f.balances.snapshot(f.creatorID)
	if balance.PendingBalance != net-half || balance.TotalRefunded != half {
		t.Fatalf("balance after partial refund: %+v", balance)
	}
	if !balance.Consistent() {
		t.Fatalf("balance identity broken after partial refund: %+v", balance)
	}
}

func TestRefundRequestIdempotency(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	f.payOrder(t, ctx)
	order := f.lastOrder(t)

	input := application.RequestRefundInput{
		OrderID:        order.OrderID,
		ReasonCategory: "other",
		Reason:         "duplicate purchase",
	}
	if _, err := f.service.RequestRefund(ctx, f.buyer, input, ""); !errors.Is(err, domain.ErrIdempotencyRequired) {
		t.Fatalf("expected key requirement, got %v", err)
	}
	first, err := f.service.RequestRefund(ctx, f.buyer, input, "refund-key")
	if err != nil {
		t.Fatalf("first request failed: %v", err)
	}
	replay, err := f.service.RequestRefund(ctx, f.buyer, input, "refund-key")
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if replay.RefundID != first.RefundID {
		t.Fatalf("replay created a second refund")
	}
}

func TestCreatorApplicationReview(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	applicant := application.Actor{UserID: uuid.New(), Role: domain.RoleBuyer}

	app, err := f.service.SubmitCreatorApplication(ctx, applicant, application.SubmitApplicationInput{
		Bio:       "ten years running niche content sites",
		Expertise: "seo",
	})
	if err != nil {
		t.Fatalf("submit application failed: %v", err)
	}

	// One pending application per user.
	_, err = f.service.SubmitCreatorApplication(ctx, applicant, application.SubmitApplicationInput{
		Bio:       "second submission",
		Expertise: "seo",
	})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict for second pending application, got %v", err)
	}

	if _, err := f.service.ReviewCreatorApplication(ctx, applicant, app.ApplicationID, application.ReviewApplicationInput{
		Decision: "approve",
	}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden for non-admin review, got %v", err)
	}

	approved, err := f.service.ReviewCreatorApplication(ctx, f.admin, app.ApplicationID, application.ReviewApplicationInput{
		Decision: "approve",
	})
	if err != nil {
		t.Fatalf("approve application failed: %v", err)
	}
	if approved.Status != domain.ApplicationStatusApproved || approved.ReviewedBy == nil {
		t.Fatalf("unexpected application after approval: %+v", approved)
	}

	// Provisioning includes a zeroed balance row.
	balance := f.balances.snapshot(applicant.UserID)
	if balance.TotalEarnings != 0 || !balance.Consistent() {
		t.Fatalf("provisioned balance not zeroed: %+v", balance)
	}

	// Terminal applications reject a second decision.
	_, err = f.service.ReviewCreatorApplication(ctx, f.admin, app.ApplicationID, application.ReviewApplicationInput{
		Decision: "reject", RejectionReason: "changed my mind",
	})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict on double review, got %v", err)
	}
}

func TestWebsiteModerationFlow(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	website, err := f.service.SubmitWebsite(ctx, f.creator, application.SubmitWebsiteInput{Name: "travel-blog.example"})
	if err != nil {
		t.Fatalf("submit website failed: %v", err)
	}
	if website.Status != domain.WebsiteStatusPending {
		t.Fatalf("new website status = %s", website.Status)
	}

	activated, err := f.service.ModerateWebsite(ctx, f.admin, website.WebsiteID, application.ModerateWebsiteInput{Decision: "activate"})
	if err != nil {
		t.Fatalf("activate failed: %v", err)
	}
	if activated.Status != domain.WebsiteStatusActive {
		t.Fatalf("website status = %s, want active", activated.Status)
	}

	// Suspension needs a reason; active cannot be rejected.
	if _, err := f.service.ModerateWebsite(ctx, f.admin, website.WebsiteID, application.ModerateWebsiteInput{Decision: "suspend"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected reason requirement, got %v", err)
	}
	if _, err := f.service.ModerateWebsite(ctx, f.admin, website.WebsiteID, application.ModerateWebsiteInput{Decision: "reject"}); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition active->rejected, got %v", err)
	}

	suspended, err := f.service.ModerateWebsite(ctx, f.admin, website.WebsiteID, application.ModerateWebsiteInput{
		Decision: "suspend", Reason: "repeated policy violations",
	})
	if err != nil {
		t.Fatalf("suspend failed: %v", err)
	}
	if suspended.Status != domain.WebsiteStatusSuspended {
		t.Fatalf("website status = %s, want suspended", suspended.Status)
	}
	// Suspended is terminal for the gate.
	if _, err := f.service.ModerateWebsite(ctx, f.admin, website.WebsiteID, application.ModerateWebsiteInput{Decision: "activate"}); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict on terminal website, got %v", err)
	}
}

func TestReportLifecycle(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	report, err := f.service.CreateReport(ctx, f.buyer, application.CreateReportInput{
		WebsiteID:      f.websiteID,
		ReasonCategory: "spam",
		Detail:         "comment sections full of bot links",
	})
	if err != nil {
		t.Fatalf("create report failed: %v", err)
	}

	resolved, err := f.service.ResolveReport(ctx, f.admin, report.ReportID, application.ResolveReportInput{
		Decision: "resolve", AdminNote: "listing suspended",
	})
	if err != nil {
		t.Fatalf("resolve report failed: %v", err)
	}
	if resolved.Status != domain.ReportStatusResolved {
		t.Fatalf("report status = %s, want resolved", resolved.Status)
	}
	_, err = f.service.ResolveReport(ctx, f.admin, report.ReportID, application.ResolveReportInput{Decision: "dismiss"})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict on double resolution, got %v", err)
	}
}

func TestBankAccountManagement(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	first, err := f.service.AddBankAccount(ctx, f.creator, application.AddBankAccountInput{
		BankName: "BCA", AccountNumber: "1234567890", AccountName: "Creator One",
	})
	if err != nil {
		t.Fatalf("add first account failed: %v", err)
	}
	if !first.IsPrimary {
		t.Fatalf("first account should be primary")
	}
	if first.AccountNumber != "******7890" {
		t.Fatalf("account number not masked: %s", first.AccountNumber)
	}

	second, err := f.service.AddBankAccount(ctx, f.creator, application.AddBankAccountInput{
		BankName: "Mandiri", AccountNumber: "9876543210", AccountName: "Creator One",
	})
	if err != nil {
		t.Fatalf("add second account failed: %v", err)
	}
	if second.IsPrimary {
		t.Fatalf("second account should not be primary")
	}

	if err := f.service.SetPrimaryBankAccount(ctx, f.creator, second.BankAccountID); err != nil {
		t.Fatalf("set primary failed: %v", err)
	}
	accounts, err := f.service.ListBankAccounts(ctx, f.creator, f.creatorID)
	if err != nil {
		t.Fatalf("list accounts failed: %v", err)
	}
	primaries := 0
	for _, account := range accounts {
		if account.IsPrimary {
			primaries++
			if account.BankAccountID != second.BankAccountID {
				t.Fatalf("wrong primary account")
			}
		}
		if !strings.HasPrefix(account.AccountNumber, "******") {
			t.Fatalf("listed account number not masked: %s", account.AccountNumber)
		}
	}
	if primaries != 1 {
		t.Fatalf("primary count = %d, want 1", primaries)
	}

	// Buyers cannot register payout destinations.
	if _, err := f.service.AddBankAccount(ctx, f.buyer, application.AddBankAccountInput{
		BankName: "BCA", AccountNumber: "1234567890", AccountName: "Buyer",
	}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden for buyer, got %v", err)
	}
}

func TestGetBalanceOwnershipAndCache(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.balances.deposit(f.creatorID, 100000)

	if _, err := f.service.GetBalance(ctx, f.buyer, f.creatorID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden for other user, got %v", err)
	}
	if _, err := f.service.GetBalance(ctx, f.admin, f.creatorID); err != nil {
		t.Fatalf("admin read failed: %v", err)
	}

	if _, err := f.service.GetBalance(ctx, f.creator, f.creatorID); err != nil {
		t.Fatalf("first read failed: %v", err)
	}
	reads := f.balances.readCount()
	if _, err := f.service.GetBalance(ctx, f.creator, f.creatorID); err != nil {
		t.Fatalf("second read failed: %v", err)
	}
	if f.balances.readCount() != reads {
		t.Fatalf("second read bypassed the cache")
	}
}

const (
	tierPrice     = int64(100000)
	platformFee   = int64(5000)
	minimumPayout = int64(100000)
)

type fixture struct {
	service *application.Service

	orders   *fakeOrders
	balances *fakeBalances
	refunds  *fakeRefunds
	cache    *fakeBalanceCache

	admin   application.Actor
	creator application.Actor
	buyer   application.Actor

	creatorID uuid.UUID
	websiteID uuid.UUID
	tierID    uuid.UUID
}

func defaultTestConfig() application.Config {
	return application.Config{
		PlatformFee:     platformFee,
		MinimumPayout:   minimumPayout,
		OrderExpiry:     24 * time.Hour,
		HoldingWindow:   7 * 24 * time.Hour,
		InstructionTTL:  time.Hour,
		BalanceCacheTTL: time.Minute,
		IdempotencyTTL:  24 * time.Hour,
		MaturationBatch: 100,
	}
}

func newFixture() *fixture {
	return newFixtureWithConfig(defaultTestConfig())
}

func newFixtureWithConfig(cfg application.Config) *fixture {
	balances := &fakeBalances{
		byCreator: map[uuid.UUID]domain.CreatorBalance{},
		entries:   map[uuid.UUID]domain.BalanceEntry{},
	}
	websites := &fakeWebsites{
		byID:  map[uuid.UUID]domain.Website{},
		tiers: map[uuid.UUID]domain.PricingTier{},
	}
	orders := &fakeOrders{byID: map[uuid.UUID]domain.Order{}, balances: balances}
	refunds := &fakeRefunds{
		byID:     map[uuid.UUID]domain.Refund{},
		orders:   orders,
		websites: websites,
		balances: balances,
	}
	payouts := &fakePayouts{byID: map[uuid.UUID]domain.Payout{}, balances: balances}
	bankAccounts := &fakeBankAccounts{byID: map[uuid.UUID]domain.BankAccount{}}
	applications := &fakeApplications{byID: map[uuid.UUID]domain.CreatorApplication{}, balances: balances}
	reports := &fakeReports{byID: map[uuid.UUID]domain.Report{}}
	idem := &fakeIdempotency{records: map[string]ports.IdempotencyRecord{}}
	balanceCache := &fakeBalanceCache{items: map[uuid.UUID]domain.CreatorBalance{}}

	svc := application.NewService(application.Dependencies{
		Config:       cfg,
		Orders:       orders,
		Balances:     balances,
		Refunds:      refunds,
		Payouts:      payouts,
		BankAccounts: bankAccounts,
		Applications: applications,
		Websites:     websites,
		Reports:      reports,
		Idempotency:  idem,
		BalanceCache: balanceCache,
		Instructions: &fakeInstructions{items: map[uuid.UUID]domain.PaymentInstruction{}},
		Encryption:   fakeEncryption{},
	})

	f := &fixture{
		service:   svc,
		orders:    orders,
		balances:  balances,
		refunds:   refunds,
		cache:     balanceCache,
		admin:     application.Actor{UserID: uuid.New(), Role: domain.RoleAdmin},
		creator:   application.Actor{UserID: uuid.New(), Role: domain.RoleCreator},
		buyer:     application.Actor{UserID: uuid.New(), Role: domain.RoleBuyer},
		creatorID: uuid.Nil,
		websiteID: uuid.New(),
		tierID:    uuid.New(),
	}
	f.creatorID = f.creator.UserID

	now := time.Now().UTC()
	websites.byID[f.websiteID] = domain.Website{
		WebsiteID: f.websiteID,
		CreatorID: f.creatorID,
		Name:      "seeded-listing",
		Status:    domain.WebsiteStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	websites.tiers[f.tierID] = domain.PricingTier{
		TierID:    f.tierID,
		WebsiteID: f.websiteID,
		Name:      "standard",
		Price:     tierPrice,
		IsActive:  true,
	}
	balances.ensure(f.creatorID)
	return f
}

// payOrder runs create+confirm for the fixture buyer and returns the creator's
// net credit.
func (f *fixture) payOrder(t *testing.T, ctx context.Context) int64 {
	t.Helper()
	order, err := f.service.CreateOrder(ctx, f.buyer, application.CreateOrderInput{
		WebsiteID:     f.websiteID,
		PricingTierID: f.tierID,
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if _, err := f.service.ConfirmPayment(ctx, application.ConfirmPaymentInput{
		OrderID:           order.OrderID,
		ProviderReference: "provider-" + order.OrderNumber,
	}); err != nil {
		t.Fatalf("confirm payment failed: %v", err)
	}
	return order.TotalAmount - order.PlatformFee
}

func (f *fixture) lastOrder(t *testing.T) domain.Order {
	t.Helper()
	f.orders.mu.Lock()
	defer f.orders.mu.Unlock()
	var latest domain.Order
	for _, order := range f.orders.byID {
		if latest.OrderID == uuid.Nil || order.CreatedAt.After(latest.CreatedAt) {
			latest = order
		}
	}
	if latest.OrderID == uuid.Nil {
		t.Fatalf("no orders in fixture")
	}
	return latest
}

func (f *fixture) addBankAccount(t *testing.T, ctx context.Context) domain.BankAccount {
	t.Helper()
	account, err := f.service.AddBankAccount(ctx, f.creator, application.AddBankAccountInput{
		BankName: "BCA", AccountNumber: "1234567890", AccountName: "Creator One",
	})
	if err != nil {
		t.Fatalf("add bank account failed: %v", err)
	}
	return account
}

var (
	_ ports.OrderRepository       = (*fakeOrders)(nil)
	_ ports.BalanceRepository     = (*fakeBalances)(nil)
	_ ports.RefundRepository      = (*fakeRefunds)(nil)
	_ ports.PayoutRepository      = (*fakePayouts)(nil)
	_ ports.BankAccountRepository = (*fakeBankAccounts)(nil)
	_ ports.ApplicationRepository = (*fakeApplications)(nil)
	_ ports.WebsiteRepository     = (*fakeWebsites)(nil)
	_ ports.ReportRepository      = (*fakeReports)(nil)
	_ ports.IdempotencyRepository = (*fakeIdempotency)(nil)
	_ ports.BalanceCache          = (*fakeBalanceCache)(nil)
)

type fakeOrders struct {
	mu       sync.Mutex
	byID     map[uuid.UUID]domain.Order
	balances *fakeBalances
}

func (f *fakeOrders) Create(_ context.Context, order domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[order.OrderID] = order
	return nil
}

func (f *fakeOrders) GetByID(_ context.Context, orderID uuid.UUID) (domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.byID[orderID]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	return order, nil
}

func (f *fakeOrders) ListByBuyer(_ context.Context, buyerID uuid.UUID, limit, offset int) ([]domain.Order, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []domain.Order
	for _, order := range f.byID {
		if order.BuyerID == buyerID {
			items = append(items, order)
		}
	}
	total := int64(len(items))
	if offset >= len(items) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end], total, nil
}

func (f *fakeOrders) ConfirmPaidTx(_ context.Context, params ports.ConfirmPaymentParams, _ ports.OutboxEvent) (domain.Order, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.byID[params.OrderID]
	if !ok {
		return domain.Order{}, false, domain.ErrNotFound
	}
	if order.Status == domain.OrderStatusPaid {
		return order, false, nil
	}
	if order.Status != domain.OrderStatusPending {
		return domain.Order{}, false, domain.ErrConflict
	}
	paidAt := params.PaidAt
	order.Status = domain.OrderStatusPaid
	order.PaidAt = &paidAt
	order.UpdatedAt = params.PaidAt
	f.byID[params.OrderID] = order
	f.balances.credit(params.CreatorID, params.OrderID, params.NetAmount, params.PaidAt, params.AvailableAt)
	return order, true, nil
}

func (f *fakeOrders) ExpireStalePendingTx(_ context.Context, cutoff, now time.Time, _ func(domain.Order) ports.OutboxEvent) ([]domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var expired []domain.Order
	for id, order := range f.byID {
		if order.Status == domain.OrderStatusPending && order.CreatedAt.Before(cutoff) {
			order.Status = domain.OrderStatusExpired
			order.UpdatedAt = now
			f.byID[id] = order
			expired = append(expired, order)
		}
	}
	return expired, nil
}

func (f *fakeOrders) UpdateStatus(_ context.Context, orderID uuid.UUID, from, to domain.OrderStatus, now time.Time) (domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.byID[orderID]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	if order.Status != from {
		return domain.Order{}, domain.ErrConflict
	}
	order.Status = to
	order.UpdatedAt = now
	f.byID[orderID] = order
	return order, nil
}

type fakeBalances struct {
	mu        sync.Mutex
	byCreator map[uuid.UUID]domain.CreatorBalance
	entries   map[uuid.UUID]domain.BalanceEntry
	reads     int
}

func (f *fakeBalances) ensure(creatorID uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byCreator[creatorID]; !ok {
		f.byCreator[creatorID] = domain.CreatorBalance{CreatorID: creatorID}
	}
}

// deposit seeds matured earnings directly, as if prior orders had cleared the
// holding window.
func (f *fakeBalances) deposit(creatorID uuid.UUID, amount int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := f.byCreator[creatorID]
	b.CreatorID = creatorID
	b.AvailableBalance += amount
	b.TotalEarnings += amount
	f.byCreator[creatorID] = b
}

// drain moves everything into withdrawn, mimicking a creator who cashed out.
func (f *fakeBalances) drain(creatorID uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := f.byCreator[creatorID]
	b.WithdrawnBalance += b.AvailableBalance + b.PendingBalance
	b.AvailableBalance = 0
	b.PendingBalance = 0
	f.byCreator[creatorID] = b
	for id, entry := range f.entries {
		if entry.CreatorID == creatorID && entry.Status == domain.BalanceEntryStatusPending {
			entry.Status = domain.BalanceEntryStatusMatured
			f.entries[id] = entry
		}
	}
}

func (f *fakeBalances) snapshot(creatorID uuid.UUID) domain.CreatorBalance {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byCreator[creatorID]
}

func (f *fakeBalances) readCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

// pendingEntrySum totals the creator's live maturation entries; it must always
// equal the pending bucket or the maintenance sweep will release wrong amounts.
func (f *fakeBalances) pendingEntrySum(creatorID uuid.UUID) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sum int64
	for _, entry := range f.entries {
		if entry.CreatorID == creatorID && entry.Status == domain.BalanceEntryStatusPending {
			sum += entry.Amount
		}
	}
	return sum
}

func (f *fakeBalances) credit(creatorID, orderID uuid.UUID, amount int64, now, availableAt time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := f.byCreator[creatorID]
	b.CreatorID = creatorID
	b.PendingBalance += amount
	b.TotalEarnings += amount
	b.UpdatedAt = now
	f.byCreator[creatorID] = b
	entryID := uuid.New()
	f.entries[entryID] = domain.BalanceEntry{
		EntryID:     entryID,
		CreatorID:   creatorID,
		OrderID:     orderID,
		Amount:      amount,
		Status:      domain.BalanceEntryStatusPending,
		AvailableAt: availableAt,
		CreatedAt:   now,
	}
}

// reverse settles an approved refund against the two live buckets. Mirrors the
// persistent implementation: available first, then pending, with the pending
// share debited from the creator's entries starting at the refunded order's
// own and falling back to the oldest other credits.
func (f *fakeBalances) reverse(creatorID, orderID uuid.UUID, amount int64, now time.Time) (domain.ReverseOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := f.byCreator[creatorID]
	fromAvailable := min64(b.AvailableBalance, amount)
	fromPending := min64(b.PendingBalance, amount-fromAvailable)
	if fromAvailable+fromPending < amount {
		return domain.ReverseOutcome{Reconciliation: true}, nil
	}
	b.AvailableBalance -= fromAvailable
	b.PendingBalance -= fromPending
	b.TotalRefunded += amount
	b.UpdatedAt = now
	f.byCreator[creatorID] = b
	if fromPending > 0 {
		var ids []uuid.UUID
		for id, entry := range f.entries {
			if entry.CreatorID == creatorID && entry.Status == domain.BalanceEntryStatusPending {
				ids = append(ids, id)
			}
		}
		sort.Slice(ids, func(i, j int) bool {
			left, right := f.entries[ids[i]], f.entries[ids[j]]
			if (left.OrderID == orderID) != (right.OrderID == orderID) {
				return left.OrderID == orderID
			}
			return left.CreatedAt.Before(right.CreatedAt)
		})
		remaining := fromPending
		for _, id := range ids {
			if remaining == 0 {
				break
			}
			entry := f.entries[id]
			take := min64(entry.Amount, remaining)
			if take == entry.Amount {
				entry.Status = domain.BalanceEntryStatusReversed
			} else {
				entry.Amount -= take
			}
			f.entries[id] = entry
			remaining -= take
		}
		if remaining > 0 {
			return domain.ReverseOutcome{}, fmt.Errorf("pending entries short %d of reversal %d", remaining, fromPending)
		}
	}
	return domain.ReverseOutcome{FromAvailable: fromAvailable, FromPending: fromPending}, nil
}

func (f *fakeBalances) GetByCreator(_ context.Context, creatorID uuid.UUID) (domain.CreatorBalance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	b, ok := f.byCreator[creatorID]
	if !ok {
		return domain.CreatorBalance{}, domain.ErrNotFound
	}
	return b, nil
}

func (f *fakeBalances) ListMaturable(_ context.Context, now time.Time, limit int) ([]domain.BalanceEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.BalanceEntry
	for _, entry := range f.entries {
		if entry.Status == domain.BalanceEntryStatusPending && !entry.AvailableAt.After(now) {
			out = append(out, entry)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeBalances) MatureEntryTx(_ context.Context, entryID uuid.UUID, now time.Time, _ ports.OutboxEvent) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.entries[entryID]
	if !ok || entry.Status != domain.BalanceEntryStatusPending || entry.AvailableAt.After(now) {
		return false, nil
	}
	b := f.byCreator[entry.CreatorID]
	b.PendingBalance -= entry.Amount
	b.AvailableBalance += entry.Amount
	b.UpdatedAt = now
	f.byCreator[entry.CreatorID] = b
	entry.Status = domain.BalanceEntryStatusMatured
	f.entries[entryID] = entry
	return true, nil
}

type fakeRefunds struct {
	mu       sync.Mutex
	byID     map[uuid.UUID]domain.Refund
	orders   *fakeOrders
	websites *fakeWebsites
	balances *fakeBalances
}

func (f *fakeRefunds) Create(_ context.Context, refund domain.Refund, _ ports.OutboxEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.OrderID == refund.OrderID && existing.Status.Open() {
			return domain.ErrConflict
		}
	}
	f.byID[refund.RefundID] = refund
	return nil
}

func (f *fakeRefunds) GetByID(_ context.Context, refundID uuid.UUID) (domain.Refund, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	refund, ok := f.byID[refundID]
	if !ok {
		return domain.Refund{}, domain.ErrNotFound
	}
	return refund, nil
}

func (f *fakeRefunds) ListOpenByOrder(_ context.Context, orderID uuid.UUID) ([]domain.Refund, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Refund
	for _, refund := range f.byID {
		if refund.OrderID == orderID && refund.Status.Open() {
			out = append(out, refund)
		}
	}
	return out, nil
}

func (f *fakeRefunds) List(_ context.Context, query ports.RefundQuery) ([]domain.Refund, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Refund
	for _, refund := range f.byID {
		if query.RequesterID != nil && refund.RequesterID != *query.RequesterID {
			continue
		}
		if query.Status != "" && refund.Status != query.Status {
			continue
		}
		out = append(out, refund)
	}
	return out, int64(len(out)), nil
}

func (f *fakeRefunds) UpdateStatus(_ context.Context, refundID uuid.UUID, from, to domain.RefundStatus, message, adminNotes string, now time.Time, _ *ports.OutboxEvent) (domain.Refund, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	refund, ok := f.byID[refundID]
	if !ok {
		return domain.Refund{}, domain.ErrNotFound
	}
	if refund.Status != from {
		return domain.Refund{}, domain.ErrConflict
	}
	refund.Status = to
	refund.StatusMessage = message
	if adminNotes != "" {
		refund.AdminNotes = adminNotes
	}
	refund.UpdatedAt = now
	f.byID[refundID] = refund
	return refund, nil
}

func (f *fakeRefunds) ApproveTx(ctx context.Context, params ports.ApproveRefundParams) (domain.Refund, domain.ReverseOutcome, error) {
	f.mu.Lock()
	refund, ok := f.byID[params.RefundID]
	f.mu.Unlock()
	if !ok {
		return domain.Refund{}, domain.ReverseOutcome{}, domain.ErrNotFound
	}
	if refund.Status != domain.RefundStatusUnderReview {
		return domain.Refund{}, domain.ReverseOutcome{}, domain.ErrConflict
	}
	order, err := f.orders.GetByID(ctx, refund.OrderID)
	if err != nil {
		return domain.Refund{}, domain.ReverseOutcome{}, err
	}
	if order.Status != domain.OrderStatusPaid {
		return domain.Refund{}, domain.ReverseOutcome{}, domain.ErrConflict
	}
	website, err := f.websites.GetByID(ctx, order.WebsiteID)
	if err != nil {
		return domain.Refund{}, domain.ReverseOutcome{}, err
	}

	outcome, err := f.balances.reverse(website.CreatorID, order.OrderID, params.RefundAmount, params.Now)
	if err != nil {
		return domain.Refund{}, domain.ReverseOutcome{}, err
	}
	if _, err := f.orders.UpdateStatus(ctx, order.OrderID, domain.OrderStatusPaid, domain.OrderStatusRefunded, params.Now); err != nil {
		return domain.Refund{}, domain.ReverseOutcome{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	refund.Status = domain.RefundStatusApproved
	refund.RefundAmount = params.RefundAmount
	refund.AdminNotes = params.AdminNotes
	refund.ReconciliationRequired = outcome.Reconciliation
	refund.UpdatedAt = params.Now
	f.byID[params.RefundID] = refund
	return refund, outcome, nil
}

type fakePayouts struct {
	mu       sync.Mutex
	byID     map[uuid.UUID]domain.Payout
	balances *fakeBalances
}

func (f *fakePayouts) CreateWithReserveTx(_ context.Context, params ports.RequestPayoutParams, _ ports.OutboxEvent) (domain.Payout, error) {
	f.balances.mu.Lock()
	b := f.balances.byCreator[params.Payout.CreatorID]
	if b.AvailableBalance < params.Payout.Amount {
		available := b.AvailableBalance
		f.balances.mu.Unlock()
		return domain.Payout{}, fmt.Errorf("%w: requested %d, available %d", domain.ErrInsufficientBalance, params.Payout.Amount, available)
	}
	b.AvailableBalance -= params.Payout.Amount
	b.ReservedBalance += params.Payout.Amount
	b.UpdatedAt = params.Now
	f.balances.byCreator[params.Payout.CreatorID] = b
	f.balances.mu.Unlock()

	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[params.Payout.PayoutID] = params.Payout
	return params.Payout, nil
}

func (f *fakePayouts) GetByID(_ context.Context, payoutID uuid.UUID) (domain.Payout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	payout, ok := f.byID[payoutID]
	if !ok {
		return domain.Payout{}, domain.ErrNotFound
	}
	return payout, nil
}

func (f *fakePayouts) List(_ context.Context, query ports.PayoutQuery) ([]domain.Payout, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Payout
	for _, payout := range f.byID {
		if query.CreatorID != nil && payout.CreatorID != *query.CreatorID {
			continue
		}
		if query.Status != "" && payout.Status != query.Status {
			continue
		}
		out = append(out, payout)
	}
	return out, int64(len(out)), nil
}

func (f *fakePayouts) UpdateStatus(_ context.Context, payoutID uuid.UUID, from, to domain.PayoutStatus, message string, now time.Time) (domain.Payout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	payout, ok := f.byID[payoutID]
	if !ok {
		return domain.Payout{}, domain.ErrNotFound
	}
	if payout.Status != from {
		return domain.Payout{}, domain.ErrConflict
	}
	payout.Status = to
	payout.StatusMessage = message
	payout.UpdatedAt = now
	f.byID[payoutID] = payout
	return payout, nil
}

func (f *fakePayouts) CompleteTx(_ context.Context, payoutID uuid.UUID, now time.Time, _ ports.OutboxEvent) (domain.Payout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	payout, ok := f.byID[payoutID]
	if !ok {
		return domain.Payout{}, domain.ErrNotFound
	}
	if payout.Status != domain.PayoutStatusProcessing {
		return domain.Payout{}, domain.ErrConflict
	}
	f.balances.mu.Lock()
	b := f.balances.byCreator[payout.CreatorID]
	b.ReservedBalance -= payout.Amount
	b.WithdrawnBalance += payout.Amount
	b.UpdatedAt = now
	f.balances.byCreator[payout.CreatorID] = b
	f.balances.mu.Unlock()

	payout.Status = domain.PayoutStatusCompleted
	payout.UpdatedAt = now
	f.byID[payoutID] = payout
	return payout, nil
}

func (f *fakePayouts) ReleaseTx(_ context.Context, payoutID uuid.UUID, from, to domain.PayoutStatus, message string, now time.Time, _ ports.OutboxEvent) (domain.Payout, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	payout, ok := f.byID[payoutID]
	if !ok {
		return domain.Payout{}, domain.ErrNotFound
	}
	if payout.Status != from {
		return domain.Payout{}, domain.ErrConflict
	}
	f.balances.mu.Lock()
	b := f.balances.byCreator[payout.CreatorID]
	b.ReservedBalance -= payout.Amount
	b.AvailableBalance += payout.Amount
	b.UpdatedAt = now
	f.balances.byCreator[payout.CreatorID] = b
	f.balances.mu.Unlock()

	payout.Status = to
	payout.StatusMessage = message
	payout.UpdatedAt = now
	f.byID[payoutID] = payout
	return payout, nil
}

type fakeBankAccounts struct {
	mu   sync.Mutex
	byID map[uuid.UUID]domain.BankAccount
}

func (f *fakeBankAccounts) Create(_ context.Context, account domain.BankAccount) (domain.BankAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	first := true
	for _, existing := range f.byID {
		if existing.CreatorID == account.CreatorID {
			first = false
			break
		}
	}
	account.IsPrimary = first
	f.byID[account.BankAccountID] = account
	return account, nil
}

func (f *fakeBankAccounts) GetByID(_ context.Context, bankAccountID uuid.UUID) (domain.BankAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.byID[bankAccountID]
	if !ok {
		return domain.BankAccount{}, domain.ErrNotFound
	}
	return account, nil
}

func (f *fakeBankAccounts) GetPrimary(_ context.Context, creatorID uuid.UUID) (domain.BankAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, account := range f.byID {
		if account.CreatorID == creatorID && account.IsPrimary {
			return account, nil
		}
	}
	return domain.BankAccount{}, domain.ErrNotFound
}

func (f *fakeBankAccounts) ListByCreator(_ context.Context, creatorID uuid.UUID) ([]domain.BankAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.BankAccount
	for _, account := range f.byID {
		if account.CreatorID == creatorID {
			out = append(out, account)
		}
	}
	return out, nil
}

func (f *fakeBankAccounts) SetPrimaryTx(_ context.Context, creatorID, bankAccountID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	target, ok := f.byID[bankAccountID]
	if !ok || target.CreatorID != creatorID {
		return domain.ErrNotFound
	}
	for id, account := range f.byID {
		if account.CreatorID == creatorID {
			account.IsPrimary = id == bankAccountID
			f.byID[id] = account
		}
	}
	return nil
}

type fakeApplications struct {
	mu       sync.Mutex
	byID     map[uuid.UUID]domain.CreatorApplication
	balances *fakeBalances
}

func (f *fakeApplications) Create(_ context.Context, app domain.CreatorApplication) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.UserID == app.UserID && existing.Status == domain.ApplicationStatusPending {
			return domain.ErrConflict
		}
	}
	f.byID[app.ApplicationID] = app
	return nil
}

func (f *fakeApplications) GetByID(_ context.Context, applicationID uuid.UUID) (domain.CreatorApplication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	app, ok := f.byID[applicationID]
	if !ok {
		return domain.CreatorApplication{}, domain.ErrNotFound
	}
	return app, nil
}

func (f *fakeApplications) ApproveTx(_ context.Context, params ports.ApproveApplicationParams) (domain.CreatorApplication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	app, ok := f.byID[params.ApplicationID]
	if !ok {
		return domain.CreatorApplication{}, domain.ErrNotFound
	}
	if app.Status != domain.ApplicationStatusPending {
		return domain.CreatorApplication{}, domain.ErrConflict
	}
	reviewedBy := params.ReviewedBy
	reviewedAt := params.Now
	app.Status = domain.ApplicationStatusApproved
	app.ReviewedBy = &reviewedBy
	app.ReviewedAt = &reviewedAt
	f.byID[params.ApplicationID] = app
	f.balances.ensure(app.UserID)
	return app, nil
}

func (f *fakeApplications) Reject(_ context.Context, applicationID, reviewedBy uuid.UUID, reason string, now time.Time) (domain.CreatorApplication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	app, ok := f.byID[applicationID]
	if !ok {
		return domain.CreatorApplication{}, domain.ErrNotFound
	}
	if app.Status != domain.ApplicationStatusPending {
		return domain.CreatorApplication{}, domain.ErrConflict
	}
	app.Status = domain.ApplicationStatusRejected
	app.RejectionReason = reason
	app.ReviewedBy = &reviewedBy
	app.ReviewedAt = &now
	f.byID[applicationID] = app
	return app, nil
}

type fakeWebsites struct {
	mu    sync.Mutex
	byID  map[uuid.UUID]domain.Website
	tiers map[uuid.UUID]domain.PricingTier
}

func (f *fakeWebsites) Create(_ context.Context, website domain.Website) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[website.WebsiteID] = website
	return nil
}

func (f *fakeWebsites) GetByID(_ context.Context, websiteID uuid.UUID) (domain.Website, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	website, ok := f.byID[websiteID]
	if !ok {
		return domain.Website{}, domain.ErrNotFound
	}
	return website, nil
}

func (f *fakeWebsites) GetTier(_ context.Context, tierID uuid.UUID) (domain.PricingTier, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tier, ok := f.tiers[tierID]
	if !ok {
		return domain.PricingTier{}, domain.ErrNotFound
	}
	return tier, nil
}

func (f *fakeWebsites) UpdateStatus(_ context.Context, websiteID uuid.UUID, from, to domain.WebsiteStatus, reason string, now time.Time, _ ports.OutboxEvent) (domain.Website, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	website, ok := f.byID[websiteID]
	if !ok {
		return domain.Website{}, domain.ErrNotFound
	}
	if website.Status != from {
		return domain.Website{}, domain.ErrConflict
	}
	website.Status = to
	website.StatusReason = reason
	website.UpdatedAt = now
	f.byID[websiteID] = website
	return website, nil
}

type fakeReports struct {
	mu   sync.Mutex
	byID map[uuid.UUID]domain.Report
}

func (f *fakeReports) Create(_ context.Context, report domain.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[report.ReportID] = report
	return nil
}

func (f *fakeReports) GetByID(_ context.Context, reportID uuid.UUID) (domain.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	report, ok := f.byID[reportID]
	if !ok {
		return domain.Report{}, domain.ErrNotFound
	}
	return report, nil
}

func (f *fakeReports) Resolve(_ context.Context, reportID uuid.UUID, status domain.ReportStatus, note string, resolvedBy uuid.UUID, _ time.Time, _ ports.OutboxEvent) (domain.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	report, ok := f.byID[reportID]
	if !ok {
		return domain.Report{}, domain.ErrNotFound
	}
	if report.Status != domain.ReportStatusPending {
		return domain.Report{}, domain.ErrConflict
	}
	report.Status = status
	report.AdminNote = note
	report.ResolvedBy = &resolvedBy
	f.byID[reportID] = report
	return report, nil
}

type fakeIdempotency struct {
	mu      sync.Mutex
	records map[string]ports.IdempotencyRecord
}

func (f *fakeIdempotency) Get(_ context.Context, key string, now time.Time) (*ports.IdempotencyRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[key]
	if !ok || record.ExpiresAt.Before(now) {
		return nil, nil
	}
	out := record
	return &out, nil
}

func (f *fakeIdempotency) Reserve(_ context.Context, key, requestHash string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[key]; ok {
		return domain.ErrIdempotencyConflict
	}
	f.records[key] = ports.IdempotencyRecord{
		IdempotencyKey: key,
		RequestHash:    requestHash,
		Status:         "reserved",
		ExpiresAt:      expiresAt,
	}
	return nil
}

func (f *fakeIdempotency) Complete(_ context.Context, key string, responseCode int, responseBody []byte, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	record := f.records[key]
	record.Status = "completed"
	record.ResponseCode = responseCode
	record.ResponseBody = responseBody
	f.records[key] = record
	return nil
}

type fakeBalanceCache struct {
	mu    sync.Mutex
	items map[uuid.UUID]domain.CreatorBalance
}

func (f *fakeBalanceCache) Get(_ context.Context, creatorID uuid.UUID) (*domain.CreatorBalance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	balance, ok := f.items[creatorID]
	if !ok {
		return nil, nil
	}
	out := balance
	return &out, nil
}

func (f *fakeBalanceCache) Set(_ context.Context, balance domain.CreatorBalance, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[balance.CreatorID] = balance
	return nil
}

func (f *fakeBalanceCache) Invalidate(_ context.Context, creatorID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, creatorID)
	return nil
}

type fakeInstructions struct {
	mu    sync.Mutex
	items map[uuid.UUID]domain.PaymentInstruction
}

func (f *fakeInstructions) Put(_ context.Context, instruction domain.PaymentInstruction, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[instruction.OrderID] = instruction
	return nil
}

func (f *fakeInstructions) Get(_ context.Context, orderID uuid.UUID) (*domain.PaymentInstruction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	instruction, ok := f.items[orderID]
	if !ok {
		return nil, nil
	}
	out := instruction
	return &out, nil
}

type fakeEncryption struct{}

func (fakeEncryption) Encrypt(ownerID, value string) ([]byte, error) {
	return []byte(ownerID + "|" + value), nil
}

func (fakeEncryption) Decrypt(ownerID string, payload []byte) (string, error) {
	raw := string(payload)
	prefix := ownerID + "|"
	if !strings.HasPrefix(raw, prefix) {
		return "", domain.ErrInvalidInput
	}
	return strings.TrimPrefix(raw, prefix), nil
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
