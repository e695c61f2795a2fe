package domain

import "testing"

func TestOrderStatusTransitions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{OrderStatusPending, OrderStatusPaid, true},
		{OrderStatusPending, OrderStatusFailed, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusExpired, true},
		{OrderStatusPending, OrderStatusRefunded, false},
		{OrderStatusPaid, OrderStatusRefunded, true},
		{OrderStatusPaid, OrderStatusCancelled, false},
		{OrderStatusPaid, OrderStatusPending, false},
		{OrderStatusExpired, OrderStatusPaid, false},
		{OrderStatusRefunded, OrderStatusPaid, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Errorf("%s -> %s: got %v, want %v", tc.from, tc.to, got, tc.allowed)
		}
	}

	for _, s := range []OrderStatus{OrderStatusFailed, OrderStatusCancelled, OrderStatusExpired, OrderStatusRefunded} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	if OrderStatusPending.Terminal() || OrderStatusPaid.Terminal() {
		t.Errorf("pending and paid must not be terminal")
	}
}

func TestRefundStatusTransitions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from    RefundStatus
		to      RefundStatus
		allowed bool
	}{
		{RefundStatusRequested, RefundStatusUnderReview, true},
		{RefundStatusRequested, RefundStatusCancelled, true},
		{RefundStatusRequested, RefundStatusApproved, false},
		{RefundStatusUnderReview, RefundStatusApproved, true},
		{RefundStatusUnderReview, RefundStatusRejected, true},
		{RefundStatusUnderReview, RefundStatusCancelled, true},
		{RefundStatusApproved, RefundStatusProcessing, true},
		{RefundStatusApproved, RefundStatusCancelled, false},
		{RefundStatusProcessing, RefundStatusCompleted, true},
		{RefundStatusCompleted, RefundStatusProcessing, false},
		{RefundStatusRejected, RefundStatusUnderReview, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Errorf("%s -> %s: got %v, want %v", tc.from, tc.to, got, tc.allowed)
		}
	}

	if RefundStatusRejected.Open() || RefundStatusCancelled.Open() {
		t.Errorf("rejected and cancelled refunds must release the order slot")
	}
	for _, s := range []RefundStatus{RefundStatusRequested, RefundStatusUnderReview, RefundStatusApproved, RefundStatusProcessing, RefundStatusCompleted} {
		if !s.Open() {
			t.Errorf("%s should hold the order slot", s)
		}
	}
}

func TestPayoutStatusTransitions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from    PayoutStatus
		to      PayoutStatus
		allowed bool
	}{
		{PayoutStatusPending, PayoutStatusProcessing, true},
		{PayoutStatusPending, PayoutStatusRejected, true},
		{PayoutStatusPending, PayoutStatusCancelled, true},
		{PayoutStatusPending, PayoutStatusCompleted, false},
		{PayoutStatusProcessing, PayoutStatusCompleted, true},
		{PayoutStatusProcessing, PayoutStatusRejected, true},
		{PayoutStatusProcessing, PayoutStatusCancelled, false},
		{PayoutStatusCompleted, PayoutStatusRejected, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Errorf("%s -> %s: got %v, want %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}

func TestWebsiteStatusTransitions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from    WebsiteStatus
		to      WebsiteStatus
		allowed bool
	}{
		{WebsiteStatusPending, WebsiteStatusActive, true},
		{WebsiteStatusPending, WebsiteStatusRejected, true},
		{WebsiteStatusPending, WebsiteStatusSuspended, true},
		{WebsiteStatusActive, WebsiteStatusSuspended, true},
		{WebsiteStatusActive, WebsiteStatusRejected, false},
		{WebsiteStatusSuspended, WebsiteStatusActive, false},
		{WebsiteStatusRejected, WebsiteStatusPending, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Errorf("%s -> %s: got %v, want %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}
