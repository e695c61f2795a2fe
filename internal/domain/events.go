package domain

// Canonical event types published through the outbox. Partition keys are the
// owning creator or order id so per-entity ordering survives Kafka.
const (
	EventOrderPaid                    = "order.paid"
	EventOrderExpired                 = "order.expired"
	EventRefundRequested              = "refund.requested"
	EventRefundApproved               = "refund.approved"
	EventRefundRejected               = "refund.rejected"
	EventRefundCompleted              = "refund.completed"
	EventRefundReconciliationRequired = "refund.reconciliation_required"
	EventPayoutRequested              = "payout.requested"
	EventPayoutCompleted              = "payout.completed"
	EventPayoutRejected               = "payout.rejected"
	EventPayoutCancelled              = "payout.cancelled"
	EventCreditMatured                = "balance.credit_matured"
	EventCreatorApproved              = "creator.approved"
	EventWebsiteModerated             = "website.moderated"
	EventReportResolved               = "report.resolved"
)
