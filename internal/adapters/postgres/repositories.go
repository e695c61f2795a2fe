package postgres

import (
	"gorm.io/gorm"
)

// Repositories bundles every Postgres-backed repository over one shared
// connection pool.
type Repositories struct {
	Orders       *orderRepository
	Balances     *balanceRepository
	Refunds      *refundRepository
	Payouts      *payoutRepository
	BankAccounts *bankAccountRepository
	Applications *applicationRepository
	Websites     *websiteRepository
	Reports      *reportRepository
	Outbox       *outboxRepository
	Idempotency  *idempotencyRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Orders:       &orderRepository{db: db},
		Balances:     &balanceRepository{db: db},
		Refunds:      &refundRepository{db: db},
		Payouts:      &payoutRepository{db: db},
		BankAccounts: &bankAccountRepository{db: db},
		Applications: &applicationRepository{db: db},
		Websites:     &websiteRepository{db: db},
		Reports:      &reportRepository{db: db},
		Outbox:       &outboxRepository{db: db},
		Idempotency:  &idempotencyRepository{db: db},
	}
}
