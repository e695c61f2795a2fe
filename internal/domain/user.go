package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleBuyer   Role = "buyer"
	RoleCreator Role = "creator"
	RoleAdmin   Role = "admin"
)

// CreatorProfile is provisioned from an approved application. Upserts are
// keyed by creator id so a retried approval never duplicates the row.
type CreatorProfile struct {
	CreatorID    uuid.UUID `json:"creator_id"`
	Bio          string    `json:"bio"`
	Expertise    string    `json:"expertise"`
	PortfolioURL string    `json:"portfolio_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
