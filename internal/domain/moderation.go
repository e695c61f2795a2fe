package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "pending"
	ApplicationStatusApproved ApplicationStatus = "approved"
	ApplicationStatusRejected ApplicationStatus = "rejected"
)

func (s ApplicationStatus) Terminal() bool {
	return s == ApplicationStatusApproved || s == ApplicationStatusRejected
}

// CreatorApplication is terminal once decided; re-application after a
// rejection creates a new record.
type CreatorApplication struct {
	ApplicationID   uuid.UUID         `json:"application_id"`
	UserID          uuid.UUID         `json:"user_id"`
	Status          ApplicationStatus `json:"status"`
	Bio             string            `json:"bio"`
	Expertise       string            `json:"expertise"`
	PortfolioURL    string            `json:"portfolio_url,omitempty"`
	RejectionReason string            `json:"rejection_reason,omitempty"`
	ReviewedBy      *uuid.UUID        `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time        `json:"reviewed_at,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

func ValidateApplicationInput(bio, expertise string) error {
	if strings.TrimSpace(bio) == "" {
		return ErrInvalidInput
	}
	if strings.TrimSpace(expertise) == "" {
		return ErrInvalidInput
	}
	return nil
}

type WebsiteStatus string

const (
	WebsiteStatusPending   WebsiteStatus = "pending"
	WebsiteStatusActive    WebsiteStatus = "active"
	WebsiteStatusRejected  WebsiteStatus = "rejected"
	WebsiteStatusSuspended WebsiteStatus = "suspended"
)

// websiteTransitions: suspension is reachable while pending or active; a
// rejected or suspended listing does not come back through the gate.
var websiteTransitions = map[WebsiteStatus][]WebsiteStatus{
	WebsiteStatusPending: {WebsiteStatusActive, WebsiteStatusRejected, WebsiteStatusSuspended},
	WebsiteStatusActive:  {WebsiteStatusSuspended},
}

func (s WebsiteStatus) CanTransitionTo(next WebsiteStatus) bool {
	for _, allowed := range websiteTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s WebsiteStatus) Terminal() bool {
	return len(websiteTransitions[s]) == 0
}

// Website is the moderation facet of a listing. Listing content itself lives
// with the storefront; only the status lifecycle is owned here.
type Website struct {
	WebsiteID    uuid.UUID     `json:"website_id"`
	CreatorID    uuid.UUID     `json:"creator_id"`
	Name         string        `json:"name"`
	Status       WebsiteStatus `json:"status"`
	StatusReason string        `json:"status_reason,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

type PricingTier struct {
	TierID       uuid.UUID `json:"tier_id"`
	WebsiteID    uuid.UUID `json:"website_id"`
	Name         string    `json:"name"`
	Price        int64     `json:"price"`
	DurationDays int       `json:"duration_days"`
	IsActive     bool      `json:"is_active"`
}

type ReportStatus string

const (
	ReportStatusPending   ReportStatus = "pending"
	ReportStatusResolved  ReportStatus = "resolved"
	ReportStatusDismissed ReportStatus = "dismissed"
)

func (s ReportStatus) Terminal() bool {
	return s == ReportStatusResolved || s == ReportStatusDismissed
}

type Report struct {
	ReportID       uuid.UUID    `json:"report_id"`
	WebsiteID      uuid.UUID    `json:"website_id"`
	ReporterID     uuid.UUID    `json:"reporter_id"`
	ReasonCategory string       `json:"reason_category"`
	Detail         string       `json:"detail"`
	Status         ReportStatus `json:"status"`
	AdminNote      string       `json:"admin_note,omitempty"`
	ResolvedBy     *uuid.UUID   `json:"resolved_by,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}
