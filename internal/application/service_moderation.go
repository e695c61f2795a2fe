package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/findinggems/settlement-service/internal/domain"
	"github.com/findinggems/settlement-service/internal/ports"
	"github.com/google/uuid"
)

// SubmitCreatorApplication opens a pending application. Only one pending
// application per user may exist; re-application after a rejection creates a
// fresh record.
func (s *Service) SubmitCreatorApplication(ctx context.Context, actor Actor, input SubmitApplicationInput) (domain.CreatorApplication, error) {
	if err := s.requireAuthenticated(actor); err != nil {
		return domain.CreatorApplication{}, err
	}
	if err := domain.ValidateApplicationInput(input.Bio, input.Expertise); err != nil {
		return domain.CreatorApplication{}, err
	}
	app := domain.CreatorApplication{
		ApplicationID: uuid.New(),
		UserID:        actor.UserID,
		Status:        domain.ApplicationStatusPending,
		Bio:           strings.TrimSpace(input.Bio),
		Expertise:     strings.TrimSpace(input.Expertise),
		PortfolioURL:  strings.TrimSpace(input.PortfolioURL),
		CreatedAt:     s.nowFn(),
	}
	if err := s.applications.Create(ctx, app); err != nil {
		return domain.CreatorApplication{}, err
	}
	return app, nil
}

// ReviewCreatorApplication decides a pending application. Approval provisions
// the creator in one retryable transaction: role promotion, profile upsert,
// and a zeroed balance row, all keyed by the creator id. A second review of a
// terminal application fails with ErrConflict and provisions nothing twice.
func (s *Service) ReviewCreatorApplication(ctx context.Context, actor Actor, applicationID uuid.UUID, input ReviewApplicationInput) (domain.CreatorApplication, error) {
	if err := s.requireAdmin(actor); err != nil {
		return domain.CreatorApplication{}, err
	}
	app, err := s.applications.GetByID(ctx, applicationID)
	if err != nil {
		return domain.CreatorApplication{}, err
	}
	if app.Status.Terminal() {
		return domain.CreatorApplication{}, fmt.Errorf("%w: application already %s", domain.ErrConflict, app.Status)
	}

	now := s.nowFn()
	switch input.Decision {
	case "approve":
		event := s.newOutboxEvent(domain.EventCreatorApproved, app.UserID.String(), map[string]any{
			"application_id": app.ApplicationID.String(),
			"creator_id":     app.UserID.String(),
		}, now)
		return s.applications.ApproveTx(ctx, ports.ApproveApplicationParams{
			ApplicationID: applicationID,
			ReviewedBy:    actor.UserID,
			Now:           now,
			Event:         event,
		})
	case "reject":
		if strings.TrimSpace(input.RejectionReason) == "" {
			return domain.CreatorApplication{}, fmt.Errorf("%w: rejection reason required", domain.ErrInvalidInput)
		}
		return s.applications.Reject(ctx, applicationID, actor.UserID, strings.TrimSpace(input.RejectionReason), now)
	default:
		return domain.CreatorApplication{}, fmt.Errorf("%w: decision must be approve or reject", domain.ErrInvalidInput)
	}
}

// SubmitWebsite registers a listing awaiting moderation.
func (s *Service) SubmitWebsite(ctx context.Context, actor Actor, input SubmitWebsiteInput) (domain.Website, error) {
	if err := s.requireAuthenticated(actor); err != nil {
		return domain.Website{}, err
	}
	if actor.Role != domain.RoleCreator {
		return domain.Website{}, domain.ErrForbidden
	}
	if strings.TrimSpace(input.Name) == "" {
		return domain.Website{}, fmt.Errorf("%w: website name required", domain.ErrInvalidInput)
	}
	now := s.nowFn()
	website := domain.Website{
		WebsiteID: uuid.New(),
		CreatorID: actor.UserID,
		Name:      strings.TrimSpace(input.Name),
		Status:    domain.WebsiteStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.websites.Create(ctx, website); err != nil {
		return domain.Website{}, err
	}
	return website, nil
}

// ModerateWebsite drives the listing status machine. Suspension always
// requires a reason; edges outside the table are rejected.
func (s *Service) ModerateWebsite(ctx context.Context, actor Actor, websiteID uuid.UUID, input ModerateWebsiteInput) (domain.Website, error) {
	if err := s.requireAdmin(actor); err != nil {
		return domain.Website{}, err
	}
	var target domain.WebsiteStatus
	switch input.Decision {
	case "activate":
		target = domain.WebsiteStatusActive
	case "reject":
		target = domain.WebsiteStatusRejected
	case "suspend":
		target = domain.WebsiteStatusSuspended
	default:
		return domain.Website{}, fmt.Errorf("%w: decision must be activate, reject or suspend", domain.ErrInvalidInput)
	}
	if target == domain.WebsiteStatusSuspended && strings.TrimSpace(input.Reason) == "" {
		return domain.Website{}, fmt.Errorf("%w: suspension reason required", domain.ErrInvalidInput)
	}

	website, err := s.websites.GetByID(ctx, websiteID)
	if err != nil {
		return domain.Website{}, err
	}
	if !website.Status.CanTransitionTo(target) {
		if website.Status.Terminal() {
			return domain.Website{}, fmt.Errorf("%w: website already %s", domain.ErrConflict, website.Status)
		}
		return domain.Website{}, transitionErr(string(website.Status), string(target))
	}

	now := s.nowFn()
	event := s.newOutboxEvent(domain.EventWebsiteModerated, website.WebsiteID.String(), map[string]any{
		"website_id": website.WebsiteID.String(),
		"creator_id": website.CreatorID.String(),
		"status":     string(target),
		"reason":     strings.TrimSpace(input.Reason),
	}, now)
	return s.websites.UpdateStatus(ctx, websiteID, website.Status, target, strings.TrimSpace(input.Reason), now, event)
}

// CreateReport files a complaint against a listing.
func (s *Service) CreateReport(ctx context.Context, actor Actor, input CreateReportInput) (domain.Report, error) {
	if err := s.requireAuthenticated(actor); err != nil {
		return domain.Report{}, err
	}
	if strings.TrimSpace(input.ReasonCategory) == "" {
		return domain.Report{}, fmt.Errorf("%w: reason category required", domain.ErrInvalidInput)
	}
	if _, err := s.websites.GetByID(ctx, input.WebsiteID); err != nil {
		return domain.Report{}, err
	}
	report := domain.Report{
		ReportID:       uuid.New(),
		WebsiteID:      input.WebsiteID,
		ReporterID:     actor.UserID,
		ReasonCategory: strings.TrimSpace(input.ReasonCategory),
		Detail:         strings.TrimSpace(input.Detail),
		Status:         domain.ReportStatusPending,
		CreatedAt:      s.nowFn(),
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return domain.Report{}, err
	}
	return report, nil
}

// ResolveReport closes a pending report. Terminal reports reject re-review.
func (s *Service) ResolveReport(ctx context.Context, actor Actor, reportID uuid.UUID, input ResolveReportInput) (domain.Report, error) {
	if err := s.requireAdmin(actor); err != nil {
		return domain.Report{}, err
	}
	var target domain.ReportStatus
	switch input.Decision {
	case "resolve":
		target = domain.ReportStatusResolved
	case "dismiss":
		target = domain.ReportStatusDismissed
	default:
		return domain.Report{}, fmt.Errorf("%w: decision must be resolve or dismiss", domain.ErrInvalidInput)
	}
	report, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		return domain.Report{}, err
	}
	if report.Status.Terminal() {
		return domain.Report{}, fmt.Errorf("%w: report already %s", domain.ErrConflict, report.Status)
	}
	now := s.nowFn()
	event := s.newOutboxEvent(domain.EventReportResolved, report.WebsiteID.String(), map[string]any{
		"report_id":  report.ReportID.String(),
		"website_id": report.WebsiteID.String(),
		"status":     string(target),
	}, now)
	return s.reports.Resolve(ctx, reportID, target, strings.TrimSpace(input.AdminNote), actor.UserID, now, event)
}
