package http

import (
	"errors"
	"net/http"

	"github.com/findinggems/settlement-service/internal/application"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (h *Handler) submitApplication(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeUnauthorizedError(r.Context(), w, "submit_application")
		return
	}
	var req application.SubmitApplicationInput
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "submit_application", err)
		return
	}
	app, err := h.service.SubmitCreatorApplication(r.Context(), actor, req)
	if err != nil {
		writeMappedError(r.Context(), w, "submit_application", err)
		return
	}
	writeSuccess(w, http.StatusCreated, app)
}

func (h *Handler) reviewApplication(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeUnauthorizedError(r.Context(), w, "review_application")
		return
	}
	applicationID, err := uuid.Parse(chi.URLParam(r, "application_id"))
	if err != nil {
		writeValidationError(r.Context(), w, "review_application", errors.New("invalid application_id"))
		return
	}
	var req application.ReviewApplicationInput
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "review_application", err)
		return
	}
	app, err := h.service.ReviewCreatorApplication(r.Context(), actor, applicationID, req)
	if err != nil {
		writeMappedError(r.Context(), w, "review_application", err)
		return
	}
	writeSuccess(w, http.StatusOK, app)
}

func (h *Handler) submitWebsite(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeUnauthorizedError(r.Context(), w, "submit_website")
		return
	}
	var req application.SubmitWebsiteInput
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "submit_website", err)
		return
	}
	website, err := h.service.SubmitWebsite(r.Context(), actor, req)
	if err != nil {
		writeMappedError(r.Context(), w, "submit_website", err)
		return
	}
	writeSuccess(w, http.StatusCreated, website)
}

func (h *Handler) moderateWebsite(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeUnauthorizedError(r.Context(), w, "moderate_website")
		return
	}
	websiteID, err := uuid.Parse(chi.URLParam(r, "website_id"))
	if err != nil {
		writeValidationError(r.Context(), w, "moderate_website", errors.New("invalid website_id"))
		return
	}
	var req application.ModerateWebsiteInput
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "moderate_website", err)
		return
	}
	website, err := h.service.ModerateWebsite(r.Context(), actor, websiteID, req)
	if err != nil {
		writeMappedError(r.Context(), w, "moderate_website", err)
		return
	}
	writeSuccess(w, http.StatusOK, website)
}

func (h *Handler) createReport(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeUnauthorizedError(r.Context(), w, "create_report")
		return
	}
	var req application.CreateReportInput
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "create_report", err)
		return
	}
	report, err := h.service.CreateReport(r.Context(), actor, req)
	if err != nil {
		writeMappedError(r.Context(), w, "create_report", err)
		return
	}
	writeSuccess(w, http.StatusCreated, report)
}

func (h *Handler) resolveReport(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeUnauthorizedError(r.Context(), w, "resolve_report")
		return
	}
	reportID, err := uuid.Parse(chi.URLParam(r, "report_id"))
	if err != nil {
		writeValidationError(r.Context(), w, "resolve_report", errors.New("invalid report_id"))
		return
	}
	var req application.ResolveReportInput
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "resolve_report", err)
		return
	}
	report, err := h.service.ResolveReport(r.Context(), actor, reportID, req)
	if err != nil {
		writeMappedError(r.Context(), w, "resolve_report", err)
		return
	}
	writeSuccess(w, http.StatusOK, report)
}
