package http

import (
	"errors"
	"net/http"

	"github.com/findinggems/settlement-service/internal/application"
	"github.com/findinggems/settlement-service/internal/domain"
	"github.com/findinggems/settlement-service/internal/ports"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (h *Handler) requestPayout(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeUnauthorizedError(r.Context(), w, "request_payout")
		return
	}
	var req application.RequestPayoutInput
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "request_payout", err)
		return
	}
	payout, err := h.service.RequestPayout(r.Context(), actor, req, idempotencyKey(r))
	if err != nil {
		writeMappedError(r.Context(), w, "request_payout", err)
		return
	}
	writeSuccess(w, http.StatusCreated, payout)
}

func (h *Handler) listPayouts(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeUnauthorizedError(r.Context(), w, "list_payouts")
		return
	}
	query := ports.PayoutQuery{
		Status: domain.PayoutStatus(r.URL.Query().Get("status")),
		Limit:  parseIntDefault(r.URL.Query().Get("limit"), 20),
		Offset: parseIntDefault(r.URL.Query().Get("offset"), 0),
	}
	out, err := h.service.ListPayouts(r.Context(), actor, query)
	if err != nil {
		writeMappedError(r.Context(), w, "list_payouts", err)
		return
	}
	writeSuccess(w, http.StatusOK, out)
}

func (h *Handler) getPayout(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeUnauthorizedError(r.Context(), w, "get_payout")
		return
	}
	payoutID, err := parsePayoutID(r)
	if err != nil {
		writeValidationError(r.Context(), w, "get_payout", err)
		return
	}
	payout, err := h.service.GetPayout(r.Context(), actor, payoutID)
	if err != nil {
		writeMappedError(r.Context(), w, "get_payout", err)
		return
	}
	writeSuccess(w, http.StatusOK, payout)
}

func (h *Handler) approvePayout(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeUnauthorizedError(r.Context(), w, "approve_payout")
		return
	}
	payoutID, err := parsePayoutID(r)
	if err != nil {
		writeValidationError(r.Context(), w, "approve_payout", err)
		return
	}
	payout, err := h.service.ApprovePayout(r.Context(), actor, payoutID)
	if err != nil {
		writeMappedError(r.Context(), w, "approve_payout", err)
		return
	}
	writeSuccess(w, http.StatusOK, payout)
}

func (h *Handler) completePayout(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeUnauthorizedError(r.Context(), w, "complete_payout")
		return
	}
	payoutID, err := parsePayoutID(r)
	if err != nil {
		writeValidationError(r.Context(), w, "complete_payout", err)
		return
	}
	payout, err := h.service.CompletePayout(r.Context(), actor, payoutID)
	if err != nil {
		writeMappedError(r.Context(), w, "complete_payout", err)
		return
	}
	writeSuccess(w, http.StatusOK, payout)
}

func (h *Handler) rejectPayout(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeUnauthorizedError(r.Context(), w, "reject_payout")
		return
	}
	payoutID, err := parsePayoutID(r)
	if err != nil {
		writeValidationError(r.Context(), w, "reject_payout", err)
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "reject_payout", err)
		return
	}
	payout, err := h.service.RejectPayout(r.Context(), actor, payoutID, req.Reason)
	if err != nil {
		writeMappedError(r.Context(), w, "reject_payout", err)
		return
	}
	writeSuccess(w, http.StatusOK, payout)
}

func (h *Handler) cancelPayout(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeUnauthorizedError(r.Context(), w, "cancel_payout")
		return
	}
	payoutID, err := parsePayoutID(r)
	if err != nil {
		writeValidationError(r.Context(), w, "cancel_payout", err)
		return
	}
	payout, err := h.service.CancelPayout(r.Context(), actor, payoutID)
	if err != nil {
		writeMappedError(r.Context(), w, "cancel_payout", err)
		return
	}
	writeSuccess(w, http.StatusOK, payout)
}

func parsePayoutID(r *http.Request) (uuid.UUID, error) {
	payoutID, err := uuid.Parse(chi.URLParam(r, "payout_id"))
	if err != nil {
		return uuid.Nil, errors.New("invalid payout_id")
	}
	return payoutID, nil
}
