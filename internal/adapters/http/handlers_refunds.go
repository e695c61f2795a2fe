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

func (h *Handler) requestRefund(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeUnauthorizedError(r.Context(), w, "request_refund")
		return
	}
	var req application.RequestRefundInput
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "request_refund", err)
		return
	}
	refund, err := h.service.RequestRefund(r.Context(), actor, req, idempotencyKey(r))
	if err != nil {
		writeMappedError(r.Context(), w, "request_refund", err)
		return
	}
	writeSuccess(w, http.StatusCreated, refund)
}

func (h *Handler) listRefunds(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeUnauthorizedError(r.Context(), w, "list_refunds")
		return
	}
	query := ports.RefundQuery{
		Status: domain.RefundStatus(r.URL.Query().Get("status")),
		Limit:  parseIntDefault(r.URL.Query().Get("limit"), 20),
		Offset: parseIntDefault(r.URL.Query().Get("offset"), 0),
	}
	out, err := h.service.ListRefunds(r.Context(), actor, query)
	if err != nil {
		writeMappedError(r.Context(), w, "list_refunds", err)
		return
	}
	writeSuccess(w, http.StatusOK, out)
}

func (h *Handler) getRefund(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeUnauthorizedError(r.Context(), w, "get_refund")
		return
	}
	refundID, err := parseRefundID(r)
	if err != nil {
		writeValidationError(r.Context(), w, "get_refund", err)
		return
	}
	refund, err := h.service.GetRefund(r.Context(), actor, refundID)
	if err != nil {
		writeMappedError(r.Context(), w, "get_refund", err)
		return
	}
	writeSuccess(w, http.StatusOK, refund)
}

func (h *Handler) cancelRefund(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeUnauthorizedError(r.Context(), w, "cancel_refund")
		return
	}
	refundID, err := parseRefundID(r)
	if err != nil {
		writeValidationError(r.Context(), w, "cancel_refund", err)
		return
	}
	refund, err := h.service.CancelRefund(r.Context(), actor, refundID)
	if err != nil {
		writeMappedError(r.Context(), w, "cancel_refund", err)
		return
	}
	writeSuccess(w, http.StatusOK, refund)
}

func (h *Handler) beginRefundReview(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeUnauthorizedError(r.Context(), w, "begin_refund_review")
		return
	}
	refundID, err := parseRefundID(r)
	if err != nil {
		writeValidationError(r.Context(), w, "begin_refund_review", err)
		return
	}
	refund, err := h.service.BeginReview(r.Context(), actor, refundID)
	if err != nil {
		writeMappedError(r.Context(), w, "begin_refund_review", err)
		return
	}
	writeSuccess(w, http.StatusOK, refund)
}

func (h *Handler) reviewRefund(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeUnauthorizedError(r.Context(), w, "review_refund")
		return
	}
	refundID, err := parseRefundID(r)
	if err != nil {
		writeValidationError(r.Context(), w, "review_refund", err)
		return
	}
	var req application.ReviewRefundInput
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "review_refund", err)
		return
	}
	out, err := h.service.ReviewRefund(r.Context(), actor, refundID, req)
	if err != nil {
		writeMappedError(r.Context(), w, "review_refund", err)
		return
	}
	writeSuccess(w, http.StatusOK, out)
}

func (h *Handler) markRefundProcessing(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeUnauthorizedError(r.Context(), w, "mark_refund_processing")
		return
	}
	refundID, err := parseRefundID(r)
	if err != nil {
		writeValidationError(r.Context(), w, "mark_refund_processing", err)
		return
	}
	refund, err := h.service.MarkRefundProcessing(r.Context(), actor, refundID)
	if err != nil {
		writeMappedError(r.Context(), w, "mark_refund_processing", err)
		return
	}
	writeSuccess(w, http.StatusOK, refund)
}

func (h *Handler) completeRefund(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeUnauthorizedError(r.Context(), w, "complete_refund")
		return
	}
	refundID, err := parseRefundID(r)
	if err != nil {
		writeValidationError(r.Context(), w, "complete_refund", err)
		return
	}
	refund, err := h.service.CompleteRefund(r.Context(), actor, refundID)
	if err != nil {
		writeMappedError(r.Context(), w, "complete_refund", err)
		return
	}
	writeSuccess(w, http.StatusOK, refund)
}

func parseRefundID(r *http.Request) (uuid.UUID, error) {
	refundID, err := uuid.Parse(chi.URLParam(r, "refund_id"))
	if err != nil {
		return uuid.Nil, errors.New("invalid refund_id")
	}
	return refundID, nil
}
