package http

import (
	"errors"
	"net/http"

	"github.com/findinggems/settlement-service/internal/application"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeUnauthorizedError(r.Context(), w, "create_order")
		return
	}
	var req application.CreateOrderInput
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "create_order", err)
		return
	}
	order, err := h.service.CreateOrder(r.Context(), actor, req)
	if err != nil {
		writeMappedError(r.Context(), w, "create_order", err)
		return
	}
	writeSuccess(w, http.StatusCreated, order)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeUnauthorizedError(r.Context(), w, "list_orders")
		return
	}
	limit := parseIntDefault(r.URL.Query().Get("limit"), 20)
	offset := parseIntDefault(r.URL.Query().Get("offset"), 0)
	out, err := h.service.ListOrders(r.Context(), actor, limit, offset)
	if err != nil {
		writeMappedError(r.Context(), w, "list_orders", err)
		return
	}
	writeSuccess(w, http.StatusOK, out)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeUnauthorizedError(r.Context(), w, "get_order")
		return
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "order_id"))
	if err != nil {
		writeValidationError(r.Context(), w, "get_order", errors.New("invalid order_id"))
		return
	}
	order, err := h.service.GetOrder(r.Context(), actor, orderID)
	if err != nil {
		writeMappedError(r.Context(), w, "get_order", err)
		return
	}
	writeSuccess(w, http.StatusOK, order)
}

func (h *Handler) initiatePayment(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeUnauthorizedError(r.Context(), w, "initiate_payment")
		return
	}
	orderID, err := uuid.Parse(chi.URLParam(r, "order_id"))
	if err != nil {
		writeValidationError(r.Context(), w, "initiate_payment", errors.New("invalid order_id"))
		return
	}
	var req application.InitiatePaymentInput
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "initiate_payment", err)
		return
	}
	req.OrderID = orderID
	instruction, err := h.service.InitiatePayment(r.Context(), actor, req)
	if err != nil {
		writeMappedError(r.Context(), w, "initiate_payment", err)
		return
	}
	writeSuccess(w, http.StatusOK, instruction)
}

func (h *Handler) confirmPayment(w http.ResponseWriter, r *http.Request) {
	if !h.verifyWebhookSecret(r) {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid webhook secret")
		return
	}
	var req application.ConfirmPaymentInput
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "confirm_payment", err)
		return
	}
	order, err := h.service.ConfirmPayment(r.Context(), req)
	if err != nil {
		writeMappedError(r.Context(), w, "confirm_payment", err)
		return
	}
	writeSuccess(w, http.StatusOK, order)
}
