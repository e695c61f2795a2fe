package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/findinggems/settlement-service/internal/application"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (h *Handler) getBalance(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeUnauthorizedError(r.Context(), w, "get_balance")
		return
	}
	// Admins may inspect any creator via ?creator_id=; everyone else reads
	// their own row.
	creatorID := actor.UserID
	if raw := strings.TrimSpace(r.URL.Query().Get("creator_id")); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			writeValidationError(r.Context(), w, "get_balance", errors.New("invalid creator_id"))
			return
		}
		creatorID = parsed
	}
	balance, err := h.service.GetBalance(r.Context(), actor, creatorID)
	if err != nil {
		writeMappedError(r.Context(), w, "get_balance", err)
		return
	}
	writeSuccess(w, http.StatusOK, balance)
}

func (h *Handler) addBankAccount(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeUnauthorizedError(r.Context(), w, "add_bank_account")
		return
	}
	var req application.AddBankAccountInput
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(r.Context(), w, "add_bank_account", err)
		return
	}
	account, err := h.service.AddBankAccount(r.Context(), actor, req)
	if err != nil {
		writeMappedError(r.Context(), w, "add_bank_account", err)
		return
	}
	writeSuccess(w, http.StatusCreated, account)
}

func (h *Handler) listBankAccounts(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeUnauthorizedError(r.Context(), w, "list_bank_accounts")
		return
	}
	creatorID := actor.UserID
	if raw := strings.TrimSpace(r.URL.Query().Get("creator_id")); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			writeValidationError(r.Context(), w, "list_bank_accounts", errors.New("invalid creator_id"))
			return
		}
		creatorID = parsed
	}
	accounts, err := h.service.ListBankAccounts(r.Context(), actor, creatorID)
	if err != nil {
		writeMappedError(r.Context(), w, "list_bank_accounts", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"bank_accounts": accounts})
}

func (h *Handler) setPrimaryBankAccount(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromContext(r.Context())
	if !ok {
		writeUnauthorizedError(r.Context(), w, "set_primary_bank_account")
		return
	}
	bankAccountID, err := uuid.Parse(chi.URLParam(r, "bank_account_id"))
	if err != nil {
		writeValidationError(r.Context(), w, "set_primary_bank_account", errors.New("invalid bank_account_id"))
		return
	}
	if err := h.service.SetPrimaryBankAccount(r.Context(), actor, bankAccountID); err != nil {
		writeMappedError(r.Context(), w, "set_primary_bank_account", err)
		return
	}
	writeMessage(w, http.StatusOK, "Primary bank account updated")
}
