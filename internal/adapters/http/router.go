package http

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/findinggems/settlement-service/internal/application"
	"github.com/findinggems/settlement-service/internal/domain"
	"github.com/findinggems/settlement-service/internal/ports"
	"github.com/go-chi/chi/v5"
)

// Handler is the HTTP adapter entrypoint for settlement use-cases.
// Keeping only application dependencies here preserves clean adapter boundaries.
type Handler struct {
	service       *application.Service
	verifier      ports.TokenVerifier
	webhookSecret string
}

// NewHandler constructs an HTTP handler bound to the application service.
func NewHandler(service *application.Service, verifier ports.TokenVerifier, webhookSecret string) *Handler {
	return &Handler{service: service, verifier: verifier, webhookSecret: webhookSecret}
}

// NewRouter registers settlement HTTP routes and the middleware stack.
// Centralizing routes here ensures consistent auth and error behavior across endpoints.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)

	r.Route("/settlement/v1", func(r chi.Router) {
		// Provider callback authenticates with the shared webhook secret, not a
		// user token.
		r.Post("/payments/confirm", handler.confirmPayment)

		r.Group(func(r chi.Router) {
			r.Use(handler.authMiddleware)

			r.Post("/orders", handler.createOrder)
			r.Get("/orders", handler.listOrders)
			r.Get("/orders/{order_id}", handler.getOrder)
			r.Post("/orders/{order_id}/payment", handler.initiatePayment)

			r.Post("/refunds", handler.requestRefund)
			r.Get("/refunds", handler.listRefunds)
			r.Get("/refunds/{refund_id}", handler.getRefund)
			r.Post("/refunds/{refund_id}/cancel", handler.cancelRefund)
			r.Post("/refunds/{refund_id}/review/begin", handler.beginRefundReview)
			r.Post("/refunds/{refund_id}/review", handler.reviewRefund)
			r.Post("/refunds/{refund_id}/processing", handler.markRefundProcessing)
			r.Post("/refunds/{refund_id}/complete", handler.completeRefund)

			r.Get("/balance", handler.getBalance)

			r.Post("/payouts", handler.requestPayout)
			r.Get("/payouts", handler.listPayouts)
			r.Get("/payouts/{payout_id}", handler.getPayout)
			r.Post("/payouts/{payout_id}/approve", handler.approvePayout)
			r.Post("/payouts/{payout_id}/complete", handler.completePayout)
			r.Post("/payouts/{payout_id}/reject", handler.rejectPayout)
			r.Post("/payouts/{payout_id}/cancel", handler.cancelPayout)

			r.Post("/bank-accounts", handler.addBankAccount)
			r.Get("/bank-accounts", handler.listBankAccounts)
			r.Post("/bank-accounts/{bank_account_id}/primary", handler.setPrimaryBankAccount)

			r.Post("/applications", handler.submitApplication)
			r.Post("/applications/{application_id}/review", handler.reviewApplication)
			r.Post("/websites", handler.submitWebsite)
			r.Post("/websites/{website_id}/moderate", handler.moderateWebsite)
			r.Post("/reports", handler.createReport)
			r.Post("/reports/{report_id}/resolve", handler.resolveReport)
		})
	})

	return r
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ok")
}

func (h *Handler) readyz(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ready")
}

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := bearerTokenFromHeader(r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
			return
		}

		claims, err := h.verifier.Verify(raw)
		if err != nil {
			status, code, msg := mapDomainError(err)
			writeError(w, status, code, msg)
			return
		}

		actor := application.Actor{UserID: claims.UserID, Role: domain.Role(claims.Role)}
		ctx := context.WithValue(r.Context(), ctxKeyActor, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) verifyWebhookSecret(r *http.Request) bool {
	provided := r.Header.Get("X-Webhook-Secret")
	if h.webhookSecret == "" || provided == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(h.webhookSecret)) == 1
}
