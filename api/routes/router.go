package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/homeward/settlement-backend/api/controllers"
	billingcontrollers "github.com/homeward/settlement-backend/api/controllers/billing"
	invoicecontrollers "github.com/homeward/settlement-backend/api/controllers/invoices"
	webhookcontrollers "github.com/homeward/settlement-backend/api/controllers/webhooks"
	"github.com/homeward/settlement-backend/api/middleware"
	"github.com/homeward/settlement-backend/internal/paymentmethods"
	"github.com/homeward/settlement-backend/pkg/config"
	"github.com/homeward/settlement-backend/pkg/enums"
	"github.com/homeward/settlement-backend/pkg/logger"
	pkgredis "github.com/homeward/settlement-backend/pkg/redis"
)

// Deps carries the services the HTTP surface dispatches to.
type Deps struct {
	Readiness      []controllers.Dependency
	Idempotency    pkgredis.IdempotencyStore
	Invoices       invoiceService
	Payer          billingcontrollers.InvoicePayer
	PaymentMethods paymentmethods.Service
	Webhooks       webhookcontrollers.StripeWebhookService
	WebhookSecrets webhookSecrets
	WebhookGuard   webhookGuard
	// Metrics is served on /metrics when set.
	Metrics http.Handler
}

type webhookSecrets interface {
	SigningSecret(ctx context.Context, franchiseID uuid.UUID) (string, error)
}

type webhookGuard interface {
	CheckAndMark(ctx context.Context, franchiseID uuid.UUID, eventID string) (bool, error)
	Release(ctx context.Context, franchiseID uuid.UUID, eventID string) error
}

type invoiceService interface {
	invoicecontrollers.Computer
	invoicecontrollers.StatusUpdater
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Readiness...))
	})
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics)
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe/{franchiseId}", webhookcontrollers.StripeWebhook(deps.Webhooks, deps.WebhookSecrets, deps.WebhookGuard, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(deps.Idempotency, logg))

		r.With(middleware.RequireRole(logg, enums.ActorRoleVendor, enums.ActorRoleFranchiseAdmin, enums.ActorRoleStandardAdmin)).
			Post("/service-requests/{serviceRequestId}/invoice", invoicecontrollers.ComputeInvoice(deps.Invoices, logg))
		r.With(middleware.RequireRole(logg, enums.ActorRoleFranchiseAdmin, enums.ActorRoleStandardAdmin)).
			Patch("/invoices/{invoiceId}/status", invoicecontrollers.UpdateInvoiceStatus(deps.Invoices, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.ActorRoleOwner))
			r.Post("/invoices/pay", billingcontrollers.OwnerPayInvoices(deps.Payer, logg))
			r.Route("/payment-methods", func(r chi.Router) {
				r.Get("/", billingcontrollers.OwnerPaymentMethodList(deps.PaymentMethods, logg))
				r.Post("/setup-intents", billingcontrollers.OwnerSetupIntentCreate(deps.PaymentMethods, logg))
				r.Delete("/{paymentMethodId}", billingcontrollers.OwnerPaymentMethodDelete(deps.PaymentMethods, logg))
			})
		})
	})

	return r
}

// MetricsHandler exposes the default prometheus registry.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
