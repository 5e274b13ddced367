package webhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/homeward/settlement-backend/api/responses"
	"github.com/homeward/settlement-backend/api/validators"
	pkgerrors "github.com/homeward/settlement-backend/pkg/errors"
	"github.com/homeward/settlement-backend/pkg/logger"
)

const maxWebhookBodyBytes = 1 << 16

type StripeWebhookService interface {
	HandleEvent(ctx context.Context, event *stripe.Event) error
}

type stripeWebhookGuard interface {
	CheckAndMark(ctx context.Context, franchiseID uuid.UUID, eventID string) (bool, error)
	Release(ctx context.Context, franchiseID uuid.UUID, eventID string) error
}

// signingSecrets resolves the webhook secret of the account a franchise
// receives events on.
type signingSecrets interface {
	SigningSecret(ctx context.Context, franchiseID uuid.UUID) (string, error)
}

// StripeWebhook verifies and applies payment and setup intent events. Each
// franchise account posts to its own path so the right secret verifies it.
func StripeWebhook(svc StripeWebhookService, secrets signingSecrets, guard stripeWebhookGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil || secrets == nil || guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook handling unavailable"))
			return
		}

		franchiseID, err := validators.ParseUUIDParam(r, "franchiseId", "franchise id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if logg != nil {
			ctx = logg.WithFranchiseID(ctx, franchiseID.String())
		}

		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
			return
		}

		sigHeader := r.Header.Get("Stripe-Signature")
		if sigHeader == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "stripe signature missing"))
			return
		}

		secret, err := secrets.SigningSecret(ctx, franchiseID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve signing secret"))
			return
		}
		event, err := webhook.ConstructEventWithOptions(payload, sigHeader, secret, webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "verify signature"))
			return
		}

		alreadyProcessed, err := guard.CheckAndMark(ctx, franchiseID, event.ID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
			return
		}
		if alreadyProcessed {
			if logg != nil {
				logg.Info(logg.WithField(ctx, "gateway_event_id", event.ID), "duplicate gateway event acknowledged")
			}
			responses.WriteSuccess(w, nil)
			return
		}

		if err := svc.HandleEvent(ctx, &event); err != nil {
			if relErr := guard.Release(ctx, franchiseID, event.ID); relErr != nil && logg != nil {
				logg.Error(ctx, "release idempotency key", relErr)
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}
