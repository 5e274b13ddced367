package billing

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/homeward/settlement-backend/api/controllers/actorcontext"
	"github.com/homeward/settlement-backend/api/responses"
	"github.com/homeward/settlement-backend/api/validators"
	"github.com/homeward/settlement-backend/internal/paymentmethods"
	"github.com/homeward/settlement-backend/pkg/db/models"
	"github.com/homeward/settlement-backend/pkg/enums"
	pkgerrors "github.com/homeward/settlement-backend/pkg/errors"
	"github.com/homeward/settlement-backend/pkg/logger"
)

type setupIntentRequest struct {
	FranchiseID string  `json:"franchise_id" validate:"required,uuid"`
	PropertyID  *string `json:"property_id,omitempty" validate:"omitempty,uuid"`
	PaymentType string  `json:"payment_type,omitempty" validate:"omitempty,oneof=card us_bank_account"`
	IsDefault   bool    `json:"is_default,omitempty"`
}

type paymentMethodResponse struct {
	ID          uuid.UUID                 `json:"id"`
	FranchiseID uuid.UUID                 `json:"franchise_id"`
	PropertyID  *uuid.UUID                `json:"property_id,omitempty"`
	Status      enums.PaymentMethodStatus `json:"status"`
	Type        enums.PaymentType         `json:"type"`
	Brand       *string                   `json:"brand,omitempty"`
	Last4       *string                   `json:"last4,omitempty"`
	IsDefault   bool                      `json:"is_default"`
	CreatedAt   time.Time                 `json:"created_at"`
}

type setupIntentResponse struct {
	PaymentMethod paymentMethodResponse `json:"payment_method"`
	ClientSecret  string                `json:"client_secret"`
}

func newPaymentMethodResponse(method models.PaymentMethod) paymentMethodResponse {
	return paymentMethodResponse{
		ID:          method.ID,
		FranchiseID: method.FranchiseID,
		PropertyID:  method.PropertyID,
		Status:      method.Status,
		Type:        method.Type,
		Brand:       method.Brand,
		Last4:       method.Last4,
		IsDefault:   method.IsDefault,
		CreatedAt:   method.CreatedAt.UTC(),
	}
}

// OwnerSetupIntentCreate opens a setup intent so the owner can save an
// instrument. The webhook reconciler verifies it later.
func OwnerSetupIntentCreate(svc paymentmethods.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment method service unavailable"))
			return
		}
		ownerID, err := actorcontext.ResolveOwnerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload setupIntentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := paymentmethods.SetupIntentInput{
			OwnerID:     ownerID,
			FranchiseID: uuid.MustParse(payload.FranchiseID),
			PaymentType: enums.PaymentType(payload.PaymentType),
			IsDefault:   payload.IsDefault,
		}
		if payload.PropertyID != nil {
			input.PropertyID = lo.ToPtr(uuid.MustParse(*payload.PropertyID))
		}

		out, err := svc.CreateSetupIntent(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, setupIntentResponse{
			PaymentMethod: newPaymentMethodResponse(*out.PaymentMethod),
			ClientSecret:  out.ClientSecret,
		})
	}
}

// OwnerPaymentMethodList returns the owner's saved instruments.
func OwnerPaymentMethodList(svc paymentmethods.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment method service unavailable"))
			return
		}
		ownerID, err := actorcontext.ResolveOwnerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		methods, err := svc.ListPaymentMethods(r.Context(), ownerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, lo.Map(methods, func(m models.PaymentMethod, _ int) paymentMethodResponse {
			return newPaymentMethodResponse(m)
		}))
	}
}

// OwnerPaymentMethodDelete detaches one of the owner's instruments.
func OwnerPaymentMethodDelete(svc paymentmethods.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment method service unavailable"))
			return
		}
		ownerID, err := actorcontext.ResolveOwnerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		methodID, err := validators.ParseUUIDParam(r, "paymentMethodId", "payment method id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DetachPaymentMethod(r.Context(), ownerID, methodID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
