package invoices

import (
	"context"
	"net/http"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/homeward/settlement-backend/api/controllers/actorcontext"
	"github.com/homeward/settlement-backend/api/responses"
	"github.com/homeward/settlement-backend/api/validators"
	invoicesvc "github.com/homeward/settlement-backend/internal/invoices"
	"github.com/homeward/settlement-backend/pkg/db/models"
	"github.com/homeward/settlement-backend/pkg/enums"
	pkgerrors "github.com/homeward/settlement-backend/pkg/errors"
	"github.com/homeward/settlement-backend/pkg/logger"
)

const (
	maxTitleLen = 255
	maxNoteLen  = 2000
)

// Computer runs an actor's invoice computation for a service request.
type Computer interface {
	InitInvoice(ctx context.Context, input invoicesvc.InitInvoiceInput) (*invoicesvc.Result, error)
}

// StatusUpdater applies an admin's manual status change.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, input invoicesvc.UpdateStatusInput) (*models.InvoiceMaster, error)
}

type lineItemRequest struct {
	Title       string          `json:"title" validate:"required,max=255"`
	Description *string         `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price" validate:"money"`
	HoursWorked decimal.Decimal `json:"hours_worked" validate:"money"`
	Section     string          `json:"section" validate:"required,oneof=service material labor"`
}

type computeRequest struct {
	LineItems []lineItemRequest `json:"line_items" validate:"dive"`
	Note      *string           `json:"note,omitempty"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=submitted_to_admin sent_to_owner"`
}

// ComputeInvoice recomputes the service request's invoice from the submitted
// line items, using the strategy its current status selects.
func ComputeInvoice(svc Computer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoice service unavailable"))
			return
		}
		actor, err := actorcontext.ResolveActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		serviceRequestID, err := validators.ParseUUIDParam(r, "serviceRequestId", "service request id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload computeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items, err := toLineItems(payload.LineItems)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var note *string
		if payload.Note != nil {
			note = lo.ToPtr(validators.SanitizeString(*payload.Note, maxNoteLen))
		}

		result, err := svc.InitInvoice(r.Context(), invoicesvc.InitInvoiceInput{
			ServiceRequestID: serviceRequestID,
			LineItems:        items,
			Actor:            actor,
			Note:             note,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newComputeResponse(result))
	}
}

// UpdateInvoiceStatus lets a franchise admin push an invoice to review or to
// the owner.
func UpdateInvoiceStatus(svc StatusUpdater, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoice service unavailable"))
			return
		}
		actor, err := actorcontext.ResolveActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		invoiceID, err := validators.ParseUUIDParam(r, "invoiceId", "invoice id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload statusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseInvoiceStatus(payload.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		updated, err := svc.UpdateStatus(r.Context(), invoicesvc.UpdateStatusInput{
			InvoiceID: invoiceID,
			Status:    status,
			Actor:     actor,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newInvoiceResponse(updated))
	}
}

func toLineItems(in []lineItemRequest) ([]invoicesvc.LineItemInput, error) {
	out := make([]invoicesvc.LineItemInput, 0, len(in))
	for _, item := range in {
		section, err := enums.ParseLineItemSection(item.Section)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid line item section")
		}
		out = append(out, invoicesvc.LineItemInput{
			Title:       validators.SanitizeString(item.Title, maxTitleLen),
			Description: item.Description,
			Price:       item.Price,
			HoursWorked: item.HoursWorked,
			Section:     section,
		})
	}
	return out, nil
}
