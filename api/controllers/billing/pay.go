package billing

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/homeward/settlement-backend/api/controllers/actorcontext"
	"github.com/homeward/settlement-backend/api/responses"
	"github.com/homeward/settlement-backend/api/validators"
	billingsvc "github.com/homeward/settlement-backend/internal/billing"
	pkgerrors "github.com/homeward/settlement-backend/pkg/errors"
	"github.com/homeward/settlement-backend/pkg/logger"
)

// InvoicePayer charges the owner's selected invoices in one attempt.
type InvoicePayer interface {
	PayDueInvoices(ctx context.Context, input billingsvc.PayDueInput) (*billingsvc.ChargeOutcome, error)
}

type payRequest struct {
	InvoiceIDs      []string `json:"invoice_ids" validate:"required,min=1,dive,uuid"`
	PaymentMethodID string   `json:"payment_method_id" validate:"required,uuid"`
}

type payResponse struct {
	InvoiceUUID uuid.UUID       `json:"invoice_uuid"`
	Amount      decimal.Decimal `json:"amount"`
	Failed      bool            `json:"failed"`
	Message     string          `json:"message,omitempty"`
}

// OwnerPayInvoices charges the selected invoices under one correlation uuid. A
// declined charge is a 402 carrying the gateway's message; the invoices are
// already back to sent_to_owner by then.
func OwnerPayInvoices(svc InvoicePayer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "billing service unavailable"))
			return
		}
		ownerID, err := actorcontext.ResolveOwnerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload payRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		outcome, err := svc.PayDueInvoices(r.Context(), billingsvc.PayDueInput{
			OwnerID:         ownerID,
			InvoiceIDs:      lo.Map(payload.InvoiceIDs, func(id string, _ int) uuid.UUID { return uuid.MustParse(id) }),
			PaymentMethodID: uuid.MustParse(payload.PaymentMethodID),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := http.StatusAccepted
		if outcome.Failed {
			status = http.StatusPaymentRequired
		}
		responses.WriteSuccessStatus(w, status, payResponse{
			InvoiceUUID: outcome.InvoiceUUID,
			Amount:      outcome.Amount,
			Failed:      outcome.Failed,
			Message:     outcome.Message,
		})
	}
}
