package invoices

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/homeward/settlement-backend/internal/billing"
	"github.com/homeward/settlement-backend/pkg/db/models"
	"github.com/homeward/settlement-backend/pkg/enums"
)

// Actor is the user whose action triggered a computation. DelegatedBy carries
// the principal a standard admin is acting for.
type Actor struct {
	UserID      uuid.UUID
	Role        enums.ActorRole
	DelegatedBy *uuid.UUID
}

func (a Actor) IsAdmin() bool {
	return a.Role.IsAdmin()
}

func (a Actor) IsVendor() bool {
	return a.Role == enums.ActorRoleVendor
}

// principal is who a delegated standard admin acts on behalf of.
func (a Actor) principal() uuid.UUID {
	if a.Role == enums.ActorRoleStandardAdmin && a.DelegatedBy != nil && *a.DelegatedBy != uuid.Nil {
		return *a.DelegatedBy
	}
	return a.UserID
}

// LineItemInput is one submitted charge.
type LineItemInput struct {
	Title       string
	Description *string
	Price       decimal.Decimal
	HoursWorked decimal.Decimal
	Section     enums.LineItemSection
}

// Input drives one invoice computation.
type Input struct {
	ServiceRequest *models.ServiceRequest
	LineItems      []LineItemInput
	Actor          Actor
	Note           *string
}

func (in Input) hasNote() bool {
	return in.Note != nil && *in.Note != ""
}

// Result is what a computation persisted.
type Result struct {
	Invoice          *models.InvoiceMaster
	LineItems        []models.InvoiceLineItem
	HasPrevLineItems bool
	Strategy         string
	AutoCharge       *billing.ChargeOutcome
	// ReleasedCharges are auto-charges for bundle members released with this invoice.
	ReleasedCharges []billing.ChargeOutcome
}
