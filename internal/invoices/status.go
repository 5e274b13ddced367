package invoices

import (
	"github.com/homeward/settlement-backend/pkg/db/models"
	"github.com/homeward/settlement-backend/pkg/enums"
	pkgerrors "github.com/homeward/settlement-backend/pkg/errors"
)

type statusSet map[enums.InvoiceStatus]struct{}

func setOf(statuses ...enums.InvoiceStatus) statusSet {
	out := make(statusSet, len(statuses))
	for _, s := range statuses {
		out[s] = struct{}{}
	}
	return out
}

var (
	preOwnerStatuses = []enums.InvoiceStatus{
		enums.InvoiceStatusCreated,
		enums.InvoiceStatusSubmittedToAdmin,
		enums.InvoiceStatusSentToOwner,
		enums.InvoiceStatusOnHold,
	}

	transitions = map[enums.InvoiceStatus]statusSet{
		enums.InvoiceStatusCreated:          setOf(preOwnerStatuses...),
		enums.InvoiceStatusSubmittedToAdmin: setOf(preOwnerStatuses...),
		enums.InvoiceStatusOnHold: setOf(
			enums.InvoiceStatusOnHold,
			enums.InvoiceStatusSubmittedToAdmin,
			enums.InvoiceStatusSentToOwner,
		),
		enums.InvoiceStatusSentToOwner: setOf(
			enums.InvoiceStatusSentToOwner,
			enums.InvoiceStatusSubmittedToAdmin,
			enums.InvoiceStatusOnHold,
			enums.InvoiceStatusPaidByOwnerProcessing,
			enums.InvoiceStatusPaidByOwnerFailed,
			enums.InvoiceStatusPaidByOwnerSuccess,
		),
		enums.InvoiceStatusPaidByOwnerProcessing: setOf(
			enums.InvoiceStatusPaidByOwnerProcessing,
			enums.InvoiceStatusSentToOwner,
			enums.InvoiceStatusPaidByOwnerFailed,
			enums.InvoiceStatusPaidByOwnerSuccess,
		),
		enums.InvoiceStatusPaidByOwnerFailed: setOf(
			enums.InvoiceStatusPaidByOwnerFailed,
			enums.InvoiceStatusSentToOwner,
			enums.InvoiceStatusPaidByOwnerProcessing,
			enums.InvoiceStatusPaidByOwnerSuccess,
		),
		enums.InvoiceStatusPaidByOwnerSuccess: setOf(enums.InvoiceStatusPaidByOwnerSuccess),
	}

	// a settled deposit leaves the invoice at success until completion is priced.
	depositSettledExits = setOf(preOwnerStatuses...)
)

// CanTransition reports whether inv may move to the target status.
func CanTransition(inv *models.InvoiceMaster, to enums.InvoiceStatus) bool {
	if inv == nil {
		return true
	}
	allowed, ok := transitions[inv.Status]
	if !ok {
		return false
	}
	if _, ok := allowed[to]; ok {
		return true
	}
	if inv.Status == enums.InvoiceStatusPaidByOwnerSuccess && inv.PaidAt == nil {
		_, ok := depositSettledExits[to]
		return ok
	}
	return false
}

// setStatus moves inv along the state machine. next is kept only for on_hold.
func setStatus(inv *models.InvoiceMaster, to enums.InvoiceStatus, next *enums.InvoiceStatus) error {
	if !CanTransition(inv, to) {
		return pkgerrors.Wrap(pkgerrors.CodeStateConflict, ErrInvalidAction,
			"invoice cannot move from "+inv.Status.String()+" to "+to.String())
	}
	inv.Status = to
	if to == enums.InvoiceStatusOnHold && next != nil {
		n := *next
		inv.NextStatus = &n
	} else {
		inv.NextStatus = nil
	}
	return nil
}

// guardRecompute rejects invoices a strategy must not touch.
func guardRecompute(inv *models.InvoiceMaster) error {
	if inv == nil {
		return nil
	}
	if inv.Status == enums.InvoiceStatusPaidByOwnerProcessing || inv.PaidAt != nil {
		return ErrInvalidAction
	}
	return nil
}

// effectiveStatus is the status an invoice will hold once released.
func effectiveStatus(inv *models.InvoiceMaster) enums.InvoiceStatus {
	if inv == nil {
		return ""
	}
	if inv.Status == enums.InvoiceStatusOnHold && inv.NextStatus != nil {
		return *inv.NextStatus
	}
	return inv.Status
}
