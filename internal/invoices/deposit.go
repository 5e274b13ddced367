package invoices

import (
	"github.com/homeward/settlement-backend/pkg/enums"
)

// depositStrategy prices the upfront deposit of a deposit_required request.
type depositStrategy struct {
	*kit
}

func (depositStrategy) Name() string { return "deposit" }

func (d depositStrategy) Compute(s *session) (*outcome, error) {
	if len(s.input.LineItems) == 0 {
		return nil, ErrLineItemsRequired
	}
	if err := d.checkVendor(s); err != nil {
		return nil, err
	}
	inv, _, err := d.loadOrCreate(s)
	if err != nil {
		return nil, err
	}
	if err := guardRecompute(inv); err != nil {
		return nil, err
	}
	if inv.DepositPaid {
		return nil, ErrInvalidAction
	}
	previous := inv.Status

	admin, err := d.franchiseOwner(s)
	if err != nil {
		return nil, err
	}
	replaced, err := d.items.ReplaceStale(s.ctx, s.invoices, inv.ID, enums.ServiceRequestStatusDepositRequired)
	if err != nil {
		return nil, err
	}

	specs := specsFromInput(s.input.LineItems)
	total := sumSpecs(specs)
	inv.DepositAmount = total
	payer := s.input.Actor.principal()
	inv.DepositPayerID = &payer
	setTotals(inv, total, total)

	candidate := enums.InvoiceStatusSubmittedToAdmin
	if s.input.Actor.IsAdmin() {
		candidate = enums.InvoiceStatusSentToOwner
	}
	// deposits are collected per request; bundle holds apply to completion invoices
	if err := setStatus(inv, candidate, nil); err != nil {
		return nil, err
	}
	if err := d.touch(s, inv); err != nil {
		return nil, err
	}

	return &outcome{
		invoice:  inv,
		items:    d.items.Mirror(specs, d.owners(s, admin)),
		hasPrev:  replaced > 0,
		previous: previous,
	}, nil
}
