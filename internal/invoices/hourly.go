package invoices

import (
	"github.com/homeward/settlement-backend/pkg/db/models"
	"github.com/homeward/settlement-backend/pkg/enums"
)

// hourlyStrategy bills time and materials for standard-hourly and
// handyman-concierge service types.
type hourlyStrategy struct {
	*kit
}

func (hourlyStrategy) Name() string { return "hourly" }

func (h hourlyStrategy) Compute(s *session) (*outcome, error) {
	if len(s.input.LineItems) == 0 {
		if !s.input.Actor.IsAdmin() {
			return nil, ErrLineItemsRequired
		}
		return h.adopt(s)
	}
	return h.submit(s)
}

// adopt re-labels the in-progress items as franchise-owned and totals them.
// Hours and labor rates are left as submitted. Without in-progress items the
// admin confirms the already priced completion breakdown as it stands.
func (h hourlyStrategy) adopt(s *session) (*outcome, error) {
	inv, _, err := h.loadOrCreate(s)
	if err != nil {
		return nil, err
	}
	if err := guardRecompute(inv); err != nil {
		return nil, err
	}
	previous := inv.Status

	items, err := s.invoices.ListLineItemsByStatus(s.ctx, inv.ID, enums.ServiceRequestStatusInProgress)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return h.confirm(s, inv)
	}
	admin := s.input.Actor.principal()
	for i := range items {
		items[i].FranchiseAdminID = &admin
		if err := s.invoices.SaveLineItem(s.ctx, &items[i]); err != nil {
			return nil, err
		}
	}
	total := sumItems(items)
	setTotals(inv, total, total)
	if err := h.restamp(s, inv); err != nil {
		return nil, err
	}
	return &outcome{
		invoice:  inv,
		kept:     items,
		hasPrev:  true,
		previous: previous,
	}, nil
}

// confirm keeps the completion items and totals untouched.
func (h hourlyStrategy) confirm(s *session, inv *models.InvoiceMaster) (*outcome, error) {
	previous := inv.Status
	items, err := s.invoices.ListLineItemsByStatus(s.ctx, inv.ID, s.request().Status)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrLineItemsRequired
	}
	if err := h.restamp(s, inv); err != nil {
		return nil, err
	}
	return &outcome{
		invoice:  inv,
		kept:     items,
		hasPrev:  true,
		previous: previous,
	}, nil
}

// restamp applies the edit status for the actor and saves the invoice.
func (h hourlyStrategy) restamp(s *session, inv *models.InvoiceMaster) error {
	to, next := hourlyEditStatus(s.input.Actor, inv)
	if err := setStatus(inv, to, next); err != nil {
		return err
	}
	return h.touch(s, inv)
}

// submit replaces the provisional items with the final hourly breakdown.
func (h hourlyStrategy) submit(s *session) (*outcome, error) {
	if err := h.checkVendor(s); err != nil {
		return nil, err
	}
	inv, _, err := h.loadOrCreate(s)
	if err != nil {
		return nil, err
	}
	if err := guardRecompute(inv); err != nil {
		return nil, err
	}
	previous := inv.Status

	admin, err := h.franchiseOwner(s)
	if err != nil {
		return nil, err
	}
	removed, err := h.items.ReplaceStale(s.ctx, s.invoices, inv.ID, enums.ServiceRequestStatusInProgress)
	if err != nil {
		return nil, err
	}
	replaced, err := h.items.ReplaceStale(s.ctx, s.invoices, inv.ID, s.request().Status)
	if err != nil {
		return nil, err
	}

	specs := specsFromInput(s.input.LineItems)
	total := hourlyTotal(specs)
	setTotals(inv, total, total)

	if err := h.restamp(s, inv); err != nil {
		return nil, err
	}
	return &outcome{
		invoice:  inv,
		items:    h.items.Mirror(specs, h.owners(s, admin)),
		hasPrev:  removed+replaced > 0,
		previous: previous,
	}, nil
}

// hourlyEditStatus is where an edit leaves the invoice. Vendors hand it back to
// the admin. Admin edits keep an invoice that already left created where it is.
func hourlyEditStatus(actor Actor, inv *models.InvoiceMaster) (enums.InvoiceStatus, *enums.InvoiceStatus) {
	if actor.IsVendor() {
		return enums.InvoiceStatusSubmittedToAdmin, nil
	}
	switch inv.Status {
	case enums.InvoiceStatusSubmittedToAdmin,
		enums.InvoiceStatusSentToOwner,
		enums.InvoiceStatusPaidByOwnerFailed:
		return inv.Status, nil
	case enums.InvoiceStatusOnHold:
		return inv.Status, inv.NextStatus
	}
	return enums.InvoiceStatusCreated, nil
}
