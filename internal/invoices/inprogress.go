package invoices

import (
	"github.com/google/uuid"

	"github.com/homeward/settlement-backend/pkg/enums"
)

// inProgressStrategy keeps a provisional vendor-side invoice while work runs.
type inProgressStrategy struct {
	*kit
}

func (inProgressStrategy) Name() string { return "in_progress" }

func (p inProgressStrategy) Compute(s *session) (*outcome, error) {
	sr := s.request()
	if sr.Status.IsCompleted() {
		return nil, ErrInvalidAction
	}
	if err := p.checkVendor(s); err != nil {
		return nil, err
	}
	inv, _, err := p.loadOrCreate(s)
	if err != nil {
		return nil, err
	}
	if err := guardRecompute(inv); err != nil {
		return nil, err
	}
	previous := inv.Status

	replaced, err := p.items.ReplaceStale(s.ctx, s.invoices, inv.ID, enums.ServiceRequestStatusInProgress)
	if err != nil {
		return nil, err
	}
	specs := specsFromInput(s.input.LineItems)
	total := sumSpecs(specs)
	setTotals(inv, total, total)
	if err := p.touch(s, inv); err != nil {
		return nil, err
	}

	return &outcome{
		invoice:  inv,
		items:    p.items.VendorOnly(specs, p.owners(s, uuid.Nil)),
		hasPrev:  replaced > 0,
		previous: previous,
	}, nil
}
