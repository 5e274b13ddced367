package invoices

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/homeward/settlement-backend/pkg/db/models"
	"github.com/homeward/settlement-backend/pkg/enums"
	"github.com/homeward/settlement-backend/pkg/outbox"
	"github.com/homeward/settlement-backend/pkg/outbox/payloads"
)

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) (bool, error)
}

// HoldResolver keeps bundled invoices away from the owner until every child of
// the bundle is complete and owner-facing.
type HoldResolver struct {
	events eventEmitter
	owner  ownerFacing
}

func newHoldResolver(events eventEmitter) *HoldResolver {
	return &HoldResolver{events: events, owner: ownerFacing{events: events}}
}

// Resolve returns the status the current invoice may take. It returns on_hold
// when the bundle is not ready, holding members that already reached the owner;
// when ready it releases every held member other than current.
func (h *HoldResolver) Resolve(s *session, current *models.InvoiceMaster, candidate enums.InvoiceStatus) (enums.InvoiceStatus, error) {
	if !candidate.IsOwnerFacing() {
		return candidate, nil
	}
	sr := s.request()
	parentID := bundleParent(sr)
	if parentID == uuid.Nil {
		return candidate, nil
	}

	children, err := s.requests.ListChildren(s.ctx, parentID)
	if err != nil {
		return "", err
	}
	if len(children) == 0 {
		return candidate, nil
	}

	memberIDs := make([]uuid.UUID, 0, len(children)+1)
	memberIDs = append(memberIDs, parentID)
	for _, child := range children {
		memberIDs = append(memberIDs, child.ID)
	}
	rows, err := s.invoices.ListByServiceRequestIDs(s.ctx, memberIDs)
	if err != nil {
		return "", err
	}
	byRequest := make(map[uuid.UUID]*models.InvoiceMaster, len(rows))
	for i := range rows {
		byRequest[rows[i].ServiceRequestID] = &rows[i]
	}

	ready := true
	for _, child := range children {
		status := child.Status
		effective := effectiveStatus(byRequest[child.ID])
		if child.ID == sr.ID {
			status = sr.Status
			effective = candidate
		}
		if !status.IsCompleted() || !effective.IsOwnerFacing() {
			ready = false
			break
		}
	}

	for _, id := range memberIDs {
		member := byRequest[id]
		if member == nil || id == sr.ID || (current != nil && member.ID == current.ID) {
			continue
		}
		if ready {
			if err := h.release(s, member); err != nil {
				return "", err
			}
			continue
		}
		if err := h.hold(s, member); err != nil {
			return "", err
		}
	}

	if !ready {
		return enums.InvoiceStatusOnHold, nil
	}
	return candidate, nil
}

func (h *HoldResolver) hold(s *session, member *models.InvoiceMaster) error {
	if member.Status != enums.InvoiceStatusSentToOwner {
		return nil
	}
	next := member.Status
	if err := setStatus(member, enums.InvoiceStatusOnHold, &next); err != nil {
		return err
	}
	if err := s.invoices.Save(s.ctx, member); err != nil {
		return err
	}
	return h.events.Emit(s.ctx, s.tx, statusChanged(member, next, enums.InvoiceStatusOnHold))
}

func (h *HoldResolver) release(s *session, member *models.InvoiceMaster) error {
	if member.Status != enums.InvoiceStatusOnHold || member.NextStatus == nil {
		return nil
	}
	next := *member.NextStatus
	if err := setStatus(member, next, nil); err != nil {
		return err
	}
	if err := s.invoices.Save(s.ctx, member); err != nil {
		return err
	}
	if next == enums.InvoiceStatusSentToOwner {
		s.released = append(s.released, member)
		return h.owner.markSentToOwner(s, member)
	}
	_, err := h.events.EmitIfNotExists(s.ctx, s.tx, statusChanged(member, enums.InvoiceStatusOnHold, next))
	return err
}

func bundleParent(sr *models.ServiceRequest) uuid.UUID {
	switch {
	case sr == nil:
		return uuid.Nil
	case sr.IsParent:
		return sr.ID
	case sr.ParentID != nil:
		return *sr.ParentID
	default:
		return uuid.Nil
	}
}

func statusChanged(inv *models.InvoiceMaster, from, to enums.InvoiceStatus) outbox.DomainEvent {
	return outbox.DomainEvent{
		EventType:     enums.EventInvoiceStatusChanged,
		AggregateType: enums.AggregateInvoice,
		AggregateID:   inv.ID,
		Data: payloads.InvoiceStatusChangedEvent{
			InvoiceID:        inv.ID,
			ServiceRequestID: inv.ServiceRequestID,
			From:             from,
			To:               to,
		},
	}
}
