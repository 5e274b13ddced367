package invoices

import (
	"github.com/google/uuid"

	"github.com/homeward/settlement-backend/internal/notifications"
	"github.com/homeward/settlement-backend/pkg/db/models"
	"github.com/homeward/settlement-backend/pkg/enums"
	"github.com/homeward/settlement-backend/pkg/outbox"
	"github.com/homeward/settlement-backend/pkg/outbox/payloads"
)

// ownerFacing applies the side effects of an invoice reaching the owner.
type ownerFacing struct {
	events eventEmitter
}

// markSentToOwner stamps the invoice, opens an unpaid owner payment row, emits
// one sent-to-owner push per invoice and queues the owner notification.
func (o ownerFacing) markSentToOwner(s *session, inv *models.InvoiceMaster) error {
	now := s.now
	inv.SentToOwnerAt = &now
	if err := s.invoices.Save(s.ctx, inv); err != nil {
		return err
	}
	if err := s.invoices.UpsertOwnerPaymentDetails(s.ctx, &models.OwnerPaymentDetails{
		InvoiceMasterID: inv.ID,
		OwnerID:         inv.OwnerID,
		PaymentStatus:   enums.PaymentStatusUnpaid,
	}); err != nil {
		return err
	}
	if inv.VendorID != nil {
		if err := s.invoices.UpsertVendorPaymentDetails(s.ctx, &models.VendorPaymentDetails{
			InvoiceMasterID: inv.ID,
			VendorID:        *inv.VendorID,
			PaymentStatus:   enums.PaymentStatusUnpaid,
		}); err != nil {
			return err
		}
	}

	emitted, err := o.events.EmitIfNotExists(s.ctx, s.tx, outbox.DomainEvent{
		EventType:     enums.EventInvoiceSentToOwner,
		AggregateType: enums.AggregateInvoice,
		AggregateID:   inv.ID,
		Actor:         actorRef(s.input.Actor),
		Data: payloads.InvoiceSentToOwnerEvent{
			InvoiceID:        inv.ID,
			ServiceRequestID: inv.ServiceRequestID,
			OwnerID:          inv.OwnerID,
			FranchiseID:      inv.FranchiseID,
			Amount:           inv.FranchiseRemainingBalance,
		},
	})
	if err != nil {
		return err
	}
	if !emitted {
		return nil
	}

	owner, err := s.requests.FindUser(s.ctx, inv.OwnerID)
	if err != nil {
		return err
	}
	s.batch.Add(notifications.Notification{
		Action:     enums.NotificationInvoiceSentToOwner,
		Recipients: notifications.RecipientsFor(owner),
		Params: map[string]string{
			"invoice_id": inv.ID.String(),
			"amount":     inv.FranchiseRemainingBalance.StringFixed(2),
		},
	})
	return nil
}

func actorRef(a Actor) *outbox.ActorRef {
	if a.UserID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{UserID: a.UserID, Role: a.Role.String(), DelegatedBy: a.DelegatedBy}
}
