package stripewebhook

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/datatypes"

	"github.com/homeward/settlement-backend/internal/billing"
	"github.com/homeward/settlement-backend/internal/notifications"
	"github.com/homeward/settlement-backend/pkg/db/models"
	"github.com/homeward/settlement-backend/pkg/enums"
	pkgerrors "github.com/homeward/settlement-backend/pkg/errors"
	"github.com/homeward/settlement-backend/pkg/outbox"
	"github.com/homeward/settlement-backend/pkg/outbox/payloads"
	gateway "github.com/homeward/settlement-backend/pkg/stripe"
)

type paymentOutcome int

const (
	outcomeProcessing paymentOutcome = iota
	outcomeFailed
	outcomeSucceeded
)

func (o paymentOutcome) invoiceStatus() enums.InvoiceStatus {
	switch o {
	case outcomeFailed:
		return enums.InvoiceStatusPaidByOwnerFailed
	case outcomeSucceeded:
		return enums.InvoiceStatusPaidByOwnerSuccess
	default:
		return enums.InvoiceStatusPaidByOwnerProcessing
	}
}

func (o paymentOutcome) paymentStatus() enums.PaymentStatus {
	switch o {
	case outcomeFailed:
		return enums.PaymentStatusFailed
	case outcomeSucceeded:
		return enums.PaymentStatusPaid
	default:
		return enums.PaymentStatusProcessing
	}
}

func (o paymentOutcome) membershipStatus() enums.MembershipTransactionStatus {
	switch o {
	case outcomeFailed:
		return enums.MembershipTransactionFailed
	case outcomeSucceeded:
		return enums.MembershipTransactionSuccess
	default:
		return enums.MembershipTransactionProcessing
	}
}

// paymentIntent is the metadata-resolved view of one payment intent event.
type paymentIntent struct {
	intent      *stripe.PaymentIntent
	invoiceUUID uuid.UUID
	purpose     enums.PaymentPurpose
	message     string
}

// paymentIntentStatus applies a payment intent outcome to every invoice, or
// the membership transaction, that shares the intent's correlation uuid.
func (s *Service) paymentIntentStatus(o paymentOutcome) handler {
	return func(ctx context.Context, d *delivery) error {
		var intent stripe.PaymentIntent
		if err := decodeObject(d.event, &intent); err != nil {
			return err
		}
		ctx = s.logg.WithField(ctx, "payment_intent_id", intent.ID)

		raw := intent.Metadata[gateway.MetadataInvoiceUUID]
		invoiceUUID, err := uuid.Parse(raw)
		if err != nil {
			s.logg.Error(ctx, "payment intent missing invoice uuid",
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse invoice_uuid metadata"))
			return nil
		}
		ctx = s.logg.WithInvoiceUUID(ctx, invoiceUUID.String())

		pi := paymentIntent{
			intent:      &intent,
			invoiceUUID: invoiceUUID,
			purpose:     enums.PaymentPurpose(intent.Metadata[gateway.MetadataPurpose]),
		}
		if intent.LastPaymentError != nil {
			pi.message = intent.LastPaymentError.Msg
		}
		if pi.purpose == enums.PaymentPurposeMembership {
			return s.settleMembership(ctx, d, o, pi)
		}
		return s.settleInvoices(ctx, d, o, pi)
	}
}

func (s *Service) settleInvoices(ctx context.Context, d *delivery, o paymentOutcome, pi paymentIntent) error {
	repo := s.billingRepo.WithTx(d.tx)
	invoices, err := repo.ListInvoicesByCorrelation(ctx, pi.invoiceUUID)
	if err != nil {
		return err
	}
	if len(invoices) == 0 {
		s.logg.Warn(ctx, "payment intent matches no invoices")
		return nil
	}

	now := s.now().UTC()
	paymentType := gateway.PaymentTypeFromIntent(pi.intent)
	for i := range invoices {
		inv := &invoices[i]
		amount := inv.FranchiseRemainingBalance
		if inv.Status == enums.InvoiceStatusPaidByOwnerSuccess {
			s.logg.Info(s.logg.WithField(ctx, "invoice_id", inv.ID.String()), "invoice already paid, outcome ignored")
		} else {
			deposit := o == outcomeSucceeded && (pi.purpose == enums.PaymentPurposeDeposit || billing.PurposeFor(inv) == enums.PaymentPurposeDeposit)
			if deposit {
				amount = inv.DepositAmount
			}
			if err := s.applyInvoiceOutcome(ctx, d, repo, inv, o, pi, deposit, paymentType, now); err != nil {
				return err
			}
		}
		invoiceID := inv.ID
		if err := repo.AppendPaymentLog(ctx, &models.PaymentLog{
			InvoiceUUID:     pi.invoiceUUID,
			InvoiceMasterID: &invoiceID,
			GatewayEventID:  d.event.ID,
			EventType:       string(d.event.Type),
			GatewayObjectID: pi.intent.ID,
			Status:          string(o.invoiceStatus()),
			Amount:          amount,
			Payload:         datatypes.JSON(d.event.Data.Raw),
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) applyInvoiceOutcome(
	ctx context.Context,
	d *delivery,
	repo billing.Repository,
	inv *models.InvoiceMaster,
	o paymentOutcome,
	pi paymentIntent,
	deposit bool,
	paymentType enums.PaymentType,
	now time.Time,
) error {
	details, err := repo.FindOwnerPaymentDetails(ctx, inv.ID)
	if err != nil {
		return err
	}
	if details == nil {
		details = &models.OwnerPaymentDetails{InvoiceMasterID: inv.ID}
	}
	details.OwnerID = inv.OwnerID
	details.PaymentStatus = o.paymentStatus()

	inv.Status = o.invoiceStatus()
	inv.NextStatus = nil
	paid := decimal.Zero
	switch {
	case o == outcomeSucceeded && deposit:
		paid = inv.DepositAmount
		inv.DepositPaid = true
		inv.DepositPaidAt = &now
		inv.ApplyDepositOffset()
		inv.PaidAt = nil
	case o == outcomeSucceeded:
		paid = inv.FranchiseRemainingBalance
		inv.PaidAt = &now
		inv.FranchiseRemainingBalance = decimal.Zero
	}
	if o == outcomeSucceeded {
		details.AmountPaid = details.AmountPaid.Add(paid)
		details.PaidAt = &now
		details.PaymentType = &paymentType
	}
	if err := repo.SaveInvoice(ctx, inv); err != nil {
		return err
	}
	if err := repo.UpsertOwnerPaymentDetails(ctx, details); err != nil {
		return err
	}

	switch o {
	case outcomeSucceeded:
		return s.reportInvoicePayment(ctx, d, inv, pi, enums.EventInvoicePaid, enums.NotificationInvoicePaymentSucceeded, paid)
	case outcomeFailed:
		return s.reportInvoicePayment(ctx, d, inv, pi, enums.EventInvoicePaymentFailed, enums.NotificationInvoicePaymentFailed, inv.FranchiseRemainingBalance)
	}
	return nil
}

func (s *Service) reportInvoicePayment(
	ctx context.Context,
	d *delivery,
	inv *models.InvoiceMaster,
	pi paymentIntent,
	eventType enums.OutboxEventType,
	action enums.NotificationAction,
	amount decimal.Decimal,
) error {
	if err := s.events.Emit(ctx, d.tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateInvoice,
		AggregateID:   inv.ID,
		Data: payloads.InvoicePaymentEvent{
			InvoiceID:   inv.ID,
			InvoiceUUID: pi.invoiceUUID,
			OwnerID:     inv.OwnerID,
			Amount:      amount,
			Message:     pi.message,
		},
	}); err != nil {
		return err
	}
	owner, err := s.users.FindUser(ctx, inv.OwnerID)
	if err != nil {
		return err
	}
	params := map[string]string{
		"invoice_id": inv.ID.String(),
		"amount":     amount.StringFixed(2),
	}
	if pi.message != "" {
		params["reason"] = pi.message
	}
	d.batch.Add(notifications.Notification{Action: action, Recipients: notifications.RecipientsFor(owner), Params: params})
	return nil
}

func (s *Service) settleMembership(ctx context.Context, d *delivery, o paymentOutcome, pi paymentIntent) error {
	var nextDue *time.Time
	if raw := pi.intent.Metadata[gateway.MetadataNextDueDate]; raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "next_due_date", raw), "unparseable next due date, using period end")
		} else {
			nextDue = &parsed
		}
	}

	txn, applied, err := s.memberships.SettlePayment(ctx, d.tx, pi.invoiceUUID, o.membershipStatus(), nextDue, pi.message)
	if err != nil {
		return err
	}
	if txn == nil {
		s.logg.Warn(ctx, "payment intent matches no membership transaction")
		return nil
	}

	txnID := txn.ID
	if err := s.billingRepo.WithTx(d.tx).AppendPaymentLog(ctx, &models.PaymentLog{
		InvoiceUUID:             pi.invoiceUUID,
		MembershipTransactionID: &txnID,
		GatewayEventID:          d.event.ID,
		EventType:               string(d.event.Type),
		GatewayObjectID:         pi.intent.ID,
		Status:                  string(txn.Status),
		Amount:                  gateway.FromMinorUnits(pi.intent.Amount),
		Payload:                 datatypes.JSON(d.event.Data.Raw),
	}); err != nil {
		return err
	}
	// a replayed success must not be reported twice
	if !applied || o == outcomeProcessing || txn.Status != o.membershipStatus() {
		return nil
	}

	if err := s.events.Emit(ctx, d.tx, outbox.DomainEvent{
		EventType:     enums.EventMembershipPaymentSettled,
		AggregateType: enums.AggregateMembershipTransaction,
		AggregateID:   txn.ID,
		Data: payloads.MembershipPaymentSettledEvent{
			TransactionID: txn.ID,
			TierID:        txn.MembershipTierID,
			Status:        txn.Status,
		},
	}); err != nil {
		return err
	}

	tier, err := s.memberships.Tier(ctx, d.tx, txn.MembershipTierID)
	if err != nil || tier == nil {
		return err
	}
	owner, err := s.users.FindUser(ctx, tier.OwnerID)
	if err != nil {
		return err
	}
	action := enums.NotificationMembershipPaymentSucceeded
	if txn.Status == enums.MembershipTransactionFailed {
		action = enums.NotificationMembershipPaymentFailed
	}
	params := map[string]string{
		"tier":   tier.Tier.String(),
		"amount": txn.Amount.StringFixed(2),
	}
	if tier.NextDueDate != nil {
		params["next_due_date"] = tier.NextDueDate.UTC().Format(time.RFC3339)
	}
	d.batch.Add(notifications.Notification{Action: action, Recipients: notifications.RecipientsFor(owner), Params: params})
	return nil
}
