package stripewebhook

import (
	"context"

	"github.com/stripe/stripe-go/v84"

	"github.com/homeward/settlement-backend/internal/notifications"
	"github.com/homeward/settlement-backend/pkg/db/models"
	"github.com/homeward/settlement-backend/pkg/enums"
	"github.com/homeward/settlement-backend/pkg/outbox"
	"github.com/homeward/settlement-backend/pkg/outbox/payloads"
)

// setupIntentStatus moves the payment method behind a setup intent to status.
func (s *Service) setupIntentStatus(status enums.PaymentMethodStatus) handler {
	return func(ctx context.Context, d *delivery) error {
		var intent stripe.SetupIntent
		if err := decodeObject(d.event, &intent); err != nil {
			return err
		}
		repo := s.billingRepo.WithTx(d.tx)
		method, err := repo.FindPaymentMethodBySetupIntent(ctx, intent.ID)
		if err != nil {
			return err
		}
		if method == nil {
			s.logg.Warn(s.logg.WithField(ctx, "setup_intent_id", intent.ID), "setup intent has no payment method")
			return nil
		}

		method.Status = status
		if status == enums.PaymentMethodStatusSucceeded && intent.PaymentMethod != nil && intent.PaymentMethod.ID != "" {
			pmID := intent.PaymentMethod.ID
			method.GatewayPaymentMethodID = &pmID
			s.describe(ctx, method)
		}
		if err := repo.UpdatePaymentMethod(ctx, method); err != nil {
			return err
		}

		switch status {
		case enums.PaymentMethodStatusSucceeded:
			if err := s.events.Emit(ctx, d.tx, outbox.DomainEvent{
				EventType:     enums.EventPaymentMethodVerified,
				AggregateType: enums.AggregatePaymentMethod,
				AggregateID:   method.ID,
				Data: payloads.PaymentMethodVerifiedEvent{
					PaymentMethodID: method.ID,
					OwnerID:         method.OwnerID,
					FranchiseID:     method.FranchiseID,
				},
			}); err != nil {
				return err
			}
			return s.notifyMethod(ctx, d, method, enums.NotificationPaymentMethodAdded, "", true)
		case enums.PaymentMethodStatusFailed:
			reason := ""
			if intent.LastSetupError != nil {
				reason = intent.LastSetupError.Msg
			}
			return s.notifyMethod(ctx, d, method, enums.NotificationPaymentMethodFailed, reason, false)
		}
		return nil
	}
}

// describe copies brand and last4 from the gateway. Lookup failures only cost
// the display fields.
func (s *Service) describe(ctx context.Context, method *models.PaymentMethod) {
	gateway, err := s.gateways.ForFranchise(ctx, method.FranchiseID)
	if err != nil {
		s.logg.Error(ctx, "resolve gateway for payment method details", err)
		return
	}
	details, err := gateway.RetrievePaymentMethod(ctx, *method.GatewayPaymentMethodID)
	if err != nil {
		s.logg.Error(ctx, "retrieve payment method details", err)
		return
	}
	method.Type = details.Type
	if details.Brand != "" {
		brand := details.Brand
		method.Brand = &brand
	}
	if details.Last4 != "" {
		last4 := details.Last4
		method.Last4 = &last4
	}
}

func (s *Service) notifyMethod(ctx context.Context, d *delivery, method *models.PaymentMethod, action enums.NotificationAction, reason string, includeAdmins bool) error {
	owner, err := s.users.FindUser(ctx, method.OwnerID)
	if err != nil {
		return err
	}
	recipients := notifications.RecipientsFor(owner)
	if includeAdmins {
		admins, err := s.users.ListFranchiseAdmins(ctx, method.FranchiseID)
		if err != nil {
			return err
		}
		for i := range admins {
			recipients = append(recipients, notifications.RecipientsFor(&admins[i])...)
		}
	}
	params := map[string]string{"payment_method_id": method.ID.String()}
	if method.Brand != nil {
		params["brand"] = *method.Brand
	}
	if method.Last4 != nil {
		params["last4"] = *method.Last4
	}
	if reason != "" {
		params["reason"] = reason
	}
	d.batch.Add(notifications.Notification{Action: action, Recipients: recipients, Params: params})
	return nil
}
