package stripewebhook

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/homeward/settlement-backend/internal/billing"
	"github.com/homeward/settlement-backend/internal/notifications"
	"github.com/homeward/settlement-backend/pkg/db/models"
	"github.com/homeward/settlement-backend/pkg/enums"
	pkgerrors "github.com/homeward/settlement-backend/pkg/errors"
	"github.com/homeward/settlement-backend/pkg/logger"
	"github.com/homeward/settlement-backend/pkg/metrics"
	"github.com/homeward/settlement-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type membershipSettler interface {
	SettlePayment(ctx context.Context, tx *gorm.DB, invoiceUUID uuid.UUID, status enums.MembershipTransactionStatus, nextDue *time.Time, message string) (*models.MembershipTransaction, bool, error)
	Tier(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.MembershipTier, error)
}

type userDirectory interface {
	FindUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListFranchiseAdmins(ctx context.Context, franchiseID uuid.UUID) ([]models.User, error)
}

type notificationDispatcher interface {
	Dispatch(ctx context.Context, batch *notifications.Batch)
}

type ServiceParams struct {
	BillingRepo       billing.Repository
	Memberships       membershipSettler
	Gateways          billing.GatewayProvider
	Users             userDirectory
	Events            eventEmitter
	TransactionRunner txRunner
	Dispatcher        notificationDispatcher
	Metrics           *metrics.SettlementMetrics
	Logger            *logger.Logger
}

// Service reconciles gateway callbacks into payment method, invoice and
// membership state.
type Service struct {
	billingRepo billing.Repository
	memberships membershipSettler
	gateways    billing.GatewayProvider
	users       userDirectory
	events      eventEmitter
	txRunner    txRunner
	dispatcher  notificationDispatcher
	metrics     *metrics.SettlementMetrics
	logg        *logger.Logger
	now         func() time.Time

	handlers map[stripe.EventType]handler
}

// delivery is one event being applied inside its transaction.
type delivery struct {
	event *stripe.Event
	tx    *gorm.DB
	batch *notifications.Batch
}

type handler func(ctx context.Context, d *delivery) error

func NewService(params ServiceParams) (*Service, error) {
	if params.BillingRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "billing repo required")
	}
	if params.Memberships == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "membership settler required")
	}
	if params.Gateways == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "gateway provider required")
	}
	if params.Users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "user directory required")
	}
	if params.Events == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "event emitter required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	s := &Service{
		billingRepo: params.BillingRepo,
		memberships: params.Memberships,
		gateways:    params.Gateways,
		users:       params.Users,
		events:      params.Events,
		txRunner:    params.TransactionRunner,
		dispatcher:  params.Dispatcher,
		metrics:     params.Metrics,
		logg:        params.Logger,
		now:         time.Now,
	}
	s.handlers = map[stripe.EventType]handler{
		stripe.EventTypeSetupIntentRequiresAction:  s.setupIntentStatus(enums.PaymentMethodStatusVerificationPending),
		stripe.EventTypeSetupIntentSucceeded:       s.setupIntentStatus(enums.PaymentMethodStatusSucceeded),
		stripe.EventTypeSetupIntentSetupFailed:     s.setupIntentStatus(enums.PaymentMethodStatusFailed),
		stripe.EventTypePaymentIntentProcessing:    s.paymentIntentStatus(outcomeProcessing),
		stripe.EventTypePaymentIntentPaymentFailed: s.paymentIntentStatus(outcomeFailed),
		stripe.EventTypePaymentIntentSucceeded:     s.paymentIntentStatus(outcomeSucceeded),
	}
	return s, nil
}

// HandleEvent applies one verified gateway event in a single transaction and
// sends the resulting notifications after commit. Unmapped types are no-ops.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}
	eventType := string(event.Type)
	ctx = s.logg.WithFields(ctx, map[string]any{
		"gateway_event_id":   event.ID,
		"gateway_event_type": eventType,
	})

	h, ok := s.handlers[event.Type]
	if !ok {
		s.logg.Info(ctx, "gateway event ignored")
		s.metrics.ObserveWebhook(eventType, nil)
		return nil
	}

	batch := &notifications.Batch{}
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		return h(ctx, &delivery{event: event, tx: tx, batch: batch})
	})
	s.metrics.ObserveWebhook(eventType, err)
	if err != nil {
		s.logg.Error(ctx, "gateway event failed", err)
		return err
	}
	if s.dispatcher != nil {
		s.dispatcher.Dispatch(ctx, batch)
	}
	return nil
}

func decodeObject(event *stripe.Event, into any) error {
	if err := json.Unmarshal(event.Data.Raw, into); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode gateway event object")
	}
	return nil
}
