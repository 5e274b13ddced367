package invoices

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/homeward/settlement-backend/internal/notifications"
	"github.com/homeward/settlement-backend/internal/servicerequests"
	dbpkg "github.com/homeward/settlement-backend/pkg/db"
	"github.com/homeward/settlement-backend/pkg/db/models"
	"github.com/homeward/settlement-backend/pkg/enums"
	pkgerrors "github.com/homeward/settlement-backend/pkg/errors"
	"github.com/homeward/settlement-backend/pkg/logger"
	"github.com/homeward/settlement-backend/pkg/metrics"
)

const invoiceUniqueConstraint = "ux_invoice_masters_service_request"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type notificationDispatcher interface {
	Dispatch(ctx context.Context, batch *notifications.Batch)
}

// ServiceParams groups dependencies for the invoice service.
type ServiceParams struct {
	Router            *Router
	Invoices          Repository
	Requests          servicerequests.Repository
	TransactionRunner txRunner
	Dispatcher        notificationDispatcher
	Metrics           *metrics.SettlementMetrics
	Logger            *logger.Logger
}

// Service is the transactional entry point for invoice computations.
type Service struct {
	router     *Router
	invoices   Repository
	requests   servicerequests.Repository
	txRunner   txRunner
	dispatcher notificationDispatcher
	metrics    *metrics.SettlementMetrics
	logg       *logger.Logger
}

// NewService builds an invoice service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Router == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "router required")
	}
	if params.Invoices == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "invoice repo required")
	}
	if params.Requests == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "service request repo required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	return &Service{
		router:     params.Router,
		invoices:   params.Invoices,
		requests:   params.Requests,
		txRunner:   params.TransactionRunner,
		dispatcher: params.Dispatcher,
		metrics:    params.Metrics,
		logg:       params.Logger,
	}, nil
}

// InitInvoiceInput is one actor action against a service request's invoice.
type InitInvoiceInput struct {
	ServiceRequestID uuid.UUID
	LineItems        []LineItemInput
	Actor            Actor
	Note             *string
}

// InitInvoice computes the request's invoice in one transaction and sends the
// queued notifications once it commits.
func (s *Service) InitInvoice(ctx context.Context, input InitInvoiceInput) (*Result, error) {
	if input.ServiceRequestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "service request id is required")
	}
	if !input.Actor.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "unknown actor role")
	}
	if input.Actor.Role == enums.ActorRoleOwner {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "owners cannot edit invoices")
	}
	ctx = s.logg.WithServiceRequestID(ctx, input.ServiceRequestID.String())
	ctx = s.logg.WithActorRole(ctx, input.Actor.Role.String())

	batch := &notifications.Batch{}
	var result *Result
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		sr, err := s.requests.WithTx(tx).FindByID(ctx, input.ServiceRequestID)
		if err != nil {
			return err
		}
		if sr == nil {
			return ErrServiceRequestNotFound
		}
		result, err = s.router.InitInvoice(ctx, tx, Input{
			ServiceRequest: sr,
			LineItems:      input.LineItems,
			Actor:          input.Actor,
			Note:           input.Note,
		}, batch)
		return err
	})
	strategy := ""
	if result != nil {
		strategy = result.Strategy
	}
	if err != nil {
		if dbpkg.IsUniqueViolation(err, invoiceUniqueConstraint) || dbpkg.IsRetryableTx(err) {
			err = pkgerrors.Wrap(pkgerrors.CodeConcurrent, err, ErrConcurrentInvoice.Message())
		}
		s.metrics.ObserveComputation(strategy, err)
		s.logg.Error(ctx, "invoice computation failed", err)
		return nil, err
	}
	s.metrics.ObserveComputation(strategy, nil)
	if result.AutoCharge != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"invoice_uuid":  result.AutoCharge.InvoiceUUID.String(),
			"charge_failed": result.AutoCharge.Failed,
		}), "auto-charge attempted")
	}
	for _, charged := range result.ReleasedCharges {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"invoice_uuid":  charged.InvoiceUUID.String(),
			"charge_failed": charged.Failed,
		}), "bundle member auto-charge attempted")
	}
	if s.dispatcher != nil {
		s.dispatcher.Dispatch(ctx, batch)
	}
	return result, nil
}

// UpdateStatusInput is an admin moving an invoice by hand.
type UpdateStatusInput struct {
	InvoiceID uuid.UUID
	Status    enums.InvoiceStatus
	Actor     Actor
}

var manualTargets = setOf(enums.InvoiceStatusSubmittedToAdmin, enums.InvoiceStatusSentToOwner)

// UpdateStatus applies an admin transition, holding bundle members as needed.
func (s *Service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.InvoiceMaster, error) {
	if !input.Actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only franchise admins can change invoice status")
	}
	if _, ok := manualTargets[input.Status]; !ok {
		return nil, ErrInvalidAction
	}

	batch := &notifications.Batch{}
	var updated *models.InvoiceMaster
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		inv, err := s.invoices.WithTx(tx).FindByID(ctx, input.InvoiceID)
		if err != nil {
			return err
		}
		if inv == nil {
			return ErrInvoiceNotFound
		}
		if err := guardRecompute(inv); err != nil {
			return err
		}
		sr, err := s.requests.WithTx(tx).FindByID(ctx, inv.ServiceRequestID)
		if err != nil {
			return err
		}
		if err := s.router.Transition(ctx, tx, inv, sr, input.Status, input.Actor, batch); err != nil {
			return err
		}
		updated = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.dispatcher != nil {
		s.dispatcher.Dispatch(ctx, batch)
	}
	return updated, nil
}
