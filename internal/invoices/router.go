package invoices

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/homeward/settlement-backend/internal/billing"
	"github.com/homeward/settlement-backend/internal/notifications"
	"github.com/homeward/settlement-backend/internal/servicerequests"
	"github.com/homeward/settlement-backend/pkg/db/models"
	"github.com/homeward/settlement-backend/pkg/enums"
	pkgerrors "github.com/homeward/settlement-backend/pkg/errors"
	"github.com/homeward/settlement-backend/pkg/logger"
)

type invoiceCharger interface {
	ChargeInvoices(ctx context.Context, tx *gorm.DB, invoices []*models.InvoiceMaster, method *models.PaymentMethod, purpose enums.PaymentPurpose, source string) (billing.ChargeOutcome, error)
}

// RouterParams groups dependencies for the strategy router.
type RouterParams struct {
	Invoices   Repository
	Requests   servicerequests.Repository
	Billing    billing.Repository
	Events     eventEmitter
	Charger    invoiceCharger
	AutoCharge bool
	Logger     *logger.Logger
}

// Router picks the strategy for a request's status and persists what it computed.
type Router struct {
	invoices   Repository
	requests   servicerequests.Repository
	billing    billing.Repository
	events     eventEmitter
	charger    invoiceCharger
	autoCharge bool
	logg       *logger.Logger
	now        func() time.Time

	kit      *kit
	owner    ownerFacing
	byStatus map[enums.ServiceRequestStatus]strategy
	hourly   strategy
	flat     strategy
}

// NewRouter builds the router and its strategy table once.
func NewRouter(params RouterParams) (*Router, error) {
	if params.Invoices == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "invoice repo required")
	}
	if params.Requests == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "service request repo required")
	}
	if params.Events == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "event emitter required")
	}
	if params.AutoCharge && (params.Charger == nil || params.Billing == nil) {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "auto-charge requires charger and billing repo")
	}

	k := &kit{holds: newHoldResolver(params.Events)}
	r := &Router{
		invoices:   params.Invoices,
		requests:   params.Requests,
		billing:    params.Billing,
		events:     params.Events,
		charger:    params.Charger,
		autoCharge: params.AutoCharge,
		logg:       params.Logger,
		now:        time.Now,
		kit:        k,
		owner:      ownerFacing{events: params.Events},
		hourly:     hourlyStrategy{kit: k},
		flat:       preNegotiatedStrategy{kit: k},
	}
	completion := completionStrategy{router: r}
	r.byStatus = map[enums.ServiceRequestStatus]strategy{
		enums.ServiceRequestStatusDepositRequired:       depositStrategy{kit: k},
		enums.ServiceRequestStatusInProgress:            inProgressStrategy{kit: k},
		enums.ServiceRequestStatusPartiallyCompleted:    completion,
		enums.ServiceRequestStatusCompletedSuccessfully: completion,
	}
	return r, nil
}

// InitInvoice computes and persists the invoice for in.ServiceRequest inside tx.
// Notifications are queued on batch for the caller to send after commit.
func (r *Router) InitInvoice(ctx context.Context, tx *gorm.DB, in Input, batch *notifications.Batch) (*Result, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	if in.ServiceRequest == nil {
		return nil, ErrServiceRequestNotFound
	}
	s := r.newSession(ctx, tx, in, batch)

	strat, ok := r.byStatus[in.ServiceRequest.Status]
	if !ok {
		return nil, ErrServiceRequestNotCompleted
	}
	out, err := strat.Compute(s)
	if err != nil {
		return nil, err
	}

	persisted, err := r.kit.items.Persist(ctx, s.invoices, out.invoice.ID, out.items)
	if err != nil {
		return nil, err
	}

	inv := out.invoice
	if inv.Status != out.previous {
		if err := r.events.Emit(ctx, tx, statusChanged(inv, out.previous, inv.Status)); err != nil {
			return nil, err
		}
	}
	if inv.Status == enums.InvoiceStatusSentToOwner && out.previous != enums.InvoiceStatusSentToOwner {
		if err := r.owner.markSentToOwner(s, inv); err != nil {
			return nil, err
		}
	}

	result := &Result{
		Invoice:          inv,
		LineItems:        append(out.kept, persisted...),
		HasPrevLineItems: out.hasPrev,
		Strategy:         strategyName(strat, out),
	}
	if out.autoCharge && r.autoCharge {
		result.AutoCharge = r.chargeOnSend(s, inv, s.request().PropertyID)
	}
	result.ReleasedCharges = r.chargeReleased(s)

	logCtx := r.logg.WithFields(ctx, map[string]any{
		"strategy":       result.Strategy,
		"invoice_id":     inv.ID.String(),
		"invoice_status": inv.Status,
		"pricing_source": out.source,
	})
	r.logg.Info(logCtx, "invoice computed")
	return result, nil
}

// Transition moves an invoice to an admin-chosen status. Owner-facing targets go
// through the bundle hold check like any computed invoice.
func (r *Router) Transition(ctx context.Context, tx *gorm.DB, inv *models.InvoiceMaster, sr *models.ServiceRequest, to enums.InvoiceStatus, actor Actor, batch *notifications.Batch) error {
	if inv == nil {
		return ErrInvoiceNotFound
	}
	if sr == nil {
		return ErrServiceRequestNotFound
	}
	s := r.newSession(ctx, tx, Input{ServiceRequest: sr, Actor: actor}, batch)
	previous := inv.Status
	if previous == enums.InvoiceStatusPaidByOwnerProcessing {
		return ErrInvalidAction
	}
	if err := r.kit.settle(s, inv, to); err != nil {
		return err
	}
	if err := r.kit.touch(s, inv); err != nil {
		return err
	}
	if inv.Status != previous {
		if err := r.events.Emit(ctx, tx, statusChanged(inv, previous, inv.Status)); err != nil {
			return err
		}
	}
	if inv.Status == enums.InvoiceStatusSentToOwner && previous != enums.InvoiceStatusSentToOwner {
		if err := r.owner.markSentToOwner(s, inv); err != nil {
			return err
		}
	}
	r.chargeReleased(s)
	return nil
}

func (r *Router) newSession(ctx context.Context, tx *gorm.DB, in Input, batch *notifications.Batch) *session {
	return &session{
		ctx:      ctx,
		tx:       tx,
		invoices: r.invoices.WithTx(tx),
		requests: r.requests.WithTx(tx),
		batch:    batch,
		input:    in,
		now:      r.now().UTC(),
	}
}

// chargeReleased auto-charges bundle members the hold check released to the
// owner, each against its own request's property.
func (r *Router) chargeReleased(s *session) []billing.ChargeOutcome {
	if !r.autoCharge {
		return nil
	}
	var charged []billing.ChargeOutcome
	for _, member := range s.released {
		sr, err := s.requests.FindByID(s.ctx, member.ServiceRequestID)
		if err != nil {
			r.logg.Error(s.ctx, "auto-charge request lookup failed", err)
			continue
		}
		if sr == nil {
			continue
		}
		if outcome := r.chargeOnSend(s, member, sr.PropertyID); outcome != nil {
			charged = append(charged, *outcome)
		}
	}
	return charged
}

// chargeOnSend charges the property's (else owner's) default method when the
// property opted into auto-charge. Failures are logged and never propagate.
func (r *Router) chargeOnSend(s *session, inv *models.InvoiceMaster, propertyID uuid.UUID) *billing.ChargeOutcome {
	property, err := s.requests.FindProperty(s.ctx, propertyID)
	if err != nil {
		r.logg.Error(s.ctx, "auto-charge property lookup failed", err)
		return nil
	}
	if property == nil || !property.AutoChargeEnabled {
		return nil
	}
	id := property.ID
	method, err := r.billing.WithTx(s.tx).FindDefaultPaymentMethod(s.ctx, inv.OwnerID, &id)
	if err != nil {
		r.logg.Error(s.ctx, "auto-charge payment method lookup failed", err)
		return nil
	}
	if method == nil {
		r.logg.Warn(s.ctx, "auto-charge skipped, no default payment method")
		return nil
	}
	outcome, err := r.charger.ChargeInvoices(s.ctx, s.tx, []*models.InvoiceMaster{inv}, method, billing.PurposeFor(inv), "auto_charge")
	if err != nil {
		r.logg.Error(s.ctx, "auto-charge failed", err)
		return nil
	}
	return &outcome
}

// completionStrategy sub-dispatches completed requests on the service type's
// billing flags.
type completionStrategy struct {
	router *Router
}

func (completionStrategy) Name() string { return "completion" }

func (c completionStrategy) Compute(s *session) (*outcome, error) {
	st, err := s.requests.FindServiceType(s.ctx, s.request().ServiceTypeID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, ErrGenerateInvoiceFailed
	}
	picked := c.pick(st)
	out, err := picked.Compute(s)
	if err != nil {
		return nil, err
	}
	out.strategy = picked.Name()
	return out, nil
}

func (c completionStrategy) pick(st *models.ServiceType) strategy {
	if st.IsStandardHourly || st.IsHandymanConcierge {
		return c.router.hourly
	}
	return c.router.flat
}

func strategyName(strat strategy, out *outcome) string {
	if out.strategy != "" {
		return out.strategy
	}
	return strat.Name()
}
