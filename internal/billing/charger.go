package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/homeward/settlement-backend/pkg/db/models"
	"github.com/homeward/settlement-backend/pkg/enums"
	pkgerrors "github.com/homeward/settlement-backend/pkg/errors"
	"github.com/homeward/settlement-backend/pkg/logger"
	"github.com/homeward/settlement-backend/pkg/metrics"
	"github.com/homeward/settlement-backend/pkg/stripe"
)

// GatewayProvider resolves the gateway credentialed for a franchise.
type GatewayProvider interface {
	ForFranchise(ctx context.Context, franchiseID uuid.UUID) (stripe.Gateway, error)
}

// ChargeOutcome reports a charge attempt. Failed outcomes are values, not errors:
// local state has already been reverted by the time the caller sees them.
type ChargeOutcome struct {
	Failed      bool
	Message     string
	InvoiceUUID uuid.UUID
	IntentID    string
	Amount      decimal.Decimal
}

// ChargerParams groups dependencies for the charger.
type ChargerParams struct {
	Repo     Repository
	Gateways GatewayProvider
	Logger   *logger.Logger
	Metrics  *metrics.SettlementMetrics
}

// Charger owns the charge-and-rollback contract shared by auto-charge, pay-now
// and the membership cron.
type Charger struct {
	repo     Repository
	gateways GatewayProvider
	logg     *logger.Logger
	metrics  *metrics.SettlementMetrics
	now      func() time.Time
}

// NewCharger builds a charger.
func NewCharger(params ChargerParams) (*Charger, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "billing repo required")
	}
	if params.Gateways == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "gateway provider required")
	}
	return &Charger{
		repo:     params.Repo,
		gateways: params.Gateways,
		logg:     params.Logger,
		metrics:  params.Metrics,
		now:      time.Now,
	}, nil
}

// ChargeInvoices stamps one correlation uuid across the invoices, marks them
// processing and charges the sum of their franchise remaining balances. When the
// gateway rejects the charge every invoice is put back to sent_to_owner.
func (c *Charger) ChargeInvoices(ctx context.Context, tx *gorm.DB, invoices []*models.InvoiceMaster, method *models.PaymentMethod, purpose enums.PaymentPurpose, source string) (ChargeOutcome, error) {
	if tx == nil {
		return ChargeOutcome{}, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	if len(invoices) == 0 {
		return ChargeOutcome{}, pkgerrors.New(pkgerrors.CodeValidation, "no invoices to charge")
	}
	if method == nil || method.GatewayPaymentMethodID == nil {
		return ChargeOutcome{}, pkgerrors.New(pkgerrors.CodeValidation, "payment method is not ready")
	}
	franchiseID := invoices[0].FranchiseID
	for _, inv := range invoices {
		if inv.FranchiseID != franchiseID {
			return ChargeOutcome{}, pkgerrors.New(pkgerrors.CodeValidation, "invoices span multiple franchises")
		}
	}
	gateway, err := c.gateways.ForFranchise(ctx, franchiseID)
	if err != nil {
		return ChargeOutcome{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve payment gateway")
	}

	repo := c.repo.WithTx(tx)
	correlation := uuid.New()
	amount := lo.Reduce(invoices, func(sum decimal.Decimal, inv *models.InvoiceMaster, _ int) decimal.Decimal {
		if purpose == enums.PaymentPurposeDeposit {
			return sum.Add(inv.DepositAmount)
		}
		return sum.Add(inv.FranchiseRemainingBalance)
	}, decimal.Zero)

	// methodSetHere tracks which invoices had no payment method before this attempt.
	methodSetHere := make([]bool, len(invoices))
	for i, inv := range invoices {
		if inv.PaymentMethodID == nil {
			methodSetHere[i] = true
			inv.PaymentMethodID = &method.ID
		}
		inv.InvoiceUUID = &correlation
		inv.Status = enums.InvoiceStatusPaidByOwnerProcessing
		inv.NextStatus = nil
		if err := repo.SaveInvoice(ctx, inv); err != nil {
			return ChargeOutcome{}, err
		}
	}

	ctx = c.logg.WithInvoiceUUID(ctx, correlation.String())
	result := gateway.ProcessCharge(ctx, stripe.ChargeRequest{
		Amount:          amount,
		CustomerID:      method.GatewayCustomerID,
		PaymentMethodID: *method.GatewayPaymentMethodID,
		PaymentType:     method.Type,
		Description:     describeCharge(invoices),
		Metadata: map[string]string{
			stripe.MetadataInvoiceUUID: correlation.String(),
			stripe.MetadataFranchiseID: franchiseID.String(),
			stripe.MetadataPurpose:     purpose.String(),
		},
	})
	c.metrics.ObserveCharge(source, !result.Error)

	outcome := ChargeOutcome{
		Failed:      result.Error,
		Message:     result.Message,
		InvoiceUUID: correlation,
		IntentID:    result.IntentID,
		Amount:      amount,
	}
	if !result.Error {
		c.logg.Info(ctx, "invoice charge submitted")
		return outcome, nil
	}

	for i, inv := range invoices {
		inv.Status = enums.InvoiceStatusSentToOwner
		inv.InvoiceUUID = nil
		if methodSetHere[i] {
			inv.PaymentMethodID = nil
		}
		if err := repo.SaveInvoice(ctx, inv); err != nil {
			return ChargeOutcome{}, err
		}
	}
	c.logg.Warn(c.logg.WithField(ctx, "gateway_message", result.Message), "invoice charge failed, reverted to sent_to_owner")
	return outcome, nil
}

// MembershipCharge describes one periodic membership charge.
type MembershipCharge struct {
	Tier        *models.MembershipTier
	Transaction *models.MembershipTransaction
	Method      *models.PaymentMethod
	NextDueDate time.Time
}

// ChargeMembership submits a membership transaction under its own correlation uuid.
func (c *Charger) ChargeMembership(ctx context.Context, charge MembershipCharge) ChargeOutcome {
	outcome := ChargeOutcome{}
	if charge.Tier == nil || charge.Transaction == nil {
		outcome.Failed, outcome.Message = true, "membership charge incomplete"
		return outcome
	}
	outcome.InvoiceUUID = charge.Transaction.InvoiceUUID
	outcome.Amount = charge.Transaction.Amount
	if charge.Method == nil || charge.Method.GatewayPaymentMethodID == nil {
		outcome.Failed, outcome.Message = true, "no usable payment method"
		c.metrics.ObserveCharge("membership", false)
		return outcome
	}
	gateway, err := c.gateways.ForFranchise(ctx, charge.Tier.FranchiseID)
	if err != nil {
		outcome.Failed, outcome.Message = true, err.Error()
		c.metrics.ObserveCharge("membership", false)
		return outcome
	}
	result := gateway.ProcessCharge(ctx, stripe.ChargeRequest{
		Amount:          charge.Transaction.Amount,
		CustomerID:      charge.Method.GatewayCustomerID,
		PaymentMethodID: *charge.Method.GatewayPaymentMethodID,
		PaymentType:     charge.Method.Type,
		Description:     fmt.Sprintf("%s membership", charge.Tier.Tier),
		Metadata: map[string]string{
			stripe.MetadataInvoiceUUID: charge.Transaction.InvoiceUUID.String(),
			stripe.MetadataFranchiseID: charge.Tier.FranchiseID.String(),
			stripe.MetadataPurpose:     enums.PaymentPurposeMembership.String(),
			stripe.MetadataNextDueDate: charge.NextDueDate.UTC().Format(time.RFC3339),
		},
	})
	c.metrics.ObserveCharge("membership", !result.Error)
	outcome.Failed = result.Error
	outcome.Message = result.Message
	outcome.IntentID = result.IntentID
	return outcome
}

func describeCharge(invoices []*models.InvoiceMaster) string {
	ids := lo.Map(invoices, func(inv *models.InvoiceMaster, _ int) string {
		return inv.ID.String()[:8]
	})
	return "Invoices " + strings.Join(ids, ", ")
}
