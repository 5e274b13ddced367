package billing

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	dbpkg "github.com/homeward/settlement-backend/pkg/db"
	"github.com/homeward/settlement-backend/pkg/db/models"
	"github.com/homeward/settlement-backend/pkg/enums"
	pkgerrors "github.com/homeward/settlement-backend/pkg/errors"
	"github.com/homeward/settlement-backend/pkg/stripe"
)

type stubGateway struct {
	result   stripe.ChargeResult
	requests []stripe.ChargeRequest
}

func (g *stubGateway) ProcessCharge(_ context.Context, req stripe.ChargeRequest) stripe.ChargeResult {
	g.requests = append(g.requests, req)
	return g.result
}

func (g *stubGateway) CreateSetupIntent(context.Context, stripe.SetupIntentRequest) (*stripe.SetupIntentResult, error) {
	return nil, errors.New("not implemented")
}

func (g *stubGateway) RetrievePaymentMethod(context.Context, string) (*stripe.PaymentMethodDetails, error) {
	return nil, errors.New("not implemented")
}

func (g *stubGateway) DetachPaymentMethod(context.Context, string) error {
	return errors.New("not implemented")
}

type stubProvider struct {
	gateway stripe.Gateway
	err     error
}

func (p stubProvider) ForFranchise(context.Context, uuid.UUID) (stripe.Gateway, error) {
	return p.gateway, p.err
}

func setupBillingTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.InvoiceMaster{},
		&models.PaymentMethod{},
		&models.OwnerPaymentDetails{},
		&models.PaymentLog{},
		&models.FranchisePaymentAccount{},
	))
	return db
}

func seedMethod(t *testing.T, db *gorm.DB, ownerID uuid.UUID) *models.PaymentMethod {
	t.Helper()
	gatewayID := "pm_123"
	method := &models.PaymentMethod{
		OwnerID:                ownerID,
		FranchiseID:            uuid.New(),
		SetupIntentID:          "seti_" + uuid.NewString(),
		GatewayCustomerID:      "cus_1",
		GatewayPaymentMethodID: &gatewayID,
		Status:                 enums.PaymentMethodStatusSucceeded,
		Type:                   enums.PaymentTypeCard,
		IsDefault:              true,
	}
	require.NoError(t, db.Create(method).Error)
	return method
}

func seedInvoice(t *testing.T, db *gorm.DB, ownerID, franchiseID uuid.UUID, remaining string) *models.InvoiceMaster {
	t.Helper()
	amount := decimal.RequireFromString(remaining)
	inv := &models.InvoiceMaster{
		ServiceRequestID:          uuid.New(),
		FranchiseID:               franchiseID,
		OwnerID:                   ownerID,
		Status:                    enums.InvoiceStatusSentToOwner,
		VendorTotal:               amount,
		VendorRemainingBalance:    amount,
		FranchiseTotal:            amount,
		FranchiseRemainingBalance: amount,
	}
	require.NoError(t, db.Create(inv).Error)
	return inv
}

func TestChargeInvoicesStampsCorrelationAndSumsRemaining(t *testing.T) {
	db := setupBillingTestDB(t)
	ownerID, franchiseID := uuid.New(), uuid.New()
	method := seedMethod(t, db, ownerID)
	first := seedInvoice(t, db, ownerID, franchiseID, "90")
	second := seedInvoice(t, db, ownerID, franchiseID, "40.50")

	gateway := &stubGateway{result: stripe.ChargeResult{IntentID: "pi_1"}}
	charger, err := NewCharger(ChargerParams{Repo: NewRepository(db), Gateways: stubProvider{gateway: gateway}})
	require.NoError(t, err)

	var outcome ChargeOutcome
	err = dbpkg.Wrap(db).WithTx(context.Background(), func(tx *gorm.DB) error {
		var chargeErr error
		outcome, chargeErr = charger.ChargeInvoices(context.Background(), tx, []*models.InvoiceMaster{first, second}, method, enums.PaymentPurposeInvoice, "pay_now")
		return chargeErr
	})
	require.NoError(t, err)
	assert.False(t, outcome.Failed)
	assert.Equal(t, "pi_1", outcome.IntentID)

	require.Len(t, gateway.requests, 1)
	req := gateway.requests[0]
	assert.True(t, req.Amount.Equal(decimal.RequireFromString("130.50")))
	assert.Equal(t, outcome.InvoiceUUID.String(), req.Metadata[stripe.MetadataInvoiceUUID])
	assert.Equal(t, franchiseID.String(), req.Metadata[stripe.MetadataFranchiseID])
	assert.Equal(t, "invoice", req.Metadata[stripe.MetadataPurpose])
	assert.Equal(t, "pm_123", req.PaymentMethodID)

	var stored []models.InvoiceMaster
	require.NoError(t, db.Where("invoice_uuid = ?", outcome.InvoiceUUID).Find(&stored).Error)
	require.Len(t, stored, 2)
	for _, inv := range stored {
		assert.Equal(t, enums.InvoiceStatusPaidByOwnerProcessing, inv.Status)
		require.NotNil(t, inv.PaymentMethodID)
		assert.Equal(t, method.ID, *inv.PaymentMethodID)
	}
}

func TestChargeInvoicesRevertsOnGatewayFailure(t *testing.T) {
	db := setupBillingTestDB(t)
	ownerID, franchiseID := uuid.New(), uuid.New()
	method := seedMethod(t, db, ownerID)
	fresh := seedInvoice(t, db, ownerID, franchiseID, "25")
	previousMethod := uuid.New()
	retried := seedInvoice(t, db, ownerID, franchiseID, "75")
	retried.PaymentMethodID = &previousMethod
	retried.Status = enums.InvoiceStatusPaidByOwnerFailed
	require.NoError(t, db.Save(retried).Error)

	gateway := &stubGateway{result: stripe.ChargeResult{Error: true, Message: "card declined"}}
	charger, err := NewCharger(ChargerParams{Repo: NewRepository(db), Gateways: stubProvider{gateway: gateway}})
	require.NoError(t, err)

	var outcome ChargeOutcome
	err = dbpkg.Wrap(db).WithTx(context.Background(), func(tx *gorm.DB) error {
		var chargeErr error
		outcome, chargeErr = charger.ChargeInvoices(context.Background(), tx, []*models.InvoiceMaster{fresh, retried}, method, enums.PaymentPurposeInvoice, "auto_charge")
		return chargeErr
	})
	require.NoError(t, err)
	assert.True(t, outcome.Failed)
	assert.Equal(t, "card declined", outcome.Message)

	var reloadedFresh, reloadedRetried models.InvoiceMaster
	require.NoError(t, db.First(&reloadedFresh, "id = ?", fresh.ID).Error)
	require.NoError(t, db.First(&reloadedRetried, "id = ?", retried.ID).Error)

	assert.Equal(t, enums.InvoiceStatusSentToOwner, reloadedFresh.Status)
	assert.Nil(t, reloadedFresh.InvoiceUUID)
	assert.Nil(t, reloadedFresh.PaymentMethodID)

	assert.Equal(t, enums.InvoiceStatusSentToOwner, reloadedRetried.Status)
	assert.Nil(t, reloadedRetried.InvoiceUUID)
	require.NotNil(t, reloadedRetried.PaymentMethodID)
	assert.Equal(t, previousMethod, *reloadedRetried.PaymentMethodID)
}

func TestChargeInvoicesRejectsMixedFranchises(t *testing.T) {
	db := setupBillingTestDB(t)
	ownerID := uuid.New()
	method := seedMethod(t, db, ownerID)
	a := seedInvoice(t, db, ownerID, uuid.New(), "10")
	b := seedInvoice(t, db, ownerID, uuid.New(), "10")

	charger, err := NewCharger(ChargerParams{Repo: NewRepository(db), Gateways: stubProvider{gateway: &stubGateway{}}})
	require.NoError(t, err)

	_, err = charger.ChargeInvoices(context.Background(), db, []*models.InvoiceMaster{a, b}, method, enums.PaymentPurposeInvoice, "pay_now")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestChargeMembershipReportsMissingMethod(t *testing.T) {
	charger, err := NewCharger(ChargerParams{Repo: &repository{}, Gateways: stubProvider{gateway: &stubGateway{}}})
	require.NoError(t, err)

	outcome := charger.ChargeMembership(context.Background(), MembershipCharge{
		Tier:        &models.MembershipTier{FranchiseID: uuid.New(), Tier: enums.MembershipTierEssential},
		Transaction: &models.MembershipTransaction{InvoiceUUID: uuid.New(), Amount: decimal.NewFromInt(20)},
	})
	assert.True(t, outcome.Failed)
	assert.Equal(t, "no usable payment method", outcome.Message)
}
