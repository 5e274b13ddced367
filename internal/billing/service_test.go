package billing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbpkg "github.com/homeward/settlement-backend/pkg/db"
	"github.com/homeward/settlement-backend/pkg/db/models"
	"github.com/homeward/settlement-backend/pkg/enums"
	pkgerrors "github.com/homeward/settlement-backend/pkg/errors"
	"github.com/homeward/settlement-backend/pkg/stripe"
)

func newPayService(t *testing.T, repo Repository, gateway *stubGateway, client *dbpkg.Client) *Service {
	t.Helper()
	charger, err := NewCharger(ChargerParams{Repo: repo, Gateways: stubProvider{gateway: gateway}})
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{Repo: repo, Charger: charger, TransactionRunner: client})
	require.NoError(t, err)
	return svc
}

func TestPayDueInvoicesSharesOneCorrelation(t *testing.T) {
	db := setupBillingTestDB(t)
	ownerID, franchiseID := uuid.New(), uuid.New()
	method := seedMethod(t, db, ownerID)
	a := seedInvoice(t, db, ownerID, franchiseID, "10")
	b := seedInvoice(t, db, ownerID, franchiseID, "15")

	gateway := &stubGateway{result: stripe.ChargeResult{IntentID: "pi_9"}}
	svc := newPayService(t, NewRepository(db), gateway, dbpkg.Wrap(db))

	outcome, err := svc.PayDueInvoices(context.Background(), PayDueInput{
		OwnerID:         ownerID,
		InvoiceIDs:      []uuid.UUID{a.ID, b.ID, a.ID},
		PaymentMethodID: method.ID,
	})
	require.NoError(t, err)
	require.False(t, outcome.Failed)
	assert.True(t, outcome.Amount.Equal(decimal.NewFromInt(25)))

	var count int64
	require.NoError(t, db.Model(&models.InvoiceMaster{}).Where("invoice_uuid = ?", outcome.InvoiceUUID).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestPayDueInvoicesRejectsUnpayable(t *testing.T) {
	db := setupBillingTestDB(t)
	ownerID, franchiseID := uuid.New(), uuid.New()
	method := seedMethod(t, db, ownerID)
	inv := seedInvoice(t, db, ownerID, franchiseID, "10")
	inv.Status = enums.InvoiceStatusSubmittedToAdmin
	require.NoError(t, db.Save(inv).Error)

	gateway := &stubGateway{}
	svc := newPayService(t, NewRepository(db), gateway, dbpkg.Wrap(db))

	_, err := svc.PayDueInvoices(context.Background(), PayDueInput{
		OwnerID:         ownerID,
		InvoiceIDs:      []uuid.UUID{inv.ID},
		PaymentMethodID: method.ID,
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	assert.Empty(t, gateway.requests)
}

func TestPayDueInvoicesRejectsForeignMethod(t *testing.T) {
	db := setupBillingTestDB(t)
	ownerID := uuid.New()
	method := seedMethod(t, db, uuid.New())
	inv := seedInvoice(t, db, ownerID, uuid.New(), "10")

	svc := newPayService(t, NewRepository(db), &stubGateway{}, dbpkg.Wrap(db))
	_, err := svc.PayDueInvoices(context.Background(), PayDueInput{
		OwnerID:         ownerID,
		InvoiceIDs:      []uuid.UUID{inv.ID},
		PaymentMethodID: method.ID,
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestPurposeForDetectsDepositPhase(t *testing.T) {
	deposit := &models.InvoiceMaster{DepositAmount: decimal.NewFromInt(50), FranchiseTotal: decimal.NewFromInt(50)}
	assert.Equal(t, enums.PaymentPurposeDeposit, PurposeFor(deposit))

	deposit.DepositPaid = true
	assert.Equal(t, enums.PaymentPurposeInvoice, PurposeFor(deposit))

	completed := &models.InvoiceMaster{DepositAmount: decimal.NewFromInt(50), FranchiseTotal: decimal.NewFromInt(130)}
	assert.Equal(t, enums.PaymentPurposeInvoice, PurposeFor(completed))

	_, err := batchPurpose([]*models.InvoiceMaster{deposit, {DepositAmount: decimal.NewFromInt(5), FranchiseTotal: decimal.NewFromInt(5)}})
	require.Error(t, err)
}
