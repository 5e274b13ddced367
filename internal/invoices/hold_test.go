package invoices

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homeward/settlement-backend/internal/billing"
	"github.com/homeward/settlement-backend/pkg/db/models"
	"github.com/homeward/settlement-backend/pkg/enums"
)

func (f *fixture) bundle(statuses ...enums.ServiceRequestStatus) (*models.ServiceRequest, []*models.ServiceRequest) {
	f.t.Helper()
	parent := f.request(enums.ServiceRequestStatusInProgress, func(sr *models.ServiceRequest) {
		sr.IsParent = true
	})
	children := make([]*models.ServiceRequest, 0, len(statuses))
	for _, status := range statuses {
		parentID := parent.ID
		children = append(children, f.request(status, func(sr *models.ServiceRequest) {
			sr.ParentID = &parentID
		}))
	}
	return parent, children
}

func TestBundleHoldsUntilEveryChildIsReady(t *testing.T) {
	f := newFixture(t)
	f.rate("40", "100", "10")
	_, children := f.bundle(
		enums.ServiceRequestStatusCompletedSuccessfully,
		enums.ServiceRequestStatusCompletedSuccessfully,
		enums.ServiceRequestStatusCompletedSuccessfully,
	)

	for _, child := range children[:2] {
		_, err := f.run(child, f.vendor())
		require.NoError(t, err)
		inv := f.invoiceFor(child)
		assert.Equal(t, enums.InvoiceStatusOnHold, inv.Status)
		require.NotNil(t, inv.NextStatus)
		assert.Equal(t, enums.InvoiceStatusSentToOwner, *inv.NextStatus)
		assert.Nil(t, inv.SentToOwnerAt)
	}
	assert.Empty(t, f.dispatcher.sent)

	_, err := f.run(children[2], f.vendor())
	require.NoError(t, err)

	for _, child := range children {
		inv := f.invoiceFor(child)
		assert.Equal(t, enums.InvoiceStatusSentToOwner, inv.Status)
		assert.Nil(t, inv.NextStatus)
		assert.NotNil(t, inv.SentToOwnerAt)
		assert.Equal(t, int64(1), f.countEvents(enums.EventInvoiceSentToOwner, inv.ID))
	}
	assert.Len(t, f.dispatcher.sent, 3)
}

func TestBundleWithUnfinishedChildHolds(t *testing.T) {
	f := newFixture(t)
	f.rate("40", "100", "0")
	_, children := f.bundle(
		enums.ServiceRequestStatusCompletedSuccessfully,
		enums.ServiceRequestStatusInProgress,
	)

	_, err := f.run(children[0], f.vendor())
	require.NoError(t, err)
	assert.Equal(t, enums.InvoiceStatusOnHold, f.invoiceFor(children[0]).Status)
}

func TestCancelledChildrenDoNotBlockBundle(t *testing.T) {
	f := newFixture(t)
	f.rate("40", "100", "0")
	_, children := f.bundle(
		enums.ServiceRequestStatusCompletedSuccessfully,
		enums.ServiceRequestStatusCancelled,
	)

	_, err := f.run(children[0], f.vendor())
	require.NoError(t, err)
	assert.Equal(t, enums.InvoiceStatusSentToOwner, f.invoiceFor(children[0]).Status)
}

func TestReopenedBundlePullsBackSentMembers(t *testing.T) {
	f := newFixture(t)
	f.rate("40", "100", "0")
	parent, children := f.bundle(
		enums.ServiceRequestStatusCompletedSuccessfully,
		enums.ServiceRequestStatusCompletedSuccessfully,
	)
	for _, child := range children {
		_, err := f.run(child, f.vendor())
		require.NoError(t, err)
	}
	first := f.invoiceFor(children[0])
	require.Equal(t, enums.InvoiceStatusSentToOwner, first.Status)

	parentID := parent.ID
	f.request(enums.ServiceRequestStatusInProgress, func(sr *models.ServiceRequest) {
		sr.ParentID = &parentID
	})
	_, err := f.run(children[1], f.vendor())
	require.NoError(t, err)

	first = f.invoiceFor(children[0])
	assert.Equal(t, enums.InvoiceStatusOnHold, first.Status)
	require.NotNil(t, first.NextStatus)
	assert.Equal(t, enums.InvoiceStatusSentToOwner, *first.NextStatus)
	assert.Equal(t, enums.InvoiceStatusOnHold, f.invoiceFor(children[1]).Status)
	assert.Equal(t, int64(1), f.countEvents(enums.EventInvoiceSentToOwner, first.ID))
}

func TestParentBundleReleasesOnceLastChildCompletes(t *testing.T) {
	f := newFixture(t)
	f.rate("40", "100", "0")
	parent, children := f.bundle(
		enums.ServiceRequestStatusCompletedSuccessfully,
		enums.ServiceRequestStatusCompletedSuccessfully,
		enums.ServiceRequestStatusInProgress,
	)
	f.setStatus(parent, enums.ServiceRequestStatusCompletedSuccessfully)

	for _, sr := range []*models.ServiceRequest{parent, children[0], children[1]} {
		_, err := f.run(sr, f.vendor())
		require.NoError(t, err)
		inv := f.invoiceFor(sr)
		assert.Equal(t, enums.InvoiceStatusOnHold, inv.Status)
		require.NotNil(t, inv.NextStatus)
		assert.Equal(t, enums.InvoiceStatusSentToOwner, *inv.NextStatus)
	}
	assert.Empty(t, f.dispatcher.sent)

	f.setStatus(children[2], enums.ServiceRequestStatusCompletedSuccessfully)
	_, err := f.run(children[2], f.vendor())
	require.NoError(t, err)

	members := []*models.ServiceRequest{parent, children[0], children[1], children[2]}
	for _, sr := range members {
		inv := f.invoiceFor(sr)
		assert.Equal(t, enums.InvoiceStatusSentToOwner, inv.Status)
		assert.Nil(t, inv.NextStatus)
		assert.Equal(t, int64(1), f.countEvents(enums.EventInvoiceSentToOwner, inv.ID))
	}
	require.Len(t, f.dispatcher.sent, 4)

	_, err = f.run(children[2], f.vendor())
	require.NoError(t, err)
	for _, sr := range members {
		assert.Equal(t, int64(1), f.countEvents(enums.EventInvoiceSentToOwner, f.invoiceFor(sr).ID))
	}
	assert.Len(t, f.dispatcher.sent, 4)
}

func TestReleasedBundleMembersAreAutoCharged(t *testing.T) {
	charger := &stubCharger{outcome: billing.ChargeOutcome{IntentID: "pi_bundle"}}
	f := newFixture(t, withAutoCharge(charger))
	f.rate("40", "100", "0")
	require.NoError(t, f.db.Model(&models.Property{}).Where("id = ?", f.property.ID).Update("auto_charge_enabled", true).Error)
	gatewayPM := "pm_bundle"
	require.NoError(t, f.db.Create(&models.PaymentMethod{
		OwnerID:                f.ownerID,
		FranchiseID:            f.franchiseID,
		SetupIntentID:          "seti_bundle",
		GatewayCustomerID:      "cus_1",
		GatewayPaymentMethodID: &gatewayPM,
		Status:                 enums.PaymentMethodStatusSucceeded,
		Type:                   enums.PaymentTypeCard,
		IsDefault:              true,
	}).Error)
	_, children := f.bundle(
		enums.ServiceRequestStatusCompletedSuccessfully,
		enums.ServiceRequestStatusCompletedSuccessfully,
	)

	res, err := f.run(children[0], f.vendor())
	require.NoError(t, err)
	assert.Nil(t, res.AutoCharge)
	assert.Zero(t, charger.calls)

	res, err = f.run(children[1], f.vendor())
	require.NoError(t, err)
	require.NotNil(t, res.AutoCharge)
	require.Len(t, res.ReleasedCharges, 1)
	assert.Equal(t, "pi_bundle", res.ReleasedCharges[0].IntentID)
	assert.Equal(t, 2, charger.calls)
	assert.ElementsMatch(t, []uuid.UUID{f.invoiceFor(children[0]).ID, f.invoiceFor(children[1]).ID}, charger.charged)
}

func TestReleasedBundleMembersSkipChargeWithoutOptIn(t *testing.T) {
	charger := &stubCharger{}
	f := newFixture(t, withAutoCharge(charger))
	f.rate("40", "100", "0")
	_, children := f.bundle(
		enums.ServiceRequestStatusCompletedSuccessfully,
		enums.ServiceRequestStatusCompletedSuccessfully,
	)
	for _, child := range children {
		res, err := f.run(child, f.vendor())
		require.NoError(t, err)
		assert.Empty(t, res.ReleasedCharges)
	}
	assert.Zero(t, charger.calls)
	assert.Equal(t, enums.InvoiceStatusSentToOwner, f.invoiceFor(children[0]).Status)
}

func TestEffectiveStatusReadsThroughHold(t *testing.T) {
	next := enums.InvoiceStatusSentToOwner
	held := &models.InvoiceMaster{ID: uuid.New(), Status: enums.InvoiceStatusOnHold, NextStatus: &next}
	assert.Equal(t, enums.InvoiceStatusSentToOwner, effectiveStatus(held))
	assert.Equal(t, enums.InvoiceStatusCreated, effectiveStatus(&models.InvoiceMaster{Status: enums.InvoiceStatusCreated}))
	assert.Equal(t, enums.InvoiceStatus(""), effectiveStatus(nil))
}

func TestBundleParentResolution(t *testing.T) {
	parentID := uuid.New()
	assert.Equal(t, parentID, bundleParent(&models.ServiceRequest{ID: parentID, IsParent: true}))
	assert.Equal(t, parentID, bundleParent(&models.ServiceRequest{ID: uuid.New(), ParentID: &parentID}))
	assert.Equal(t, uuid.Nil, bundleParent(&models.ServiceRequest{ID: uuid.New()}))
	assert.Equal(t, uuid.Nil, bundleParent(nil))
}
