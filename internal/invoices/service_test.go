package invoices

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homeward/settlement-backend/pkg/enums"
	pkgerrors "github.com/homeward/settlement-backend/pkg/errors"
)

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInternal))
}

func TestNewRouterRequiresChargerForAutoCharge(t *testing.T) {
	f := newFixture(t)
	_, err := NewRouter(RouterParams{
		Invoices:   NewRepository(f.db),
		Requests:   f.service.requests,
		Events:     f.service.router.events,
		AutoCharge: true,
	})
	require.Error(t, err)
}

func TestAdminSendsSubmittedInvoiceToOwner(t *testing.T) {
	f := newFixture(t)
	sr := f.request(enums.ServiceRequestStatusCompletedSuccessfully)
	_, err := f.run(sr, f.vendor(), item("Pump seal", "80", enums.LineItemSectionMaterial))
	require.NoError(t, err)
	inv := f.invoiceFor(sr)
	require.Equal(t, enums.InvoiceStatusSubmittedToAdmin, inv.Status)

	_, err = f.service.UpdateStatus(context.Background(), UpdateStatusInput{
		InvoiceID: inv.ID,
		Status:    enums.InvoiceStatusSentToOwner,
		Actor:     f.vendor(),
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	updated, err := f.service.UpdateStatus(context.Background(), UpdateStatusInput{
		InvoiceID: inv.ID,
		Status:    enums.InvoiceStatusSentToOwner,
		Actor:     f.admin(),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.InvoiceStatusSentToOwner, updated.Status)
	assert.NotNil(t, updated.FranchiseUpdatedAt)
	assert.Equal(t, int64(1), f.countEvents(enums.EventInvoiceSentToOwner, inv.ID))
	// created -> submitted_to_admin, then submitted_to_admin -> sent_to_owner
	assert.Equal(t, int64(2), f.countEvents(enums.EventInvoiceStatusChanged, inv.ID))
	assert.Len(t, f.dispatcher.sent, 1)
}

func TestUpdateStatusRejectsPaymentTargets(t *testing.T) {
	f := newFixture(t)
	sr := f.request(enums.ServiceRequestStatusCompletedSuccessfully)
	_, err := f.run(sr, f.vendor(), item("Pump seal", "80", enums.LineItemSectionMaterial))
	require.NoError(t, err)

	_, err = f.service.UpdateStatus(context.Background(), UpdateStatusInput{
		InvoiceID: f.invoiceFor(sr).ID,
		Status:    enums.InvoiceStatusPaidByOwnerSuccess,
		Actor:     f.admin(),
	})
	assert.ErrorIs(t, err, ErrInvalidAction)
}

func TestUpdateStatusUnknownInvoice(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.UpdateStatus(context.Background(), UpdateStatusInput{
		InvoiceID: uuid.New(),
		Status:    enums.InvoiceStatusSentToOwner,
		Actor:     f.admin(),
	})
	assert.ErrorIs(t, err, ErrInvoiceNotFound)
}

func TestUpdateStatusHoldsBundleMember(t *testing.T) {
	f := newFixture(t)
	_, children := f.bundle(
		enums.ServiceRequestStatusCompletedSuccessfully,
		enums.ServiceRequestStatusInProgress,
	)
	_, err := f.run(children[0], f.vendor(), item("Pump seal", "80", enums.LineItemSectionMaterial))
	require.NoError(t, err)

	updated, err := f.service.UpdateStatus(context.Background(), UpdateStatusInput{
		InvoiceID: f.invoiceFor(children[0]).ID,
		Status:    enums.InvoiceStatusSentToOwner,
		Actor:     f.admin(),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.InvoiceStatusOnHold, updated.Status)
	assert.Empty(t, f.dispatcher.sent)
}
