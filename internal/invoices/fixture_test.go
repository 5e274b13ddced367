package invoices

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/homeward/settlement-backend/internal/billing"
	"github.com/homeward/settlement-backend/internal/notifications"
	"github.com/homeward/settlement-backend/internal/servicerequests"
	dbpkg "github.com/homeward/settlement-backend/pkg/db"
	"github.com/homeward/settlement-backend/pkg/db/models"
	"github.com/homeward/settlement-backend/pkg/enums"
	"github.com/homeward/settlement-backend/pkg/outbox"
)

type recordingDispatcher struct {
	sent []notifications.Notification
}

func (d *recordingDispatcher) Dispatch(_ context.Context, batch *notifications.Batch) {
	d.sent = append(d.sent, batch.Items()...)
}

type stubCharger struct {
	outcome billing.ChargeOutcome
	err     error
	calls   int
	purpose enums.PaymentPurpose
	charged []uuid.UUID
}

func (c *stubCharger) ChargeInvoices(_ context.Context, _ *gorm.DB, invoices []*models.InvoiceMaster, _ *models.PaymentMethod, purpose enums.PaymentPurpose, _ string) (billing.ChargeOutcome, error) {
	c.calls++
	c.purpose = purpose
	for _, inv := range invoices {
		c.charged = append(c.charged, inv.ID)
	}
	return c.outcome, c.err
}

type fixture struct {
	t          *testing.T
	db         *gorm.DB
	service    *Service
	dispatcher *recordingDispatcher
	charger    *stubCharger

	franchiseID uuid.UUID
	ownerID     uuid.UUID
	vendorID    uuid.UUID
	adminID     uuid.UUID
	flatType    models.ServiceType
	hourlyType  models.ServiceType
	property    models.Property
}

type fixtureOption func(*RouterParams)

func withAutoCharge(c *stubCharger) fixtureOption {
	return func(p *RouterParams) {
		p.AutoCharge = true
		p.Charger = c
	}
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.InvoiceMaster{},
		&models.InvoiceLineItem{},
		&models.OwnerPaymentDetails{},
		&models.VendorPaymentDetails{},
		&models.PaymentMethod{},
		&models.OutboxEvent{},
		&models.ServiceRequest{},
		&models.ServiceType{},
		&models.ServiceRequestNote{},
		&models.Property{},
		&models.PropertyServiceTypeRate{},
		&models.EstimateDetail{},
		&models.EstimateLineItem{},
		&models.LinenDetail{},
		&models.User{},
	))

	f := &fixture{
		t:           t,
		db:          db,
		dispatcher:  &recordingDispatcher{},
		franchiseID: uuid.New(),
		ownerID:     uuid.New(),
		vendorID:    uuid.New(),
		adminID:     uuid.New(),
	}
	franchise := f.franchiseID
	require.NoError(t, db.Create(&[]models.User{
		{ID: f.ownerID, Role: enums.ActorRoleOwner.String(), Email: "owner@example.com", FirstName: "Olive"},
		{ID: f.vendorID, Role: enums.ActorRoleVendor.String(), Email: "vendor@example.com", FirstName: "Vic"},
		{ID: f.adminID, FranchiseID: &franchise, Role: enums.ActorRoleFranchiseAdmin.String(), Email: "admin@example.com", FirstName: "Ada"},
	}).Error)
	f.flatType = models.ServiceType{ID: uuid.New(), Name: "Pool cleaning"}
	f.hourlyType = models.ServiceType{ID: uuid.New(), Name: "Handyman", IsStandardHourly: true}
	require.NoError(t, db.Create(&f.flatType).Error)
	require.NoError(t, db.Create(&f.hourlyType).Error)
	f.property = models.Property{ID: uuid.New(), FranchiseID: f.franchiseID, OwnerID: f.ownerID, Name: "Beach house"}
	require.NoError(t, db.Create(&f.property).Error)

	events := outbox.NewService(outbox.NewRepository(db), nil)
	params := RouterParams{
		Invoices: NewRepository(db),
		Requests: servicerequests.NewRepository(db),
		Billing:  billing.NewRepository(db),
		Events:   events,
	}
	for _, opt := range opts {
		opt(&params)
	}
	router, err := NewRouter(params)
	require.NoError(t, err)
	f.service, err = NewService(ServiceParams{
		Router:            router,
		Invoices:          params.Invoices,
		Requests:          params.Requests,
		TransactionRunner: dbpkg.Wrap(db),
		Dispatcher:        f.dispatcher,
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) request(status enums.ServiceRequestStatus, mutate ...func(*models.ServiceRequest)) *models.ServiceRequest {
	f.t.Helper()
	vendor := f.vendorID
	sr := &models.ServiceRequest{
		ID:            uuid.New(),
		Status:        status,
		FranchiseID:   f.franchiseID,
		PropertyID:    f.property.ID,
		OwnerID:       f.ownerID,
		VendorID:      &vendor,
		ServiceTypeID: f.flatType.ID,
	}
	for _, m := range mutate {
		m(sr)
	}
	require.NoError(f.t, f.db.Create(sr).Error)
	return sr
}

func (f *fixture) setStatus(sr *models.ServiceRequest, status enums.ServiceRequestStatus) {
	f.t.Helper()
	sr.Status = status
	require.NoError(f.t, f.db.Model(&models.ServiceRequest{}).Where("id = ?", sr.ID).Update("status", status).Error)
}

func (f *fixture) rate(vendor, owner, discount string) {
	f.t.Helper()
	require.NoError(f.t, f.db.Create(&models.PropertyServiceTypeRate{
		ID:                 uuid.New(),
		PropertyID:         f.property.ID,
		ServiceTypeID:      f.flatType.ID,
		VendorCharge:       decimal.RequireFromString(vendor),
		OwnerCharge:        decimal.RequireFromString(owner),
		DiscountPercentage: decimal.RequireFromString(discount),
	}).Error)
}

func (f *fixture) vendor() Actor {
	return Actor{UserID: f.vendorID, Role: enums.ActorRoleVendor}
}

func (f *fixture) admin() Actor {
	return Actor{UserID: f.adminID, Role: enums.ActorRoleFranchiseAdmin}
}

func (f *fixture) run(sr *models.ServiceRequest, actor Actor, items ...LineItemInput) (*Result, error) {
	return f.service.InitInvoice(context.Background(), InitInvoiceInput{
		ServiceRequestID: sr.ID,
		LineItems:        items,
		Actor:            actor,
	})
}

func (f *fixture) invoiceFor(sr *models.ServiceRequest) models.InvoiceMaster {
	f.t.Helper()
	var inv models.InvoiceMaster
	require.NoError(f.t, f.db.Where("service_request_id = ?", sr.ID).First(&inv).Error)
	return inv
}

func (f *fixture) itemsFor(inv models.InvoiceMaster) []models.InvoiceLineItem {
	f.t.Helper()
	var items []models.InvoiceLineItem
	require.NoError(f.t, f.db.Where("invoice_master_id = ?", inv.ID).Order("price ASC").Find(&items).Error)
	return items
}

func (f *fixture) countEvents(eventType enums.OutboxEventType, aggregateID uuid.UUID) int64 {
	f.t.Helper()
	var count int64
	require.NoError(f.t, f.db.Model(&models.OutboxEvent{}).
		Where("event_type = ? AND aggregate_id = ?", eventType, aggregateID).
		Count(&count).Error)
	return count
}

func item(title, price string, section enums.LineItemSection) LineItemInput {
	return LineItemInput{Title: title, Price: decimal.RequireFromString(price), Section: section}
}

func laborItem(title, rate, hours string) LineItemInput {
	return LineItemInput{
		Title:       title,
		Price:       decimal.RequireFromString(rate),
		HoursWorked: decimal.RequireFromString(hours),
		Section:     enums.LineItemSectionLabor,
	}
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}
