package invoices

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/homeward/settlement-backend/internal/notifications"
	"github.com/homeward/settlement-backend/internal/servicerequests"
	"github.com/homeward/settlement-backend/pkg/db/models"
	"github.com/homeward/settlement-backend/pkg/enums"
)

// strategy computes one invoice for a service request. Implementations save
// the invoice row; the router persists the line items they return.
type strategy interface {
	Name() string
	Compute(s *session) (*outcome, error)
}

// session is the transaction-scoped state of one computation.
type session struct {
	ctx      context.Context
	tx       *gorm.DB
	invoices Repository
	requests servicerequests.Repository
	batch    *notifications.Batch
	input    Input
	now      time.Time
	// released collects bundle members the hold check sent to the owner.
	released []*models.InvoiceMaster
}

func (s *session) request() *models.ServiceRequest {
	return s.input.ServiceRequest
}

type outcome struct {
	invoice    *models.InvoiceMaster
	items      []models.InvoiceLineItem
	kept       []models.InvoiceLineItem
	hasPrev    bool
	previous   enums.InvoiceStatus
	source     string
	strategy   string
	autoCharge bool
}

// kit holds what every strategy shares.
type kit struct {
	items Aggregator
	holds *HoldResolver
}

// loadOrCreate finds the request's invoice or inserts a fresh one in created.
// A concurrent first insert surfaces as a unique violation from Create.
func (k *kit) loadOrCreate(s *session) (*models.InvoiceMaster, bool, error) {
	sr := s.request()
	inv, err := s.invoices.FindByServiceRequestID(s.ctx, sr.ID)
	if err != nil {
		return nil, false, err
	}
	if inv != nil {
		if inv.VendorID == nil && sr.VendorID != nil {
			inv.VendorID = sr.VendorID
		}
		return inv, false, nil
	}
	inv = &models.InvoiceMaster{
		ServiceRequestID: sr.ID,
		FranchiseID:      sr.FranchiseID,
		OwnerID:          sr.OwnerID,
		VendorID:         sr.VendorID,
		Status:           enums.InvoiceStatusCreated,
	}
	if err := s.invoices.Create(s.ctx, inv); err != nil {
		return nil, false, err
	}
	return inv, true, nil
}

// checkVendor makes sure a vendor only prices requests assigned to them.
func (k *kit) checkVendor(s *session) error {
	sr := s.request()
	if !s.input.Actor.IsVendor() {
		return nil
	}
	if sr.VendorID == nil || *sr.VendorID == uuid.Nil {
		return ErrVendorIDMissing
	}
	if *sr.VendorID != s.input.Actor.UserID {
		return ErrInvalidAction
	}
	return nil
}

// franchiseOwner is the admin that owns the franchise-side copy of the items.
func (k *kit) franchiseOwner(s *session) (uuid.UUID, error) {
	if s.input.Actor.IsAdmin() {
		return s.input.Actor.principal(), nil
	}
	admins, err := s.requests.ListFranchiseAdmins(s.ctx, s.request().FranchiseID)
	if err != nil {
		return uuid.Nil, err
	}
	if len(admins) == 0 {
		return uuid.Nil, ErrGenerateInvoiceFailed
	}
	return admins[0].ID, nil
}

func (k *kit) owners(s *session, franchiseAdminID uuid.UUID) Owners {
	return Owners{
		Status:           s.request().Status,
		VendorID:         s.request().VendorID,
		FranchiseAdminID: franchiseAdminID,
	}
}

// settle runs the hold check and moves the invoice to its final status.
func (k *kit) settle(s *session, inv *models.InvoiceMaster, candidate enums.InvoiceStatus) error {
	final, err := k.holds.Resolve(s, inv, candidate)
	if err != nil {
		return err
	}
	if final == enums.InvoiceStatusOnHold {
		return setStatus(inv, final, &candidate)
	}
	return setStatus(inv, final, nil)
}

// touch stamps admin edits and saves the invoice.
func (k *kit) touch(s *session, inv *models.InvoiceMaster) error {
	if s.input.Actor.IsAdmin() {
		now := s.now
		inv.FranchiseUpdatedAt = &now
	}
	return s.invoices.Save(s.ctx, inv)
}
