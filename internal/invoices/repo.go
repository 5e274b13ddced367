package invoices

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/homeward/settlement-backend/pkg/db/models"
	"github.com/homeward/settlement-backend/pkg/enums"
)

// Repository persists invoices, their line items and payment detail rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.InvoiceMaster, error)
	FindByServiceRequestID(ctx context.Context, serviceRequestID uuid.UUID) (*models.InvoiceMaster, error)
	ListByServiceRequestIDs(ctx context.Context, serviceRequestIDs []uuid.UUID) ([]models.InvoiceMaster, error)
	Create(ctx context.Context, inv *models.InvoiceMaster) error
	Save(ctx context.Context, inv *models.InvoiceMaster) error

	ListLineItems(ctx context.Context, invoiceID uuid.UUID) ([]models.InvoiceLineItem, error)
	ListLineItemsByStatus(ctx context.Context, invoiceID uuid.UUID, status enums.ServiceRequestStatus) ([]models.InvoiceLineItem, error)
	InsertLineItems(ctx context.Context, items []models.InvoiceLineItem) error
	SaveLineItem(ctx context.Context, item *models.InvoiceLineItem) error
	DeleteLineItemsByStatus(ctx context.Context, invoiceID uuid.UUID, status enums.ServiceRequestStatus) (int64, error)

	UpsertOwnerPaymentDetails(ctx context.Context, details *models.OwnerPaymentDetails) error
	UpsertVendorPaymentDetails(ctx context.Context, details *models.VendorPaymentDetails) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an invoice repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.InvoiceMaster, error) {
	var inv models.InvoiceMaster
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&inv).Error
	if err != nil {
		return nil, notFoundAsNil(err)
	}
	return &inv, nil
}

// FindByServiceRequestID locks the request's invoice for the rest of the transaction.
func (r *repository) FindByServiceRequestID(ctx context.Context, serviceRequestID uuid.UUID) (*models.InvoiceMaster, error) {
	var inv models.InvoiceMaster
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("service_request_id = ?", serviceRequestID).
		First(&inv).Error
	if err != nil {
		return nil, notFoundAsNil(err)
	}
	return &inv, nil
}

func (r *repository) ListByServiceRequestIDs(ctx context.Context, serviceRequestIDs []uuid.UUID) ([]models.InvoiceMaster, error) {
	if len(serviceRequestIDs) == 0 {
		return nil, nil
	}
	var out []models.InvoiceMaster
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("service_request_id IN ?", serviceRequestIDs).
		Find(&out).Error
	return out, err
}

func (r *repository) Create(ctx context.Context, inv *models.InvoiceMaster) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

func (r *repository) Save(ctx context.Context, inv *models.InvoiceMaster) error {
	return r.db.WithContext(ctx).Save(inv).Error
}

func (r *repository) ListLineItems(ctx context.Context, invoiceID uuid.UUID) ([]models.InvoiceLineItem, error) {
	var items []models.InvoiceLineItem
	err := r.db.WithContext(ctx).
		Where("invoice_master_id = ?", invoiceID).
		Order("created_at ASC, title ASC").
		Find(&items).Error
	return items, err
}

func (r *repository) ListLineItemsByStatus(ctx context.Context, invoiceID uuid.UUID, status enums.ServiceRequestStatus) ([]models.InvoiceLineItem, error) {
	var items []models.InvoiceLineItem
	err := r.db.WithContext(ctx).
		Where("invoice_master_id = ? AND service_request_status = ?", invoiceID, status).
		Order("created_at ASC, title ASC").
		Find(&items).Error
	return items, err
}

func (r *repository) InsertLineItems(ctx context.Context, items []models.InvoiceLineItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) SaveLineItem(ctx context.Context, item *models.InvoiceLineItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *repository) DeleteLineItemsByStatus(ctx context.Context, invoiceID uuid.UUID, status enums.ServiceRequestStatus) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("invoice_master_id = ? AND service_request_status = ?", invoiceID, status).
		Delete(&models.InvoiceLineItem{})
	return res.RowsAffected, res.Error
}

func (r *repository) UpsertOwnerPaymentDetails(ctx context.Context, details *models.OwnerPaymentDetails) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "invoice_master_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"owner_id", "payment_status", "updated_at"}),
		}).
		Create(details).Error
}

func (r *repository) UpsertVendorPaymentDetails(ctx context.Context, details *models.VendorPaymentDetails) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "invoice_master_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"vendor_id", "updated_at"}),
		}).
		Create(details).Error
}

func notFoundAsNil(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}
