package billing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/homeward/settlement-backend/pkg/db/models"
	"github.com/homeward/settlement-backend/pkg/enums"
)

// Repository exposes billing persistence: saved payment methods, franchise
// gateway accounts, owner payment details and the payment log.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreatePaymentMethod(ctx context.Context, method *models.PaymentMethod) error
	UpdatePaymentMethod(ctx context.Context, method *models.PaymentMethod) error
	DeletePaymentMethod(ctx context.Context, id uuid.UUID) error
	FindPaymentMethod(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error)
	FindPaymentMethodBySetupIntent(ctx context.Context, setupIntentID string) (*models.PaymentMethod, error)
	FindDefaultPaymentMethod(ctx context.Context, ownerID uuid.UUID, propertyID *uuid.UUID) (*models.PaymentMethod, error)
	ListPaymentMethodsByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.PaymentMethod, error)
	ClearDefaultPaymentMethod(ctx context.Context, ownerID uuid.UUID) error

	FindByFranchiseID(ctx context.Context, franchiseID uuid.UUID) (*models.FranchisePaymentAccount, error)

	ListPayableInvoices(ctx context.Context, ownerID uuid.UUID, invoiceIDs []uuid.UUID) ([]models.InvoiceMaster, error)
	ListInvoicesByCorrelation(ctx context.Context, invoiceUUID uuid.UUID) ([]models.InvoiceMaster, error)
	SaveInvoice(ctx context.Context, invoice *models.InvoiceMaster) error

	FindOwnerPaymentDetails(ctx context.Context, invoiceID uuid.UUID) (*models.OwnerPaymentDetails, error)
	UpsertOwnerPaymentDetails(ctx context.Context, details *models.OwnerPaymentDetails) error

	AppendPaymentLog(ctx context.Context, entry *models.PaymentLog) error
	ListPaymentLogs(ctx context.Context, invoiceUUID uuid.UUID) ([]models.PaymentLog, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a billing repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreatePaymentMethod(ctx context.Context, method *models.PaymentMethod) error {
	return r.db.WithContext(ctx).Create(method).Error
}

func (r *repository) UpdatePaymentMethod(ctx context.Context, method *models.PaymentMethod) error {
	return r.db.WithContext(ctx).Save(method).Error
}

func (r *repository) DeletePaymentMethod(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.PaymentMethod{}).Error
}

func (r *repository) FindPaymentMethod(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error) {
	var method models.PaymentMethod
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&method).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &method, nil
}

func (r *repository) FindPaymentMethodBySetupIntent(ctx context.Context, setupIntentID string) (*models.PaymentMethod, error) {
	if setupIntentID == "" {
		return nil, nil
	}
	var method models.PaymentMethod
	if err := r.db.WithContext(ctx).Where("setup_intent_id = ?", setupIntentID).First(&method).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &method, nil
}

// FindDefaultPaymentMethod prefers the property's default succeeded method and
// falls back to the owner's default succeeded method.
func (r *repository) FindDefaultPaymentMethod(ctx context.Context, ownerID uuid.UUID, propertyID *uuid.UUID) (*models.PaymentMethod, error) {
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).
			Where("owner_id = ? AND status = ? AND is_default = ?", ownerID, enums.PaymentMethodStatusSucceeded, true).
			Where("gateway_payment_method_id IS NOT NULL").
			Order("updated_at DESC")
	}
	if propertyID != nil {
		var method models.PaymentMethod
		err := base().Where("property_id = ?", *propertyID).First(&method).Error
		if err == nil {
			return &method, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	var method models.PaymentMethod
	if err := base().First(&method).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &method, nil
}

func (r *repository) ListPaymentMethodsByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.PaymentMethod, error) {
	var methods []models.PaymentMethod
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&methods).Error; err != nil {
		return nil, err
	}
	return methods, nil
}

func (r *repository) ClearDefaultPaymentMethod(ctx context.Context, ownerID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.PaymentMethod{}).
		Where("owner_id = ? AND is_default = ?", ownerID, true).
		Update("is_default", false).Error
}

// FindByFranchiseID satisfies stripe.AccountLookup.
func (r *repository) FindByFranchiseID(ctx context.Context, franchiseID uuid.UUID) (*models.FranchisePaymentAccount, error) {
	var account models.FranchisePaymentAccount
	if err := r.db.WithContext(ctx).Where("franchise_id = ?", franchiseID).First(&account).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &account, nil
}

// ListPayableInvoices locks the owner's unpaid, owner-facing invoices among the given ids.
func (r *repository) ListPayableInvoices(ctx context.Context, ownerID uuid.UUID, invoiceIDs []uuid.UUID) ([]models.InvoiceMaster, error) {
	if len(invoiceIDs) == 0 {
		return nil, nil
	}
	var invoices []models.InvoiceMaster
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("owner_id = ? AND id IN ?", ownerID, invoiceIDs).
		Where("status IN ?", []enums.InvoiceStatus{enums.InvoiceStatusSentToOwner, enums.InvoiceStatusPaidByOwnerFailed}).
		Where("paid_at IS NULL").
		Order("created_at ASC").
		Find(&invoices).Error
	return invoices, err
}

func (r *repository) ListInvoicesByCorrelation(ctx context.Context, invoiceUUID uuid.UUID) ([]models.InvoiceMaster, error) {
	var invoices []models.InvoiceMaster
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("invoice_uuid = ?", invoiceUUID).
		Order("created_at ASC").
		Find(&invoices).Error
	return invoices, err
}

func (r *repository) SaveInvoice(ctx context.Context, invoice *models.InvoiceMaster) error {
	return r.db.WithContext(ctx).Save(invoice).Error
}

func (r *repository) FindOwnerPaymentDetails(ctx context.Context, invoiceID uuid.UUID) (*models.OwnerPaymentDetails, error) {
	var details models.OwnerPaymentDetails
	if err := r.db.WithContext(ctx).Where("invoice_master_id = ?", invoiceID).First(&details).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &details, nil
}

func (r *repository) UpsertOwnerPaymentDetails(ctx context.Context, details *models.OwnerPaymentDetails) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "invoice_master_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"owner_id", "payment_status", "payment_type", "cheque_reference", "amount_paid", "paid_at", "updated_at",
			}),
		}).
		Create(details).Error
}

func (r *repository) AppendPaymentLog(ctx context.Context, entry *models.PaymentLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListPaymentLogs(ctx context.Context, invoiceUUID uuid.UUID) ([]models.PaymentLog, error) {
	var logs []models.PaymentLog
	err := r.db.WithContext(ctx).
		Where("invoice_uuid = ?", invoiceUUID).
		Order("created_at ASC").
		Find(&logs).Error
	return logs, err
}

func notFoundAsNil(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}
