package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/homeward/settlement-backend/pkg/enums"
)

// OwnerPaymentDetails tracks what the owner has paid against an invoice.
type OwnerPaymentDetails struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	InvoiceMasterID uuid.UUID           `gorm:"column:invoice_master_id;type:uuid;not null;uniqueIndex:ux_owner_payment_details_invoice"`
	OwnerID         uuid.UUID           `gorm:"column:owner_id;type:uuid;not null"`
	PaymentStatus   enums.PaymentStatus `gorm:"column:payment_status;type:payment_status;not null"`
	PaymentType     *enums.PaymentType  `gorm:"column:payment_type;type:payment_type"`
	ChequeReference *string             `gorm:"column:cheque_reference"`
	AmountPaid      decimal.Decimal     `gorm:"column:amount_paid;type:numeric(12,2);not null;default:0"`
	PaidAt          *time.Time          `gorm:"column:paid_at"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (m *OwnerPaymentDetails) BeforeCreate(*gorm.DB) error {
	assignID(&m.ID)
	return nil
}

// VendorPaymentDetails tracks the franchise's payout of the vendor side.
type VendorPaymentDetails struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	InvoiceMasterID uuid.UUID           `gorm:"column:invoice_master_id;type:uuid;not null;uniqueIndex:ux_vendor_payment_details_invoice"`
	VendorID        uuid.UUID           `gorm:"column:vendor_id;type:uuid;not null"`
	PaymentStatus   enums.PaymentStatus `gorm:"column:payment_status;type:payment_status;not null"`
	PaymentType     *enums.PaymentType  `gorm:"column:payment_type;type:payment_type"`
	ChequeReference *string             `gorm:"column:cheque_reference"`
	AmountPaid      decimal.Decimal     `gorm:"column:amount_paid;type:numeric(12,2);not null;default:0"`
	PaidAt          *time.Time          `gorm:"column:paid_at"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (m *VendorPaymentDetails) BeforeCreate(*gorm.DB) error {
	assignID(&m.ID)
	return nil
}
