package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/homeward/settlement-backend/pkg/enums"
)

// InvoiceLineItem is one charge on an invoice. Items with a nil
// FranchiseAdminID are the vendor-only copy; the franchise-owned copy carries
// the admin that owns it.
type InvoiceLineItem struct {
	ID                   uuid.UUID                  `gorm:"column:id;type:uuid;primaryKey"`
	InvoiceMasterID      uuid.UUID                  `gorm:"column:invoice_master_id;type:uuid;not null;index"`
	Title                string                     `gorm:"column:title;not null"`
	Description          *string                    `gorm:"column:description"`
	Price                decimal.Decimal            `gorm:"column:price;type:numeric(12,2);not null"`
	HoursWorked          decimal.Decimal            `gorm:"column:hours_worked;type:numeric(8,2);not null;default:0"`
	Section              enums.LineItemSection      `gorm:"column:section;type:line_item_section;not null"`
	ComputationType      enums.ComputationType      `gorm:"column:computation_type;type:computation_type;not null;default:'add'"`
	IsReadOnly           bool                       `gorm:"column:is_read_only;not null;default:false"`
	ServiceRequestStatus enums.ServiceRequestStatus `gorm:"column:service_request_status;type:service_request_status;not null"`
	VendorID             *uuid.UUID                 `gorm:"column:vendor_id;type:uuid"`
	FranchiseAdminID     *uuid.UUID                 `gorm:"column:franchise_admin_id;type:uuid"`
	CreatedAt            time.Time                  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time                  `gorm:"column:updated_at;autoUpdateTime"`
}

func (m *InvoiceLineItem) BeforeCreate(*gorm.DB) error {
	assignID(&m.ID)
	return nil
}

// IsVendorOnly reports whether the item belongs to the vendor-facing set.
func (m InvoiceLineItem) IsVendorOnly() bool {
	return m.FranchiseAdminID == nil
}
