package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/homeward/settlement-backend/pkg/enums"
)

// InvoiceMaster is the single invoice carried by a service request. Vendor and
// franchise sides are tracked independently: the vendor side is what the
// franchise owes the vendor, the franchise side is what the owner owes.
type InvoiceMaster struct {
	ID                        uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	ServiceRequestID          uuid.UUID            `gorm:"column:service_request_id;type:uuid;not null;uniqueIndex:ux_invoice_masters_service_request"`
	FranchiseID               uuid.UUID            `gorm:"column:franchise_id;type:uuid;not null;index"`
	OwnerID                   uuid.UUID            `gorm:"column:owner_id;type:uuid;not null;index"`
	VendorID                  *uuid.UUID           `gorm:"column:vendor_id;type:uuid"`
	Status                    enums.InvoiceStatus  `gorm:"column:status;type:invoice_status;not null"`
	NextStatus                *enums.InvoiceStatus `gorm:"column:next_status;type:invoice_status"`
	VendorTotal               decimal.Decimal      `gorm:"column:vendor_total;type:numeric(12,2);not null;default:0"`
	VendorRemainingBalance    decimal.Decimal      `gorm:"column:vendor_remaining_balance;type:numeric(12,2);not null;default:0"`
	FranchiseTotal            decimal.Decimal      `gorm:"column:franchise_total;type:numeric(12,2);not null;default:0"`
	FranchiseRemainingBalance decimal.Decimal      `gorm:"column:franchise_remaining_balance;type:numeric(12,2);not null;default:0"`
	DepositAmount             decimal.Decimal      `gorm:"column:deposit_amount;type:numeric(12,2);not null;default:0"`
	DepositPaid               bool                 `gorm:"column:deposit_paid;not null;default:false"`
	DepositPayerID            *uuid.UUID           `gorm:"column:deposit_payer_id;type:uuid"`
	DepositPaidAt             *time.Time           `gorm:"column:deposit_paid_at"`
	DiscountPercentage        decimal.Decimal      `gorm:"column:discount_percentage;type:numeric(5,2);not null;default:0"`
	InvoiceUUID               *uuid.UUID           `gorm:"column:invoice_uuid;type:uuid;index"`
	PaymentMethodID           *uuid.UUID           `gorm:"column:payment_method_id;type:uuid"`
	SentToOwnerAt             *time.Time           `gorm:"column:sent_to_owner_at"`
	PaidAt                    *time.Time           `gorm:"column:paid_at"`
	FranchiseUpdatedAt        *time.Time           `gorm:"column:franchise_updated_at"`
	CreatedAt                 time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt                 time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (m *InvoiceMaster) BeforeCreate(*gorm.DB) error {
	assignID(&m.ID)
	return nil
}

// ApplyDepositOffset re-derives both remaining balances from the totals once the
// deposit is paid: remaining = total - deposit on each side.
func (m *InvoiceMaster) ApplyDepositOffset() {
	if !m.DepositPaid {
		return
	}
	m.VendorRemainingBalance = m.VendorTotal.Sub(m.DepositAmount)
	m.FranchiseRemainingBalance = m.FranchiseTotal.Sub(m.DepositAmount)
}
