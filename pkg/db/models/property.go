package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Property is read-only here; AutoChargeEnabled opts the owner into charging
// the default payment method as soon as an invoice is sent.
type Property struct {
	ID                uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	FranchiseID       uuid.UUID `gorm:"column:franchise_id;type:uuid;not null"`
	OwnerID           uuid.UUID `gorm:"column:owner_id;type:uuid;not null"`
	Name              string    `gorm:"column:name;not null"`
	AutoChargeEnabled bool      `gorm:"column:auto_charge_enabled;not null;default:false"`
}

// PropertyServiceTypeRate is a negotiated price for a service type at a property.
type PropertyServiceTypeRate struct {
	ID                 uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	PropertyID         uuid.UUID       `gorm:"column:property_id;type:uuid;not null;uniqueIndex:ux_property_service_type_rates"`
	ServiceTypeID      uuid.UUID       `gorm:"column:service_type_id;type:uuid;not null;uniqueIndex:ux_property_service_type_rates"`
	VendorCharge       decimal.Decimal `gorm:"column:vendor_charge;type:numeric(12,2);not null;default:0"`
	OwnerCharge        decimal.Decimal `gorm:"column:owner_charge;type:numeric(12,2);not null;default:0"`
	DiscountPercentage decimal.Decimal `gorm:"column:discount_percentage;type:numeric(5,2);not null;default:0"`
}

// IsComplete reports whether both sides of the rate are priced.
func (r PropertyServiceTypeRate) IsComplete() bool {
	return r.VendorCharge.IsPositive() && r.OwnerCharge.IsPositive()
}
