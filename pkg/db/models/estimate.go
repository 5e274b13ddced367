package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/homeward/settlement-backend/pkg/enums"
)

// EstimateDetail is a priced proposal the owner approves before work starts.
type EstimateDetail struct {
	ID                uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ServiceRequestID  uuid.UUID `gorm:"column:service_request_id;type:uuid;not null;index"`
	ServiceTypeID     uuid.UUID `gorm:"column:service_type_id;type:uuid;not null"`
	IsSentToOwner     bool      `gorm:"column:is_sent_to_owner;not null;default:false"`
	IsApprovedByOwner bool      `gorm:"column:is_approved_by_owner;not null;default:false"`
}

// EstimateLineItem follows the same vendor/franchise split as invoice items.
type EstimateLineItem struct {
	ID               uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	EstimateID       uuid.UUID             `gorm:"column:estimate_id;type:uuid;not null;index"`
	Title            string                `gorm:"column:title;not null"`
	Description      *string               `gorm:"column:description"`
	Price            decimal.Decimal       `gorm:"column:price;type:numeric(12,2);not null"`
	Section          enums.LineItemSection `gorm:"column:section;type:line_item_section;not null"`
	FranchiseAdminID *uuid.UUID            `gorm:"column:franchise_admin_id;type:uuid"`
}
