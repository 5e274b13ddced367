package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/homeward/settlement-backend/pkg/enums"
)

// ServiceRequest is owned by the dispatch service; this backend only reads it.
// Parent requests bundle recurring or multi-job work through ParentID.
type ServiceRequest struct {
	ID            uuid.UUID                  `gorm:"column:id;type:uuid;primaryKey"`
	Status        enums.ServiceRequestStatus `gorm:"column:status;type:service_request_status;not null"`
	ParentID      *uuid.UUID                 `gorm:"column:parent_id;type:uuid;index"`
	IsParent      bool                       `gorm:"column:is_parent;not null;default:false"`
	FranchiseID   uuid.UUID                  `gorm:"column:franchise_id;type:uuid;not null"`
	PropertyID    uuid.UUID                  `gorm:"column:property_id;type:uuid;not null"`
	OwnerID       uuid.UUID                  `gorm:"column:owner_id;type:uuid;not null"`
	VendorID      *uuid.UUID                 `gorm:"column:vendor_id;type:uuid"`
	ServiceTypeID uuid.UUID                  `gorm:"column:service_type_id;type:uuid;not null"`
	EstimateID    *uuid.UUID                 `gorm:"column:estimate_id;type:uuid"`
	CreatedAt     time.Time                  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time                  `gorm:"column:updated_at;autoUpdateTime"`
}

// ServiceType flags decide which completion strategy prices a request.
type ServiceType struct {
	ID                  uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name                string    `gorm:"column:name;not null"`
	IsStandardHourly    bool      `gorm:"column:is_standard_hourly;not null;default:false"`
	IsHandymanConcierge bool      `gorm:"column:is_handyman_concierge;not null;default:false"`
	IsLinen             bool      `gorm:"column:is_linen;not null;default:false"`
}

// ServiceRequestNote is a free-form note attached to a request.
type ServiceRequestNote struct {
	ID               uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ServiceRequestID uuid.UUID `gorm:"column:service_request_id;type:uuid;not null;index"`
	AuthorID         uuid.UUID `gorm:"column:author_id;type:uuid;not null"`
	Body             string    `gorm:"column:body;not null"`
	IsResolved       bool      `gorm:"column:is_resolved;not null;default:false"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
}

// LinenDetail carries linen-service pricing for a request.
type LinenDetail struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ServiceRequestID uuid.UUID       `gorm:"column:service_request_id;type:uuid;not null;uniqueIndex"`
	BedroomPrice     decimal.Decimal `gorm:"column:bedroom_price;type:numeric(12,2);not null"`
	TotalCharges     decimal.Decimal `gorm:"column:total_charges;type:numeric(12,2);not null"`
}
