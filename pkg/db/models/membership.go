package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/homeward/settlement-backend/pkg/enums"
)

// MembershipTier is the paid plan attached to a property.
type MembershipTier struct {
	ID              uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	PropertyID      uuid.UUID                 `gorm:"column:property_id;type:uuid;not null;uniqueIndex:ux_membership_tiers_property"`
	FranchiseID     uuid.UUID                 `gorm:"column:franchise_id;type:uuid;not null"`
	OwnerID         uuid.UUID                 `gorm:"column:owner_id;type:uuid;not null"`
	Tier            enums.MembershipTierLevel `gorm:"column:tier;type:membership_tier;not null;default:'free'"`
	Amount          decimal.Decimal           `gorm:"column:amount;type:numeric(12,2);not null;default:0"`
	NextDueDate     *time.Time                `gorm:"column:next_due_date;index"`
	PaymentMethodID *uuid.UUID                `gorm:"column:payment_method_id;type:uuid"`
	CreatedAt       time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}

func (m *MembershipTier) BeforeCreate(*gorm.DB) error {
	assignID(&m.ID)
	return nil
}

// MembershipTransaction is a single periodic membership charge.
type MembershipTransaction struct {
	ID               uuid.UUID                         `gorm:"column:id;type:uuid;primaryKey"`
	MembershipTierID uuid.UUID                         `gorm:"column:membership_tier_id;type:uuid;not null;index"`
	Amount           decimal.Decimal                   `gorm:"column:amount;type:numeric(12,2);not null"`
	Status           enums.MembershipTransactionStatus `gorm:"column:status;type:membership_transaction_status;not null"`
	InvoiceUUID      uuid.UUID                         `gorm:"column:invoice_uuid;type:uuid;not null;uniqueIndex:ux_membership_transactions_invoice_uuid"`
	IsFirst          bool                              `gorm:"column:is_first;not null;default:false"`
	PeriodEnd        time.Time                         `gorm:"column:period_end;not null"`
	FailureMessage   *string                           `gorm:"column:failure_message"`
	CreatedAt        time.Time                         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time                         `gorm:"column:updated_at;autoUpdateTime"`
}

func (m *MembershipTransaction) BeforeCreate(*gorm.DB) error {
	assignID(&m.ID)
	return nil
}
