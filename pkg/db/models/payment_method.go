package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/homeward/settlement-backend/pkg/enums"
)

// PaymentMethod mirrors a gateway payment method saved through a setup intent.
type PaymentMethod struct {
	ID                     uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	OwnerID                uuid.UUID                 `gorm:"column:owner_id;type:uuid;not null;index"`
	PropertyID             *uuid.UUID                `gorm:"column:property_id;type:uuid;index"`
	FranchiseID            uuid.UUID                 `gorm:"column:franchise_id;type:uuid;not null"`
	SetupIntentID          string                    `gorm:"column:setup_intent_id;not null;uniqueIndex:ux_payment_methods_setup_intent"`
	GatewayCustomerID      string                    `gorm:"column:gateway_customer_id;not null"`
	GatewayPaymentMethodID *string                   `gorm:"column:gateway_payment_method_id"`
	Status                 enums.PaymentMethodStatus `gorm:"column:status;type:payment_method_status;not null"`
	Type                   enums.PaymentType         `gorm:"column:type;type:payment_type;not null;default:'card'"`
	Brand                  *string                   `gorm:"column:brand"`
	Last4                  *string                   `gorm:"column:last4"`
	IsDefault              bool                      `gorm:"column:is_default;not null;default:false"`
	CreatedAt              time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}

func (m *PaymentMethod) BeforeCreate(*gorm.DB) error {
	assignID(&m.ID)
	return nil
}

// FranchisePaymentAccount holds the gateway credentials a franchise charges with.
type FranchisePaymentAccount struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	FranchiseID   uuid.UUID `gorm:"column:franchise_id;type:uuid;not null;uniqueIndex:ux_franchise_payment_accounts_franchise"`
	SecretKey     string    `gorm:"column:secret_key;not null"`
	WebhookSecret string    `gorm:"column:webhook_secret;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (m *FranchisePaymentAccount) BeforeCreate(*gorm.DB) error {
	assignID(&m.ID)
	return nil
}
