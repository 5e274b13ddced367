package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PaymentLog is an append-only record of every gateway callback applied to an
// invoice or membership charge. Rows are never updated.
type PaymentLog struct {
	ID                      uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	InvoiceUUID             uuid.UUID       `gorm:"column:invoice_uuid;type:uuid;not null;index"`
	InvoiceMasterID         *uuid.UUID      `gorm:"column:invoice_master_id;type:uuid;index"`
	MembershipTransactionID *uuid.UUID      `gorm:"column:membership_transaction_id;type:uuid"`
	GatewayEventID          string          `gorm:"column:gateway_event_id;not null"`
	EventType               string          `gorm:"column:event_type;not null"`
	GatewayObjectID         string          `gorm:"column:gateway_object_id;not null"`
	Status                  string          `gorm:"column:status;not null"`
	Amount                  decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null;default:0"`
	Payload                 datatypes.JSON  `gorm:"column:payload;type:jsonb"`
	CreatedAt               time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (m *PaymentLog) BeforeCreate(*gorm.DB) error {
	assignID(&m.ID)
	return nil
}
