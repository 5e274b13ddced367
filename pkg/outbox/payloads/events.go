package payloads

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/homeward/settlement-backend/pkg/enums"
)

// InvoiceSentToOwnerEvent is the status push the owner app listens for.
type InvoiceSentToOwnerEvent struct {
	InvoiceID        uuid.UUID       `json:"invoice_id"`
	ServiceRequestID uuid.UUID       `json:"service_request_id"`
	OwnerID          uuid.UUID       `json:"owner_id"`
	FranchiseID      uuid.UUID       `json:"franchise_id"`
	Amount           decimal.Decimal `json:"amount"`
}

// InvoiceStatusChangedEvent mirrors every persisted status transition.
type InvoiceStatusChangedEvent struct {
	InvoiceID        uuid.UUID           `json:"invoice_id"`
	ServiceRequestID uuid.UUID           `json:"service_request_id"`
	From             enums.InvoiceStatus `json:"from"`
	To               enums.InvoiceStatus `json:"to"`
}

// InvoicePaymentEvent covers both the paid and failed outcomes.
type InvoicePaymentEvent struct {
	InvoiceID   uuid.UUID       `json:"invoice_id"`
	InvoiceUUID uuid.UUID       `json:"invoice_uuid"`
	OwnerID     uuid.UUID       `json:"owner_id"`
	Amount      decimal.Decimal `json:"amount"`
	Message     string          `json:"message,omitempty"`
}

type PaymentMethodVerifiedEvent struct {
	PaymentMethodID uuid.UUID `json:"payment_method_id"`
	OwnerID         uuid.UUID `json:"owner_id"`
	FranchiseID     uuid.UUID `json:"franchise_id"`
}

type MembershipPaymentSettledEvent struct {
	TransactionID uuid.UUID                         `json:"transaction_id"`
	TierID        uuid.UUID                         `json:"tier_id"`
	Status        enums.MembershipTransactionStatus `json:"status"`
}
