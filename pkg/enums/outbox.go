package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateInvoice               OutboxAggregateType = "invoice"
	AggregatePaymentMethod         OutboxAggregateType = "payment_method"
	AggregateMembershipTransaction OutboxAggregateType = "membership_transaction"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateInvoice,
	AggregatePaymentMethod,
	AggregateMembershipTransaction,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventInvoiceSentToOwner       OutboxEventType = "invoice_sent_to_owner"
	EventInvoiceStatusChanged     OutboxEventType = "invoice_status_changed"
	EventInvoicePaid              OutboxEventType = "invoice_paid"
	EventInvoicePaymentFailed     OutboxEventType = "invoice_payment_failed"
	EventPaymentMethodVerified    OutboxEventType = "payment_method_verified"
	EventMembershipPaymentSettled OutboxEventType = "membership_payment_settled"
)

var validOutboxEventTypes = []OutboxEventType{
	EventInvoiceSentToOwner,
	EventInvoiceStatusChanged,
	EventInvoicePaid,
	EventInvoicePaymentFailed,
	EventPaymentMethodVerified,
	EventMembershipPaymentSettled,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
