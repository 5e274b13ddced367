package enums

import "fmt"

// InvoiceStatus maps to the invoice_status enum in Postgres.
type InvoiceStatus string

const (
	InvoiceStatusCreated               InvoiceStatus = "created"
	InvoiceStatusSubmittedToAdmin      InvoiceStatus = "submitted_to_admin"
	InvoiceStatusSentToOwner           InvoiceStatus = "sent_to_owner"
	InvoiceStatusOnHold                InvoiceStatus = "on_hold"
	InvoiceStatusPaidByOwnerProcessing InvoiceStatus = "paid_by_owner_processing"
	InvoiceStatusPaidByOwnerFailed     InvoiceStatus = "paid_by_owner_failed"
	InvoiceStatusPaidByOwnerSuccess    InvoiceStatus = "paid_by_owner_success"
)

var validInvoiceStatuses = []InvoiceStatus{
	InvoiceStatusCreated,
	InvoiceStatusSubmittedToAdmin,
	InvoiceStatusSentToOwner,
	InvoiceStatusOnHold,
	InvoiceStatusPaidByOwnerProcessing,
	InvoiceStatusPaidByOwnerFailed,
	InvoiceStatusPaidByOwnerSuccess,
}

// String implements fmt.Stringer.
func (i InvoiceStatus) String() string {
	return string(i)
}

// IsValid reports whether the value is a known InvoiceStatus.
func (i InvoiceStatus) IsValid() bool {
	for _, candidate := range validInvoiceStatuses {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseInvoiceStatus converts raw input into a InvoiceStatus.
func ParseInvoiceStatus(value string) (InvoiceStatus, error) {
	for _, candidate := range validInvoiceStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid invoice status %q", value)
}

// IsOwnerFacing reports whether the owner can see (and pay) an invoice in this status.
func (i InvoiceStatus) IsOwnerFacing() bool {
	switch i {
	case InvoiceStatusSentToOwner,
		InvoiceStatusPaidByOwnerProcessing,
		InvoiceStatusPaidByOwnerFailed,
		InvoiceStatusPaidByOwnerSuccess:
		return true
	default:
		return false
	}
}
