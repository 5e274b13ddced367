package enums

import "fmt"

// PaymentPurpose is stamped into gateway metadata so webhooks know what a charge paid for.
type PaymentPurpose string

const (
	PaymentPurposeInvoice    PaymentPurpose = "invoice"
	PaymentPurposeDeposit    PaymentPurpose = "deposit"
	PaymentPurposeMembership PaymentPurpose = "membership"
)

var validPaymentPurposes = []PaymentPurpose{
	PaymentPurposeInvoice,
	PaymentPurposeDeposit,
	PaymentPurposeMembership,
}

// String implements fmt.Stringer.
func (p PaymentPurpose) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentPurpose.
func (p PaymentPurpose) IsValid() bool {
	for _, candidate := range validPaymentPurposes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentPurpose converts raw input into a PaymentPurpose.
func ParsePaymentPurpose(value string) (PaymentPurpose, error) {
	for _, candidate := range validPaymentPurposes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment purpose %q", value)
}
