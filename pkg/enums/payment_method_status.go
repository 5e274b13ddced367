package enums

import "fmt"

// PaymentMethodStatus tracks gateway verification of a saved payment method.
type PaymentMethodStatus string

const (
	PaymentMethodStatusCreated             PaymentMethodStatus = "created"
	PaymentMethodStatusVerificationPending PaymentMethodStatus = "verification_pending"
	PaymentMethodStatusSucceeded           PaymentMethodStatus = "succeeded"
	PaymentMethodStatusFailed              PaymentMethodStatus = "failed"
)

var validPaymentMethodStatuses = []PaymentMethodStatus{
	PaymentMethodStatusCreated,
	PaymentMethodStatusVerificationPending,
	PaymentMethodStatusSucceeded,
	PaymentMethodStatusFailed,
}

// String implements fmt.Stringer.
func (p PaymentMethodStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethodStatus.
func (p PaymentMethodStatus) IsValid() bool {
	for _, candidate := range validPaymentMethodStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentMethodStatus converts raw input into a PaymentMethodStatus.
func ParsePaymentMethodStatus(value string) (PaymentMethodStatus, error) {
	for _, candidate := range validPaymentMethodStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method status %q", value)
}
