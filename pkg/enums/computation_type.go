package enums

import "fmt"

// ComputationType tells consumers how a line item contributes to the total.
type ComputationType string

const (
	ComputationTypeAdd ComputationType = "add"
)

var validComputationTypes = []ComputationType{
	ComputationTypeAdd,
}

// String implements fmt.Stringer.
func (c ComputationType) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ComputationType.
func (c ComputationType) IsValid() bool {
	for _, candidate := range validComputationTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseComputationType converts raw input into a ComputationType.
func ParseComputationType(value string) (ComputationType, error) {
	for _, candidate := range validComputationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid computation type %q", value)
}
