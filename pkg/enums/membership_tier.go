package enums

import "fmt"

// MembershipTierLevel is the paid plan a property is enrolled in.
type MembershipTierLevel string

const (
	MembershipTierFree      MembershipTierLevel = "free"
	MembershipTierEssential MembershipTierLevel = "essential"
	MembershipTierPremium   MembershipTierLevel = "premium"
)

var validMembershipTierLevels = []MembershipTierLevel{
	MembershipTierFree,
	MembershipTierEssential,
	MembershipTierPremium,
}

// String implements fmt.Stringer.
func (m MembershipTierLevel) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MembershipTierLevel.
func (m MembershipTierLevel) IsValid() bool {
	for _, candidate := range validMembershipTierLevels {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMembershipTierLevel converts raw input into a MembershipTierLevel.
func ParseMembershipTierLevel(value string) (MembershipTierLevel, error) {
	for _, candidate := range validMembershipTierLevels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid membership tier %q", value)
}
