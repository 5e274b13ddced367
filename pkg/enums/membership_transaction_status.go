package enums

import "fmt"

// MembershipTransactionStatus tracks one periodic membership charge.
type MembershipTransactionStatus string

const (
	MembershipTransactionCreated    MembershipTransactionStatus = "created"
	MembershipTransactionProcessing MembershipTransactionStatus = "processing"
	MembershipTransactionFailed     MembershipTransactionStatus = "failed"
	MembershipTransactionSuccess    MembershipTransactionStatus = "success"
)

var validMembershipTransactionStatuses = []MembershipTransactionStatus{
	MembershipTransactionCreated,
	MembershipTransactionProcessing,
	MembershipTransactionFailed,
	MembershipTransactionSuccess,
}

// String implements fmt.Stringer.
func (m MembershipTransactionStatus) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MembershipTransactionStatus.
func (m MembershipTransactionStatus) IsValid() bool {
	for _, candidate := range validMembershipTransactionStatuses {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMembershipTransactionStatus converts raw input into a MembershipTransactionStatus.
func ParseMembershipTransactionStatus(value string) (MembershipTransactionStatus, error) {
	for _, candidate := range validMembershipTransactionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid membership transaction status %q", value)
}
