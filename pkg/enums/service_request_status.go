package enums

import "fmt"

// ServiceRequestStatus mirrors the lifecycle of a work order owned by the dispatch service.
type ServiceRequestStatus string

const (
	ServiceRequestStatusNew                   ServiceRequestStatus = "new"
	ServiceRequestStatusDepositRequired       ServiceRequestStatus = "deposit_required"
	ServiceRequestStatusInProgress            ServiceRequestStatus = "in_progress"
	ServiceRequestStatusPartiallyCompleted    ServiceRequestStatus = "partially_completed"
	ServiceRequestStatusCompletedSuccessfully ServiceRequestStatus = "completed_successfully"
	ServiceRequestStatusCancelled             ServiceRequestStatus = "cancelled"
)

var validServiceRequestStatuses = []ServiceRequestStatus{
	ServiceRequestStatusNew,
	ServiceRequestStatusDepositRequired,
	ServiceRequestStatusInProgress,
	ServiceRequestStatusPartiallyCompleted,
	ServiceRequestStatusCompletedSuccessfully,
	ServiceRequestStatusCancelled,
}

// String implements fmt.Stringer.
func (s ServiceRequestStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ServiceRequestStatus.
func (s ServiceRequestStatus) IsValid() bool {
	for _, candidate := range validServiceRequestStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseServiceRequestStatus converts raw input into a ServiceRequestStatus.
func ParseServiceRequestStatus(value string) (ServiceRequestStatus, error) {
	for _, candidate := range validServiceRequestStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid service request status %q", value)
}

// IsCompleted reports whether the request reached a terminal completion state.
func (s ServiceRequestStatus) IsCompleted() bool {
	return s == ServiceRequestStatusPartiallyCompleted || s == ServiceRequestStatusCompletedSuccessfully
}
