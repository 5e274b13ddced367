package enums

import "fmt"

// OutboxDLQErrorReason records why an outbox row stopped being retried.
type OutboxDLQErrorReason string

const (
	// OutboxDLQReasonUnroutable means no descriptor or payload decoder matched the row.
	OutboxDLQReasonUnroutable  OutboxDLQErrorReason = "unroutable"
	OutboxDLQReasonRejected    OutboxDLQErrorReason = "rejected"
	OutboxDLQReasonMaxAttempts OutboxDLQErrorReason = "max_attempts"
)

func (r OutboxDLQErrorReason) String() string {
	return string(r)
}

func (r OutboxDLQErrorReason) IsValid() bool {
	switch r {
	case OutboxDLQReasonUnroutable, OutboxDLQReasonRejected, OutboxDLQReasonMaxAttempts:
		return true
	default:
		return false
	}
}

func ParseOutboxDLQErrorReason(value string) (OutboxDLQErrorReason, error) {
	reason := OutboxDLQErrorReason(value)
	if !reason.IsValid() {
		return "", fmt.Errorf("invalid outbox dlq reason %q", value)
	}
	return reason, nil
}
