package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EnvelopeVersion is written on every new row; subscribers reject newer ones.
const EnvelopeVersion = 1

// ActorRef identifies who triggered the settlement change. DelegatedBy is set
// when an admin acted through another user's session.
type ActorRef struct {
	UserID      uuid.UUID  `json:"userId"`
	Role        string     `json:"role,omitempty"`
	DelegatedBy *uuid.UUID `json:"delegatedBy,omitempty"`
}

// PayloadEnvelope is the stable payload structure stored in outbox_events.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

// DecodeEnvelope parses a stored row and rejects versions this build cannot read.
func DecodeEnvelope(raw []byte) (PayloadEnvelope, error) {
	var envelope PayloadEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return PayloadEnvelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if envelope.Version < 1 || envelope.Version > EnvelopeVersion {
		return PayloadEnvelope{}, fmt.Errorf("unsupported envelope version %d", envelope.Version)
	}
	if envelope.EventID == "" {
		return PayloadEnvelope{}, fmt.Errorf("envelope missing event id")
	}
	return envelope, nil
}
