package registry

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/homeward/settlement-backend/pkg/config"
	"github.com/homeward/settlement-backend/pkg/db/models"
	"github.com/homeward/settlement-backend/pkg/enums"
	"github.com/homeward/settlement-backend/pkg/outbox"
	"github.com/homeward/settlement-backend/pkg/outbox/payloads"
)

func TestEventRegistryResolveSentToOwner(t *testing.T) {
	reg := newTestEventRegistry(t)

	invoiceID := uuid.New()
	payloadBytes := mustMarshal(t, payloads.InvoiceSentToOwnerEvent{
		InvoiceID: invoiceID,
		Amount:    decimal.RequireFromString("90.00"),
	})

	resolved, err := reg.Resolve(models.OutboxEvent{
		EventType:     enums.EventInvoiceSentToOwner,
		AggregateType: enums.AggregateInvoice,
		AggregateID:   invoiceID,
		Payload:       mustEnvelope(t, payloadBytes),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Descriptor.Topic != "notification-topic" {
		t.Fatalf("unexpected topic %q", resolved.Descriptor.Topic)
	}
	payload, ok := resolved.Payload.(*payloads.InvoiceSentToOwnerEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", resolved.Payload)
	}
	if payload.InvoiceID != invoiceID || !payload.Amount.Equal(decimal.NewFromInt(90)) {
		t.Fatalf("payload mismatch %+v", payload)
	}
	if resolved.Envelope.EventID == "" || resolved.Envelope.OccurredAt.IsZero() {
		t.Fatalf("envelope incomplete %+v", resolved.Envelope)
	}
}

func TestEventRegistryRoutesStatusChangesToDomainTopic(t *testing.T) {
	reg := newTestEventRegistry(t)
	resolved, err := reg.Resolve(models.OutboxEvent{
		EventType:     enums.EventInvoiceStatusChanged,
		AggregateType: enums.AggregateInvoice,
		AggregateID:   uuid.New(),
		Payload: mustEnvelope(t, mustMarshal(t, payloads.InvoiceStatusChangedEvent{
			From: enums.InvoiceStatusOnHold,
			To:   enums.InvoiceStatusSentToOwner,
		})),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Descriptor.Topic != "domain-topic" {
		t.Fatalf("unexpected topic %q", resolved.Descriptor.Topic)
	}
}

func TestEventRegistryResolveErrorsAreNonRetryable(t *testing.T) {
	reg := newTestEventRegistry(t)
	valid := mustEnvelope(t, []byte(`{"invoice_id":"x"}`))

	cases := map[string]models.OutboxEvent{
		"unknown event": {
			EventType:     "ad_created",
			AggregateType: enums.AggregateInvoice,
			AggregateID:   uuid.New(),
			Payload:       valid,
		},
		"aggregate mismatch": {
			EventType:     enums.EventInvoicePaid,
			AggregateType: enums.AggregatePaymentMethod,
			AggregateID:   uuid.New(),
			Payload:       valid,
		},
		"missing aggregate id": {
			EventType:     enums.EventInvoicePaid,
			AggregateType: enums.AggregateInvoice,
			Payload:       valid,
		},
		"bad envelope": {
			EventType:     enums.EventInvoicePaid,
			AggregateType: enums.AggregateInvoice,
			AggregateID:   uuid.New(),
			Payload:       []byte("not json"),
		},
		"future envelope version": {
			EventType:     enums.EventInvoicePaid,
			AggregateType: enums.AggregateInvoice,
			AggregateID:   uuid.New(),
			Payload:       mustMarshal(t, outbox.PayloadEnvelope{Version: outbox.EnvelopeVersion + 1, EventID: uuid.NewString(), Data: []byte(`{}`)}),
		},
		"null data": {
			EventType:     enums.EventInvoicePaid,
			AggregateType: enums.AggregateInvoice,
			AggregateID:   uuid.New(),
			Payload:       mustEnvelope(t, []byte("null")),
		},
	}

	for name, event := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := reg.Resolve(event)
			var nonRetry NonRetryableError
			if !errors.As(err, &nonRetry) {
				t.Fatalf("expected non-retryable error, got %v", err)
			}
		})
	}
}

func TestNewEventRegistryRequiresTopics(t *testing.T) {
	if _, err := NewEventRegistry(config.PubSubConfig{NotificationTopic: "n"}); err == nil {
		t.Fatal("expected missing domain topic error")
	}
	if _, err := NewEventRegistry(config.PubSubConfig{DomainTopic: "d"}); err == nil {
		t.Fatal("expected missing notification topic error")
	}
}

func newTestEventRegistry(t *testing.T) *EventRegistry {
	t.Helper()
	reg, err := NewEventRegistry(config.PubSubConfig{
		DomainTopic:       "domain-topic",
		NotificationTopic: "notification-topic",
	})
	if err != nil {
		t.Fatalf("failed to build registry: %v", err)
	}
	return reg
}

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func mustEnvelope(t *testing.T, data []byte) []byte {
	t.Helper()
	return mustMarshal(t, outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       data,
	})
}
