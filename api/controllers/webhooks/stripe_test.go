package webhooks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"

	stripewebhook "github.com/homeward/settlement-backend/internal/webhooks/stripe"
)

const testSecret = "whsec_test"

func TestStripeWebhookAppliesOnceAndAcknowledgesReplay(t *testing.T) {
	franchiseID := uuid.New()
	payload, header := buildSignedEvent(t, testSecret)
	service := &fakeStripeWebhookService{}
	handler := StripeWebhook(service, fakeSecrets{franchiseID: testSecret}, newGuard(t), nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, webhookRequest(franchiseID.String(), payload, header))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	replay := httptest.NewRecorder()
	handler.ServeHTTP(replay, webhookRequest(franchiseID.String(), payload, header))
	require.Equal(t, http.StatusOK, replay.Code)
	assert.Equal(t, 1, service.calls)
}

func TestStripeWebhookScopesReplayPerFranchise(t *testing.T) {
	first, second := uuid.New(), uuid.New()
	payload, header := buildSignedEvent(t, testSecret)
	service := &fakeStripeWebhookService{}
	handler := StripeWebhook(service, fakeSecrets{first: testSecret, second: testSecret}, newGuard(t), nil)

	handler.ServeHTTP(httptest.NewRecorder(), webhookRequest(first.String(), payload, header))
	handler.ServeHTTP(httptest.NewRecorder(), webhookRequest(second.String(), payload, header))
	assert.Equal(t, 2, service.calls)
}

func TestStripeWebhookRejectsOtherFranchiseSecret(t *testing.T) {
	franchiseID := uuid.New()
	payload, header := buildSignedEvent(t, "whsec_other")
	service := &fakeStripeWebhookService{}

	rec := httptest.NewRecorder()
	StripeWebhook(service, fakeSecrets{franchiseID: testSecret}, newGuard(t), nil).
		ServeHTTP(rec, webhookRequest(franchiseID.String(), payload, header))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, service.calls)
}

func TestStripeWebhookRequiresSignature(t *testing.T) {
	franchiseID := uuid.New()
	payload, _ := buildSignedEvent(t, testSecret)

	rec := httptest.NewRecorder()
	StripeWebhook(&fakeStripeWebhookService{}, fakeSecrets{franchiseID: testSecret}, newGuard(t), nil).
		ServeHTTP(rec, webhookRequest(franchiseID.String(), payload, ""))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStripeWebhookUnknownFranchise(t *testing.T) {
	payload, header := buildSignedEvent(t, testSecret)

	rec := httptest.NewRecorder()
	StripeWebhook(&fakeStripeWebhookService{}, fakeSecrets{}, newGuard(t), nil).
		ServeHTTP(rec, webhookRequest(uuid.NewString(), payload, header))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStripeWebhookReleasesKeyWhenHandlingFails(t *testing.T) {
	franchiseID := uuid.New()
	payload, header := buildSignedEvent(t, testSecret)
	service := &fakeStripeWebhookService{err: errors.New("db down")}
	handler := StripeWebhook(service, fakeSecrets{franchiseID: testSecret}, newGuard(t), nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, webhookRequest(franchiseID.String(), payload, header))
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	service.err = nil
	retry := httptest.NewRecorder()
	handler.ServeHTTP(retry, webhookRequest(franchiseID.String(), payload, header))
	require.Equal(t, http.StatusOK, retry.Code)
	assert.Equal(t, 2, service.calls)
}

func newGuard(t *testing.T) *stripewebhook.IdempotencyGuard {
	t.Helper()
	guard, err := stripewebhook.NewIdempotencyGuard(newInMemoryStore(), time.Minute, "stripe-webhook")
	require.NoError(t, err)
	return guard
}

func webhookRequest(franchiseID string, payload []byte, header string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe/"+franchiseID, bytes.NewReader(payload))
	if header != "" {
		req.Header.Set("Stripe-Signature", header)
	}
	rc := chi.NewRouteContext()
	rc.URLParams.Add("franchiseId", franchiseID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func buildSignedEvent(t *testing.T, secret string) ([]byte, string) {
	t.Helper()
	intent := &stripe.PaymentIntent{
		ID:     "pi_" + uuid.NewString(),
		Amount: 25000,
		Status: stripe.PaymentIntentStatusSucceeded,
		Metadata: map[string]string{
			"invoice_uuid": uuid.NewString(),
		},
	}
	raw, err := json.Marshal(intent)
	require.NoError(t, err)
	event := &stripe.Event{
		ID:         "evt_" + uuid.NewString(),
		Type:       stripe.EventTypePaymentIntentSucceeded,
		Object:     "event",
		APIVersion: stripe.APIVersion,
		Data:       &stripe.EventData{Raw: raw},
	}
	payload, err := json.Marshal(event)
	require.NoError(t, err)
	return payload, signatureHeader(payload, secret, time.Now().Unix())
}

func signatureHeader(payload []byte, secret string, ts int64) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", ts, payload)))
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

type fakeStripeWebhookService struct {
	calls int
	err   error
}

func (f *fakeStripeWebhookService) HandleEvent(context.Context, *stripe.Event) error {
	f.calls++
	return f.err
}

type fakeSecrets map[uuid.UUID]string

func (f fakeSecrets) SigningSecret(_ context.Context, franchiseID uuid.UUID) (string, error) {
	secret, ok := f[franchiseID]
	if !ok {
		return "", errors.New("franchise has no payment account")
	}
	return secret, nil
}

type inMemoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newInMemoryStore() *inMemoryStore {
	return &inMemoryStore{data: make(map[string]string)}
}

func (s *inMemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[key], nil
}

func (s *inMemoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[key]; exists {
		return false, nil
	}
	s.data[key] = fmt.Sprintf("%v", value)
	return true, nil
}

func (s *inMemoryStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("hw:idempotency:%s:%s", scope, id)
}

func (s *inMemoryStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}
