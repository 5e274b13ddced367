package billing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homeward/settlement-backend/api/middleware"
	billingsvc "github.com/homeward/settlement-backend/internal/billing"
	"github.com/homeward/settlement-backend/internal/paymentmethods"
	"github.com/homeward/settlement-backend/pkg/db/models"
	"github.com/homeward/settlement-backend/pkg/enums"
)

type stubMethods struct {
	setup    paymentmethods.SetupIntentInput
	detached uuid.UUID
	methods  []models.PaymentMethod
}

func (s *stubMethods) CreateSetupIntent(_ context.Context, input paymentmethods.SetupIntentInput) (*paymentmethods.SetupIntentOutput, error) {
	s.setup = input
	return &paymentmethods.SetupIntentOutput{
		PaymentMethod: &models.PaymentMethod{ID: uuid.New(), OwnerID: input.OwnerID, Status: enums.PaymentMethodStatusCreated, Type: enums.PaymentTypeCard},
		ClientSecret:  "seti_secret",
	}, nil
}

func (s *stubMethods) DetachPaymentMethod(_ context.Context, _, methodID uuid.UUID) error {
	s.detached = methodID
	return nil
}

func (s *stubMethods) ListPaymentMethods(context.Context, uuid.UUID) ([]models.PaymentMethod, error) {
	return s.methods, nil
}

type stubPayer struct {
	input   billingsvc.PayDueInput
	outcome billingsvc.ChargeOutcome
}

func (s *stubPayer) PayDueInvoices(_ context.Context, input billingsvc.PayDueInput) (*billingsvc.ChargeOutcome, error) {
	s.input = input
	return &s.outcome, nil
}

func ownerRequest(method, body string, ownerID uuid.UUID, role enums.ActorRole) *http.Request {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	return req.WithContext(middleware.WithActor(req.Context(), ownerID.String(), string(role), ""))
}

func TestOwnerSetupIntentCreate(t *testing.T) {
	svc := &stubMethods{}
	ownerID := uuid.New()
	franchiseID := uuid.New()
	body := `{"franchise_id":"` + franchiseID.String() + `","payment_type":"us_bank_account","is_default":true}`

	rec := httptest.NewRecorder()
	OwnerSetupIntentCreate(svc, nil).ServeHTTP(rec, ownerRequest(http.MethodPost, body, ownerID, enums.ActorRoleOwner))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, ownerID, svc.setup.OwnerID)
	assert.Equal(t, franchiseID, svc.setup.FranchiseID)
	assert.Equal(t, enums.PaymentTypeUSBankAccount, svc.setup.PaymentType)
	assert.True(t, svc.setup.IsDefault)
	assert.Nil(t, svc.setup.PropertyID)

	var payload struct {
		Data setupIntentResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "seti_secret", payload.Data.ClientSecret)
}

func TestOwnerSetupIntentCreateRejectsCash(t *testing.T) {
	body := `{"franchise_id":"` + uuid.NewString() + `","payment_type":"cash"}`
	rec := httptest.NewRecorder()
	OwnerSetupIntentCreate(&stubMethods{}, nil).ServeHTTP(rec, ownerRequest(http.MethodPost, body, uuid.New(), enums.ActorRoleOwner))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOwnerEndpointsRequireOwnerRole(t *testing.T) {
	rec := httptest.NewRecorder()
	OwnerPaymentMethodList(&stubMethods{}, nil).ServeHTTP(rec, ownerRequest(http.MethodGet, "", uuid.New(), enums.ActorRoleVendor))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestOwnerPaymentMethodDelete(t *testing.T) {
	svc := &stubMethods{}
	methodID := uuid.New()
	req := ownerRequest(http.MethodDelete, "", uuid.New(), enums.ActorRoleOwner)
	rc := chi.NewRouteContext()
	rc.URLParams.Add("paymentMethodId", methodID.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))

	rec := httptest.NewRecorder()
	OwnerPaymentMethodDelete(svc, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, methodID, svc.detached)
}

func TestOwnerPayInvoices(t *testing.T) {
	invoiceID := uuid.New()
	methodID := uuid.New()
	payer := &stubPayer{outcome: billingsvc.ChargeOutcome{InvoiceUUID: uuid.New(), Amount: decimal.NewFromInt(250)}}
	body := `{"invoice_ids":["` + invoiceID.String() + `"],"payment_method_id":"` + methodID.String() + `"}`

	rec := httptest.NewRecorder()
	OwnerPayInvoices(payer, nil).ServeHTTP(rec, ownerRequest(http.MethodPost, body, uuid.New(), enums.ActorRoleOwner))

	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.Equal(t, []uuid.UUID{invoiceID}, payer.input.InvoiceIDs)
	assert.Equal(t, methodID, payer.input.PaymentMethodID)
}

func TestOwnerPayInvoicesReportsDecline(t *testing.T) {
	payer := &stubPayer{outcome: billingsvc.ChargeOutcome{Failed: true, Message: "card declined"}}
	body := `{"invoice_ids":["` + uuid.NewString() + `"],"payment_method_id":"` + uuid.NewString() + `"}`

	rec := httptest.NewRecorder()
	OwnerPayInvoices(payer, nil).ServeHTTP(rec, ownerRequest(http.MethodPost, body, uuid.New(), enums.ActorRoleOwner))

	require.Equal(t, http.StatusPaymentRequired, rec.Code)
	var payload struct {
		Data payResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.True(t, payload.Data.Failed)
	assert.Equal(t, "card declined", payload.Data.Message)
}

func TestOwnerPayInvoicesRequiresInvoices(t *testing.T) {
	payer := &stubPayer{}
	body := `{"invoice_ids":[],"payment_method_id":"` + uuid.NewString() + `"}`

	rec := httptest.NewRecorder()
	OwnerPayInvoices(payer, nil).ServeHTTP(rec, ownerRequest(http.MethodPost, body, uuid.New(), enums.ActorRoleOwner))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, uuid.Nil, payer.input.OwnerID)
}
