package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"

	"github.com/homeward/settlement-backend/pkg/enums"
)

// Metadata keys stamped on every intent so webhooks can find their way back.
const (
	MetadataInvoiceUUID = "invoice_uuid"
	MetadataFranchiseID = "franchise_id"
	MetadataPurpose     = "purpose"
	MetadataNextDueDate = "next_due_date"
)

const currencyUSD = "usd"

// Gateway is the payment surface the settlement code depends on.
type Gateway interface {
	ProcessCharge(ctx context.Context, req ChargeRequest) ChargeResult
	CreateSetupIntent(ctx context.Context, req SetupIntentRequest) (*SetupIntentResult, error)
	RetrievePaymentMethod(ctx context.Context, paymentMethodID string) (*PaymentMethodDetails, error)
	DetachPaymentMethod(ctx context.Context, paymentMethodID string) error
}

// ChargeRequest describes one off-session charge of a saved instrument.
type ChargeRequest struct {
	Amount          decimal.Decimal
	CustomerID      string
	PaymentMethodID string
	PaymentType     enums.PaymentType
	Description     string
	Metadata        map[string]string
}

// ChargeResult reports gateway failures as values; ProcessCharge never returns an error.
type ChargeResult struct {
	Error    bool
	Message  string
	IntentID string
}

type SetupIntentRequest struct {
	CustomerID  string
	PaymentType enums.PaymentType
	Metadata    map[string]string
}

type SetupIntentResult struct {
	ID           string
	ClientSecret string
}

// PaymentMethodDetails is the display data shown to owners and admins.
type PaymentMethodDetails struct {
	ID    string
	Type  enums.PaymentType
	Brand string
	Last4 string
}

// ToMinorUnits converts a dollar amount to cents, rounding half away from zero.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// FromMinorUnits converts cents to a dollar amount.
func FromMinorUnits(amount int64) decimal.Decimal {
	return decimal.New(amount, -2)
}

// ProcessCharge confirms an off-session payment intent.
func (c *Client) ProcessCharge(ctx context.Context, req ChargeRequest) ChargeResult {
	if c == nil || c.api == nil {
		return ChargeResult{Error: true, Message: "payment gateway not configured"}
	}
	if !req.Amount.IsPositive() {
		return ChargeResult{Error: true, Message: "charge amount must be positive"}
	}
	if strings.TrimSpace(req.PaymentMethodID) == "" {
		return ChargeResult{Error: true, Message: "payment method is required"}
	}

	params := &stripe.PaymentIntentCreateParams{
		Amount:             stripe.Int64(ToMinorUnits(req.Amount)),
		Currency:           stripe.String(currencyUSD),
		Customer:           stripe.String(req.CustomerID),
		PaymentMethod:      stripe.String(req.PaymentMethodID),
		PaymentMethodTypes: stripe.StringSlice([]string{paymentMethodType(req.PaymentType)}),
		Confirm:            stripe.Bool(true),
		OffSession:         stripe.Bool(true),
		Metadata:           req.Metadata,
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}

	intent, err := c.api.V1PaymentIntents.Create(ctx, params)
	if err != nil {
		return ChargeResult{Error: true, Message: gatewayMessage(err)}
	}
	return ChargeResult{IntentID: intent.ID}
}

// CreateSetupIntent starts saving a payment method for future off-session use.
func (c *Client) CreateSetupIntent(ctx context.Context, req SetupIntentRequest) (*SetupIntentResult, error) {
	if c == nil || c.api == nil {
		return nil, errors.New("payment gateway not configured")
	}
	params := &stripe.SetupIntentCreateParams{
		Customer:           stripe.String(req.CustomerID),
		PaymentMethodTypes: stripe.StringSlice([]string{paymentMethodType(req.PaymentType)}),
		Usage:              stripe.String("off_session"),
		Metadata:           req.Metadata,
	}
	intent, err := c.api.V1SetupIntents.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create setup intent: %w", err)
	}
	return &SetupIntentResult{ID: intent.ID, ClientSecret: intent.ClientSecret}, nil
}

// RetrievePaymentMethod fetches brand/last4 for display.
func (c *Client) RetrievePaymentMethod(ctx context.Context, paymentMethodID string) (*PaymentMethodDetails, error) {
	if c == nil || c.api == nil {
		return nil, errors.New("payment gateway not configured")
	}
	pm, err := c.api.V1PaymentMethods.Retrieve(ctx, paymentMethodID, nil)
	if err != nil {
		return nil, fmt.Errorf("retrieve payment method: %w", err)
	}
	details := &PaymentMethodDetails{ID: pm.ID, Type: enums.PaymentTypeCard}
	switch {
	case pm.Card != nil:
		details.Brand = string(pm.Card.Brand)
		details.Last4 = pm.Card.Last4
	case pm.USBankAccount != nil:
		details.Type = enums.PaymentTypeUSBankAccount
		details.Brand = pm.USBankAccount.BankName
		details.Last4 = pm.USBankAccount.Last4
	}
	return details, nil
}

// DetachPaymentMethod removes the instrument from its customer.
func (c *Client) DetachPaymentMethod(ctx context.Context, paymentMethodID string) error {
	if c == nil || c.api == nil {
		return errors.New("payment gateway not configured")
	}
	if _, err := c.api.V1PaymentMethods.Detach(ctx, paymentMethodID, nil); err != nil {
		return fmt.Errorf("detach payment method: %w", err)
	}
	return nil
}

// PaymentTypeFromIntent maps the instrument kind reported on an intent.
func PaymentTypeFromIntent(intent *stripe.PaymentIntent) enums.PaymentType {
	if intent == nil {
		return enums.PaymentTypeCard
	}
	if intent.PaymentMethod != nil && intent.PaymentMethod.Type == stripe.PaymentMethodTypeUSBankAccount {
		return enums.PaymentTypeUSBankAccount
	}
	for _, t := range intent.PaymentMethodTypes {
		if t == string(stripe.PaymentMethodTypeUSBankAccount) {
			return enums.PaymentTypeUSBankAccount
		}
	}
	return enums.PaymentTypeCard
}

func paymentMethodType(t enums.PaymentType) string {
	if t == enums.PaymentTypeUSBankAccount {
		return string(stripe.PaymentMethodTypeUSBankAccount)
	}
	return string(stripe.PaymentMethodTypeCard)
}

func gatewayMessage(err error) string {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
		return stripeErr.Msg
	}
	return err.Error()
}
