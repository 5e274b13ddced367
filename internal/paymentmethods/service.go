package paymentmethods

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/homeward/settlement-backend/internal/billing"
	"github.com/homeward/settlement-backend/pkg/db/models"
	"github.com/homeward/settlement-backend/pkg/enums"
	pkgerrors "github.com/homeward/settlement-backend/pkg/errors"
	"github.com/homeward/settlement-backend/pkg/logger"
	"github.com/homeward/settlement-backend/pkg/stripe"
)

// Service manages owners' saved payment instruments.
type Service interface {
	CreateSetupIntent(ctx context.Context, input SetupIntentInput) (*SetupIntentOutput, error)
	DetachPaymentMethod(ctx context.Context, ownerID, methodID uuid.UUID) error
	ListPaymentMethods(ctx context.Context, ownerID uuid.UUID) ([]models.PaymentMethod, error)
}

// SetupIntentInput captures what the owner is about to save.
type SetupIntentInput struct {
	OwnerID     uuid.UUID
	FranchiseID uuid.UUID
	PropertyID  *uuid.UUID
	PaymentType enums.PaymentType
	IsDefault   bool
}

// SetupIntentOutput is handed to the client to finish collecting the instrument.
type SetupIntentOutput struct {
	PaymentMethod *models.PaymentMethod
	ClientSecret  string
}

// ServiceParams groups dependencies for the payment method service.
type ServiceParams struct {
	BillingRepo       billing.Repository
	Owners            ownerLoader
	Gateways          billing.GatewayProvider
	TransactionRunner txRunner
	Logger            *logger.Logger
}

type ownerLoader interface {
	FindUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo     billing.Repository
	owners   ownerLoader
	gateways billing.GatewayProvider
	txRunner txRunner
	logg     *logger.Logger
}

// NewService constructs a payment method service.
func NewService(params ServiceParams) (*service, error) {
	if params.BillingRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "billing repo required")
	}
	if params.Owners == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "owner loader required")
	}
	if params.Gateways == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "gateway provider required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}

	return &service{
		repo:     params.BillingRepo,
		owners:   params.Owners,
		gateways: params.Gateways,
		txRunner: params.TransactionRunner,
		logg:     params.Logger,
	}, nil
}

// CreateSetupIntent opens a setup intent on the franchise's gateway account and
// records the instrument as created. The webhook reconciler finishes it.
func (s *service) CreateSetupIntent(ctx context.Context, input SetupIntentInput) (*SetupIntentOutput, error) {
	if input.OwnerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}
	if input.FranchiseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "franchise id is required")
	}
	paymentType := input.PaymentType
	if paymentType == "" {
		paymentType = enums.PaymentTypeCard
	}
	if paymentType != enums.PaymentTypeCard && paymentType != enums.PaymentTypeUSBankAccount {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment type must be card or us_bank_account")
	}

	owner, err := s.owners.FindUser(ctx, input.OwnerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load owner")
	}
	if owner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "owner not found")
	}
	if owner.GatewayCustomerID == nil || strings.TrimSpace(*owner.GatewayCustomerID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "owner is not linked to a gateway customer")
	}
	customerID := strings.TrimSpace(*owner.GatewayCustomerID)

	existing, err := s.repo.ListPaymentMethodsByOwner(ctx, input.OwnerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payment methods")
	}
	hasDefault := false
	for _, method := range existing {
		if method.IsDefault {
			hasDefault = true
			break
		}
	}
	shouldDefault := input.IsDefault || !hasDefault

	gateway, err := s.gateways.ForFranchise(ctx, input.FranchiseID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve payment gateway")
	}
	intent, err := gateway.CreateSetupIntent(ctx, stripe.SetupIntentRequest{
		CustomerID:  customerID,
		PaymentType: paymentType,
		Metadata: map[string]string{
			stripe.MetadataFranchiseID: input.FranchiseID.String(),
			"owner_id":                 input.OwnerID.String(),
		},
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create setup intent")
	}

	method := &models.PaymentMethod{
		OwnerID:           input.OwnerID,
		PropertyID:        input.PropertyID,
		FranchiseID:       input.FranchiseID,
		SetupIntentID:     intent.ID,
		GatewayCustomerID: customerID,
		Status:            enums.PaymentMethodStatusCreated,
		Type:              paymentType,
		IsDefault:         shouldDefault,
	}
	if err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if shouldDefault && hasDefault {
			if err := txRepo.ClearDefaultPaymentMethod(ctx, input.OwnerID); err != nil {
				return err
			}
		}
		return txRepo.CreatePaymentMethod(ctx, method)
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist payment method")
	}

	return &SetupIntentOutput{PaymentMethod: method, ClientSecret: intent.ClientSecret}, nil
}

// DetachPaymentMethod detaches the instrument at the gateway and removes it.
// A removed default hands the flag to the newest verified method left.
func (s *service) DetachPaymentMethod(ctx context.Context, ownerID, methodID uuid.UUID) error {
	method, err := s.repo.FindPaymentMethod(ctx, methodID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment method")
	}
	if method == nil || method.OwnerID != ownerID {
		return pkgerrors.New(pkgerrors.CodeNotFound, "payment method not found")
	}

	if method.GatewayPaymentMethodID != nil && *method.GatewayPaymentMethodID != "" {
		gateway, err := s.gateways.ForFranchise(ctx, method.FranchiseID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve payment gateway")
		}
		if err := gateway.DetachPaymentMethod(ctx, *method.GatewayPaymentMethodID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "detach payment method")
		}
	}

	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.DeletePaymentMethod(ctx, method.ID); err != nil {
			return err
		}
		if !method.IsDefault {
			return nil
		}
		remaining, err := txRepo.ListPaymentMethodsByOwner(ctx, ownerID)
		if err != nil {
			return err
		}
		for i := range remaining {
			if remaining[i].Status != enums.PaymentMethodStatusSucceeded {
				continue
			}
			remaining[i].IsDefault = true
			return txRepo.UpdatePaymentMethod(ctx, &remaining[i])
		}
		return nil
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove payment method")
	}
	s.logg.Info(s.logg.WithField(ctx, "payment_method_id", method.ID.String()), "payment method detached")
	return nil
}

// ListPaymentMethods returns the owner's instruments, newest first.
func (s *service) ListPaymentMethods(ctx context.Context, ownerID uuid.UUID) ([]models.PaymentMethod, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}
	return s.repo.ListPaymentMethodsByOwner(ctx, ownerID)
}
