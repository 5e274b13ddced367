package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/homeward/settlement-backend/pkg/db/models"
	"github.com/homeward/settlement-backend/pkg/enums"
	pkgerrors "github.com/homeward/settlement-backend/pkg/errors"
	"github.com/homeward/settlement-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type invoiceCharger interface {
	ChargeInvoices(ctx context.Context, tx *gorm.DB, invoices []*models.InvoiceMaster, method *models.PaymentMethod, purpose enums.PaymentPurpose, source string) (ChargeOutcome, error)
}

// ServiceParams groups dependencies for the billing service.
type ServiceParams struct {
	Repo              Repository
	Charger           invoiceCharger
	TransactionRunner txRunner
	Logger            *logger.Logger
}

// Service runs owner-initiated payments.
type Service struct {
	repo     Repository
	charger  invoiceCharger
	txRunner txRunner
	logg     *logger.Logger
}

// NewService builds a billing service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "billing repo required")
	}
	if params.Charger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "charger required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	return &Service{
		repo:     params.Repo,
		charger:  params.Charger,
		txRunner: params.TransactionRunner,
		logg:     params.Logger,
	}, nil
}

// PayDueInput selects the invoices an owner pays in one attempt.
type PayDueInput struct {
	OwnerID         uuid.UUID
	InvoiceIDs      []uuid.UUID
	PaymentMethodID uuid.UUID
}

// PayDueInvoices charges every selected invoice under one correlation uuid.
// A declined charge is reported in the outcome, not as an error.
func (s *Service) PayDueInvoices(ctx context.Context, input PayDueInput) (*ChargeOutcome, error) {
	if input.OwnerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner id is required")
	}
	ids := lo.Uniq(input.InvoiceIDs)
	if len(ids) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one invoice is required")
	}
	if input.PaymentMethodID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method is required")
	}

	var outcome ChargeOutcome
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		method, err := repo.FindPaymentMethod(ctx, input.PaymentMethodID)
		if err != nil {
			return err
		}
		if method == nil || method.OwnerID != input.OwnerID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "payment method not found")
		}
		if method.Status != enums.PaymentMethodStatusSucceeded {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payment method is not verified")
		}

		rows, err := repo.ListPayableInvoices(ctx, input.OwnerID, ids)
		if err != nil {
			return err
		}
		if len(rows) != len(ids) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "one or more invoices are not payable")
		}
		invoices := lo.Map(rows, func(_ models.InvoiceMaster, i int) *models.InvoiceMaster {
			return &rows[i]
		})
		purpose, err := batchPurpose(invoices)
		if err != nil {
			return err
		}

		outcome, err = s.charger.ChargeInvoices(ctx, tx, invoices, method, purpose, "pay_now")
		return err
	})
	if err != nil {
		return nil, err
	}
	return &outcome, nil
}

// PurposeFor reports whether an owner-facing invoice is still collecting its deposit.
func PurposeFor(inv *models.InvoiceMaster) enums.PaymentPurpose {
	if inv != nil && !inv.DepositPaid && inv.DepositAmount.IsPositive() && inv.DepositAmount.Equal(inv.FranchiseTotal) {
		return enums.PaymentPurposeDeposit
	}
	return enums.PaymentPurposeInvoice
}

func batchPurpose(invoices []*models.InvoiceMaster) (enums.PaymentPurpose, error) {
	purposes := lo.Uniq(lo.Map(invoices, func(inv *models.InvoiceMaster, _ int) enums.PaymentPurpose {
		return PurposeFor(inv)
	}))
	if len(purposes) != 1 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "deposits and invoices must be paid separately")
	}
	return purposes[0], nil
}
