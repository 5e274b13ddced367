package memberships

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/homeward/settlement-backend/internal/billing"
	"github.com/homeward/settlement-backend/pkg/db/models"
	"github.com/homeward/settlement-backend/pkg/enums"
	pkgerrors "github.com/homeward/settlement-backend/pkg/errors"
	"github.com/homeward/settlement-backend/pkg/logger"
)

type membershipCharger interface {
	ChargeMembership(ctx context.Context, charge billing.MembershipCharge) billing.ChargeOutcome
}

type methodFinder interface {
	WithTx(tx *gorm.DB) billing.Repository
	FindPaymentMethod(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error)
	FindDefaultPaymentMethod(ctx context.Context, ownerID uuid.UUID, propertyID *uuid.UUID) (*models.PaymentMethod, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams groups dependencies for the membership billing service.
type ServiceParams struct {
	Repo              *Repository
	Methods           methodFinder
	Charger           membershipCharger
	TransactionRunner txRunner
	Logger            *logger.Logger
	BatchSize         int
}

// Service charges periodic membership fees.
type Service struct {
	repo      *Repository
	methods   methodFinder
	charger   membershipCharger
	txRunner  txRunner
	logg      *logger.Logger
	batchSize int
}

// ChargeSummary counts what one ChargeDue pass did.
type ChargeSummary struct {
	Due     int
	Charged int
	Failed  int
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "membership repo required")
	}
	if params.Methods == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment method finder required")
	}
	if params.Charger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "charger required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = 100
	}
	return &Service{
		repo:      params.Repo,
		methods:   params.Methods,
		charger:   params.Charger,
		txRunner:  params.TransactionRunner,
		logg:      params.Logger,
		batchSize: batch,
	}, nil
}

// ChargeDue charges every paid tier whose due date has passed. Gateway
// failures are recorded on the transaction and never returned; the error only
// aggregates persistence failures.
func (s *Service) ChargeDue(ctx context.Context, now time.Time) (ChargeSummary, error) {
	var summary ChargeSummary
	tiers, err := s.repo.ListDueTiers(ctx, now.UTC(), s.batchSize)
	if err != nil {
		return summary, err
	}
	summary.Due = len(tiers)

	var errs error
	for i := range tiers {
		charged, err := s.chargeTier(ctx, &tiers[i])
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if charged {
			summary.Charged++
		} else {
			summary.Failed++
		}
	}
	return summary, errs
}

func (s *Service) chargeTier(ctx context.Context, tier *models.MembershipTier) (bool, error) {
	ctx = s.logg.WithFields(ctx, map[string]any{
		"membership_tier_id": tier.ID.String(),
		"franchise_id":       tier.FranchiseID.String(),
	})

	var (
		txn    *models.MembershipTransaction
		method *models.PaymentMethod
	)
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		locked, err := repo.FindTier(ctx, tier.ID)
		if err != nil {
			return err
		}
		if locked == nil || locked.Tier == enums.MembershipTierFree {
			return nil
		}
		charged, err := repo.HasTransactions(ctx, locked.ID)
		if err != nil {
			return err
		}
		method, err = s.resolveMethod(ctx, tx, locked)
		if err != nil {
			return err
		}
		periodStart := periodStartOf(locked)
		txn = &models.MembershipTransaction{
			MembershipTierID: locked.ID,
			Amount:           locked.Amount,
			Status:           enums.MembershipTransactionProcessing,
			InvoiceUUID:      uuid.New(),
			IsFirst:          !charged,
			PeriodEnd:        periodStart.AddDate(0, 1, 0),
		}
		*tier = *locked
		return repo.CreateTransaction(ctx, txn)
	})
	if err != nil {
		s.logg.Error(ctx, "membership transaction setup failed", err)
		return false, err
	}
	if txn == nil {
		return false, nil
	}

	ctx = s.logg.WithInvoiceUUID(ctx, txn.InvoiceUUID.String())
	outcome := s.charger.ChargeMembership(ctx, billing.MembershipCharge{
		Tier:        tier,
		Transaction: txn,
		Method:      method,
		NextDueDate: txn.PeriodEnd,
	})
	if !outcome.Failed {
		s.logg.Info(ctx, "membership charge submitted")
		return true, nil
	}

	s.logg.Warn(s.logg.WithField(ctx, "gateway_message", outcome.Message), "membership charge failed")
	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		return s.fail(ctx, s.repo.WithTx(tx), txn, outcome.Message)
	})
	if err != nil {
		s.logg.Error(ctx, "membership failure not recorded", err)
		return false, err
	}
	return false, nil
}

// resolveMethod prefers the tier's own instrument, then the owner's default.
func (s *Service) resolveMethod(ctx context.Context, tx *gorm.DB, tier *models.MembershipTier) (*models.PaymentMethod, error) {
	repo := s.methods.WithTx(tx)
	if tier.PaymentMethodID != nil {
		method, err := repo.FindPaymentMethod(ctx, *tier.PaymentMethodID)
		if err != nil {
			return nil, err
		}
		if method != nil && method.Status == enums.PaymentMethodStatusSucceeded {
			return method, nil
		}
	}
	propertyID := tier.PropertyID
	return repo.FindDefaultPaymentMethod(ctx, tier.OwnerID, &propertyID)
}

// SettlePayment applies a gateway result to the membership transaction behind
// invoiceUUID. It returns nil when no transaction carries that uuid. A
// transaction that already succeeded is returned unchanged with applied false.
func (s *Service) SettlePayment(ctx context.Context, tx *gorm.DB, invoiceUUID uuid.UUID, status enums.MembershipTransactionStatus, nextDue *time.Time, message string) (txn *models.MembershipTransaction, applied bool, err error) {
	repo := s.repo.WithTx(tx)
	txn, err = repo.FindTransactionByInvoiceUUID(ctx, invoiceUUID)
	if err != nil || txn == nil {
		return nil, false, err
	}
	if txn.Status == enums.MembershipTransactionSuccess {
		return txn, false, nil
	}
	switch status {
	case enums.MembershipTransactionFailed:
		return txn, true, s.fail(ctx, repo, txn, message)
	case enums.MembershipTransactionSuccess:
		txn.Status = status
		txn.FailureMessage = nil
		if err := repo.SaveTransaction(ctx, txn); err != nil {
			return nil, false, err
		}
		tier, err := repo.FindTier(ctx, txn.MembershipTierID)
		if err != nil || tier == nil {
			return txn, true, err
		}
		due := txn.PeriodEnd
		if nextDue != nil {
			due = nextDue.UTC()
		}
		tier.NextDueDate = &due
		return txn, true, repo.SaveTier(ctx, tier)
	default:
		txn.Status = status
		return txn, true, repo.SaveTransaction(ctx, txn)
	}
}

// fail marks the transaction failed. A tier whose very first charge fails
// drops back to free.
func (s *Service) fail(ctx context.Context, repo *Repository, txn *models.MembershipTransaction, message string) error {
	txn.Status = enums.MembershipTransactionFailed
	if message != "" {
		msg := message
		txn.FailureMessage = &msg
	}
	if err := repo.SaveTransaction(ctx, txn); err != nil {
		return err
	}
	if !txn.IsFirst {
		return nil
	}
	tier, err := repo.FindTier(ctx, txn.MembershipTierID)
	if err != nil || tier == nil {
		return err
	}
	tier.Tier = enums.MembershipTierFree
	tier.NextDueDate = nil
	return repo.SaveTier(ctx, tier)
}

func periodStartOf(tier *models.MembershipTier) time.Time {
	if tier.NextDueDate != nil {
		return tier.NextDueDate.UTC()
	}
	return time.Now().UTC()
}

// Tier loads a membership tier inside tx.
func (s *Service) Tier(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.MembershipTier, error) {
	return s.repo.WithTx(tx).FindTier(ctx, id)
}
