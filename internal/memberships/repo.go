package memberships

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/homeward/settlement-backend/pkg/db/models"
	"github.com/homeward/settlement-backend/pkg/enums"
)

// Repository exposes membership tier and transaction persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// ListDueTiers returns paid tiers whose next charge is due and that have no
// charge still in flight.
func (r *Repository) ListDueTiers(ctx context.Context, now time.Time, limit int) ([]models.MembershipTier, error) {
	var tiers []models.MembershipTier
	q := r.db.WithContext(ctx).
		Where("tier <> ?", enums.MembershipTierFree).
		Where("next_due_date IS NOT NULL AND next_due_date <= ?", now).
		Where("NOT EXISTS (SELECT 1 FROM membership_transactions mt WHERE mt.membership_tier_id = membership_tiers.id AND mt.status = ?)",
			enums.MembershipTransactionProcessing).
		Order("next_due_date ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&tiers).Error; err != nil {
		return nil, err
	}
	return tiers, nil
}

// FindTier locks the tier for the rest of the transaction.
func (r *Repository) FindTier(ctx context.Context, id uuid.UUID) (*models.MembershipTier, error) {
	var tier models.MembershipTier
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&tier).Error
	if err != nil {
		return nil, notFoundAsNil(err)
	}
	return &tier, nil
}

func (r *Repository) SaveTier(ctx context.Context, tier *models.MembershipTier) error {
	return r.db.WithContext(ctx).Save(tier).Error
}

// HasTransactions reports whether the tier was ever charged.
func (r *Repository) HasTransactions(ctx context.Context, tierID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.MembershipTransaction{}).
		Where("membership_tier_id = ?", tierID).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) CreateTransaction(ctx context.Context, txn *models.MembershipTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *Repository) SaveTransaction(ctx context.Context, txn *models.MembershipTransaction) error {
	return r.db.WithContext(ctx).Save(txn).Error
}

// FindTransactionByInvoiceUUID locks the transaction a payment event refers to.
func (r *Repository) FindTransactionByInvoiceUUID(ctx context.Context, invoiceUUID uuid.UUID) (*models.MembershipTransaction, error) {
	var txn models.MembershipTransaction
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("invoice_uuid = ?", invoiceUUID).
		First(&txn).Error
	if err != nil {
		return nil, notFoundAsNil(err)
	}
	return &txn, nil
}

func notFoundAsNil(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}
