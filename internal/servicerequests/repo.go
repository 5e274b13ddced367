package servicerequests

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/homeward/settlement-backend/pkg/db/models"
	"github.com/homeward/settlement-backend/pkg/enums"
)

// Repository exposes narrow, read-only lookups over records owned by the
// dispatch and property services. Finders return nil, nil when nothing matches.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.ServiceRequest, error)
	ListChildren(ctx context.Context, parentID uuid.UUID) ([]models.ServiceRequest, error)
	FindServiceType(ctx context.Context, id uuid.UUID) (*models.ServiceType, error)
	FindProperty(ctx context.Context, id uuid.UUID) (*models.Property, error)
	FindPropertyRate(ctx context.Context, propertyID, serviceTypeID uuid.UUID) (*models.PropertyServiceTypeRate, error)
	FindApprovedEstimate(ctx context.Context, request *models.ServiceRequest) (*models.EstimateDetail, []models.EstimateLineItem, error)
	FindLinenDetail(ctx context.Context, serviceRequestID uuid.UUID) (*models.LinenDetail, error)
	HasUnresolvedNoteBy(ctx context.Context, serviceRequestID, authorID uuid.UUID) (bool, error)
	FindUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListFranchiseAdmins(ctx context.Context, franchiseID uuid.UUID) ([]models.User, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a service request repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ServiceRequest, error) {
	var sr models.ServiceRequest
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&sr).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &sr, nil
}

func (r *repository) ListChildren(ctx context.Context, parentID uuid.UUID) ([]models.ServiceRequest, error) {
	var children []models.ServiceRequest
	err := r.db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Where("status <> ?", enums.ServiceRequestStatusCancelled).
		Order("created_at ASC").
		Find(&children).Error
	return children, err
}

func (r *repository) FindServiceType(ctx context.Context, id uuid.UUID) (*models.ServiceType, error) {
	var st models.ServiceType
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&st).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &st, nil
}

func (r *repository) FindProperty(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	var p models.Property
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &p, nil
}

func (r *repository) FindPropertyRate(ctx context.Context, propertyID, serviceTypeID uuid.UUID) (*models.PropertyServiceTypeRate, error) {
	var rate models.PropertyServiceTypeRate
	err := r.db.WithContext(ctx).
		Where("property_id = ? AND service_type_id = ?", propertyID, serviceTypeID).
		First(&rate).Error
	if err != nil {
		return nil, notFoundAsNil(err)
	}
	return &rate, nil
}

// FindApprovedEstimate returns the request's estimate only when the owner has
// seen and approved it for the request's current service type.
func (r *repository) FindApprovedEstimate(ctx context.Context, request *models.ServiceRequest) (*models.EstimateDetail, []models.EstimateLineItem, error) {
	if request == nil || request.EstimateID == nil {
		return nil, nil, nil
	}
	var estimate models.EstimateDetail
	err := r.db.WithContext(ctx).
		Where("id = ?", *request.EstimateID).
		Where("is_sent_to_owner = ? AND is_approved_by_owner = ?", true, true).
		Where("service_type_id = ?", request.ServiceTypeID).
		First(&estimate).Error
	if err != nil {
		return nil, nil, notFoundAsNil(err)
	}
	var lines []models.EstimateLineItem
	if err := r.db.WithContext(ctx).
		Where("estimate_id = ?", estimate.ID).
		Order("title ASC").
		Find(&lines).Error; err != nil {
		return nil, nil, err
	}
	return &estimate, lines, nil
}

func (r *repository) FindLinenDetail(ctx context.Context, serviceRequestID uuid.UUID) (*models.LinenDetail, error) {
	var linen models.LinenDetail
	if err := r.db.WithContext(ctx).Where("service_request_id = ?", serviceRequestID).First(&linen).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &linen, nil
}

func (r *repository) HasUnresolvedNoteBy(ctx context.Context, serviceRequestID, authorID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ServiceRequestNote{}).
		Where("service_request_id = ? AND author_id = ? AND is_resolved = ?", serviceRequestID, authorID, false).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) FindUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, notFoundAsNil(err)
	}
	return &u, nil
}

func (r *repository) ListFranchiseAdmins(ctx context.Context, franchiseID uuid.UUID) ([]models.User, error) {
	var admins []models.User
	err := r.db.WithContext(ctx).
		Where("franchise_id = ? AND role = ?", franchiseID, enums.ActorRoleFranchiseAdmin.String()).
		Find(&admins).Error
	return admins, err
}

func notFoundAsNil(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}
