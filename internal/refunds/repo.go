package refunds

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ptcex/orderguard-backend/pkg/db/models"
	"github.com/ptcex/orderguard-backend/pkg/enums"
)

// Repository manages persistence for refund requests and their approvals.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateRequest(ctx context.Context, request *models.RefundRequest) error
	GetRequest(ctx context.Context, id uuid.UUID) (*models.RefundRequest, error)
	GetRequestByNumber(ctx context.Context, requestNumber string) (*models.RefundRequest, error)
	UpdateRequest(ctx context.Context, request *models.RefundRequest) error
	ListRequestsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.RefundRequest, error)
	ListRequestsByTenant(ctx context.Context, tenantID uuid.UUID, statuses []enums.RefundRequestStatus, limit int) ([]models.RefundRequest, error)
	CreateApproval(ctx context.Context, approval *models.RefundApproval) error
	ListApprovals(ctx context.Context, refundRequestID uuid.UUID) ([]models.RefundApproval, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a refund repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateRequest(ctx context.Context, request *models.RefundRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

// GetRequest returns nil without error when the request does not exist.
func (r *repository) GetRequest(ctx context.Context, id uuid.UUID) (*models.RefundRequest, error) {
	var request models.RefundRequest
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&request).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repository) GetRequestByNumber(ctx context.Context, requestNumber string) (*models.RefundRequest, error) {
	var request models.RefundRequest
	err := r.db.WithContext(ctx).Where("request_number = ?", requestNumber).First(&request).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repository) UpdateRequest(ctx context.Context, request *models.RefundRequest) error {
	return r.db.WithContext(ctx).Save(request).Error
}

func (r *repository) ListRequestsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.RefundRequest, error) {
	var requests []models.RefundRequest
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("requested_at DESC").
		Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *repository) ListRequestsByTenant(ctx context.Context, tenantID uuid.UUID, statuses []enums.RefundRequestStatus, limit int) ([]models.RefundRequest, error) {
	q := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("requested_at DESC")
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var requests []models.RefundRequest
	if err := q.Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *repository) CreateApproval(ctx context.Context, approval *models.RefundApproval) error {
	return r.db.WithContext(ctx).Create(approval).Error
}

func (r *repository) ListApprovals(ctx context.Context, refundRequestID uuid.UUID) ([]models.RefundApproval, error) {
	var approvals []models.RefundApproval
	if err := r.db.WithContext(ctx).
		Where("refund_request_id = ?", refundRequestID).
		Order("decided_at ASC").
		Find(&approvals).Error; err != nil {
		return nil, err
	}
	return approvals, nil
}
