package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"nemu-commission-api/internal/domain"
)

var undecidedStatuses = []domain.RequestStatus{domain.RequestStatusPending, domain.RequestStatusWaitlist}

// RequestRepository defines the interface for commission request data access
type RequestRepository interface {
	Create(ctx context.Context, request *domain.Request) error
	// Submit stores a new request, confirms its reference images and applies
	// the commission's availability change in one transaction.
	Submit(ctx context.Context, submission *Submission) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Request, error)
	FindByOrderID(ctx context.Context, orderID string) (*domain.Request, error)
	FindByCommission(ctx context.Context, commissionID uuid.UUID) ([]*domain.Request, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Request, error)
	Count(ctx context.Context) (int64, error)

	// ClaimDecision records decision on an undecided request. It succeeds when
	// no decision is stored yet or the stored one matches.
	ClaimDecision(ctx context.Context, id uuid.UUID, decision domain.Decision) (bool, error)
	// AdvanceStage persists a completed decision step plus any columns it produced
	AdvanceStage(ctx context.Context, id uuid.UUID, stage domain.DecisionStage, fields map[string]interface{}) error
	// TransitionStatus moves the request to `to` only if its current status is
	// one of `from`. Reports false when no row matched.
	TransitionStatus(ctx context.Context, id uuid.UUID, from []domain.RequestStatus, to domain.RequestStatus, fields map[string]interface{}) (bool, error)
}

// Submission is everything a successful Submit writes
type Submission struct {
	Request       *domain.Request
	AttachmentIDs []uuid.UUID
	// Availability is the commission's new availability, nil when unchanged
	Availability *domain.Availability
}

type requestRepositoryImpl struct {
	db *gorm.DB
}

// NewRequestRepository creates a new instance of RequestRepository
func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepositoryImpl{db: db}
}

func (r *requestRepositoryImpl) Create(ctx context.Context, request *domain.Request) error {
	if request.DecisionStage == "" {
		request.DecisionStage = domain.StageNone
	}
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *requestRepositoryImpl) Submit(ctx context.Context, submission *Submission) error {
	request := submission.Request
	if request.DecisionStage == "" {
		request.DecisionStage = domain.StageNone
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(request).Error; err != nil {
			return err
		}
		if err := confirmAttachments(tx, submission.AttachmentIDs, request.UserID, domain.EntityTypeRequest, request.ID); err != nil {
			return err
		}
		if submission.Availability == nil {
			return nil
		}
		return tx.Model(&domain.Commission{}).
			Where("id = ?", request.CommissionID).
			Update("availability", *submission.Availability).Error
	})
}

// FindByID loads a request with its commission and the commission's artist
func (r *requestRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*domain.Request, error) {
	var request domain.Request
	if err := r.db.WithContext(ctx).
		Preload("Commission").
		Preload("Commission.Artist").
		Where("id = ?", id).
		First(&request).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *requestRepositoryImpl) FindByOrderID(ctx context.Context, orderID string) (*domain.Request, error) {
	var request domain.Request
	if err := r.db.WithContext(ctx).
		Preload("Commission").
		Preload("Commission.Artist").
		Where("order_id = ?", orderID).
		First(&request).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *requestRepositoryImpl) FindByCommission(ctx context.Context, commissionID uuid.UUID) ([]*domain.Request, error) {
	var requests []*domain.Request
	if err := r.db.WithContext(ctx).
		Where("commission_id = ?", commissionID).
		Order("created_at ASC").
		Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *requestRepositoryImpl) FindByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Request, error) {
	var requests []*domain.Request
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *requestRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Request{}).Count(&count).Error
	return count, err
}

func (r *requestRepositoryImpl) ClaimDecision(ctx context.Context, id uuid.UUID, decision domain.Decision) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.Request{}).
		Where("id = ? AND status IN ? AND (decision IS NULL OR decision = ?)", id, undecidedStatuses, decision).
		Update("decision", decision)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *requestRepositoryImpl) AdvanceStage(ctx context.Context, id uuid.UUID, stage domain.DecisionStage, fields map[string]interface{}) error {
	updates := map[string]interface{}{"decision_stage": stage}
	for k, v := range fields {
		updates[k] = v
	}
	result := r.db.WithContext(ctx).
		Model(&domain.Request{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *requestRepositoryImpl) TransitionStatus(ctx context.Context, id uuid.UUID, from []domain.RequestStatus, to domain.RequestStatus, fields map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{"status": to}
	for k, v := range fields {
		updates[k] = v
	}
	result := r.db.WithContext(ctx).
		Model(&domain.Request{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
