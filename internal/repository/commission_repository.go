package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"nemu-commission-api/internal/domain"
)

// CommissionRepository defines the interface for commission data access
type CommissionRepository interface {
	Create(ctx context.Context, commission *domain.Commission) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Commission, error)
	// IncrementDecisionCounters applies the decision counters with
	// server-side increments: accepted bumps new and accepted, rejected bumps rejected only.
	IncrementDecisionCounters(ctx context.Context, id uuid.UUID, accepted bool) error
	CountByAvailability(ctx context.Context, availability domain.Availability) (int64, error)
}

type commissionRepositoryImpl struct {
	db *gorm.DB
}

// NewCommissionRepository creates a new instance of CommissionRepository
func NewCommissionRepository(db *gorm.DB) CommissionRepository {
	return &commissionRepositoryImpl{db: db}
}

func (r *commissionRepositoryImpl) Create(ctx context.Context, commission *domain.Commission) error {
	return r.db.WithContext(ctx).Create(commission).Error
}

// FindByID loads a commission with its artist
func (r *commissionRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*domain.Commission, error) {
	var commission domain.Commission
	if err := r.db.WithContext(ctx).
		Preload("Artist").
		Where("id = ?", id).
		First(&commission).Error; err != nil {
		return nil, err
	}
	return &commission, nil
}

func (r *commissionRepositoryImpl) IncrementDecisionCounters(ctx context.Context, id uuid.UUID, accepted bool) error {
	updates := map[string]interface{}{
		"rejected_requests": gorm.Expr("rejected_requests + ?", 1),
	}
	if accepted {
		updates = map[string]interface{}{
			"new_requests":      gorm.Expr("new_requests + ?", 1),
			"accepted_requests": gorm.Expr("accepted_requests + ?", 1),
		}
	}

	result := r.db.WithContext(ctx).
		Model(&domain.Commission{}).
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

func (r *commissionRepositoryImpl) CountByAvailability(ctx context.Context, availability domain.Availability) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Commission{}).
		Where("availability = ? AND published = ?", availability, true).
		Count(&count).Error
	return count, err
}
