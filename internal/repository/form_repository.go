package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"nemu-commission-api/internal/domain"
)

// FormRepository defines the interface for form definition data access
type FormRepository interface {
	Create(ctx context.Context, form *domain.FormDefinition) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.FormDefinition, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields datatypes.JSON) error
}

type formRepositoryImpl struct {
	db *gorm.DB
}

// NewFormRepository creates a new instance of FormRepository
func NewFormRepository(db *gorm.DB) FormRepository {
	return &formRepositoryImpl{db: db}
}

func (r *formRepositoryImpl) Create(ctx context.Context, form *domain.FormDefinition) error {
	return r.db.WithContext(ctx).Create(form).Error
}

func (r *formRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*domain.FormDefinition, error) {
	var form domain.FormDefinition
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&form).Error; err != nil {
		return nil, err
	}
	return &form, nil
}

func (r *formRepositoryImpl) UpdateFields(ctx context.Context, id uuid.UUID, fields datatypes.JSON) error {
	result := r.db.WithContext(ctx).
		Model(&domain.FormDefinition{}).
		Where("id = ?", id).
		Update("fields", fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
