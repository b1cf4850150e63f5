package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"nemu-commission-api/internal/domain"
)

// KanbanRepository defines the interface for kanban board data access
type KanbanRepository interface {
	Create(ctx context.Context, kanban *domain.Kanban) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Kanban, error)
	FindByRequestID(ctx context.Context, requestID uuid.UUID) (*domain.Kanban, error)
	UpdateBoard(ctx context.Context, id uuid.UUID, board datatypes.JSON) error
}

type kanbanRepositoryImpl struct {
	db *gorm.DB
}

// NewKanbanRepository creates a new instance of KanbanRepository
func NewKanbanRepository(db *gorm.DB) KanbanRepository {
	return &kanbanRepositoryImpl{db: db}
}

func (r *kanbanRepositoryImpl) Create(ctx context.Context, kanban *domain.Kanban) error {
	return r.db.WithContext(ctx).Create(kanban).Error
}

func (r *kanbanRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*domain.Kanban, error) {
	var kanban domain.Kanban
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&kanban).Error; err != nil {
		return nil, err
	}
	return &kanban, nil
}

func (r *kanbanRepositoryImpl) FindByRequestID(ctx context.Context, requestID uuid.UUID) (*domain.Kanban, error) {
	var kanban domain.Kanban
	if err := r.db.WithContext(ctx).Where("request_id = ?", requestID).First(&kanban).Error; err != nil {
		return nil, err
	}
	return &kanban, nil
}

func (r *kanbanRepositoryImpl) UpdateBoard(ctx context.Context, id uuid.UUID, board datatypes.JSON) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Kanban{}).
		Where("id = ?", id).
		Update("board", board)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
