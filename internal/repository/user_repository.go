package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"nemu-commission-api/internal/domain"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	// Ensure inserts the user if no row with its ID exists
	Ensure(ctx context.Context, user *domain.User) error
	MarkChatProvisioned(ctx context.Context, id uuid.UUID) error
}

type userRepositoryImpl struct {
	db *gorm.DB
}

// NewUserRepository creates a new instance of UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepositoryImpl{db: db}
}

func (r *userRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepositoryImpl) Ensure(ctx context.Context, user *domain.User) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(user).Error
}

func (r *userRepositoryImpl) MarkChatProvisioned(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Update("chat_provisioned", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ArtistRepository defines the interface for artist data access
type ArtistRepository interface {
	Create(ctx context.Context, artist *domain.Artist) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Artist, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.Artist, error)
}

type artistRepositoryImpl struct {
	db *gorm.DB
}

// NewArtistRepository creates a new instance of ArtistRepository
func NewArtistRepository(db *gorm.DB) ArtistRepository {
	return &artistRepositoryImpl{db: db}
}

func (r *artistRepositoryImpl) Create(ctx context.Context, artist *domain.Artist) error {
	return r.db.WithContext(ctx).Create(artist).Error
}

func (r *artistRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*domain.Artist, error) {
	var artist domain.Artist
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&artist).Error; err != nil {
		return nil, err
	}
	return &artist, nil
}

func (r *artistRepositoryImpl) FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.Artist, error) {
	var artist domain.Artist
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&artist).Error; err != nil {
		return nil, err
	}
	return &artist, nil
}
