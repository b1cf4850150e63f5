package domain

import "github.com/google/uuid"

// User is the local mirror of an account issued by the auth provider
type User struct {
	BaseModel
	Username string `gorm:"type:varchar(100);not null;uniqueIndex:uq_users_username" json:"username"`
	Email    string `gorm:"type:varchar(255)" json:"email"`
	// ChatProvisioned records that a chat identity exists for this user
	ChatProvisioned bool `gorm:"not null;default:false" json:"chat_provisioned"`
}

func (User) TableName() string {
	return "users"
}

// Artist is a user's public storefront identity
type Artist struct {
	BaseModel
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_artists_user_id" json:"user_id"`
	Handle      string    `gorm:"type:varchar(100);not null;uniqueIndex:uq_artists_handle" json:"handle"`
	DisplayName string    `gorm:"type:varchar(255)" json:"display_name"`
	User        *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Artist) TableName() string {
	return "artists"
}
