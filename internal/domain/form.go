package domain

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// FormDefinition is an artist-owned intake form. Fields holds the ordered
// field schema as one JSON document.
type FormDefinition struct {
	BaseModel
	ArtistID    uuid.UUID      `gorm:"type:uuid;not null;index:idx_forms_artist_id" json:"artist_id"`
	Name        string         `gorm:"type:varchar(255);not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Fields      datatypes.JSON `gorm:"type:jsonb" json:"fields"`
}

func (FormDefinition) TableName() string {
	return "forms"
}
