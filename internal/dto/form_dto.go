package dto

import (
	"time"

	"github.com/google/uuid"

	"nemu-commission-api/internal/form"
)

// CreateFormRequest creates an empty intake form for the calling artist
type CreateFormRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=255" example:"Portrait intake"`
	Description string `json:"description" binding:"max=1000"`
}

// AddFieldRequest appends a field of the given kind with default metadata
type AddFieldRequest struct {
	Kind form.Kind `json:"kind" binding:"required" example:"text"`
}

// UpdateFieldRequest replaces a field's metadata. The kind cannot change.
type UpdateFieldRequest struct {
	Metadata form.Metadata `json:"metadata" binding:"required"`
}

type MoveFieldRequest struct {
	Position *int `json:"position" binding:"required,min=0" example:"0"`
}

// FormResponse represents a form definition with its ordered fields
type FormResponse struct {
	ID          uuid.UUID   `json:"formId"`
	ArtistID    uuid.UUID   `json:"artistId"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Fields      form.Schema `json:"fields"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// RenderFormResponse lists widgets in field order
type RenderFormResponse struct {
	FormID  uuid.UUID     `json:"formId"`
	Mode    string        `json:"mode" example:"input"`
	Widgets []form.Widget `json:"widgets"`
}
