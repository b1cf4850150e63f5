package dto

import (
	"github.com/google/uuid"

	"nemu-commission-api/internal/domain"
)

// KanbanResponse carries a request's board document
type KanbanResponse struct {
	ID        uuid.UUID          `json:"kanbanId"`
	RequestID uuid.UUID          `json:"requestId"`
	Board     domain.KanbanBoard `json:"board"`
}

// ReplaceKanbanRequest overwrites the board. Every task must reference a container.
type ReplaceKanbanRequest struct {
	Board domain.KanbanBoard `json:"board" binding:"required"`
}

type AddKanbanTaskRequest struct {
	ContainerID string `json:"containerId" binding:"required"`
	Content     string `json:"content" binding:"required,max=2000" example:"Send line art for review"`
}

// MoveKanbanTaskRequest moves a task and optionally edits its content
type MoveKanbanTaskRequest struct {
	ContainerID string  `json:"containerId" binding:"required"`
	Content     *string `json:"content,omitempty" binding:"omitempty,max=2000"`
}
