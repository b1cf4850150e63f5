package domain

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Kanban stores one request's board as a single JSON document.
// Container references in Board are not enforced by the store.
type Kanban struct {
	BaseModel
	RequestID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uq_kanbans_request_id" json:"request_id"`
	Board     datatypes.JSON `gorm:"type:jsonb;not null" json:"board"`
}

func (Kanban) TableName() string {
	return "kanbans"
}

type KanbanContainer struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type KanbanTask struct {
	ID          string `json:"id"`
	ContainerID string `json:"container_id"`
	Content     string `json:"content"`
}

// KanbanBoard is the persisted board shape
type KanbanBoard struct {
	Containers []KanbanContainer `json:"containers"`
	Tasks      []KanbanTask      `json:"tasks"`
}

// DefaultKanbanBoard returns the Todo / In Progress / Done board with no tasks
func DefaultKanbanBoard() KanbanBoard {
	return KanbanBoard{
		Containers: []KanbanContainer{
			{ID: uuid.NewString(), Title: "Todo"},
			{ID: uuid.NewString(), Title: "In Progress"},
			{ID: uuid.NewString(), Title: "Done"},
		},
		Tasks: []KanbanTask{},
	}
}

// HasContainer reports whether id names a container on the board
func (b KanbanBoard) HasContainer(id string) bool {
	for _, c := range b.Containers {
		if c.ID == id {
			return true
		}
	}
	return false
}
