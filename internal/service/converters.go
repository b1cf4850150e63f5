package service

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"nemu-commission-api/internal/domain"
	"nemu-commission-api/internal/dto"
	"nemu-commission-api/internal/form"
)

// removeDuplicateUUIDs removes duplicate UUIDs from a slice
func removeDuplicateUUIDs(uuids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	result := make([]uuid.UUID, 0, len(uuids))

	for _, id := range uuids {
		if !seen[id] {
			seen[id] = true
			result = append(result, id)
		}
	}

	return result
}

func toRequestResponse(r *domain.Request) (*dto.RequestResponse, error) {
	content, err := form.ParseAnswers(r.Content)
	if err != nil {
		return nil, err
	}
	return &dto.RequestResponse{
		ID:                 r.ID,
		OrderID:            r.OrderID,
		FormID:             r.FormID,
		CommissionID:       r.CommissionID,
		UserID:             r.UserID,
		Status:             r.Status,
		Content:            content,
		InvoiceID:          r.InvoiceID,
		KanbanID:           r.KanbanID,
		SendbirdChannelURL: r.SendbirdChannelURL,
		DecisionStage:      r.DecisionStage,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}, nil
}

func toInvoiceResponse(inv *domain.Invoice) *dto.InvoiceResponse {
	items := make([]dto.InvoiceItemResponse, 0, len(inv.Items))
	for _, item := range inv.Items {
		items = append(items, dto.InvoiceItemResponse{
			ID:       item.ID,
			Name:     item.Name,
			Price:    item.Price,
			Quantity: item.Quantity,
		})
	}
	return &dto.InvoiceResponse{
		ID:        inv.ID,
		RequestID: inv.RequestID,
		ArtistID:  inv.ArtistID,
		UserID:    inv.UserID,
		Status:    inv.Status,
		Total:     inv.Total,
		Currency:  inv.Currency,
		Sent:      inv.Sent,
		HostedURL: inv.HostedURL,
		Items:     items,
		CreatedAt: inv.CreatedAt,
		UpdatedAt: inv.UpdatedAt,
	}
}

func toFormResponse(f *domain.FormDefinition, schema form.Schema) *dto.FormResponse {
	if schema == nil {
		schema = form.Schema{}
	}
	return &dto.FormResponse{
		ID:          f.ID,
		ArtistID:    f.ArtistID,
		Name:        f.Name,
		Description: f.Description,
		Fields:      schema,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

func encodeBoard(board domain.KanbanBoard) (datatypes.JSON, error) {
	if board.Tasks == nil {
		board.Tasks = []domain.KanbanTask{}
	}
	if board.Containers == nil {
		board.Containers = []domain.KanbanContainer{}
	}
	data, err := json.Marshal(board)
	if err != nil {
		return nil, fmt.Errorf("failed to encode kanban board: %w", err)
	}
	return data, nil
}

func decodeBoard(data datatypes.JSON) (domain.KanbanBoard, error) {
	var board domain.KanbanBoard
	if len(data) == 0 {
		return domain.KanbanBoard{Containers: []domain.KanbanContainer{}, Tasks: []domain.KanbanTask{}}, nil
	}
	if err := json.Unmarshal(data, &board); err != nil {
		return board, fmt.Errorf("failed to decode kanban board: %w", err)
	}
	if board.Tasks == nil {
		board.Tasks = []domain.KanbanTask{}
	}
	return board, nil
}
