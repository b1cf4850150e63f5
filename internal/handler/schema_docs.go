package handler

import (
	"nemu-commission-api/internal/domain"
	"nemu-commission-api/internal/dto"
	"nemu-commission-api/internal/form"
)

// SchemaDocumentation references payloads that only travel inside other payloads
// (websocket frames, JSON columns) so swag includes them in the definitions.
type SchemaDocumentation struct {
	BoardMessage       BoardMessage            `json:"boardMessage"`
	KanbanBoard        domain.KanbanBoard      `json:"kanbanBoard"`
	Field              form.Field              `json:"field"`
	Widget             form.Widget             `json:"widget"`
	Answers            form.Answers            `json:"answers"`
	AttachmentResponse dto.AttachmentResponse  `json:"attachmentResponse"`
	InvoiceItem        dto.InvoiceItemResponse `json:"invoiceItem"`
}

// GetSchemaDocumentation is never routed
// @Summary      Schema Documentation (Not a real endpoint)
// @Description  This endpoint does not exist. It's used to document DTO schemas.
// @Tags         internal
// @Produce      json
// @Success      200 {object} SchemaDocumentation
// @Router       /internal/schemas [get]
func GetSchemaDocumentation() {}
