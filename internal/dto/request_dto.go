package dto

import (
	"time"

	"github.com/google/uuid"

	"nemu-commission-api/internal/domain"
	"nemu-commission-api/internal/form"
)

// SubmitRequestRequest represents a client's submission against a commission form
// @Description content is the stringified JSON answer map {fieldId: {value, label}}
// @Description attachmentIds optionally binds uploaded reference images to the request
type SubmitRequestRequest struct {
	FormID        uuid.UUID   `json:"formId" binding:"required" example:"0b0c5f7a-6a51-4e2a-9d0a-2bb4c2f3c111"`
	CommissionID  uuid.UUID   `json:"commissionId" binding:"required" example:"5d1f0a3e-2b8c-4c41-8a44-0e9e3a7f2222"`
	Content       string      `json:"content" binding:"required" example:"{\"f1\":{\"value\":\"A fox in the snow\",\"label\":\"Describe your idea\"}}"`
	AttachmentIDs []uuid.UUID `json:"attachmentIds,omitempty" binding:"omitempty,max=10"`
}

// DecideRequestRequest is the artist's accept/reject answer
type DecideRequestRequest struct {
	Accepted *bool `json:"accepted" binding:"required" example:"true"`
}

// ResultResponse is the uniform orchestrator result
type ResultResponse struct {
	Success bool `json:"success" example:"true"`
}

// SubmitRequestResponse is returned after a successful submission
type SubmitRequestResponse struct {
	Success   bool                 `json:"success" example:"true"`
	RequestID uuid.UUID            `json:"requestId"`
	OrderID   string               `json:"orderId"`
	Status    domain.RequestStatus `json:"status" example:"PENDING"`
}

// RequestResponse represents a commission request
type RequestResponse struct {
	ID                 uuid.UUID            `json:"requestId"`
	OrderID            string               `json:"orderId"`
	FormID             uuid.UUID            `json:"formId"`
	CommissionID       uuid.UUID            `json:"commissionId"`
	UserID             uuid.UUID            `json:"userId"`
	Status             domain.RequestStatus `json:"status" example:"ACCEPTED"`
	Content            form.Answers         `json:"content"`
	InvoiceID          *uuid.UUID           `json:"invoiceId"`
	KanbanID           *uuid.UUID           `json:"kanbanId"`
	SendbirdChannelURL *string              `json:"sendbirdChannelUrl"`
	DecisionStage      domain.DecisionStage `json:"decisionStage"`
	CreatedAt          time.Time            `json:"createdAt"`
	UpdatedAt          time.Time            `json:"updatedAt"`
}
