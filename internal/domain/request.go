package domain

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// RequestStatus is the lifecycle state of a commission request
type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "PENDING"
	RequestStatusWaitlist  RequestStatus = "WAITLIST"
	RequestStatusAccepted  RequestStatus = "ACCEPTED"
	RequestStatusRejected  RequestStatus = "REJECTED"
	RequestStatusDelivered RequestStatus = "DELIVERED"
)

// Undecided reports whether the request still awaits the artist's decision
func (s RequestStatus) Undecided() bool {
	return s == RequestStatusPending || s == RequestStatusWaitlist
}

// Decision is the artist's recorded answer to a request
type Decision string

const (
	DecisionAccept Decision = "ACCEPT"
	DecisionReject Decision = "REJECT"
)

// DecisionStage marks how far a decision has progressed. Stages are
// persisted after each completed step so a retried decision resumes.
type DecisionStage string

const (
	StageNone           DecisionStage = "none"
	StageCustomerReady  DecisionStage = "customer_ready"
	StageCounted        DecisionStage = "counted"
	StageInvoiceDrafted DecisionStage = "invoice_drafted"
	StageChatReady      DecisionStage = "chat_ready"
	StageKanbanReady    DecisionStage = "kanban_ready"
	StageComplete       DecisionStage = "complete"
)

var stageOrder = map[DecisionStage]int{
	StageNone:           0,
	StageCustomerReady:  1,
	StageCounted:        2,
	StageInvoiceDrafted: 3,
	StageChatReady:      4,
	StageKanbanReady:    5,
	StageComplete:       6,
}

// Reached reports whether s is at or past target
func (s DecisionStage) Reached(target DecisionStage) bool {
	if s == "" {
		s = StageNone
	}
	return stageOrder[s] >= stageOrder[target]
}

// Request is one client's submission against a commission's form
type Request struct {
	BaseModel
	OrderID      string         `gorm:"type:varchar(64);not null;uniqueIndex:uq_requests_order_id" json:"order_id"`
	FormID       uuid.UUID      `gorm:"type:uuid;not null" json:"form_id"`
	CommissionID uuid.UUID      `gorm:"type:uuid;not null;index:idx_requests_commission_id" json:"commission_id"`
	UserID       uuid.UUID      `gorm:"type:uuid;not null;index:idx_requests_user_id" json:"user_id"`
	Status       RequestStatus  `gorm:"type:varchar(20);not null;index:idx_requests_status" json:"status"`
	Content      datatypes.JSON `gorm:"type:jsonb;not null" json:"content"`

	InvoiceID          *uuid.UUID `gorm:"type:uuid" json:"invoice_id"`
	KanbanID           *uuid.UUID `gorm:"type:uuid" json:"kanban_id"`
	SendbirdChannelURL *string    `gorm:"type:varchar(128)" json:"sendbird_channel_url"`

	Decision      *Decision     `gorm:"type:varchar(10)" json:"decision,omitempty"`
	DecisionStage DecisionStage `gorm:"type:varchar(32);not null;default:'none'" json:"decision_stage"`

	Commission *Commission `gorm:"foreignKey:CommissionID" json:"commission,omitempty"`
}

func (Request) TableName() string {
	return "requests"
}
