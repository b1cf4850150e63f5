package dto

import (
	"time"

	"github.com/google/uuid"

	"nemu-commission-api/internal/domain"
)

// InvoiceItemInput is one billable line in an item replacement
type InvoiceItemInput struct {
	Name     string `json:"name" binding:"required,max=255" example:"Full body sketch"`
	Price    int64  `json:"price" binding:"min=0" example:"1000"`
	Quantity int64  `json:"quantity" binding:"required,min=1" example:"2"`
}

// ReplaceInvoiceItemsRequest replaces the whole item list of a draft invoice
type ReplaceInvoiceItemsRequest struct {
	Items []InvoiceItemInput `json:"items" binding:"required,min=1,dive"`
}

type InvoiceItemResponse struct {
	ID       uuid.UUID `json:"itemId"`
	Name     string    `json:"name"`
	Price    int64     `json:"price"`
	Quantity int64     `json:"quantity"`
}

// InvoiceResponse represents an invoice with its items
// @Description total is always the sum of price*quantity across items
type InvoiceResponse struct {
	ID        uuid.UUID             `json:"invoiceId"`
	RequestID uuid.UUID             `json:"requestId"`
	ArtistID  uuid.UUID             `json:"artistId"`
	UserID    uuid.UUID             `json:"userId"`
	Status    domain.InvoiceStatus  `json:"status" example:"CREATING"`
	Total     int64                 `json:"total" example:"2500"`
	Currency  string                `json:"currency" example:"usd"`
	Sent      bool                  `json:"sent"`
	HostedURL *string               `json:"hostedUrl"`
	Items     []InvoiceItemResponse `json:"items"`
	CreatedAt time.Time             `json:"createdAt"`
	UpdatedAt time.Time             `json:"updatedAt"`
}
