package domain

import "github.com/google/uuid"

// InvoiceStatus is the billing state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusCreating  InvoiceStatus = "CREATING"
	InvoiceStatusPending   InvoiceStatus = "PENDING"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

// Invoice is the billing record generated when a request is accepted
type Invoice struct {
	BaseModel
	RequestID       uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:uq_invoices_request_id" json:"request_id"`
	ArtistID        uuid.UUID     `gorm:"type:uuid;not null;index:idx_invoices_artist_id" json:"artist_id"`
	UserID          uuid.UUID     `gorm:"type:uuid;not null;index:idx_invoices_user_id" json:"user_id"`
	CustomerID      string        `gorm:"type:varchar(64);not null" json:"customer_id"`
	StripeInvoiceID string        `gorm:"type:varchar(64);not null" json:"stripe_invoice_id"`
	Status          InvoiceStatus `gorm:"type:varchar(20);not null" json:"status"`
	Total           int64         `gorm:"not null;default:0" json:"total"`
	Currency        string        `gorm:"type:varchar(3);not null;default:'usd'" json:"currency"`
	Sent            bool          `gorm:"not null;default:false" json:"sent"`
	HostedURL       *string       `gorm:"type:text" json:"hosted_url"`
	Items           []InvoiceItem `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

func (Invoice) TableName() string {
	return "invoices"
}

// InvoiceItem is one billable line
type InvoiceItem struct {
	BaseModel
	InvoiceID uuid.UUID `gorm:"type:uuid;not null;index:idx_invoice_items_invoice_id" json:"invoice_id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Price     int64     `gorm:"not null" json:"price"`
	Quantity  int64     `gorm:"not null;default:1" json:"quantity"`
}

func (InvoiceItem) TableName() string {
	return "invoice_items"
}

// InvoiceTotal is the sum of price*quantity across items
func InvoiceTotal(items []InvoiceItem) int64 {
	var total int64
	for _, item := range items {
		total += item.Price * item.Quantity
	}
	return total
}

// StripeCustomer maps a (user, artist) pair to a payment processor customer
type StripeCustomer struct {
	BaseModel
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_stripe_customers_user_artist,priority:1" json:"user_id"`
	ArtistID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_stripe_customers_user_artist,priority:2" json:"artist_id"`
	CustomerID string    `gorm:"type:varchar(64);not null" json:"customer_id"`
}

func (StripeCustomer) TableName() string {
	return "stripe_customers"
}
