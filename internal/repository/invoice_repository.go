package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"nemu-commission-api/internal/domain"
)

// ErrInvoiceNotEditable is returned when items change on an invoice that left CREATING
var ErrInvoiceNotEditable = errors.New("invoice is no longer editable")

// InvoiceRepository defines the interface for invoice data access
type InvoiceRepository interface {
	// Create inserts the invoice and its items in one transaction
	Create(ctx context.Context, invoice *domain.Invoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error)
	FindByRequestID(ctx context.Context, requestID uuid.UUID) (*domain.Invoice, error)
	// ReplaceItems swaps the item list and stores the recomputed total
	ReplaceItems(ctx context.Context, invoiceID uuid.UUID, items []domain.InvoiceItem) (*domain.Invoice, error)
	MarkSent(ctx context.Context, invoiceID uuid.UUID, total int64, hostedURL string) error
}

type invoiceRepositoryImpl struct {
	db *gorm.DB
}

// NewInvoiceRepository creates a new instance of InvoiceRepository
func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepositoryImpl{db: db}
}

func (r *invoiceRepositoryImpl) Create(ctx context.Context, invoice *domain.Invoice) error {
	invoice.Total = domain.InvoiceTotal(invoice.Items)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(invoice).Error
	})
}

func (r *invoiceRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	var invoice domain.Invoice
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where("id = ?", id).
		First(&invoice).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepositoryImpl) FindByRequestID(ctx context.Context, requestID uuid.UUID) (*domain.Invoice, error) {
	var invoice domain.Invoice
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("request_id = ?", requestID).
		First(&invoice).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepositoryImpl) ReplaceItems(ctx context.Context, invoiceID uuid.UUID, items []domain.InvoiceItem) (*domain.Invoice, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var invoice domain.Invoice
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", invoiceID).
			First(&invoice).Error; err != nil {
			return err
		}
		if invoice.Status != domain.InvoiceStatusCreating {
			return ErrInvoiceNotEditable
		}

		if err := tx.Unscoped().Where("invoice_id = ?", invoiceID).Delete(&domain.InvoiceItem{}).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].ID = uuid.Nil
			items[i].InvoiceID = invoiceID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		return tx.Model(&domain.Invoice{}).
			Where("id = ?", invoiceID).
			Update("total", domain.InvoiceTotal(items)).Error
	})
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, invoiceID)
}

func (r *invoiceRepositoryImpl) MarkSent(ctx context.Context, invoiceID uuid.UUID, total int64, hostedURL string) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("id = ?", invoiceID).
		Updates(map[string]interface{}{
			"status":     domain.InvoiceStatusPending,
			"sent":       true,
			"hosted_url": hostedURL,
			"total":      total,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// StripeCustomerRepository defines the interface for payment customer mappings
type StripeCustomerRepository interface {
	FindByUserAndArtist(ctx context.Context, userID, artistID uuid.UUID) (*domain.StripeCustomer, error)
	// CreateIfAbsent inserts the mapping unless one exists for the pair, and
	// returns whichever row is stored afterwards.
	CreateIfAbsent(ctx context.Context, customer *domain.StripeCustomer) (*domain.StripeCustomer, error)
}

type stripeCustomerRepositoryImpl struct {
	db *gorm.DB
}

// NewStripeCustomerRepository creates a new instance of StripeCustomerRepository
func NewStripeCustomerRepository(db *gorm.DB) StripeCustomerRepository {
	return &stripeCustomerRepositoryImpl{db: db}
}

func (r *stripeCustomerRepositoryImpl) FindByUserAndArtist(ctx context.Context, userID, artistID uuid.UUID) (*domain.StripeCustomer, error) {
	var customer domain.StripeCustomer
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND artist_id = ?", userID, artistID).
		First(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *stripeCustomerRepositoryImpl) CreateIfAbsent(ctx context.Context, customer *domain.StripeCustomer) (*domain.StripeCustomer, error) {
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "artist_id"}},
			DoNothing: true,
		}).
		Create(customer).Error; err != nil {
		return nil, err
	}
	return r.FindByUserAndArtist(ctx, customer.UserID, customer.ArtistID)
}
