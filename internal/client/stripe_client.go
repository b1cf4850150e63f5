package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	stripeclient "github.com/stripe/stripe-go/v82/client"
	"go.uber.org/zap"

	"nemu-commission-api/internal/domain"
	"nemu-commission-api/internal/metrics"
)

// ErrPaymentDisabled is returned when no processor key is configured
var ErrPaymentDisabled = errors.New("payment processor is not configured")

// CustomerParams identifies the (client, artist) pair a customer is created for
type CustomerParams struct {
	UserID   uuid.UUID
	ArtistID uuid.UUID
	Email    string
	Name     string
}

// PaymentClient is the narrow payment processor surface the orchestrator uses.
// Every write takes an idempotency key so a retried step never double-creates.
type PaymentClient interface {
	CreateCustomer(ctx context.Context, params CustomerParams, idempotencyKey string) (string, error)
	CreateInvoiceDraft(ctx context.Context, customerID, currency, idempotencyKey string) (string, error)
	// ClearInvoiceItems deletes every line item on a draft and reports how many were removed
	ClearInvoiceItems(ctx context.Context, stripeInvoiceID string) (int, error)
	AddInvoiceItems(ctx context.Context, stripeInvoiceID, customerID, currency string, items []domain.InvoiceItem, idempotencyKey string) error
	FinalizeInvoice(ctx context.Context, stripeInvoiceID, idempotencyKey string) (string, error)
}

type stripeClient struct {
	api          *stripeclient.API
	daysUntilDue int64
	logger       *zap.Logger
	metrics      *metrics.Metrics
}

// NewStripeClient creates a PaymentClient on the given API key.
// backends may be nil to use the live Stripe endpoints.
func NewStripeClient(secretKey string, daysUntilDue int64, backends *stripe.Backends, logger *zap.Logger, m *metrics.Metrics) PaymentClient {
	return &stripeClient{
		api:          stripeclient.New(secretKey, backends),
		daysUntilDue: daysUntilDue,
		logger:       logger,
		metrics:      m,
	}
}

func (c *stripeClient) CreateCustomer(ctx context.Context, p CustomerParams, idempotencyKey string) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(p.Email),
		Name:  stripe.String(p.Name),
	}
	params.Context = ctx
	params.SetIdempotencyKey(idempotencyKey)
	params.AddMetadata("user_id", p.UserID.String())
	params.AddMetadata("artist_id", p.ArtistID.String())

	var customer *stripe.Customer
	err := c.observe(http.MethodPost, "/v1/customers", func() (err error) {
		customer, err = c.api.Customers.New(params)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("create customer: %w", err)
	}
	return customer.ID, nil
}

func (c *stripeClient) CreateInvoiceDraft(ctx context.Context, customerID, currency, idempotencyKey string) (string, error) {
	params := &stripe.InvoiceParams{
		Customer:                    stripe.String(customerID),
		Currency:                    stripe.String(currency),
		CollectionMethod:            stripe.String(string(stripe.InvoiceCollectionMethodSendInvoice)),
		DaysUntilDue:                stripe.Int64(c.daysUntilDue),
		AutoAdvance:                 stripe.Bool(false),
		PendingInvoiceItemsBehavior: stripe.String("exclude"),
	}
	params.Context = ctx
	params.SetIdempotencyKey(idempotencyKey)

	var invoice *stripe.Invoice
	err := c.observe(http.MethodPost, "/v1/invoices", func() (err error) {
		invoice, err = c.api.Invoices.New(params)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("create invoice draft: %w", err)
	}
	return invoice.ID, nil
}

func (c *stripeClient) ClearInvoiceItems(ctx context.Context, stripeInvoiceID string) (int, error) {
	listParams := &stripe.InvoiceItemListParams{Invoice: stripe.String(stripeInvoiceID)}
	listParams.Context = ctx

	var ids []string
	err := c.observe(http.MethodGet, "/v1/invoiceitems", func() error {
		iter := c.api.InvoiceItems.List(listParams)
		for iter.Next() {
			ids = append(ids, iter.InvoiceItem().ID)
		}
		return iter.Err()
	})
	if err != nil {
		return 0, fmt.Errorf("list invoice items: %w", err)
	}

	for _, id := range ids {
		params := &stripe.InvoiceItemParams{}
		params.Context = ctx
		err := c.observe(http.MethodDelete, "/v1/invoiceitems/{id}", func() error {
			_, err := c.api.InvoiceItems.Del(id, params)
			return err
		})
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode == http.StatusNotFound {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("delete invoice item %s: %w", id, err)
		}
	}
	return len(ids), nil
}

// AddInvoiceItems pushes one invoice item per line. Amount is price*quantity in minor units.
func (c *stripeClient) AddInvoiceItems(ctx context.Context, stripeInvoiceID, customerID, currency string, items []domain.InvoiceItem, idempotencyKey string) error {
	for i, item := range items {
		params := &stripe.InvoiceItemParams{
			Customer:    stripe.String(customerID),
			Invoice:     stripe.String(stripeInvoiceID),
			Currency:    stripe.String(currency),
			Amount:      stripe.Int64(item.Price * item.Quantity),
			Description: stripe.String(fmt.Sprintf("%s x%d", item.Name, item.Quantity)),
		}
		params.Context = ctx
		params.SetIdempotencyKey(fmt.Sprintf("%s-%d", idempotencyKey, i))

		err := c.observe(http.MethodPost, "/v1/invoiceitems", func() error {
			_, err := c.api.InvoiceItems.New(params)
			return err
		})
		if err != nil {
			return fmt.Errorf("add invoice item %q: %w", item.Name, err)
		}
	}
	return nil
}

// FinalizeInvoice locks the draft and returns its hosted payment URL
func (c *stripeClient) FinalizeInvoice(ctx context.Context, stripeInvoiceID, idempotencyKey string) (string, error) {
	params := &stripe.InvoiceFinalizeInvoiceParams{}
	params.Context = ctx
	params.SetIdempotencyKey(idempotencyKey)

	var invoice *stripe.Invoice
	err := c.observe(http.MethodPost, "/v1/invoices/{id}/finalize", func() (err error) {
		invoice, err = c.api.Invoices.FinalizeInvoice(stripeInvoiceID, params)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("finalize invoice: %w", err)
	}
	return invoice.HostedInvoiceURL, nil
}

func (c *stripeClient) observe(method, endpoint string, call func() error) error {
	start := time.Now()
	err := call()
	duration := time.Since(start)

	status := 200
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		status = stripeErr.HTTPStatusCode
	} else if err != nil {
		status = 0
	}
	if c.metrics != nil {
		c.metrics.RecordExternalAPICall("stripe:"+endpoint, method, status, duration, err)
	}
	if err != nil {
		c.logger.Error("Stripe call failed",
			zap.String("endpoint", endpoint),
			zap.Int("status_code", status),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
	}
	return err
}

type disabledPaymentClient struct{}

// NewDisabledPaymentClient fails every call with ErrPaymentDisabled
func NewDisabledPaymentClient() PaymentClient {
	return disabledPaymentClient{}
}

func (disabledPaymentClient) CreateCustomer(context.Context, CustomerParams, string) (string, error) {
	return "", ErrPaymentDisabled
}

func (disabledPaymentClient) CreateInvoiceDraft(context.Context, string, string, string) (string, error) {
	return "", ErrPaymentDisabled
}

func (disabledPaymentClient) ClearInvoiceItems(context.Context, string) (int, error) {
	return 0, ErrPaymentDisabled
}

func (disabledPaymentClient) AddInvoiceItems(context.Context, string, string, string, []domain.InvoiceItem, string) error {
	return ErrPaymentDisabled
}

func (disabledPaymentClient) FinalizeInvoice(context.Context, string, string) (string, error) {
	return "", ErrPaymentDisabled
}
