package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"nemu-commission-api/internal/cache"
	"nemu-commission-api/internal/client"
	"nemu-commission-api/internal/domain"
	"nemu-commission-api/internal/dto"
	"nemu-commission-api/internal/metrics"
	"nemu-commission-api/internal/repository"
	"nemu-commission-api/internal/response"
)

// InvoiceService defines the interface for invoice business logic
type InvoiceService interface {
	GetInvoice(ctx context.Context, actorID, invoiceID uuid.UUID) (*dto.InvoiceResponse, error)
	ReplaceItems(ctx context.Context, artistUserID, invoiceID uuid.UUID, req *dto.ReplaceInvoiceItemsRequest) (*dto.InvoiceResponse, error)
	SendInvoice(ctx context.Context, artistUserID, invoiceID uuid.UUID) error
}

type invoiceServiceImpl struct {
	invoiceRepo repository.InvoiceRepository
	requestRepo repository.RequestRepository
	artistRepo  repository.ArtistRepository
	payments    client.PaymentClient
	notifier    client.NotificationClient
	events      client.EventPublisher
	readCache   cache.ReadCache
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

// NewInvoiceService creates a new instance of InvoiceService
func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	requestRepo repository.RequestRepository,
	artistRepo repository.ArtistRepository,
	payments client.PaymentClient,
	notifier client.NotificationClient,
	events client.EventPublisher,
	readCache cache.ReadCache,
	m *metrics.Metrics,
	logger *zap.Logger,
) InvoiceService {
	if notifier == nil {
		notifier = client.NewNoOpNotificationClient()
	}
	if events == nil {
		events = client.NewNoopEventPublisher()
	}
	if readCache == nil {
		readCache = cache.NewNoopReadCache()
	}
	return &invoiceServiceImpl{
		invoiceRepo: invoiceRepo,
		requestRepo: requestRepo,
		artistRepo:  artistRepo,
		payments:    payments,
		notifier:    notifier,
		events:      events,
		readCache:   readCache,
		metrics:     m,
		logger:      logger,
	}
}

func (s *invoiceServiceImpl) GetInvoice(ctx context.Context, actorID, invoiceID uuid.UUID) (*dto.InvoiceResponse, error) {
	invoice, artist, err := s.load(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if actorID != invoice.UserID && actorID != artist.UserID {
		return nil, response.NewForbiddenError("You do not have access to this invoice", "")
	}
	return toInvoiceResponse(invoice), nil
}

// ReplaceItems swaps the item list of a draft invoice. The total is
// recomputed from the new items.
func (s *invoiceServiceImpl) ReplaceItems(ctx context.Context, artistUserID, invoiceID uuid.UUID, req *dto.ReplaceInvoiceItemsRequest) (*dto.InvoiceResponse, error) {
	invoice, artist, err := s.load(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if artist.UserID != artistUserID {
		return nil, response.NewForbiddenError("Only the artist can edit this invoice", "")
	}
	if invoice.Status != domain.InvoiceStatusCreating {
		return nil, response.NewConflictError("Invoice is no longer editable", string(invoice.Status))
	}

	items := make([]domain.InvoiceItem, 0, len(req.Items))
	for _, in := range req.Items {
		if in.Price < 0 || in.Quantity < 1 {
			return nil, response.NewValidationError("Invalid invoice item", in.Name)
		}
		items = append(items, domain.InvoiceItem{Name: in.Name, Price: in.Price, Quantity: in.Quantity})
	}

	updated, err := s.invoiceRepo.ReplaceItems(ctx, invoiceID, items)
	if err != nil {
		if errors.Is(err, repository.ErrInvoiceNotEditable) {
			return nil, response.NewConflictError("Invoice is no longer editable", "")
		}
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to replace invoice items", err.Error())
	}

	s.logger.Info("Invoice items replaced",
		zap.String("invoice_id", invoiceID.String()),
		zap.Int("items", len(items)),
		zap.Int64("total", updated.Total),
	)
	return toInvoiceResponse(updated), nil
}

// SendInvoice replaces the draft's line items with the stored items, finalizes
// the draft and stores the hosted payment URL. Each step aborts the rest on
// failure and a retry starts again from an empty draft.
func (s *invoiceServiceImpl) SendInvoice(ctx context.Context, artistUserID, invoiceID uuid.UUID) error {
	invoice, artist, err := s.load(ctx, invoiceID)
	if err != nil {
		return err
	}
	if artist.UserID != artistUserID {
		return response.NewForbiddenError("Only the artist can send this invoice", "")
	}
	if invoice.Sent || invoice.Status != domain.InvoiceStatusCreating {
		return response.NewConflictError("Invoice has already been sent", string(invoice.Status))
	}
	if len(invoice.Items) == 0 {
		return response.NewValidationError("Invoice has no items", nil)
	}

	request, err := s.requestRepo.FindByID(ctx, invoice.RequestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NewNotFoundError("Request not found", "")
		}
		return response.NewAppError(response.ErrCodeInternal, "Failed to load request", err.Error())
	}
	if request.Status != domain.RequestStatusAccepted {
		return response.NewConflictError("Invoice can only be sent for an accepted request", string(request.Status))
	}

	total := domain.InvoiceTotal(invoice.Items)

	// an earlier attempt may have left items on the draft before failing
	cleared, err := s.payments.ClearInvoiceItems(ctx, invoice.StripeInvoiceID)
	if err != nil {
		return s.failed(invoice, "Failed to reset invoice items", err)
	}
	if cleared > 0 {
		s.logger.Info("Removed stale items from invoice draft",
			zap.String("invoice_id", invoice.ID.String()),
			zap.Int("removed", cleared),
		)
	}

	attempt := uuid.NewString()
	itemsKey := fmt.Sprintf("invoice-%s-items-%s", invoice.ID, attempt)
	if err := s.payments.AddInvoiceItems(ctx, invoice.StripeInvoiceID, invoice.CustomerID, invoice.Currency, invoice.Items, itemsKey); err != nil {
		return s.failed(invoice, "Failed to sync invoice items", err)
	}

	finalizeKey := fmt.Sprintf("invoice-%s-finalize-%s", invoice.ID, attempt)
	hostedURL, err := s.payments.FinalizeInvoice(ctx, invoice.StripeInvoiceID, finalizeKey)
	if err != nil {
		return s.failed(invoice, "Failed to finalize invoice", err)
	}

	if err := s.invoiceRepo.MarkSent(ctx, invoice.ID, total, hostedURL); err != nil {
		return s.failed(invoice, "Failed to store sent invoice", err)
	}

	if err := s.notifier.SendNotification(ctx, client.NotificationEvent{
		Type:         client.NotificationInvoiceSent,
		ActorID:      artistUserID,
		TargetUserID: invoice.UserID,
		ResourceType: client.ResourceInvoice,
		ResourceID:   invoice.ID,
		Metadata: map[string]interface{}{
			"hostedUrl": hostedURL,
			"total":     total,
			"currency":  invoice.Currency,
			"orderId":   request.OrderID,
		},
	}); err != nil {
		s.logger.Warn("Failed to send invoice notification", zap.String("invoice_id", invoice.ID.String()), zap.Error(err))
	}
	if err := s.events.Publish(ctx, client.LifecycleEvent{
		Type:         client.EventInvoiceSent,
		RequestID:    request.ID,
		CommissionID: request.CommissionID,
		ActorID:      artistUserID,
		Payload:      map[string]interface{}{"invoice_id": invoice.ID, "total": total},
	}); err != nil {
		s.logger.Warn("Failed to publish invoice event", zap.String("invoice_id", invoice.ID.String()), zap.Error(err))
	}

	s.metrics.IncrementInvoicesSent()
	s.readCache.Delete(ctx, cache.RequestKey(request.ID.String()), cache.RequestOrderKey(request.OrderID))
	s.logger.Info("Invoice sent",
		zap.String("invoice_id", invoice.ID.String()),
		zap.Int64("total", total),
	)
	return nil
}

func (s *invoiceServiceImpl) load(ctx context.Context, invoiceID uuid.UUID) (*domain.Invoice, *domain.Artist, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, response.NewNotFoundError("Invoice not found", "")
		}
		return nil, nil, response.NewAppError(response.ErrCodeInternal, "Failed to load invoice", err.Error())
	}
	artist, err := s.artistRepo.FindByID(ctx, invoice.ArtistID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, response.NewNotFoundError("Artist not found", "")
		}
		return nil, nil, response.NewAppError(response.ErrCodeInternal, "Failed to load artist", err.Error())
	}
	return invoice, artist, nil
}

func (s *invoiceServiceImpl) failed(invoice *domain.Invoice, message string, err error) error {
	s.logger.Error(message, zap.String("invoice_id", invoice.ID.String()), zap.Error(err))
	if client.IsProviderError(err) {
		return response.NewExternalServiceError(message, err.Error())
	}
	return response.NewAppError(response.ErrCodeInternal, message, err.Error())
}
