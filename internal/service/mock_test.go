package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"nemu-commission-api/internal/client"
	"nemu-commission-api/internal/domain"
	"nemu-commission-api/internal/dto"
)

// MockPaymentClient is a mock implementation of client.PaymentClient
type MockPaymentClient struct {
	CreateCustomerFunc     func(ctx context.Context, params client.CustomerParams, idempotencyKey string) (string, error)
	CreateInvoiceDraftFunc func(ctx context.Context, customerID, currency, idempotencyKey string) (string, error)
	ClearInvoiceItemsFunc  func(ctx context.Context, stripeInvoiceID string) (int, error)
	AddInvoiceItemsFunc    func(ctx context.Context, stripeInvoiceID, customerID, currency string, items []domain.InvoiceItem, idempotencyKey string) error
	FinalizeInvoiceFunc    func(ctx context.Context, stripeInvoiceID, idempotencyKey string) (string, error)

	mu    sync.Mutex
	Calls []string
}

func (m *MockPaymentClient) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, call)
}

func (m *MockPaymentClient) CreateCustomer(ctx context.Context, params client.CustomerParams, idempotencyKey string) (string, error) {
	m.record("CreateCustomer")
	if m.CreateCustomerFunc != nil {
		return m.CreateCustomerFunc(ctx, params, idempotencyKey)
	}
	return "cus_test", nil
}

func (m *MockPaymentClient) CreateInvoiceDraft(ctx context.Context, customerID, currency, idempotencyKey string) (string, error) {
	m.record("CreateInvoiceDraft")
	if m.CreateInvoiceDraftFunc != nil {
		return m.CreateInvoiceDraftFunc(ctx, customerID, currency, idempotencyKey)
	}
	return "in_test", nil
}

func (m *MockPaymentClient) ClearInvoiceItems(ctx context.Context, stripeInvoiceID string) (int, error) {
	m.record("ClearInvoiceItems")
	if m.ClearInvoiceItemsFunc != nil {
		return m.ClearInvoiceItemsFunc(ctx, stripeInvoiceID)
	}
	return 0, nil
}

func (m *MockPaymentClient) AddInvoiceItems(ctx context.Context, stripeInvoiceID, customerID, currency string, items []domain.InvoiceItem, idempotencyKey string) error {
	m.record("AddInvoiceItems")
	if m.AddInvoiceItemsFunc != nil {
		return m.AddInvoiceItemsFunc(ctx, stripeInvoiceID, customerID, currency, items, idempotencyKey)
	}
	return nil
}

func (m *MockPaymentClient) FinalizeInvoice(ctx context.Context, stripeInvoiceID, idempotencyKey string) (string, error) {
	m.record("FinalizeInvoice")
	if m.FinalizeInvoiceFunc != nil {
		return m.FinalizeInvoiceFunc(ctx, stripeInvoiceID, idempotencyKey)
	}
	return "https://invoice.stripe.com/i/test", nil
}

func (m *MockPaymentClient) count(call string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		if c == call {
			n++
		}
	}
	return n
}

// MockChatClient is a mock implementation of client.ChatClient
type MockChatClient struct {
	CreateChatUserFunc    func(ctx context.Context, user client.ChatUser) error
	CreateChatChannelFunc func(ctx context.Context, spec client.ChannelSpec) (string, error)

	mu       sync.Mutex
	Users    []client.ChatUser
	Channels []client.ChannelSpec
}

func (m *MockChatClient) CreateChatUser(ctx context.Context, user client.ChatUser) error {
	if m.CreateChatUserFunc != nil {
		if err := m.CreateChatUserFunc(ctx, user); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.Users = append(m.Users, user)
	m.mu.Unlock()
	return nil
}

func (m *MockChatClient) CreateChatChannel(ctx context.Context, spec client.ChannelSpec) (string, error) {
	if m.CreateChatChannelFunc != nil {
		if _, err := m.CreateChatChannelFunc(ctx, spec); err != nil {
			return "", err
		}
	}
	m.mu.Lock()
	m.Channels = append(m.Channels, spec)
	m.mu.Unlock()
	return spec.ChannelURL, nil
}

// MockNotificationClient records every event it is asked to send
type MockNotificationClient struct {
	Err error

	mu     sync.Mutex
	Events []client.NotificationEvent
}

func (m *MockNotificationClient) SendNotification(ctx context.Context, event client.NotificationEvent) error {
	m.mu.Lock()
	m.Events = append(m.Events, event)
	m.mu.Unlock()
	return m.Err
}

func (m *MockNotificationClient) SendBulkNotifications(ctx context.Context, events []client.NotificationEvent) error {
	m.mu.Lock()
	m.Events = append(m.Events, events...)
	m.mu.Unlock()
	return m.Err
}

func (m *MockNotificationClient) types() []client.NotificationType {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]client.NotificationType, 0, len(m.Events))
	for _, e := range m.Events {
		out = append(out, e.Type)
	}
	return out
}

// MockEventPublisher records published lifecycle events
type MockEventPublisher struct {
	Err error

	mu     sync.Mutex
	Events []client.LifecycleEvent
}

func (m *MockEventPublisher) Publish(ctx context.Context, event client.LifecycleEvent) error {
	m.mu.Lock()
	m.Events = append(m.Events, event)
	m.mu.Unlock()
	return m.Err
}

func (m *MockEventPublisher) Close() error { return nil }

// MockBroadcaster records broadcast boards
type MockBroadcaster struct {
	Boards []*dto.KanbanResponse
}

func (m *MockBroadcaster) Broadcast(kanbanID uuid.UUID, board *dto.KanbanResponse) {
	m.Boards = append(m.Boards, board)
}

// MockFormRepository is a mock implementation of FormRepository
type MockFormRepository struct {
	CreateFunc       func(ctx context.Context, form *domain.FormDefinition) error
	FindByIDFunc     func(ctx context.Context, id uuid.UUID) (*domain.FormDefinition, error)
	UpdateFieldsFunc func(ctx context.Context, id uuid.UUID, fields datatypes.JSON) error
}

func (m *MockFormRepository) Create(ctx context.Context, form *domain.FormDefinition) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, form)
	}
	return nil
}

func (m *MockFormRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.FormDefinition, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockFormRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields datatypes.JSON) error {
	if m.UpdateFieldsFunc != nil {
		return m.UpdateFieldsFunc(ctx, id, fields)
	}
	return nil
}

// MockArtistRepository is a mock implementation of ArtistRepository
type MockArtistRepository struct {
	CreateFunc       func(ctx context.Context, artist *domain.Artist) error
	FindByIDFunc     func(ctx context.Context, id uuid.UUID) (*domain.Artist, error)
	FindByUserIDFunc func(ctx context.Context, userID uuid.UUID) (*domain.Artist, error)
}

func (m *MockArtistRepository) Create(ctx context.Context, artist *domain.Artist) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, artist)
	}
	return nil
}

func (m *MockArtistRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Artist, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockArtistRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.Artist, error) {
	if m.FindByUserIDFunc != nil {
		return m.FindByUserIDFunc(ctx, userID)
	}
	return nil, nil
}
