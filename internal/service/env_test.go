package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"nemu-commission-api/internal/cache"
	"nemu-commission-api/internal/domain"
	"nemu-commission-api/internal/form"
	"nemu-commission-api/internal/repository"
	"nemu-commission-api/internal/response"
)

// testEnv wires the services to an in-memory database and fake providers
type testEnv struct {
	db *gorm.DB

	requests    repository.RequestRepository
	commissions repository.CommissionRepository
	invoices    repository.InvoiceRepository
	kanbans     repository.KanbanRepository
	users       repository.UserRepository
	artists     repository.ArtistRepository

	payments *MockPaymentClient
	chat     *MockChatClient
	notifier *MockNotificationClient
	events   *MockEventPublisher
	locker   *cache.MemoryLocker

	requestService RequestService
	invoiceService InvoiceService

	clientUser *domain.User
	artistUser *domain.User
	artist     *domain.Artist
	form       *domain.FormDefinition
	schema     form.Schema
	commission *domain.Commission
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&domain.User{}, &domain.Artist{}, &domain.FormDefinition{}, &domain.Commission{},
		&domain.Request{}, &domain.Invoice{}, &domain.InvoiceItem{}, &domain.StripeCustomer{},
		&domain.Kanban{}, &domain.Attachment{},
	))

	env := &testEnv{
		db:          db,
		requests:    repository.NewRequestRepository(db),
		commissions: repository.NewCommissionRepository(db),
		invoices:    repository.NewInvoiceRepository(db),
		kanbans:     repository.NewKanbanRepository(db),
		users:       repository.NewUserRepository(db),
		artists:     repository.NewArtistRepository(db),
		payments:    &MockPaymentClient{},
		chat:        &MockChatClient{},
		notifier:    &MockNotificationClient{},
		events:      &MockEventPublisher{},
		locker:      cache.NewMemoryLocker(),
	}
	env.requestService = NewRequestService(RequestServiceDeps{
		Requests:    env.requests,
		Commissions: env.commissions,
		Forms:       repository.NewFormRepository(db),
		Users:       env.users,
		Artists:     env.artists,
		Invoices:    env.invoices,
		Customers:   repository.NewStripeCustomerRepository(db),
		Kanbans:     env.kanbans,
		Payments:    env.payments,
		Chat:        env.chat,
		Notifier:    env.notifier,
		Events:      env.events,
		Locker:      env.locker,
	}, nil, zap.NewNop())
	env.invoiceService = NewInvoiceService(env.invoices, env.requests, env.artists,
		env.payments, env.notifier, env.events, nil, nil, zap.NewNop())

	env.seed(t)
	return env
}

func (e *testEnv) seed(t *testing.T) {
	ctx := context.Background()
	e.clientUser = &domain.User{Username: "mika", Email: "mika@example.com"}
	e.artistUser = &domain.User{Username: "kai", Email: "kai@example.com"}
	require.NoError(t, e.users.Ensure(ctx, e.clientUser))
	require.NoError(t, e.users.Ensure(ctx, e.artistUser))

	e.artist = &domain.Artist{UserID: e.artistUser.ID, Handle: "kai"}
	require.NoError(t, e.artists.Create(ctx, e.artist))

	idea, err := form.NewField(form.KindText)
	require.NoError(t, err)
	idea.Metadata.Label = "Describe your idea"
	idea.Metadata.Required = true
	rush, err := form.NewField(form.KindCheckbox)
	require.NoError(t, err)
	rush.Metadata.Label = "Rush order"
	e.schema = form.Schema{idea, rush}

	fields, err := e.schema.Marshal()
	require.NoError(t, err)
	e.form = &domain.FormDefinition{ArtistID: e.artist.ID, Name: "Portrait intake", Fields: fields}
	require.NoError(t, repository.NewFormRepository(e.db).Create(ctx, e.form))

	e.commission = &domain.Commission{
		ArtistID:     e.artist.ID,
		FormID:       e.form.ID,
		Title:        "Full body sketch",
		Price:        4500,
		Currency:     "usd",
		Availability: domain.AvailabilityOpen,
		Published:    true,
	}
	require.NoError(t, e.commissions.Create(ctx, e.commission))
}

func (e *testEnv) content(t *testing.T, idea string) string {
	t.Helper()
	data, err := form.Answers{e.schema[0].ID: {Value: idea}}.Marshal()
	require.NoError(t, err)
	return string(data)
}

// pendingRequest inserts an undecided request for the seeded commission
func (e *testEnv) pendingRequest(t *testing.T) *domain.Request {
	t.Helper()
	r := &domain.Request{
		OrderID:      uuid.NewString(),
		FormID:       e.form.ID,
		CommissionID: e.commission.ID,
		UserID:       e.clientUser.ID,
		Status:       domain.RequestStatusPending,
		Content:      []byte(`{}`),
	}
	require.NoError(t, e.requests.Create(context.Background(), r))
	return r
}

func (e *testEnv) reload(t *testing.T, id uuid.UUID) *domain.Request {
	t.Helper()
	r, err := e.requests.FindByID(context.Background(), id)
	require.NoError(t, err)
	return r
}

func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := err.(*response.AppError)
	if assert.True(t, ok, "expected *response.AppError, got %T", err) {
		assert.Equal(t, code, appErr.Code, appErr.Message)
	}
}
