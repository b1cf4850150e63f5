package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"nemu-commission-api/internal/domain"
)

// setupTestDB creates an in-memory SQLite database with every table migrated
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err, "failed to open test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// a second connection would see a different in-memory database
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&domain.User{},
		&domain.Artist{},
		&domain.FormDefinition{},
		&domain.Commission{},
		&domain.Request{},
		&domain.Invoice{},
		&domain.InvoiceItem{},
		&domain.StripeCustomer{},
		&domain.Kanban{},
		&domain.Attachment{},
	))
	return db
}

func seedCommission(t *testing.T, db *gorm.DB) *domain.Commission {
	t.Helper()
	c := &domain.Commission{
		ArtistID:     uuid.New(),
		FormID:       uuid.New(),
		Title:        "Full body sketch",
		Price:        4500,
		Currency:     "usd",
		Availability: domain.AvailabilityOpen,
		Published:    true,
	}
	require.NoError(t, NewCommissionRepository(db).Create(context.Background(), c))
	return c
}

func seedRequest(t *testing.T, db *gorm.DB, commissionID uuid.UUID) *domain.Request {
	t.Helper()
	r := &domain.Request{
		OrderID:      uuid.NewString(),
		FormID:       uuid.New(),
		CommissionID: commissionID,
		UserID:       uuid.New(),
		Status:       domain.RequestStatusPending,
		Content:      []byte(`{"f1":{"value":"fox","label":"Character"}}`),
	}
	require.NoError(t, NewRequestRepository(db).Create(context.Background(), r))
	return r
}

func TestCommissionRepository_IncrementDecisionCounters(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCommissionRepository(db)
	ctx := context.Background()
	c := seedCommission(t, db)

	require.NoError(t, repo.IncrementDecisionCounters(ctx, c.ID, true))
	require.NoError(t, repo.IncrementDecisionCounters(ctx, c.ID, true))
	require.NoError(t, repo.IncrementDecisionCounters(ctx, c.ID, false))

	got, err := repo.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.NewRequests)
	assert.Equal(t, 2, got.AcceptedRequests)
	assert.Equal(t, 1, got.RejectedRequests)

	err = repo.IncrementDecisionCounters(ctx, uuid.New(), true)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestCommissionRepository_ConcurrentIncrementsAreNotLost(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCommissionRepository(db)
	ctx := context.Background()
	c := seedCommission(t, db)

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, repo.IncrementDecisionCounters(ctx, c.ID, true))
		}()
	}
	wg.Wait()

	got, err := repo.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, n, got.NewRequests)
	assert.Equal(t, n, got.AcceptedRequests)
}

func TestRequestRepository_SubmitAppliesAvailability(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCommissionRepository(db)
	ctx := context.Background()
	c := seedCommission(t, db)
	seedCommission(t, db)

	closed := domain.AvailabilityClosed
	submission := newSubmission(c.ID, uuid.New())
	submission.Availability = &closed
	require.NoError(t, NewRequestRepository(db).Submit(ctx, submission))

	open, err := repo.CountByAvailability(ctx, domain.AvailabilityOpen)
	require.NoError(t, err)
	assert.Equal(t, int64(1), open)

	got, err := repo.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AvailabilityClosed, got.Availability)
}

func TestRequestRepository_ClaimDecision(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRequestRepository(db)
	ctx := context.Background()
	c := seedCommission(t, db)
	r := seedRequest(t, db, c.ID)

	ok, err := repo.ClaimDecision(ctx, r.ID, domain.DecisionAccept)
	require.NoError(t, err)
	assert.True(t, ok)

	// retry with the same decision resumes
	ok, err = repo.ClaimDecision(ctx, r.ID, domain.DecisionAccept)
	require.NoError(t, err)
	assert.True(t, ok)

	// a conflicting decision loses
	ok, err = repo.ClaimDecision(ctx, r.ID, domain.DecisionReject)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRequestRepository_TransitionStatusIsCompareAndSwap(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRequestRepository(db)
	ctx := context.Background()
	c := seedCommission(t, db)
	r := seedRequest(t, db, c.ID)

	invoiceID := uuid.New()
	ok, err := repo.TransitionStatus(ctx, r.ID, undecidedStatuses, domain.RequestStatusAccepted, map[string]interface{}{
		"invoice_id": invoiceID,
	})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.TransitionStatus(ctx, r.ID, undecidedStatuses, domain.RequestStatusRejected, nil)
	require.NoError(t, err)
	assert.False(t, ok, "second transition from an undecided state must not match")

	got, err := repo.FindByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusAccepted, got.Status)
	require.NotNil(t, got.InvoiceID)
	assert.Equal(t, invoiceID, *got.InvoiceID)
	require.NotNil(t, got.Commission)
	assert.Equal(t, c.ID, got.Commission.ID)

	// decided requests cannot be claimed again
	claimed, err := repo.ClaimDecision(ctx, r.ID, domain.DecisionReject)
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestRequestRepository_AdvanceStage(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRequestRepository(db)
	ctx := context.Background()
	r := seedRequest(t, db, seedCommission(t, db).ID)
	assert.Equal(t, domain.StageNone, r.DecisionStage)

	kanbanID := uuid.New()
	require.NoError(t, repo.AdvanceStage(ctx, r.ID, domain.StageKanbanReady, map[string]interface{}{"kanban_id": kanbanID}))

	got, err := repo.FindByOrderID(ctx, r.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.StageKanbanReady, got.DecisionStage)
	require.NotNil(t, got.KanbanID)
	assert.Equal(t, kanbanID, *got.KanbanID)
	assert.Equal(t, domain.RequestStatusPending, got.Status)
}

func TestRequestRepository_Listing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRequestRepository(db)
	ctx := context.Background()
	c := seedCommission(t, db)
	first := seedRequest(t, db, c.ID)
	seedRequest(t, db, c.ID)
	seedRequest(t, db, seedCommission(t, db).ID)

	byCommission, err := repo.FindByCommission(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, byCommission, 2)

	mine, err := repo.FindByUser(ctx, first.UserID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}

func TestInvoiceRepository_TotalsAndEditing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewInvoiceRepository(db)
	ctx := context.Background()

	inv := &domain.Invoice{
		RequestID:       uuid.New(),
		ArtistID:        uuid.New(),
		UserID:          uuid.New(),
		CustomerID:      "cus_1",
		StripeInvoiceID: "in_1",
		Status:          domain.InvoiceStatusCreating,
		Currency:        "usd",
		Items:           []domain.InvoiceItem{{Name: "Sketch", Price: 1000, Quantity: 2}, {Name: "Background", Price: 500, Quantity: 1}},
	}
	require.NoError(t, repo.Create(ctx, inv))

	got, err := repo.FindByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), got.Total)
	assert.Len(t, got.Items, 2)

	updated, err := repo.ReplaceItems(ctx, inv.ID, []domain.InvoiceItem{{Name: "Sketch", Price: 1000, Quantity: 2}})
	require.NoError(t, err)
	assert.Equal(t, int64(2000), updated.Total)
	assert.Len(t, updated.Items, 1)

	require.NoError(t, repo.MarkSent(ctx, inv.ID, 2000, "https://pay.example/in_1"))
	sent, err := repo.FindByRequestID(ctx, inv.RequestID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPending, sent.Status)
	assert.True(t, sent.Sent)
	require.NotNil(t, sent.HostedURL)
	assert.Equal(t, "https://pay.example/in_1", *sent.HostedURL)

	_, err = repo.ReplaceItems(ctx, inv.ID, []domain.InvoiceItem{{Name: "x", Price: 1, Quantity: 1}})
	assert.True(t, errors.Is(err, ErrInvoiceNotEditable))
}

func TestStripeCustomerRepository_CreateIfAbsent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewStripeCustomerRepository(db)
	ctx := context.Background()
	userID, artistID := uuid.New(), uuid.New()

	first, err := repo.CreateIfAbsent(ctx, &domain.StripeCustomer{UserID: userID, ArtistID: artistID, CustomerID: "cus_first"})
	require.NoError(t, err)
	assert.Equal(t, "cus_first", first.CustomerID)

	second, err := repo.CreateIfAbsent(ctx, &domain.StripeCustomer{UserID: userID, ArtistID: artistID, CustomerID: "cus_second"})
	require.NoError(t, err)
	assert.Equal(t, "cus_first", second.CustomerID)

	var count int64
	db.Model(&domain.StripeCustomer{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestKanbanRepository_BoardDocument(t *testing.T) {
	db := setupTestDB(t)
	repo := NewKanbanRepository(db)
	ctx := context.Background()

	board := domain.DefaultKanbanBoard()
	data, err := json.Marshal(board)
	require.NoError(t, err)

	k := &domain.Kanban{RequestID: uuid.New(), Board: data}
	require.NoError(t, repo.Create(ctx, k))

	board.Tasks = append(board.Tasks, domain.KanbanTask{ID: "t1", ContainerID: board.Containers[0].ID, Content: "Sketch pose"})
	data, _ = json.Marshal(board)
	require.NoError(t, repo.UpdateBoard(ctx, k.ID, data))

	got, err := repo.FindByRequestID(ctx, k.RequestID)
	require.NoError(t, err)
	var decoded domain.KanbanBoard
	require.NoError(t, json.Unmarshal(got.Board, &decoded))
	assert.Equal(t, board, decoded)
}

func TestUserRepository_EnsureAndProvision(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := &domain.User{BaseModel: domain.BaseModel{ID: uuid.New()}, Username: "kai"}
	require.NoError(t, repo.Ensure(ctx, u))
	require.NoError(t, repo.Ensure(ctx, &domain.User{BaseModel: domain.BaseModel{ID: u.ID}, Username: "kai-renamed"}))

	require.NoError(t, repo.MarkChatProvisioned(ctx, u.ID))
	got, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.ChatProvisioned)

	assert.Error(t, repo.MarkChatProvisioned(ctx, uuid.New()))
}
