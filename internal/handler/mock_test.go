package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"nemu-commission-api/internal/domain"
	"nemu-commission-api/internal/dto"
	"nemu-commission-api/internal/form"
)

// MockRequestService is a mock implementation of service.RequestService
type MockRequestService struct {
	SubmitFunc              func(ctx context.Context, userID uuid.UUID, req *dto.SubmitRequestRequest) (*dto.SubmitRequestResponse, error)
	DecideFunc              func(ctx context.Context, artistUserID, requestID uuid.UUID, accepted bool) error
	DeliverFunc             func(ctx context.Context, artistUserID, requestID uuid.UUID) error
	GetRequestFunc          func(ctx context.Context, actorID, requestID uuid.UUID) (*dto.RequestResponse, error)
	GetRequestByOrderIDFunc func(ctx context.Context, actorID uuid.UUID, orderID string) (*dto.RequestResponse, error)
	ListByCommissionFunc    func(ctx context.Context, artistUserID, commissionID uuid.UUID) ([]*dto.RequestResponse, error)
	ListMineFunc            func(ctx context.Context, userID uuid.UUID) ([]*dto.RequestResponse, error)
}

func (m *MockRequestService) Submit(ctx context.Context, userID uuid.UUID, req *dto.SubmitRequestRequest) (*dto.SubmitRequestResponse, error) {
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, userID, req)
	}
	return nil, nil
}

func (m *MockRequestService) Decide(ctx context.Context, artistUserID, requestID uuid.UUID, accepted bool) error {
	if m.DecideFunc != nil {
		return m.DecideFunc(ctx, artistUserID, requestID, accepted)
	}
	return nil
}

func (m *MockRequestService) Deliver(ctx context.Context, artistUserID, requestID uuid.UUID) error {
	if m.DeliverFunc != nil {
		return m.DeliverFunc(ctx, artistUserID, requestID)
	}
	return nil
}

func (m *MockRequestService) GetRequest(ctx context.Context, actorID, requestID uuid.UUID) (*dto.RequestResponse, error) {
	if m.GetRequestFunc != nil {
		return m.GetRequestFunc(ctx, actorID, requestID)
	}
	return nil, nil
}

func (m *MockRequestService) GetRequestByOrderID(ctx context.Context, actorID uuid.UUID, orderID string) (*dto.RequestResponse, error) {
	if m.GetRequestByOrderIDFunc != nil {
		return m.GetRequestByOrderIDFunc(ctx, actorID, orderID)
	}
	return nil, nil
}

func (m *MockRequestService) ListByCommission(ctx context.Context, artistUserID, commissionID uuid.UUID) ([]*dto.RequestResponse, error) {
	if m.ListByCommissionFunc != nil {
		return m.ListByCommissionFunc(ctx, artistUserID, commissionID)
	}
	return nil, nil
}

func (m *MockRequestService) ListMine(ctx context.Context, userID uuid.UUID) ([]*dto.RequestResponse, error) {
	if m.ListMineFunc != nil {
		return m.ListMineFunc(ctx, userID)
	}
	return nil, nil
}

// MockInvoiceService is a mock implementation of service.InvoiceService
type MockInvoiceService struct {
	GetInvoiceFunc   func(ctx context.Context, actorID, invoiceID uuid.UUID) (*dto.InvoiceResponse, error)
	ReplaceItemsFunc func(ctx context.Context, artistUserID, invoiceID uuid.UUID, req *dto.ReplaceInvoiceItemsRequest) (*dto.InvoiceResponse, error)
	SendInvoiceFunc  func(ctx context.Context, artistUserID, invoiceID uuid.UUID) error
}

func (m *MockInvoiceService) GetInvoice(ctx context.Context, actorID, invoiceID uuid.UUID) (*dto.InvoiceResponse, error) {
	if m.GetInvoiceFunc != nil {
		return m.GetInvoiceFunc(ctx, actorID, invoiceID)
	}
	return nil, nil
}

func (m *MockInvoiceService) ReplaceItems(ctx context.Context, artistUserID, invoiceID uuid.UUID, req *dto.ReplaceInvoiceItemsRequest) (*dto.InvoiceResponse, error) {
	if m.ReplaceItemsFunc != nil {
		return m.ReplaceItemsFunc(ctx, artistUserID, invoiceID, req)
	}
	return nil, nil
}

func (m *MockInvoiceService) SendInvoice(ctx context.Context, artistUserID, invoiceID uuid.UUID) error {
	if m.SendInvoiceFunc != nil {
		return m.SendInvoiceFunc(ctx, artistUserID, invoiceID)
	}
	return nil
}

// MockKanbanService is a mock implementation of service.KanbanService
type MockKanbanService struct {
	GetBoardFunc     func(ctx context.Context, actorID, kanbanID uuid.UUID) (*dto.KanbanResponse, error)
	ReplaceBoardFunc func(ctx context.Context, actorID, kanbanID uuid.UUID, board domain.KanbanBoard) (*dto.KanbanResponse, error)
	AddTaskFunc      func(ctx context.Context, actorID, kanbanID uuid.UUID, req *dto.AddKanbanTaskRequest) (*dto.KanbanResponse, error)
	MoveTaskFunc     func(ctx context.Context, actorID, kanbanID uuid.UUID, taskID string, req *dto.MoveKanbanTaskRequest) (*dto.KanbanResponse, error)
	RemoveTaskFunc   func(ctx context.Context, actorID, kanbanID uuid.UUID, taskID string) (*dto.KanbanResponse, error)
	AuthorizeFunc    func(ctx context.Context, actorID, kanbanID uuid.UUID) error
}

func (m *MockKanbanService) GetBoard(ctx context.Context, actorID, kanbanID uuid.UUID) (*dto.KanbanResponse, error) {
	if m.GetBoardFunc != nil {
		return m.GetBoardFunc(ctx, actorID, kanbanID)
	}
	return nil, nil
}

func (m *MockKanbanService) ReplaceBoard(ctx context.Context, actorID, kanbanID uuid.UUID, board domain.KanbanBoard) (*dto.KanbanResponse, error) {
	if m.ReplaceBoardFunc != nil {
		return m.ReplaceBoardFunc(ctx, actorID, kanbanID, board)
	}
	return nil, nil
}

func (m *MockKanbanService) AddTask(ctx context.Context, actorID, kanbanID uuid.UUID, req *dto.AddKanbanTaskRequest) (*dto.KanbanResponse, error) {
	if m.AddTaskFunc != nil {
		return m.AddTaskFunc(ctx, actorID, kanbanID, req)
	}
	return nil, nil
}

func (m *MockKanbanService) MoveTask(ctx context.Context, actorID, kanbanID uuid.UUID, taskID string, req *dto.MoveKanbanTaskRequest) (*dto.KanbanResponse, error) {
	if m.MoveTaskFunc != nil {
		return m.MoveTaskFunc(ctx, actorID, kanbanID, taskID, req)
	}
	return nil, nil
}

func (m *MockKanbanService) RemoveTask(ctx context.Context, actorID, kanbanID uuid.UUID, taskID string) (*dto.KanbanResponse, error) {
	if m.RemoveTaskFunc != nil {
		return m.RemoveTaskFunc(ctx, actorID, kanbanID, taskID)
	}
	return nil, nil
}

func (m *MockKanbanService) Authorize(ctx context.Context, actorID, kanbanID uuid.UUID) error {
	if m.AuthorizeFunc != nil {
		return m.AuthorizeFunc(ctx, actorID, kanbanID)
	}
	return nil
}

// MockFormService is a mock implementation of service.FormService
type MockFormService struct {
	CreateFormFunc  func(ctx context.Context, userID uuid.UUID, req *dto.CreateFormRequest) (*dto.FormResponse, error)
	GetFormFunc     func(ctx context.Context, formID uuid.UUID) (*dto.FormResponse, error)
	AddFieldFunc    func(ctx context.Context, userID, formID uuid.UUID, kind form.Kind) (*dto.FormResponse, error)
	UpdateFieldFunc func(ctx context.Context, userID, formID uuid.UUID, fieldID string, metadata form.Metadata) (*dto.FormResponse, error)
	RemoveFieldFunc func(ctx context.Context, userID, formID uuid.UUID, fieldID string) (*dto.FormResponse, error)
	MoveFieldFunc   func(ctx context.Context, userID, formID uuid.UUID, fieldID string, position int) (*dto.FormResponse, error)
	RenderFormFunc  func(ctx context.Context, formID uuid.UUID, mode string) (*dto.RenderFormResponse, error)
}

func (m *MockFormService) CreateForm(ctx context.Context, userID uuid.UUID, req *dto.CreateFormRequest) (*dto.FormResponse, error) {
	if m.CreateFormFunc != nil {
		return m.CreateFormFunc(ctx, userID, req)
	}
	return nil, nil
}

func (m *MockFormService) GetForm(ctx context.Context, formID uuid.UUID) (*dto.FormResponse, error) {
	if m.GetFormFunc != nil {
		return m.GetFormFunc(ctx, formID)
	}
	return nil, nil
}

func (m *MockFormService) AddField(ctx context.Context, userID, formID uuid.UUID, kind form.Kind) (*dto.FormResponse, error) {
	if m.AddFieldFunc != nil {
		return m.AddFieldFunc(ctx, userID, formID, kind)
	}
	return nil, nil
}

func (m *MockFormService) UpdateField(ctx context.Context, userID, formID uuid.UUID, fieldID string, metadata form.Metadata) (*dto.FormResponse, error) {
	if m.UpdateFieldFunc != nil {
		return m.UpdateFieldFunc(ctx, userID, formID, fieldID, metadata)
	}
	return nil, nil
}

func (m *MockFormService) RemoveField(ctx context.Context, userID, formID uuid.UUID, fieldID string) (*dto.FormResponse, error) {
	if m.RemoveFieldFunc != nil {
		return m.RemoveFieldFunc(ctx, userID, formID, fieldID)
	}
	return nil, nil
}

func (m *MockFormService) MoveField(ctx context.Context, userID, formID uuid.UUID, fieldID string, position int) (*dto.FormResponse, error) {
	if m.MoveFieldFunc != nil {
		return m.MoveFieldFunc(ctx, userID, formID, fieldID, position)
	}
	return nil, nil
}

func (m *MockFormService) RenderForm(ctx context.Context, formID uuid.UUID, mode string) (*dto.RenderFormResponse, error) {
	if m.RenderFormFunc != nil {
		return m.RenderFormFunc(ctx, formID, mode)
	}
	return nil, nil
}

func (m *MockFormService) Palette() []form.PaletteEntry {
	return form.Palette()
}

// mockAttachmentRepository is a mock implementation of repository.AttachmentRepository
type mockAttachmentRepository struct {
	createFunc func(ctx context.Context, attachment *domain.Attachment) error
	created    []*domain.Attachment
}

func (m *mockAttachmentRepository) Create(ctx context.Context, attachment *domain.Attachment) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, attachment)
	}
	attachment.ID = uuid.New()
	attachment.CreatedAt = time.Now()
	m.created = append(m.created, attachment)
	return nil
}

func (m *mockAttachmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Attachment, error) {
	return nil, nil
}

func (m *mockAttachmentRepository) FindByEntity(ctx context.Context, entityType domain.EntityType, entityID uuid.UUID) ([]*domain.Attachment, error) {
	return nil, nil
}

func (m *mockAttachmentRepository) FindExpiredTemp(ctx context.Context, now time.Time) ([]*domain.Attachment, error) {
	return nil, nil
}

func (m *mockAttachmentRepository) DeleteBatch(ctx context.Context, ids []uuid.UUID) error {
	return nil
}

// testRouter returns an engine whose requests are authenticated as userID.
// uuid.Nil leaves the request unauthenticated.
func testRouter(userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if userID != uuid.Nil {
			c.Set("user_id", userID)
		}
		c.Next()
	})
	return router
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// envelope is the decoded response body
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Details map[string]interface{} `json:"details"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}
