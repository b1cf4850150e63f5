package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"nemu-commission-api/internal/cache"
	"nemu-commission-api/internal/client"
	"nemu-commission-api/internal/domain"
	"nemu-commission-api/internal/dto"
	"nemu-commission-api/internal/form"
	"nemu-commission-api/internal/metrics"
	"nemu-commission-api/internal/repository"
	"nemu-commission-api/internal/response"
)

// RequestService drives the commission request lifecycle
type RequestService interface {
	Submit(ctx context.Context, userID uuid.UUID, req *dto.SubmitRequestRequest) (*dto.SubmitRequestResponse, error)
	Decide(ctx context.Context, artistUserID, requestID uuid.UUID, accepted bool) error
	Deliver(ctx context.Context, artistUserID, requestID uuid.UUID) error
	GetRequest(ctx context.Context, actorID, requestID uuid.UUID) (*dto.RequestResponse, error)
	GetRequestByOrderID(ctx context.Context, actorID uuid.UUID, orderID string) (*dto.RequestResponse, error)
	ListByCommission(ctx context.Context, artistUserID, commissionID uuid.UUID) ([]*dto.RequestResponse, error)
	ListMine(ctx context.Context, userID uuid.UUID) ([]*dto.RequestResponse, error)
}

// RequestServiceDeps groups the collaborators of the request service
type RequestServiceDeps struct {
	Requests    repository.RequestRepository
	Commissions repository.CommissionRepository
	Forms       repository.FormRepository
	Users       repository.UserRepository
	Artists     repository.ArtistRepository
	Invoices    repository.InvoiceRepository
	Customers   repository.StripeCustomerRepository
	Kanbans     repository.KanbanRepository

	Payments client.PaymentClient
	Chat     client.ChatClient
	Notifier client.NotificationClient
	Events   client.EventPublisher

	Locker  cache.Locker
	LockTTL time.Duration
	Cache   cache.ReadCache
}

type requestServiceImpl struct {
	RequestServiceDeps
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewRequestService creates a new instance of RequestService
func NewRequestService(deps RequestServiceDeps, m *metrics.Metrics, logger *zap.Logger) RequestService {
	if deps.Cache == nil {
		deps.Cache = cache.NewNoopReadCache()
	}
	if deps.Events == nil {
		deps.Events = client.NewNoopEventPublisher()
	}
	if deps.Notifier == nil {
		deps.Notifier = client.NewNoOpNotificationClient()
	}
	if deps.Locker == nil {
		deps.Locker = cache.NewMemoryLocker()
	}
	if deps.LockTTL <= 0 {
		deps.LockTTL = 2 * time.Minute
	}
	return &requestServiceImpl{RequestServiceDeps: deps, metrics: m, logger: logger}
}

// Submit validates the answers against the commission's form and records a
// new request in Pending or Waitlist.
func (s *requestServiceImpl) Submit(ctx context.Context, userID uuid.UUID, req *dto.SubmitRequestRequest) (*dto.SubmitRequestResponse, error) {
	commission, err := s.Commissions.FindByID(ctx, req.CommissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFoundError("Commission not found", "")
		}
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to load commission", err.Error())
	}
	if !commission.Published || commission.Availability == domain.AvailabilityClosed {
		return nil, response.NewConflictError("Commission is not accepting requests", string(commission.Availability))
	}
	if commission.FormID != req.FormID {
		return nil, response.NewValidationError("Form does not belong to this commission", nil)
	}
	artist, err := s.commissionArtist(ctx, commission)
	if err != nil {
		return nil, err
	}

	formDef, err := s.Forms.FindByID(ctx, req.FormID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFoundError("Form not found", "")
		}
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to load form", err.Error())
	}
	schema, err := form.ParseSchema(formDef.Fields)
	if err != nil {
		return nil, response.NewAppError(response.ErrCodeInternal, "Stored form schema is corrupt", err.Error())
	}

	answers, err := form.ParseAnswers([]byte(req.Content))
	if err != nil {
		return nil, response.NewValidationError("Content is not a valid answer map", err.Error())
	}
	if invalid := form.ValidateAll(schema, answers.Values()); !invalid.Valid() {
		return nil, response.NewValidationError("Form submission is invalid", map[string]interface{}{
			"invalid_fields": invalid,
		})
	}
	content, err := form.Snapshot(schema, answers).Marshal()
	if err != nil {
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to encode answers", err.Error())
	}

	status := domain.RequestStatusPending
	if commission.ShouldWaitlist() {
		status = domain.RequestStatusWaitlist
	}
	submission := &repository.Submission{
		Request: &domain.Request{
			BaseModel:    domain.BaseModel{ID: uuid.New()},
			OrderID:      uuid.NewString(),
			FormID:       req.FormID,
			CommissionID: commission.ID,
			UserID:       userID,
			Status:       status,
			Content:      content,
		},
		AttachmentIDs: removeDuplicateUUIDs(req.AttachmentIDs),
	}
	if next := commission.NextAvailability(); next != commission.Availability {
		submission.Availability = &next
	}
	if err := s.Requests.Submit(ctx, submission); err != nil {
		if errors.Is(err, repository.ErrAttachmentsUnavailable) {
			return nil, response.NewValidationError("Invalid attachments", err.Error())
		}
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to create request", err.Error())
	}
	request := submission.Request
	if submission.Availability != nil {
		s.logger.Info("Commission availability changed",
			zap.String("commission_id", commission.ID.String()),
			zap.String("availability", string(*submission.Availability)),
		)
	}

	s.notify(ctx,
		client.NotificationEvent{
			Type:         client.NotificationRequestSubmitted,
			ActorID:      userID,
			TargetUserID: userID,
			ResourceType: client.ResourceRequest,
			ResourceID:   request.ID,
			ResourceName: commission.Title,
			Metadata:     map[string]interface{}{"orderId": request.OrderID, "status": status},
		},
		client.NotificationEvent{
			Type:         client.NotificationRequestReceived,
			ActorID:      userID,
			TargetUserID: artist.UserID,
			ResourceType: client.ResourceRequest,
			ResourceID:   request.ID,
			ResourceName: commission.Title,
			Metadata:     map[string]interface{}{"orderId": request.OrderID},
		},
	)
	s.publish(ctx, client.EventRequestSubmitted, request, userID, map[string]interface{}{"status": status})
	s.metrics.RecordRequestSubmitted(string(status))
	s.invalidate(ctx, request)

	s.logger.Info("Request submitted",
		zap.String("request_id", request.ID.String()),
		zap.String("commission_id", commission.ID.String()),
		zap.String("status", string(status)),
	)

	return &dto.SubmitRequestResponse{
		Success:   true,
		RequestID: request.ID,
		OrderID:   request.OrderID,
		Status:    status,
	}, nil
}

// decision carries the state shared by the steps of one Decide call
type decision struct {
	request    *domain.Request
	commission *domain.Commission
	artist     *domain.Artist
	accepted   bool
	customerID string
}

// Decide records the artist's answer and provisions the accepted request's
// invoice, chat channel and kanban board. Every completed step is persisted
// on the request so a failed call can be retried and resumes where it stopped.
func (s *requestServiceImpl) Decide(ctx context.Context, artistUserID, requestID uuid.UUID, accepted bool) error {
	owner := uuid.NewString()
	locked, err := s.Locker.Acquire(ctx, cache.DecisionLockKey(requestID.String()), owner, s.LockTTL)
	if err != nil {
		return response.NewAppError(response.ErrCodeInternal, "Failed to acquire decision lock", err.Error())
	}
	if !locked {
		return response.NewConflictError("A decision for this request is already in progress", "")
	}
	defer func() {
		if err := s.Locker.Release(context.Background(), cache.DecisionLockKey(requestID.String()), owner); err != nil {
			s.logger.Warn("Failed to release decision lock", zap.String("request_id", requestID.String()), zap.Error(err))
		}
	}()

	request, err := s.Requests.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NewNotFoundError("Request not found", "")
		}
		return response.NewAppError(response.ErrCodeInternal, "Failed to load request", err.Error())
	}
	commission, artist, err := s.requestArtist(ctx, request)
	if err != nil {
		return err
	}
	if artist.UserID != artistUserID {
		return response.NewForbiddenError("Only the commission's artist can decide this request", "")
	}

	want := domain.DecisionReject
	if accepted {
		want = domain.DecisionAccept
	}
	if !request.Status.Undecided() {
		if request.Decision != nil && *request.Decision == want {
			return nil
		}
		return response.NewConflictError("Request has already been decided", string(request.Status))
	}

	claimed, err := s.Requests.ClaimDecision(ctx, request.ID, want)
	if err != nil {
		return response.NewAppError(response.ErrCodeInternal, "Failed to record decision", err.Error())
	}
	if !claimed {
		return response.NewConflictError("Request has already been decided", "")
	}

	d := &decision{request: request, commission: commission, artist: artist, accepted: accepted}
	stage := request.DecisionStage

	if err := s.stepCustomer(ctx, d, stage); err != nil {
		return err
	}
	if err := s.stepCount(ctx, d, stage); err != nil {
		return err
	}

	if !accepted {
		ok, err := s.Requests.TransitionStatus(ctx, request.ID, undecided, domain.RequestStatusRejected, map[string]interface{}{
			"decision_stage": domain.StageComplete,
		})
		if err != nil {
			return s.stepFailed(d, domain.StageComplete, "Failed to reject request", err)
		}
		if !ok {
			return response.NewConflictError("Request has already been decided", "")
		}
		s.finishDecision(ctx, d, "rejected")
		return nil
	}

	if err := s.stepInvoice(ctx, d, stage); err != nil {
		return err
	}
	if err := s.stepChat(ctx, d, stage); err != nil {
		return err
	}
	if err := s.stepKanban(ctx, d, stage); err != nil {
		return err
	}

	ok, err := s.Requests.TransitionStatus(ctx, request.ID, undecided, domain.RequestStatusAccepted, map[string]interface{}{
		"invoice_id":           *request.InvoiceID,
		"kanban_id":            *request.KanbanID,
		"sendbird_channel_url": request.OrderID,
		"decision_stage":       domain.StageComplete,
	})
	if err != nil {
		return s.stepFailed(d, domain.StageComplete, "Failed to accept request", err)
	}
	if !ok {
		return response.NewConflictError("Request has already been decided", "")
	}
	s.finishDecision(ctx, d, "accepted")
	return nil
}

var undecided = []domain.RequestStatus{domain.RequestStatusPending, domain.RequestStatusWaitlist}

func (s *requestServiceImpl) stepCustomer(ctx context.Context, d *decision, stage domain.DecisionStage) error {
	customerID, err := s.resolveCustomer(ctx, d.request.UserID, d.artist)
	if err != nil {
		return s.stepFailed(d, domain.StageCustomerReady, "Failed to resolve payment customer", err)
	}
	d.customerID = customerID

	if stage.Reached(domain.StageCustomerReady) {
		return nil
	}
	if err := s.Requests.AdvanceStage(ctx, d.request.ID, domain.StageCustomerReady, nil); err != nil {
		return s.stepFailed(d, domain.StageCustomerReady, "Failed to record decision progress", err)
	}
	return nil
}

// resolveCustomer returns the processor customer of the (user, artist) pair,
// creating it on first use. A unique index on the pair keeps one mapping.
func (s *requestServiceImpl) resolveCustomer(ctx context.Context, userID uuid.UUID, artist *domain.Artist) (string, error) {
	existing, err := s.Customers.FindByUserAndArtist(ctx, userID, artist.ID)
	if err == nil {
		return existing.CustomerID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	params := client.CustomerParams{UserID: userID, ArtistID: artist.ID}
	if user, err := s.Users.FindByID(ctx, userID); err == nil {
		params.Email = user.Email
		params.Name = user.Username
	}
	customerID, err := s.Payments.CreateCustomer(ctx, params, "customer-"+userID.String()+"-"+artist.ID.String())
	if err != nil {
		return "", err
	}

	stored, err := s.Customers.CreateIfAbsent(ctx, &domain.StripeCustomer{
		UserID:     userID,
		ArtistID:   artist.ID,
		CustomerID: customerID,
	})
	if err != nil {
		return "", err
	}
	return stored.CustomerID, nil
}

func (s *requestServiceImpl) stepCount(ctx context.Context, d *decision, stage domain.DecisionStage) error {
	if stage.Reached(domain.StageCounted) {
		return nil
	}
	if err := s.Commissions.IncrementDecisionCounters(ctx, d.commission.ID, d.accepted); err != nil {
		return s.stepFailed(d, domain.StageCounted, "Failed to update commission counters", err)
	}
	if err := s.Requests.AdvanceStage(ctx, d.request.ID, domain.StageCounted, nil); err != nil {
		return s.stepFailed(d, domain.StageCounted, "Failed to record decision progress", err)
	}

	notificationType := client.NotificationRequestRejected
	if d.accepted {
		notificationType = client.NotificationRequestAccepted
	}
	s.notify(ctx, client.NotificationEvent{
		Type:         notificationType,
		ActorID:      d.artist.UserID,
		TargetUserID: d.request.UserID,
		ResourceType: client.ResourceRequest,
		ResourceID:   d.request.ID,
		ResourceName: d.commission.Title,
		Metadata:     map[string]interface{}{"orderId": d.request.OrderID},
	})
	return nil
}

func (s *requestServiceImpl) stepInvoice(ctx context.Context, d *decision, stage domain.DecisionStage) error {
	if stage.Reached(domain.StageInvoiceDrafted) && d.request.InvoiceID != nil {
		return nil
	}

	invoice, err := s.Invoices.FindByRequestID(ctx, d.request.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return s.stepFailed(d, domain.StageInvoiceDrafted, "Failed to load invoice", err)
	}
	if invoice == nil {
		stripeInvoiceID, err := s.Payments.CreateInvoiceDraft(ctx, d.customerID, d.commission.Currency, "invoice-"+d.request.ID.String())
		if err != nil {
			return s.stepFailed(d, domain.StageInvoiceDrafted, "Failed to create draft invoice", err)
		}
		items := []domain.InvoiceItem{{Name: d.commission.Title, Price: d.commission.Price, Quantity: 1}}
		invoice = &domain.Invoice{
			RequestID:       d.request.ID,
			ArtistID:        d.artist.ID,
			UserID:          d.request.UserID,
			CustomerID:      d.customerID,
			StripeInvoiceID: stripeInvoiceID,
			Status:          domain.InvoiceStatusCreating,
			Total:           domain.InvoiceTotal(items),
			Currency:        d.commission.Currency,
			Items:           items,
		}
		if err := s.Invoices.Create(ctx, invoice); err != nil {
			return s.stepFailed(d, domain.StageInvoiceDrafted, "Failed to store invoice", err)
		}
	}

	if err := s.Requests.AdvanceStage(ctx, d.request.ID, domain.StageInvoiceDrafted, map[string]interface{}{
		"invoice_id": invoice.ID,
	}); err != nil {
		return s.stepFailed(d, domain.StageInvoiceDrafted, "Failed to record decision progress", err)
	}
	d.request.InvoiceID = &invoice.ID
	return nil
}

func (s *requestServiceImpl) stepChat(ctx context.Context, d *decision, stage domain.DecisionStage) error {
	if stage.Reached(domain.StageChatReady) {
		return nil
	}

	if err := s.ensureChatUser(ctx, d.request.UserID); err != nil {
		return s.stepFailed(d, domain.StageChatReady, "Failed to provision chat user", err)
	}
	if err := s.ensureChatUser(ctx, d.artist.UserID); err != nil {
		return s.stepFailed(d, domain.StageChatReady, "Failed to provision chat user", err)
	}

	if _, err := s.Chat.CreateChatChannel(ctx, client.ChannelSpec{
		ChannelURL:   d.request.OrderID,
		Name:         d.commission.Title,
		ClientUserID: d.request.UserID.String(),
		ArtistUserID: d.artist.UserID.String(),
	}); err != nil {
		return s.stepFailed(d, domain.StageChatReady, "Failed to create chat channel", err)
	}

	if err := s.Requests.AdvanceStage(ctx, d.request.ID, domain.StageChatReady, nil); err != nil {
		return s.stepFailed(d, domain.StageChatReady, "Failed to record decision progress", err)
	}
	return nil
}

// ensureChatUser provisions a chat identity once per user, tracked by the
// user's chat flag.
func (s *requestServiceImpl) ensureChatUser(ctx context.Context, userID uuid.UUID) error {
	nickname := userID.String()
	user, err := s.Users.FindByID(ctx, userID)
	switch {
	case err == nil:
		if user.ChatProvisioned {
			return nil
		}
		nickname = user.Username
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}

	if err := s.Chat.CreateChatUser(ctx, client.ChatUser{UserID: userID.String(), Nickname: nickname}); err != nil {
		return err
	}
	if user == nil {
		return nil
	}
	return s.Users.MarkChatProvisioned(ctx, userID)
}

func (s *requestServiceImpl) stepKanban(ctx context.Context, d *decision, stage domain.DecisionStage) error {
	if stage.Reached(domain.StageKanbanReady) && d.request.KanbanID != nil {
		return nil
	}

	kanban, err := s.Kanbans.FindByRequestID(ctx, d.request.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return s.stepFailed(d, domain.StageKanbanReady, "Failed to load kanban", err)
	}
	if kanban == nil {
		board, err := encodeBoard(domain.DefaultKanbanBoard())
		if err != nil {
			return s.stepFailed(d, domain.StageKanbanReady, "Failed to encode kanban", err)
		}
		kanban = &domain.Kanban{RequestID: d.request.ID, Board: board}
		if err := s.Kanbans.Create(ctx, kanban); err != nil {
			return s.stepFailed(d, domain.StageKanbanReady, "Failed to create kanban", err)
		}
	}

	if err := s.Requests.AdvanceStage(ctx, d.request.ID, domain.StageKanbanReady, map[string]interface{}{
		"kanban_id": kanban.ID,
	}); err != nil {
		return s.stepFailed(d, domain.StageKanbanReady, "Failed to record decision progress", err)
	}
	d.request.KanbanID = &kanban.ID
	return nil
}

func (s *requestServiceImpl) stepFailed(d *decision, stage domain.DecisionStage, message string, err error) error {
	s.metrics.RecordDecisionStepFailure(string(stage))
	s.logger.Error(message,
		zap.String("request_id", d.request.ID.String()),
		zap.String("stage", string(stage)),
		zap.Bool("accepted", d.accepted),
		zap.Error(err),
	)

	if client.IsProviderError(err) {
		return response.NewExternalServiceError(message, err.Error())
	}
	return response.NewAppError(response.ErrCodeInternal, message, err.Error())
}

func (s *requestServiceImpl) finishDecision(ctx context.Context, d *decision, outcome string) {
	s.metrics.RecordRequestDecided(outcome)
	s.publish(ctx, client.EventRequestDecided, d.request, d.artist.UserID, map[string]interface{}{"outcome": outcome})
	s.invalidate(ctx, d.request)
	s.logger.Info("Request decided",
		zap.String("request_id", d.request.ID.String()),
		zap.String("outcome", outcome),
	)
}

// Deliver marks an accepted request as delivered
func (s *requestServiceImpl) Deliver(ctx context.Context, artistUserID, requestID uuid.UUID) error {
	request, err := s.Requests.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NewNotFoundError("Request not found", "")
		}
		return response.NewAppError(response.ErrCodeInternal, "Failed to load request", err.Error())
	}
	commission, artist, err := s.requestArtist(ctx, request)
	if err != nil {
		return err
	}
	if artist.UserID != artistUserID {
		return response.NewForbiddenError("Only the commission's artist can deliver this request", "")
	}

	ok, err := s.Requests.TransitionStatus(ctx, request.ID,
		[]domain.RequestStatus{domain.RequestStatusAccepted}, domain.RequestStatusDelivered, nil)
	if err != nil {
		return response.NewAppError(response.ErrCodeInternal, "Failed to deliver request", err.Error())
	}
	if !ok {
		return response.NewConflictError("Only accepted requests can be delivered", string(request.Status))
	}

	s.notify(ctx, client.NotificationEvent{
		Type:         client.NotificationRequestDelivered,
		ActorID:      artistUserID,
		TargetUserID: request.UserID,
		ResourceType: client.ResourceRequest,
		ResourceID:   request.ID,
		ResourceName: commission.Title,
		Metadata:     map[string]interface{}{"orderId": request.OrderID},
	})
	s.publish(ctx, client.EventRequestDelivered, request, artistUserID, nil)
	s.invalidate(ctx, request)
	return nil
}

// cachedRequest keeps the artist's user id next to the view for authorization on cache hits
type cachedRequest struct {
	Request      *dto.RequestResponse `json:"request"`
	ArtistUserID uuid.UUID            `json:"artist_user_id"`
}

func (s *requestServiceImpl) GetRequest(ctx context.Context, actorID, requestID uuid.UUID) (*dto.RequestResponse, error) {
	return s.getCached(ctx, actorID, cache.RequestKey(requestID.String()), func() (*domain.Request, error) {
		return s.Requests.FindByID(ctx, requestID)
	})
}

func (s *requestServiceImpl) GetRequestByOrderID(ctx context.Context, actorID uuid.UUID, orderID string) (*dto.RequestResponse, error) {
	return s.getCached(ctx, actorID, cache.RequestOrderKey(orderID), func() (*domain.Request, error) {
		return s.Requests.FindByOrderID(ctx, orderID)
	})
}

func (s *requestServiceImpl) getCached(ctx context.Context, actorID uuid.UUID, key string, load func() (*domain.Request, error)) (*dto.RequestResponse, error) {
	var entry cachedRequest
	if !s.Cache.Get(ctx, key, &entry) || entry.Request == nil {
		request, err := load()
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, response.NewNotFoundError("Request not found", "")
			}
			return nil, response.NewAppError(response.ErrCodeInternal, "Failed to load request", err.Error())
		}
		_, artist, err := s.requestArtist(ctx, request)
		if err != nil {
			return nil, err
		}
		view, err := toRequestResponse(request)
		if err != nil {
			return nil, response.NewAppError(response.ErrCodeInternal, "Failed to decode request content", err.Error())
		}
		entry = cachedRequest{Request: view, ArtistUserID: artist.UserID}
		s.Cache.Set(ctx, key, entry)
	}

	if actorID != entry.Request.UserID && actorID != entry.ArtistUserID {
		return nil, response.NewForbiddenError("You do not have access to this request", "")
	}
	return entry.Request, nil
}

func (s *requestServiceImpl) ListByCommission(ctx context.Context, artistUserID, commissionID uuid.UUID) ([]*dto.RequestResponse, error) {
	commission, err := s.Commissions.FindByID(ctx, commissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFoundError("Commission not found", "")
		}
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to load commission", err.Error())
	}
	artist, err := s.commissionArtist(ctx, commission)
	if err != nil {
		return nil, err
	}
	if artist.UserID != artistUserID {
		return nil, response.NewForbiddenError("Only the commission's artist can list its requests", "")
	}

	key := cache.CommissionRequestsKey(commissionID.String())
	return s.listCached(ctx, key, func() ([]*domain.Request, error) {
		return s.Requests.FindByCommission(ctx, commissionID)
	})
}

func (s *requestServiceImpl) ListMine(ctx context.Context, userID uuid.UUID) ([]*dto.RequestResponse, error) {
	return s.listCached(ctx, cache.UserRequestsKey(userID.String()), func() ([]*domain.Request, error) {
		return s.Requests.FindByUser(ctx, userID)
	})
}

func (s *requestServiceImpl) listCached(ctx context.Context, key string, load func() ([]*domain.Request, error)) ([]*dto.RequestResponse, error) {
	var views []*dto.RequestResponse
	if s.Cache.Get(ctx, key, &views) {
		return views, nil
	}

	requests, err := load()
	if err != nil {
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to list requests", err.Error())
	}
	views = make([]*dto.RequestResponse, 0, len(requests))
	for _, r := range requests {
		view, err := toRequestResponse(r)
		if err != nil {
			return nil, response.NewAppError(response.ErrCodeInternal, "Failed to decode request content", err.Error())
		}
		views = append(views, view)
	}
	s.Cache.Set(ctx, key, views)
	return views, nil
}

func (s *requestServiceImpl) commissionArtist(ctx context.Context, commission *domain.Commission) (*domain.Artist, error) {
	if commission.Artist != nil {
		return commission.Artist, nil
	}
	artist, err := s.Artists.FindByID(ctx, commission.ArtistID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFoundError("Artist not found", "")
		}
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to load artist", err.Error())
	}
	return artist, nil
}

func (s *requestServiceImpl) requestArtist(ctx context.Context, request *domain.Request) (*domain.Commission, *domain.Artist, error) {
	commission := request.Commission
	if commission == nil {
		var err error
		commission, err = s.Commissions.FindByID(ctx, request.CommissionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil, response.NewNotFoundError("Commission not found", "")
			}
			return nil, nil, response.NewAppError(response.ErrCodeInternal, "Failed to load commission", err.Error())
		}
	}
	artist, err := s.commissionArtist(ctx, commission)
	if err != nil {
		return nil, nil, err
	}
	return commission, artist, nil
}

func (s *requestServiceImpl) notify(ctx context.Context, events ...client.NotificationEvent) {
	var err error
	if len(events) == 1 {
		err = s.Notifier.SendNotification(ctx, events[0])
	} else {
		err = s.Notifier.SendBulkNotifications(ctx, events)
	}
	if err != nil {
		s.logger.Warn("Failed to send notifications", zap.Int("count", len(events)), zap.Error(err))
	}
}

func (s *requestServiceImpl) publish(ctx context.Context, eventType client.EventType, request *domain.Request, actorID uuid.UUID, payload map[string]interface{}) {
	if err := s.Events.Publish(ctx, client.LifecycleEvent{
		Type:         eventType,
		RequestID:    request.ID,
		CommissionID: request.CommissionID,
		ActorID:      actorID,
		Payload:      payload,
	}); err != nil {
		s.logger.Warn("Failed to publish lifecycle event", zap.String("type", string(eventType)), zap.Error(err))
	}
}

func (s *requestServiceImpl) invalidate(ctx context.Context, request *domain.Request) {
	s.Cache.Delete(ctx,
		cache.RequestKey(request.ID.String()),
		cache.RequestOrderKey(request.OrderID),
		cache.CommissionRequestsKey(request.CommissionID.String()),
		cache.UserRequestsKey(request.UserID.String()),
	)
}
