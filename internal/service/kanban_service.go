package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"nemu-commission-api/internal/cache"
	"nemu-commission-api/internal/domain"
	"nemu-commission-api/internal/dto"
	"nemu-commission-api/internal/metrics"
	"nemu-commission-api/internal/repository"
	"nemu-commission-api/internal/response"
)

// BoardBroadcaster pushes a saved board to live subscribers
type BoardBroadcaster interface {
	Broadcast(kanbanID uuid.UUID, board *dto.KanbanResponse)
}

// KanbanService defines the interface for kanban board logic
type KanbanService interface {
	GetBoard(ctx context.Context, actorID, kanbanID uuid.UUID) (*dto.KanbanResponse, error)
	ReplaceBoard(ctx context.Context, actorID, kanbanID uuid.UUID, board domain.KanbanBoard) (*dto.KanbanResponse, error)
	AddTask(ctx context.Context, actorID, kanbanID uuid.UUID, req *dto.AddKanbanTaskRequest) (*dto.KanbanResponse, error)
	MoveTask(ctx context.Context, actorID, kanbanID uuid.UUID, taskID string, req *dto.MoveKanbanTaskRequest) (*dto.KanbanResponse, error)
	RemoveTask(ctx context.Context, actorID, kanbanID uuid.UUID, taskID string) (*dto.KanbanResponse, error)
	// Authorize checks that actor may view the board
	Authorize(ctx context.Context, actorID, kanbanID uuid.UUID) error
}

type kanbanServiceImpl struct {
	kanbanRepo  repository.KanbanRepository
	requestRepo repository.RequestRepository
	artistRepo  repository.ArtistRepository
	locker      cache.Locker
	broadcaster BoardBroadcaster
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

const kanbanLockTTL = 10 * time.Second

// NewKanbanService creates a new instance of KanbanService
func NewKanbanService(
	kanbanRepo repository.KanbanRepository,
	requestRepo repository.RequestRepository,
	artistRepo repository.ArtistRepository,
	locker cache.Locker,
	broadcaster BoardBroadcaster,
	m *metrics.Metrics,
	logger *zap.Logger,
) KanbanService {
	if locker == nil {
		locker = cache.NewMemoryLocker()
	}
	return &kanbanServiceImpl{
		kanbanRepo:  kanbanRepo,
		requestRepo: requestRepo,
		artistRepo:  artistRepo,
		locker:      locker,
		broadcaster: broadcaster,
		metrics:     m,
		logger:      logger,
	}
}

func (s *kanbanServiceImpl) GetBoard(ctx context.Context, actorID, kanbanID uuid.UUID) (*dto.KanbanResponse, error) {
	kanban, err := s.loadAuthorized(ctx, actorID, kanbanID)
	if err != nil {
		return nil, err
	}
	board, err := decodeBoard(kanban.Board)
	if err != nil {
		return nil, response.NewAppError(response.ErrCodeInternal, "Stored kanban board is corrupt", err.Error())
	}
	return &dto.KanbanResponse{ID: kanban.ID, RequestID: kanban.RequestID, Board: board}, nil
}

func (s *kanbanServiceImpl) Authorize(ctx context.Context, actorID, kanbanID uuid.UUID) error {
	_, err := s.loadAuthorized(ctx, actorID, kanbanID)
	return err
}

func (s *kanbanServiceImpl) ReplaceBoard(ctx context.Context, actorID, kanbanID uuid.UUID, board domain.KanbanBoard) (*dto.KanbanResponse, error) {
	return s.mutate(ctx, actorID, kanbanID, func(domain.KanbanBoard) (domain.KanbanBoard, error) {
		return board, nil
	})
}

func (s *kanbanServiceImpl) AddTask(ctx context.Context, actorID, kanbanID uuid.UUID, req *dto.AddKanbanTaskRequest) (*dto.KanbanResponse, error) {
	return s.mutate(ctx, actorID, kanbanID, func(board domain.KanbanBoard) (domain.KanbanBoard, error) {
		board.Tasks = append(board.Tasks, domain.KanbanTask{
			ID:          uuid.NewString(),
			ContainerID: req.ContainerID,
			Content:     req.Content,
		})
		return board, nil
	})
}

func (s *kanbanServiceImpl) MoveTask(ctx context.Context, actorID, kanbanID uuid.UUID, taskID string, req *dto.MoveKanbanTaskRequest) (*dto.KanbanResponse, error) {
	return s.mutate(ctx, actorID, kanbanID, func(board domain.KanbanBoard) (domain.KanbanBoard, error) {
		for i := range board.Tasks {
			if board.Tasks[i].ID != taskID {
				continue
			}
			board.Tasks[i].ContainerID = req.ContainerID
			if req.Content != nil {
				board.Tasks[i].Content = *req.Content
			}
			return board, nil
		}
		return board, errTaskNotFound
	})
}

func (s *kanbanServiceImpl) RemoveTask(ctx context.Context, actorID, kanbanID uuid.UUID, taskID string) (*dto.KanbanResponse, error) {
	return s.mutate(ctx, actorID, kanbanID, func(board domain.KanbanBoard) (domain.KanbanBoard, error) {
		for i := range board.Tasks {
			if board.Tasks[i].ID == taskID {
				board.Tasks = append(board.Tasks[:i], board.Tasks[i+1:]...)
				return board, nil
			}
		}
		return board, errTaskNotFound
	})
}

var errTaskNotFound = errors.New("task not found")

// mutate rewrites the board document under the board lock. The edited board
// is validated before it is stored.
func (s *kanbanServiceImpl) mutate(ctx context.Context, actorID, kanbanID uuid.UUID, edit func(domain.KanbanBoard) (domain.KanbanBoard, error)) (*dto.KanbanResponse, error) {
	owner := uuid.NewString()
	key := cache.KanbanLockKey(kanbanID.String())
	locked, err := s.locker.Acquire(ctx, key, owner, kanbanLockTTL)
	if err != nil {
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to lock kanban", err.Error())
	}
	if !locked {
		return nil, response.NewConflictError("Kanban is being updated, retry shortly", "")
	}
	defer func() {
		if err := s.locker.Release(context.Background(), key, owner); err != nil {
			s.logger.Warn("Failed to release kanban lock", zap.String("kanban_id", kanbanID.String()), zap.Error(err))
		}
	}()

	kanban, err := s.loadAuthorized(ctx, actorID, kanbanID)
	if err != nil {
		return nil, err
	}
	board, err := decodeBoard(kanban.Board)
	if err != nil {
		return nil, response.NewAppError(response.ErrCodeInternal, "Stored kanban board is corrupt", err.Error())
	}

	board, err = edit(board)
	if err != nil {
		if errors.Is(err, errTaskNotFound) {
			return nil, response.NewNotFoundError("Task not found", "")
		}
		return nil, response.NewValidationError("Invalid kanban edit", err.Error())
	}
	if err := ValidateBoard(board); err != nil {
		return nil, response.NewValidationError("Invalid kanban board", err.Error())
	}

	data, err := encodeBoard(board)
	if err != nil {
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to encode kanban board", err.Error())
	}
	if err := s.kanbanRepo.UpdateBoard(ctx, kanbanID, data); err != nil {
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to save kanban board", err.Error())
	}

	resp := &dto.KanbanResponse{ID: kanban.ID, RequestID: kanban.RequestID, Board: board}
	if s.broadcaster != nil {
		s.broadcaster.Broadcast(kanbanID, resp)
	}
	return resp, nil
}

// ValidateBoard checks that ids are unique and every task sits in an existing container
func ValidateBoard(board domain.KanbanBoard) error {
	containers := make(map[string]bool, len(board.Containers))
	for _, c := range board.Containers {
		if c.ID == "" {
			return errors.New("container id is required")
		}
		if containers[c.ID] {
			return fmt.Errorf("duplicate container id %q", c.ID)
		}
		containers[c.ID] = true
	}

	tasks := make(map[string]bool, len(board.Tasks))
	for _, t := range board.Tasks {
		if t.ID == "" {
			return errors.New("task id is required")
		}
		if tasks[t.ID] {
			return fmt.Errorf("duplicate task id %q", t.ID)
		}
		tasks[t.ID] = true
		if !containers[t.ContainerID] {
			return fmt.Errorf("task %q references unknown container %q", t.ID, t.ContainerID)
		}
	}
	return nil
}

// loadAuthorized loads the board if actor is the request's client or artist
func (s *kanbanServiceImpl) loadAuthorized(ctx context.Context, actorID, kanbanID uuid.UUID) (*domain.Kanban, error) {
	kanban, err := s.kanbanRepo.FindByID(ctx, kanbanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFoundError("Kanban not found", "")
		}
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to load kanban", err.Error())
	}

	request, err := s.requestRepo.FindByID(ctx, kanban.RequestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFoundError("Request not found", "")
		}
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to load request", err.Error())
	}
	if actorID == request.UserID {
		return kanban, nil
	}

	var artist *domain.Artist
	if request.Commission != nil && request.Commission.Artist != nil {
		artist = request.Commission.Artist
	} else if request.Commission != nil {
		artist, err = s.artistRepo.FindByID(ctx, request.Commission.ArtistID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewAppError(response.ErrCodeInternal, "Failed to load artist", err.Error())
		}
	}
	if artist == nil || artist.UserID != actorID {
		return nil, response.NewForbiddenError("You do not have access to this kanban", "")
	}
	return kanban, nil
}
