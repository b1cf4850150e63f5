package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"nemu-commission-api/internal/dto"
	"nemu-commission-api/internal/response"
	"nemu-commission-api/internal/service"
)

// KanbanHandler handles a request's kanban board and its live updates
type KanbanHandler struct {
	kanbanService service.KanbanService
	hub           *KanbanHub
	logger        *zap.Logger
}

// NewKanbanHandler creates a new KanbanHandler
func NewKanbanHandler(kanbanService service.KanbanService, hub *KanbanHub, logger *zap.Logger) *KanbanHandler {
	return &KanbanHandler{kanbanService: kanbanService, hub: hub, logger: logger}
}

// GetBoard godoc
// @Summary      Get a kanban board
// @Tags         kanbans
// @Produce      json
// @Param        kanbanId path string true "Kanban ID"
// @Success      200 {object} response.SuccessResponse{data=dto.KanbanResponse}
// @Failure      403 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Router       /kanbans/{kanbanId} [get]
// @Security     BearerAuth
func (h *KanbanHandler) GetBoard(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	kanbanID, ok := pathUUID(c, "kanbanId", "kanban")
	if !ok {
		return
	}

	resp, err := h.kanbanService.GetBoard(c.Request.Context(), userID, kanbanID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, resp)
}

// ReplaceBoard godoc
// @Summary      Replace a kanban board
// @Description  Every task must reference an existing container and ids must be unique
// @Tags         kanbans
// @Accept       json
// @Produce      json
// @Param        kanbanId path string true "Kanban ID"
// @Param        request body dto.ReplaceKanbanRequest true "Board"
// @Success      200 {object} response.SuccessResponse{data=dto.KanbanResponse}
// @Failure      400 {object} response.ErrorResponse
// @Failure      403 {object} response.ErrorResponse
// @Failure      409 {object} response.ErrorResponse "Board is being edited"
// @Router       /kanbans/{kanbanId} [put]
// @Security     BearerAuth
func (h *KanbanHandler) ReplaceBoard(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	kanbanID, ok := pathUUID(c, "kanbanId", "kanban")
	if !ok {
		return
	}
	var req dto.ReplaceKanbanRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.kanbanService.ReplaceBoard(c.Request.Context(), userID, kanbanID, req.Board)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, resp)
}

// AddTask godoc
// @Summary      Add a task to a container
// @Tags         kanbans
// @Accept       json
// @Produce      json
// @Param        kanbanId path string true "Kanban ID"
// @Param        request body dto.AddKanbanTaskRequest true "Task"
// @Success      201 {object} response.SuccessResponse{data=dto.KanbanResponse}
// @Failure      400 {object} response.ErrorResponse
// @Failure      403 {object} response.ErrorResponse
// @Router       /kanbans/{kanbanId}/tasks [post]
// @Security     BearerAuth
func (h *KanbanHandler) AddTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	kanbanID, ok := pathUUID(c, "kanbanId", "kanban")
	if !ok {
		return
	}
	var req dto.AddKanbanTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.kanbanService.AddTask(c.Request.Context(), userID, kanbanID, &req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	response.SendSuccess(c, http.StatusCreated, resp)
}

// MoveTask godoc
// @Summary      Move or edit a task
// @Tags         kanbans
// @Accept       json
// @Produce      json
// @Param        kanbanId path string true "Kanban ID"
// @Param        taskId path string true "Task ID"
// @Param        request body dto.MoveKanbanTaskRequest true "Target container"
// @Success      200 {object} response.SuccessResponse{data=dto.KanbanResponse}
// @Failure      400 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Router       /kanbans/{kanbanId}/tasks/{taskId} [patch]
// @Security     BearerAuth
func (h *KanbanHandler) MoveTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	kanbanID, ok := pathUUID(c, "kanbanId", "kanban")
	if !ok {
		return
	}
	var req dto.MoveKanbanTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.kanbanService.MoveTask(c.Request.Context(), userID, kanbanID, c.Param("taskId"), &req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, resp)
}

// RemoveTask godoc
// @Summary      Remove a task
// @Tags         kanbans
// @Produce      json
// @Param        kanbanId path string true "Kanban ID"
// @Param        taskId path string true "Task ID"
// @Success      200 {object} response.SuccessResponse{data=dto.KanbanResponse}
// @Failure      404 {object} response.ErrorResponse
// @Router       /kanbans/{kanbanId}/tasks/{taskId} [delete]
// @Security     BearerAuth
func (h *KanbanHandler) RemoveTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	kanbanID, ok := pathUUID(c, "kanbanId", "kanban")
	if !ok {
		return
	}

	resp, err := h.kanbanService.RemoveTask(c.Request.Context(), userID, kanbanID, c.Param("taskId"))
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, resp)
}

// Subscribe godoc
// @Summary      Subscribe to board updates
// @Description  Upgrades to a websocket. The current board is sent first, then every change.
// @Tags         kanbans
// @Param        kanbanId path string true "Kanban ID"
// @Param        token query string false "JWT access token when no Authorization header can be sent"
// @Success      101 {string} string "Switching Protocols"
// @Failure      403 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Router       /kanbans/{kanbanId}/ws [get]
func (h *KanbanHandler) Subscribe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	kanbanID, ok := pathUUID(c, "kanbanId", "kanban")
	if !ok {
		return
	}

	// access is checked before the upgrade so failures are plain HTTP errors
	if _, err := h.kanbanService.GetBoard(c.Request.Context(), userID, kanbanID); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("Failed to upgrade kanban connection", zap.Error(err))
		return
	}

	sub := &boardSubscriber{
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		kanbanID: kanbanID,
		userID:   userID,
	}
	err = h.hub.subscribe(sub, func() (*dto.KanbanResponse, error) {
		return h.kanbanService.GetBoard(c.Request.Context(), userID, kanbanID)
	})
	if err != nil {
		h.logger.Warn("Failed to load kanban snapshot",
			zap.String("kanban_id", kanbanID.String()), zap.Error(err))
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "board unavailable"),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}

	go h.hub.writePump(sub)
	go h.hub.readPump(sub)
}
