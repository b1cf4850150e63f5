package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nemu-commission-api/internal/dto"
	"nemu-commission-api/internal/response"
	"nemu-commission-api/internal/service"
)

// RequestHandler handles commission request lifecycle endpoints
type RequestHandler struct {
	requestService service.RequestService
	logger         *zap.Logger
}

// NewRequestHandler creates a new RequestHandler
func NewRequestHandler(requestService service.RequestService, logger *zap.Logger) *RequestHandler {
	return &RequestHandler{requestService: requestService, logger: logger}
}

// SubmitRequest godoc
// @Summary      Submit a commission request
// @Description  Validates the answers against the commission's form, snapshots them and creates a pending request
// @Description  Field-level failures are reported in error.details.invalid_fields
// @Tags         requests
// @Accept       json
// @Produce      json
// @Param        request body dto.SubmitRequestRequest true "Request submission"
// @Success      201 {object} response.SuccessResponse{data=dto.SubmitRequestResponse}
// @Failure      400 {object} response.ErrorResponse "Invalid answers"
// @Failure      401 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse "Commission not found"
// @Failure      409 {object} response.ErrorResponse "Commission closed"
// @Router       /requests [post]
// @Security     BearerAuth
func (h *RequestHandler) SubmitRequest(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req dto.SubmitRequestRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.requestService.Submit(c.Request.Context(), userID, &req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	response.SendSuccess(c, http.StatusCreated, resp)
}

// DecideRequest godoc
// @Summary      Accept or reject a request
// @Description  Accepting provisions the payment customer, draft invoice, chat channel and kanban board
// @Description  A failed step can be retried; completed steps are not repeated
// @Tags         requests
// @Accept       json
// @Produce      json
// @Param        requestId path string true "Request ID"
// @Param        request body dto.DecideRequestRequest true "Decision"
// @Success      200 {object} response.SuccessResponse{data=dto.ResultResponse}
// @Failure      400 {object} response.ErrorResponse
// @Failure      403 {object} response.ErrorResponse "Not the commission's artist"
// @Failure      409 {object} response.ErrorResponse "Already decided or decision in progress"
// @Failure      502 {object} response.ErrorResponse "Provider failure"
// @Router       /requests/{requestId}/decision [post]
// @Security     BearerAuth
func (h *RequestHandler) DecideRequest(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	requestID, ok := pathUUID(c, "requestId", "request")
	if !ok {
		return
	}
	var req dto.DecideRequestRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.requestService.Decide(c.Request.Context(), userID, requestID, *req.Accepted); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, dto.ResultResponse{Success: true})
}

// DeliverRequest godoc
// @Summary      Mark an accepted request delivered
// @Tags         requests
// @Produce      json
// @Param        requestId path string true "Request ID"
// @Success      200 {object} response.SuccessResponse{data=dto.ResultResponse}
// @Failure      403 {object} response.ErrorResponse
// @Failure      409 {object} response.ErrorResponse "Request is not accepted"
// @Router       /requests/{requestId}/deliver [post]
// @Security     BearerAuth
func (h *RequestHandler) DeliverRequest(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	requestID, ok := pathUUID(c, "requestId", "request")
	if !ok {
		return
	}

	if err := h.requestService.Deliver(c.Request.Context(), userID, requestID); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, dto.ResultResponse{Success: true})
}

// GetRequest godoc
// @Summary      Get a request
// @Description  Visible to the requesting client and the commission's artist
// @Tags         requests
// @Produce      json
// @Param        requestId path string true "Request ID"
// @Success      200 {object} response.SuccessResponse{data=dto.RequestResponse}
// @Failure      403 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Router       /requests/{requestId} [get]
// @Security     BearerAuth
func (h *RequestHandler) GetRequest(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	requestID, ok := pathUUID(c, "requestId", "request")
	if !ok {
		return
	}

	resp, err := h.requestService.GetRequest(c.Request.Context(), userID, requestID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, resp)
}

// GetRequestByOrderID godoc
// @Summary      Get a request by order id
// @Tags         requests
// @Produce      json
// @Param        orderId path string true "Order ID"
// @Success      200 {object} response.SuccessResponse{data=dto.RequestResponse}
// @Failure      403 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Router       /requests/order/{orderId} [get]
// @Security     BearerAuth
func (h *RequestHandler) GetRequestByOrderID(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	orderID := c.Param("orderId")
	if orderID == "" {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid order ID")
		return
	}

	resp, err := h.requestService.GetRequestByOrderID(c.Request.Context(), userID, orderID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, resp)
}

// ListMyRequests godoc
// @Summary      List the caller's requests
// @Tags         requests
// @Produce      json
// @Success      200 {object} response.SuccessResponse{data=[]dto.RequestResponse}
// @Failure      401 {object} response.ErrorResponse
// @Router       /requests/mine [get]
// @Security     BearerAuth
func (h *RequestHandler) ListMyRequests(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	resp, err := h.requestService.ListMine(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, resp)
}

// ListCommissionRequests godoc
// @Summary      List a commission's requests
// @Description  Only the commission's artist can list its requests
// @Tags         requests
// @Produce      json
// @Param        commissionId path string true "Commission ID"
// @Success      200 {object} response.SuccessResponse{data=[]dto.RequestResponse}
// @Failure      403 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Router       /commissions/{commissionId}/requests [get]
// @Security     BearerAuth
func (h *RequestHandler) ListCommissionRequests(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	commissionID, ok := pathUUID(c, "commissionId", "commission")
	if !ok {
		return
	}

	resp, err := h.requestService.ListByCommission(c.Request.Context(), userID, commissionID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, resp)
}
