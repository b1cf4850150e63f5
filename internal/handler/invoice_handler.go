package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nemu-commission-api/internal/dto"
	"nemu-commission-api/internal/response"
	"nemu-commission-api/internal/service"
)

// InvoiceHandler handles invoice endpoints
type InvoiceHandler struct {
	invoiceService service.InvoiceService
	logger         *zap.Logger
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoiceService service.InvoiceService, logger *zap.Logger) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService, logger: logger}
}

// GetInvoice godoc
// @Summary      Get an invoice
// @Tags         invoices
// @Produce      json
// @Param        invoiceId path string true "Invoice ID"
// @Success      200 {object} response.SuccessResponse{data=dto.InvoiceResponse}
// @Failure      403 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Router       /invoices/{invoiceId} [get]
// @Security     BearerAuth
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	invoiceID, ok := pathUUID(c, "invoiceId", "invoice")
	if !ok {
		return
	}

	resp, err := h.invoiceService.GetInvoice(c.Request.Context(), userID, invoiceID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, resp)
}

// ReplaceInvoiceItems godoc
// @Summary      Replace invoice line items
// @Description  Allowed while the invoice is still being created; the total is recomputed
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        invoiceId path string true "Invoice ID"
// @Param        request body dto.ReplaceInvoiceItemsRequest true "Line items"
// @Success      200 {object} response.SuccessResponse{data=dto.InvoiceResponse}
// @Failure      400 {object} response.ErrorResponse
// @Failure      403 {object} response.ErrorResponse
// @Failure      409 {object} response.ErrorResponse "Invoice already sent"
// @Router       /invoices/{invoiceId}/items [put]
// @Security     BearerAuth
func (h *InvoiceHandler) ReplaceInvoiceItems(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	invoiceID, ok := pathUUID(c, "invoiceId", "invoice")
	if !ok {
		return
	}
	var req dto.ReplaceInvoiceItemsRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.invoiceService.ReplaceItems(c.Request.Context(), userID, invoiceID, &req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, resp)
}

// SendInvoice godoc
// @Summary      Send an invoice to the client
// @Description  Pushes the items to the payment processor, finalizes the invoice and notifies the client with the hosted URL
// @Tags         invoices
// @Produce      json
// @Param        invoiceId path string true "Invoice ID"
// @Success      200 {object} response.SuccessResponse{data=dto.ResultResponse}
// @Failure      403 {object} response.ErrorResponse
// @Failure      409 {object} response.ErrorResponse "Already sent or request not accepted"
// @Failure      502 {object} response.ErrorResponse "Payment processor failure"
// @Router       /invoices/{invoiceId}/send [post]
// @Security     BearerAuth
func (h *InvoiceHandler) SendInvoice(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	invoiceID, ok := pathUUID(c, "invoiceId", "invoice")
	if !ok {
		return
	}

	if err := h.invoiceService.SendInvoice(c.Request.Context(), userID, invoiceID); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, dto.ResultResponse{Success: true})
}
