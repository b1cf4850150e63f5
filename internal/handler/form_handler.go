package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nemu-commission-api/internal/dto"
	"nemu-commission-api/internal/response"
	"nemu-commission-api/internal/service"
)

// FormHandler handles the form designer endpoints
type FormHandler struct {
	formService service.FormService
	logger      *zap.Logger
}

// NewFormHandler creates a new FormHandler
func NewFormHandler(formService service.FormService, logger *zap.Logger) *FormHandler {
	return &FormHandler{formService: formService, logger: logger}
}

// CreateForm godoc
// @Summary      Create an empty form
// @Tags         forms
// @Accept       json
// @Produce      json
// @Param        request body dto.CreateFormRequest true "Form"
// @Success      201 {object} response.SuccessResponse{data=dto.FormResponse}
// @Failure      400 {object} response.ErrorResponse
// @Failure      403 {object} response.ErrorResponse "Caller is not an artist"
// @Router       /forms [post]
// @Security     BearerAuth
func (h *FormHandler) CreateForm(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req dto.CreateFormRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.formService.CreateForm(c.Request.Context(), userID, &req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	response.SendSuccess(c, http.StatusCreated, resp)
}

// GetForm godoc
// @Summary      Get a form
// @Tags         forms
// @Produce      json
// @Param        formId path string true "Form ID"
// @Success      200 {object} response.SuccessResponse{data=dto.FormResponse}
// @Failure      404 {object} response.ErrorResponse
// @Router       /forms/{formId} [get]
func (h *FormHandler) GetForm(c *gin.Context) {
	formID, ok := pathUUID(c, "formId", "form")
	if !ok {
		return
	}

	resp, err := h.formService.GetForm(c.Request.Context(), formID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, resp)
}

// RenderForm godoc
// @Summary      Render a form
// @Description  mode=designer returns read-only previews, mode=input returns empty input widgets
// @Tags         forms
// @Produce      json
// @Param        formId path string true "Form ID"
// @Param        mode query string false "designer or input" default(input)
// @Success      200 {object} response.SuccessResponse{data=dto.RenderFormResponse}
// @Failure      400 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Router       /forms/{formId}/render [get]
func (h *FormHandler) RenderForm(c *gin.Context) {
	formID, ok := pathUUID(c, "formId", "form")
	if !ok {
		return
	}

	resp, err := h.formService.RenderForm(c.Request.Context(), formID, c.Query("mode"))
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, resp)
}

// GetPalette godoc
// @Summary      List field kinds available to the designer
// @Tags         forms
// @Produce      json
// @Success      200 {object} response.SuccessResponse{data=[]form.PaletteEntry}
// @Router       /forms/palette [get]
func (h *FormHandler) GetPalette(c *gin.Context) {
	response.SendSuccess(c, http.StatusOK, h.formService.Palette())
}

// AddField godoc
// @Summary      Append a field
// @Tags         forms
// @Accept       json
// @Produce      json
// @Param        formId path string true "Form ID"
// @Param        request body dto.AddFieldRequest true "Field kind"
// @Success      201 {object} response.SuccessResponse{data=dto.FormResponse}
// @Failure      400 {object} response.ErrorResponse "Unknown or disabled kind"
// @Failure      403 {object} response.ErrorResponse
// @Router       /forms/{formId}/fields [post]
// @Security     BearerAuth
func (h *FormHandler) AddField(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	formID, ok := pathUUID(c, "formId", "form")
	if !ok {
		return
	}
	var req dto.AddFieldRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.formService.AddField(c.Request.Context(), userID, formID, req.Kind)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	response.SendSuccess(c, http.StatusCreated, resp)
}

// UpdateField godoc
// @Summary      Replace a field's metadata
// @Tags         forms
// @Accept       json
// @Produce      json
// @Param        formId path string true "Form ID"
// @Param        fieldId path string true "Field ID"
// @Param        request body dto.UpdateFieldRequest true "Metadata"
// @Success      200 {object} response.SuccessResponse{data=dto.FormResponse}
// @Failure      403 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Router       /forms/{formId}/fields/{fieldId} [patch]
// @Security     BearerAuth
func (h *FormHandler) UpdateField(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	formID, ok := pathUUID(c, "formId", "form")
	if !ok {
		return
	}
	var req dto.UpdateFieldRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.formService.UpdateField(c.Request.Context(), userID, formID, c.Param("fieldId"), req.Metadata)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, resp)
}

// RemoveField godoc
// @Summary      Remove a field
// @Tags         forms
// @Produce      json
// @Param        formId path string true "Form ID"
// @Param        fieldId path string true "Field ID"
// @Success      200 {object} response.SuccessResponse{data=dto.FormResponse}
// @Failure      403 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Router       /forms/{formId}/fields/{fieldId} [delete]
// @Security     BearerAuth
func (h *FormHandler) RemoveField(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	formID, ok := pathUUID(c, "formId", "form")
	if !ok {
		return
	}

	resp, err := h.formService.RemoveField(c.Request.Context(), userID, formID, c.Param("fieldId"))
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, resp)
}

// MoveField godoc
// @Summary      Move a field to a new position
// @Tags         forms
// @Accept       json
// @Produce      json
// @Param        formId path string true "Form ID"
// @Param        fieldId path string true "Field ID"
// @Param        request body dto.MoveFieldRequest true "Target position"
// @Success      200 {object} response.SuccessResponse{data=dto.FormResponse}
// @Failure      400 {object} response.ErrorResponse
// @Failure      404 {object} response.ErrorResponse
// @Router       /forms/{formId}/fields/{fieldId}/move [post]
// @Security     BearerAuth
func (h *FormHandler) MoveField(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	formID, ok := pathUUID(c, "formId", "form")
	if !ok {
		return
	}
	var req dto.MoveFieldRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.formService.MoveField(c.Request.Context(), userID, formID, c.Param("fieldId"), *req.Position)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, resp)
}
