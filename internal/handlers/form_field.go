package handlers

import (
	"net/http"

	"civicform-backend/internal/services"

	"github.com/gin-gonic/gin"
)

type FormFieldHandler struct {
	formService *services.FormService
}

func NewFormFieldHandler(formService *services.FormService) *FormFieldHandler {
	return &FormFieldHandler{formService: formService}
}

// CreateField godoc
// @Summary      Add a field to a form
// @Tags         fields
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Form ID"
// @Param        request body services.FieldInput true "Field definition"
// @Success      201 {object} FormField
// @Failure      400 {object} ErrorResponse
// @Router       /api/v1/forms/{id}/fields [post]
func (h *FormFieldHandler) CreateField(c *gin.Context) {
	userID := c.GetUint("user_id")
	formID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input services.FieldInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	field, err := h.formService.CreateField(formID, userID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, field)
}

// UpdateField godoc
// @Summary      Update a form field
// @Tags         fields
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Field ID"
// @Param        request body services.FieldInput true "Field definition"
// @Success      200 {object} FormField
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/fields/{id} [put]
func (h *FormFieldHandler) UpdateField(c *gin.Context) {
	userID := c.GetUint("user_id")
	fieldID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input services.FieldInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	field, err := h.formService.UpdateField(fieldID, userID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, field)
}

// DeleteField godoc
// @Summary      Soft-delete a form field
// @Tags         fields
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Field ID"
// @Success      200 {object} MessageResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/fields/{id} [delete]
func (h *FormFieldHandler) DeleteField(c *gin.Context) {
	userID := c.GetUint("user_id")
	fieldID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.formService.DeleteField(fieldID, userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "field deleted"})
}

// CreateOption godoc
// @Summary      Add an option to a field
// @Tags         fields
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Field ID"
// @Param        request body services.OptionInput true "Option data"
// @Success      201 {object} map[string]interface{}
// @Failure      400 {object} ErrorResponse
// @Router       /api/v1/fields/{id}/options [post]
func (h *FormFieldHandler) CreateOption(c *gin.Context) {
	userID := c.GetUint("user_id")
	fieldID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input services.OptionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	opt, err := h.formService.CreateOption(fieldID, userID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, opt)
}

// UpdateOption godoc
// @Summary      Update a field option
// @Tags         fields
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Option ID"
// @Param        request body services.OptionInput true "Option data"
// @Success      200 {object} map[string]interface{}
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/options/{id} [put]
func (h *FormFieldHandler) UpdateOption(c *gin.Context) {
	userID := c.GetUint("user_id")
	optionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input services.OptionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	opt, err := h.formService.UpdateOption(optionID, userID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, opt)
}

// DeleteOption godoc
// @Summary      Soft-delete a field option
// @Tags         fields
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Option ID"
// @Success      200 {object} MessageResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/options/{id} [delete]
func (h *FormFieldHandler) DeleteOption(c *gin.Context) {
	userID := c.GetUint("user_id")
	optionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.formService.DeleteOption(optionID, userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "option deleted"})
}
