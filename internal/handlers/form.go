package handlers

import (
	"net/http"

	"civicform-backend/internal/services"

	"github.com/gin-gonic/gin"
)

type FormHandler struct {
	formService *services.FormService
}

func NewFormHandler(formService *services.FormService) *FormHandler {
	return &FormHandler{formService: formService}
}

// ListForms godoc
// @Summary      List forms
// @Tags         forms
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} Form
// @Failure      401 {object} ErrorResponse
// @Router       /api/v1/forms [get]
func (h *FormHandler) ListForms(c *gin.Context) {
	forms, err := h.formService.ListForms()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, forms)
}

// CreateForm godoc
// @Summary      Create a form with its fields and options
// @Tags         forms
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body services.FormInput true "Form definition"
// @Success      201 {object} Form
// @Failure      400 {object} ErrorResponse
// @Router       /api/v1/forms [post]
func (h *FormHandler) CreateForm(c *gin.Context) {
	userID := c.GetUint("user_id")

	var input services.FormInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	form, err := h.formService.CreateForm(userID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, form)
}

// GetForm godoc
// @Summary      Get a form with fields and options
// @Tags         forms
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Form ID"
// @Success      200 {object} Form
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/forms/{id} [get]
func (h *FormHandler) GetForm(c *gin.Context) {
	formID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	form, err := h.formService.GetForm(formID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, form)
}

// UpdateForm godoc
// @Summary      Update form metadata
// @Tags         forms
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Form ID"
// @Param        request body services.FormUpdateInput true "Fields to update"
// @Success      200 {object} Form
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/forms/{id} [put]
func (h *FormHandler) UpdateForm(c *gin.Context) {
	userID := c.GetUint("user_id")
	formID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input services.FormUpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	form, err := h.formService.UpdateForm(formID, userID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, form)
}

// DeleteForm godoc
// @Summary      Soft-delete a form
// @Tags         forms
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Form ID"
// @Success      200 {object} MessageResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/forms/{id} [delete]
func (h *FormHandler) DeleteForm(c *gin.Context) {
	userID := c.GetUint("user_id")
	formID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.formService.DeleteForm(formID, userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "form deleted"})
}
