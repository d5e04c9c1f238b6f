package handlers

import (
	"net/http"
	"strconv"

	"civicform-backend/internal/services"

	"github.com/gin-gonic/gin"
)

type FormEventHandler struct {
	eventService *services.FormEventService
	userService  *services.UserService
}

func NewFormEventHandler(eventService *services.FormEventService, userService *services.UserService) *FormEventHandler {
	return &FormEventHandler{eventService: eventService, userService: userService}
}

// ListFormEvents godoc
// @Summary      List form events visible to the authenticated user
// @Description  Accessibility rules are applied as a hard filter; pagination counts only visible events
// @Tags         form-events
// @Produce      json
// @Security     BearerAuth
// @Param        status query int false "Status filter"
// @Param        formId query int false "Form filter"
// @Param        search query string false "Title search"
// @Param        startDateFrom query string false "Earliest start date (YYYY-MM-DD)"
// @Param        startDateTo query string false "Latest start date (YYYY-MM-DD)"
// @Param        page query int false "Page number"
// @Param        limit query int false "Page size"
// @Param        sortColumn query string false "Sort column"
// @Param        sort query string false "asc or desc"
// @Success      200 {object} services.FormEventPage
// @Failure      401 {object} ErrorResponse
// @Router       /api/v1/form-events [get]
func (h *FormEventHandler) ListFormEvents(c *gin.Context) {
	userID := c.GetUint("user_id")

	profile, err := h.userService.Profile(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	query := services.FormEventListQuery{
		Search:        c.Query("search"),
		StartDateFrom: c.Query("startDateFrom"),
		StartDateTo:   c.Query("startDateTo"),
		Sort:          c.Query("sort"),
		SortColumn:    c.Query("sortColumn"),
	}
	query.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	query.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if raw := c.Query("status"); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 16); err == nil {
			status := int16(v)
			query.Status = &status
		}
	}
	if raw := c.Query("formId"); raw != "" {
		if v, err := strconv.ParseUint(raw, 10, 64); err == nil {
			formID := uint(v)
			query.FormID = &formID
		}
	}

	page, err := h.eventService.List(profile, query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// CreateFormEvent godoc
// @Summary      Schedule a form event
// @Description  Binds a form to a time window and a set of accessibility rules
// @Tags         form-events
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body services.FormEventInput true "Event data"
// @Success      201 {object} FormEvent
// @Failure      400 {object} ErrorResponse
// @Router       /api/v1/form-events [post]
func (h *FormEventHandler) CreateFormEvent(c *gin.Context) {
	userID := c.GetUint("user_id")

	var input services.FormEventInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	event, err := h.eventService.Create(userID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

// GetFormEvent godoc
// @Summary      Get a form event
// @Tags         form-events
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Form event ID"
// @Success      200 {object} FormEvent
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/form-events/{id} [get]
func (h *FormEventHandler) GetFormEvent(c *gin.Context) {
	eventID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	event, err := h.eventService.Get(eventID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

// UpdateFormEvent godoc
// @Summary      Update a form event
// @Description  Partial update; supplying accessibility replaces the full rule set
// @Tags         form-events
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Form event ID"
// @Param        request body services.FormEventUpdateInput true "Fields to update"
// @Success      200 {object} FormEvent
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/form-events/{id} [put]
func (h *FormEventHandler) UpdateFormEvent(c *gin.Context) {
	userID := c.GetUint("user_id")
	eventID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input services.FormEventUpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	event, err := h.eventService.Update(eventID, userID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

// DeleteFormEvent godoc
// @Summary      Soft-close a form event
// @Tags         form-events
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Form event ID"
// @Success      200 {object} MessageResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/form-events/{id} [delete]
func (h *FormEventHandler) DeleteFormEvent(c *gin.Context) {
	userID := c.GetUint("user_id")
	eventID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.eventService.Delete(eventID, userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "form event deleted"})
}
