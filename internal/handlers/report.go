package handlers

import (
	"net/http"
	"strconv"

	"civicform-backend/internal/services"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reportService *services.ReportService
	userService   *services.UserService
}

func NewReportHandler(reportService *services.ReportService, userService *services.UserService) *ReportHandler {
	return &ReportHandler{reportService: reportService, userService: userService}
}

// EventReport godoc
// @Summary      Tabular report of a form event's submissions
// @Description  Stored ids are resolved to display labels; ward/booth accept -1 for "all"
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Form event ID"
// @Param        wardNumberId query int false "Ward filter (-1 for all)"
// @Param        boothNumberId query int false "Booth filter (-1 for all)"
// @Param        submittedBy query int false "Submitter filter"
// @Param        submittedFrom query string false "Earliest submission date (YYYY-MM-DD)"
// @Param        submittedTo query string false "Latest submission date (YYYY-MM-DD)"
// @Success      200 {object} services.Report
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/reports/form-events/{id} [get]
func (h *ReportHandler) EventReport(c *gin.Context) {
	userID := c.GetUint("user_id")
	eventID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	profile, err := h.userService.Profile(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	filters := services.ReportFilters{
		SubmittedFrom: c.Query("submittedFrom"),
		SubmittedTo:   c.Query("submittedTo"),
	}
	if raw := c.Query("wardNumberId"); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			filters.WardNumberID = &v
		}
	}
	if raw := c.Query("boothNumberId"); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			filters.BoothNumberID = &v
		}
	}
	if raw := c.Query("submittedBy"); raw != "" {
		if v, err := strconv.ParseUint(raw, 10, 64); err == nil {
			id := uint(v)
			filters.SubmittedBy = &id
		}
	}

	report, err := h.reportService.Generate(profile, eventID, filters)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
