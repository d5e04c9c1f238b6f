package handlers

import (
	"net/http"
	"strconv"

	"civicform-backend/internal/apperr"
	"civicform-backend/internal/models"

	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
}

type MessageResponse struct {
	Message string `json:"message" example:"operation successful"`
}

// Type aliases so swag can resolve models in annotations.
type Form = models.Form
type FormField = models.FormField
type FormEvent = models.FormEvent
type FormSubmission = models.FormSubmission

func respondError(c *gin.Context, err error) {
	c.JSON(apperr.StatusOf(err), ErrorResponse{Error: err.Error()})
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + name})
		return 0, false
	}
	return uint(id), true
}
