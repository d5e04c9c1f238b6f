package handlers

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"civicform-backend/internal/services"

	"github.com/gin-gonic/gin"
)

// Uploaded files ride alongside the JSON payload in a multipart form, one
// part per file, named "fieldvalue[<field id>]".
const fileFieldPrefix = "fieldvalue["

type SubmissionHandler struct {
	submissionService *services.SubmissionService
	userService       *services.UserService
	uploadDir         string
}

func NewSubmissionHandler(submissionService *services.SubmissionService, userService *services.UserService, uploadDir string) *SubmissionHandler {
	return &SubmissionHandler{
		submissionService: submissionService,
		userService:       userService,
		uploadDir:         uploadDir,
	}
}

type SubmitRequest struct {
	Values []services.FieldValueInput `json:"values"`
}

// Submit godoc
// @Summary      Submit answers to a form event
// @Description  Accepts JSON, or multipart with a "data" JSON part and files named fieldvalue[<field id>]
// @Tags         submissions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Form event ID"
// @Param        request body SubmitRequest true "Answers"
// @Success      201 {object} FormSubmission
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Router       /api/v1/form-events/{id}/submissions [post]
func (h *SubmissionHandler) Submit(c *gin.Context) {
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

	input := services.SubmitInput{
		FormEventID: eventID,
		IPAddress:   c.ClientIP(),
		UserAgent:   c.Request.UserAgent(),
	}

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		values, files, err := h.parseMultipart(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		input.Values = values
		input.Files = files
	} else {
		var req SubmitRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		input.Values = req.Values
	}

	submission, err := h.submissionService.Submit(profile, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, submission)
}

func (h *SubmissionHandler) parseMultipart(c *gin.Context) ([]services.FieldValueInput, map[uint][]string, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid multipart form")
	}

	var values []services.FieldValueInput
	if data := form.Value["data"]; len(data) > 0 {
		if err := json.Unmarshal([]byte(data[0]), &values); err != nil {
			return nil, nil, fmt.Errorf("invalid JSON in data part: %v", err)
		}
	}

	files := make(map[uint][]string)
	for name, parts := range form.File {
		if !strings.HasPrefix(name, fileFieldPrefix) || !strings.HasSuffix(name, "]") {
			continue
		}
		idRaw := name[len(fileFieldPrefix) : len(name)-1]
		fieldID, err := strconv.ParseUint(idRaw, 10, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid file field name %q", name)
		}
		for _, part := range parts {
			url, err := h.saveFile(c, part)
			if err != nil {
				return nil, nil, err
			}
			files[uint(fieldID)] = append(files[uint(fieldID)], url)
		}
	}

	return values, files, nil
}

func (h *SubmissionHandler) saveFile(c *gin.Context, file *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	allowed := map[string]bool{
		".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
		".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
		".csv": true, ".txt": true,
	}
	if !allowed[ext] {
		return "", fmt.Errorf("unsupported file format %q", ext)
	}
	if file.Size > 25<<20 {
		return "", fmt.Errorf("file too large (max 25MB)")
	}

	filename := fmt.Sprintf("%d_%d%s", time.Now().UnixNano(), rand.Intn(100000), ext)
	dst := filepath.Join(h.uploadDir, filename)

	os.MkdirAll(h.uploadDir, 0755)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		return "", fmt.Errorf("failed to save file")
	}
	return "/uploads/" + filename, nil
}

// Upload godoc
// @Summary      Upload a standalone file
// @Tags         submissions
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} map[string]interface{}
// @Failure      400 {object} ErrorResponse
// @Router       /api/v1/upload [post]
func (h *SubmissionHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "no file provided"})
		return
	}

	url, err := h.saveFile(c, file)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// GetSubmission godoc
// @Summary      Get a submission with its field values
// @Tags         submissions
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Submission ID"
// @Success      200 {object} FormSubmission
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/submissions/{id} [get]
func (h *SubmissionHandler) GetSubmission(c *gin.Context) {
	submissionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	submission, err := h.submissionService.Get(submissionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, submission)
}

// ListEventSubmissions godoc
// @Summary      List submissions for a form event
// @Tags         submissions
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Form event ID"
// @Param        page query int false "Page number"
// @Param        limit query int false "Page size"
// @Success      200 {object} services.SubmissionPage
// @Failure      401 {object} ErrorResponse
// @Router       /api/v1/form-events/{id}/submissions [get]
func (h *SubmissionHandler) ListEventSubmissions(c *gin.Context) {
	eventID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	result, err := h.submissionService.ListByEvent(eventID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// MySubmissions godoc
// @Summary      List the authenticated user's submissions
// @Tags         submissions
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} FormSubmission
// @Failure      401 {object} ErrorResponse
// @Router       /api/v1/my-submissions [get]
func (h *SubmissionHandler) MySubmissions(c *gin.Context) {
	userID := c.GetUint("user_id")

	submissions, err := h.submissionService.ListByUser(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, submissions)
}

type UpdateStatusRequest struct {
	Status int16 `json:"status" binding:"required" example:"2"`
}

// UpdateSubmissionStatus godoc
// @Summary      Move a submission between submitted/reviewed/rejected
// @Tags         submissions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Submission ID"
// @Param        request body UpdateStatusRequest true "New status"
// @Success      200 {object} FormSubmission
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/submissions/{id}/status [patch]
func (h *SubmissionHandler) UpdateSubmissionStatus(c *gin.Context) {
	userID := c.GetUint("user_id")
	submissionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	submission, err := h.submissionService.UpdateStatus(submissionID, userID, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, submission)
}

// DeleteSubmission godoc
// @Summary      Soft-delete a submission
// @Tags         submissions
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Submission ID"
// @Success      200 {object} MessageResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/submissions/{id} [delete]
func (h *SubmissionHandler) DeleteSubmission(c *gin.Context) {
	userID := c.GetUint("user_id")
	submissionID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.submissionService.Delete(submissionID, userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "submission deleted"})
}

// EventStats godoc
// @Summary      Submission counts for a form event
// @Tags         submissions
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Form event ID"
// @Success      200 {object} services.SubmissionStats
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/form-events/{id}/stats [get]
func (h *SubmissionHandler) EventStats(c *gin.Context) {
	eventID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	stats, err := h.submissionService.Stats(eventID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
