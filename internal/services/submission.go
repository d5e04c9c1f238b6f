package services

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"civicform-backend/internal/apperr"
	"civicform-backend/internal/models"
	"civicform-backend/internal/ws"

	"gorm.io/gorm"
)

type SubmissionService struct {
	db  *gorm.DB
	hub *ws.Hub
}

func NewSubmissionService(db *gorm.DB, hub *ws.Hub) *SubmissionService {
	return &SubmissionService{db: db, hub: hub}
}

type FieldValueInput struct {
	FormFieldID uint   `json:"form_field_id"`
	Value       string `json:"value"`
}

type SubmitInput struct {
	FormEventID uint
	Values      []FieldValueInput
	// Files maps a field id to the stored URLs of its uploads.
	Files     map[uint][]string
	IPAddress string
	UserAgent string
}

// Submit validates the payload against the event's field schema and writes the
// submission with all of its field values in one transaction. Any validation
// failure leaves no rows behind.
func (s *SubmissionService) Submit(profile UserProfile, input SubmitInput) (*models.FormSubmission, error) {
	var event models.FormEvent
	if err := s.db.Preload("Accessibilities", func(db *gorm.DB) *gorm.DB {
		return db.Where("status = ?", models.StatusActive)
	}).First(&event, input.FormEventID).Error; err != nil {
		return nil, apperr.NotFound("form event not found")
	}

	if event.Status != models.StatusActive {
		return nil, apperr.BadRequest("form event is not active")
	}

	today := time.Now().Format(dateLayout)
	if today < event.StartDate {
		return nil, apperr.BadRequest("form event has not started yet")
	}
	if event.EndDate != nil && today > *event.EndDate {
		return nil, apperr.BadRequest("form event has ended")
	}

	if !CanAccess(profile, event.Accessibilities) {
		return nil, apperr.Forbidden("you do not have access to this form event")
	}

	if len(input.Values) == 0 {
		return nil, apperr.BadRequest("values must be a non-empty array")
	}
	for _, v := range input.Values {
		if v.FormFieldID == 0 {
			return nil, apperr.BadRequest("every value must carry a form_field_id")
		}
	}

	var fields []models.FormField
	if err := s.db.Where("form_id = ? AND status = ?", event.FormID, models.StatusActive).
		Find(&fields).Error; err != nil {
		return nil, err
	}
	fieldByID := make(map[uint]models.FormField, len(fields))
	for _, f := range fields {
		fieldByID[f.ID] = f
	}

	submission := models.FormSubmission{
		FormEventID: event.ID,
		UserID:      profile.ID,
		SubmittedAt: time.Now(),
		IPAddress:   input.IPAddress,
		UserAgent:   input.UserAgent,
		Status:      models.SubmissionStatusSubmitted,
		Audit:       models.Audit{CreatedBy: profile.ID, UpdatedBy: profile.ID},
	}

	tx := s.db.Begin()
	if err := tx.Create(&submission).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	for _, entry := range input.Values {
		field, ok := fieldByID[entry.FormFieldID]
		if !ok {
			tx.Rollback()
			return nil, apperr.BadRequest("form field %d does not belong to this form", entry.FormFieldID)
		}

		value, err := resolveValue(field, entry.Value, input.Files[field.ID])
		if err != nil {
			tx.Rollback()
			return nil, err
		}

		fv := models.FormFieldValue{
			FormSubmissionID: submission.ID,
			FormFieldID:      field.ID,
			FieldKey:         field.FieldKey,
			Value:            value,
		}
		if err := tx.Create(&fv).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if s.hub != nil {
		s.hub.Broadcast(event.ID, ws.Message{Type: "submission_received", Data: map[string]interface{}{
			"submission_id": submission.ID,
			"form_event_id": event.ID,
			"submitted_at":  submission.SubmittedAt,
		}})
	}

	return s.Get(submission.ID)
}

// resolveValue validates one answer against its field definition and returns
// the text to persist. Multiple file URLs are stored as one JSON array string.
func resolveValue(field models.FormField, raw string, fileURLs []string) (string, error) {
	trimmed := strings.TrimSpace(raw)

	if trimmed == "" && len(fileURLs) == 0 {
		if field.IsRequired {
			return "", apperr.BadRequest("Field %q is required", field.Label)
		}
		return "", nil
	}

	if len(fileURLs) > 0 {
		if len(fileURLs) == 1 {
			return fileURLs[0], nil
		}
		encoded, err := json.Marshal(fileURLs)
		if err != nil {
			return "", err
		}
		return string(encoded), nil
	}

	length := utf8.RuneCountInString(trimmed)
	if field.MinLength != nil && length < *field.MinLength {
		return "", apperr.BadRequest("Field %q must be at least %d characters", field.Label, *field.MinLength)
	}
	if field.MaxLength != nil && length > *field.MaxLength {
		return "", apperr.BadRequest("Field %q must not exceed %d characters", field.Label, *field.MaxLength)
	}

	if field.ValidationRegex != "" {
		// Compiled per submission; field definitions can change at any time.
		re, err := regexp.Compile(field.ValidationRegex)
		if err != nil {
			return "", apperr.BadRequest("Field %q has an invalid validation pattern", field.Label)
		}
		if !re.MatchString(trimmed) {
			return "", apperr.BadRequest("Field %q is not in a valid format", field.Label)
		}
	}

	if num, err := strconv.ParseFloat(trimmed, 64); err == nil {
		if field.MinValue != nil {
			if bound, err := strconv.ParseFloat(*field.MinValue, 64); err == nil && num < bound {
				return "", apperr.BadRequest("Field %q must be at least %s", field.Label, *field.MinValue)
			}
		}
		if field.MaxValue != nil {
			if bound, err := strconv.ParseFloat(*field.MaxValue, 64); err == nil && num > bound {
				return "", apperr.BadRequest("Field %q must not exceed %s", field.Label, *field.MaxValue)
			}
		}
	}

	return trimmed, nil
}

func (s *SubmissionService) Get(submissionID uint) (*models.FormSubmission, error) {
	var submission models.FormSubmission
	err := s.db.Where("id = ? AND status != ?", submissionID, models.SubmissionStatusDeleted).
		Preload("Values").
		Preload("User").
		Preload("FormEvent").
		First(&submission).Error
	if err != nil {
		return nil, apperr.NotFound("submission not found")
	}
	return &submission, nil
}

type SubmissionPage struct {
	Items []models.FormSubmission `json:"items"`
	Total int64                   `json:"total"`
	Page  int                     `json:"page"`
	Limit int                     `json:"limit"`
}

func (s *SubmissionService) ListByEvent(formEventID uint, page, limit int) (*SubmissionPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	result := &SubmissionPage{Items: []models.FormSubmission{}, Page: page, Limit: limit}

	base := s.db.Model(&models.FormSubmission{}).
		Where("form_event_id = ? AND status != ?", formEventID, models.SubmissionStatusDeleted)
	if err := base.Count(&result.Total).Error; err != nil {
		return nil, err
	}

	err := s.db.Where("form_event_id = ? AND status != ?", formEventID, models.SubmissionStatusDeleted).
		Preload("Values").
		Preload("User").
		Order("submitted_at DESC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&result.Items).Error
	return result, err
}

func (s *SubmissionService) ListByUser(userID uint) ([]models.FormSubmission, error) {
	var submissions []models.FormSubmission
	err := s.db.Where("user_id = ? AND status != ?", userID, models.SubmissionStatusDeleted).
		Preload("Values").
		Preload("FormEvent").
		Order("submitted_at DESC").
		Find(&submissions).Error
	return submissions, err
}

// UpdateStatus moves a submission between submitted/reviewed/rejected.
func (s *SubmissionService) UpdateStatus(submissionID, userID uint, status int16) (*models.FormSubmission, error) {
	switch status {
	case models.SubmissionStatusSubmitted, models.SubmissionStatusReviewed, models.SubmissionStatusRejected:
	default:
		return nil, apperr.BadRequest("invalid submission status %d", status)
	}

	result := s.db.Model(&models.FormSubmission{}).
		Where("id = ? AND status != ?", submissionID, models.SubmissionStatusDeleted).
		Updates(map[string]interface{}{"status": status, "updated_by": userID})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, apperr.NotFound("submission not found")
	}
	return s.Get(submissionID)
}

func (s *SubmissionService) Delete(submissionID, userID uint) error {
	result := s.db.Model(&models.FormSubmission{}).
		Where("id = ? AND status != ?", submissionID, models.SubmissionStatusDeleted).
		Updates(map[string]interface{}{"status": models.SubmissionStatusDeleted, "updated_by": userID})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("submission not found")
	}
	return nil
}

type SubmissionStats struct {
	Total     int64 `json:"total"`
	Submitted int64 `json:"submitted"`
	Reviewed  int64 `json:"reviewed"`
	Rejected  int64 `json:"rejected"`
}

func (s *SubmissionService) Stats(formEventID uint) (*SubmissionStats, error) {
	var event models.FormEvent
	if err := s.db.First(&event, formEventID).Error; err != nil {
		return nil, apperr.NotFound("form event not found")
	}

	stats := &SubmissionStats{}
	counts := []struct {
		status int16
		target *int64
	}{
		{models.SubmissionStatusSubmitted, &stats.Submitted},
		{models.SubmissionStatusReviewed, &stats.Reviewed},
		{models.SubmissionStatusRejected, &stats.Rejected},
	}
	for _, c := range counts {
		if err := s.db.Model(&models.FormSubmission{}).
			Where("form_event_id = ? AND status = ?", formEventID, c.status).
			Count(c.target).Error; err != nil {
			return nil, err
		}
	}
	stats.Total = stats.Submitted + stats.Reviewed + stats.Rejected
	return stats, nil
}
