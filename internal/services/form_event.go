package services

import (
	"strings"
	"time"

	"civicform-backend/internal/apperr"
	"civicform-backend/internal/models"
	"civicform-backend/internal/notify"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

type FormEventService struct {
	db       *gorm.DB
	access   *AccessibilityService
	notifier *notify.Client
	logger   *zap.Logger
}

func NewFormEventService(db *gorm.DB, access *AccessibilityService, notifier *notify.Client, logger *zap.Logger) *FormEventService {
	return &FormEventService{db: db, access: access, notifier: notifier, logger: logger}
}

type FormEventInput struct {
	FormID        uint                 `json:"form_id"`
	Title         string               `json:"title"`
	Description   string               `json:"description"`
	StartDate     string               `json:"start_date"`
	EndDate       *string              `json:"end_date"`
	Accessibility []AccessibilityInput `json:"accessibility"`
}

func (s *FormEventService) Create(userID uint, input FormEventInput) (*models.FormEvent, error) {
	var formCount int64
	s.db.Model(&models.Form{}).
		Where("id = ? AND status = ?", input.FormID, models.StatusActive).
		Count(&formCount)
	if formCount == 0 {
		return nil, apperr.BadRequest("form %d does not exist", input.FormID)
	}

	if strings.TrimSpace(input.Title) == "" {
		return nil, apperr.BadRequest("title is required")
	}
	if strings.TrimSpace(input.Description) == "" {
		return nil, apperr.BadRequest("description is required")
	}

	startDate, err := normalizeDate(input.StartDate)
	if err != nil {
		return nil, err
	}
	var endDate *string
	if input.EndDate != nil && strings.TrimSpace(*input.EndDate) != "" {
		normalized, err := normalizeDate(*input.EndDate)
		if err != nil {
			return nil, err
		}
		endDate = &normalized
	}
	if err := validateDateRange(startDate, endDate); err != nil {
		return nil, err
	}

	if err := ValidateAccessibilityPayload(input.Accessibility); err != nil {
		return nil, err
	}
	if err := s.access.EnsureReferencesExist(input.Accessibility); err != nil {
		return nil, err
	}

	event := models.FormEvent{
		FormID:      input.FormID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		StartDate:   startDate,
		EndDate:     endDate,
		Status:      models.StatusActive,
		Audit:       models.Audit{CreatedBy: userID, UpdatedBy: userID},
	}

	tx := s.db.Begin()
	if err := tx.Create(&event).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	for _, r := range input.Accessibility {
		rule := models.FormEventAccessibility{
			FormEventID:   event.ID,
			WardNumberID:  r.WardNumberID,
			BoothNumberID: r.BoothNumberID,
			UserRoleID:    uint(r.UserRoleID),
			Status:        models.StatusActive,
			Audit:         models.Audit{CreatedBy: userID, UpdatedBy: userID},
		}
		if err := tx.Create(&rule).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	s.notifyPublished(&event, input.Accessibility)

	return s.Get(event.ID)
}

func (s *FormEventService) notifyPublished(event *models.FormEvent, rules []AccessibilityInput) {
	if s.notifier == nil || !s.notifier.Enabled() {
		return
	}
	roleIDs := make([]uint, 0, len(rules))
	seen := map[uint]bool{}
	for _, r := range rules {
		id := uint(r.UserRoleID)
		if !seen[id] {
			seen[id] = true
			roleIDs = append(roleIDs, id)
		}
	}
	go func() {
		if err := s.notifier.SendEventPublished(event.ID, event.Title, roleIDs); err != nil {
			s.logger.Warn("event notification failed",
				zap.Uint("form_event_id", event.ID), zap.Error(err))
		}
	}()
}

func (s *FormEventService) Get(eventID uint) (*models.FormEvent, error) {
	var event models.FormEvent
	err := s.db.Where("id = ? AND status = ?", eventID, models.StatusActive).
		Preload("Form").
		Preload("Accessibilities", func(db *gorm.DB) *gorm.DB {
			return db.Where("status = ?", models.StatusActive)
		}).
		First(&event).Error
	if err != nil {
		return nil, apperr.NotFound("form event not found")
	}
	return &event, nil
}

type FormEventListQuery struct {
	Status        *int16
	FormID        *uint
	Search        string
	StartDateFrom string
	StartDateTo   string
	Page          int
	Limit         int
	Sort          string
	SortColumn    string
}

type FormEventPage struct {
	Items []models.FormEvent `json:"items"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

// List returns only the events the profile may see. The accessibility match is
// an inner join, so pagination counts exclude inaccessible events entirely.
func (s *FormEventService) List(profile UserProfile, query FormEventListQuery) (*FormEventPage, error) {
	page := query.Page
	if page < 1 {
		page = 1
	}
	limit := query.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}

	result := &FormEventPage{Items: []models.FormEvent{}, Page: page, Limit: limit}

	// No ward, booth or roles means no rule can ever match.
	if profile.WardNumberID == nil || profile.BoothNumberID == nil || len(profile.RoleIDs) == 0 {
		return result, nil
	}

	filtered := func() (*gorm.DB, error) {
		q := s.db.Model(&models.FormEvent{}).
			Joins(`JOIN form_event_accessibilities fea ON fea.form_event_id = form_events.id
				AND fea.status = 1
				AND (fea.ward_number_id = -1 OR fea.ward_number_id = ?)
				AND (fea.booth_number_id = -1 OR fea.booth_number_id = ?)
				AND fea.user_role_id IN ?`,
				*profile.WardNumberID, *profile.BoothNumberID, profile.RoleIDs)

		if query.Status != nil {
			q = q.Where("form_events.status = ?", *query.Status)
		} else {
			q = q.Where("form_events.status = ?", models.StatusActive)
		}
		if query.FormID != nil {
			q = q.Where("form_events.form_id = ?", *query.FormID)
		}
		if search := strings.TrimSpace(query.Search); search != "" {
			q = q.Where("form_events.title LIKE ?", "%"+search+"%")
		}
		if query.StartDateFrom != "" {
			from, err := normalizeDate(query.StartDateFrom)
			if err != nil {
				return nil, err
			}
			q = q.Where("form_events.start_date >= ?", from)
		}
		if query.StartDateTo != "" {
			to, err := normalizeDate(query.StartDateTo)
			if err != nil {
				return nil, err
			}
			q = q.Where("form_events.start_date <= ?", to)
		}
		return q, nil
	}

	countQ, err := filtered()
	if err != nil {
		return nil, err
	}
	if err := countQ.Distinct("form_events.id").Count(&result.Total).Error; err != nil {
		return nil, err
	}

	order := "form_events.created_at DESC"
	if col := sortColumn(query.SortColumn); col != "" {
		dir := "ASC"
		if strings.EqualFold(query.Sort, "desc") {
			dir = "DESC"
		}
		order = "form_events." + col + " " + dir
	}

	idsQ, err := filtered()
	if err != nil {
		return nil, err
	}
	var ids []uint
	if err := idsQ.Group("form_events.id").Order(order).
		Limit(limit).Offset((page - 1) * limit).
		Pluck("form_events.id", &ids).Error; err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return result, nil
	}

	err = s.db.Where("id IN ?", ids).
		Preload("Form").
		Preload("Accessibilities", func(db *gorm.DB) *gorm.DB {
			return db.Where("status = ?", models.StatusActive)
		}).
		Order(order).
		Find(&result.Items).Error
	return result, err
}

func sortColumn(requested string) string {
	switch requested {
	case "title", "start_date", "end_date", "created_at":
		return requested
	}
	return ""
}

type FormEventUpdateInput struct {
	Title         *string              `json:"title"`
	Description   *string              `json:"description"`
	StartDate     *string              `json:"start_date"`
	EndDate       *string              `json:"end_date"`
	Accessibility []AccessibilityInput `json:"accessibility"`
}

func (s *FormEventService) Update(eventID, userID uint, input FormEventUpdateInput) (*models.FormEvent, error) {
	var event models.FormEvent
	if err := s.db.Where("id = ? AND status = ?", eventID, models.StatusActive).First(&event).Error; err != nil {
		return nil, apperr.NotFound("form event not found")
	}

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, apperr.BadRequest("title is required")
		}
		event.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		if strings.TrimSpace(*input.Description) == "" {
			return nil, apperr.BadRequest("description is required")
		}
		event.Description = strings.TrimSpace(*input.Description)
	}

	// The effective range is proposed-where-given, existing otherwise, and the
	// range invariant is re-checked against that combination.
	if input.StartDate != nil {
		normalized, err := normalizeDate(*input.StartDate)
		if err != nil {
			return nil, err
		}
		event.StartDate = normalized
	}
	if input.EndDate != nil {
		if strings.TrimSpace(*input.EndDate) == "" {
			event.EndDate = nil
		} else {
			normalized, err := normalizeDate(*input.EndDate)
			if err != nil {
				return nil, err
			}
			event.EndDate = &normalized
		}
	}
	if err := validateDateRange(event.StartDate, event.EndDate); err != nil {
		return nil, err
	}

	if input.Accessibility != nil {
		if err := ValidateAccessibilityPayload(input.Accessibility); err != nil {
			return nil, err
		}
		if err := s.access.EnsureReferencesExist(input.Accessibility); err != nil {
			return nil, err
		}
	}

	event.UpdatedBy = userID

	tx := s.db.Begin()
	if err := tx.Save(&event).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	// Accessibility rows are never patched: the full set is replaced.
	if input.Accessibility != nil {
		if err := tx.Where("form_event_id = ?", eventID).
			Delete(&models.FormEventAccessibility{}).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		for _, r := range input.Accessibility {
			rule := models.FormEventAccessibility{
				FormEventID:   eventID,
				WardNumberID:  r.WardNumberID,
				BoothNumberID: r.BoothNumberID,
				UserRoleID:    uint(r.UserRoleID),
				Status:        models.StatusActive,
				Audit:         models.Audit{CreatedBy: userID, UpdatedBy: userID},
			}
			if err := tx.Create(&rule).Error; err != nil {
				tx.Rollback()
				return nil, err
			}
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return s.Get(eventID)
}

// Delete soft-closes the event and its accessibility rows together.
func (s *FormEventService) Delete(eventID, userID uint) error {
	var event models.FormEvent
	if err := s.db.Where("id = ? AND status = ?", eventID, models.StatusActive).First(&event).Error; err != nil {
		return apperr.NotFound("form event not found")
	}

	tx := s.db.Begin()
	if err := tx.Model(&models.FormEvent{}).Where("id = ?", eventID).
		Updates(map[string]interface{}{"status": models.StatusInactive, "updated_by": userID}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Model(&models.FormEventAccessibility{}).Where("form_event_id = ?", eventID).
		Updates(map[string]interface{}{"status": models.StatusInactive, "updated_by": userID}).Error; err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

// normalizeDate truncates any parseable input to its calendar-date slice.
func normalizeDate(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) >= len(dateLayout) {
		if t, err := time.Parse(dateLayout, trimmed[:len(dateLayout)]); err == nil {
			return t.Format(dateLayout), nil
		}
	}
	for _, layout := range []string{"02-01-2006", "02/01/2006", time.RFC3339} {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format(dateLayout), nil
		}
	}
	return "", apperr.BadRequest("invalid date %q", raw)
}

func validateDateRange(start string, end *string) error {
	if end != nil && *end < start {
		return apperr.BadRequest("end_date must not be before start_date")
	}
	return nil
}
