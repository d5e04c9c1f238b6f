package services

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"civicform-backend/internal/apperr"
	"civicform-backend/internal/models"

	"gorm.io/gorm"
)

type FormService struct {
	db *gorm.DB
}

func NewFormService(db *gorm.DB) *FormService {
	return &FormService{db: db}
}

type OptionInput struct {
	OptionLabel string `json:"option_label"`
	OptionValue string `json:"option_value"`
	SortOrder   int    `json:"sort_order"`
	IsDefault   bool   `json:"is_default"`
}

type FieldInput struct {
	FieldKey        string        `json:"field_key"`
	Label           string        `json:"label"`
	FieldTypeID     uint          `json:"field_type_id"`
	InputFormatID   *uint         `json:"input_format_id"`
	IsRequired      bool          `json:"is_required"`
	SortOrder       int           `json:"sort_order"`
	Placeholder     string        `json:"placeholder"`
	DefaultValue    string        `json:"default_value"`
	ValidationRegex string        `json:"validation_regex"`
	MinLength       *int          `json:"min_length"`
	MaxLength       *int          `json:"max_length"`
	MinValue        *string       `json:"min_value"`
	MaxValue        *string       `json:"max_value"`
	Attrs           json.RawMessage `json:"attrs"`
	MetaTable       string        `json:"meta_table"`
	Options         []OptionInput `json:"options"`
}

type FormInput struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Slug        string       `json:"slug"`
	IsPublic    bool         `json:"is_public"`
	Fields      []FieldInput `json:"fields"`
}

func (s *FormService) CreateForm(userID uint, input FormInput) (*models.Form, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperr.BadRequest("title is required")
	}

	seen := map[string]bool{}
	for _, f := range input.Fields {
		if err := s.validateFieldInput(f); err != nil {
			return nil, err
		}
		key := strings.TrimSpace(f.FieldKey)
		if seen[key] {
			return nil, apperr.BadRequest("duplicate field key %q", key)
		}
		seen[key] = true
	}

	form := models.Form{
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Slug:        input.Slug,
		IsPublic:    input.IsPublic,
		Status:      models.StatusActive,
		Audit:       models.Audit{CreatedBy: userID, UpdatedBy: userID},
	}

	tx := s.db.Begin()
	if err := tx.Create(&form).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	for _, f := range input.Fields {
		field := fieldFromInput(form.ID, userID, f)
		if err := tx.Create(&field).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		// Options need the generated field id, so they go in afterwards.
		for _, o := range f.Options {
			opt := optionFromInput(field.ID, userID, o)
			if err := tx.Create(&opt).Error; err != nil {
				tx.Rollback()
				return nil, err
			}
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return s.GetForm(form.ID)
}

func (s *FormService) GetForm(formID uint) (*models.Form, error) {
	var form models.Form
	err := s.db.Where("id = ? AND status = ?", formID, models.StatusActive).
		Preload("Fields", func(db *gorm.DB) *gorm.DB {
			return db.Where("status = ?", models.StatusActive).Order("sort_order ASC")
		}).
		Preload("Fields.FieldType").
		Preload("Fields.InputFormat").
		Preload("Fields.Options", func(db *gorm.DB) *gorm.DB {
			return db.Where("status = ?", models.StatusActive).Order("sort_order ASC")
		}).
		First(&form).Error
	if err != nil {
		return nil, apperr.NotFound("form not found")
	}
	return &form, nil
}

func (s *FormService) ListForms() ([]models.Form, error) {
	var forms []models.Form
	err := s.db.Where("status = ?", models.StatusActive).
		Order("created_at DESC").
		Find(&forms).Error
	return forms, err
}

type FormUpdateInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Slug        *string `json:"slug"`
	IsPublic    *bool   `json:"is_public"`
}

func (s *FormService) UpdateForm(formID, userID uint, input FormUpdateInput) (*models.Form, error) {
	var form models.Form
	if err := s.db.Where("id = ? AND status = ?", formID, models.StatusActive).First(&form).Error; err != nil {
		return nil, apperr.NotFound("form not found")
	}

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, apperr.BadRequest("title is required")
		}
		form.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		form.Description = *input.Description
	}
	if input.Slug != nil {
		form.Slug = *input.Slug
	}
	if input.IsPublic != nil {
		form.IsPublic = *input.IsPublic
	}
	form.UpdatedBy = userID

	if err := s.db.Save(&form).Error; err != nil {
		return nil, err
	}
	return s.GetForm(formID)
}

func (s *FormService) DeleteForm(formID, userID uint) error {
	result := s.db.Model(&models.Form{}).
		Where("id = ? AND status = ?", formID, models.StatusActive).
		Updates(map[string]interface{}{"status": models.StatusInactive, "updated_by": userID})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("form not found")
	}
	return nil
}

func (s *FormService) CreateField(formID, userID uint, input FieldInput) (*models.FormField, error) {
	var form models.Form
	if err := s.db.Where("id = ? AND status = ?", formID, models.StatusActive).First(&form).Error; err != nil {
		return nil, apperr.NotFound("form not found")
	}

	if err := s.validateFieldInput(input); err != nil {
		return nil, err
	}

	var dup int64
	s.db.Model(&models.FormField{}).
		Where("form_id = ? AND field_key = ? AND status = ?", formID, strings.TrimSpace(input.FieldKey), models.StatusActive).
		Count(&dup)
	if dup > 0 {
		return nil, apperr.BadRequest("duplicate field key %q", strings.TrimSpace(input.FieldKey))
	}

	field := fieldFromInput(formID, userID, input)

	tx := s.db.Begin()
	if err := tx.Create(&field).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	for _, o := range input.Options {
		opt := optionFromInput(field.ID, userID, o)
		if err := tx.Create(&opt).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	s.db.Preload("FieldType").Preload("InputFormat").Preload("Options").First(&field, field.ID)
	return &field, nil
}

func (s *FormService) UpdateField(fieldID, userID uint, input FieldInput) (*models.FormField, error) {
	var field models.FormField
	if err := s.db.Where("id = ? AND status = ?", fieldID, models.StatusActive).First(&field).Error; err != nil {
		return nil, apperr.NotFound("form field not found")
	}

	if err := s.validateFieldInput(input); err != nil {
		return nil, err
	}

	key := strings.TrimSpace(input.FieldKey)
	if key != field.FieldKey {
		var dup int64
		s.db.Model(&models.FormField{}).
			Where("form_id = ? AND field_key = ? AND id != ? AND status = ?", field.FormID, key, fieldID, models.StatusActive).
			Count(&dup)
		if dup > 0 {
			return nil, apperr.BadRequest("duplicate field key %q", key)
		}
	}

	field.FieldKey = key
	field.Label = strings.TrimSpace(input.Label)
	field.FieldTypeID = input.FieldTypeID
	field.InputFormatID = input.InputFormatID
	field.IsRequired = input.IsRequired
	field.SortOrder = input.SortOrder
	field.Placeholder = input.Placeholder
	field.DefaultValue = input.DefaultValue
	field.ValidationRegex = input.ValidationRegex
	field.MinLength = input.MinLength
	field.MaxLength = input.MaxLength
	field.MinValue = input.MinValue
	field.MaxValue = input.MaxValue
	field.AttrsJSON = attrsString(input.Attrs)
	field.MetaTable = input.MetaTable
	field.UpdatedBy = userID

	if err := s.db.Save(&field).Error; err != nil {
		return nil, err
	}

	s.db.Preload("FieldType").Preload("InputFormat").Preload("Options").First(&field, field.ID)
	return &field, nil
}

func (s *FormService) DeleteField(fieldID, userID uint) error {
	result := s.db.Model(&models.FormField{}).
		Where("id = ? AND status = ?", fieldID, models.StatusActive).
		Updates(map[string]interface{}{"status": models.StatusInactive, "updated_by": userID})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("form field not found")
	}
	return nil
}

func (s *FormService) CreateOption(fieldID, userID uint, input OptionInput) (*models.FormFieldOption, error) {
	var field models.FormField
	if err := s.db.Where("id = ? AND status = ?", fieldID, models.StatusActive).First(&field).Error; err != nil {
		return nil, apperr.NotFound("form field not found")
	}
	if err := validateOptionInput(input); err != nil {
		return nil, err
	}

	opt := optionFromInput(fieldID, userID, input)
	if err := s.db.Create(&opt).Error; err != nil {
		return nil, err
	}
	return &opt, nil
}

func (s *FormService) UpdateOption(optionID, userID uint, input OptionInput) (*models.FormFieldOption, error) {
	var opt models.FormFieldOption
	if err := s.db.Where("id = ? AND status = ?", optionID, models.StatusActive).First(&opt).Error; err != nil {
		return nil, apperr.NotFound("option not found")
	}
	if err := validateOptionInput(input); err != nil {
		return nil, err
	}

	opt.OptionLabel = input.OptionLabel
	opt.OptionValue = input.OptionValue
	opt.SortOrder = input.SortOrder
	opt.IsDefault = input.IsDefault
	opt.UpdatedBy = userID

	if err := s.db.Save(&opt).Error; err != nil {
		return nil, err
	}
	return &opt, nil
}

func (s *FormService) DeleteOption(optionID, userID uint) error {
	result := s.db.Model(&models.FormFieldOption{}).
		Where("id = ? AND status = ?", optionID, models.StatusActive).
		Updates(map[string]interface{}{"status": models.StatusInactive, "updated_by": userID})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("option not found")
	}
	return nil
}

func (s *FormService) validateFieldInput(input FieldInput) error {
	if strings.TrimSpace(input.FieldKey) == "" {
		return apperr.BadRequest("field_key is required")
	}
	if strings.TrimSpace(input.Label) == "" {
		return apperr.BadRequest("label is required")
	}

	var typeCount int64
	s.db.Model(&models.FieldType{}).
		Where("id = ? AND status = ?", input.FieldTypeID, models.StatusActive).
		Count(&typeCount)
	if typeCount == 0 {
		return apperr.BadRequest("field type %d does not exist", input.FieldTypeID)
	}

	if input.InputFormatID != nil {
		var formatCount int64
		s.db.Model(&models.InputFormat{}).
			Where("id = ? AND status = ?", *input.InputFormatID, models.StatusActive).
			Count(&formatCount)
		if formatCount == 0 {
			return apperr.BadRequest("input format %d does not exist", *input.InputFormatID)
		}
	}

	minVal, err := parseBound(input.MinValue, "min_value")
	if err != nil {
		return err
	}
	maxVal, err := parseBound(input.MaxValue, "max_value")
	if err != nil {
		return err
	}
	if minVal != nil && maxVal != nil && *minVal > *maxVal {
		return apperr.BadRequest("min_value must not exceed max_value")
	}
	if input.MinLength != nil && input.MaxLength != nil && *input.MinLength > *input.MaxLength {
		return apperr.BadRequest("min_length must not exceed max_length")
	}

	if err := validateAttrs(input.Attrs); err != nil {
		return err
	}

	for _, o := range input.Options {
		if err := validateOptionInput(o); err != nil {
			return err
		}
	}
	return nil
}

func validateOptionInput(input OptionInput) error {
	if strings.TrimSpace(input.OptionLabel) == "" {
		return apperr.BadRequest("option_label is required")
	}
	if strings.TrimSpace(input.OptionValue) == "" {
		return apperr.BadRequest("option_value is required")
	}
	return nil
}

// validateAttrs accepts null/empty or a JSON object. Arrays and scalars are
// rejected so the extension bag always stays keyed.
func validateAttrs(raw json.RawMessage) error {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil
	}
	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return apperr.BadRequest("attrs must be a JSON object")
	}
	return nil
}

func parseBound(raw *string, name string) (*float64, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(*raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, apperr.BadRequest("%s must be a finite number", name)
	}
	return &v, nil
}

// attrsString stores a JSON null the same as an absent bag.
func attrsString(raw json.RawMessage) string {
	attrs := strings.TrimSpace(string(raw))
	if attrs == "null" {
		return ""
	}
	return attrs
}

func fieldFromInput(formID, userID uint, input FieldInput) models.FormField {
	return models.FormField{
		FormID:          formID,
		FieldKey:        strings.TrimSpace(input.FieldKey),
		Label:           strings.TrimSpace(input.Label),
		FieldTypeID:     input.FieldTypeID,
		InputFormatID:   input.InputFormatID,
		IsRequired:      input.IsRequired,
		SortOrder:       input.SortOrder,
		Placeholder:     input.Placeholder,
		DefaultValue:    input.DefaultValue,
		ValidationRegex: input.ValidationRegex,
		MinLength:       input.MinLength,
		MaxLength:       input.MaxLength,
		MinValue:        input.MinValue,
		MaxValue:        input.MaxValue,
		AttrsJSON:       attrsString(input.Attrs),
		MetaTable:       input.MetaTable,
		Status:          models.StatusActive,
		Audit:           models.Audit{CreatedBy: userID, UpdatedBy: userID},
	}
}

func optionFromInput(fieldID, userID uint, input OptionInput) models.FormFieldOption {
	return models.FormFieldOption{
		FormFieldID: fieldID,
		OptionLabel: input.OptionLabel,
		OptionValue: input.OptionValue,
		SortOrder:   input.SortOrder,
		IsDefault:   input.IsDefault,
		Status:      models.StatusActive,
		Audit:       models.Audit{CreatedBy: userID, UpdatedBy: userID},
	}
}
