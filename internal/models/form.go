package models

import "time"

type Form struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Title       string      `gorm:"size:255;not null" json:"title"`
	Description string      `gorm:"type:text" json:"description,omitempty"`
	Slug        string      `gorm:"size:255;index" json:"slug,omitempty"`
	IsPublic    bool        `gorm:"not null;default:false" json:"is_public"`
	StartAt     *time.Time  `json:"start_at,omitempty"`
	EndAt       *time.Time  `json:"end_at,omitempty"`
	Fields      []FormField `gorm:"foreignKey:FormID" json:"fields,omitempty"`
	Status      int16       `gorm:"not null;default:1" json:"status"`
	Audit
}

// FormField keys are unique among a form's active fields; the service layer
// enforces this, leaving soft-deleted keys free for reuse.
type FormField struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	FormID          uint              `gorm:"not null;index:idx_form_field_key" json:"form_id"`
	FieldKey        string            `gorm:"size:100;not null;index:idx_form_field_key" json:"field_key"`
	Label           string            `gorm:"size:255;not null" json:"label"`
	FieldTypeID     uint              `gorm:"not null" json:"field_type_id"`
	FieldType       FieldType         `gorm:"foreignKey:FieldTypeID" json:"field_type,omitempty"`
	InputFormatID   *uint             `json:"input_format_id,omitempty"`
	InputFormat     *InputFormat      `gorm:"foreignKey:InputFormatID" json:"input_format,omitempty"`
	IsRequired      bool              `gorm:"not null;default:false" json:"is_required"`
	SortOrder       int               `gorm:"not null;default:0" json:"sort_order"`
	Placeholder     string            `gorm:"size:255" json:"placeholder,omitempty"`
	DefaultValue    string            `gorm:"size:500" json:"default_value,omitempty"`
	ValidationRegex string            `gorm:"size:500" json:"validation_regex,omitempty"`
	MinLength       *int              `json:"min_length,omitempty"`
	MaxLength       *int              `json:"max_length,omitempty"`
	MinValue        *string           `gorm:"size:50" json:"min_value,omitempty"`
	MaxValue        *string           `gorm:"size:50" json:"max_value,omitempty"`
	AttrsJSON       string            `gorm:"type:text;column:attrs_json" json:"attrs_json,omitempty"`
	MetaTable       string            `gorm:"size:100" json:"meta_table,omitempty"`
	Options         []FormFieldOption `gorm:"foreignKey:FormFieldID" json:"options,omitempty"`
	Status          int16             `gorm:"not null;default:1" json:"status"`
	Audit
}

type FormFieldOption struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	FormFieldID uint   `gorm:"not null;index" json:"form_field_id"`
	OptionLabel string `gorm:"size:255;not null" json:"option_label"`
	OptionValue string `gorm:"size:255;not null" json:"option_value"`
	SortOrder   int    `gorm:"not null;default:0" json:"sort_order"`
	IsDefault   bool   `gorm:"not null;default:false" json:"is_default"`
	Status      int16  `gorm:"not null;default:1" json:"status"`
	Audit
}

// Reserved field keys whose values always resolve against the geographic
// lookups, even when the field carries no explicit meta_table.
const (
	FieldKeyWardNumber  = "ward_number"
	FieldKeyBoothNumber = "booth_number"
)
