package models

// Ward and Booth are the geographic lookup tables that accessibility rules
// and meta-bound form fields reference.
type Ward struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Name   string `gorm:"size:150;not null" json:"name"`
	Status int16  `gorm:"not null;default:1" json:"status"`
	Audit
}

type Booth struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	WardID *uint  `gorm:"index" json:"ward_id,omitempty"`
	Name   string `gorm:"size:150;not null" json:"name"`
	Status int16  `gorm:"not null;default:1" json:"status"`
	Audit
}

// FieldType is the registry of primitive field types a FormField can take.
type FieldType struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Name   string `gorm:"size:50;uniqueIndex;not null" json:"name"`
	Status int16  `gorm:"not null;default:1" json:"status"`
}

// InputFormat is a rendering-format lookup; date/time formats double as the
// detection signal for report-time value reformatting.
type InputFormat struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Name   string `gorm:"size:50;uniqueIndex;not null" json:"name"`
	Status int16  `gorm:"not null;default:1" json:"status"`
}

// Seeded field type names.
const (
	FieldTypeText     = "text"
	FieldTypeTextarea = "textarea"
	FieldTypeNumber   = "number"
	FieldTypeDate     = "date"
	FieldTypeTime     = "time"
	FieldTypeDatetime = "datetime"
	FieldTypeDropdown = "dropdown"
	FieldTypeCheckbox = "checkbox"
	FieldTypeRadio    = "radio"
	FieldTypeFile     = "file"
)
