package models

import "time"

// Submission lifecycle states.
const (
	SubmissionStatusSubmitted int16 = 1
	SubmissionStatusReviewed  int16 = 2
	SubmissionStatusRejected  int16 = 3
	SubmissionStatusDeleted   int16 = 0
)

type FormSubmission struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	FormEventID uint             `gorm:"not null;index" json:"form_event_id"`
	FormEvent   FormEvent        `gorm:"foreignKey:FormEventID" json:"form_event,omitempty"`
	UserID      uint             `gorm:"not null;index" json:"user_id"`
	User        User             `gorm:"foreignKey:UserID" json:"user,omitempty"`
	SubmittedAt time.Time        `gorm:"not null;index" json:"submitted_at"`
	IPAddress   string           `gorm:"size:45" json:"ip_address,omitempty"`
	UserAgent   string           `gorm:"size:500" json:"user_agent,omitempty"`
	Values      []FormFieldValue `gorm:"foreignKey:FormSubmissionID" json:"values,omitempty"`
	Status      int16            `gorm:"not null;default:1" json:"status"`
	Audit
}

// FormFieldValue keeps a denormalized copy of the field key so stored answers
// survive a later field rename.
type FormFieldValue struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	FormSubmissionID uint      `gorm:"not null;index" json:"form_submission_id"`
	FormFieldID      uint      `gorm:"not null;index" json:"form_field_id"`
	FieldKey         string    `gorm:"size:100;not null;index" json:"field_key"`
	Value            string    `gorm:"type:text" json:"value"`
	CreatedAt        time.Time `json:"created_at"`
}
