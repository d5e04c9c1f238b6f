package models

import "time"

// Status values shared by every soft-deletable entity.
const (
	StatusActive   int16 = 1
	StatusInactive int16 = 0
)

// Audit carries the bookkeeping columns every mutable table gets.
type Audit struct {
	CreatedBy uint      `gorm:"not null;default:0" json:"created_by"`
	UpdatedBy uint      `gorm:"not null;default:0" json:"updated_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
