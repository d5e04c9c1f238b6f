package models

// WildcardID marks a ward or booth dimension of an accessibility rule as
// matching any value. Roles never wildcard.
const WildcardID int64 = -1

type FormEvent struct {
	ID              uint                     `gorm:"primaryKey" json:"id"`
	FormID          uint                     `gorm:"not null;index" json:"form_id"`
	Form            Form                     `gorm:"foreignKey:FormID" json:"form,omitempty"`
	Title           string                   `gorm:"size:255;not null" json:"title"`
	Description     string                   `gorm:"type:text;not null" json:"description"`
	StartDate       string                   `gorm:"size:10;not null" json:"start_date"`
	EndDate         *string                  `gorm:"size:10" json:"end_date,omitempty"`
	Accessibilities []FormEventAccessibility `gorm:"foreignKey:FormEventID" json:"accessibilities,omitempty"`
	Status          int16                    `gorm:"not null;default:1" json:"status"`
	Audit
}

type FormEventAccessibility struct {
	ID            uint  `gorm:"primaryKey" json:"id"`
	FormEventID   uint  `gorm:"not null;index" json:"form_event_id"`
	WardNumberID  int64 `gorm:"not null" json:"ward_number_id"`
	BoothNumberID int64 `gorm:"not null" json:"booth_number_id"`
	UserRoleID    uint  `gorm:"not null" json:"user_role_id"`
	Status        int16 `gorm:"not null;default:1" json:"status"`
	Audit
}
