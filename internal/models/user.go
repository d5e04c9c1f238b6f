package models

type User struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	Phone         string `gorm:"size:20;uniqueIndex;not null" json:"phone"`
	FullName      string `gorm:"size:150;not null" json:"full_name"`
	PasswordHash  string `gorm:"size:255;not null" json:"-"`
	WardNumberID  *uint  `gorm:"index" json:"ward_number_id,omitempty"`
	BoothNumberID *uint  `gorm:"index" json:"booth_number_id,omitempty"`
	Roles         []Role `gorm:"many2many:user_roles" json:"roles,omitempty"`
	Status        int16  `gorm:"not null;default:1" json:"status"`
	Audit
}

type Role struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"size:100;uniqueIndex;not null" json:"name"`
	ParentID *uint  `gorm:"index" json:"parent_id,omitempty"`
	Status   int16  `gorm:"not null;default:1" json:"status"`
	Audit
}
