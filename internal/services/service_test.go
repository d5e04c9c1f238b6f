package services

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"civicform-backend/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq int64

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:svc%d?mode=memory&cache=shared", atomic.AddInt64(&dbSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.Ward{},
		&models.Booth{},
		&models.FieldType{},
		&models.InputFormat{},
		&models.Form{},
		&models.FormField{},
		&models.FormFieldOption{},
		&models.FormEvent{},
		&models.FormEventAccessibility{},
		&models.FormSubmission{},
		&models.FormFieldValue{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedLookups(t *testing.T, db *gorm.DB) {
	t.Helper()

	rows := []interface{}{
		&models.Ward{ID: 1, Name: "Ward 1", Status: models.StatusActive},
		&models.Ward{ID: 2, Name: "Ward 2", Status: models.StatusActive},
		&models.Booth{ID: 1, Name: "Booth 1", Status: models.StatusActive},
		&models.Booth{ID: 2, Name: "Booth 2", Status: models.StatusActive},
		&models.Role{ID: 1, Name: "Coordinator", Status: models.StatusActive},
		&models.Role{ID: 2, Name: "Volunteer", ParentID: uintPtr(1), Status: models.StatusActive},
	}
	for _, row := range rows {
		if err := db.Create(row).Error; err != nil {
			t.Fatalf("seed lookup: %v", err)
		}
	}

	types := []string{
		models.FieldTypeText, models.FieldTypeTextarea, models.FieldTypeNumber,
		models.FieldTypeDate, models.FieldTypeTime, models.FieldTypeDatetime,
		models.FieldTypeDropdown, models.FieldTypeCheckbox, models.FieldTypeRadio,
		models.FieldTypeFile,
	}
	for i, name := range types {
		ft := models.FieldType{ID: uint(i + 1), Name: name, Status: models.StatusActive}
		if err := db.Create(&ft).Error; err != nil {
			t.Fatalf("seed field type %s: %v", name, err)
		}
	}
	formats := []string{"plain", "email", "phone", "date", "time", "datetime"}
	for i, name := range formats {
		f := models.InputFormat{ID: uint(i + 1), Name: name, Status: models.StatusActive}
		if err := db.Create(&f).Error; err != nil {
			t.Fatalf("seed input format %s: %v", name, err)
		}
	}
}

func fieldTypeID(t *testing.T, db *gorm.DB, name string) uint {
	t.Helper()
	var ft models.FieldType
	if err := db.Where("name = ?", name).First(&ft).Error; err != nil {
		t.Fatalf("field type %s: %v", name, err)
	}
	return ft.ID
}

func seedUser(t *testing.T, db *gorm.DB, phone string, wardID, boothID uint, roleIDs ...uint) models.User {
	t.Helper()

	user := models.User{
		Phone:         phone,
		FullName:      "User " + phone,
		PasswordHash:  "x",
		WardNumberID:  &wardID,
		BoothNumberID: &boothID,
		Status:        models.StatusActive,
	}
	for _, id := range roleIDs {
		var role models.Role
		if err := db.First(&role, id).Error; err != nil {
			t.Fatalf("role %d: %v", id, err)
		}
		user.Roles = append(user.Roles, role)
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func profileOf(user models.User) UserProfile {
	profile := UserProfile{
		ID:            user.ID,
		WardNumberID:  user.WardNumberID,
		BoothNumberID: user.BoothNumberID,
	}
	for _, role := range user.Roles {
		profile.RoleIDs = append(profile.RoleIDs, role.ID)
	}
	return profile
}

func seedForm(t *testing.T, db *gorm.DB, fields ...models.FormField) models.Form {
	t.Helper()

	form := models.Form{Title: "Voter Survey", Status: models.StatusActive}
	if err := db.Create(&form).Error; err != nil {
		t.Fatalf("seed form: %v", err)
	}
	for i := range fields {
		fields[i].FormID = form.ID
		fields[i].Status = models.StatusActive
		if err := db.Create(&fields[i]).Error; err != nil {
			t.Fatalf("seed field %s: %v", fields[i].FieldKey, err)
		}
	}
	form.Fields = fields
	return form
}

func seedEvent(t *testing.T, db *gorm.DB, formID uint, start string, end *string, rules ...models.FormEventAccessibility) models.FormEvent {
	t.Helper()

	event := models.FormEvent{
		FormID:      formID,
		Title:       "Door-to-door drive",
		Description: "Collect responses",
		StartDate:   start,
		EndDate:     end,
		Status:      models.StatusActive,
	}
	if err := db.Create(&event).Error; err != nil {
		t.Fatalf("seed event: %v", err)
	}
	for i := range rules {
		rules[i].FormEventID = event.ID
		if rules[i].Status == 0 {
			rules[i].Status = models.StatusActive
		}
		if err := db.Create(&rules[i]).Error; err != nil {
			t.Fatalf("seed accessibility rule: %v", err)
		}
	}
	return event
}

func daysFromNow(n int) string {
	return time.Now().AddDate(0, 0, n).Format(dateLayout)
}

func uintPtr(v uint) *uint    { return &v }
func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
func int64Ptr(v int64) *int64 { return &v }
