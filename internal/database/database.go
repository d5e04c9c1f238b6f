package database

import (
	"fmt"

	"civicform-backend/internal/config"
	"civicform-backend/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(cfg *config.Config, logger *zap.Logger) *gorm.DB {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	logger.Info("database connected", zap.String("host", cfg.DBHost), zap.String("db", cfg.DBName))
	return db
}

func AutoMigrate(db *gorm.DB, logger *zap.Logger) {
	err := db.AutoMigrate(
		&models.Role{},
		&models.User{},
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
		logger.Fatal("failed to auto-migrate", zap.Error(err))
	}
	logger.Info("database migrated")
}

// SeedLookups inserts the field-type and input-format registries the form
// engine validates against. FirstOrCreate keeps reruns idempotent.
func SeedLookups(db *gorm.DB, logger *zap.Logger) {
	fieldTypes := []string{
		models.FieldTypeText, models.FieldTypeTextarea, models.FieldTypeNumber,
		models.FieldTypeDate, models.FieldTypeTime, models.FieldTypeDatetime,
		models.FieldTypeDropdown, models.FieldTypeCheckbox, models.FieldTypeRadio,
		models.FieldTypeFile,
	}
	for _, name := range fieldTypes {
		if err := db.Where(models.FieldType{Name: name}).
			FirstOrCreate(&models.FieldType{Name: name, Status: models.StatusActive}).Error; err != nil {
			logger.Fatal("failed to seed field types", zap.Error(err))
		}
	}

	inputFormats := []string{"plain", "email", "phone", "date", "time", "datetime"}
	for _, name := range inputFormats {
		if err := db.Where(models.InputFormat{Name: name}).
			FirstOrCreate(&models.InputFormat{Name: name, Status: models.StatusActive}).Error; err != nil {
			logger.Fatal("failed to seed input formats", zap.Error(err))
		}
	}
	logger.Info("lookup tables seeded")
}
