package storage

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/KachiAlex/innsight-sub005/models"
)

// Connect opens the database and runs migrations. The handle is returned to
// the caller and injected into the services; there is no package-level DB.
func Connect(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("storage: DB_CONNECTION_STRING is required")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("storage: connect: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates/updates the schema. Parent tables first.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Tenant{},
		&models.RatePlan{},
		&models.Room{},
		&models.GroupBooking{},
		&models.Reservation{},
		&models.Folio{},
		&models.FolioCharge{},
		&models.Payment{},
		&models.TenantPaymentSettings{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("storage: migrate: %w", err)
	}
	return nil
}
