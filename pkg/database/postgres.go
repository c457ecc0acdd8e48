package database

import (
	"log"

	"github.com/tulsiarena/booking-service/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewPostgresDB(dsn string) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Booking{},
		&models.BookingSlot{},
		&models.FacilityDay{},
		&models.BookingDraft{},
		&models.DiscountCode{},
		&models.DiscountRedemption{},
	); err != nil {
		log.Fatalf("failed to auto-migrate: %v", err)
	}

	// Partial unique index: the database-level double-booking guard for
	// exclusive facilities. Pool slots are shared and excluded here.
	db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_slot_exclusive
		ON booking_slots (facility_name, date, slot)
		WHERE active AND facility_type <> 'pool'
	`)

	return db
}
