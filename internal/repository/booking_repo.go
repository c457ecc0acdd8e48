package repository

import (
	"context"
	"time"

	"github.com/tulsiarena/booking-service/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BookingRepository interface {
	Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error
	CreateSlots(ctx context.Context, tx *gorm.DB, slots []models.BookingSlot) error
	FindByID(ctx context.Context, id uint) (*models.Booking, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Booking, error)
	FindByUser(ctx context.Context, userID uint) ([]models.Booking, error)
	FindByDate(ctx context.Context, date time.Time) ([]models.Booking, error)
	FindAll(ctx context.Context) ([]models.Booking, error)
	FindByFacility(ctx context.Context, facilityName string) ([]models.Booking, error)
	LockFacilityDay(ctx context.Context, tx *gorm.DB, facilityName string, date time.Time) error
	ActiveSlots(ctx context.Context, tx *gorm.DB, facilityName string, date time.Time) ([]string, error)
	PoolHeadCount(ctx context.Context, tx *gorm.DB, date time.Time, slot string) (int, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, bookingID uint, status models.BookingStatus) error
	DeactivateSlots(ctx context.Context, tx *gorm.DB, bookingID uint) error
	GetDB() *gorm.DB
}

type bookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *bookingRepository) Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error {
	return tx.WithContext(ctx).Create(booking).Error
}

func (r *bookingRepository) CreateSlots(ctx context.Context, tx *gorm.DB, slots []models.BookingSlot) error {
	return tx.WithContext(ctx).Create(&slots).Error
}

func (r *bookingRepository) FindByID(ctx context.Context, id uint) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).First(&booking, id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Booking, error) {
	var booking models.Booking
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&booking, id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindByUser(ctx context.Context, userID uint) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&bookings).Error
	return bookings, err
}

func (r *bookingRepository) FindByDate(ctx context.Context, date time.Time) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Where("date = ? AND status <> ?", date, models.StatusCancelled).
		Order("id ASC").
		Find(&bookings).Error
	return bookings, err
}

func (r *bookingRepository) FindAll(ctx context.Context) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Preload("User").
		Order("created_at DESC").
		Find(&bookings).Error
	return bookings, err
}

func (r *bookingRepository) FindByFacility(ctx context.Context, facilityName string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("facility_name = ?", facilityName).
		Order("date DESC").
		Find(&bookings).Error
	return bookings, err
}

// LockFacilityDay takes the per-(facility, day) row FOR UPDATE, creating it
// first if this is the day's first booking. All concurrent admissions for the
// same facility and day serialize here.
func (r *bookingRepository) LockFacilityDay(ctx context.Context, tx *gorm.DB, facilityName string, date time.Time) error {
	day := models.FacilityDay{FacilityName: facilityName, Date: date}
	if err := tx.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&day).Error; err != nil {
		return err
	}

	return tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("facility_name = ? AND date = ?", facilityName, date).
		First(&models.FacilityDay{}).Error
}

// ActiveSlots returns the flattened set of slots currently held for a
// facility on a date (non-cancelled bookings only).
func (r *bookingRepository) ActiveSlots(ctx context.Context, tx *gorm.DB, facilityName string, date time.Time) ([]string, error) {
	var slots []string
	err := tx.WithContext(ctx).
		Model(&models.BookingSlot{}).
		Where("facility_name = ? AND date = ? AND active", facilityName, date).
		Pluck("slot", &slots).Error
	return slots, err
}

// PoolHeadCount sums party sizes of non-cancelled pool bookings sharing a
// (date, slot).
func (r *bookingRepository) PoolHeadCount(ctx context.Context, tx *gorm.DB, date time.Time, slot string) (int, error) {
	var count int
	err := tx.WithContext(ctx).
		Model(&models.BookingSlot{}).
		Select("COALESCE(SUM(bookings.additional_players), 0)").
		Joins("JOIN bookings ON bookings.id = booking_slots.booking_id").
		Where("booking_slots.date = ? AND booking_slots.slot = ? AND booking_slots.active AND booking_slots.facility_type = ?",
			date, slot, models.FacilityPool).
		Scan(&count).Error
	return count, err
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, bookingID uint, status models.BookingStatus) error {
	return tx.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", bookingID).
		Update("status", status).Error
}

func (r *bookingRepository) DeactivateSlots(ctx context.Context, tx *gorm.DB, bookingID uint) error {
	return tx.WithContext(ctx).
		Model(&models.BookingSlot{}).
		Where("booking_id = ?", bookingID).
		Update("active", false).Error
}
