package models

import "time"

type FacilityType string

const (
	FacilityTurf  FacilityType = "turf"
	FacilityPool  FacilityType = "pool"
	FacilityCombo FacilityType = "combo"
)

// Facility display names as exposed to clients.
const (
	FacilityNameTurf  = "Turf"
	FacilityNamePool  = "Swimming Pool"
	FacilityNameCombo = "Turf + Swimming Pool"
)

type BookingStatus string

const (
	StatusPending   BookingStatus = "Pending"
	StatusConfirmed BookingStatus = "Confirmed"
	StatusCancelled BookingStatus = "Cancelled"
	StatusCompleted BookingStatus = "Completed"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "Pending"
	PaymentPaid     PaymentStatus = "Paid"
	PaymentFailed   PaymentStatus = "Failed"
	PaymentRefunded PaymentStatus = "Refunded"
)

type Booking struct {
	ID                    uint          `gorm:"primaryKey" json:"id"`
	UserID                uint          `gorm:"not null;index" json:"userId"`
	FacilityName          string        `gorm:"type:varchar(40);not null;index:idx_bookings_facility_date" json:"facilityName"`
	FacilityType          FacilityType  `gorm:"type:varchar(10);not null" json:"facilityType"`
	Date                  time.Time     `gorm:"type:date;not null;index:idx_bookings_facility_date" json:"date"`
	TimeSlots             []string      `gorm:"serializer:json;type:jsonb;not null" json:"timeSlots"`
	AdditionalPlayers     int           `gorm:"not null;default:0" json:"additionalPlayers"`
	BasePrice             int           `gorm:"not null" json:"basePrice"`
	AdditionalPlayersCost int           `gorm:"not null;default:0" json:"additionalPlayersCost"`
	DiscountCode          string        `gorm:"type:varchar(40)" json:"discountCode,omitempty"`
	DiscountAmount        int           `gorm:"not null;default:0" json:"discountAmount"`
	TotalPrice            int           `gorm:"not null" json:"totalPrice"`
	Status                BookingStatus `gorm:"type:varchar(20);not null;default:'Confirmed'" json:"status"`
	PaymentStatus         PaymentStatus `gorm:"type:varchar(20);not null;default:'Pending'" json:"paymentStatus"`
	CreatedAt             time.Time     `json:"createdAt"`
	UpdatedAt             time.Time     `json:"updatedAt"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// BookingSlot is one claimed slot of a booking, denormalized so the database
// can enforce exclusivity: a partial unique index on (facility_name, date, slot)
// WHERE active AND facility_type <> 'pool' rejects the second writer for
// exclusive facilities. Cancellation flips Active off instead of deleting rows.
type BookingSlot struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	BookingID    uint         `gorm:"not null;index" json:"bookingId"`
	FacilityName string       `gorm:"type:varchar(40);not null" json:"facilityName"`
	FacilityType FacilityType `gorm:"type:varchar(10);not null" json:"facilityType"`
	Date         time.Time    `gorm:"type:date;not null" json:"date"`
	Slot         string       `gorm:"type:varchar(20);not null" json:"slot"`
	Active       bool         `gorm:"not null;default:true" json:"active"`
}

// FacilityDay exists to be locked: every admission for the same facility and
// day takes this row FOR UPDATE, serializing the read-then-write availability
// decision.
type FacilityDay struct {
	ID           uint      `gorm:"primaryKey"`
	FacilityName string    `gorm:"type:varchar(40);not null;uniqueIndex:idx_facility_day"`
	Date         time.Time `gorm:"type:date;not null;uniqueIndex:idx_facility_day"`
}

// FacilityTypeFor maps a facility display name to its type.
func FacilityTypeFor(facilityName string) (FacilityType, bool) {
	switch facilityName {
	case FacilityNameTurf:
		return FacilityTurf, true
	case FacilityNamePool:
		return FacilityPool, true
	case FacilityNameCombo:
		return FacilityCombo, true
	}
	return "", false
}
