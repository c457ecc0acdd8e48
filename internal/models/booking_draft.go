package models

import "time"

type DraftStatus string

const (
	DraftPending   DraftStatus = "Pending"
	DraftCompleted DraftStatus = "Completed"
	DraftExpired   DraftStatus = "Expired"
)

// BookingDraft holds a priced reservation while payment is in flight.
// The unique razorpay_order_id plus the Pending->Completed transition
// guarantee at most one Booking per gateway order, even when the
// verification callback is replayed.
type BookingDraft struct {
	ID                    uint         `gorm:"primaryKey" json:"id"`
	UserID                uint         `gorm:"not null;index" json:"userId"`
	FacilityName          string       `gorm:"type:varchar(40);not null" json:"facilityName"`
	FacilityType          FacilityType `gorm:"type:varchar(10);not null" json:"facilityType"`
	Date                  time.Time    `gorm:"type:date;not null" json:"date"`
	TimeSlots             []string     `gorm:"serializer:json;type:jsonb;not null" json:"timeSlots"`
	AdditionalPlayers     int          `gorm:"not null;default:0" json:"additionalPlayers"`
	BasePrice             int          `gorm:"not null" json:"basePrice"`
	AdditionalPlayersCost int          `gorm:"not null;default:0" json:"additionalPlayersCost"`
	DiscountCode          string       `gorm:"type:varchar(40)" json:"discountCode,omitempty"`
	DiscountAmount        int          `gorm:"not null;default:0" json:"discountAmount"`
	TotalPrice            int          `gorm:"not null" json:"totalPrice"`
	RazorpayOrderID       string       `gorm:"type:varchar(64);not null;uniqueIndex" json:"razorpayOrderId"`
	Status                DraftStatus  `gorm:"type:varchar(20);not null;default:'Pending'" json:"status"`
	CreatedAt             time.Time    `json:"createdAt"`
	UpdatedAt             time.Time    `json:"updatedAt"`
}
