package dto

import (
	"time"

	"github.com/tulsiarena/booking-service/internal/models"
	"github.com/tulsiarena/booking-service/internal/service"
)

type BookingResponse struct {
	ID                    uint                 `json:"id"`
	UserID                uint                 `json:"userId"`
	FacilityName          string               `json:"facilityName"`
	FacilityType          models.FacilityType  `json:"facilityType"`
	Date                  string               `json:"date"`
	TimeSlots             []string             `json:"timeSlots"`
	AdditionalPlayers     int                  `json:"additionalPlayers"`
	BasePrice             int                  `json:"basePrice"`
	AdditionalPlayersCost int                  `json:"additionalPlayersCost"`
	DiscountCode          string               `json:"discountCode,omitempty"`
	DiscountAmount        int                  `json:"discountAmount"`
	TotalPrice            int                  `json:"totalPrice"`
	Status                models.BookingStatus `json:"status"`
	PaymentStatus         models.PaymentStatus `json:"paymentStatus"`
	CreatedAt             time.Time            `json:"createdAt"`
}

// DaySlotResponse is the capacity-planning read: just enough for a client to
// grey out taken slots.
type DaySlotResponse struct {
	TimeSlots         []string            `json:"timeSlots"`
	FacilityType      models.FacilityType `json:"facilityType"`
	AdditionalPlayers int                 `json:"additionalPlayers"`
}

type OrderResponse struct {
	OrderID  string `json:"orderId"`
	Amount   int    `json:"amount"` // paise
	Currency string `json:"currency"`
}

type DiscountPreviewResponse struct {
	Valid          bool   `json:"valid"`
	Reason         string `json:"reason,omitempty"`
	Code           string `json:"code,omitempty"`
	DiscountAmount int    `json:"discountAmount"`
	FinalAmount    int    `json:"finalAmount"`
}

type UserResponse struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Mobile string `json:"mobile"`
	Role   string `json:"role"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type DiscountCodeResponse struct {
	Code           string    `json:"code"`
	DiscountType   string    `json:"discountType"`
	DiscountValue  int       `json:"discountValue"`
	MaxUses        int       `json:"maxUses"`
	UsedCount      int       `json:"usedCount"`
	MinOrderAmount int       `json:"minOrderAmount"`
	ExpiresAt      time.Time `json:"expiresAt"`
	IsActive       bool      `json:"isActive"`
	Description    string    `json:"description,omitempty"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}

func ToBookingResponse(b *models.Booking) BookingResponse {
	return BookingResponse{
		ID:                    b.ID,
		UserID:                b.UserID,
		FacilityName:          b.FacilityName,
		FacilityType:          b.FacilityType,
		Date:                  b.Date.Format("2006-01-02"),
		TimeSlots:             b.TimeSlots,
		AdditionalPlayers:     b.AdditionalPlayers,
		BasePrice:             b.BasePrice,
		AdditionalPlayersCost: b.AdditionalPlayersCost,
		DiscountCode:          b.DiscountCode,
		DiscountAmount:        b.DiscountAmount,
		TotalPrice:            b.TotalPrice,
		Status:                b.Status,
		PaymentStatus:         b.PaymentStatus,
		CreatedAt:             b.CreatedAt,
	}
}

func ToDaySlotResponse(b *models.Booking) DaySlotResponse {
	return DaySlotResponse{
		TimeSlots:         b.TimeSlots,
		FacilityType:      b.FacilityType,
		AdditionalPlayers: b.AdditionalPlayers,
	}
}

func ToUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Mobile: u.Mobile,
		Role:   u.Role,
	}
}

func ToOrderResponse(o *service.PaymentOrder) OrderResponse {
	return OrderResponse{OrderID: o.OrderID, Amount: o.Amount, Currency: o.Currency}
}

func ToDiscountCodeResponse(dc *models.DiscountCode) DiscountCodeResponse {
	return DiscountCodeResponse{
		Code:           dc.Code,
		DiscountType:   string(dc.DiscountType),
		DiscountValue:  dc.DiscountValue,
		MaxUses:        dc.MaxUses,
		UsedCount:      dc.UsedCount,
		MinOrderAmount: dc.MinOrderAmount,
		ExpiresAt:      dc.ExpiresAt,
		IsActive:       dc.IsActive,
		Description:    dc.Description,
	}
}
