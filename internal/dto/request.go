package dto

import "encoding/json"

type CreateBookingRequest struct {
	FacilityName      string      `json:"facilityName"`
	FacilityType      string      `json:"facilityType"`
	Date              string      `json:"date"` // YYYY-MM-DD
	TimeSlots         []string    `json:"timeSlots"`
	AdditionalPlayers int         `json:"additionalPlayers"`
	BasePrice         json.Number `json:"basePrice"`
	DiscountCode      string      `json:"discountCode"`
}

type VerifyPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpayOrderId"`
	RazorpayPaymentID string `json:"razorpayPaymentId"`
	RazorpaySignature string `json:"razorpaySignature"`
}

type ValidateDiscountRequest struct {
	Code              string      `json:"code"`
	FacilityType      string      `json:"facilityType"`
	TimeSlots         []string    `json:"timeSlots"`
	AdditionalPlayers int         `json:"additionalPlayers"`
	BasePrice         json.Number `json:"basePrice"`
}

type RedeemDiscountRequest struct {
	Code string `json:"code"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Mobile   string `json:"mobile"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CreateDiscountCodeRequest struct {
	Code           string `json:"code"`
	DiscountType   string `json:"discountType"`
	DiscountValue  int    `json:"discountValue"`
	MaxUses        int    `json:"maxUses"`
	MinOrderAmount int    `json:"minOrderAmount"`
	ExpiresAt      string `json:"expiresAt"` // RFC 3339
	Description    string `json:"description"`
}

type SetDiscountActiveRequest struct {
	Active bool `json:"active"`
}

type UpdateBookingStatusRequest struct {
	Status string `json:"status"`
}
