package models

import "time"

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFlat       DiscountType = "flat"
)

type DiscountCode struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	Code           string       `gorm:"type:varchar(40);not null;uniqueIndex" json:"code"`
	DiscountType   DiscountType `gorm:"type:varchar(12);not null" json:"discountType"`
	DiscountValue  int          `gorm:"not null" json:"discountValue"`
	MaxUses        int          `gorm:"not null" json:"maxUses"`
	UsedCount      int          `gorm:"not null;default:0" json:"usedCount"`
	MinOrderAmount int          `gorm:"not null;default:0" json:"minOrderAmount"`
	ExpiresAt      time.Time    `gorm:"not null" json:"expiresAt"`
	IsActive       bool         `gorm:"not null;default:true" json:"isActive"`
	Description    string       `gorm:"type:text" json:"description"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

// DiscountRedemption is the redeemers set: the unique (code, user) pair makes
// a second redemption by the same user fail at the database.
type DiscountRedemption struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	DiscountCodeID uint      `gorm:"not null;uniqueIndex:idx_redemption_code_user" json:"discountCodeId"`
	UserID         uint      `gorm:"not null;uniqueIndex:idx_redemption_code_user" json:"userId"`
	CreatedAt      time.Time `json:"createdAt"`
}
