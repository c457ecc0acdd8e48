package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"type:varchar(100);not null" json:"name"`
	Email        string    `gorm:"type:varchar(254);not null;uniqueIndex" json:"email"`
	Mobile       string    `gorm:"type:varchar(15);not null;uniqueIndex" json:"mobile"`
	PasswordHash string    `gorm:"type:varchar(100);not null" json:"-"`
	Role         string    `gorm:"type:varchar(10);not null;default:'user'" json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
