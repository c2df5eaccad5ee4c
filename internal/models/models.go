package models

import "time"

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string `gorm:"uniqueIndex;not null"     json:"email"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	IsActive     bool   `gorm:"not null;default:true"    json:"is_active"`
}

type RevokedToken struct {
	JTI       string    `gorm:"primaryKey"     json:"jti"`
	RevokedAt time.Time `gorm:"autoCreateTime" json:"revoked_at"`
}
