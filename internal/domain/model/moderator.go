package model

import "time"

type Moderator struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Login        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"column:password_hash;not null"`
	IsActive     bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
