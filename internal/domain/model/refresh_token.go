package model

import "time"

// refresh tokenの台帳レコード。
// 生のtokenは保存しない（hashのみ）。revoked_atはnull→値の一方向のみ。
type RefreshToken struct {
	ID          string      `json:"id" gorm:"type:uuid;primaryKey"`
	SubjectType SubjectType `json:"subjectType" gorm:"type:varchar(20);not null;index"`
	SubjectID   int64       `json:"subjectId" gorm:"not null;index"`
	TokenHash   string      `json:"-" gorm:"not null;uniqueIndex"`
	ExpiresAt   time.Time   `json:"expiresAt" gorm:"not null;index"`
	RevokedAt   *time.Time  `json:"revokedAt" gorm:"index"`
	CreatedAt   time.Time   `json:"createdAt"`
}
