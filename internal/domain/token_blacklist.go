package domain

import "time"

type BlacklistedToken struct {
	TokenHash string    `gorm:"primaryKey;size:64" json:"-"`
	TokenID   string    `gorm:"size:64;index" json:"token_id"`
	UserID    string    `gorm:"size:64;index" json:"user_id"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (BlacklistedToken) TableName() string { return "token_blacklist" }
