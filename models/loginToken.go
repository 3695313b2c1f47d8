package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"gorm.io/gorm"
)

type LoginToken struct {
	gorm.Model
	// 只存Token的SHA-256，不存原文
	TokenHash      string `gorm:"size:64;index"`
	ExpirationTime time.Time
	ClientID       string `gorm:"size:36"`
	Role           string
}

func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
