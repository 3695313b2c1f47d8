package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type Client struct {
	ID          string       `gorm:"primaryKey;size:36"`
	Username    string       `gorm:"unique;size:20;not null"`
	Email       string       `gorm:"unique;size:255;not null"`
	Password    string       `gorm:"not null"`
	Role        string       `gorm:"size:16;not null"`
	LoginTokens []LoginToken `gorm:"foreignKey:ClientID"`
	CreatedAt   time.Time
}

func (Client) TableName() string {
	return "clients"
}
