package models

import "time"

type Review struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Product   string    `gorm:"index;size:64;not null" json:"product"`
	User      string    `gorm:"size:36;not null" json:"user"`
	Review    string    `gorm:"type:text;not null" json:"review"`
	Stars     uint8     `gorm:"not null" json:"stars"`
	CreatedAt time.Time `json:"-"`
}

func (Review) TableName() string {
	return "reviews"
}

// 評論加上作者名稱(LEFT JOIN clients)
type ReviewWithAuthor struct {
	ID       string  `json:"id"`
	Product  string  `json:"product"`
	User     string  `json:"user"`
	Review   string  `json:"review"`
	Stars    uint8   `json:"stars"`
	Username *string `json:"username"`
}
