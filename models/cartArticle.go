package models

type ShoppingCartArticle struct {
	ShoppingCartID string `gorm:"primaryKey;size:36" json:"shopping_cart_id"`
	Product        string `gorm:"primaryKey;size:64" json:"product"`
	Quantity       uint64 `gorm:"not null" json:"quantity"`
}

func (ShoppingCartArticle) TableName() string {
	return "shopping_cart_article"
}
