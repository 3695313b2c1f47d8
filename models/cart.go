package models

const anonymousOwnerPrefix = "anonymous:"

type ShoppingCart struct {
	ID       string                `gorm:"primaryKey;size:36" json:"id"`
	User     string                `gorm:"unique;size:64;not null" json:"user"`
	Articles []ShoppingCartArticle `gorm:"foreignKey:ShoppingCartID;references:ID" json:"articles"`
}

func (ShoppingCart) TableName() string {
	return "shopping_cart"
}

// 匿名購物車的擁有者，加上前綴避免與ClientID重複
func AnonymousOwner(anonymousCartID string) string {
	return anonymousOwnerPrefix + anonymousCartID
}
