package models

type ProductCharacteristic struct {
	ID      uint   `gorm:"primaryKey" json:"-"`
	Product string `gorm:"index;size:64;not null" json:"product"`
	Name    string `gorm:"not null" json:"name"`
	Detail  string `gorm:"not null" json:"detail"`
}

func (ProductCharacteristic) TableName() string {
	return "product_characteristic"
}
