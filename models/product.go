package models

type Product struct {
	ID          string  `gorm:"primaryKey;size:64" json:"id"`
	Name        string  `gorm:"not null" json:"name"`
	Description *string `gorm:"type:text" json:"description"`
	Price       uint64  `gorm:"not null" json:"price"`
	MainImage   *string `json:"main_image"`
	SecondImage *string `json:"second_image"`
	ThirdImage  *string `json:"third_image"`
	FourthImage *string `json:"fourth_image"`
	Size        bool    `gorm:"not null;default:false" json:"size"`
	WheelSize   bool    `gorm:"not null;default:false" json:"wheel_size"`
}

func (Product) TableName() string {
	return "product"
}
