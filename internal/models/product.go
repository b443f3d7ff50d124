package models

// Product is a catalog item that can be chosen as a wedding gift.
// Price is held in pence.
type Product struct {
	ID              uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	Name            string `json:"name" gorm:"type:text;not null" validate:"required"`
	Brand           string `json:"brand" gorm:"type:text;not null" validate:"required"`
	Price           int64  `json:"price" gorm:"not null" validate:"gte=0"`
	InStockQuantity int    `json:"in_stock_quantity" gorm:"not null" validate:"gte=0"`
}

// TableName pins the table to the registry schema.
func (Product) TableName() string {
	return "products"
}

