package models

import (
	"database/sql/driver"
	"fmt"
)

// PurchaseFlag is a boolean persisted as the integer 0 or 1.
type PurchaseFlag bool

// Value implements driver.Valuer.
func (f PurchaseFlag) Value() (driver.Value, error) {
	if f {
		return int64(1), nil
	}
	return int64(0), nil
}

// Scan implements sql.Scanner.
func (f *PurchaseFlag) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*f = false
	case int64:
		*f = v != 0
	case int32:
		*f = v != 0
	case bool:
		*f = PurchaseFlag(v)
	case []byte:
		*f = len(v) > 0 && string(v) != "0" && string(v) != "false"
	case string:
		*f = v != "" && v != "0" && v != "false"
	default:
		return fmt.Errorf("cannot scan %T into PurchaseFlag", src)
	}
	return nil
}

// GiftEntry is a line on the wedding list. A nil ProductID marks a
// placeholder that has not been bound to a product yet.
type GiftEntry struct {
	ID        uint         `json:"id" gorm:"primaryKey;autoIncrement"`
	ProductID *uint        `json:"product_id" gorm:"index"`
	Purchased PurchaseFlag `json:"purchased" gorm:"type:integer;not null;default:0"`
	Product   *Product     `json:"-" gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName pins the wedding list table name.
func (GiftEntry) TableName() string {
	return "wedding_gift"
}

// IsPlaceholder reports whether the entry is not bound to a product.
func (e GiftEntry) IsPlaceholder() bool {
	return e.ProductID == nil
}
