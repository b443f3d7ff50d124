package models

// Gift is a wedding list entry joined with the product it refers to.
type Gift struct {
	ID        uint     `json:"id"`
	Product   *Product `json:"product"`
	Purchased bool     `json:"purchased"`
}

// WeddingListReport splits the wedding list by purchase state.
type WeddingListReport struct {
	PurchasedGifts    []Gift `json:"purchased_gifts"`
	NotPurchasedGifts []Gift `json:"not_purchased_gifts"`
}

// PurchaseEvent is published once a purchase has been committed.
type PurchaseEvent struct {
	GiftID      uint   `json:"gift_id"`
	ProductID   *uint  `json:"product_id"`
	PurchasedAt string `json:"purchased_at"`
}
