package domain

import "time"

type Cart struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	Items     []CartItem
}

type CartItem struct {
	ID        string
	CartID    string
	ProductID string
	Quantity  int
	Product   *Product
}

// CartItemOwner links a cart item to the user whose cart holds it.
type CartItemOwner struct {
	ItemID string
	UserID string
}
