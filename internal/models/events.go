package models

import "time"

// Event types
const (
	EventTypeCartItemAdded   = "CART_ITEM_ADDED"
	EventTypeCartItemRemoved = "CART_ITEM_REMOVED"
	EventTypeCartCleared     = "CART_CLEARED"
	EventTypeWishlistToggled = "WISHLIST_TOGGLED"
	EventTypeOrderPaid       = "ORDER_PAID"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// CartItemAddedEvent published when a cart row is created or its quantity grows
type CartItemAddedEvent struct {
	BaseEvent
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

// CartItemRemovedEvent published when a cart row is removed or shrinks
type CartItemRemovedEvent struct {
	BaseEvent
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
}

// CartClearedEvent published when the whole cart is emptied
type CartClearedEvent struct {
	BaseEvent
	UserID string `json:"user_id"`
}

// WishlistToggledEvent published on wishlist membership changes
type WishlistToggledEvent struct {
	BaseEvent
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
	Member    bool   `json:"member"`
}

// OrderPaidEvent consumed from the order service when a payment settles.
// It drives order-cache invalidation and the post-checkout cart clear.
type OrderPaidEvent struct {
	BaseEvent
	OrderID string `json:"order_id"`
	UserID  string `json:"user_id"`
	Amount  int64  `json:"amount"`
}
