package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order is a customer order as read from the order store.
type Order struct {
	ID           uuid.UUID
	Number       string
	CustomerName string
	// DeliveryTime is the stored "HH:mm" string; it is parsed per item so a
	// malformed value only affects this order's items.
	DeliveryTime string
	Total        decimal.Decimal
	Items        []OrderItem
}

// OrderItem is one ordered dish with its menu data already joined in.
type OrderItem struct {
	ID           uuid.UUID
	OrderID      uuid.UUID
	MenuItemID   uuid.UUID
	MenuItemName string
	Category     MenuCategory
	VariantID    *uuid.UUID
	VariantName  *string
	SauceID      *uuid.UUID
	SauceName    *string
	Quantity     int
	UnitPrice    decimal.Decimal
	Subtotal     decimal.Decimal
	Notes        string
	Status       ItemStatus
}
