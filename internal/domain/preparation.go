package domain

import (
	"time"

	"github.com/google/uuid"
)

// PreparationItem joins one order item with its order and its derived prep
// start. It is rebuilt on every refresh and never persisted; Status mirrors
// the store and may briefly run ahead of it after a local transition.
type PreparationItem struct {
	ItemID       uuid.UUID
	OrderID      uuid.UUID
	OrderNumber  string
	CustomerName string
	MenuItemName string
	VariantName  *string
	SauceName    *string
	Quantity     int
	Notes        string
	Category     MenuCategory
	DeliveryTime string
	PrepStart    time.Time
	Status       ItemStatus
}

// Urgency classifies the item against now.
func (p PreparationItem) Urgency(now time.Time) Urgency {
	return Classify(p.PrepStart, now)
}
