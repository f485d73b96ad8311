package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MenuItem is a catalog entry with its variants (flavours, sizes, sauces).
type MenuItem struct {
	ID          uuid.UUID
	Name        string
	Category    MenuCategory
	Unit        string
	BasePrice   *decimal.Decimal
	VariantKind *string
	Active      bool
	CreatedAt   time.Time
	Variants    []MenuVariant
}

// MenuVariant prices a specific version of a menu item.
type MenuVariant struct {
	ID          uuid.UUID
	MenuItemID  uuid.UUID
	Name        string
	Price       *decimal.Decimal
	Description *string
}

// Price returns the variant price, falling back to the item's base price.
func (m *MenuItem) Price(v *MenuVariant) (decimal.Decimal, bool) {
	if v != nil && v.Price != nil {
		return *v.Price, true
	}
	if m.BasePrice != nil {
		return *m.BasePrice, true
	}
	return decimal.Zero, false
}
