package domain

import (
	"fmt"
	"time"
)

// MenuCategory groups menu items by kitchen station and drives lead time.
type MenuCategory string

const (
	CategoryEntradas       MenuCategory = "entradas"
	CategoryPlatosFuertes  MenuCategory = "platos_fuertes"
	CategoryComplementos   MenuCategory = "complementos"
	CategoryPostresBebidas MenuCategory = "postres_bebidas"
)

// Categories returns every category in board display order.
func Categories() []MenuCategory {
	return []MenuCategory{
		CategoryPlatosFuertes,
		CategoryEntradas,
		CategoryComplementos,
		CategoryPostresBebidas,
	}
}

// ParseMenuCategory validates a raw category value.
func ParseMenuCategory(s string) (MenuCategory, error) {
	c := MenuCategory(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}

func (c MenuCategory) Valid() bool {
	switch c {
	case CategoryEntradas, CategoryPlatosFuertes, CategoryComplementos, CategoryPostresBebidas:
		return true
	}
	return false
}

// Label returns the name shown on the kitchen board.
func (c MenuCategory) Label() string {
	switch c {
	case CategoryPlatosFuertes:
		return "Platos Fuertes"
	case CategoryEntradas:
		return "Entradas"
	case CategoryComplementos:
		return "Complementos"
	case CategoryPostresBebidas:
		return "Postres y Bebidas"
	default:
		return string(c)
	}
}

// LeadTimeTable maps every category to the hours before delivery at which
// preparation has to begin. The zero value is empty; build it with
// NewLeadTimeTable or DefaultLeadTimes.
type LeadTimeTable struct {
	hours map[MenuCategory]int
}

// NewLeadTimeTable copies hours into an immutable table. Every category must
// be present with a positive value and no other key is accepted.
func NewLeadTimeTable(hours map[MenuCategory]int) (LeadTimeTable, error) {
	table := LeadTimeTable{hours: make(map[MenuCategory]int, len(hours))}

	for c, h := range hours {
		if !c.Valid() {
			return LeadTimeTable{}, fmt.Errorf("%w: %q", ErrUnknownCategory, c)
		}
		if h <= 0 {
			return LeadTimeTable{}, fmt.Errorf("lead time for %s must be positive, got %d", c, h)
		}
		table.hours[c] = h
	}

	for _, c := range Categories() {
		if _, ok := table.hours[c]; !ok {
			return LeadTimeTable{}, fmt.Errorf("lead time for %s is missing", c)
		}
	}

	return table, nil
}

// DefaultLeadTimes returns the business schedule.
func DefaultLeadTimes() LeadTimeTable {
	return LeadTimeTable{hours: map[MenuCategory]int{
		CategoryPlatosFuertes:  3,
		CategoryEntradas:       2,
		CategoryComplementos:   2,
		CategoryPostresBebidas: 1,
	}}
}

// IsZero reports whether t was never built.
func (t LeadTimeTable) IsZero() bool {
	return len(t.hours) == 0
}

// Hours returns the lead time for c in hours.
func (t LeadTimeTable) Hours(c MenuCategory) (int, error) {
	h, ok := t.hours[c]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, c)
	}
	return h, nil
}

// Duration is Hours as a time.Duration.
func (t LeadTimeTable) Duration(c MenuCategory) (time.Duration, error) {
	h, err := t.Hours(c)
	if err != nil {
		return 0, err
	}
	return time.Duration(h) * time.Hour, nil
}

// AsMap returns a copy of the table keyed by category.
func (t LeadTimeTable) AsMap() map[MenuCategory]int {
	out := make(map[MenuCategory]int, len(t.hours))
	for c, h := range t.hours {
		out[c] = h
	}
	return out
}
