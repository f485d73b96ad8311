package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ViewMode selects how the kitchen board lays out preparation items.
type ViewMode string

const (
	ViewByCategory ViewMode = "byCategory"
	ViewTimeline   ViewMode = "timeline"
)

// ParseViewMode accepts the two board modes; empty means byCategory.
func ParseViewMode(s string) (ViewMode, error) {
	switch m := ViewMode(s); m {
	case ViewByCategory, ViewTimeline:
		return m, nil
	case "":
		return ViewByCategory, nil
	}
	return "", fmt.Errorf("unknown view mode %q", s)
}

type ViewOptions struct {
	Mode          ViewMode
	ShowCompleted bool
}

// ViewItem is a preparation item as rendered at a given instant.
type ViewItem struct {
	PreparationItem
	Urgency Urgency
	// Overdue marks items that should have started and are still pending.
	Overdue bool
}

type CategoryGroup struct {
	Category      MenuCategory
	Label         string
	LeadTimeHours int
	Items         []ViewItem
}

// SkippedItem records an order item that could not be scheduled.
type SkippedItem struct {
	ItemID      uuid.UUID
	OrderNumber string
	Reason      string
}

// KitchenView is one evaluation of the board. Groups is set for
// ViewByCategory and Items for ViewTimeline.
type KitchenView struct {
	Mode          ViewMode
	ShowCompleted bool
	GeneratedAt   time.Time
	RefreshedAt   time.Time
	Groups        []CategoryGroup
	Items         []ViewItem
	Skipped       []SkippedItem
}
