package domain

import "fmt"

// ItemStatus is the preparation status of a single order item.
type ItemStatus string

const (
	ItemStatusPending   ItemStatus = "pendiente"
	ItemStatusPreparing ItemStatus = "preparando"
	ItemStatusReady     ItemStatus = "listo"
)

// ParseItemStatus validates a raw status. An empty value reads as pending.
func ParseItemStatus(s string) (ItemStatus, error) {
	switch st := ItemStatus(s); st {
	case ItemStatusPending, ItemStatusPreparing, ItemStatusReady:
		return st, nil
	case "":
		return ItemStatusPending, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidItemStatus, s)
}

// Next cycles pendiente -> preparando -> listo -> pendiente. The last step
// lets an operator undo an item marked ready by mistake.
func (s ItemStatus) Next() ItemStatus {
	switch s {
	case ItemStatusPending:
		return ItemStatusPreparing
	case ItemStatusPreparing:
		return ItemStatusReady
	default:
		return ItemStatusPending
	}
}

func (s ItemStatus) Done() bool {
	return s == ItemStatusReady
}
