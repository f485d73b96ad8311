package interfaces

import (
	"context"

	"github.com/YelzhanWeb/prepboard/internal/domain"
	"github.com/google/uuid"
)

// Интерфейсы Репозиториев (Adapter/Postgres)
type OrderStore interface {
	// ListOrders returns every order with its items, menu names and categories
	// already resolved.
	ListOrders(ctx context.Context) ([]*domain.Order, error)
	// SetItemStatus persists a new status. A missing item yields
	// domain.ErrStatusTransitionConflict.
	SetItemStatus(ctx context.Context, itemID uuid.UUID, status domain.ItemStatus) (*domain.OrderItem, error)
}

type MenuCatalog interface {
	ListMenu(ctx context.Context, onlyActive bool) ([]*domain.MenuItem, error)
}
