package interfaces

import (
	"context"

	"github.com/YelzhanWeb/prepboard/internal/domain"
	"github.com/google/uuid"
)

// Интерфейсы Сервисов (Business Logic)
type KitchenBoard interface {
	View(ctx context.Context, opts domain.ViewOptions) (*domain.KitchenView, error)
	Advance(ctx context.Context, itemID uuid.UUID) (domain.ItemStatus, error)
	Refresh(ctx context.Context) error
	Notify()
	Subscribe() (<-chan struct{}, func())
}
