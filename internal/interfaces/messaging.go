package interfaces

import (
	"context"
	"time"

	"github.com/YelzhanWeb/prepboard/internal/domain"
	"github.com/google/uuid"
)

// Сообщения RabbitMQ
type ItemStatusChangedMessage struct {
	ItemID      uuid.UUID         `json:"item_id"`
	OrderNumber string            `json:"order_number"`
	OldStatus   domain.ItemStatus `json:"old_status"`
	NewStatus   domain.ItemStatus `json:"new_status"`
	ChangedBy   string            `json:"changed_by"`
	Timestamp   time.Time         `json:"timestamp"`
}

// Интерфейсы Messaging (Adapter/RabbitMQ)
type ChangePublisher interface {
	PublishItemStatusChanged(ctx context.Context, msg ItemStatusChangedMessage) error
}

type ChangeConsumer interface {
	ConsumeChanges(ctx context.Context, handler ChangeHandler) error
}

type ChangeHandler func(ctx context.Context, body []byte) error
