package rabbitmq

import (
	"context"
	"fmt"
	"time"

	"github.com/YelzhanWeb/prepboard/internal/adapter/logger"
	"github.com/YelzhanWeb/prepboard/internal/interfaces"
)

const reconnectDelay = 5 * time.Second

type consumer struct {
	conn   Connection
	logger logger.Logger
	delay  time.Duration
}

func NewConsumer(conn Connection, lgr logger.Logger) interfaces.ChangeConsumer {
	return &consumer{conn: conn, logger: lgr, delay: reconnectDelay}
}

// ConsumeChanges delivers every message on the changes exchange to handler
// until ctx is cancelled, re-subscribing after channel failures.
func (c *consumer) ConsumeChanges(ctx context.Context, handler interfaces.ChangeHandler) error {
	for {
		err := c.consumeChanges(ctx, handler)

		// Если контекст отменен или соединение закрыто намеренно - выходим
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if err == nil {
			return nil
		}

		c.logger.Error("consumer_disconnected", fmt.Sprintf("Changes consumer disconnected, reconnecting in %s", c.delay), "", nil, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.delay):
		}
	}
}

func (c *consumer) consumeChanges(ctx context.Context, handler interfaces.ChangeHandler) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	closeChan := ch.NotifyClose()

	if err := ch.ExchangeDeclare(ChangesExchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	// Each board gets its own temporary queue
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, "", ChangesExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	msgs, err := ch.Consume(q.Name, "", true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-closeChan:
			if err != nil {
				return fmt.Errorf("channel closed: %w", err)
			}
			return fmt.Errorf("channel closed gracefully")

		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("messages channel closed")
			}

			// Ошибки обработки не должны останавливать подписку
			if err := handler(ctx, msg.Body); err != nil {
				c.logger.Error("change_handling_failed", "Failed to handle change notification", "", nil, err)
			}
		}
	}
}
