package amqp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/YelzhanWeb/prepboard/internal/adapter/logger"
	"github.com/YelzhanWeb/prepboard/internal/interfaces"
)

// Refresher is the part of the kitchen board that reacts to outside changes.
type Refresher interface {
	Notify()
}

type ChangeHandler struct {
	board  Refresher
	logger logger.Logger
}

func NewChangeHandler(board Refresher, logger logger.Logger) *ChangeHandler {
	return &ChangeHandler{
		board:  board,
		logger: logger,
	}
}

// HandleChange schedules a board refresh for every well-formed change.
func (h *ChangeHandler) HandleChange(ctx context.Context, body []byte) error {
	var msg interfaces.ItemStatusChangedMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse change notification", "", nil, err)
		return err
	}

	h.logger.Debug("change_received", fmt.Sprintf("Item %s in order %s changed to %s", msg.ItemID, msg.OrderNumber, msg.NewStatus),
		msg.OrderNumber, map[string]interface{}{
			"item_id":    msg.ItemID.String(),
			"old_status": msg.OldStatus,
			"new_status": msg.NewStatus,
			"changed_by": msg.ChangedBy,
		})

	h.board.Notify()
	return nil
}
