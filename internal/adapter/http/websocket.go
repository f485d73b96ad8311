package http

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Boards run on kitchen tablets served from other origins.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Stream pushes the kitchen view to the client every time the board changes.
// The query string takes the same options as GetView.
func (h *KitchenHandler) Stream(w http.ResponseWriter, r *http.Request) {
	opts, err := parseViewOptions(r)
	if err != nil {
		h.respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	requestID := w.Header().Get(requestIDHeader)
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("ws_upgrade_failed", "Failed to upgrade connection", requestID, nil, err)
		return
	}
	defer conn.Close()

	changes, unsubscribe := h.board.Subscribe()
	defer unsubscribe()

	closed := make(chan struct{})
	go readPump(conn, closed)

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	h.logger.Debug("ws_connected", "Kitchen board subscribed", requestID, map[string]interface{}{
		"view": string(opts.Mode),
	})

	push := func() bool {
		view, err := h.board.View(r.Context(), opts)
		if err != nil {
			h.logger.Error("ws_view_failed", "Failed to build kitchen view", requestID, nil, err)
			return false
		}
		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(toViewResponse(view)); err != nil {
			return false
		}
		return true
	}

	if !push() {
		return
	}

	for {
		select {
		case <-closed:
			h.logger.Debug("ws_disconnected", "Kitchen board unsubscribed", requestID, nil)
			return
		case <-r.Context().Done():
			return
		case _, ok := <-changes:
			if !ok || !push() {
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains client frames so pongs and close frames are processed.
func readPump(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
