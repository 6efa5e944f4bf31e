package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/jaminalder/retro-tic-tac-toe/internal/app"
	"github.com/jaminalder/retro-tic-tac-toe/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Single-device game served on localhost.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsCommand is a move sent by the client. A command names a cell either by
// Index or by a point (X, Y) on a board drawn with cells of Size pixels.
type wsCommand struct {
	Action string  `json:"action"`
	Index  *int    `json:"index,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Size   float64 `json:"size,omitempty"`
	Cells  []int   `json:"cells,omitempty"`
}

type wsMessage struct {
	Type     string     `json:"type"`
	Event    *app.Event `json:"event,omitempty"`
	Accepted bool       `json:"accepted"`
	Error    string     `json:"error,omitempty"`
}

func (c wsCommand) cell() int {
	if c.Index != nil {
		return *c.Index
	}
	return domain.CellAt(c.X, c.Y, c.Size)
}

func (h *handlers) ws(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, unsub := h.eng.Subscribe(ctx)
	defer unsub()
	replies := make(chan wsMessage, 16)
	go h.writePump(ctx, conn, events, replies)
	h.readPump(ctx, conn, replies)
}

func (h *handlers) readPump(ctx context.Context, conn *websocket.Conn, replies chan<- wsMessage) {
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		var cmd wsCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("websocket closed", zap.Error(err))
			}
			return
		}
		reply := wsMessage{Type: "result"}
		switch cmd.Action {
		case "switch-path":
			reply.Accepted = h.eng.SwitchAlong(cmd.Cells)
		case "reset":
			h.eng.ResetGame()
			reply.Accepted = true
		default:
			ok, err := h.apply(cmd.Action, cmd.cell())
			reply.Accepted = ok
			if err != nil {
				reply.Error = err.Error()
			}
		}
		select {
		case replies <- reply:
		case <-ctx.Done():
			return
		}
	}
}

func (h *handlers) writePump(ctx context.Context, conn *websocket.Conn, events <-chan app.Event, replies <-chan wsMessage) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()
	write := func(msg wsMessage) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(msg) == nil
	}
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if !write(wsMessage{Type: "event", Event: &ev}) {
				return
			}
		case reply := <-replies:
			if !write(reply) {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
