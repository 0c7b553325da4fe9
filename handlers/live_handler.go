package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/volleychamp/volleychamp-api/live"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin filtering happens at the CORS layer; the feed itself is
	// gated by the staff token check below.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type LiveHandler struct {
	hub    *live.Hub
	logger *slog.Logger
}

func NewLiveHandler(hub *live.Hub, logger *slog.Logger) *LiveHandler {
	return &LiveHandler{hub: hub, logger: logger}
}

// ServeStaffFeed upgrades the connection and joins the staff event feed.
// Mounted behind the staff middleware chain.
func (h *LiveHandler) ServeStaffFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	client := live.NewClient(h.hub, conn, h.logger)
	go client.WritePump()
	go client.ReadPump()
}
