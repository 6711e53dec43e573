package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MrSnakeDoc/gieok/internal/httpserver/deps"
	"github.com/MrSnakeDoc/gieok/internal/logger"
)

const (
	feedWriteTimeout = 10 * time.Second
	feedPongTimeout  = 60 * time.Second
	feedPingInterval = (feedPongTimeout * 9) / 10
)

// The default origin check only admits same-host pages.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Feed streams change events as JSON text frames until either side leaves.
// Events are refetch hints; clients must still work without this stream.
func Feed(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already wrote the HTTP error.
			d.Logger.Debug("feed upgrade failed", logger.Error(err))
			return
		}
		defer ws.Close()

		sub := d.Feed.Subscribe()
		defer sub.Close()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		go readPump(ws, cancel)

		ping := time.NewTicker(feedPingInterval)
		defer ping.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub.Events():
				_ = ws.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
				if !ok {
					_ = ws.WriteMessage(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseGoingAway, "feed closed"))
					return
				}
				if err := ws.WriteJSON(ev); err != nil {
					d.Logger.Debug("feed write failed", logger.String("id", sub.ID), logger.Error(err))
					return
				}
			case <-ping.C:
				_ = ws.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
				if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}
}

// readPump discards client frames and cancels once the peer is gone.
func readPump(ws *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	ws.SetReadLimit(512)
	_ = ws.SetReadDeadline(time.Now().Add(feedPongTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(feedPongTimeout))
	})
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}
