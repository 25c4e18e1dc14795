package httptransport

import (
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"vaultspark/internal/session/models"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = (streamPongWait * 9) / 10
	streamBuffer     = 16
)

type streamMessage struct {
	Seq uint64 `json:"seq"`
	sessionResponse
}

// handleSessionStream pushes every session snapshot to a websocket client,
// starting with the current one. A slow client loses intermediate snapshots,
// never the latest.
func (h *Handler) handleSessionStream(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(r.Context(), "session stream upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	updates := make(chan models.Snapshot, streamBuffer)
	unsubscribe := h.sessions.OnSessionChange(func(snap models.Snapshot) {
		for {
			select {
			case updates <- snap:
				return
			default:
			}
			select {
			case <-updates:
			default:
			}
		}
	})
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(streamPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case snap := <-updates:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			msg := streamMessage{Seq: snap.Seq, sessionResponse: toSessionResponse(snap, h.sessions.Profile())}
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.DebugContext(r.Context(), "session stream write failed", "error", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// checkOrigin allows requests without an Origin header, same-host origins and
// the configured allow list.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if slices.Contains(h.allowedOrigins, origin) || slices.Contains(h.allowedOrigins, "*") {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}
