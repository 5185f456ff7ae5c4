package feed

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/MrJamesThe3rd/tabungan/internal/feed"
	"github.com/MrJamesThe3rd/tabungan/internal/http/respond"
	txhttp "github.com/MrJamesThe3rd/tabungan/internal/http/transaction"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

type Hub interface {
	Subscribe(ctx context.Context, fn func(feed.Snapshot)) (func(), error)
	Current(ctx context.Context) (feed.Snapshot, error)
}

type Handler struct {
	hub      Hub
	upgrader websocket.Upgrader
}

// NewHandler serves the live feed. An origin list containing "*" accepts any
// origin.
func NewHandler(hub Hub, allowedOrigins []string) *Handler {
	h := &Handler{hub: hub}

	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || slices.Contains(allowedOrigins, "*") {
				return true
			}

			return slices.Contains(allowedOrigins, origin)
		},
	}

	return h
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.snapshot)
	r.Get("/ws", h.stream)
}

type snapshotResponse struct {
	Seq          uint64            `json:"seq"`
	At           time.Time         `json:"at"`
	Transactions []txhttp.Response `json:"transactions"`
	Pending      []txhttp.Response `json:"pending"`
}

func toSnapshotResponse(s feed.Snapshot) snapshotResponse {
	return snapshotResponse{
		Seq:          s.Seq,
		At:           s.At,
		Transactions: txhttp.ToResponseList(s.Transactions),
		Pending:      txhttp.ToResponseList(s.Pending),
	}
}

func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.hub.Current(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toSnapshotResponse(snap))
}

func (h *Handler) stream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	// Holds at most one snapshot. A slow client skips straight to the newest.
	latest := make(chan feed.Snapshot, 1)

	unsubscribe, err := h.hub.Subscribe(ctx, func(s feed.Snapshot) {
		select {
		case <-latest:
		default:
		}
		latest <- s
	})
	if err != nil {
		slog.Error("feed subscribe failed", "error", err)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "feed unavailable"),
			time.Now().Add(writeWait))

		return
	}
	defer unsubscribe()

	go h.read(conn, cancel)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case s := <-latest:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))

			if err := conn.WriteJSON(toSnapshotResponse(s)); err != nil {
				slog.Debug("feed write failed", "error", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// read discards client messages and cancels the stream once the peer goes away.
func (h *Handler) read(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
