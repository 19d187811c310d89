package spectate

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type handlers struct {
	hub *Hub
	log *zap.SugaredLogger
}

// NewRouter wires the spectator routes.
//
//	GET /snapshot  latest snapshot as JSON, 503 before the match starts
//	GET /ws        websocket stream of snapshots
func NewRouter(hub *Hub, log *zap.SugaredLogger) http.Handler {
	h := &handlers{hub: hub, log: log}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/snapshot", h.snapshot)
	r.Get("/ws", h.stream)
	return r
}

func (h *handlers) snapshot(w http.ResponseWriter, r *http.Request) {
	data, ok := h.hub.Latest()
	if !ok {
		http.Error(w, "match not started", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *handlers) stream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnw("websocket upgrade", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer conn.Close()

	ch, unsubscribe := h.hub.Subscribe()
	defer unsubscribe()
	h.log.Debugw("spectator joined", "remote", r.RemoteAddr)

	// Spectators never send anything we care about; reading only detects
	// the close.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case data, ok := <-ch:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.log.Debugw("spectator write", "remote", r.RemoteAddr, "error", err)
				return
			}
		case <-gone:
			h.log.Debugw("spectator left", "remote", r.RemoteAddr)
			return
		case <-r.Context().Done():
			return
		}
	}
}

// Start listens on addr and serves the spectator routes until ctx is
// cancelled. It returns the bound address.
func Start(ctx context.Context, addr string, hub *Hub, log *zap.SugaredLogger) (net.Addr, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	srv := &http.Server{
		Handler:           NewRouter(hub, log),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorw("spectator server", "error", err)
		}
	}()
	context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	})
	log.Infow("spectator server listening", "addr", ln.Addr().String())
	return ln.Addr(), nil
}
