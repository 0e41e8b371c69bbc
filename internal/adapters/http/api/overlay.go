package api

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/okian/monopad/internal/adapters/audio"
	"github.com/okian/monopad/internal/adapters/overlay"
	"github.com/okian/monopad/pkg/logger"
)

const feedBufferSize = 1024

// OverlayDependencies defines the overlay operations.
type OverlayDependencies interface {
	Overlay() overlay.Snapshot
	Sounds() []audio.Channel
	Dismiss(ctx context.Context) bool
	Subscribe(conn *websocket.Conn) error
	Unsubscribe(conn *websocket.Conn)
}

// OverlayHandler serves the overlay state, the click and the live feed.
type OverlayHandler struct {
	deps     OverlayDependencies
	upgrader websocket.Upgrader
	log      logger.Logger
}

// NewOverlayHandler creates a new overlay handler.
func NewOverlayHandler(deps OverlayDependencies, checkOrigin func(*http.Request) bool, log logger.Logger) *OverlayHandler {
	return &OverlayHandler{
		deps: deps,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  feedBufferSize,
			WriteBufferSize: feedBufferSize,
			CheckOrigin:     checkOrigin,
		},
		log: log,
	}
}

type overlayResponse struct {
	Overlay overlay.Snapshot `json:"overlay"`
	Sounds  []audio.Channel  `json:"sounds"`
}

type dismissResponse struct {
	Dismissed bool `json:"dismissed"`
}

// HandleSnapshot handles GET /overlay requests.
func (h *OverlayHandler) HandleSnapshot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, overlayResponse{Overlay: h.deps.Overlay(), Sounds: h.deps.Sounds()})
}

// HandleDismiss handles POST /overlay/dismiss, the click on a lingering
// overlay. Nothing to dismiss is not an error.
func (h *OverlayHandler) HandleDismiss(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dismissResponse{Dismissed: h.deps.Dismiss(r.Context())})
}

// HandleFeed handles GET /overlay/ws. The connection receives the current
// overlay state and then every frame until it disconnects.
func (h *OverlayHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug(r.Context(), "overlay upgrade failed", logger.Error(err))
		return
	}
	if err := h.deps.Subscribe(conn); err != nil {
		h.log.Warn(r.Context(), "overlay subscribe failed", logger.Error(err))
		_ = conn.Close()
		return
	}
	h.log.Debug(r.Context(), "overlay client connected", logger.String("remote", r.RemoteAddr))

	// The browser never sends frames; reading keeps pongs and the close
	// handshake flowing.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.deps.Unsubscribe(conn)
			h.log.Debug(context.WithoutCancel(r.Context()), "overlay client disconnected", logger.String("remote", r.RemoteAddr))
			return
		}
	}
}
