package api

import (
	"net/http"
)

// overlayPageHandler serves the browser source that renders the overlay feed.
type overlayPageHandler struct{}

func newOverlayPageHandler() *overlayPageHandler {
	return &overlayPageHandler{}
}

// HandleOverlayPage handles GET /overlay/view requests.
func (h *overlayPageHandler) HandleOverlayPage(w http.ResponseWriter, r *http.Request) {
	http.ServeFileFS(w, r, staticFS, "overlay.html")
}
