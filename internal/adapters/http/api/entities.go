package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/okian/monopad/internal/domain/gauge"
	"github.com/okian/monopad/internal/domain/model"
	"github.com/okian/monopad/internal/domain/rating"
)

// EntityDependencies defines the roster operations.
type EntityDependencies interface {
	Register(ctx context.Context, id, name string) (*model.Entity, error)
	Entity(ctx context.Context, id string) (*model.Entity, error)
	Rank(ctx context.Context, id string) (Entry, error)
	Roster(ctx context.Context, limit int) ([]Entry, error)
	Remove(ctx context.Context, id string) error
}

// EntityHandler handles roster requests.
type EntityHandler struct {
	deps     EntityDependencies
	maxLimit int
}

// NewEntityHandler creates a new entity handler.
func NewEntityHandler(deps EntityDependencies, maxLimit int) *EntityHandler {
	return &EntityHandler{deps: deps, maxLimit: maxLimit}
}

type createEntityRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type entityResponse struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Rating    int         `json:"rating"`
	Mode      rating.Mode `json:"mode"`
	Rank      int         `json:"rank"`
	Gauge     gauge.Gauge `json:"gauge"`
	Consumed  int         `json:"consumed_triggers"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func (h *EntityHandler) describe(ctx context.Context, e *model.Entity) (entityResponse, error) {
	entry, err := h.deps.Rank(ctx, e.ID)
	if err != nil {
		return entityResponse{}, err
	}
	resp := entityResponse{
		ID:        e.ID,
		Name:      e.Name,
		Rating:    e.Rating,
		Mode:      e.Mode(),
		Rank:      entry.Rank,
		Gauge:     gauge.For(e.Rating, gauge.Options{Gold: e.Rating == rating.Max}),
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
	if e.Ledger != nil {
		resp.Consumed = e.Ledger.Len()
	}
	return resp, nil
}

// HandleCreate handles POST /entities requests.
func (h *EntityHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_entity"
	var req createEntityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	e, err := h.deps.Register(r.Context(), req.ID, req.Name)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	resp, err := h.describe(r.Context(), e)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// HandleList handles GET /entities?limit=N requests. Without a limit the
// whole roster up to the configured cap is returned.
func (h *EntityHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_entities"
	n := h.maxLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		var err error
		n, err = strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		if n > h.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
			return
		}
	}
	entries, err := h.deps.Roster(r.Context(), n)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleGet handles GET /entities/{id} requests.
func (h *EntityHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_entity"
	e, err := h.deps.Entity(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	resp, err := h.describe(r.Context(), e)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleDelete handles DELETE /entities/{id} requests.
func (h *EntityHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_entity"
	if err := h.deps.Remove(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
