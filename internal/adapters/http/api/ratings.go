package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/okian/monopad/internal/domain/model"
	"github.com/okian/monopad/internal/domain/trust"
)

// RatingDependencies defines the direct rating operations.
type RatingDependencies interface {
	Increase(ctx context.Context, id string) (trust.Outcome, error)
	Decrease(ctx context.Context, id string) (trust.Outcome, error)
}

// TriggerDependencies defines the trigger-source operation.
type TriggerDependencies interface {
	Trigger(ctx context.Context, t model.Trigger) (trust.Outcome, error)
}

// RatingHandler handles the increase/decrease buttons.
type RatingHandler struct {
	deps RatingDependencies
}

// NewRatingHandler creates a new rating handler.
func NewRatingHandler(deps RatingDependencies) *RatingHandler {
	return &RatingHandler{deps: deps}
}

// HandleIncrease handles POST /entities/{id}/increase requests.
func (h *RatingHandler) HandleIncrease(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, "api.increase", h.deps.Increase)
}

// HandleDecrease handles POST /entities/{id}/decrease requests.
func (h *RatingHandler) HandleDecrease(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, "api.decrease", h.deps.Decrease)
}

func (h *RatingHandler) handle(w http.ResponseWriter, r *http.Request, op string,
	fn func(context.Context, string) (trust.Outcome, error),
) {
	out, err := fn(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// TriggerHandler handles rating changes delivered by trigger sources.
type TriggerHandler struct {
	deps TriggerDependencies
}

// NewTriggerHandler creates a new trigger handler.
func NewTriggerHandler(deps TriggerDependencies) *TriggerHandler {
	return &TriggerHandler{deps: deps}
}

type triggerRequest struct {
	EntityID  string `json:"entity_id"`
	Signature string `json:"signature"`
	Direction string `json:"direction"`
}

func (t triggerRequest) trigger() (model.Trigger, error) {
	switch {
	case strings.TrimSpace(t.EntityID) == "":
		return model.Trigger{}, errors.New("missing entity_id")
	case strings.TrimSpace(t.Signature) == "":
		return model.Trigger{}, errors.New("missing signature")
	}
	dir, err := model.ParseDirection(t.Direction)
	if err != nil {
		return model.Trigger{}, err
	}
	return model.Trigger{EntityID: t.EntityID, Signature: t.Signature, Direction: dir}, nil
}

type triggerResponse struct {
	Status string `json:"status"`
	trust.Outcome
}

// HandlePostTrigger handles POST /triggers requests. A signature already
// consumed by the entity is acknowledged as a duplicate.
func (h *TriggerHandler) HandlePostTrigger(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_trigger"
	var req triggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	t, err := req.trigger()
	if err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}

	out, err := h.deps.Trigger(r.Context(), t)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	switch {
	case out.Duplicate:
		writeJSON(w, http.StatusOK, triggerResponse{Status: "duplicate", Outcome: out})
	case out.Changed:
		writeJSON(w, http.StatusAccepted, triggerResponse{Status: "accepted", Outcome: out})
	default:
		writeJSON(w, http.StatusOK, triggerResponse{Status: "unchanged", Outcome: out})
	}
}
