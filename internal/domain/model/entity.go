// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/okian/monopad/internal/domain/ledger"
	"github.com/okian/monopad/internal/domain/rating"
)

// Entity is a tracked character on the Social roster.
type Entity struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Rating    int            `json:"rating"`
	Ledger    *ledger.Ledger `json:"ledger"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// NewEntity returns an entity at the initial rating with an empty ledger.
func NewEntity(id, name string, opts ...ledger.Option) *Entity {
	return &Entity{
		ID:     id,
		Name:   name,
		Rating: rating.Initial,
		Ledger: ledger.New(opts...),
	}
}

// SubjectID identifies the entity to the trust adapter.
func (e *Entity) SubjectID() string { return e.ID }

// CurrentRating returns the stored rating.
func (e *Entity) CurrentRating() int { return e.Rating }

// SetRating stores a new rating.
func (e *Entity) SetRating(v int) { e.Rating = v }

// SeenAndRecord consults the entity's ledger, creating it on first use.
func (e *Entity) SeenAndRecord(sig string) bool {
	if e.Ledger == nil {
		e.Ledger = ledger.New()
	}
	return e.Ledger.SeenAndRecord(sig)
}

// Forget releases sig so the same trigger can be applied again.
func (e *Entity) Forget(sig string) {
	if e.Ledger != nil {
		e.Ledger.Unmark(sig)
	}
}

// Mode returns the entity's current mode.
func (e *Entity) Mode() rating.Mode { return rating.ModeOf(e.Rating) }

// Clone returns a deep copy safe to mutate independently.
func (e *Entity) Clone() *Entity {
	c := *e
	if e.Ledger != nil {
		c.Ledger = e.Ledger.Clone()
	} else {
		c.Ledger = ledger.New()
	}
	return &c
}
