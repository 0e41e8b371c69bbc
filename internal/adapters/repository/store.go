// Package repository persists entities and serves them as a roster.
package repository

import (
	"context"

	"github.com/okian/monopad/internal/domain/model"
	"github.com/okian/monopad/internal/domain/types"
)

// Entry is a roster row.
type Entry = types.Entry

// Store provides read/write access to entities.
type Store interface {
	// Get returns a copy of the entity. Returns ErrNotFound if unknown.
	Get(ctx context.Context, id string) (*model.Entity, error)

	// Save inserts or replaces the entity, ledger included.
	Save(ctx context.Context, e *model.Entity) error

	// Delete removes the entity. Returns ErrNotFound if unknown.
	Delete(ctx context.Context, id string) error

	// Roster returns up to limit rows ordered by rating desc, then id asc.
	// limit 0 returns every row.
	Roster(ctx context.Context, limit int) ([]Entry, error)

	// Rank returns the roster row of one entity.
	Rank(ctx context.Context, id string) (Entry, error)

	// Count returns the number of stored entities.
	Count(ctx context.Context) (int, error)
}

// assignRanks gives rows sharing a rating the same rank and numbers the
// ranks consecutively. Rows must already be ordered.
func assignRanks(entries []Entry) {
	rank := 0
	for i := range entries {
		if i == 0 || entries[i].Rating != entries[i-1].Rating {
			rank++
		}
		entries[i].Rank = rank
	}
}

func entryOf(e *model.Entity) Entry {
	return Entry{EntityID: e.ID, Name: e.Name, Rating: e.Rating, Mode: e.Mode()}
}
