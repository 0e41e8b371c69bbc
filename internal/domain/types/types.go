// Package types contains common types used across the application
package types

import "github.com/okian/monopad/internal/domain/rating"

// Entry represents a roster row. Entities sharing a rating share a rank.
type Entry struct {
	Rank     int         `json:"rank"`
	EntityID string      `json:"entity_id"`
	Name     string      `json:"name"`
	Rating   int         `json:"rating"`
	Mode     rating.Mode `json:"mode"`
}

// Stats is the service overview served on /stats.
type Stats struct {
	Entities  int    `json:"entities"`
	Pending   int    `json:"pending"`
	Animating bool   `json:"animating"`
	Current   string `json:"current,omitempty"`
	Lingering string `json:"lingering,omitempty"`
	Overlay   int    `json:"overlay_clients"`
}
