package triggerfeed

import (
	"time"

	"github.com/okian/monopad/internal/domain/model"
)

// Config holds configuration for a feed run.
type Config struct {
	BaseURL  string        // Base URL of the service
	Entities int           // Number of entities to register
	Triggers int           // Number of distinct triggers to submit
	Replays  int           // Number of triggers submitted a second time
	Workers  int           // Number of concurrent workers
	Timeout  time.Duration // HTTP request timeout
	Verbose  bool          // Enable verbose logging
}

// Trigger is one submission to POST /triggers.
type Trigger = model.Trigger

// Entry mirrors a roster row.
type Entry struct {
	Rank     int    `json:"rank"`
	EntityID string `json:"entity_id"`
	Name     string `json:"name"`
	Rating   int    `json:"rating"`
}

// AckResponse is the body of a POST /triggers answer.
type AckResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
	Current   int    `json:"current"`
}

// Stats holds run statistics.
type Stats struct {
	EntitiesRegistered int
	TriggersSubmitted  int
	TriggersAccepted   int
	TriggersUnchanged  int
	TriggersDuplicate  int
	TriggersFailed     int
	Mismatches         int
	RosterEntries      int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
