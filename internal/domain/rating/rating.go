// Package rating holds the pure trust/distrust rating arithmetic.
//
// A rating lives in [-10, -1] ∪ [1, 10]. Zero is never produced: stepping
// up from -1 lands on 1 and stepping down from 1 lands on -1. The sign of the
// rating is its Mode.
package rating

import "fmt"

// Rating bounds.
const (
	Min     = -10
	Max     = 10
	Initial = 1
)

// Mode is the sign-derived classification of a rating.
type Mode int

const (
	Trust Mode = iota
	Distrust
)

// String returns the lower-case mode name.
func (m Mode) String() string {
	if m == Distrust {
		return "distrust"
	}
	return "trust"
}

// MarshalText encodes the mode by name.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText decodes a mode name.
func (m *Mode) UnmarshalText(b []byte) error {
	switch string(b) {
	case "trust":
		*m = Trust
	case "distrust":
		*m = Distrust
	default:
		return fmt.Errorf("unknown mode %q", b)
	}
	return nil
}

// ModeOf returns Distrust for negative ratings and Trust otherwise.
func ModeOf(v int) Mode {
	if v < 0 {
		return Distrust
	}
	return Trust
}

// NextUp returns the rating one step above current, skipping zero.
func NextUp(current int) int {
	if current < 0 {
		next := current + 1
		if next == 0 {
			return 1
		}
		return next
	}
	return current + 1
}

// NextDown returns the rating one step below current, skipping zero.
func NextDown(current int) int {
	if current > 0 {
		next := current - 1
		if next == 0 {
			return -1
		}
		return next
	}
	return current - 1
}

// Clamp bounds v to [Min, Max]. A zero input maps to Initial so a stray zero
// can never be persisted.
func Clamp(v int) int {
	switch {
	case v > Max:
		return Max
	case v < Min:
		return Min
	case v == 0:
		return Initial
	}
	return v
}

// Valid reports whether v is a reachable rating.
func Valid(v int) bool {
	return v != 0 && v >= Min && v <= Max
}

// Abs returns |v|.
func Abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
