package model

import (
	"errors"
	"strings"
)

// ErrUnknownDirection is returned when a direction string cannot be parsed.
var ErrUnknownDirection = errors.New("unknown direction")

// Direction is the sense of a rating change.
type Direction string

const (
	Increase Direction = "increase"
	Decrease Direction = "decrease"
)

// Valid reports whether d is one of the two known directions.
func (d Direction) Valid() bool {
	return d == Increase || d == Decrease
}

// ParseDirection accepts increase/decrease and the common up/down aliases.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "increase", "up", "+":
		return Increase, nil
	case "decrease", "down", "-":
		return Decrease, nil
	}
	return "", ErrUnknownDirection
}

// Trigger is one rating-change request delivered by a trigger source.
// Signature identifies the originating marker for idempotency.
type Trigger struct {
	EntityID  string    `json:"entity_id"`
	Signature string    `json:"signature"`
	Direction Direction `json:"direction"`
}
