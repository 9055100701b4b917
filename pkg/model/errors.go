package model

import (
	"errors"
	"fmt"
)

// ErrInvalidFormat is returned when a request carries too few or blank fields.
var ErrInvalidFormat = errors.New("invalid format")

// UnsupportedActionError is returned when a request names an unknown action.
type UnsupportedActionError struct {
	Action string
}

func (e *UnsupportedActionError) Error() string {
	return fmt.Sprintf("Unsupported action: '%s'", e.Action)
}

// ClashKind distinguishes the two ways an insert can conflict.
type ClashKind string

const (
	ClashRoom   ClashKind = "ROOM"
	ClashModule ClashKind = "MODULE"
)

// ClashError is returned when an insert conflicts with an existing lecture.
type ClashError struct {
	Kind     ClashKind
	Key      Key
	Existing Booking
}

func (e *ClashError) Error() string {
	switch e.Kind {
	case ClashRoom:
		return fmt.Sprintf("Clash: Room already booked at %s on %s", e.Key.Time, e.Key.Date)
	default:
		return fmt.Sprintf("Clash: Lecture already Scheduled (%s) at %s on %s", e.Existing.Module, e.Key.Time, e.Key.Date)
	}
}

// NotFoundError is returned when a removal names no stored lecture.
// Mismatch is set when the slot is occupied by a different room or module.
type NotFoundError struct {
	Key      Key
	Room     string
	Mismatch bool
}

func (e *NotFoundError) Error() string {
	if e.Mismatch {
		return fmt.Sprintf("Error: No matching lecture found at %s on %s in room %s", e.Key.Time, e.Key.Date, e.Room)
	}
	return fmt.Sprintf("Error: No lecture found at %s on %s", e.Key.Time, e.Key.Date)
}
