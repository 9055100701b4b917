package protocol

import (
	"fmt"
	"strings"

	"github.com/me/timetable/pkg/model"
)

// Actions understood by the server.
const (
	ActionAdd             = "add"
	ActionRemove          = "remove"
	ActionDisplaySchedule = "displayschedule"
	ActionEarlyLectures   = "earlylectures"
	ActionStop            = "stop"
)

// Terminate is the reply to "stop"; clients end their session on seeing it.
const Terminate = "TERMINATE"

// Request is one parsed command line.
type Request struct {
	Action string   // trimmed, lower-cased
	Fields []string // everything after the action, untrimmed
}

// ParseRequest splits line on commas, keeping empty fields.
func ParseRequest(line string) Request {
	parts := strings.Split(line, ",")
	return Request{
		Action: strings.ToLower(strings.TrimSpace(parts[0])),
		Fields: parts[1:],
	}
}

// Lecture reads date, time, room and module from the first four fields.
// Extra fields are ignored; missing or blank ones are a format error.
func (r Request) Lecture() (model.Lecture, error) {
	if len(r.Fields) < 4 {
		return model.Lecture{}, fmt.Errorf("%s needs 4 fields, got %d: %w", r.Action, len(r.Fields), model.ErrInvalidFormat)
	}
	l := model.Lecture{
		Date:   strings.TrimSpace(r.Fields[0]),
		Time:   strings.TrimSpace(r.Fields[1]),
		Room:   strings.TrimSpace(r.Fields[2]),
		Module: strings.TrimSpace(r.Fields[3]),
	}
	if l.Date == "" || l.Time == "" || l.Room == "" || l.Module == "" {
		return model.Lecture{}, fmt.Errorf("%s has a blank field: %w", r.Action, model.ErrInvalidFormat)
	}
	return l, nil
}

// Format builds the wire line for action and fields.
func Format(action string, fields ...string) string {
	return strings.Join(append([]string{action}, fields...), ",")
}
