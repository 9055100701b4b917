package model

import (
	"fmt"
	"strconv"
	"strings"
)

// DateLayout is the layout of lecture dates (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// FirstSlot is the earliest hourly slot of a teaching day.
const FirstSlot = "09:00"

// Slots lists the nine hourly slots of a teaching day, 09:00 through 17:00.
var Slots = []string{"09:00", "10:00", "11:00", "12:00", "13:00", "14:00", "15:00", "16:00", "17:00"}

// Key identifies a schedule slot. Time is zero-padded HH:MM text, so
// lexicographic order on (Date, Time) is chronological order.
type Key struct {
	Date string
	Time string
}

func (k Key) String() string {
	return k.Date + " " + k.Time
}

// Less orders keys by date, then time.
func (k Key) Less(o Key) bool {
	if k.Date != o.Date {
		return k.Date < o.Date
	}
	return k.Time < o.Time
}

// Booking is what occupies a slot.
type Booking struct {
	Room   string
	Module string
}

// SameRoom reports whether the rooms match, ignoring case.
func (b Booking) SameRoom(room string) bool {
	return strings.EqualFold(b.Room, room)
}

// SameModule reports whether the modules match, ignoring case.
func (b Booking) SameModule(module string) bool {
	return strings.EqualFold(b.Module, module)
}

// Lecture is one scheduled lecture: a booking placed in a slot.
type Lecture struct {
	Date   string `json:"date"`
	Time   string `json:"time"`
	Room   string `json:"room"`
	Module string `json:"module"`
}

// Key returns the slot the lecture occupies.
func (l Lecture) Key() Key {
	return Key{Date: l.Date, Time: l.Time}
}

// Booking returns the room and module of the lecture.
func (l Lecture) Booking() Booking {
	return Booking{Room: l.Room, Module: l.Module}
}

// NewLecture joins a slot and a booking.
func NewLecture(k Key, b Booking) Lecture {
	return Lecture{Date: k.Date, Time: k.Time, Room: b.Room, Module: b.Module}
}

// IsSlot reports whether t is one of the nine grid slots.
func IsSlot(t string) bool {
	for _, s := range Slots {
		if s == t {
			return true
		}
	}
	return false
}

// NextHour returns the HH:00 slot one hour after t. There is no upper
// bound: "17:00" yields "18:00". If the hour cannot be parsed, t is
// returned unchanged.
func NextHour(t string) string {
	if len(t) < 2 {
		return t
	}
	hour, err := strconv.Atoi(t[:2])
	if err != nil {
		return t
	}
	return fmt.Sprintf("%02d:00", hour+1)
}
