package schedule

import (
	"strings"
	"time"

	"github.com/me/timetable/pkg/model"
)

// NoLecturesMessage is shown when the store holds no lectures at all.
const NoLecturesMessage = "No scheduled lectures."

const weekHeader = "Week Schedule:\nDATE       | TIME  | ROOM   | MODULE\n"

// WeekBounds returns midnight on the Monday and Friday of now's week, in
// now's location. Weeks start on Monday, so a Sunday belongs to the week
// that began six days earlier.
func WeekBounds(now time.Time) (monday, friday time.Time) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	offset := (int(day.Weekday()) + 6) % 7
	monday = day.AddDate(0, 0, -offset)
	friday = monday.AddDate(0, 0, 4)
	return monday, friday
}

// Weekdays returns the dates Monday through Friday of now's week.
func Weekdays(now time.Time) []string {
	monday, _ := WeekBounds(now)
	days := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		days = append(days, monday.AddDate(0, 0, i).Format(model.DateLayout))
	}
	return days
}

// RenderWeek renders the current week of s as a table. The empty-store
// message is chosen on the whole store, so a store holding only lectures
// outside this week renders a header with no rows.
func RenderWeek(s *Store, now time.Time) string {
	monday, friday := WeekBounds(now)
	lectures, empty := s.Week(monday, friday)
	if empty {
		return NoLecturesMessage
	}
	return FormatTable(lectures)
}

// FormatTable renders lectures in the order given under the week header.
func FormatTable(lectures []model.Lecture) string {
	var sb strings.Builder
	sb.WriteString(weekHeader)
	for _, l := range lectures {
		sb.WriteString(l.Date)
		sb.WriteString(" | ")
		sb.WriteString(l.Time)
		sb.WriteString(" | ")
		sb.WriteString(l.Room)
		sb.WriteString(" | ")
		sb.WriteString(l.Module)
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String())
}
