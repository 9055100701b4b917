package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/me/timetable/internal/logging"
	"github.com/me/timetable/pkg/model"
)

// Move records one lecture shifted to an earlier slot.
type Move struct {
	Date string
	From string
	To   string
}

// Compactor shifts each weekday's lectures to the earliest free slots,
// keeping their relative order.
type Compactor struct {
	store  *Store
	events logging.Sink
	logger *slog.Logger

	beforeMove func(date, from, to string) // test hook, runs outside the store lock
}

// NewCompactor creates a compactor working on store.
func NewCompactor(store *Store, events logging.Sink, logger *slog.Logger) *Compactor {
	if events == nil {
		events = logging.Discard
	}
	return &Compactor{
		store:  store,
		events: events,
		logger: logger.With("component", "compactor"),
	}
}

// CompactWeek compacts Monday through Friday of now's week, one goroutine
// per day, waits for all of them, then flushes the store once.
// The returned moves are grouped by day in weekday order.
func (c *Compactor) CompactWeek(ctx context.Context, now time.Time) []Move {
	c.events.Event("Early lectures command received. Rescheduling lectures to earlier slots...")

	days := Weekdays(now)
	perDay := make([][]Move, len(days))

	var wg sync.WaitGroup
	for i, date := range days {
		wg.Add(1)
		go func(i int, date string) {
			defer wg.Done()
			perDay[i] = c.CompactDay(date)
		}(i, date)
	}
	wg.Wait()

	c.store.Flush(ctx)
	c.events.Event("Early lectures rescheduling completed for the week.")

	var moves []Move
	for _, m := range perDay {
		moves = append(moves, m...)
	}
	c.logger.Info("week compacted", "from", days[0], "to", days[len(days)-1], "moves", len(moves))
	return moves
}

// CompactDay walks date's lectures in time order with a cursor starting at
// 09:00. A lecture later than the cursor moves to the cursor; otherwise it
// stays and the cursor continues from it. The cursor has no upper bound.
func (c *Compactor) CompactDay(date string) []Move {
	times := c.store.TimesOn(date)
	if len(times) == 0 {
		return nil
	}

	var moves []Move
	next := model.FirstSlot
	for _, t := range times {
		if t <= next {
			next = model.NextHour(t)
			continue
		}
		if c.beforeMove != nil {
			c.beforeMove(date, t, next)
		}
		switch c.store.Move(date, t, next) {
		case Moved:
			moves = append(moves, Move{Date: date, From: t, To: next})
			c.events.Event(fmt.Sprintf("Moved lecture on %s from %s to %s", date, t, next))
			next = model.NextHour(next)
		case Occupied:
			c.logger.Debug("target slot taken, lecture kept", "date", date, "time", t, "target", next)
			next = model.NextHour(t)
		case Vanished:
			c.logger.Debug("lecture removed before move", "date", date, "time", t)
		}
	}
	return moves
}
