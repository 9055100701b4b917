// Package schedule holds the shared lecture timetable and the algorithms
// that read and rearrange it.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/me/timetable/internal/logging"
	"github.com/me/timetable/internal/persist"
	"github.com/me/timetable/pkg/model"
)

// Store is the in-memory timetable keyed by (date, time). A single mutex
// guards the whole map; every check-then-act sequence and the flush that
// follows a mutation run inside one critical section.
type Store struct {
	mu      sync.Mutex
	slots   map[model.Key]model.Booking
	gateway persist.Gateway
	events  logging.Sink
	logger  *slog.Logger
}

// NewStore creates an empty store flushing to gw. gw may be nil, in which
// case nothing is persisted.
func NewStore(gw persist.Gateway, events logging.Sink, logger *slog.Logger) *Store {
	if events == nil {
		events = logging.Discard
	}
	return &Store{
		slots:   make(map[model.Key]model.Booking),
		gateway: gw,
		events:  events,
		logger:  logger.With("component", "store"),
	}
}

// Load replaces the store contents with what the gateway holds. On failure
// the store is left empty and the error is reported to the event sink and
// returned.
func (s *Store) Load(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.slots = make(map[model.Key]model.Booking)
	if s.gateway == nil {
		return 0, nil
	}
	lectures, err := s.gateway.Load(ctx)
	if err != nil {
		s.events.Event("Error loading schedule: " + err.Error())
		return 0, fmt.Errorf("load schedule: %w", err)
	}
	for _, l := range lectures {
		s.slots[l.Key()] = l.Booking()
	}
	s.logger.Info("schedule loaded", "lectures", len(s.slots))
	return len(s.slots), nil
}

// Add inserts l unless it clashes with the lecture already at its slot.
// A lecture at the same slot in the same room is a room clash; one with a
// different module is a module clash. Same module in a different room is
// accepted and replaces the stored room.
func (s *Store) Add(ctx context.Context, l model.Lecture) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := l.Key()
	if existing, ok := s.slots[key]; ok {
		if existing.SameRoom(l.Room) {
			return &model.ClashError{Kind: model.ClashRoom, Key: key, Existing: existing}
		}
		if !existing.SameModule(l.Module) {
			return &model.ClashError{Kind: model.ClashModule, Key: key, Existing: existing}
		}
	}
	s.slots[key] = l.Booking()
	s.saveLocked(ctx)
	return nil
}

// Remove deletes the lecture at l's slot if its room and module match.
func (s *Store) Remove(ctx context.Context, l model.Lecture) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := l.Key()
	existing, ok := s.slots[key]
	if !ok {
		return &model.NotFoundError{Key: key, Room: l.Room}
	}
	if !existing.SameRoom(l.Room) || !existing.SameModule(l.Module) {
		return &model.NotFoundError{Key: key, Room: l.Room, Mismatch: true}
	}
	delete(s.slots, key)
	s.saveLocked(ctx)
	return nil
}

// Get returns the booking at key.
func (s *Store) Get(key model.Key) (model.Booking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.slots[key]
	return b, ok
}

// Len returns the number of stored lectures.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slots)
}

// Snapshot returns every stored lecture ordered by date, then time.
func (s *Store) Snapshot() []model.Lecture {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Week returns the lectures dated within [monday, friday] ordered by date,
// then time, and whether the store as a whole is empty. Entries whose date
// does not parse are left out of the week.
func (s *Store) Week(monday, friday time.Time) (lectures []model.Lecture, storeEmpty bool) {
	from := monday.Format(model.DateLayout)
	to := friday.Format(model.DateLayout)

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.slots) == 0 {
		return nil, true
	}
	for _, l := range s.snapshotLocked() {
		if _, err := time.Parse(model.DateLayout, l.Date); err != nil {
			s.logger.Debug("skipping unparsable date", "date", l.Date)
			continue
		}
		if l.Date >= from && l.Date <= to {
			lectures = append(lectures, l)
		}
	}
	return lectures, false
}

// TimesOn returns the sorted times of the lectures dated date.
func (s *Store) TimesOn(date string) []string {
	s.mu.Lock()
	var times []string
	for k := range s.slots {
		if k.Date == date {
			times = append(times, k.Time)
		}
	}
	s.mu.Unlock()

	sort.Strings(times)
	return times
}

// MoveResult reports what Move did.
type MoveResult int

const (
	Moved    MoveResult = iota
	Vanished            // nothing at the old slot any more
	Occupied            // the target slot is taken
)

// Move relocates the lecture at (date, from) to (date, to). The old slot is
// re-checked under the lock, and an occupied target is never overwritten.
// Move does not flush; callers flush once their batch is complete.
func (s *Store) Move(date, from, to string) MoveResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	oldKey := model.Key{Date: date, Time: from}
	newKey := model.Key{Date: date, Time: to}
	b, ok := s.slots[oldKey]
	if !ok {
		return Vanished
	}
	if _, taken := s.slots[newKey]; taken {
		return Occupied
	}
	delete(s.slots, oldKey)
	s.slots[newKey] = b
	return Moved
}

// Flush writes the full store to the gateway.
func (s *Store) Flush(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveLocked(ctx)
}

// saveLocked persists the current contents. Failures are reported and
// otherwise ignored: the in-memory store stays authoritative.
func (s *Store) saveLocked(ctx context.Context) {
	if s.gateway == nil {
		return
	}
	if err := s.gateway.Save(ctx, s.snapshotLocked()); err != nil {
		s.logger.Error("save schedule", "error", err)
		s.events.Event("Error: Could not save schedule - " + err.Error())
	}
}

func (s *Store) snapshotLocked() []model.Lecture {
	out := make([]model.Lecture, 0, len(s.slots))
	for k, b := range s.slots {
		out = append(out, model.NewLecture(k, b))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key().Less(out[j].Key())
	})
	return out
}
