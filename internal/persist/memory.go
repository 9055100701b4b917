package persist

import (
	"context"
	"sync"

	"github.com/me/timetable/pkg/model"
)

// MemoryGateway keeps the saved schedule in process memory.
type MemoryGateway struct {
	mu       sync.Mutex
	lectures []model.Lecture
	saves    int
	failWith error
}

// NewMemoryGateway returns a gateway seeded with lectures.
func NewMemoryGateway(lectures ...model.Lecture) *MemoryGateway {
	return &MemoryGateway{lectures: append([]model.Lecture(nil), lectures...)}
}

func (g *MemoryGateway) Load(ctx context.Context) ([]model.Lecture, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]model.Lecture(nil), g.lectures...), nil
}

func (g *MemoryGateway) Save(ctx context.Context, lectures []model.Lecture) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failWith != nil {
		return g.failWith
	}
	g.lectures = sorted(lectures)
	g.saves++
	return nil
}

// Saves returns how many successful saves have happened.
func (g *MemoryGateway) Saves() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.saves
}

// Lectures returns the most recently saved schedule.
func (g *MemoryGateway) Lectures() []model.Lecture {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]model.Lecture(nil), g.lectures...)
}

// FailWith makes subsequent saves return err; nil restores normal saves.
func (g *MemoryGateway) FailWith(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failWith = err
}
