// Package protocol parses the one-line lecture commands and turns them into
// store and compaction calls.
package protocol

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/me/timetable/internal/schedule"
	"github.com/me/timetable/pkg/model"
)

// Handler dispatches requests against a shared store.
type Handler struct {
	store     *schedule.Store
	compactor *schedule.Compactor
	clock     clock.Clock
	logger    *slog.Logger
}

// NewHandler creates a Handler. clk decides what "the current week" is;
// pass clock.New() for wall-clock time.
func NewHandler(store *schedule.Store, compactor *schedule.Compactor, clk clock.Clock, logger *slog.Logger) *Handler {
	if clk == nil {
		clk = clock.New()
	}
	return &Handler{
		store:     store,
		compactor: compactor,
		clock:     clk,
		logger:    logger.With("component", "protocol"),
	}
}

// Handle executes one request line and returns the reply text. The only
// error it returns is *model.UnsupportedActionError; every other failure
// is reported in the reply.
func (h *Handler) Handle(ctx context.Context, line string) (string, error) {
	if strings.TrimSpace(line) == "" {
		return "Error: Empty request.", nil
	}

	req := ParseRequest(line)
	h.logger.Debug("request", "action", req.Action, "fields", len(req.Fields))

	switch req.Action {
	case ActionAdd:
		return h.add(ctx, req), nil
	case ActionRemove:
		return h.remove(ctx, req), nil
	case ActionDisplaySchedule:
		return schedule.RenderWeek(h.store, h.clock.Now()), nil
	case ActionEarlyLectures:
		return h.earlyLectures(ctx), nil
	case ActionStop:
		return Terminate, nil
	default:
		return "", &model.UnsupportedActionError{Action: req.Action}
	}
}

// Respond is Handle with the unsupported-action error folded into the reply.
func (h *Handler) Respond(ctx context.Context, line string) string {
	resp, err := h.Handle(ctx, line)
	if err == nil {
		return resp
	}
	var unsupported *model.UnsupportedActionError
	if errors.As(err, &unsupported) {
		return "Exception: " + unsupported.Error()
	}
	h.logger.Error("request failed", "error", err)
	return "Error: " + err.Error()
}

func (h *Handler) add(ctx context.Context, req Request) string {
	l, err := req.Lecture()
	if err != nil {
		return "Error: Invalid format. Use add,date,time,room,module"
	}
	if err := h.store.Add(ctx, l); err != nil {
		return replyFor(err)
	}
	return fmt.Sprintf("Lecture scheduled: %s at %s on %s in %s", l.Module, l.Time, l.Date, l.Room)
}

func (h *Handler) remove(ctx context.Context, req Request) string {
	l, err := req.Lecture()
	if err != nil {
		return "Error: Invalid format. Use remove,date,time,room,module"
	}
	if err := h.store.Remove(ctx, l); err != nil {
		return replyFor(err)
	}
	return fmt.Sprintf("Lecture removed: %s at %s on %s in room %s", l.Module, l.Time, l.Date, l.Room)
}

func (h *Handler) earlyLectures(ctx context.Context) string {
	now := h.clock.Now()
	h.compactor.CompactWeek(ctx, now)
	return "All lectures shifted to earlier slots where possible.\n" + schedule.RenderWeek(h.store, now)
}

// replyFor renders store errors. Clash and not-found errors carry their
// client-facing text.
func replyFor(err error) string {
	var clash *model.ClashError
	var notFound *model.NotFoundError
	switch {
	case errors.As(err, &clash):
		return clash.Error()
	case errors.As(err, &notFound):
		return notFound.Error()
	default:
		return "Error: " + err.Error()
	}
}
