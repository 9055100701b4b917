// Package persist implements the load/save contract the schedule store uses
// to survive restarts.
package persist

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/me/timetable/internal/config"
	"github.com/me/timetable/pkg/model"
)

// Gateway loads the schedule at startup and is flushed after every mutation.
// Load on absent backing storage returns an empty slice and no error.
// Save overwrites whatever was stored before.
type Gateway interface {
	Load(ctx context.Context) ([]model.Lecture, error)
	Save(ctx context.Context, lectures []model.Lecture) error
}

// Open creates the Gateway selected by cfg.Backend.
func Open(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (Gateway, error) {
	switch cfg.Backend {
	case config.BackendFile, "":
		return NewFileGateway(cfg.Path, logger), nil
	case config.BackendSQLite:
		gw, err := NewSQLiteGateway(cfg.Path, logger)
		if err != nil {
			return nil, err
		}
		if err := gw.Migrate(ctx); err != nil {
			gw.Close()
			return nil, fmt.Errorf("migrate %s: %w", cfg.Path, err)
		}
		return gw, nil
	case config.BackendS3:
		return NewS3Gateway(ctx, cfg, logger)
	case config.BackendMemory:
		return NewMemoryGateway(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// Close releases gw's resources if it holds any.
func Close(gw Gateway) error {
	if c, ok := gw.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// sorted returns a copy of lectures ordered by date, then time.
func sorted(lectures []model.Lecture) []model.Lecture {
	out := append([]model.Lecture(nil), lectures...)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key().Less(out[j].Key())
	})
	return out
}

// encodeLines writes one "date,time,room,module" line per lecture, no header.
func encodeLines(w io.Writer, lectures []model.Lecture) error {
	bw := bufio.NewWriter(w)
	for _, l := range sorted(lectures) {
		if _, err := fmt.Fprintf(bw, "%s,%s,%s,%s\n", l.Date, l.Time, l.Room, l.Module); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// decodeLines parses the flat format. Lines without exactly four fields
// are skipped; fields are trimmed.
func decodeLines(r io.Reader) ([]model.Lecture, error) {
	var lectures []model.Lecture
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Split(sc.Text(), ",")
		if len(fields) != 4 {
			continue
		}
		lectures = append(lectures, model.Lecture{
			Date:   strings.TrimSpace(fields[0]),
			Time:   strings.TrimSpace(fields[1]),
			Room:   strings.TrimSpace(fields[2]),
			Module: strings.TrimSpace(fields[3]),
		})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return lectures, nil
}
