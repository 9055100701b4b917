package persist

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/me/timetable/pkg/model"

	_ "modernc.org/sqlite"
)

// SQLiteGateway stores the schedule in a SQLite database.
type SQLiteGateway struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteGateway opens (or creates) a SQLite database at dbPath.
// Use ":memory:" for an in-memory database.
func NewSQLiteGateway(dbPath string, logger *slog.Logger) (*SQLiteGateway, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}

	return &SQLiteGateway{
		db:     db,
		logger: logger.With("component", "persist", "backend", "sqlite"),
	}, nil
}

// Close closes the underlying database connection.
func (g *SQLiteGateway) Close() error {
	return g.db.Close()
}

// Migrate creates the lecture table and indexes.
func (g *SQLiteGateway) Migrate(ctx context.Context) error {
	g.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, g.db)
}

func (g *SQLiteGateway) Load(ctx context.Context) ([]model.Lecture, error) {
	g.logger.Debug("sql", "op", "select", "table", "lectures")

	rows, err := g.db.QueryContext(ctx,
		`SELECT date, time, room, module FROM lectures ORDER BY date, time`)
	if err != nil {
		return nil, fmt.Errorf("select lectures: %w", err)
	}
	defer rows.Close()

	var lectures []model.Lecture
	for rows.Next() {
		var l model.Lecture
		if err := rows.Scan(&l.Date, &l.Time, &l.Room, &l.Module); err != nil {
			return nil, fmt.Errorf("scan lecture: %w", err)
		}
		lectures = append(lectures, l)
	}
	return lectures, rows.Err()
}

// Save replaces the table contents in one transaction.
func (g *SQLiteGateway) Save(ctx context.Context, lectures []model.Lecture) error {
	g.logger.Debug("sql", "op", "replace", "table", "lectures", "count", len(lectures))

	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM lectures`); err != nil {
		return fmt.Errorf("clear lectures: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO lectures (date, time, room, module) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, l := range lectures {
		if _, err := stmt.ExecContext(ctx, l.Date, l.Time, l.Room, l.Module); err != nil {
			return fmt.Errorf("insert lecture %s: %w", l.Key(), err)
		}
	}
	return tx.Commit()
}
