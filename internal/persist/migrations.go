package persist

import (
	"context"
	"database/sql"
)

// schema is the lecture table DDL, applied in order on every Migrate.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS lectures (
		date   TEXT NOT NULL,
		time   TEXT NOT NULL,
		room   TEXT NOT NULL,
		module TEXT NOT NULL,
		PRIMARY KEY (date, time)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_lectures_date ON lectures(date)`,
}

func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
