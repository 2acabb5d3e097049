package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mamadbah2/flockage/internal/agecalc"
	"github.com/mamadbah2/flockage/internal/domain/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS age_snapshots (
	date        TEXT NOT NULL,
	flock       TEXT NOT NULL,
	hatch_date  TEXT NOT NULL,
	total_days  INTEGER NOT NULL,
	weeks       INTEGER NOT NULL,
	extra_days  INTEGER NOT NULL,
	created_at  TEXT NOT NULL,
	PRIMARY KEY (date, flock)
);
CREATE INDEX IF NOT EXISTS idx_age_snapshots_flock ON age_snapshots(flock);
`

// Repository stores daily age snapshots in a local SQLite file.
type Repository struct {
	db *sql.DB
}

// Open opens (or creates) the archive database at path.
func Open(ctx context.Context, path string) (*Repository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// SQLite works best with a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}
	return &Repository{db: db}, nil
}

// SaveAgeSnapshots upserts one row per (date, flock).
func (r *Repository) SaveAgeSnapshots(ctx context.Context, snapshots []models.AgeSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO age_snapshots (date, flock, hatch_date, total_days, weeks, extra_days, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date, flock) DO UPDATE SET
			hatch_date = excluded.hatch_date,
			total_days = excluded.total_days,
			weeks = excluded.weeks,
			extra_days = excluded.extra_days,
			created_at = excluded.created_at`)
	if err != nil {
		return fmt.Errorf("prepare snapshot insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range snapshots {
		if _, err := stmt.ExecContext(ctx,
			s.Date.Format(agecalc.DateLayout),
			s.Flock,
			s.HatchDate.Format(agecalc.DateLayout),
			s.TotalDays, s.Weeks, s.ExtraDays,
			s.CreatedAt.UTC().Format(time.RFC3339),
		); err != nil {
			return fmt.Errorf("insert snapshot %s/%s: %w", s.Date.Format(agecalc.DateLayout), s.Flock, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshots: %w", err)
	}
	return nil
}

// History returns the archived snapshots of one flock, oldest first.
func (r *Repository) History(ctx context.Context, flock string) ([]models.AgeSnapshot, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT date, flock, hatch_date, total_days, weeks, extra_days, created_at
		FROM age_snapshots WHERE flock = ? ORDER BY date`, flock)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []models.AgeSnapshot
	for rows.Next() {
		var (
			s                      models.AgeSnapshot
			date, hatch, createdAt string
		)
		if err := rows.Scan(&date, &s.Flock, &hatch, &s.TotalDays, &s.Weeks, &s.ExtraDays, &createdAt); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		if s.Date, err = agecalc.ParseDate(date); err != nil {
			return nil, err
		}
		if s.HatchDate, err = agecalc.ParseDate(hatch); err != nil {
			return nil, err
		}
		if s.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("parse snapshot created_at: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Close closes the database.
func (r *Repository) Close(context.Context) error {
	return r.db.Close()
}
