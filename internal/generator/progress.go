package generator

import (
	"context"
	"database/sql"
	"fmt"
)

// ProgressStore persists per-series generation signatures in SQLite so
// repeated runs skip unchanged series and interrupted runs resume safely.
// A missing row simply means "never generated".
type ProgressStore struct {
	db *sql.DB
}

// NewProgressStore creates a progress store on an open database.
func NewProgressStore(db *sql.DB) *ProgressStore {
	return &ProgressStore{db: db}
}

// Get returns the last recorded signature for a series, or false.
func (p *ProgressStore) Get(ctx context.Context, site, seriesKey string) (string, bool) {
	var sig string
	err := p.db.QueryRowContext(ctx,
		"SELECT signature FROM generator_progress WHERE site = ? AND series_key = ?",
		site, seriesKey,
	).Scan(&sig)
	if err != nil {
		// Corrupt or missing rows are treated as "never generated";
		// regeneration is always safe.
		return "", false
	}
	return sig, true
}

// Put records a series' signature. Called only after the subtree write
// completed, so a crash mid-series leaves the row absent and the series
// is retried in full on the next run.
func (p *ProgressStore) Put(ctx context.Context, site, seriesKey, signature string) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO generator_progress (site, series_key, signature, generated_at)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(site, series_key) DO UPDATE
		 SET signature = excluded.signature, generated_at = excluded.generated_at`,
		site, seriesKey, signature,
	)
	if err != nil {
		return fmt.Errorf("progress put: %w", err)
	}
	return nil
}

// Clear drops all progress, or one site's when site is non-empty.
// Returns the number of rows removed.
func (p *ProgressStore) Clear(ctx context.Context, site string) (int64, error) {
	var (
		res sql.Result
		err error
	)
	if site == "" {
		res, err = p.db.ExecContext(ctx, "DELETE FROM generator_progress")
	} else {
		res, err = p.db.ExecContext(ctx, "DELETE FROM generator_progress WHERE site = ?", site)
	}
	if err != nil {
		return 0, fmt.Errorf("progress clear: %w", err)
	}
	return res.RowsAffected()
}
