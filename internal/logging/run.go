package logging

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// #region log-run
// LogRun writes a run entry to the run_log table.
func LogRun(db *sql.DB, entry RunEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO run_log (table_id, kind, population, decision, reason, details_json, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		nullIfEmpty(entry.TableID),
		entry.Kind,
		entry.Population,
		entry.Decision,
		nullIfEmpty(entry.Reason),
		nullIfEmpty(entry.DetailsJSON),
		entry.Duration.Milliseconds(),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log run: %w", err)
	}
	return nil
}

// #endregion log-run

// EncodeDetails renders d for RunEntry.DetailsJSON.
func EncodeDetails(d RunDetails) string {
	b, err := json.Marshal(d)
	if err != nil {
		return ""
	}
	return string(b)
}

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
