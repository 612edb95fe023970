package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/balance-strategy/internal/strategy"
)

// ErrMissingTable means no strategy table has been saved yet. Callers should
// ask for the table to be regenerated rather than retry.
var ErrMissingTable = errors.New("store: no strategy table saved")

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS strategy_tables (
	table_id    TEXT PRIMARY KEY,
	population  INTEGER NOT NULL,
	signatures  INTEGER NOT NULL,
	layouts     INTEGER NOT NULL,
	created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS strategy_rows (
	table_id    TEXT NOT NULL,
	signature   TEXT NOT NULL,
	ordinal     INTEGER NOT NULL,
	group_a     TEXT NOT NULL,
	group_b     TEXT NOT NULL,
	worst_case  INTEGER NOT NULL,
	PRIMARY KEY (table_id, signature, ordinal),
	FOREIGN KEY (table_id) REFERENCES strategy_tables(table_id)
);

CREATE TABLE IF NOT EXISTS run_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	table_id      TEXT,
	kind          TEXT NOT NULL,
	population    INTEGER NOT NULL,
	decision      TEXT NOT NULL,
	reason        TEXT,
	details_json  TEXT,
	duration_ms   INTEGER NOT NULL,
	created_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS active_table (
	id          INTEGER PRIMARY KEY CHECK (id = 1),
	table_id    TEXT NOT NULL,
	FOREIGN KEY (table_id) REFERENCES strategy_tables(table_id)
);
`

// timeLayout is fixed width so created_at sorts as text in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// #endregion schema

// #region types
// TableRecord describes one saved table version.
type TableRecord struct {
	TableID    string
	Population int
	Signatures int
	Layouts    int
	CreatedAt  time.Time
	Active     bool
}

// #endregion types

// #region store-struct
// Store keeps versioned strategy tables in SQLite. Saving a table makes it
// the active one; older versions stay available.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for the run log.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion store-struct

// #region save
// SaveTable writes every row of t under a new version id and activates it.
func (s *Store) SaveTable(t *strategy.Table) (TableRecord, error) {
	rec := TableRecord{
		TableID:    uuid.New().String(),
		Population: t.Population,
		Signatures: t.Len(),
		Layouts:    t.LayoutCount(),
		CreatedAt:  time.Now().UTC(),
		Active:     true,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return TableRecord{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO strategy_tables (table_id, population, signatures, layouts, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.TableID, rec.Population, rec.Signatures, rec.Layouts, rec.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return TableRecord{}, fmt.Errorf("insert table: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO strategy_rows (table_id, signature, ordinal, group_a, group_b, worst_case)
		 VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return TableRecord{}, fmt.Errorf("prepare rows: %w", err)
	}
	defer stmt.Close()

	for _, sig := range t.Signatures() {
		entries, _ := t.Entries(sig)
		for i, e := range entries {
			r := strategy.EntryRecord(e)
			groupA, err := json.Marshal(r.GroupA)
			if err != nil {
				return TableRecord{}, fmt.Errorf("marshal group a: %w", err)
			}
			groupB, err := json.Marshal(r.GroupB)
			if err != nil {
				return TableRecord{}, fmt.Errorf("marshal group b: %w", err)
			}
			if _, err := stmt.Exec(rec.TableID, string(sig), i, string(groupA), string(groupB), r.WorstCaseSteps); err != nil {
				return TableRecord{}, fmt.Errorf("insert row %s/%d: %w", sig, i, err)
			}
		}
	}

	_, err = tx.Exec(
		`INSERT INTO active_table (id, table_id) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET table_id = excluded.table_id`,
		rec.TableID,
	)
	if err != nil {
		return TableRecord{}, fmt.Errorf("set active: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return TableRecord{}, fmt.Errorf("commit: %w", err)
	}
	return rec, nil
}

// #endregion save

// #region load
// ActiveID returns the id of the active table.
func (s *Store) ActiveID() (string, error) {
	var id string
	err := s.db.QueryRow(`SELECT table_id FROM active_table WHERE id = 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrMissingTable
	}
	if err != nil {
		return "", fmt.Errorf("get active: %w", err)
	}
	return id, nil
}

// LoadActive reads the active table.
func (s *Store) LoadActive() (*strategy.Table, TableRecord, error) {
	id, err := s.ActiveID()
	if err != nil {
		return nil, TableRecord{}, err
	}
	t, err := s.LoadTable(id)
	if err != nil {
		return nil, TableRecord{}, err
	}
	rec, err := s.GetTable(id)
	if err != nil {
		return nil, TableRecord{}, err
	}
	return t, rec, nil
}

// GetTable reads the metadata of one table version.
func (s *Store) GetTable(id string) (TableRecord, error) {
	var rec TableRecord
	var createdStr string
	var active sql.NullString
	err := s.db.QueryRow(
		`SELECT t.table_id, t.population, t.signatures, t.layouts, t.created_at, a.table_id
		 FROM strategy_tables t LEFT JOIN active_table a ON a.table_id = t.table_id
		 WHERE t.table_id = ?`, id,
	).Scan(&rec.TableID, &rec.Population, &rec.Signatures, &rec.Layouts, &createdStr, &active)
	if errors.Is(err, sql.ErrNoRows) {
		return TableRecord{}, fmt.Errorf("%w: version %s", ErrMissingTable, id)
	}
	if err != nil {
		return TableRecord{}, fmt.Errorf("get table %s: %w", id, err)
	}
	rec.CreatedAt, _ = time.Parse(timeLayout, createdStr)
	rec.Active = active.Valid
	return rec, nil
}

// LoadTable rebuilds one table version from its rows.
func (s *Store) LoadTable(id string) (*strategy.Table, error) {
	rec, err := s.GetTable(id)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(
		`SELECT signature, group_a, group_b, worst_case FROM strategy_rows
		 WHERE table_id = ? ORDER BY signature, ordinal`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	doc := strategy.Document{Population: rec.Population, Signatures: make(map[string][]strategy.Record)}
	for rows.Next() {
		var sig, groupA, groupB string
		var r strategy.Record
		if err := rows.Scan(&sig, &groupA, &groupB, &r.WorstCaseSteps); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if err := json.Unmarshal([]byte(groupA), &r.GroupA); err != nil {
			return nil, fmt.Errorf("unmarshal group a of %s: %w", sig, err)
		}
		if err := json.Unmarshal([]byte(groupB), &r.GroupB); err != nil {
			return nil, fmt.Errorf("unmarshal group b of %s: %w", sig, err)
		}
		doc.Signatures[sig] = append(doc.Signatures[sig], r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(doc.Signatures) != rec.Signatures {
		return nil, fmt.Errorf("table %s: %d signatures stored, %d expected", id, len(doc.Signatures), rec.Signatures)
	}
	return strategy.FromDocument(doc)
}

// #endregion load

// #region versions
// Activate points the active table at an existing version.
func (s *Store) Activate(id string) error {
	if _, err := s.GetTable(id); err != nil {
		return err
	}
	_, err := s.db.Exec(
		`INSERT INTO active_table (id, table_id) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET table_id = excluded.table_id`, id,
	)
	if err != nil {
		return fmt.Errorf("activate: %w", err)
	}
	return nil
}

// ListTables returns the most recent table versions.
func (s *Store) ListTables(limit int) ([]TableRecord, error) {
	rows, err := s.db.Query(
		`SELECT t.table_id, t.population, t.signatures, t.layouts, t.created_at, a.table_id
		 FROM strategy_tables t LEFT JOIN active_table a ON a.table_id = t.table_id
		 ORDER BY t.created_at DESC, t.rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var records []TableRecord
	for rows.Next() {
		var rec TableRecord
		var createdStr string
		var active sql.NullString
		if err := rows.Scan(&rec.TableID, &rec.Population, &rec.Signatures, &rec.Layouts, &createdStr, &active); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		rec.CreatedAt, _ = time.Parse(timeLayout, createdStr)
		rec.Active = active.Valid
		records = append(records, rec)
	}
	return records, rows.Err()
}

// #endregion versions
