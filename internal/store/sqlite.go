package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"fundlock/internal/domain"
)

// Compile-time interface check.
var _ RunStore = (*SQLiteStore)(nil)

// SQLiteStore implements RunStore backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at TEXT NOT NULL,
	mode       TEXT NOT NULL,
	params     TEXT NOT NULL,
	triggered  INTEGER NOT NULL,
	stats      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS daily_records (
	run_id       INTEGER NOT NULL REFERENCES runs(id),
	seq          INTEGER NOT NULL,
	date         TEXT NOT NULL,
	total        REAL NOT NULL,
	mother       REAL NOT NULL,
	child_total  REAL NOT NULL,
	child_values TEXT NOT NULL,
	benchmark    REAL NOT NULL,
	roi          REAL NOT NULL,
	action       TEXT NOT NULL,
	round        INTEGER NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE TABLE IF NOT EXISTS round_summaries (
	run_id     INTEGER NOT NULL REFERENCES runs(id),
	round      INTEGER NOT NULL,
	start_date TEXT NOT NULL,
	end_date   TEXT NOT NULL,
	days       INTEGER NOT NULL,
	roi        REAL NOT NULL,
	profit     REAL NOT NULL,
	PRIMARY KEY (run_id, round)
);
`

const dateLayout = "2006-01-02"

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, applies the
// schema, and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun inserts a run with its daily records and round summaries in a
// single transaction and returns the assigned run ID.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *Run) (int64, error) {
	paramsJSON, err := json.Marshal(run.Params)
	if err != nil {
		return 0, fmt.Errorf("marshaling params: %w", err)
	}
	statsJSON, err := json.Marshal(run.Stats)
	if err != nil {
		return 0, fmt.Errorf("marshaling stats: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (created_at, mode, params, triggered, stats) VALUES (?, ?, ?, ?, ?)`,
		createdAt.Format(time.RFC3339), run.Mode, string(paramsJSON), boolToInt(run.Triggered), string(statsJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	recStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO daily_records (run_id, seq, date, total, mother, child_total, child_values, benchmark, roi, action, round)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer recStmt.Close()

	for seq, r := range run.Records {
		childJSON, err := json.Marshal(r.ChildValues)
		if err != nil {
			return 0, fmt.Errorf("marshaling child values: %w", err)
		}
		if _, err := recStmt.ExecContext(ctx,
			id, seq, r.Date.Format(dateLayout),
			r.TotalValue, r.MotherValue, r.ChildTotal, string(childJSON),
			r.BenchmarkValue, r.ROI, string(r.Action), r.Round,
		); err != nil {
			return 0, fmt.Errorf("inserting record %d: %w", seq, err)
		}
	}

	for _, rs := range run.Summaries {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO round_summaries (run_id, round, start_date, end_date, days, roi, profit)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, rs.Round, rs.StartDate.Format(dateLayout), rs.EndDate.Format(dateLayout),
			rs.Days, rs.ROI, rs.Profit,
		); err != nil {
			return 0, fmt.Errorf("inserting summary for round %d: %w", rs.Round, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// ListRuns returns all runs newest-first, without their daily records.
func (s *SQLiteStore) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, mode, params, triggered, stats FROM runs ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetRun retrieves a single run with its records and summaries, or nil if no
// run has the given ID.
func (s *SQLiteStore) GetRun(ctx context.Context, id int64) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, mode, params, triggered, stats FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT date, total, mother, child_total, child_values, benchmark, roi, action, round
		 FROM daily_records WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			r         domain.DailyRecord
			date      string
			childJSON string
			action    string
		)
		if err := rows.Scan(&date, &r.TotalValue, &r.MotherValue, &r.ChildTotal,
			&childJSON, &r.BenchmarkValue, &r.ROI, &action, &r.Round); err != nil {
			return nil, err
		}
		if r.Date, err = time.Parse(dateLayout, date); err != nil {
			return nil, fmt.Errorf("parsing record date %q: %w", date, err)
		}
		if err := json.Unmarshal([]byte(childJSON), &r.ChildValues); err != nil {
			return nil, fmt.Errorf("unmarshaling child values: %w", err)
		}
		r.Action = domain.Action(action)
		run.Records = append(run.Records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sumRows, err := s.db.QueryContext(ctx,
		`SELECT round, start_date, end_date, days, roi, profit
		 FROM round_summaries WHERE run_id = ? ORDER BY round`, id)
	if err != nil {
		return nil, err
	}
	defer sumRows.Close()

	for sumRows.Next() {
		var (
			rs         domain.RoundSummary
			start, end string
		)
		if err := sumRows.Scan(&rs.Round, &start, &end, &rs.Days, &rs.ROI, &rs.Profit); err != nil {
			return nil, err
		}
		if rs.StartDate, err = time.Parse(dateLayout, start); err != nil {
			return nil, fmt.Errorf("parsing summary start date %q: %w", start, err)
		}
		if rs.EndDate, err = time.Parse(dateLayout, end); err != nil {
			return nil, fmt.Errorf("parsing summary end date %q: %w", end, err)
		}
		run.Summaries = append(run.Summaries, rs)
	}
	if err := sumRows.Err(); err != nil {
		return nil, err
	}

	return run, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var (
		run        Run
		createdAt  string
		paramsJSON string
		statsJSON  string
		triggered  int
	)
	if err := sc.Scan(&run.ID, &createdAt, &run.Mode, &paramsJSON, &triggered, &statsJSON); err != nil {
		return nil, err
	}

	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at %q: %w", createdAt, err)
	}
	run.CreatedAt = t
	run.Triggered = triggered != 0

	if err := json.Unmarshal([]byte(paramsJSON), &run.Params); err != nil {
		return nil, fmt.Errorf("unmarshaling params: %w", err)
	}
	if err := json.Unmarshal([]byte(statsJSON), &run.Stats); err != nil {
		return nil, fmt.Errorf("unmarshaling stats: %w", err)
	}
	return &run, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
