package journal

// #region imports
import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/coder-agent/internal/diag"
)

// #endregion

// #region schema

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id       TEXT PRIMARY KEY,
	problem      TEXT NOT NULL,
	backend      TEXT NOT NULL DEFAULT '',
	outcome      TEXT NOT NULL DEFAULT 'running',
	reason       TEXT NOT NULL DEFAULT '',
	started_at   TEXT NOT NULL,
	finished_at  TEXT
);

CREATE TABLE IF NOT EXISTS attempts (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id            TEXT NOT NULL,
	step              TEXT NOT NULL,
	attempt           INTEGER NOT NULL,
	verdict           TEXT NOT NULL,
	artifact          TEXT,
	diagnostics_json  TEXT,
	created_at        TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE INDEX IF NOT EXISTS idx_attempts_run ON attempts(run_id, id);
`

// Timestamps are stored fixed-width so that lexicographic ORDER BY on the
// text column matches chronological order. RFC3339Nano trims trailing
// fractional zeros, which breaks that property for same-second rows.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// #endregion

// #region records

// RunRecord is one pipeline run.
type RunRecord struct {
	RunID      string
	Problem    string
	Backend    string
	Outcome    string
	Reason     string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// AttemptRecord is one recorded step within a run: a generation call or a
// check/run attempt with its diagnostics.
type AttemptRecord struct {
	RunID       string
	Step        string
	Attempt     int
	Verdict     string
	Artifact    string
	Diagnostics []diag.Diagnostic
	CreatedAt   time.Time
}

// #endregion

// #region journal

// Journal persists run and attempt records in SQLite. It is write-only from
// the pipeline's point of view: nothing recorded here ever feeds back into a
// later run's decisions.
type Journal struct {
	db *sql.DB
}

// Open opens (or creates) a journal database at path.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// DB exposes the underlying handle for tooling.
func (j *Journal) DB() *sql.DB {
	return j.db
}

// #endregion

// #region write

// BeginRun inserts a new run row in the running state.
func (j *Journal) BeginRun(runID, problem, backend string) error {
	_, err := j.db.Exec(
		`INSERT INTO runs (run_id, problem, backend, started_at) VALUES (?, ?, ?, ?)`,
		runID, problem, backend, time.Now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("begin run: %w", err)
	}
	return nil
}

// RecordAttempt appends one attempt row.
func (j *Journal) RecordAttempt(rec AttemptRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	var diagsJSON interface{}
	if len(rec.Diagnostics) > 0 {
		data, err := json.Marshal(rec.Diagnostics)
		if err != nil {
			return fmt.Errorf("marshal diagnostics: %w", err)
		}
		diagsJSON = string(data)
	}
	_, err := j.db.Exec(
		`INSERT INTO attempts (run_id, step, attempt, verdict, artifact, diagnostics_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Step, rec.Attempt, rec.Verdict,
		nullIfEmpty(rec.Artifact), diagsJSON,
		rec.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("record attempt: %w", err)
	}
	return nil
}

// FinishRun marks a run terminal with its outcome and reason.
func (j *Journal) FinishRun(runID, outcome, reason string) error {
	_, err := j.db.Exec(
		`UPDATE runs SET outcome = ?, reason = ?, finished_at = ? WHERE run_id = ?`,
		outcome, reason, time.Now().UTC().Format(timeLayout), runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// #endregion

// #region read

// ListRuns returns the most recent runs, newest first.
func (j *Journal) ListRuns(last int) ([]RunRecord, error) {
	rows, err := j.db.Query(
		`SELECT run_id, problem, backend, outcome, reason, started_at, finished_at
		 FROM runs ORDER BY started_at DESC LIMIT ?`, last,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		var started string
		var finished sql.NullString
		if err := rows.Scan(&r.RunID, &r.Problem, &r.Backend, &r.Outcome, &r.Reason, &started, &finished); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		if finished.Valid {
			t, err := time.Parse(time.RFC3339Nano, finished.String)
			if err == nil {
				r.FinishedAt = &t
			}
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunAttempts returns all attempt rows of a run in recorded order.
func (j *Journal) RunAttempts(runID string) ([]AttemptRecord, error) {
	rows, err := j.db.Query(
		`SELECT run_id, step, attempt, verdict, artifact, diagnostics_json, created_at
		 FROM attempts WHERE run_id = ? ORDER BY id ASC`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("run attempts: %w", err)
	}
	defer rows.Close()

	var attempts []AttemptRecord
	for rows.Next() {
		var a AttemptRecord
		var artifact, diagsJSON sql.NullString
		var created string
		if err := rows.Scan(&a.RunID, &a.Step, &a.Attempt, &a.Verdict, &artifact, &diagsJSON, &created); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		a.Artifact = artifact.String
		if diagsJSON.Valid && diagsJSON.String != "" {
			if err := json.Unmarshal([]byte(diagsJSON.String), &a.Diagnostics); err != nil {
				return nil, fmt.Errorf("unmarshal diagnostics: %w", err)
			}
		}
		a.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// #endregion

// #region helpers

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion
