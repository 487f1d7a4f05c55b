// Package runlog records driver runs and harness iterations in a SQLite ledger.
package runlog

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/martini/internal/timeutil"
	"github.com/banshee-data/martini/internal/version"
)

// Run kinds.
const (
	KindDriver  = "martini"
	KindHarness = "testmartini"
)

// Run statuses.
const (
	StatusRunning     = "running"
	StatusSucceeded   = "succeeded"
	StatusFailed      = "failed"
	StatusInterrupted = "interrupted"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("run not found")

// migrations/*.sql define the ledger schema, applied in order by golang-migrate.
//
//go:embed migrations/*.sql
var migrationsFS embed.FS

// Ledger is a SQLite-backed record of runs.
type Ledger struct {
	*sql.DB
	clock timeutil.Clock
}

// Open opens (creating if needed) the ledger at path and applies pending migrations.
// Use ":memory:" for a throwaway ledger.
func Open(path string) (*Ledger, error) {
	return OpenWithClock(path, timeutil.RealClock{})
}

// OpenWithClock is Open with an explicit clock for timestamps.
func OpenWithClock(path string, clock timeutil.Clock) (*Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger %s: %w", path, err)
	}
	// A single connection keeps ":memory:" ledgers coherent and serialises writers.
	db.SetMaxOpenConns(1)

	l := &Ledger{DB: db, clock: clock}
	if err := l.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

// RunParams describes what a run was asked to do.
type RunParams struct {
	Kind     string
	Pattern  string
	OriCalib string
	Quick    bool
	PrefHom  string
	ExtName  string
	ModeNO   string
}

// Run is a ledger row for one driver or harness invocation.
type Run struct {
	RunID string
	RunParams
	ToolVersion string
	StartedAt   time.Time
	FinishedAt  *time.Time
	Status      string
}

// StartRun inserts a new running run and returns its ID.
func (l *Ledger) StartRun(p RunParams) (string, error) {
	runID := uuid.New().String()
	_, err := l.Exec(`
		INSERT INTO runs (
			run_id, kind, pattern, ori_calib, quick, pref_hom, ext_name, mode_no,
			tool_version, started_at, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, p.Kind, p.Pattern, p.OriCalib, p.Quick, p.PrefHom, p.ExtName, p.ModeNO,
		version.String(), l.clock.Now().UnixNano(), StatusRunning,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}
	return runID, nil
}

// FinishRun stamps the run's end time and final status.
func (l *Ledger) FinishRun(runID, status string) error {
	res, err := l.Exec(
		`UPDATE runs SET finished_at = ?, status = ? WHERE run_id = ?`,
		l.clock.Now().UnixNano(), status, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", runID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	return nil
}

const runColumns = `run_id, kind, pattern, ori_calib, quick, pref_hom, ext_name, mode_no,
	tool_version, started_at, finished_at, status`

func scanRun(row *sql.Row) (*Run, error) {
	var (
		r        Run
		started  int64
		finished sql.NullInt64
	)
	err := row.Scan(&r.RunID, &r.Kind, &r.Pattern, &r.OriCalib, &r.Quick, &r.PrefHom,
		&r.ExtName, &r.ModeNO, &r.ToolVersion, &started, &finished, &r.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	r.StartedAt = time.Unix(0, started).UTC()
	if finished.Valid {
		t := time.Unix(0, finished.Int64).UTC()
		r.FinishedAt = &t
	}
	return &r, nil
}

// GetRun loads a run by ID.
func (l *Ledger) GetRun(runID string) (*Run, error) {
	return scanRun(l.QueryRow(`SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID))
}

// LatestRun returns the most recently started run of kind.
func (l *Ledger) LatestRun(kind string) (*Run, error) {
	return scanRun(l.QueryRow(
		`SELECT `+runColumns+` FROM runs WHERE kind = ? ORDER BY started_at DESC, rowid DESC LIMIT 1`,
		kind,
	))
}

// StageEvent is one stage of a driver run, executed or printed.
type StageEvent struct {
	Seq            int
	Stage          string
	Command        string
	Executed       bool
	ElapsedSeconds float64
	Error          string
}

// RecordStage appends a stage event to a run.
func (l *Ledger) RecordStage(runID string, ev StageEvent) error {
	_, err := l.Exec(`
		INSERT INTO stage_events (run_id, seq, stage, command, executed, elapsed_seconds, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, ev.Seq, ev.Stage, ev.Command, ev.Executed, ev.ElapsedSeconds, ev.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to record stage %s: %w", ev.Stage, err)
	}
	return nil
}

// Stages returns a run's stage events in sequence order.
func (l *Ledger) Stages(runID string) ([]StageEvent, error) {
	rows, err := l.Query(`
		SELECT seq, stage, command, executed, elapsed_seconds, error
		FROM stage_events WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stages: %w", err)
	}
	defer rows.Close()

	var events []StageEvent
	for rows.Next() {
		var ev StageEvent
		if err := rows.Scan(&ev.Seq, &ev.Stage, &ev.Command, &ev.Executed, &ev.ElapsedSeconds, &ev.Error); err != nil {
			return nil, fmt.Errorf("failed to scan stage: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// IterationRecord is one harness iteration.
type IterationRecord struct {
	K            int
	Dist         float64
	MVG          float64
	ProbaSel     float64
	Executed     bool
	PurgeDir     string
	RatafiaError string
	MartiniError string
}

// RecordIteration stores one harness iteration.
func (l *Ledger) RecordIteration(runID string, rec IterationRecord) error {
	_, err := l.Exec(`
		INSERT INTO harness_iterations (
			run_id, k, dist, mvg, proba_sel, executed, purge_dir, ratafia_error, martini_error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, rec.K, rec.Dist, rec.MVG, rec.ProbaSel, rec.Executed, rec.PurgeDir,
		rec.RatafiaError, rec.MartiniError,
	)
	if err != nil {
		return fmt.Errorf("failed to record iteration %d: %w", rec.K, err)
	}
	return nil
}

// Iterations returns a harness run's iterations ordered by K.
func (l *Ledger) Iterations(runID string) ([]IterationRecord, error) {
	rows, err := l.Query(`
		SELECT k, dist, mvg, proba_sel, executed, purge_dir, ratafia_error, martini_error
		FROM harness_iterations WHERE run_id = ? ORDER BY k`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query iterations: %w", err)
	}
	defer rows.Close()

	var recs []IterationRecord
	for rows.Next() {
		var r IterationRecord
		if err := rows.Scan(&r.K, &r.Dist, &r.MVG, &r.ProbaSel, &r.Executed, &r.PurgeDir,
			&r.RatafiaError, &r.MartiniError); err != nil {
			return nil, fmt.Errorf("failed to scan iteration: %w", err)
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}
