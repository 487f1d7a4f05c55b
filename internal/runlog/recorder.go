package runlog

import "github.com/banshee-data/martini/internal/monitoring"

// Recorder writes the events of one run into a Ledger. Write failures are
// logged and otherwise ignored. A nil *Recorder records nothing.
type Recorder struct {
	ledger *Ledger
	runID  string
}

// Record starts a run and returns its Recorder. It returns nil when l is nil
// or the run cannot be inserted.
func (l *Ledger) Record(p RunParams) *Recorder {
	if l == nil {
		return nil
	}
	id, err := l.StartRun(p)
	if err != nil {
		monitoring.Logf("ledger: %v; run will not be recorded", err)
		return nil
	}
	return &Recorder{ledger: l, runID: id}
}

// RunID returns the recorded run's ID, or "" for a nil Recorder.
func (r *Recorder) RunID() string {
	if r == nil {
		return ""
	}
	return r.runID
}

// Stage records a driver stage.
func (r *Recorder) Stage(ev StageEvent) {
	if r == nil {
		return
	}
	if err := r.ledger.RecordStage(r.runID, ev); err != nil {
		monitoring.Logf("ledger: %v", err)
	}
}

// Iteration records a harness iteration.
func (r *Recorder) Iteration(rec IterationRecord) {
	if r == nil {
		return
	}
	if err := r.ledger.RecordIteration(r.runID, rec); err != nil {
		monitoring.Logf("ledger: %v", err)
	}
}

// Finish closes the run with status.
func (r *Recorder) Finish(status string) {
	if r == nil {
		return
	}
	if err := r.ledger.FinishRun(r.runID, status); err != nil {
		monitoring.Logf("ledger: %v", err)
	}
}
