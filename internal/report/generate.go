package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/banshee-data/martini/internal/runlog"
)

// Options selects the run to report on and where output goes.
type Options struct {
	// RunID selects a run; when empty the latest run of Kind is used.
	RunID string
	Kind  string
	// OutDir receives the plot files. It is created if needed.
	OutDir string
	Stdout io.Writer
}

// Result lists what Generate produced.
type Result struct {
	Run   *runlog.Run
	Files []string
}

// Generate prints the run's table to Stdout and writes its plots to OutDir:
// histograms for a harness run, stages.html for a driver run.
func Generate(l *runlog.Ledger, o Options) (*Result, error) {
	var (
		run *runlog.Run
		err error
	)
	if o.RunID != "" {
		run, err = l.GetRun(o.RunID)
	} else {
		run, err = l.LatestRun(o.Kind)
	}
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(o.OutDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create report directory %s: %w", o.OutDir, err)
	}
	res := &Result{Run: run}

	switch run.Kind {
	case runlog.KindHarness:
		iters, err := l.Iterations(run.RunID)
		if err != nil {
			return nil, err
		}
		if err := WriteSummary(o.Stdout, run, Summarise(iters)); err != nil {
			return nil, err
		}
		files, err := WriteHistograms(o.OutDir, iters)
		res.Files = files
		if err != nil {
			return res, err
		}

	case runlog.KindDriver:
		stages, err := l.Stages(run.RunID)
		if err != nil {
			return nil, err
		}
		if err := WriteStageTable(o.Stdout, run, stages); err != nil {
			return nil, err
		}
		path := filepath.Join(o.OutDir, "stages.html")
		if err := writeStageChartFile(path, run, stages); err != nil {
			return nil, err
		}
		res.Files = append(res.Files, path)

	default:
		return nil, fmt.Errorf("unknown run kind %q", run.Kind)
	}

	return res, nil
}

// writeStageChartFile renders the stage chart to path. A failed close is
// reported like a failed write.
func writeStageChartFile(path string, run *runlog.Run, stages []runlog.StageEvent) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := WriteStageChart(f, run, stages); err != nil {
		f.Close()
		return fmt.Errorf("failed to render %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
