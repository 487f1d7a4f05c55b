// Package harness fuzzes the Martini pipeline: each iteration samples
// Ratafia parameters, runs Ratafia then the quick driver, and purges the
// driver's scratch subtree.
package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/banshee-data/martini/internal/args"
	"github.com/banshee-data/martini/internal/fsutil"
	"github.com/banshee-data/martini/internal/monitoring"
	"github.com/banshee-data/martini/internal/naming"
	"github.com/banshee-data/martini/internal/runlog"
	"github.com/banshee-data/martini/internal/security"
	"github.com/banshee-data/martini/internal/system"
)

// Options carries the collaborators of a Runner. Zero fields get
// production defaults.
type Options struct {
	Stdout  io.Writer
	FS      fsutil.FileSystem
	Builder system.CommandBuilder
	// Source defaults to NewSource(Params.Seed).
	Source Source
	Ledger *runlog.Ledger
}

func (o Options) withDefaults(p *Params) Options {
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.FS == nil {
		o.FS = fsutil.OSFileSystem{}
	}
	if o.Builder == nil {
		o.Builder = system.NewRealCommandBuilder()
	}
	if o.Source == nil {
		o.Source = NewSource(p.Seed)
	}
	return o
}

// Runner is the side-effecting sink of the iteration sequence.
type Runner struct {
	params *Params
	opts   Options
	// dir is the pattern's working directory, where the purge happens.
	dir string
	rec *runlog.Recorder
}

// NewRunner creates a Runner for p.
func NewRunner(p *Params, opts Options) *Runner {
	dir, _ := naming.SplitDirAndFile(p.Pattern)
	return &Runner{
		params: p,
		opts:   opts.withDefaults(p),
		dir:    dir,
	}
}

// Step handles one iteration. From K0 on it runs Ratafia then Martini,
// whatever their exit status, and purges the scratch subtree; before K0
// it only logs. It returns an error only when the purge fails or is
// refused, or when ctx is cancelled.
func (r *Runner) Step(ctx context.Context, it Iteration) error {
	out := r.opts.Stdout
	ratafia := RatafiaCommand(r.params, it)
	purge := PurgeDir(r.params)
	fmt.Fprintf(out, "RAAT %s\n", ratafia)

	rec := runlog.IterationRecord{
		K:        it.K,
		Dist:     it.Dist,
		MVG:      it.MVG,
		ProbaSel: it.ProbaSel,
		PurgeDir: purge,
	}

	if it.K >= r.params.K0 {
		rec.Executed = true

		if err := system.System(ctx, r.opts.Builder, ratafia); err != nil {
			monitoring.Logf("iteration %d: Ratafia: %v", it.K, err)
			rec.RatafiaError = err.Error()
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := system.System(ctx, r.opts.Builder, MartiniCommand(r.params)); err != nil {
			monitoring.Logf("iteration %d: Martini: %v", it.K, err)
			rec.MartiniError = err.Error()
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		path := filepath.Join(r.dir, purge)
		if err := security.ValidatePathWithinDirectory(path, r.dir); err != nil {
			return fmt.Errorf("refusing to purge: %w", err)
		}
		if err := r.opts.FS.RemoveAll(path); err != nil {
			return fmt.Errorf("failed to purge %s: %w", path, err)
		}
	}

	fmt.Fprintf(out, "%d Purge=[%s]\n", it.K, purge)
	r.rec.Iteration(rec)
	return nil
}

// Run steps through the iteration sequence until ctx is cancelled, NbIter
// iterations have run, or a step fails. Cancellation is not an error.
func (r *Runner) Run(ctx context.Context) error {
	p := r.params
	r.rec = r.opts.Ledger.Record(runlog.RunParams{
		Kind:     runlog.KindHarness,
		Pattern:  p.Pattern,
		OriCalib: p.OriCalib,
		Quick:    true,
		PrefHom:  p.ExtHom,
		ExtName:  DriverExtName,
	})

	n := 0
	for it := range Iterations(r.opts.Source) {
		if p.NbIter > 0 && it.K >= p.NbIter {
			break
		}
		if ctx.Err() != nil {
			break
		}
		if err := r.Step(ctx, it); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				break
			}
			r.rec.Finish(runlog.StatusFailed)
			return err
		}
		n++
	}

	if ctx.Err() != nil {
		monitoring.Logf("%s: interrupted after %d iterations", ProgramName, n)
		r.rec.Finish(runlog.StatusInterrupted)
		return nil
	}
	r.rec.Finish(runlog.StatusSucceeded)
	return nil
}

// Main is the TestMartini entry point. It returns 0 when the run ends by
// cancellation or NbIter, 1 on invalid arguments or a purge failure.
func Main(ctx context.Context, argv []string, opts Options) int {
	p, err := Parse(argv)
	if errors.Is(err, args.ErrHelp) {
		w := opts.Stdout
		if w == nil {
			w = os.Stdout
		}
		Usage(w)
		return 0
	}
	if err != nil {
		monitoring.Logf("%s: %v", ProgramName, err)
		Usage(os.Stderr)
		return 1
	}

	if opts.Ledger == nil && p.LedgerPath != "" {
		ledger, err := runlog.Open(p.LedgerPath)
		if err != nil {
			monitoring.Logf("%s: ledger disabled: %v", ProgramName, err)
		} else {
			defer ledger.Close()
			opts.Ledger = ledger
		}
	}

	if err := NewRunner(p, opts).Run(ctx); err != nil {
		monitoring.Logf("%s: %v", ProgramName, err)
		return 1
	}
	return 0
}
