// Package driver sequences the relative-orientation stages over the images
// of a pattern, as the Martini and MartiniGin programs.
package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/banshee-data/martini/internal/args"
	"github.com/banshee-data/martini/internal/fsutil"
	"github.com/banshee-data/martini/internal/monitoring"
	"github.com/banshee-data/martini/internal/naming"
	"github.com/banshee-data/martini/internal/runlog"
	"github.com/banshee-data/martini/internal/system"
	"github.com/banshee-data/martini/internal/timeutil"
)

// Format is the persistence tag of the artifacts the stages share.
const Format = "dat"

// Options carries the collaborators of a Driver. Zero fields get
// production defaults.
type Options struct {
	// Visual stops after preparation, without running any stage.
	Visual  bool
	Stdout  io.Writer
	FS      fsutil.FileSystem
	Builder system.CommandBuilder
	Clock   timeutil.Clock
	// Ledger, when set, is used instead of opening Config.LedgerPath.
	Ledger *runlog.Ledger
}

func (o Options) withDefaults() Options {
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.FS == nil {
		o.FS = fsutil.OSFileSystem{}
	}
	if o.Builder == nil {
		o.Builder = system.NewRealCommandBuilder()
	}
	if o.Clock == nil {
		o.Clock = timeutil.RealClock{}
	}
	return o
}

// Driver runs the pipeline for one Config.
type Driver struct {
	cfg     *Config
	opts    Options
	chrono  *timeutil.Chrono
	images  *naming.ImageSet
	manager *naming.Manager
}

// New creates a Driver and starts its timer; stage times are reported
// from this point.
func New(cfg *Config, opts Options) *Driver {
	opts = opts.withDefaults()
	return &Driver{
		cfg:    cfg,
		opts:   opts,
		chrono: timeutil.StartChrono(opts.Clock),
	}
}

// Config returns the driver's run configuration.
func (d *Driver) Config() *Config {
	return d.cfg
}

// Images returns the image set resolved by Prepare.
func (d *Driver) Images() *naming.ImageSet {
	return d.images
}

// Prepare resolves the pattern, normalises the calibration orientation and
// builds the per-image state, creating missing auto-calibrations.
func (d *Driver) Prepare() error {
	set, err := naming.ResolvePattern(d.opts.FS, d.cfg.Pattern)
	if err != nil {
		return err
	}
	d.images = set

	if d.cfg.HasOriCalib {
		name, err := naming.NormaliseOrient(d.opts.FS, d.cfg.OriCalib, set.Dir)
		if err != nil {
			return fmt.Errorf("OriCalib: %w", err)
		}
		d.cfg.OriCalib = name
	}

	d.manager, err = naming.NewManager(d.opts.FS, naming.Params{
		ExtName:  d.cfg.ExtName,
		PrefHom:  d.cfg.PrefHom,
		Quick:    d.cfg.Quick,
		Dir:      set.Dir,
		OriCalib: d.cfg.OriCalib,
		Format:   Format,
	})
	if err != nil {
		return err
	}

	for _, name := range set.Images {
		if _, err := d.manager.OneImage(name); err != nil {
			return err
		}
	}
	return nil
}

// Invocations returns the run's stage command lines.
func (d *Driver) Invocations() []Invocation {
	return Invocations(d.cfg)
}

// Run executes, or prints when Exe is false, every stage in order. After
// each stage it reports the seconds elapsed since the driver was created.
// The first failing stage ends the run with its *system.ExitError.
func (d *Driver) Run(ctx context.Context) error {
	out := d.opts.Stdout
	rec := d.opts.Ledger.Record(runlog.RunParams{
		Kind:     runlog.KindDriver,
		Pattern:  d.cfg.Pattern,
		OriCalib: d.cfg.OriCalib,
		Quick:    d.cfg.Quick,
		PrefHom:  d.cfg.PrefHom,
		ExtName:  d.cfg.ExtName,
		ModeNO:   d.cfg.ModeNO.Tag(),
	})

	for seq, inv := range d.Invocations() {
		if err := ctx.Err(); err != nil {
			rec.Finish(runlog.StatusInterrupted)
			return err
		}

		var err error
		if d.cfg.Exe {
			err = system.System(ctx, d.opts.Builder, inv.Command)
		} else {
			fmt.Fprintf(out, "COM= %s\n", inv.Command)
		}

		ev := runlog.StageEvent{
			Seq:            seq,
			Stage:          inv.Stage.Name,
			Command:        inv.Command,
			Executed:       d.cfg.Exe,
			ElapsedSeconds: d.chrono.Seconds(),
		}
		if err != nil {
			ev.Error = err.Error()
			rec.Stage(ev)
			if ctx.Err() != nil {
				rec.Finish(runlog.StatusInterrupted)
			} else {
				rec.Finish(runlog.StatusFailed)
			}
			return fmt.Errorf("stage %s: %w", inv.Stage.Name, err)
		}
		rec.Stage(ev)

		fmt.Fprintf(out, " DONE %s in time %s\n", inv.Stage.Name, args.FormatFloat(ev.ElapsedSeconds))
	}

	rec.Finish(runlog.StatusSucceeded)
	return nil
}

const quickBanner = `
 *********************************************
 *     MART-ingale d'                        *
 *     INI-tialisation                       *
 *********************************************

`

const fullBanner = `
 *********************************************
 *     MARTIN                                *
 *     Gale d'                               *
 *     IN-itialisation (stronger version)    *
 *********************************************

`

// Banner prints the closing banner of the quick or full pipeline.
func Banner(w io.Writer, quick bool) {
	if quick {
		io.WriteString(w, quickBanner)
		return
	}
	io.WriteString(w, fullBanner)
}

// Main is the entry point shared by Martini (quick) and MartiniGin. It
// returns the process exit status: 0 on success, 1 on invalid arguments or
// preparation failure, the failing child's status otherwise.
func Main(ctx context.Context, argv []string, quick bool, opts Options) int {
	opts = opts.withDefaults()
	program := ProgramName(quick)

	cfg, err := Parse(argv, quick)
	if errors.Is(err, args.ErrHelp) {
		Usage(opts.Stdout, quick)
		return 0
	}
	if err != nil {
		monitoring.Logf("%s: %v", program, err)
		Usage(os.Stderr, quick)
		return 1
	}

	if opts.Ledger == nil && cfg.LedgerPath != "" {
		ledger, err := runlog.Open(cfg.LedgerPath)
		if err != nil {
			monitoring.Logf("%s: ledger disabled: %v", program, err)
		} else {
			defer ledger.Close()
			opts.Ledger = ledger
		}
	}

	d := New(cfg, opts)
	if err := d.Prepare(); err != nil {
		monitoring.Logf("%s: %v", program, err)
		return 1
	}
	if opts.Visual {
		return 0
	}

	if err := d.Run(ctx); err != nil {
		monitoring.Logf("%s: %v", program, err)
		return system.ExitCode(err)
	}

	Banner(opts.Stdout, quick)
	return 0
}
