package driver

import (
	"fmt"
	"io"

	"github.com/banshee-data/martini/internal/args"
	"github.com/banshee-data/martini/internal/config"
	"github.com/banshee-data/martini/internal/modeno"
)

// Config is the run configuration of one driver invocation. It is built
// once by Parse and shared, read-only, by every stage.
type Config struct {
	// Pattern is the user image pattern, unquoted.
	Pattern string
	// OriCalib is the calibration orientation name, without the Ori- prefix
	// once Prepare has normalised it.
	OriCalib    string
	HasOriCalib bool
	// Exe runs the stages; when false their command lines are printed.
	Exe     bool
	Quick   bool
	PrefHom string
	ExtName string
	ModeNO  modeno.Mode
	// Bin is the toolkit binary the stages are run from.
	Bin string
	// LedgerPath is the SQLite run ledger; empty disables recording.
	LedgerPath string
}

// ProgramName returns the entry point name for quick.
func ProgramName(quick bool) string {
	if quick {
		return "Martini"
	}
	return "MartiniGin"
}

type parsed struct {
	cfg        Config
	modeTag    string
	configPath string
}

func newArgSpec(p *parsed) *args.Spec {
	return args.New(ProgramName(p.cfg.Quick)).
		Positional(&p.cfg.Pattern, "Pattern", "Image pattern").
		String(&p.cfg.OriCalib, "OriCalib", "Orientation for calibration").
		Bool(&p.cfg.Exe, "Exe", "Execute commands, def=true (if false, only print)").
		String(&p.cfg.PrefHom, "SH", "Prefix of homologous points, def=\"\"").
		String(&p.cfg.ExtName, "ExtName", "User's added suffix, def=\"\"").
		String(&p.modeTag, "ModeNO", "Orientation mode, one of "+fmt.Sprint(modeno.Tags())).
		String(&p.cfg.Bin, "Bin", "Toolkit binary, def from Config or "+config.DefaultToolkitBin).
		String(&p.cfg.LedgerPath, "Ledger", "SQLite run ledger, def from Config (none)").
		String(&p.configPath, "Config", "JSON configuration file")
}

func newParsed(quick bool) *parsed {
	return &parsed{
		cfg:     Config{Exe: true, Quick: quick},
		modeTag: modeno.DefaultTag,
	}
}

// Parse builds the run configuration from argv (program name excluded).
// Quick comes from the entry point and is never read from argv.
func Parse(argv []string, quick bool) (*Config, error) {
	p := newParsed(quick)
	spec := newArgSpec(p)
	if err := spec.Parse(argv); err != nil {
		return nil, err
	}

	mode, err := modeno.Parse(p.modeTag)
	if err != nil {
		return nil, fmt.Errorf("%w: ModeNO: %w", args.ErrUsage, err)
	}
	p.cfg.ModeNO = mode
	p.cfg.HasOriCalib = spec.IsSet("OriCalib")

	file, err := config.LoadOrDefault(p.configPath)
	if err != nil {
		return nil, fmt.Errorf("%w: Config: %w", args.ErrUsage, err)
	}
	if !spec.IsSet("Bin") {
		p.cfg.Bin = file.ToolkitBin
	}
	if !spec.IsSet("Ledger") {
		p.cfg.LedgerPath = file.LedgerPath
	}

	return &p.cfg, nil
}

// Usage prints the argument summary of the quick or full entry point.
func Usage(w io.Writer, quick bool) {
	newArgSpec(newParsed(quick)).Usage(w)
}
