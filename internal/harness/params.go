package harness

import (
	"fmt"
	"io"
	"strings"

	"github.com/banshee-data/martini/internal/args"
	"github.com/banshee-data/martini/internal/config"
	"github.com/banshee-data/martini/internal/naming"
	"github.com/banshee-data/martini/internal/system"
)

// ProgramName is the harness entry point name.
const ProgramName = "TestMartini"

// DriverExtName is the ExtName every harness driver run uses.
const DriverExtName = "TM"

// Params configures a harness run.
type Params struct {
	Pattern  string
	OriCalib string
	// K0 is the first iteration that runs children; earlier ones are only logged.
	K0 int
	// ExtHom is the homologous-point suffix shared by Ratafia and Martini.
	ExtHom string
	Bin    string
	// NbIter stops the run after that many iterations; 0 runs until cancelled.
	NbIter     int
	Seed       int64
	LedgerPath string
}

type parsedParams struct {
	p          Params
	seed       int
	configPath string
}

func newArgSpec(pp *parsedParams) *args.Spec {
	return args.New(ProgramName).
		Positional(&pp.p.Pattern, "Pattern", "Image pattern").
		String(&pp.p.OriCalib, "OriCalib", "Orientation for calibration").
		Int(&pp.p.K0, "K0", "First iteration executed").
		Int(&pp.p.NbIter, "NbIter", "Number of iterations, 0 for unbounded").
		Int(&pp.seed, "Seed", "Random seed, 0 for clock").
		String(&pp.p.Bin, "Bin", "Toolkit binary, def from Config or "+config.DefaultToolkitBin).
		String(&pp.p.LedgerPath, "Ledger", "SQLite run ledger, def from Config (none)").
		String(&pp.configPath, "Config", "JSON configuration file")
}

// Parse builds the harness parameters from argv (program name excluded).
func Parse(argv []string) (*Params, error) {
	pp := &parsedParams{}
	spec := newArgSpec(pp)
	if err := spec.Parse(argv); err != nil {
		return nil, err
	}
	if pp.p.K0 < 0 {
		return nil, &args.Error{Arg: "K0", Msg: "must not be negative"}
	}
	if pp.p.NbIter < 0 {
		return nil, &args.Error{Arg: "NbIter", Msg: "must not be negative"}
	}
	pp.p.Seed = int64(pp.seed)

	file, err := config.LoadOrDefault(pp.configPath)
	if err != nil {
		return nil, fmt.Errorf("%w: Config: %w", args.ErrUsage, err)
	}
	pp.p.ExtHom = file.ExtHom
	if !spec.IsSet("Bin") {
		pp.p.Bin = file.ToolkitBin
	}
	if !spec.IsSet("Ledger") {
		pp.p.LedgerPath = file.LedgerPath
	}
	return &pp.p, nil
}

// Usage prints the harness argument summary.
func Usage(w io.Writer) {
	newArgSpec(&parsedParams{}).Usage(w)
}

// RatafiaCommand composes the point-generation command of it.
func RatafiaCommand(p *Params, it Iteration) string {
	var b strings.Builder
	b.WriteString(system.BinFile(p.Bin))
	b.WriteString(" Ratafia ")
	b.WriteString(p.Pattern)
	b.WriteString(" Out=" + p.ExtHom)
	b.WriteString(" DistPMul=" + args.FormatFloat(it.Dist))
	b.WriteString(" MVG=" + args.FormatFloat(it.MVG))
	b.WriteString(" OriCalib=" + p.OriCalib)
	b.WriteString(" ProbaSel=" + args.FormatFloat(it.ProbaSel))
	return b.String()
}

// MartiniCommand composes the quick driver command run after Ratafia.
func MartiniCommand(p *Params) string {
	return system.BinFile(p.Bin) + " Martini " + p.Pattern +
		" ExtName=" + DriverExtName +
		" SH=" + p.ExtHom +
		" OriCalib=" + p.OriCalib
}

// PurgeDir names the scratch subtree the driver run leaves behind:
// NewOriTmpTM<ExtHom><OriCalib>Quick/.
func PurgeDir(p *Params) string {
	return naming.ScratchDir(DriverExtName, p.ExtHom, p.OriCalib, true)
}
