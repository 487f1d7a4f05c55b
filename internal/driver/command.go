package driver

import (
	"strings"

	"github.com/banshee-data/martini/internal/args"
	"github.com/banshee-data/martini/internal/system"
)

// Stage is one toolkit step of the pipeline.
type Stage struct {
	Name string
	// Post is appended right after the Quick= argument.
	Post string
}

// Stages is the pipeline, in execution order.
var Stages = []Stage{
	{Name: "NO_AllOri2Im"},                     // pairwise relative orientations
	{Name: "NO_AllImTriplet"},                  // floating homologous point triplets
	{Name: "NO_GenTripl", Post: " Show=false"}, // triplet selection
	{Name: "NO_AllImOptTrip"},                  // triplet optimisation
	{Name: "NO_SolInit3"},                      // initial global solution
}

// Invocation is the command line derived for one stage of a run.
type Invocation struct {
	Stage   Stage
	Command string
}

// BuildCommand composes the command line of stage for cfg:
//
//	<bin> TestLib <stage> "<pattern>"[ OriCalib=<name>] Quick=<0|1><post> PrefHom=<p> ExtName=<e> ModeNO=<tag>
func BuildCommand(cfg *Config, stage Stage) string {
	var b strings.Builder
	b.WriteString(system.BinFile(cfg.Bin))
	b.WriteString(" TestLib ")
	b.WriteString(stage.Name)
	b.WriteString(" ")
	b.WriteString(system.Quote(cfg.Pattern))
	if cfg.HasOriCalib {
		b.WriteString(" OriCalib=")
		b.WriteString(cfg.OriCalib)
	}
	b.WriteString(" Quick=")
	b.WriteString(args.FormatBool(cfg.Quick))
	b.WriteString(stage.Post)
	b.WriteString(" PrefHom=")
	b.WriteString(cfg.PrefHom)
	b.WriteString(" ExtName=")
	b.WriteString(cfg.ExtName)
	b.WriteString(" ModeNO=")
	b.WriteString(cfg.ModeNO.Tag())
	return b.String()
}

// Invocations derives every stage's command line for cfg, in order.
func Invocations(cfg *Config) []Invocation {
	invs := make([]Invocation, 0, len(Stages))
	for _, st := range Stages {
		invs = append(invs, Invocation{Stage: st, Command: BuildCommand(cfg, st)})
	}
	return invs
}
