// Package report renders what the run ledger recorded: parameter
// statistics and histograms for harness runs, stage timings for driver runs.
package report

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/martini/internal/args"
	"github.com/banshee-data/martini/internal/runlog"
)

// Stats summarises one sampled parameter.
type Stats struct {
	Name   string
	N      int
	Mean   float64
	StdDev float64
	Min    float64
	Median float64
	Max    float64
}

// Summary is the digest of a harness run.
type Summary struct {
	Iterations      int
	Executed        int
	RatafiaFailures int
	MartiniFailures int
	Params          []Stats
}

func describe(name string, x []float64) Stats {
	s := Stats{Name: name, N: len(x)}
	if len(x) == 0 {
		return s
	}
	s.Mean, s.StdDev = stat.MeanStdDev(x, nil)
	if len(x) == 1 {
		s.StdDev = 0
	}
	s.Min = floats.Min(x)
	s.Max = floats.Max(x)

	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)
	s.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	return s
}

// Summarise computes per-parameter statistics over iters.
func Summarise(iters []runlog.IterationRecord) Summary {
	sum := Summary{Iterations: len(iters)}
	dist := make([]float64, 0, len(iters))
	mvg := make([]float64, 0, len(iters))
	proba := make([]float64, 0, len(iters))

	for _, it := range iters {
		dist = append(dist, it.Dist)
		mvg = append(mvg, it.MVG)
		proba = append(proba, it.ProbaSel)
		if it.Executed {
			sum.Executed++
		}
		if it.RatafiaError != "" {
			sum.RatafiaFailures++
		}
		if it.MartiniError != "" {
			sum.MartiniFailures++
		}
	}

	sum.Params = []Stats{
		describe("Dist", dist),
		describe("MVG", mvg),
		describe("ProbaSel", proba),
	}
	return sum
}

// WriteSummary prints the run header and the harness summary as a table.
func WriteSummary(w io.Writer, run *runlog.Run, sum Summary) error {
	if err := writeRunHeader(w, run); err != nil {
		return err
	}
	fmt.Fprintf(w, "iterations: %d  executed: %d  ratafia failures: %d  martini failures: %d\n\n",
		sum.Iterations, sum.Executed, sum.RatafiaFailures, sum.MartiniFailures)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "param\tn\tmean\tstddev\tmin\tmedian\tmax")
	for _, s := range sum.Params {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\n", s.Name, s.N,
			args.FormatFloat(s.Mean), args.FormatFloat(s.StdDev),
			args.FormatFloat(s.Min), args.FormatFloat(s.Median), args.FormatFloat(s.Max))
	}
	return tw.Flush()
}

// WriteStageTable prints the run header and one line per recorded stage.
func WriteStageTable(w io.Writer, run *runlog.Run, stages []runlog.StageEvent) error {
	if err := writeRunHeader(w, run); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "seq\tstage\texecuted\tcumulative s\terror")
	for _, ev := range stages {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", ev.Seq, ev.Stage,
			args.FormatBool(ev.Executed), args.FormatFloat(ev.ElapsedSeconds), ev.Error)
	}
	return tw.Flush()
}

func writeRunHeader(w io.Writer, run *runlog.Run) error {
	finished := "-"
	if run.FinishedAt != nil {
		finished = run.FinishedAt.Format("2006-01-02 15:04:05")
	}
	_, err := fmt.Fprintf(w, "run %s (%s) %s\npattern: %s  status: %s  started: %s  finished: %s\nversion: %s\n\n",
		run.RunID, run.Kind, quickLabel(run.Quick), run.Pattern, run.Status,
		run.StartedAt.Format("2006-01-02 15:04:05"), finished, run.ToolVersion)
	return err
}

func quickLabel(quick bool) string {
	if quick {
		return "quick"
	}
	return "full"
}
