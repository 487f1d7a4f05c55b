package report

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/martini/internal/args"
	"github.com/banshee-data/martini/internal/runlog"
)

// HistogramBins is the number of bins of each parameter histogram.
const HistogramBins = 20

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("no data to plot")

// WriteHistograms saves one PNG histogram per sampled parameter into dir
// and returns the written paths.
func WriteHistograms(dir string, iters []runlog.IterationRecord) ([]string, error) {
	if len(iters) == 0 {
		return nil, ErrNoData
	}

	series := []struct {
		file, title, label string
		value              func(runlog.IterationRecord) float64
	}{
		{"dist.png", "DistPMul", "Dist", func(r runlog.IterationRecord) float64 { return r.Dist }},
		{"mvg.png", "MVG", "MVG", func(r runlog.IterationRecord) float64 { return r.MVG }},
		{"probasel.png", "ProbaSel", "ProbaSel", func(r runlog.IterationRecord) float64 { return r.ProbaSel }},
	}

	var written []string
	for _, s := range series {
		values := make(plotter.Values, 0, len(iters))
		for _, it := range iters {
			values = append(values, s.value(it))
		}

		p := plot.New()
		p.Title.Text = fmt.Sprintf("%s over %d iterations", s.title, len(iters))
		p.X.Label.Text = s.label
		p.Y.Label.Text = "Iterations"

		h, err := plotter.NewHist(values, HistogramBins)
		if err != nil {
			return written, fmt.Errorf("%s histogram: %w", s.title, err)
		}
		p.Add(h)

		path := filepath.Join(dir, s.file)
		if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
			return written, fmt.Errorf("failed to save %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// WriteStageChart renders an HTML bar chart of per-stage and cumulative
// times of a driver run.
func WriteStageChart(w io.Writer, run *runlog.Run, stages []runlog.StageEvent) error {
	if len(stages) == 0 {
		return ErrNoData
	}

	x := make([]string, 0, len(stages))
	cumulative := make([]opts.BarData, 0, len(stages))
	perStage := make([]opts.BarData, 0, len(stages))
	prev := 0.0
	for _, ev := range stages {
		x = append(x, ev.Stage)
		cumulative = append(cumulative, opts.BarData{Value: ev.ElapsedSeconds})
		perStage = append(perStage, opts.BarData{Value: ev.ElapsedSeconds - prev})
		prev = ev.ElapsedSeconds
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Martini stages", Width: "100%", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%s %s", run.Pattern, quickLabel(run.Quick)),
			Subtitle: fmt.Sprintf("run=%s status=%s mode=%s total=%ss", run.RunID, run.Status, run.ModeNO, args.FormatFloat(prev)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("stage", perStage,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		).
		AddSeries("cumulative", cumulative)

	page := components.NewPage()
	page.AddCharts(bar)
	return page.Render(w)
}
