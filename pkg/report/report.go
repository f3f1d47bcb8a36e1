// Package report renders training curves for one or more episode series.
// WriteHTML produces an interactive page; SavePNG writes a static plot.
package report

import (
	"fmt"
	"image/color"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/anggasct/urbanflow/pkg/analysis"
	"github.com/anggasct/urbanflow/pkg/core"
	"github.com/anggasct/urbanflow/pkg/simulation"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/samber/lo"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Series is a named list of episodes, typically one controller's run
type Series struct {
	Name     string
	Episodes []simulation.EpisodeSummary

	// Dwell holds ticks spent in each phase; optional
	Dwell map[core.Phase]int
}

// Metric selects one per-episode value
type Metric int

const (
	MetricReward Metric = iota
	MetricThroughput
	MetricAverageWait
	MetricEpsilon
)

func (m Metric) String() string {
	switch m {
	case MetricReward:
		return "Reward"
	case MetricThroughput:
		return "Cars passed"
	case MetricAverageWait:
		return "Average wait (s)"
	case MetricEpsilon:
		return "Epsilon"
	default:
		return "Unknown"
	}
}

// Values extracts the metric from each episode in order
func (m Metric) Values(episodes []simulation.EpisodeSummary) []float64 {
	return lo.Map(episodes, func(e simulation.EpisodeSummary, _ int) float64 {
		switch m {
		case MetricReward:
			return e.RewardSum
		case MetricThroughput:
			return float64(e.CarsPassed)
		case MetricAverageWait:
			return e.AverageWaitSeconds
		case MetricEpsilon:
			return e.Epsilon
		}
		return 0
	})
}

// SmoothingWindow is the trailing window of the smoothed PNG curve
const SmoothingWindow = 10

var lineColors = []color.RGBA{
	{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
	{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	{R: 0x94, G: 0x67, B: 0xbd, A: 0xff},
}

func episodeAxis(series []Series) []string {
	n := 0
	for _, s := range series {
		n = max(n, len(s.Episodes))
	}
	axis := make([]string, n)
	for i := range axis {
		axis[i] = strconv.Itoa(i + 1)
	}
	return axis
}

func lineChart(m Metric, series []Series) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: m.String(), Subtitle: "per episode"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Episode", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: m.String()}),
	)
	line.SetXAxis(episodeAxis(series))
	for _, s := range series {
		data := lo.Map(m.Values(s.Episodes), func(v float64, _ int) opts.LineData {
			return opts.LineData{Value: v}
		})
		line.AddSeries(s.Name, data, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
	}
	return line
}

func dwellChart(series []Series) *charts.Bar {
	phases := lo.Map(core.Phases[:], func(p core.Phase, _ int) string { return p.String() })

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: "Phase dwell", Subtitle: "ticks per phase"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(phases)
	for _, s := range series {
		if s.Dwell == nil {
			continue
		}
		data := lo.Map(core.Phases[:], func(p core.Phase, _ int) opts.BarData {
			return opts.BarData{Value: s.Dwell[p]}
		})
		bar.AddSeries(s.Name, data, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))
	}
	return bar
}

// WriteHTML renders reward, throughput, wait and epsilon curves for every
// series, plus a phase dwell chart when any series carries dwell ticks.
func WriteHTML(w io.Writer, series ...Series) error {
	if len(series) == 0 {
		return fmt.Errorf("no series to render")
	}

	page := components.NewPage()
	page.PageTitle = "Intersection training report"
	for _, m := range []Metric{MetricReward, MetricThroughput, MetricAverageWait, MetricEpsilon} {
		page.AddCharts(lineChart(m, series))
	}
	if lo.SomeBy(series, func(s Series) bool { return s.Dwell != nil }) {
		page.AddCharts(dwellChart(series))
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

// SavePNG plots one metric per episode for every series, each with a
// smoothed companion curve, and saves it as a PNG image at path.
func SavePNG(path string, m Metric, series ...Series) error {
	if !strings.EqualFold(filepath.Ext(path), ".png") {
		return fmt.Errorf("report path must have .png extension: %s", path)
	}
	if len(series) == 0 {
		return fmt.Errorf("no series to plot")
	}

	p := plot.New()
	p.Title.Text = m.String() + " per episode"
	p.X.Label.Text = "Episode"
	p.Y.Label.Text = m.String()
	p.Add(plotter.NewGrid())

	for i, s := range series {
		values := m.Values(s.Episodes)
		if len(values) == 0 {
			continue
		}
		c := lineColors[i%len(lineColors)]

		raw, err := plotter.NewLine(toXYs(values))
		if err != nil {
			return fmt.Errorf("series %s: %w", s.Name, err)
		}
		raw.Color = color.NRGBA{R: c.R, G: c.G, B: c.B, A: 0x60}
		raw.Width = vg.Points(1)
		p.Add(raw)

		smooth, err := plotter.NewLine(toXYs(analysis.MovingAverage(values, SmoothingWindow)))
		if err != nil {
			return fmt.Errorf("series %s: %w", s.Name, err)
		}
		smooth.Color = c
		smooth.Width = vg.Points(2)
		p.Add(smooth)
		p.Legend.Add(s.Name, smooth)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save plot: %w", err)
	}
	return nil
}

func toXYs(values []float64) plotter.XYs {
	pts := make(plotter.XYs, len(values))
	for i, v := range values {
		pts[i] = plotter.XY{X: float64(i + 1), Y: v}
	}
	return pts
}
