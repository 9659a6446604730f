package charts

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"flowcli/internal/config"
	"flowcli/internal/errors"
)

// ErrNoData is returned when a chart would have nothing to draw
var ErrNoData = errors.NewRenderError("no data to chart", nil)

// Bar is one labelled bar
type Bar struct {
	Label string
	Value float64
}

// Line is one named time series
type Line struct {
	Name   string
	Times  []time.Time
	Values []float64
}

// Renderer writes chart images into the charts directory of a run
type Renderer struct {
	paths  *config.Paths
	width  int
	height int
	logger *slog.Logger
}

// NewRenderer creates a renderer using the image size from out
func NewRenderer(paths *config.Paths, out config.OutputConfig, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	width, height := out.ChartWidth, out.ChartHeight
	if width <= 0 {
		width = 1024
	}
	if height <= 0 {
		height = 512
	}
	return &Renderer{
		paths:  paths,
		width:  width,
		height: height,
		logger: logger.With(slog.String("component", "charts")),
	}
}

// RenderBar draws one bar per entry and returns the written file name
func (r *Renderer) RenderBar(ctx context.Context, name, title, yLabel string, bars []Bar) (string, error) {
	if len(bars) == 0 {
		return "", ErrNoData
	}

	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = yLabel
	p.Y.Min = 0

	values := make(plotter.Values, len(bars))
	labels := make([]string, len(bars))
	for i, b := range bars {
		values[i] = b.Value
		labels[i] = b.Label
	}

	chartBars, err := plotter.NewBarChart(values, vg.Points(barWidth(r.width, len(bars))))
	if err != nil {
		return "", errors.NewRenderError(fmt.Sprintf("failed to build bar chart %s", name), err)
	}
	chartBars.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	chartBars.LineStyle.Width = 0
	p.Add(chartBars)
	p.NominalX(labels...)
	if peak := floats.Max(values); peak <= 0 {
		p.Y.Max = 1
	}

	file := config.SafeFileName(name) + ".png"
	if err := p.Save(vg.Points(float64(r.width)), vg.Points(float64(r.height)), r.paths.GetChartPath(file)); err != nil {
		return "", errors.NewStorageError(fmt.Sprintf("failed to save chart %s", file), err)
	}

	r.logger.DebugContext(ctx, "bar chart written",
		slog.String("file", file),
		slog.Int("bars", len(bars)))
	return file, nil
}

// RenderLines draws every line on one time axis. legendLeft places the
// legend beside the plot; otherwise it sits below it.
func (r *Renderer) RenderLines(ctx context.Context, name, title, yLabel string, lines []Line, legendLeft bool) (string, error) {
	var series []chart.Series
	peak := 0.0
	for i, l := range lines {
		if len(l.Times) == 0 || len(l.Times) != len(l.Values) {
			continue
		}
		xs, ys := l.Times, l.Values
		if len(xs) == 1 {
			// a single point has no x extent
			xs = []time.Time{xs[0], xs[0].Add(time.Second)}
			ys = []float64{ys[0], ys[0]}
		}
		if v := floats.Max(ys); v > peak {
			peak = v
		}
		series = append(series, chart.TimeSeries{
			Name:    l.Name,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: palette(i),
				StrokeWidth: 2,
			},
		})
	}
	if len(series) == 0 {
		return "", ErrNoData
	}
	if peak <= 0 {
		peak = 1
	}

	padLeft := 16
	if legendLeft {
		padLeft = 160
	}

	ch := chart.Chart{
		Title:      title,
		Width:      r.width,
		Height:     r.height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: padLeft, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat("2006-01-02 15:04"),
		},
		YAxis: chart.YAxis{
			Name:  yLabel,
			Range: &chart.ContinuousRange{Min: 0, Max: peak * 1.05},
		},
		Series: series,
	}
	if legendLeft {
		ch.Elements = []chart.Renderable{chart.LegendLeft(&ch)}
	} else {
		ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	}

	file := config.SafeFileName(name) + ".png"
	f, err := os.Create(r.paths.GetChartPath(file))
	if err != nil {
		return "", errors.NewStorageError(fmt.Sprintf("failed to create chart %s", file), err)
	}
	defer f.Close()

	if err := ch.Render(chart.PNG, f); err != nil {
		return "", errors.NewRenderError(fmt.Sprintf("failed to render chart %s", file), err)
	}

	r.logger.DebugContext(ctx, "line chart written",
		slog.String("file", file),
		slog.Int("lines", len(series)))
	return file, nil
}

// barWidth fits n bars into the image width
func barWidth(imageWidth, n int) float64 {
	w := float64(imageWidth) * 0.6 / float64(n)
	switch {
	case w > 40:
		return 40
	case w < 2:
		return 2
	}
	return w
}

var lineColors = []drawing.Color{
	chart.ColorBlue,
	chart.ColorOrange,
	chart.ColorGreen,
	chart.ColorRed,
	chart.ColorCyan,
	chart.ColorYellow,
	chart.ColorAlternateGray,
	chart.ColorBlack,
}

func palette(i int) drawing.Color {
	return lineColors[i%len(lineColors)]
}
