// Package report renders evaluation results into PNG charts for offline
// review of a training run.
package report

import (
	"image/color"
	"os"
	"path/filepath"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/Manda404/obesity-predictor/metrics"
	"github.com/Manda404/obesity-predictor/pkg/errors"
	"github.com/Manda404/obesity-predictor/pkg/log"
)

// Reporter writes charts into a directory.
type Reporter struct {
	dir string
}

// NewReporter creates a reporter writing into dir, creating it if needed.
func NewReporter(dir string) (*Reporter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating report directory")
	}
	return &Reporter{dir: dir}, nil
}

// ConfusionHeatmap renders a model's confusion matrix as a grid of shaded
// cells and returns the written file path.
func (r *Reporter) ConfusionHeatmap(modelName string, ev metrics.Evaluation) (string, error) {
	p := plot.New()
	p.Title.Text = modelName + " Confusion Matrix"
	p.X.Label.Text = "Predicted"
	p.Y.Label.Text = "Actual"

	grid := confusionGrid{classes: ev.Classes, counts: ev.Confusion}
	heat := plotter.NewHeatMap(grid, shadePalette{})
	p.Add(heat)

	ticks := make([]plot.Tick, len(ev.Classes))
	for i, class := range ev.Classes {
		ticks[i] = plot.Tick{Value: float64(i), Label: class}
	}
	p.X.Tick.Marker = plot.ConstantTicks(ticks)
	p.Y.Tick.Marker = plot.ConstantTicks(ticks)
	p.X.Tick.Label.Rotation = 0.9

	path := filepath.Join(r.dir, modelName+"_confusion_matrix.png")
	if err := p.Save(6*vg.Inch, 6*vg.Inch, path); err != nil {
		return "", errors.Wrapf(err, "saving %s", path)
	}
	logger := log.For("report")
	logger.Info().Str("path", path).Msg("confusion heatmap written")
	return path, nil
}

// MetricsBarChart renders weighted F1 per model, one bar each, sorted by
// model name, and returns the written file path.
func (r *Reporter) MetricsBarChart(results map[string]metrics.Evaluation) (string, error) {
	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	values := make(plotter.Values, len(names))
	for i, name := range names {
		values[i] = results[name].F1
	}

	p := plot.New()
	p.Title.Text = "Model Comparison (weighted F1)"
	p.Y.Label.Text = "F1"
	p.Y.Min = 0
	p.Y.Max = 1

	bars, err := plotter.NewBarChart(values, vg.Points(30))
	if err != nil {
		return "", errors.Wrap(err, "building bar chart")
	}
	bars.Color = color.RGBA{R: 70, G: 130, B: 180, A: 255}
	p.Add(bars)
	p.NominalX(names...)

	path := filepath.Join(r.dir, "model_comparison.png")
	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return "", errors.Wrapf(err, "saving %s", path)
	}
	logger := log.For("report")
	logger.Info().Str("path", path).Msg("comparison chart written")
	return path, nil
}

// confusionGrid adapts a confusion matrix to plotter.GridXYZ. Rows are
// reversed so the first class reads from the top of the chart.
type confusionGrid struct {
	classes []string
	counts  [][]float64
}

func (g confusionGrid) Dims() (int, int) { return len(g.classes), len(g.classes) }
func (g confusionGrid) X(c int) float64  { return float64(c) }
func (g confusionGrid) Y(r int) float64  { return float64(r) }

func (g confusionGrid) Z(c, r int) float64 {
	return g.counts[len(g.classes)-1-r][c]
}

// shadePalette is a white-to-blue ramp for heatmap cells.
type shadePalette struct{}

func (shadePalette) Colors() []color.Color {
	const steps = 16
	colors := make([]color.Color, steps)
	for i := 0; i < steps; i++ {
		t := float64(i) / float64(steps-1)
		colors[i] = color.RGBA{
			R: uint8(255 - t*185),
			G: uint8(255 - t*125),
			B: 255,
			A: 255,
		}
	}
	return colors
}
