package ensemble

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/scigo-ensemble/pkg/errors"
)

// ModelReport describes one trained sub-model.
type ModelReport struct {
	Index    int          `json:"index"`
	Batch    int          `json:"batch"`
	Rows     int          `json:"rows"`
	Features int          `json:"features"`
	Metrics  ModelMetrics `json:"metrics"`
	Kept     bool         `json:"kept"`
}

// MetricsReport compares every trained sub-model, including the pruned ones.
type MetricsReport struct {
	// Source is "validation" or "training": the rows the models were scored on.
	Source string        `json:"source"`
	Models []ModelReport `json:"models"`
}

func newMetricsReport(source string, models []*subModel, scores []ModelMetrics, keep []int) *MetricsReport {
	kept := make(map[int]bool, len(keep))
	for _, m := range keep {
		kept[m] = true
	}
	r := &MetricsReport{Source: source, Models: make([]ModelReport, len(models))}
	for i, sm := range models {
		r.Models[i] = ModelReport{
			Index:    i,
			Batch:    sm.batch,
			Rows:     sm.rows,
			Features: len(sm.features),
			Metrics:  scores[i],
			Kept:     kept[i],
		}
	}
	return r
}

// Table renders the report as a text table.
func (r *MetricsReport) Table() string {
	t := table.NewWriter()
	t.SetTitle("Sub-model metrics on %s rows", r.Source)
	t.AppendHeader(table.Row{"Model", "Batch", "Rows", "Features",
		"Accuracy (micro)", "Accuracy (macro)", "Log-loss", "Log-loss reduction", "Kept"})
	for _, m := range r.Models {
		kept := "no"
		if m.Kept {
			kept = "yes"
		}
		t.AppendRow(table.Row{m.Index, m.Batch, m.Rows, m.Features,
			fmt.Sprintf("%.4f", m.Metrics.AccuracyMicro),
			fmt.Sprintf("%.4f", m.Metrics.AccuracyMacro),
			fmt.Sprintf("%.4f", m.Metrics.LogLoss),
			fmt.Sprintf("%.4f", m.Metrics.LogLossReduction),
			kept,
		})
	}
	return t.Render()
}

// PlotScores writes a bar chart of every sub-model's micro accuracy to path.
// The image format follows the file extension (png, svg, pdf...).
func (r *MetricsReport) PlotScores(path string) error {
	if len(r.Models) == 0 {
		return errors.NewValueError("MetricsReport.PlotScores", "no models to plot")
	}

	p := plot.New()
	p.Title.Text = "Sub-model accuracy on " + r.Source + " rows"
	p.Y.Label.Text = "Accuracy (micro)"
	p.Y.Min, p.Y.Max = 0, 1

	kept := make(plotter.Values, len(r.Models))
	pruned := make(plotter.Values, len(r.Models))
	names := make([]string, len(r.Models))
	for i, m := range r.Models {
		if m.Kept {
			kept[i] = m.Metrics.AccuracyMicro
		} else {
			pruned[i] = m.Metrics.AccuracyMicro
		}
		names[i] = strconv.Itoa(m.Index)
	}

	width := vg.Points(10)
	keptBars, err := plotter.NewBarChart(kept, width)
	if err != nil {
		return errors.Wrap(err, "MetricsReport.PlotScores")
	}
	keptBars.Color = plotutil.Color(0)
	keptBars.LineStyle.Width = 0

	prunedBars, err := plotter.NewBarChart(pruned, width)
	if err != nil {
		return errors.Wrap(err, "MetricsReport.PlotScores")
	}
	prunedBars.Color = plotutil.Color(1)
	prunedBars.LineStyle.Width = 0

	p.Add(keptBars, prunedBars)
	p.Legend.Add("kept", keptBars)
	p.Legend.Add("pruned", prunedBars)
	p.Legend.Top = true
	p.NominalX(names...)

	w := vg.Length(max(len(r.Models), 8)) * vg.Points(16)
	if err := p.Save(w, 4*vg.Inch, path); err != nil {
		return errors.Wrap(err, "MetricsReport.PlotScores")
	}
	return nil
}
