package format

import (
	"math"

	"github.com/spektr-org/salesq/dataset"
	"github.com/spektr-org/salesq/engine"
)

// ============================================================================
// CHART BUILDER — ChartConfig from QuerySpec + Result
// ============================================================================
// Grouped table            → bar, one series
// Ungrouped YoY            → line across the two periods
// Ungrouped PoP            → bar across the two periods
// Grouped comparison       → bar, one series per period
// Scalar                   → no chart
// ============================================================================

var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

func (f *Formatter) buildChart(spec engine.QuerySpec, res *engine.Result) *ChartConfig {
	switch res.Kind {
	case engine.KindTable:
		return f.tableChart(spec, res)
	case engine.KindComparison:
		if res.Comparison == nil {
			return nil
		}
		if res.GroupBy != "" {
			return f.groupedComparisonChart(spec, res)
		}
		return f.periodChart(res)
	}
	return nil
}

func (f *Formatter) tableChart(spec engine.QuerySpec, res *engine.Result) *ChartConfig {
	points := make([]ChartPoint, 0, len(res.Rows))
	for _, r := range res.Rows {
		points = append(points, ChartPoint{Label: r.Key, Value: roundTo2(r.Value)})
	}
	return finishChart(&ChartConfig{
		ChartType: "bar",
		Title:     f.tableTitle(spec, res),
		XAxis:     f.dimensionLabel(res.GroupBy),
		YAxis:     res.Metric.Label(),
		Series:    []ChartSeries{{Name: res.Metric.Label(), Data: points}},
	})
}

func (f *Formatter) periodChart(res *engine.Result) *ChartConfig {
	cmp := res.Comparison
	chartType := "bar"
	xAxis := "Period"
	if cmp.Mode == engine.CompareYearOverYear {
		chartType = "line"
		xAxis = f.dimensionLabel(dataset.Year)
	}
	return finishChart(&ChartConfig{
		ChartType: chartType,
		Title:     f.comparisonTitle(res),
		XAxis:     xAxis,
		YAxis:     res.Metric.Label(),
		Series: []ChartSeries{{
			Name: res.Metric.Label(),
			Data: []ChartPoint{
				{Label: cmp.First.Period.Label(), Value: roundTo2(cmp.First.Value)},
				{Label: cmp.Second.Period.Label(), Value: roundTo2(cmp.Second.Value)},
			},
		}},
	})
}

func (f *Formatter) groupedComparisonChart(spec engine.QuerySpec, res *engine.Result) *ChartConfig {
	cmp := res.Comparison
	first := ChartSeries{Name: cmp.First.Period.Label(), Data: make([]ChartPoint, 0, len(cmp.Rows))}
	second := ChartSeries{Name: cmp.Second.Period.Label(), Data: make([]ChartPoint, 0, len(cmp.Rows))}
	for _, r := range cmp.Rows {
		first.Data = append(first.Data, ChartPoint{Label: r.Key, Value: roundTo2(r.First)})
		second.Data = append(second.Data, ChartPoint{Label: r.Key, Value: roundTo2(r.Second)})
	}
	return finishChart(&ChartConfig{
		ChartType: "grouped_bar",
		Title:     f.comparisonTitle(res),
		XAxis:     f.dimensionLabel(res.GroupBy),
		YAxis:     res.Metric.Label(),
		Series:    []ChartSeries{first, second},
	})
}

// finishChart assigns colors and display flags.
func finishChart(c *ChartConfig) *ChartConfig {
	c.ShowLegend = len(c.Series) > 1
	c.ShowGrid = true
	c.Colors = make([]string, len(c.Series))
	for i := range c.Series {
		c.Series[i].Color = defaultColors[i%len(defaultColors)]
		c.Colors[i] = c.Series[i].Color
	}
	return c
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
