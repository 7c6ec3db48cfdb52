package format

// ============================================================================
// FORMAT TYPES — display payload handed to the presentation layer
// ============================================================================

// Response is everything a presentation surface needs for one answer.
// Chart is set only for grouped or comparison results; Export only for
// tabular ones.
type Response struct {
	Text   string       `json:"text"`
	Chart  *ChartConfig `json:"chart,omitempty"`
	Export *ExportTable `json:"export,omitempty"`
	Empty  bool         `json:"empty"`
}

// ChartConfig defines how to render a chart.
type ChartConfig struct {
	ChartType  string        `json:"chartType"`
	Title      string        `json:"title"`
	XAxis      string        `json:"xAxis,omitempty"`
	YAxis      string        `json:"yAxis,omitempty"`
	Series     []ChartSeries `json:"series"`
	Colors     []string      `json:"colors,omitempty"`
	ShowLegend bool          `json:"showLegend"`
	ShowGrid   bool          `json:"showGrid"`
}

// ChartSeries represents a data series in a chart.
type ChartSeries struct {
	Name  string       `json:"name"`
	Data  []ChartPoint `json:"data"`
	Color string       `json:"color,omitempty"`
}

// ChartPoint represents a single data point.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// ExportTable is the tabular payload for CSV export.
// Headers are dimension name(s) followed by the metric column;
// numeric cells are unrounded.
type ExportTable struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}
