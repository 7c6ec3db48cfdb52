package format

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/spektr-org/salesq/dataset"
	"github.com/spektr-org/salesq/engine"
)

// DefaultCurrency prefixes sales amounts unless WithCurrency says otherwise.
const DefaultCurrency = "₹"

// Formatter turns an engine Result into text, chart data and export rows.
// It is stateless after construction and safe for concurrent use.
type Formatter struct {
	currency string
	lang     language.Tag
	printer  *message.Printer
	title    cases.Caser
	logger   zerolog.Logger
}

// Option configures a Formatter.
type Option func(*Formatter)

// WithCurrency sets the symbol prefixed to sales amounts.
func WithCurrency(symbol string) Option {
	return func(f *Formatter) {
		f.currency = symbol
	}
}

// WithLanguage selects number grouping and title-casing rules.
func WithLanguage(tag language.Tag) Option {
	return func(f *Formatter) {
		f.lang = tag
	}
}

// WithLogger reports recovered formatting failures to logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(f *Formatter) {
		f.logger = logger
	}
}

// New creates a Formatter.
func New(opts ...Option) *Formatter {
	f := &Formatter{
		currency: DefaultCurrency,
		lang:     language.English,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.printer = message.NewPrinter(f.lang)
	f.title = cases.Title(f.lang)
	return f
}

var defaultFormatter = New()

// Format renders res with the default formatter.
func Format(spec engine.QuerySpec, res *engine.Result) Response {
	return defaultFormatter.Format(spec, res)
}

// Format never fails: a panic while building the payload degrades to a
// plain textual dump of the raw result.
func (f *Formatter) Format(spec engine.QuerySpec, res *engine.Result) (resp Response) {
	if res == nil {
		return Response{Text: "No result."}
	}
	defer func() {
		if r := recover(); r != nil {
			f.logger.Warn().Interface("panic", r).Msg("formatting failed, falling back to raw dump")
			resp = Response{Text: Dump(res), Empty: res.Empty}
		}
	}()

	resp = Response{
		Text:  f.text(spec, res),
		Empty: res.Empty,
	}
	if spec.GroupBy != "" || spec.Comparison != nil {
		resp.Chart = f.buildChart(spec, res)
	}
	resp.Export = buildExport(res)
	return resp
}

// Dump renders a Result without any formatting logic.
func Dump(res *engine.Result) string {
	if res == nil {
		return "<nil result>"
	}
	if b, err := json.Marshal(res); err == nil {
		return string(b)
	}
	return fmt.Sprintf("%s %s = %v (%d rows)", res.Kind, res.Metric, res.Value, res.MatchedRows)
}

// ============================================================================
// NUMBER AND LABEL HELPERS
// ============================================================================

// Value formats a metric value: currency for sales, a count for stores.
func (f *Formatter) Value(metric engine.Metric, v float64) string {
	if metric == engine.MetricActiveStores {
		return f.printer.Sprintf("%d", int64(v))
	}
	return f.Money(v)
}

// Money formats v as currency with grouping separators and two decimals.
func (f *Formatter) Money(v float64) string {
	if v < 0 {
		return "-" + f.currency + f.printer.Sprintf("%.2f", -v)
	}
	return f.currency + f.printer.Sprintf("%.2f", v)
}

func (f *Formatter) signedValue(metric engine.Metric, v float64) string {
	if v > 0 {
		return "+" + f.Value(metric, v)
	}
	return f.Value(metric, v)
}

func (f *Formatter) dimensionLabel(d dataset.Dimension) string {
	return f.title.String(string(d))
}
