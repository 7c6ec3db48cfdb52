package engine

import (
	"math"
	"strconv"

	"github.com/spektr-org/salesq/dataset"
)

// ============================================================================
// SALESQ ENGINE TYPES
// ============================================================================
// QuerySpec is the contract between the translator and the engine.
// The translator produces it from a question; the engine consumes it.
// Result is the raw, unformatted answer handed to the format package.
// ============================================================================

// Metric is the quantity a query computes.
type Metric string

const (
	// MetricSales sums sales_value.
	MetricSales Metric = "SALES"
	// MetricActiveStores counts stores whose net sales are strictly positive.
	MetricActiveStores Metric = "ACTIVE_STORES"
	// MetricAverageSales is the mean sales_value per transaction row.
	MetricAverageSales Metric = "AVERAGE_SALES"
)

// Metrics lists every supported metric.
var Metrics = []Metric{MetricSales, MetricActiveStores, MetricAverageSales}

// Label returns the display name of the metric.
func (m Metric) Label() string {
	switch m {
	case MetricSales:
		return "Sales"
	case MetricActiveStores:
		return "Active Stores"
	case MetricAverageSales:
		return "Average Sales"
	}
	return string(m)
}

// Column returns the snake_case column name used in exports.
func (m Metric) Column() string {
	switch m {
	case MetricSales:
		return "sales_value"
	case MetricActiveStores:
		return "active_stores"
	case MetricAverageSales:
		return "average_sales_value"
	}
	return "value"
}

// ComparisonMode selects how two periods are contrasted.
type ComparisonMode string

const (
	CompareNone             ComparisonMode = "NONE"
	CompareYearOverYear     ComparisonMode = "YEAR_OVER_YEAR"
	ComparePeriodOverPeriod ComparisonMode = "PERIOD_OVER_PERIOD"
)

// Direction orders a ranking.
type Direction string

const (
	Top    Direction = "TOP"
	Bottom Direction = "BOTTOM"
)

// ============================================================================
// QUERYSPEC
// ============================================================================

// QuerySpec defines what the engine should compute.
type QuerySpec struct {
	Metric     Metric            `json:"metric" validate:"required,oneof=SALES ACTIVE_STORES AVERAGE_SALES"`
	Filters    Filters           `json:"filters,omitempty" validate:"dive,keys,oneof=brand category area city month year,endkeys,min=1,dive,required"`
	GroupBy    dataset.Dimension `json:"group_by,omitempty" validate:"omitempty,oneof=brand category area city month year"`
	Comparison *Comparison       `json:"comparison,omitempty" validate:"omitempty"`
	Ranking    *Ranking          `json:"ranking,omitempty" validate:"omitempty"`
}

// Comparison contrasts the metric over two periods.
// A nil *Comparison on the spec means CompareNone.
type Comparison struct {
	Mode    ComparisonMode `json:"mode" validate:"oneof=YEAR_OVER_YEAR PERIOD_OVER_PERIOD"`
	Periods [2]Period      `json:"periods" validate:"dive"`
}

// Period is a concrete (month?, year) window.
type Period struct {
	Month string `json:"month,omitempty" validate:"omitempty,oneof=JAN FEB MAR APR MAY JUN JUL AUG SEP OCT NOV DEC"`
	Year  int    `json:"year" validate:"gt=0"`
}

// Label renders the period as "JAN 2024" or "2024".
func (p Period) Label() string {
	y := strconv.Itoa(p.Year)
	if p.Month == "" {
		return y
	}
	return p.Month + " " + y
}

// Ranking keeps the first N groups ordered by value.
type Ranking struct {
	Direction Direction `json:"direction" validate:"oneof=TOP BOTTOM"`
	N         int       `json:"n" validate:"gt=0"`
}

// ComparisonMode returns the query's comparison mode, CompareNone when unset.
func (s QuerySpec) ComparisonMode() ComparisonMode {
	if s.Comparison == nil {
		return CompareNone
	}
	return s.Comparison.Mode
}

// Clone returns a deep copy of the spec.
func (s QuerySpec) Clone() QuerySpec {
	out := s
	out.Filters = s.Filters.Clone()
	if s.Comparison != nil {
		c := *s.Comparison
		out.Comparison = &c
	}
	if s.Ranking != nil {
		r := *s.Ranking
		out.Ranking = &r
	}
	return out
}

// ============================================================================
// FILTERS
// ============================================================================

// Filters maps a dimension to its accepted values.
// OR within a dimension, AND across dimensions. Empty = all rows.
type Filters map[dataset.Dimension][]string

// Has reports whether a dimension filter is set.
func (f Filters) Has(dim dataset.Dimension) bool {
	return len(f[dim]) > 0
}

// IsEmpty returns true if no filters are set.
func (f Filters) IsEmpty() bool {
	for _, vals := range f {
		if len(vals) > 0 {
			return false
		}
	}
	return true
}

// Clone returns a deep copy.
func (f Filters) Clone() Filters {
	if f == nil {
		return nil
	}
	out := make(Filters, len(f))
	for d, vals := range f {
		out[d] = append([]string(nil), vals...)
	}
	return out
}

// Without returns a copy with the given dimensions removed.
func (f Filters) Without(dims ...dataset.Dimension) Filters {
	out := f.Clone()
	for _, d := range dims {
		delete(out, d)
	}
	return out
}

// ============================================================================
// RESULT
// ============================================================================

// ResultKind tells the formatter which shape a Result carries.
type ResultKind string

const (
	KindScalar     ResultKind = "scalar"
	KindTable      ResultKind = "table"
	KindComparison ResultKind = "comparison"
)

// Result is the engine's raw output.
// Empty is set when no transaction matched; it is a warning, never an error.
// ActiveStoreIDs backs an ACTIVE_STORES window figure.
type Result struct {
	Kind           ResultKind        `json:"kind"`
	Metric         Metric            `json:"metric"`
	GroupBy        dataset.Dimension `json:"group_by,omitempty"`
	Value          float64           `json:"value"`
	Rows           []Row             `json:"rows,omitempty"`
	Comparison     *ComparisonResult `json:"comparison,omitempty"`
	ActiveStoreIDs []int64           `json:"active_store_ids,omitempty"`
	MatchedRows    int               `json:"matched_rows"`
	Empty          bool              `json:"empty"`
}

// Row is one group of a table result.
type Row struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

// PeriodResult is the metric computed over one comparison period.
type PeriodResult struct {
	Period      Period  `json:"period"`
	Value       float64 `json:"value"`
	MatchedRows int     `json:"matched_rows"`
}

// ComparisonResult carries both periods and the derived change.
type ComparisonResult struct {
	Mode   ComparisonMode  `json:"mode"`
	First  PeriodResult    `json:"first"`
	Second PeriodResult    `json:"second"`
	Delta  float64         `json:"delta"`
	Change PercentChange   `json:"change"`
	Rows   []ComparisonRow `json:"rows,omitempty"`
}

// ComparisonRow is one group of a grouped comparison.
type ComparisonRow struct {
	Key    string        `json:"key"`
	First  float64       `json:"first"`
	Second float64       `json:"second"`
	Delta  float64       `json:"delta"`
	Change PercentChange `json:"change"`
}

// PercentChange is delta / first * 100.
// Defined is false when the first value is zero.
type PercentChange struct {
	Percent float64
	Defined bool
}

// UndefinedMarker is how an undefined percent change is rendered.
const UndefinedMarker = "n/a"

// NewPercentChange computes the change from first to second.
// A zero base, or one so small the ratio overflows, is undefined.
func NewPercentChange(first, second float64) PercentChange {
	if first == 0 {
		return PercentChange{}
	}
	pct := (second - first) / first * 100
	if math.IsInf(pct, 0) || math.IsNaN(pct) {
		return PercentChange{}
	}
	return PercentChange{Percent: pct, Defined: true}
}

func (p PercentChange) String() string {
	if !p.Defined {
		return UndefinedMarker
	}
	s := strconv.FormatFloat(p.Percent, 'f', 1, 64)
	if p.Percent > 0 {
		s = "+" + s
	}
	return s + "%"
}

// MarshalJSON renders an undefined change as null.
func (p PercentChange) MarshalJSON() ([]byte, error) {
	if !p.Defined || math.IsInf(p.Percent, 0) || math.IsNaN(p.Percent) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, p.Percent, 'f', -1, 64), nil
}

// UnmarshalJSON accepts a number or null.
func (p *PercentChange) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*p = PercentChange{}
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*p = PercentChange{Percent: v, Defined: true}
	return nil
}
