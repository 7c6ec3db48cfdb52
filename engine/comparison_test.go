package engine

import (
	"math"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/salesq/dataset"
)

func yoy(y1, y2 int) *Comparison {
	return &Comparison{Mode: CompareYearOverYear, Periods: [2]Period{{Year: y1}, {Year: y2}}}
}

func TestComparison_YearOverYear(t *testing.T) {
	store := newStore(t,
		tx("A", "JAN", 2024, 1, 100),
		tx("A", "FEB", 2024, 1, 100),
		tx("A", "JAN", 2025, 1, 250),
		tx("B", "JAN", 2025, 2, 50),
	)

	res, err := Execute(QuerySpec{
		Metric:     MetricSales,
		Filters:    Filters{dataset.Brand: {"A"}, dataset.Year: {"2024"}},
		Comparison: yoy(2024, 2025),
	}, store)
	require.NoError(t, err)
	require.Equal(t, KindComparison, res.Kind)

	cmp := res.Comparison
	assert.Equal(t, 200.0, cmp.First.Value)
	assert.Equal(t, 250.0, cmp.Second.Value)
	assert.Equal(t, 50.0, cmp.Delta)
	assert.True(t, cmp.Change.Defined)
	assert.InDelta(t, 25.0, cmp.Change.Percent, 1e-9)
	assert.Equal(t, 3, res.MatchedRows)
}

func TestComparison_PeriodOverPeriodWithMonths(t *testing.T) {
	store := newStore(t,
		tx("A", "DEC", 2024, 1, 400),
		tx("A", "JAN", 2025, 1, 100),
	)

	res, err := Execute(QuerySpec{
		Metric: MetricSales,
		Comparison: &Comparison{
			Mode:    ComparePeriodOverPeriod,
			Periods: [2]Period{{Month: "DEC", Year: 2024}, {Month: "JAN", Year: 2025}},
		},
	}, store)
	require.NoError(t, err)
	assert.Equal(t, -300.0, res.Comparison.Delta)
	assert.Equal(t, "-75.0%", res.Comparison.Change.String())
}

func TestComparison_YearOnlyPeriodsKeepMonthFilter(t *testing.T) {
	store := newStore(t,
		tx("A", "JAN", 2024, 1, 100),
		tx("A", "FEB", 2024, 1, 100),
		tx("A", "JUN", 2024, 1, 999),
		tx("A", "MAR", 2025, 1, 300),
		tx("A", "JUL", 2025, 1, 999),
	)

	res, err := Execute(QuerySpec{
		Metric:     MetricSales,
		Filters:    Filters{dataset.Month: {"JAN", "FEB", "MAR"}},
		Comparison: yoy(2024, 2025),
	}, store)
	require.NoError(t, err)
	assert.Equal(t, 200.0, res.Comparison.First.Value)
	assert.Equal(t, 300.0, res.Comparison.Second.Value)
}

func TestComparison_QuarterWithMissingMonths(t *testing.T) {
	store := newStore(t,
		tx("Delphy", "JAN", 2024, 1, 10),
		tx("Delphy", "JAN", 2025, 1, 20),
		tx("Delphy", "APR", 2025, 1, 999),
	)

	res, err := Execute(QuerySpec{
		Metric:     MetricSales,
		Filters:    Filters{dataset.Brand: {"Delphy"}, dataset.Month: {"JAN", "FEB", "MAR"}},
		Comparison: yoy(2024, 2025),
	}, store)
	require.NoError(t, err)
	assert.Equal(t, 10.0, res.Comparison.First.Value)
	assert.Equal(t, 20.0, res.Comparison.Second.Value)
}

func TestComparison_ZeroBaseIsUndefined(t *testing.T) {
	store := newStore(t,
		tx("A", "JAN", 2024, 1, 100),
		tx("A", "JAN", 2024, 1, -100),
		tx("A", "JAN", 2025, 1, 300),
	)

	res, err := Execute(QuerySpec{Metric: MetricSales, Comparison: yoy(2024, 2025)}, store)
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Comparison.First.Value)
	assert.False(t, res.Comparison.Change.Defined)
	assert.Equal(t, UndefinedMarker, res.Comparison.Change.String())

	raw, err := json.Marshal(res.Comparison.Change)
	require.NoError(t, err)
	assert.Equal(t, "null", string(raw))
}

func TestComparison_GroupedUnionOfKeys(t *testing.T) {
	store := newStore(t,
		tx("A", "JAN", 2024, 1, 100),
		tx("B", "JAN", 2024, 2, 300),
		tx("A", "JAN", 2025, 1, 150),
		tx("C", "JAN", 2025, 3, 500),
	)

	res, err := Execute(QuerySpec{
		Metric:     MetricSales,
		GroupBy:    dataset.Brand,
		Comparison: yoy(2024, 2025),
	}, store)
	require.NoError(t, err)

	rows := res.Comparison.Rows
	require.Len(t, rows, 3)
	assert.Equal(t, ComparisonRow{Key: "A", First: 100, Second: 150, Delta: 50, Change: PercentChange{Percent: 50, Defined: true}}, rows[0])
	assert.Equal(t, "B", rows[1].Key)
	assert.Equal(t, 0.0, rows[1].Second)
	assert.Equal(t, "C", rows[2].Key)
	assert.False(t, rows[2].Change.Defined)
}

func TestComparison_RankedBySecondPeriod(t *testing.T) {
	store := newStore(t,
		tx("A", "JAN", 2024, 1, 900),
		tx("B", "JAN", 2024, 2, 10),
		tx("A", "JAN", 2025, 1, 100),
		tx("B", "JAN", 2025, 2, 200),
	)

	res, err := Execute(QuerySpec{
		Metric:     MetricSales,
		GroupBy:    dataset.Brand,
		Comparison: yoy(2024, 2025),
		Ranking:    &Ranking{Direction: Top, N: 1},
	}, store)
	require.NoError(t, err)
	require.Len(t, res.Comparison.Rows, 1)
	assert.Equal(t, "B", res.Comparison.Rows[0].Key)
}

func TestComparison_ActiveStores(t *testing.T) {
	store := newStore(t,
		tx("A", "JAN", 2024, 1, 100),
		tx("A", "JAN", 2024, 2, 100),
		tx("A", "JAN", 2025, 1, 100),
		tx("A", "JAN", 2025, 2, -100),
	)

	res, err := Execute(QuerySpec{Metric: MetricActiveStores, Comparison: yoy(2024, 2025)}, store)
	require.NoError(t, err)
	assert.Equal(t, 2.0, res.Comparison.First.Value)
	assert.Equal(t, 1.0, res.Comparison.Second.Value)
	assert.Equal(t, "-50.0%", res.Comparison.Change.String())
}

func TestComparison_UnknownYear(t *testing.T) {
	_, err := Execute(QuerySpec{Metric: MetricSales, Comparison: yoy(2019, 2024)}, scenarioStore(t))
	require.ErrorIs(t, err, ErrInvalidSpec)
	var unknown *UnknownValueError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, dataset.Year, unknown.Dimension)
}

func TestPercentChangeJSONRoundTrip(t *testing.T) {
	var p PercentChange
	require.NoError(t, json.Unmarshal([]byte("12.5"), &p))
	assert.Equal(t, PercentChange{Percent: 12.5, Defined: true}, p)
	assert.Equal(t, "+12.5%", NewPercentChange(80, 90).String())
}

func TestPercentChange_OverflowIsUndefined(t *testing.T) {
	tiny := math.SmallestNonzeroFloat64
	p := NewPercentChange(tiny, 1)
	assert.False(t, p.Defined)
	assert.Equal(t, UndefinedMarker, p.String())

	b, err := json.Marshal(struct {
		Change PercentChange `json:"change"`
	}{p})
	require.NoError(t, err)
	assert.JSONEq(t, `{"change":null}`, string(b))

	b, err = json.Marshal(PercentChange{Percent: math.Inf(1), Defined: true})
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))
}
