package engine

import (
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/salesq/dataset"
)

func TestExecute_EndToEndScenario(t *testing.T) {
	store := scenarioStore(t)

	sales, err := Execute(QuerySpec{Metric: MetricSales, Filters: delphyJan2024()}, store)
	require.NoError(t, err)
	assert.Equal(t, KindScalar, sales.Kind)
	assert.Equal(t, 900.0, sales.Value)
	assert.Equal(t, 3, sales.MatchedRows)
	assert.False(t, sales.Empty)

	active, err := Execute(QuerySpec{Metric: MetricActiveStores, Filters: delphyJan2024()}, store)
	require.NoError(t, err)
	assert.Equal(t, 1.0, active.Value)
}

func TestExecute_ActiveStoreRule(t *testing.T) {
	store := newStore(t,
		tx("X", "MAR", 2025, 1, 100), tx("X", "MAR", 2025, 1, -100), // A: net 0
		tx("X", "MAR", 2025, 2, 500), tx("X", "MAR", 2025, 2, -100), // B: net 400
		tx("X", "MAR", 2025, 3, 100), tx("X", "MAR", 2025, 3, -150), // C: net -50
	)

	res, err := Execute(QuerySpec{Metric: MetricActiveStores}, store)
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Value)
	assert.Equal(t, []int64{2}, res.ActiveStoreIDs)
	assert.LessOrEqual(t, res.Value, float64(store.Summary().Stores))
}

func TestExecute_ActiveStoresPerGroup(t *testing.T) {
	// Store 1 is positive for A but negative for B; nets are per group.
	store := newStore(t,
		tx("A", "JAN", 2024, 1, 300),
		tx("B", "JAN", 2024, 1, -50),
		tx("B", "JAN", 2024, 2, 80),
	)

	res, err := Execute(QuerySpec{Metric: MetricActiveStores, GroupBy: dataset.Brand}, store)
	require.NoError(t, err)
	assert.Equal(t, []Row{{Key: "A", Value: 1}, {Key: "B", Value: 1}}, res.Rows)
	assert.Equal(t, 2.0, res.Value)
}

func TestExecute_TopNTieBrokenLexically(t *testing.T) {
	store := newStore(t,
		tx("C", "JAN", 2024, 1, 100),
		tx("B", "JAN", 2024, 2, 300),
		tx("A", "JAN", 2024, 3, 300),
	)

	res, err := Execute(QuerySpec{
		Metric:  MetricSales,
		GroupBy: dataset.Brand,
		Ranking: &Ranking{Direction: Top, N: 2},
	}, store)
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "A", res.Rows[0].Key)
	assert.Equal(t, "B", res.Rows[1].Key)

	bottom, err := Execute(QuerySpec{
		Metric:  MetricSales,
		GroupBy: dataset.Brand,
		Ranking: &Ranking{Direction: Bottom, N: 1},
	}, store)
	require.NoError(t, err)
	assert.Equal(t, []Row{{Key: "C", Value: 100}}, bottom.Rows)
}

func TestExecute_UnrankedTableOrder(t *testing.T) {
	store := newStore(t,
		tx("A", "MAR", 2024, 1, 1),
		tx("A", "JAN", 2024, 1, 2),
		tx("A", "FEB", 2024, 1, 3),
	)

	res, err := Execute(QuerySpec{Metric: MetricSales, GroupBy: dataset.Month}, store)
	require.NoError(t, err)
	keys := make([]string, 0, len(res.Rows))
	for _, r := range res.Rows {
		keys = append(keys, r.Key)
	}
	assert.Equal(t, []string{"JAN", "FEB", "MAR"}, keys)
}

func TestExecute_UnknownBrand(t *testing.T) {
	_, err := Execute(QuerySpec{
		Metric:  MetricSales,
		Filters: Filters{dataset.Brand: {"Delphi"}},
	}, scenarioStore(t))

	require.ErrorIs(t, err, ErrInvalidSpec)
	var unknown *UnknownValueError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, dataset.Brand, unknown.Dimension)
	assert.Equal(t, "Delphi", unknown.Token)
	assert.Equal(t, []string{"Delphy"}, unknown.Suggestions)
}

func TestExecute_EmptyWindowIsNotAnError(t *testing.T) {
	store := newStore(t,
		tx("Delphy", "JAN", 2024, 1, 100),
		tx("Neo", "FEB", 2024, 2, 100),
	)

	for _, m := range Metrics {
		res, err := Execute(QuerySpec{
			Metric:  m,
			Filters: Filters{dataset.Brand: {"Neo"}, dataset.Month: {"JAN"}},
		}, store)
		require.NoError(t, err)
		assert.Equal(t, 0.0, res.Value, m)
		assert.True(t, res.Empty)
	}

	grouped, err := Execute(QuerySpec{
		Metric:  MetricSales,
		GroupBy: dataset.City,
		Filters: Filters{dataset.Brand: {"Neo"}, dataset.Month: {"JAN"}},
	}, store)
	require.NoError(t, err)
	assert.Empty(t, grouped.Rows)
	assert.True(t, grouped.Empty)
}

func TestExecute_MonthWithoutRowsIsEmpty(t *testing.T) {
	store := newStore(t, tx("Delphy", "JAN", 2024, 1, 100))

	res, err := Execute(QuerySpec{
		Metric:  MetricSales,
		Filters: Filters{dataset.Brand: {"Delphy"}, dataset.Month: {"FEB"}, dataset.Year: {"2024"}},
	}, store)
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Value)
	assert.True(t, res.Empty)

	quarter, err := Execute(QuerySpec{
		Metric:  MetricSales,
		Filters: Filters{dataset.Month: {"JAN", "FEB", "MAR"}},
	}, store)
	require.NoError(t, err)
	assert.Equal(t, 100.0, quarter.Value)
}

func TestExecute_UnknownMonthCode(t *testing.T) {
	_, err := Execute(QuerySpec{
		Metric:  MetricSales,
		Filters: Filters{dataset.Month: {"JNA"}},
	}, scenarioStore(t))

	var unknown *UnknownValueError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, dataset.Month, unknown.Dimension)
	assert.Equal(t, "JNA", unknown.Token)
}

func TestExecute_Idempotent(t *testing.T) {
	store := newStore(t,
		tx("A", "JAN", 2024, 1, 0.1),
		tx("A", "JAN", 2024, 2, 0.2),
		tx("B", "FEB", 2024, 1, 0.3),
		tx("B", "JAN", 2025, 3, -0.7),
		tx("A", "FEB", 2025, 2, 1e-9),
	)
	specs := []QuerySpec{
		{Metric: MetricSales},
		{Metric: MetricActiveStores, GroupBy: dataset.Brand},
		{Metric: MetricAverageSales, GroupBy: dataset.Month, Ranking: &Ranking{Direction: Top, N: 1}},
		{Metric: MetricSales, GroupBy: dataset.Brand, Comparison: &Comparison{
			Mode:    CompareYearOverYear,
			Periods: [2]Period{{Year: 2024}, {Year: 2025}},
		}},
	}
	for _, spec := range specs {
		a, err := Execute(spec, store)
		require.NoError(t, err)
		b, err := Execute(spec, store)
		require.NoError(t, err)
		assert.Equal(t, a, b)

		ja, err := json.Marshal(a)
		require.NoError(t, err)
		jb, err := json.Marshal(b)
		require.NoError(t, err)
		assert.Equal(t, string(ja), string(jb))
	}
}

func TestExecute_CaseInsensitiveFilters(t *testing.T) {
	res, err := Execute(QuerySpec{
		Metric:  MetricSales,
		Filters: Filters{dataset.Brand: {"DELPHY"}, dataset.Month: {"JAN"}},
	}, scenarioStore(t))
	require.NoError(t, err)
	assert.Equal(t, 900.0, res.Value)
}

func TestExecute_OrWithinAndAcross(t *testing.T) {
	store := newStore(t,
		tx("A", "JAN", 2024, 1, 10),
		tx("B", "JAN", 2024, 1, 20),
		tx("C", "JAN", 2024, 1, 40),
		tx("A", "FEB", 2024, 1, 80),
	)
	res, err := Execute(QuerySpec{
		Metric:  MetricSales,
		Filters: Filters{dataset.Brand: {"A", "B"}, dataset.Month: {"JAN"}},
	}, store)
	require.NoError(t, err)
	assert.Equal(t, 30.0, res.Value)
}

func TestExecute_AverageSales(t *testing.T) {
	res, err := Execute(QuerySpec{Metric: MetricAverageSales, Filters: delphyJan2024()}, scenarioStore(t))
	require.NoError(t, err)
	assert.Equal(t, 300.0, res.Value)
}

func TestExecute_InvalidSpec(t *testing.T) {
	store := scenarioStore(t)
	tests := []struct {
		name string
		spec QuerySpec
	}{
		{"missing metric", QuerySpec{}},
		{"bad metric", QuerySpec{Metric: "PROFIT"}},
		{"bad group", QuerySpec{Metric: MetricSales, GroupBy: "store"}},
		{"zero n", QuerySpec{Metric: MetricSales, GroupBy: dataset.Brand, Ranking: &Ranking{Direction: Top}}},
		{"ranking without group", QuerySpec{Metric: MetricSales, Ranking: &Ranking{Direction: Top, N: 3}}},
		{"bad filter dimension", QuerySpec{Metric: MetricSales, Filters: Filters{"store": {"1"}}}},
		{"empty filter list", QuerySpec{Metric: MetricSales, Filters: Filters{dataset.Brand: {}}}},
		{"comparison without year", QuerySpec{Metric: MetricSales, Comparison: &Comparison{
			Mode: CompareYearOverYear, Periods: [2]Period{{Year: 2024}, {}},
		}}},
		{"comparison mode none", QuerySpec{Metric: MetricSales, Comparison: &Comparison{
			Mode: CompareNone, Periods: [2]Period{{Year: 2024}, {Year: 2024, Month: "JAN"}},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Execute(tt.spec, store)
			assert.ErrorIs(t, err, ErrInvalidSpec)
		})
	}
}
