package translator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/salesq/dataset"
	"github.com/spektr-org/salesq/engine"
	"github.com/spektr-org/salesq/schema"
)

func TestExtract_FlatDraft(t *testing.T) {
	x := newTestExtractor(t, draftFrom(`{"brand": "delphy", "month": "January", "year": 2024, "metric": "sales"}`))

	spec, err := x.Extract(context.Background(), "What were Delphy sales in January 2024?", nil)
	require.NoError(t, err)
	assert.Equal(t, engine.MetricSales, spec.Metric)
	assert.Equal(t, engine.Filters{
		dataset.Brand: {"Delphy"},
		dataset.Month: {"JAN"},
		dataset.Year:  {"2024"},
	}, spec.Filters)
	assert.Nil(t, spec.Comparison)
	assert.Nil(t, spec.Ranking)
}

func TestExtract_FollowUpInheritsPreviousTurn(t *testing.T) {
	x := newTestExtractor(t, draftFrom(`{"month": "February", "follow_up": true}`))
	history := []Turn{{
		Question: "Delphy sales in January 2024",
		Spec: engine.QuerySpec{
			Metric: engine.MetricSales,
			Filters: engine.Filters{
				dataset.Brand: {"Delphy"},
				dataset.Month: {"JAN"},
				dataset.Year:  {"2024"},
			},
		},
	}}

	spec, err := x.Extract(context.Background(), "what about February?", history)
	require.NoError(t, err)
	assert.Equal(t, engine.MetricSales, spec.Metric)
	assert.Equal(t, []string{"Delphy"}, spec.Filters[dataset.Brand])
	assert.Equal(t, []string{"FEB"}, spec.Filters[dataset.Month])
	assert.Equal(t, []string{"2024"}, spec.Filters[dataset.Year])

	// The earlier turn is not modified.
	assert.Equal(t, []string{"JAN"}, history[0].Spec.Filters[dataset.Month])
}

func TestExtract_FollowUpWithoutHistoryNeedsMetric(t *testing.T) {
	x := newTestExtractor(t, draftFrom(`{"month": "February", "follow_up": true}`))

	_, err := x.Extract(context.Background(), "what about February?", nil)
	var amb *AmbiguousQueryError
	require.ErrorAs(t, err, &amb)
	assert.Equal(t, "metric", amb.Field)
}

func TestExtract_HallucinatedBrand(t *testing.T) {
	x := newTestExtractor(t, draftFrom(`{"brand": "Delfy", "metric": "sales"}`))

	_, err := x.Extract(context.Background(), "Delfy sales", nil)
	var unknown *UnknownValueError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, dataset.Brand, unknown.Dimension)
	assert.Equal(t, "Delfy", unknown.Token)
	assert.Equal(t, []string{"Delphy"}, unknown.Suggestions)
}

func TestExtract_FuzzyNames(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  string
	}{
		{"case", "DELPHY", "Delphy"},
		{"single typo", "Delphi", "Delphy"},
		{"unique prefix", "Delm", "Delmonte"},
		{"punctuation", "del-monte", "Delmonte"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := newTestExtractor(t, ProviderFunc(func(ctx context.Context, req Request) (Draft, error) {
				return Draft{"brand": tt.token, "metric": "sales"}, nil
			}))
			spec, err := x.Extract(context.Background(), "sales", nil)
			require.NoError(t, err)
			assert.Equal(t, []string{tt.want}, spec.Filters[dataset.Brand])
		})
	}
}

func TestExtract_AmbiguousPrefix(t *testing.T) {
	x := newTestExtractor(t, draftFrom(`{"brand": "Del", "metric": "sales"}`))

	_, err := x.Extract(context.Background(), "Del sales", nil)
	var amb *AmbiguousQueryError
	require.ErrorAs(t, err, &amb)
	assert.Equal(t, "brand", amb.Field)
	assert.Equal(t, []string{"Delmonte", "Delphy"}, amb.Candidates)
}

func TestExtract_CaseOnlyVariantsAreNotAmbiguous(t *testing.T) {
	store, err := dataset.New([]dataset.Transaction{
		row("Delphy", "North", "Delhi", "JAN", 2024, 1, 10),
		row("DELPHY", "North", "Delhi", "JAN", 2024, 2, 10),
	})
	require.NoError(t, err)
	sch := schema.FromStore(store)
	x := NewExtractor(draftFrom(`{"brand": "delphy", "metric": "sales"}`), sch)

	spec, err := x.Extract(context.Background(), "delphy sales", nil)
	require.NoError(t, err)
	assert.Len(t, spec.Filters[dataset.Brand], 1)
}

func TestExtract_Region(t *testing.T) {
	tests := []struct {
		token   string
		wantDim dataset.Dimension
		want    string
	}{
		{"north", dataset.Area, "North"},
		{"Pune", dataset.City, "Pune"},
		{"Mumbai", dataset.Area, "Mumbai"},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			x := newTestExtractor(t, ProviderFunc(func(ctx context.Context, req Request) (Draft, error) {
				return Draft{"region": tt.token, "metric": "sales"}, nil
			}))
			spec, err := x.Extract(context.Background(), "sales", nil)
			require.NoError(t, err)
			assert.Equal(t, []string{tt.want}, spec.Filters[tt.wantDim])
		})
	}
}

func TestExtract_ProductMapsToCategory(t *testing.T) {
	x := newTestExtractor(t, draftFrom(`{"product": "biscuits", "metric": "revenue"}`))

	spec, err := x.Extract(context.Background(), "biscuit revenue", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Biscuits"}, spec.Filters[dataset.Category])
}

func TestExtract_TimeReferences(t *testing.T) {
	tests := []struct {
		name       string
		draft      string
		wantMonths []string
		wantYears  []string
	}{
		{"quarter", `{"month": "Q1", "year": "2024"}`, []string{"JAN", "FEB", "MAR"}, []string{"2024"}},
		{"last month", `{"month": "last month"}`, []string{"DEC"}, []string{"2024"}},
		{"this month", `{"month": "this month"}`, []string{"JAN"}, []string{"2025"}},
		{"last year", `{"year": "last year"}`, nil, []string{"2024"}},
		{"month list", `{"month": ["jan", "Feb"], "year": 2024}`, []string{"JAN", "FEB"}, []string{"2024"}},
		{"misspelled", `{"month": "Janury", "year": 2024}`, []string{"JAN"}, []string{"2024"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := parseDraft(tt.draft)
			require.NoError(t, err)
			d["metric"] = "sales"
			x := newTestExtractor(t, ProviderFunc(func(ctx context.Context, req Request) (Draft, error) {
				return d, nil
			}))

			spec, err := x.Extract(context.Background(), "sales", nil)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMonths, spec.Filters[dataset.Month])
			assert.Equal(t, tt.wantYears, spec.Filters[dataset.Year])
		})
	}
}

func TestExtract_UnknownMonth(t *testing.T) {
	x := newTestExtractor(t, draftFrom(`{"month": "Brumaire", "metric": "sales"}`))

	_, err := x.Extract(context.Background(), "sales in brumaire", nil)
	var unknown *UnknownValueError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, dataset.Month, unknown.Dimension)
}

func TestExtract_YearOutsideData(t *testing.T) {
	x := newTestExtractor(t, draftFrom(`{"year": 2030, "metric": "sales"}`))

	_, err := x.Extract(context.Background(), "sales in 2030", nil)
	var unknown *UnknownValueError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, dataset.Year, unknown.Dimension)
	assert.ErrorIs(t, err, engine.ErrInvalidSpec)
}

func TestExtract_ComparisonDefaults(t *testing.T) {
	tests := []struct {
		name  string
		draft string
		mode  engine.ComparisonMode
		want  [2]engine.Period
	}{
		{
			name:  "yoy from filter year",
			draft: `{"comparison": "yoy", "year": 2025}`,
			mode:  engine.CompareYearOverYear,
			want:  [2]engine.Period{{Year: 2024}, {Year: 2025}},
		},
		{
			name:  "yoy from latest years",
			draft: `{"comparison": "year-over-year"}`,
			mode:  engine.CompareYearOverYear,
			want:  [2]engine.Period{{Year: 2024}, {Year: 2025}},
		},
		{
			name:  "yoy carries a single month",
			draft: `{"comparison": "yoy", "month": "jan", "year": 2025}`,
			mode:  engine.CompareYearOverYear,
			want:  [2]engine.Period{{Month: "JAN", Year: 2024}, {Month: "JAN", Year: 2025}},
		},
		{
			name:  "pop wraps january",
			draft: `{"comparison": "mom", "month": "January", "year": 2025}`,
			mode:  engine.ComparePeriodOverPeriod,
			want:  [2]engine.Period{{Month: "DEC", Year: 2024}, {Month: "JAN", Year: 2025}},
		},
		{
			name:  "explicit periods",
			draft: `{"comparison": {"mode": "pop", "periods": [{"month": "FEB", "year": 2024}, {"month": "MAR", "year": 2024}]}}`,
			mode:  engine.ComparePeriodOverPeriod,
			want:  [2]engine.Period{{Month: "FEB", Year: 2024}, {Month: "MAR", Year: 2024}},
		},
		{
			name:  "periods without mode",
			draft: `{"periods": ["2024", "2025"]}`,
			mode:  engine.CompareYearOverYear,
			want:  [2]engine.Period{{Year: 2024}, {Year: 2025}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := parseDraft(tt.draft)
			require.NoError(t, err)
			d["metric"] = "sales"
			x := newTestExtractor(t, ProviderFunc(func(ctx context.Context, req Request) (Draft, error) {
				return d, nil
			}))

			spec, err := x.Extract(context.Background(), "compare sales", nil)
			require.NoError(t, err)
			require.NotNil(t, spec.Comparison)
			assert.Equal(t, tt.mode, spec.Comparison.Mode)
			assert.Equal(t, tt.want, spec.Comparison.Periods)
			assert.False(t, spec.Filters.Has(dataset.Year))
		})
	}
}

func TestExtract_PeriodOverPeriodNeedsMonth(t *testing.T) {
	x := newTestExtractor(t, draftFrom(`{"comparison": "pop", "metric": "sales"}`))

	_, err := x.Extract(context.Background(), "sales period over period", nil)
	var amb *AmbiguousQueryError
	require.ErrorAs(t, err, &amb)
	assert.Equal(t, "comparison", amb.Field)
}

func TestExtract_FollowUpTimeDropsInheritedComparison(t *testing.T) {
	x := newTestExtractor(t, draftFrom(`{"month": "March", "follow_up": true}`))
	history := []Turn{{
		Question: "compare sales 2024 vs 2025",
		Spec: engine.QuerySpec{
			Metric: engine.MetricSales,
			Comparison: &engine.Comparison{
				Mode:    engine.CompareYearOverYear,
				Periods: [2]engine.Period{{Year: 2023}, {Year: 2024}},
			},
		},
	}}

	spec, err := x.Extract(context.Background(), "what about March?", history)
	require.NoError(t, err)
	assert.Nil(t, spec.Comparison)
	assert.Equal(t, []string{"MAR"}, spec.Filters[dataset.Month])
	assert.Equal(t, []string{"2024"}, spec.Filters[dataset.Year])
}

func TestExtract_Ranking(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		x := newTestExtractor(t, draftFrom(`{"ranking": "highest", "metric": "sales"}`))
		spec, err := x.Extract(context.Background(), "highest sales", nil)
		require.NoError(t, err)
		assert.Equal(t, &engine.Ranking{Direction: engine.Top, N: DefaultRankingN}, spec.Ranking)
		assert.Equal(t, dataset.Brand, spec.GroupBy)
	})

	t.Run("nested filters and top_n", func(t *testing.T) {
		x := newTestExtractor(t, draftFrom(`{"filters": {"area": ["South"]}, "metric": "SALES", "top_n": 2, "ranking": "bottom", "group_by": "cities"}`))
		spec, err := x.Extract(context.Background(), "bottom 2 cities in the south", nil)
		require.NoError(t, err)
		assert.Equal(t, &engine.Ranking{Direction: engine.Bottom, N: 2}, spec.Ranking)
		assert.Equal(t, dataset.City, spec.GroupBy)
		assert.Equal(t, []string{"South"}, spec.Filters[dataset.Area])
	})

	t.Run("non-positive n", func(t *testing.T) {
		x := newTestExtractor(t, draftFrom(`{"ranking": "top", "n": 0, "metric": "sales"}`))
		_, err := x.Extract(context.Background(), "top 0 brands", nil)
		var amb *AmbiguousQueryError
		require.ErrorAs(t, err, &amb)
		assert.Equal(t, "ranking", amb.Field)
	})
}

func TestExtract_MetricResolution(t *testing.T) {
	t.Run("inferred from question", func(t *testing.T) {
		x := newTestExtractor(t, draftFrom(`{"year": 2024}`))
		spec, err := x.Extract(context.Background(), "How many active stores in 2024?", nil)
		require.NoError(t, err)
		assert.Equal(t, engine.MetricActiveStores, spec.Metric)
	})

	t.Run("undetermined", func(t *testing.T) {
		x := newTestExtractor(t, draftFrom(`{"brand": "Delphy"}`))
		_, err := x.Extract(context.Background(), "Delphy in January", nil)
		var amb *AmbiguousQueryError
		require.ErrorAs(t, err, &amb)
		assert.Equal(t, "metric", amb.Field)
	})

	t.Run("unrecognised", func(t *testing.T) {
		x := newTestExtractor(t, draftFrom(`{"metric": "profit margin"}`))
		_, err := x.Extract(context.Background(), "profit margin", nil)
		var amb *AmbiguousQueryError
		require.ErrorAs(t, err, &amb)
		assert.Contains(t, amb.Candidates, "active_stores")
	})
}

func TestExtract_ProviderFailures(t *testing.T) {
	t.Run("error", func(t *testing.T) {
		boom := errors.New("connection refused")
		x := newTestExtractor(t, ProviderFunc(func(ctx context.Context, req Request) (Draft, error) {
			return nil, boom
		}))
		_, err := x.Extract(context.Background(), "sales", nil)
		var svc *ExtractionServiceError
		require.ErrorAs(t, err, &svc)
		assert.ErrorIs(t, err, boom)
		assert.True(t, svc.Transient())
	})

	t.Run("timeout honoured by provider", func(t *testing.T) {
		x := newTestExtractor(t, ProviderFunc(func(ctx context.Context, req Request) (Draft, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}), WithTimeout(20*time.Millisecond))
		_, err := x.Extract(context.Background(), "sales", nil)
		var svc *ExtractionServiceError
		require.ErrorAs(t, err, &svc)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("timeout ignored by provider", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)
		x := newTestExtractor(t, ProviderFunc(func(ctx context.Context, req Request) (Draft, error) {
			<-release
			return Draft{"metric": "sales"}, nil
		}), WithTimeout(20*time.Millisecond))
		_, err := x.Extract(context.Background(), "sales", nil)
		var svc *ExtractionServiceError
		require.ErrorAs(t, err, &svc)
	})

	t.Run("unparseable model text", func(t *testing.T) {
		x := newTestExtractor(t, ProviderFunc(func(ctx context.Context, req Request) (Draft, error) {
			return parseDraft("I cannot help with that")
		}))
		_, err := x.Extract(context.Background(), "sales", nil)
		var svc *ExtractionServiceError
		require.ErrorAs(t, err, &svc)
	})
}

func TestExtract_EmptyQuestion(t *testing.T) {
	x := newTestExtractor(t, draftFrom(`{"metric": "sales"}`))
	_, err := x.Extract(context.Background(), "   ", nil)
	var amb *AmbiguousQueryError
	require.ErrorAs(t, err, &amb)
	assert.Equal(t, "question", amb.Field)
}

func TestExtract_YearOverYearUsesNamedYears(t *testing.T) {
	for _, draft := range []string{
		`{"comparison": "yoy", "year": [2023, 2024], "metric": "sales"}`,
		`{"comparison": "yoy", "year": ["2024", "2023"], "metric": "sales"}`,
	} {
		t.Run(draft, func(t *testing.T) {
			x := extractorOver(t, draftFrom(draft), threeYearRows()...)

			spec, err := x.Extract(context.Background(), "sales 2023 vs 2024 year over year", nil)
			require.NoError(t, err)
			require.NotNil(t, spec.Comparison)
			assert.Equal(t, engine.CompareYearOverYear, spec.Comparison.Mode)
			assert.Equal(t, [2]engine.Period{{Year: 2023}, {Year: 2024}}, spec.Comparison.Periods)
			assert.False(t, spec.Filters.Has(dataset.Year))
		})
	}
}

func TestExtract_MonthWithoutRows(t *testing.T) {
	x := extractorOver(t, draftFrom(`{"brand": "Delphy", "month": "February", "year": 2024, "metric": "sales"}`),
		row("Delphy", "North", "Delhi", "JAN", 2024, 1, 100))

	spec, err := x.Extract(context.Background(), "Delphy sales in February 2024", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"FEB"}, spec.Filters[dataset.Month])
}
