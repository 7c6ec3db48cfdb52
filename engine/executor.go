package engine

import (
	"fmt"
	"time"

	"github.com/spektr-org/salesq/dataset"
)

// ============================================================================
// EXECUTOR
// ============================================================================
// Entry point: Execute(spec, store, opts...)
//
// Pipeline:
//   1. Validate the spec against the store vocabulary
//   2. Apply filters → SubView (comparison periods replace month/year)
//   3. Evaluate the metric, per group when grouped
//   4. Derive delta and percent change for comparisons
//   5. Rank or order the table
//
// Execute never mutates the store and never calls out of process.
// ============================================================================

// Execute runs a QuerySpec against the store and returns the raw Result.
// It fails only when the spec is invalid, wrapping ErrInvalidSpec around
// the validation error so errors.As still finds *UnknownValueError.
func Execute(spec QuerySpec, store *dataset.Store, opts ...Option) (*Result, error) {
	cfg := applyOptions(opts)
	start := time.Now()

	if err := spec.Validate(store.Vocabulary()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSpec, err)
	}

	var result *Result
	if spec.Comparison != nil {
		result = executeComparison(spec, store.View())
	} else {
		result = executeWindow(spec, store.View())
	}
	result.Empty = result.MatchedRows == 0

	cfg.logger.Debug().
		Str("metric", string(spec.Metric)).
		Str("kind", string(result.Kind)).
		Int("rows", result.MatchedRows).
		Dur("duration", time.Since(start)).
		Msg("query executed")

	return result, nil
}

// executeWindow evaluates a spec without comparison.
func executeWindow(spec QuerySpec, view dataset.View) *Result {
	filtered := ApplyFilters(view, spec.Filters)
	result := &Result{
		Metric:      spec.Metric,
		GroupBy:     spec.GroupBy,
		MatchedRows: filtered.Len(),
	}
	if spec.Metric == MetricActiveStores {
		result.ActiveStoreIDs = ActiveStoreIDs(filtered)
	}

	if spec.GroupBy == "" {
		result.Kind = KindScalar
		result.Value = Evaluate(spec.Metric, filtered)
		return result
	}

	// Value stays the whole-window figure; ranking truncates only Rows.
	result.Kind = KindTable
	result.Value = Evaluate(spec.Metric, filtered)
	result.Rows = groupedRows(spec.Metric, filtered, spec.GroupBy)
	result.Rows = SortRows(result.Rows, spec.GroupBy, spec.Ranking)
	return result
}

// executeComparison evaluates both periods independently.
func executeComparison(spec QuerySpec, view dataset.View) *Result {
	cmp := spec.Comparison
	first := ApplyFilters(view, periodFilters(spec.Filters, cmp.Periods[0]))
	second := ApplyFilters(view, periodFilters(spec.Filters, cmp.Periods[1]))

	out := &ComparisonResult{
		Mode:   cmp.Mode,
		First:  PeriodResult{Period: cmp.Periods[0], Value: Evaluate(spec.Metric, first), MatchedRows: first.Len()},
		Second: PeriodResult{Period: cmp.Periods[1], Value: Evaluate(spec.Metric, second), MatchedRows: second.Len()},
	}
	out.Delta = out.Second.Value - out.First.Value
	out.Change = NewPercentChange(out.First.Value, out.Second.Value)

	if spec.GroupBy != "" {
		out.Rows = compareGroups(spec.Metric, spec.GroupBy, first, second)
		out.Rows = sortComparisonRows(out.Rows, spec.GroupBy, spec.Ranking)
	}

	return &Result{
		Kind:        KindComparison,
		Metric:      spec.Metric,
		GroupBy:     spec.GroupBy,
		Value:       out.Second.Value,
		Comparison:  out,
		MatchedRows: first.Len() + second.Len(),
	}
}

func groupedRows(metric Metric, view dataset.View, dim dataset.Dimension) []Row {
	groups := GroupRows(view, dim)
	rows := make([]Row, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, Row{Key: g.Key, Value: Evaluate(metric, g.View)})
	}
	return rows
}

// compareGroups joins both periods on the union of group keys.
// A key missing from one period counts as 0 there.
func compareGroups(metric Metric, dim dataset.Dimension, first, second dataset.View) []ComparisonRow {
	index := make(map[string]int)
	var rows []ComparisonRow
	row := func(key string) *ComparisonRow {
		i, ok := index[key]
		if !ok {
			i = len(rows)
			index[key] = i
			rows = append(rows, ComparisonRow{Key: key})
		}
		return &rows[i]
	}

	for _, g := range GroupRows(first, dim) {
		row(g.Key).First = Evaluate(metric, g.View)
	}
	for _, g := range GroupRows(second, dim) {
		row(g.Key).Second = Evaluate(metric, g.View)
	}
	for i := range rows {
		rows[i].Delta = rows[i].Second - rows[i].First
		rows[i].Change = NewPercentChange(rows[i].First, rows[i].Second)
	}
	return rows
}
