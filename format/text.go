package format

import (
	"fmt"
	"strings"

	"github.com/spektr-org/salesq/dataset"
	"github.com/spektr-org/salesq/engine"
)

// ============================================================================
// TEXT BUILDER — one sentence echoing metric and resolved filters
// ============================================================================

const emptyNotice = "No matching transactions for these filters."

func (f *Formatter) text(spec engine.QuerySpec, res *engine.Result) string {
	var b strings.Builder

	switch res.Kind {
	case engine.KindScalar:
		fmt.Fprintf(&b, "%s%s: %s", res.Metric.Label(), describeFilters(spec.Filters, true), f.Value(res.Metric, res.Value))

	case engine.KindTable:
		b.WriteString(f.tableTitle(spec, res))
		b.WriteString(":")
		for i, r := range res.Rows {
			fmt.Fprintf(&b, "\n%d. %s: %s", i+1, r.Key, f.Value(res.Metric, r.Value))
		}

	case engine.KindComparison:
		f.writeComparison(&b, spec, res)

	default:
		b.WriteString(Dump(res))
	}

	if res.Empty {
		b.WriteString("\n")
		b.WriteString(emptyNotice)
	}
	return b.String()
}

func (f *Formatter) writeComparison(b *strings.Builder, spec engine.QuerySpec, res *engine.Result) {
	cmp := res.Comparison
	// Periods replace the year filter, and the month filter only when
	// they name months; otherwise the months still apply to both sides.
	filters := spec.Filters.Without(dataset.Year)
	if cmp.First.Period.Month != "" || cmp.Second.Period.Month != "" {
		filters = filters.Without(dataset.Month)
	}
	fmt.Fprintf(b, "%s: %s → %s (%s, %s)",
		f.comparisonTitle(res)+describeFilters(filters, true),
		f.Value(res.Metric, cmp.First.Value),
		f.Value(res.Metric, cmp.Second.Value),
		f.signedValue(res.Metric, cmp.Delta),
		cmp.Change,
	)
	for i, r := range cmp.Rows {
		fmt.Fprintf(b, "\n%d. %s: %s → %s (%s)",
			i+1, r.Key,
			f.Value(res.Metric, r.First),
			f.Value(res.Metric, r.Second),
			r.Change,
		)
	}
}

// tableTitle reads "Top 5 Brands by Sales in 2024" or "Sales by Month".
func (f *Formatter) tableTitle(spec engine.QuerySpec, res *engine.Result) string {
	dim := f.dimensionLabel(res.GroupBy)
	var title string
	if spec.Ranking != nil {
		dir := "Top"
		if spec.Ranking.Direction == engine.Bottom {
			dir = "Bottom"
		}
		title = fmt.Sprintf("%s %d %s by %s", dir, spec.Ranking.N, plural(dim), res.Metric.Label())
	} else {
		title = fmt.Sprintf("%s by %s", res.Metric.Label(), strings.ToLower(dim))
	}
	return title + describeFilters(spec.Filters, true)
}

// comparisonTitle reads "Sales, 2024 vs 2025".
func (f *Formatter) comparisonTitle(res *engine.Result) string {
	cmp := res.Comparison
	return fmt.Sprintf("%s, %s vs %s", res.Metric.Label(), cmp.First.Period.Label(), cmp.Second.Period.Label())
}

// describeFilters renders filters as " for Delphy in North, JAN 2024".
// withPeriod controls whether month and year are included.
func describeFilters(filters engine.Filters, withPeriod bool) string {
	var parts []string
	if v := filters[dataset.Brand]; len(v) > 0 {
		parts = append(parts, "for "+strings.Join(v, " or "))
	}
	if v := filters[dataset.Category]; len(v) > 0 {
		parts = append(parts, "in "+strings.Join(v, " or "))
	}
	var places []string
	places = append(places, filters[dataset.Area]...)
	places = append(places, filters[dataset.City]...)
	if len(places) > 0 {
		parts = append(parts, "in "+strings.Join(places, " or "))
	}
	if withPeriod {
		period := strings.TrimSpace(strings.Join(filters[dataset.Month], "/") + " " + strings.Join(filters[dataset.Year], "/"))
		if period != "" {
			parts = append(parts, "in "+period)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return " " + strings.Join(parts, " ")
}

func plural(label string) string {
	if strings.HasSuffix(label, "y") {
		return strings.TrimSuffix(label, "y") + "ies"
	}
	return label + "s"
}
