package engine

import (
	"strconv"
	"strings"

	"github.com/spektr-org/salesq/dataset"
)

// ============================================================================
// FILTERS — single-pass dimension filtering over a View
// ============================================================================
// Checks every dimension constraint per row in one loop and returns a
// SubView (index list into the parent). No row data is copied.
// ============================================================================

// ApplyFilters returns a view of rows matching all dimension filters.
// Dimensions are AND-combined; values within a dimension are OR-combined.
// Comparison ignores case. An empty filter returns the view unchanged.
func ApplyFilters(view dataset.View, filters Filters) dataset.View {
	if filters.IsEmpty() {
		return view
	}

	sets := make(map[dataset.Dimension]map[string]bool, len(filters))
	for dim, allowed := range filters {
		if len(allowed) > 0 {
			sets[dim] = toLowerSet(allowed)
		}
	}

	n := view.Len()
	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		pass := true
		for dim, set := range sets {
			if !set[strings.ToLower(view.Dimension(i, dim))] {
				pass = false
				break
			}
		}
		if pass {
			indices = append(indices, i)
		}
	}

	return dataset.NewSubView(view, indices)
}

// toLowerSet converts a string slice to a lowercase lookup set.
func toLowerSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[strings.ToLower(strings.TrimSpace(item))] = true
	}
	return set
}

// periodFilters replaces the year constraint of f with p.
// A period without a month keeps any month filter, so "Q1 2024 vs Q1 2025"
// compares the same months of both years.
func periodFilters(f Filters, p Period) Filters {
	out := f.Without(dataset.Year)
	if out == nil {
		out = make(Filters, 2)
	}
	if p.Month != "" {
		out[dataset.Month] = []string{p.Month}
	}
	out[dataset.Year] = []string{strconv.Itoa(p.Year)}
	return out
}
