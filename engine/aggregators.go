package engine

import (
	"sort"
	"strconv"

	"github.com/spektr-org/salesq/dataset"
)

// ============================================================================
// AGGREGATORS — grouping, metric evaluation and ordering over a View
// ============================================================================
// Every function reads through dataset.View. Grouping produces SubViews.
// Sums run in view order so repeated evaluation is bit-identical.
// ============================================================================

// Group is one distinct value of a grouping dimension and its rows.
type Group struct {
	Key  string
	View dataset.View
}

// GroupRows splits a view by dimension, in first-appearance order.
// An empty view yields no groups.
func GroupRows(view dataset.View, dim dataset.Dimension) []Group {
	grouped := make(map[string][]int)
	order := make([]string, 0)

	for i := 0; i < view.Len(); i++ {
		key := view.Dimension(i, dim)
		if _, exists := grouped[key]; !exists {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], i)
	}

	groups := make([]Group, 0, len(order))
	for _, key := range order {
		groups = append(groups, Group{Key: key, View: dataset.NewSubView(view, grouped[key])})
	}
	return groups
}

// SumSales sums sales_value across a view. Returns net of returns.
func SumSales(view dataset.View) float64 {
	var total float64
	for i := 0; i < view.Len(); i++ {
		total += view.Sales(i)
	}
	return total
}

// AverageSales is the mean sales_value per row, 0 for an empty view.
func AverageSales(view dataset.View) float64 {
	n := view.Len()
	if n == 0 {
		return 0
	}
	return SumSales(view) / float64(n)
}

// StoreNets returns net sales per store_id within the view.
func StoreNets(view dataset.View) map[int64]float64 {
	nets := make(map[int64]float64)
	for i := 0; i < view.Len(); i++ {
		nets[view.StoreID(i)] += view.Sales(i)
	}
	return nets
}

// ActiveStores counts stores whose net sales in the view are strictly > 0.
// A store whose sales and returns cancel exactly is not active.
func ActiveStores(view dataset.View) int {
	return len(ActiveStoreIDs(view))
}

// ActiveStoreIDs lists the active stores of the view in ascending order.
func ActiveStoreIDs(view dataset.View) []int64 {
	var ids []int64
	for id, net := range StoreNets(view) {
		if net > 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Evaluate computes metric over a view.
func Evaluate(metric Metric, view dataset.View) float64 {
	switch metric {
	case MetricActiveStores:
		return float64(ActiveStores(view))
	case MetricAverageSales:
		return AverageSales(view)
	default:
		return SumSales(view)
	}
}

// ============================================================================
// SORTING
// ============================================================================

// SortRows orders a table. With a ranking it sorts by value (TOP desc,
// BOTTOM asc), breaks ties by key lexically and truncates to N. Without one
// it orders by key in the dimension's natural order.
func SortRows(rows []Row, dim dataset.Dimension, ranking *Ranking) []Row {
	if ranking == nil {
		sort.SliceStable(rows, func(i, j int) bool { return KeyLess(dim, rows[i].Key, rows[j].Key) })
		return rows
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rankLess(ranking.Direction, rows[i].Value, rows[j].Value, rows[i].Key, rows[j].Key)
	})
	if len(rows) > ranking.N {
		rows = rows[:ranking.N]
	}
	return rows
}

// sortComparisonRows ranks grouped comparisons by the second period's value.
func sortComparisonRows(rows []ComparisonRow, dim dataset.Dimension, ranking *Ranking) []ComparisonRow {
	if ranking == nil {
		sort.SliceStable(rows, func(i, j int) bool { return KeyLess(dim, rows[i].Key, rows[j].Key) })
		return rows
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rankLess(ranking.Direction, rows[i].Second, rows[j].Second, rows[i].Key, rows[j].Key)
	})
	if len(rows) > ranking.N {
		rows = rows[:ranking.N]
	}
	return rows
}

func rankLess(dir Direction, a, b float64, ka, kb string) bool {
	if a != b {
		if dir == Bottom {
			return a < b
		}
		return a > b
	}
	return ka < kb
}

// KeyLess orders dimension values: months in calendar order, years
// numerically, everything else lexically.
func KeyLess(dim dataset.Dimension, a, b string) bool {
	switch dim {
	case dataset.Month:
		ia, ib := dataset.MonthIndex(a), dataset.MonthIndex(b)
		if ia != ib {
			return ia < ib
		}
	case dataset.Year:
		ya, errA := strconv.Atoi(a)
		yb, errB := strconv.Atoi(b)
		if errA == nil && errB == nil && ya != yb {
			return ya < yb
		}
	}
	return a < b
}
