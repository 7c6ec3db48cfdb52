package format

import (
	"strconv"

	"github.com/spektr-org/salesq/engine"
)

// ============================================================================
// EXPORT ROWS — unrounded tabular payload
// ============================================================================

const periodColumn = "period"

func buildExport(res *engine.Result) *ExportTable {
	metric := res.Metric.Column()

	switch res.Kind {
	case engine.KindTable:
		t := &ExportTable{Headers: []string{string(res.GroupBy), metric}, Rows: make([][]string, 0, len(res.Rows))}
		for _, r := range res.Rows {
			t.Rows = append(t.Rows, []string{r.Key, rawNumber(r.Value)})
		}
		return t

	case engine.KindComparison:
		cmp := res.Comparison
		if cmp == nil {
			return nil
		}
		p1, p2 := cmp.First.Period.Label(), cmp.Second.Period.Label()
		if res.GroupBy == "" {
			return &ExportTable{
				Headers: []string{periodColumn, metric},
				Rows: [][]string{
					{p1, rawNumber(cmp.First.Value)},
					{p2, rawNumber(cmp.Second.Value)},
				},
			}
		}
		t := &ExportTable{
			Headers: []string{string(res.GroupBy), periodColumn, metric},
			Rows:    make([][]string, 0, 2*len(cmp.Rows)),
		}
		for _, r := range cmp.Rows {
			t.Rows = append(t.Rows,
				[]string{r.Key, p1, rawNumber(r.First)},
				[]string{r.Key, p2, rawNumber(r.Second)},
			)
		}
		return t
	}
	return nil
}

// rawNumber renders v with the fewest digits that round-trip exactly.
func rawNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
