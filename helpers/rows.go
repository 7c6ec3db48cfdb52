package helpers

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spektr-org/salesq/dataset"
	"github.com/spektr-org/salesq/schema"
)

// ============================================================================
// ROW MAPPING — source columns → dataset.Transaction
// ============================================================================
// Shared by the CSV and SQLite loaders. Headers are cleaned and aliased
// (Value → sales_value, Customer Account Number → store_id); unused
// columns are ignored. Every required column must be present.
// ============================================================================

// ErrMissingColumns is returned when a source lacks required columns.
var ErrMissingColumns = errors.New("missing required columns")

// columnIndex maps canonical column names to source positions.
type columnIndex struct {
	pos     map[string]int
	headers []string
}

func newColumnIndex(headers []string) (*columnIndex, error) {
	idx := &columnIndex{pos: make(map[string]int), headers: headers}
	for i, h := range headers {
		col, ok := schema.CanonicalColumn(h)
		if !ok {
			continue
		}
		// First occurrence wins: "value" before a later "sales" alias.
		if _, dup := idx.pos[col]; !dup {
			idx.pos[col] = i
		}
	}

	var missing []string
	for _, col := range schema.RequiredColumns {
		if _, ok := idx.pos[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return idx, nil
}

// isHeader reports whether cells repeat the header row.
func (c *columnIndex) isHeader(cells []string) bool {
	for col, i := range c.pos {
		if i >= len(cells) {
			return false
		}
		got, ok := schema.CanonicalColumn(cells[i])
		if !ok || got != col {
			return false
		}
	}
	return true
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func (c *columnIndex) cell(cells []string, col string) string {
	i := c.pos[col]
	if i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i])
}

// transaction converts one source row. line is used in error messages.
func (c *columnIndex) transaction(cells []string, line int) (dataset.Transaction, error) {
	tx := dataset.Transaction{
		Brand:    c.cell(cells, schema.ColBrand),
		Category: c.cell(cells, schema.ColCategory),
		Area:     c.cell(cells, schema.ColArea),
		City:     c.cell(cells, schema.ColCity),
	}

	month, err := dataset.NormalizeMonth(c.cell(cells, schema.ColMonth))
	if err != nil {
		return tx, fmt.Errorf("line %d: %w", line, err)
	}
	tx.Month = month

	year, err := parseWhole(c.cell(cells, schema.ColYear))
	if err != nil {
		return tx, fmt.Errorf("line %d: year: %w", line, err)
	}
	tx.Year = int(year)

	tx.StoreID, err = parseWhole(c.cell(cells, schema.ColStoreID))
	if err != nil {
		return tx, fmt.Errorf("line %d: store id: %w", line, err)
	}

	tx.SalesValue, err = parseAmount(c.cell(cells, schema.ColSalesValue))
	if err != nil {
		return tx, fmt.Errorf("line %d: sales value: %w", line, err)
	}
	return tx, nil
}

// parseWhole reads integers, accepting spreadsheet exports like "2024.0".
func parseWhole(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("not a whole number: %q", s)
	}
	return int64(f), nil
}

// parseAmount reads a signed amount, ignoring thousands separators.
// Accounting negatives "(120.50)" are accepted.
func parseAmount(s string) (float64, error) {
	clean := strings.ReplaceAll(s, ",", "")
	neg := strings.HasPrefix(clean, "(") && strings.HasSuffix(clean, ")")
	if neg {
		clean = clean[1 : len(clean)-1]
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(clean), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if neg {
		v = -v
	}
	return v, nil
}
