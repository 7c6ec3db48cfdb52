package dataset

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrInvalidRow is returned by New when a row violates the table contract.
var ErrInvalidRow = errors.New("invalid transaction row")

// Store is the immutable, in-memory transaction table.
// It is built once and shared read-only; nothing mutates it after New.
type Store struct {
	rows    []Transaction
	view    View
	vocab   Vocabulary
	summary Summary
}

// Summary describes the loaded dataset.
type Summary struct {
	TotalRows  int     `json:"total_rows"`
	MinYear    int     `json:"min_year"`
	MaxYear    int     `json:"max_year"`
	TotalSales float64 `json:"total_sales"`
	Brands     int     `json:"brands"`
	Stores     int     `json:"stores"`
}

var transactionColumns = NewColumns[Transaction]().
	Dimension(Brand, func(t Transaction) string { return t.Brand }).
	Dimension(Category, func(t Transaction) string { return t.Category }).
	Dimension(Area, func(t Transaction) string { return t.Area }).
	Dimension(City, func(t Transaction) string { return t.City }).
	Dimension(Month, func(t Transaction) string { return t.Month }).
	Dimension(Year, func(t Transaction) string { return yearString(t.Year) }).
	Sales(func(t Transaction) float64 { return t.SalesValue }).
	Store(func(t Transaction) int64 { return t.StoreID })

// New validates rows and builds a Store from a private copy of them.
// Months are normalised to their canonical code; text columns are trimmed.
func New(rows []Transaction) (*Store, error) {
	own := make([]Transaction, len(rows))
	for i, r := range rows {
		r.Brand = strings.TrimSpace(r.Brand)
		r.Category = strings.TrimSpace(r.Category)
		r.Area = strings.TrimSpace(r.Area)
		r.City = strings.TrimSpace(r.City)

		month, err := NormalizeMonth(r.Month)
		if err != nil {
			return nil, fmt.Errorf("%w %d: %w", ErrInvalidRow, i+1, err)
		}
		r.Month = month

		switch {
		case r.Year <= 0:
			return nil, fmt.Errorf("%w %d: year %d", ErrInvalidRow, i+1, r.Year)
		case r.Brand == "":
			return nil, fmt.Errorf("%w %d: empty brand", ErrInvalidRow, i+1)
		case r.Category == "":
			return nil, fmt.Errorf("%w %d: empty category", ErrInvalidRow, i+1)
		case r.Area == "":
			return nil, fmt.Errorf("%w %d: empty area", ErrInvalidRow, i+1)
		case r.City == "":
			return nil, fmt.Errorf("%w %d: empty city", ErrInvalidRow, i+1)
		}
		own[i] = r
	}

	s := &Store{rows: own}
	s.view = transactionColumns.Bind(own)
	s.vocab = buildVocabulary(own)
	s.summary = buildSummary(own)
	return s, nil
}

// Len returns the number of transactions.
func (s *Store) Len() int { return len(s.rows) }

// Row returns a copy of the i-th transaction.
func (s *Store) Row(i int) Transaction { return s.rows[i] }

// View returns the full-table view.
func (s *Store) View() View { return s.view }

// Vocabulary returns the known values per dimension.
func (s *Store) Vocabulary() Vocabulary { return s.vocab }

// Summary returns dataset-level statistics.
func (s *Store) Summary() Summary { return s.summary }

// ============================================================================
// VOCABULARY
// ============================================================================

// Vocabulary lists the distinct values observed for each dimension.
// Months are in calendar order, everything else sorted ascending.
type Vocabulary map[Dimension][]string

// Values returns the known values of a dimension.
func (v Vocabulary) Values(dim Dimension) []string { return v[dim] }

// Lookup returns the canonical spellings matching token case-insensitively.
// More than one result means the data holds case-only variants of one name.
func (v Vocabulary) Lookup(dim Dimension, token string) []string {
	token = strings.TrimSpace(token)
	var out []string
	for _, val := range v[dim] {
		if strings.EqualFold(val, token) {
			out = append(out, val)
		}
	}
	return out
}

// Contains reports whether token is a known value of dim, ignoring case.
func (v Vocabulary) Contains(dim Dimension, token string) bool {
	return len(v.Lookup(dim, token)) > 0
}

// Years returns the known years as integers, ascending.
func (v Vocabulary) Years() []int {
	years := make([]int, 0, len(v[Year]))
	for _, y := range v[Year] {
		if n, err := strconv.Atoi(y); err == nil {
			years = append(years, n)
		}
	}
	sort.Ints(years)
	return years
}

func buildVocabulary(rows []Transaction) Vocabulary {
	sets := make(map[Dimension]map[string]bool, len(Dimensions))
	for _, d := range Dimensions {
		sets[d] = make(map[string]bool)
	}
	for _, r := range rows {
		for _, d := range Dimensions {
			sets[d][r.Value(d)] = true
		}
	}

	vocab := make(Vocabulary, len(Dimensions))
	for d, set := range sets {
		vals := make([]string, 0, len(set))
		for v := range set {
			vals = append(vals, v)
		}
		switch d {
		case Month:
			sort.Slice(vals, func(i, j int) bool { return MonthIndex(vals[i]) < MonthIndex(vals[j]) })
		case Year:
			sort.Slice(vals, func(i, j int) bool {
				a, _ := strconv.Atoi(vals[i])
				b, _ := strconv.Atoi(vals[j])
				return a < b
			})
		default:
			sort.Strings(vals)
		}
		vocab[d] = vals
	}
	return vocab
}

func buildSummary(rows []Transaction) Summary {
	sum := Summary{TotalRows: len(rows)}
	brands := make(map[string]bool)
	stores := make(map[int64]bool)
	for i, r := range rows {
		sum.TotalSales += r.SalesValue
		brands[r.Brand] = true
		stores[r.StoreID] = true
		if i == 0 || r.Year < sum.MinYear {
			sum.MinYear = r.Year
		}
		if r.Year > sum.MaxYear {
			sum.MaxYear = r.Year
		}
	}
	sum.Brands = len(brands)
	sum.Stores = len(stores)
	return sum
}

func yearString(y int) string {
	return strconv.Itoa(y)
}
