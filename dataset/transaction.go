package dataset

import (
	"fmt"
	"strings"
)

// Transaction is one cleaned row of the sales table.
// SalesValue is negative for return/credit lines.
type Transaction struct {
	Brand      string  `json:"brand"`
	Category   string  `json:"category"`
	Area       string  `json:"area"`
	City       string  `json:"city"`
	Month      string  `json:"month"`
	Year       int     `json:"year"`
	StoreID    int64   `json:"store_id"`
	SalesValue float64 `json:"sales_value"`
}

// Dimension names a filterable/groupable column.
type Dimension string

const (
	Brand    Dimension = "brand"
	Category Dimension = "category"
	Area     Dimension = "area"
	City     Dimension = "city"
	Month    Dimension = "month"
	Year     Dimension = "year"
)

// Dimensions lists every dimension in display order.
var Dimensions = []Dimension{Brand, Category, Area, City, Month, Year}

// dimensionSynonyms maps the vocabulary used by questions and loose drafts
// onto canonical dimensions.
var dimensionSynonyms = map[string]Dimension{
	"brand":      Brand,
	"brands":     Brand,
	"category":   Category,
	"categories": Category,
	"product":    Category,
	"products":   Category,
	"area":       Area,
	"areas":      Area,
	"region":     Area,
	"regions":    Area,
	"city":       City,
	"cities":     City,
	"month":      Month,
	"months":     Month,
	"year":       Year,
	"years":      Year,
}

// ParseDimension resolves a dimension name case-insensitively.
func ParseDimension(s string) (Dimension, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if d, ok := dimensionSynonyms[key]; ok {
		return d, nil
	}
	return "", fmt.Errorf("unknown dimension %q", s)
}

// Valid reports whether d is one of the six canonical dimensions.
func (d Dimension) Valid() bool {
	for _, known := range Dimensions {
		if d == known {
			return true
		}
	}
	return false
}

// Value returns the string form of the dimension for a transaction.
func (t Transaction) Value(d Dimension) string {
	switch d {
	case Brand:
		return t.Brand
	case Category:
		return t.Category
	case Area:
		return t.Area
	case City:
		return t.City
	case Month:
		return t.Month
	case Year:
		return yearString(t.Year)
	}
	return ""
}
