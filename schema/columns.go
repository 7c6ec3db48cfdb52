package schema

import (
	"strings"
	"unicode"
)

// ============================================================================
// COLUMN NAMES — header cleaning and aliasing for ingestion
// ============================================================================

// Canonical column names of the transaction table.
const (
	ColBrand      = "brand"
	ColCategory   = "category"
	ColArea       = "area"
	ColCity       = "city"
	ColMonth      = "month"
	ColYear       = "year"
	ColStoreID    = "store_id"
	ColSalesValue = "sales_value"
)

// RequiredColumns must all be present after aliasing.
var RequiredColumns = []string{ColBrand, ColCategory, ColArea, ColCity, ColMonth, ColYear, ColStoreID, ColSalesValue}

// columnAliases maps cleaned source headers onto canonical columns.
var columnAliases = map[string]string{
	"value":                   ColSalesValue,
	"sales":                   ColSalesValue,
	"sales_value":             ColSalesValue,
	"net_sales":               ColSalesValue,
	"customer_account_number": ColStoreID,
	"store":                   ColStoreID,
	"store_id":                ColStoreID,
	"product":                 ColCategory,
	"category":                ColCategory,
	"region":                  ColArea,
	"area":                    ColArea,
	"brand":                   ColBrand,
	"city":                    ColCity,
	"month":                   ColMonth,
	"year":                    ColYear,
}

// CanonicalColumn cleans a raw header and resolves it to a table column.
// ok is false for headers the table does not use.
func CanonicalColumn(header string) (string, bool) {
	col, ok := columnAliases[CleanHeader(header)]
	return col, ok
}

// CleanHeader converts "Customer Account Number" or "storeId" to snake_case.
func CleanHeader(s string) string {
	s = strings.TrimSpace(strings.TrimPrefix(s, "\ufeff"))

	var result strings.Builder
	prev := rune(0)
	for i, r := range s {
		if unicode.IsUpper(r) && i > 0 && (unicode.IsLower(prev) || unicode.IsDigit(prev)) {
			result.WriteRune('_')
		}
		result.WriteRune(r)
		prev = r
	}

	s = strings.ToLower(result.String())
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return strings.Trim(s, "_")
}

// DisplayName cleans a header for human display.
// "store_id" → "Store Id", "brand" → "Brand"
func DisplayName(s string) string {
	if strings.Contains(s, " ") {
		return strings.TrimSpace(s)
	}

	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")

	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
