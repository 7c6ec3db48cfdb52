package dataset

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMonth is returned when a token is not a recognisable month.
var ErrUnknownMonth = errors.New("unknown month")

// Months holds the canonical month codes in calendar order.
var Months = []string{"JAN", "FEB", "MAR", "APR", "MAY", "JUN", "JUL", "AUG", "SEP", "OCT", "NOV", "DEC"}

var monthNames = []string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

// monthLookup maps lowercase full names, abbreviations and codes onto codes.
var monthLookup = func() map[string]string {
	m := make(map[string]string, 40)
	for i, code := range Months {
		m[strings.ToLower(code)] = code
		m[monthNames[i]] = code
	}
	m["sept"] = "SEP"
	return m
}()

// NormalizeMonth maps any case of a full month name, its three-letter
// abbreviation or an already canonical code onto the code ("january" -> "JAN").
func NormalizeMonth(s string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.TrimSuffix(key, ".")
	if code, ok := monthLookup[key]; ok {
		return code, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMonth, s)
}

// MonthIndex returns 1..12 for a canonical code, or 0.
func MonthIndex(code string) int {
	for i, m := range Months {
		if m == code {
			return i + 1
		}
	}
	return 0
}

// MonthAt returns the code for a 1-based month number.
func MonthAt(n int) string {
	if n < 1 || n > 12 {
		return ""
	}
	return Months[n-1]
}
