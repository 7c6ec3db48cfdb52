package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spektr-org/salesq/dataset"
)

func tx(brand, month string, year int, store int64, value float64) dataset.Transaction {
	return dataset.Transaction{
		Brand:      brand,
		Category:   "Biscuits",
		Area:       "North",
		City:       "Delhi",
		Month:      month,
		Year:       year,
		StoreID:    store,
		SalesValue: value,
	}
}

func newStore(t *testing.T, rows ...dataset.Transaction) *dataset.Store {
	t.Helper()
	s, err := dataset.New(rows)
	require.NoError(t, err)
	return s
}

// scenarioStore is the three-row Delphy dataset: store 2 nets -100.
func scenarioStore(t *testing.T) *dataset.Store {
	return newStore(t,
		tx("Delphy", "JAN", 2024, 1, 1000),
		tx("Delphy", "JAN", 2024, 2, 500),
		tx("Delphy", "JAN", 2024, 2, -600),
	)
}

func delphyJan2024() Filters {
	return Filters{
		dataset.Brand: {"Delphy"},
		dataset.Month: {"JAN"},
		dataset.Year:  {"2024"},
	}
}
