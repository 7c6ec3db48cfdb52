package translator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spektr-org/salesq/dataset"
	"github.com/spektr-org/salesq/schema"
)

var refDate = time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)

func row(brand, area, city, month string, year int, store int64, value float64) dataset.Transaction {
	return dataset.Transaction{
		Brand:      brand,
		Category:   "Biscuits",
		Area:       area,
		City:       city,
		Month:      month,
		Year:       year,
		StoreID:    store,
		SalesValue: value,
	}
}

// fixtureSchema covers JAN-MAR and DEC 2024 plus JAN 2025.
func fixtureSchema(t *testing.T) *schema.Config {
	t.Helper()
	store, err := dataset.New([]dataset.Transaction{
		row("Delphy", "North", "Delhi", "JAN", 2024, 1, 1000),
		row("Delphy", "North", "Delhi", "FEB", 2024, 2, 500),
		row("Delmonte", "South", "Pune", "MAR", 2024, 3, 300),
		row("Neo", "South", "Chennai", "DEC", 2024, 4, 200),
		row("Zenith", "Mumbai", "Mumbai", "JAN", 2025, 5, 100),
	})
	require.NoError(t, err)
	return schema.FromStore(store)
}

// draftFrom returns a provider answering with the given model text.
func draftFrom(text string) Provider {
	return ProviderFunc(func(ctx context.Context, req Request) (Draft, error) {
		return parseDraft(text)
	})
}

func newTestExtractor(t *testing.T, p Provider, opts ...Option) *Extractor {
	t.Helper()
	opts = append([]Option{WithReferenceDate(refDate)}, opts...)
	return NewExtractor(p, fixtureSchema(t), opts...)
}

// extractorOver builds an extractor over the given rows instead of the fixture.
func extractorOver(t *testing.T, p Provider, rows ...dataset.Transaction) *Extractor {
	t.Helper()
	store, err := dataset.New(rows)
	require.NoError(t, err)
	return NewExtractor(p, schema.FromStore(store), WithReferenceDate(refDate))
}

// threeYearRows spans 2023 to 2025 so the latest two years differ from
// any other pair.
func threeYearRows() []dataset.Transaction {
	return []dataset.Transaction{
		row("Delphy", "North", "Delhi", "JAN", 2023, 1, 100),
		row("Delphy", "North", "Delhi", "JAN", 2024, 1, 200),
		row("Delphy", "North", "Delhi", "JAN", 2025, 1, 300),
	}
}
