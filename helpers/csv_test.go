package helpers

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/salesq/dataset"
	"github.com/spektr-org/salesq/engine"
	"github.com/spektr-org/salesq/format"
)

const originalCSV = `Brand,Product,Region,City,Month,Year,Customer Account Number,Value
Delphy,Biscuits,North,Delhi,January,2024,101,"1,000.50"
Delphy,Biscuits,North,Delhi,jan,2024,102,-200

Brand,Product,Region,City,Month,Year,Customer Account Number,Value
Neo,Snacks,South,Pune,FEB,2024.0,103,(50)
`

func TestLoadCSV_OriginalHeaders(t *testing.T) {
	store, err := LoadCSV(strings.NewReader(originalCSV))
	require.NoError(t, err)
	require.Equal(t, 3, store.Len())

	first := store.Row(0)
	assert.Equal(t, "Delphy", first.Brand)
	assert.Equal(t, "Biscuits", first.Category)
	assert.Equal(t, "North", first.Area)
	assert.Equal(t, "JAN", first.Month)
	assert.Equal(t, 2024, first.Year)
	assert.Equal(t, int64(101), first.StoreID)
	assert.Equal(t, 1000.5, first.SalesValue)

	assert.Equal(t, "JAN", store.Row(1).Month)
	assert.Equal(t, -50.0, store.Row(2).SalesValue)
	assert.Equal(t, 2024, store.Row(2).Year)
}

func TestLoadCSV_MissingColumns(t *testing.T) {
	_, err := LoadCSV(strings.NewReader("brand,month,year,value\nDelphy,JAN,2024,10\n"))
	require.ErrorIs(t, err, ErrMissingColumns)
	assert.Contains(t, err.Error(), "store_id")
}

func TestLoadCSV_BadValueNamesLine(t *testing.T) {
	in := "brand,category,area,city,month,year,store_id,sales_value\n" +
		"Delphy,Biscuits,North,Delhi,JAN,2024,1,10\n" +
		"Delphy,Biscuits,North,Delhi,JAN,2024,1,ten\n"
	_, err := LoadCSV(strings.NewReader(in))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
	assert.Contains(t, err.Error(), "sales value")
}

func TestLoadCSV_UnknownMonth(t *testing.T) {
	in := "brand,category,area,city,month,year,store_id,sales_value\n" +
		"Delphy,Biscuits,North,Delhi,Jnauary,2024,1,10\n"
	_, err := LoadCSV(strings.NewReader(in))
	assert.ErrorIs(t, err, dataset.ErrUnknownMonth)
}

func TestLoadCSV_Empty(t *testing.T) {
	_, err := LoadCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestWriteCSV_RankedTableIsUnrounded(t *testing.T) {
	store, err := dataset.New([]dataset.Transaction{
		{Brand: "A", Category: "C", Area: "N", City: "X", Month: "JAN", Year: 2024, StoreID: 1, SalesValue: 100.125},
		{Brand: "B", Category: "C", Area: "N", City: "X", Month: "JAN", Year: 2024, StoreID: 2, SalesValue: 0.1},
		{Brand: "B", Category: "C", Area: "N", City: "X", Month: "JAN", Year: 2024, StoreID: 2, SalesValue: 0.2},
	})
	require.NoError(t, err)

	spec := engine.QuerySpec{
		Metric:  engine.MetricSales,
		GroupBy: dataset.Brand,
		Ranking: &engine.Ranking{Direction: engine.Top, N: 2},
	}
	res, err := engine.Execute(spec, store)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, format.Format(spec, res).Export))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "brand,sales_value", lines[0])
	assert.Equal(t, "A,100.125", lines[1])
	assert.Equal(t, "B,0.30000000000000004", lines[2])
}

func TestWriteCSV_NilTable(t *testing.T) {
	assert.Error(t, WriteCSV(&bytes.Buffer{}, nil))
}

func TestExportFilename(t *testing.T) {
	now := time.Date(2024, time.March, 5, 14, 7, 9, 0, time.UTC)

	assert.Equal(t, "sales_data_Top_5_brands_by_sales_20240305_140709.csv", ExportFilename("Top 5 brands by sales?!", now))
	assert.Equal(t, "sales_data_20240305_140709.csv", ExportFilename("???", now))
	assert.Equal(t, "sales_data_Compare_sales_between_2023_and_20240305_140709.csv",
		ExportFilename("Compare sales between 2023 and 2024 for Delphy", now))
}
