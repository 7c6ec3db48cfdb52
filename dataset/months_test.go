package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeMonth_AllFormsMapToSameCode(t *testing.T) {
	for i, code := range Months {
		full := monthNames[i]
		forms := []string{
			code,
			strings.ToLower(code),
			full,
			strings.ToUpper(full),
			strings.ToUpper(full[:1]) + full[1:],
			" " + full[:3] + " ",
			full[:3] + ".",
		}
		for _, f := range forms {
			got, err := NormalizeMonth(f)
			require.NoError(t, err, f)
			assert.Equal(t, code, got, "form %q", f)
		}
	}
}

func TestNormalizeMonth_Sept(t *testing.T) {
	got, err := NormalizeMonth("Sept")
	require.NoError(t, err)
	assert.Equal(t, "SEP", got)
}

func TestNormalizeMonth_Unknown(t *testing.T) {
	for _, s := range []string{"", "Smarch", "13", "ja", "janu"} {
		_, err := NormalizeMonth(s)
		assert.ErrorIs(t, err, ErrUnknownMonth, s)
	}
}

func TestMonthIndexRoundTrip(t *testing.T) {
	for n := 1; n <= 12; n++ {
		assert.Equal(t, n, MonthIndex(MonthAt(n)))
	}
	assert.Equal(t, 0, MonthIndex("XYZ"))
	assert.Equal(t, "", MonthAt(0))
	assert.Equal(t, "", MonthAt(13))
}
