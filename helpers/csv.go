package helpers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spektr-org/salesq/dataset"
	"github.com/spektr-org/salesq/format"
)

// ============================================================================
// CSV HELPER — Parses CSV data into a dataset.Store, writes exports
// ============================================================================
// Consumer reads the CSV from wherever it lives (file, upload, stdin).
// This helper converts the rows into transactions using the column aliases.
// ============================================================================

// LoadCSV parses a transaction table. Header rows repeated inside the body
// and blank lines are skipped; any other unreadable row is an error that
// names its line.
func LoadCSV(r io.Reader) (*dataset.Store, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("CSV is empty")
		}
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}

	idx, err := newColumnIndex(headers)
	if err != nil {
		return nil, err
	}

	var rows []dataset.Transaction
	for {
		cells, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		line, _ := reader.FieldPos(0)

		if isBlank(cells) || idx.isHeader(cells) {
			continue
		}
		tx, err := idx.transaction(cells, line)
		if err != nil {
			return nil, err
		}
		rows = append(rows, tx)
	}

	return dataset.New(rows)
}

// WriteCSV writes an export table. Numbers are already raw strings.
func WriteCSV(w io.Writer, table *format.ExportTable) error {
	if table == nil {
		return errors.New("nothing to export")
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(table.Headers); err != nil {
		return err
	}
	if err := cw.WriteAll(table.Rows); err != nil {
		return err
	}
	return cw.Error()
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9 _-]`)

// ExportFilename builds "sales_data_<question>_<YYYYMMDD_HHMMSS>.csv"
// from the first 30 characters of the question.
func ExportFilename(question string, now time.Time) string {
	stamp := now.Format("20060102_150405")
	runes := []rune(question)
	if len(runes) > 30 {
		runes = runes[:30]
	}
	clean := unsafeFilenameChars.ReplaceAllString(string(runes), "")
	clean = strings.ReplaceAll(strings.TrimSpace(clean), " ", "_")
	if clean == "" {
		return "sales_data_" + stamp + ".csv"
	}
	return "sales_data_" + clean + "_" + stamp + ".csv"
}

// cellString renders a database value as CSV-style text.
func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format(time.RFC3339)
	}
	return fmt.Sprint(v)
}
