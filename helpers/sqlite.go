package helpers

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spektr-org/salesq/dataset"

	// sqlite driver for table ingestion.
	_ "modernc.org/sqlite"
)

// DefaultTable is the table LoadSQLite reads when none is configured.
const DefaultTable = "sales"

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// LoadSQLite reads the transaction table from a SQLite database, read-only.
func LoadSQLite(ctx context.Context, path, table string) (*dataset.Store, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	rows, err := db.QueryContext(ctx, fmt.Sprintf(`SELECT * FROM "%s"`, table))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	idx, err := newColumnIndex(cols)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", table, err)
	}

	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	cells := make([]string, len(cols))

	var txs []dataset.Transaction
	for n := 1; rows.Next(); n++ {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row %d: %w", n, err)
		}
		for i, v := range values {
			cells[i] = strings.TrimSpace(cellString(v))
		}
		if isBlank(cells) {
			continue
		}
		tx, err := idx.transaction(cells, n)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", table, err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return dataset.New(txs)
}

// LoadFile loads path as "csv" or "sqlite". An empty format is inferred
// from the extension.
func LoadFile(ctx context.Context, path, format, table string) (*dataset.Store, error) {
	if format == "" {
		format = "csv"
		switch strings.ToLower(path[strings.LastIndex(path, ".")+1:]) {
		case "db", "sqlite", "sqlite3":
			format = "sqlite"
		}
	}

	switch format {
	case "sqlite":
		return LoadSQLite(ctx, path, table)
	case "csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open data file: %w", err)
		}
		defer func() { _ = f.Close() }()
		return LoadCSV(f)
	}
	return nil, fmt.Errorf("unsupported data format %q", format)
}
