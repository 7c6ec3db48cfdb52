package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/spektr-org/salesq/chat"
	"github.com/spektr-org/salesq/format"
	"github.com/spektr-org/salesq/helpers"
)

// renderAnswer prints the answer text followed by its table, if any.
func renderAnswer(w io.Writer, ans *chat.Answer) {
	_, _ = fmt.Fprintln(w, ans.Response.Text)
	if ans.Response.Export != nil && len(ans.Response.Export.Rows) > 0 {
		_, _ = fmt.Fprintln(w)
		renderExport(w, ans.Response.Export)
	}
}

func renderExport(w io.Writer, et *format.ExportTable) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(et.Headers))
	for i, h := range et.Headers {
		header[i] = h
	}
	t.AppendHeader(header)
	for _, r := range et.Rows {
		row := make(table.Row, len(r))
		for i, cell := range r {
			row[i] = cell
		}
		t.AppendRow(row)
	}
	t.Render()
}

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// renderProblem prints a failed turn in plain words.
func renderProblem(w io.Writer, err error) {
	p := chat.Describe(err)
	_, _ = fmt.Fprintf(w, "❌ %s\n", p.Message)
	if p.Suggestion != "" {
		_, _ = fmt.Fprintf(w, "💡 %s\n", p.Suggestion)
	}
}

func renderExamples(w io.Writer) {
	for i, g := range chat.Examples() {
		if i > 0 {
			_, _ = fmt.Fprintln(w)
		}
		_, _ = fmt.Fprintf(w, "%s %s\n", g.Icon, g.Title)
		for _, q := range g.Questions {
			_, _ = fmt.Fprintf(w, "  • %s\n", q)
		}
	}
}

// exportAnswer writes ans as CSV to path. An empty path or a directory
// gets the generated sales_data_... file name.
func exportAnswer(path string, ans *chat.Answer, now time.Time) (string, error) {
	name := helpers.ExportFilename(ans.Question, now)
	if path == "" {
		path = name
	} else if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		path = filepath.Join(path, name)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	if err := helpers.WriteCSV(f, ans.Response.Export); err != nil {
		_ = f.Close()
		return "", err
	}
	return path, f.Close()
}
