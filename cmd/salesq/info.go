package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/spektr-org/salesq/dataset"
	"github.com/spektr-org/salesq/format"
	"github.com/spektr-org/salesq/helpers"
)

// maxListed caps the values printed per dimension.
const maxListed = 12

func newInfoCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Describe the loaded dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := helpers.LoadFile(cmd.Context(), c.cfg.Data.Path, c.cfg.Data.Format, c.cfg.Data.Table)
			if err != nil {
				return err
			}
			f := format.New(format.WithCurrency(c.cfg.Currency))
			out := cmd.OutOrStdout()
			sum := store.Summary()

			t := table.NewWriter()
			t.SetOutputMirror(out)
			t.SetStyle(table.StyleLight)
			t.SetTitle("📊 Dataset")
			t.AppendRows([]table.Row{
				{"Source", c.cfg.Data.Path},
				{"Transactions", sum.TotalRows},
				{"Years", fmt.Sprintf("%d – %d", sum.MinYear, sum.MaxYear)},
				{"Total sales", f.Money(sum.TotalSales)},
				{"Brands", sum.Brands},
				{"Stores", sum.Stores},
			})
			t.Render()
			_, _ = fmt.Fprintln(out)

			vocab := store.Vocabulary()
			v := table.NewWriter()
			v.SetOutputMirror(out)
			v.SetStyle(table.StyleLight)
			v.AppendHeader(table.Row{"Dimension", "Values", "Known values"})
			for _, dim := range dataset.Dimensions {
				vals := vocab.Values(dim)
				v.AppendRow(table.Row{string(dim), len(vals), listed(vals)})
			}
			v.Render()
			return nil
		},
	}
}

func listed(vals []string) string {
	if len(vals) <= maxListed {
		return strings.Join(vals, ", ")
	}
	return strings.Join(vals[:maxListed], ", ") + fmt.Sprintf(", … (+%d)", len(vals)-maxListed)
}

func newExamplesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "examples",
		Short: "Show example questions",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			renderExamples(cmd.OutOrStdout())
		},
	}
}
