package main

import (
	"time"

	"github.com/spf13/cobra"
)

func newAskCmd(c *cli) *cobra.Command {
	var (
		asJSON bool
		export string
	)
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer one question and exit",
		Example: `  salesq ask "What were total sales for Delphy in January 2024?"
  salesq ask "Top 5 brands by sales" --export top5.csv
  salesq ask "Compare sales between 2024 and 2025" --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newAssistant(cmd.Context(), c.cfg, nil)
			if err != nil {
				return err
			}

			ans, err := a.NewSession("cli").Ask(cmd.Context(), args[0])
			if err != nil {
				renderProblem(cmd.ErrOrStderr(), err)
				return err
			}

			if asJSON {
				if err := renderJSON(cmd.OutOrStdout(), ans); err != nil {
					return err
				}
			} else {
				renderAnswer(cmd.OutOrStdout(), ans)
			}

			if cmd.Flags().Changed("export") {
				if ans.Response.Export == nil {
					cmd.PrintErrln("Nothing to export: the answer is a single value.")
					return nil
				}
				path, err := exportAnswer(export, ans, time.Now())
				if err != nil {
					return err
				}
				cmd.PrintErrf("📄 CSV written to %s\n", path)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print spec, result and response as JSON")
	cmd.Flags().StringVar(&export, "export", "", "write the answer table to a CSV file (or directory)")
	cmd.Flags().Lookup("export").NoOptDefVal = "."
	return cmd
}
