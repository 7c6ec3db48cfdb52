package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spektr-org/salesq/internal/config"
	"github.com/spektr-org/salesq/internal/logging"
)

// ============================================================================
// SALESQ CLI — Ask your sales table
// ============================================================================

// version is set at build time with -ldflags "-X main.version=...".
var version = "0.3.0"

// cli carries what PersistentPreRunE loaded to the subcommands.
type cli struct {
	cfgFile string
	cfg     *config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "salesq",
		Short: "salesq - ask questions about your sales data",
		Long: `salesq answers plain-English questions about a transactional sales table:
sales totals, active store counts, year-over-year and month-over-month
comparisons, and top/bottom rankings.

Questions are turned into a validated query by a reasoning service
(Gemini, or the offline "local" provider) and computed exactly over
the loaded data.`,
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			switch cmd.Name() {
			case "help", "completion", "__complete", "version", "examples":
				return nil
			}
			cfg, err := config.Load(c.cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			c.cfg = cfg
			logging.Init(logging.Config{
				Level:  cfg.Log.Level,
				Format: cfg.Log.Format,
				Output: cmd.ErrOrStderr(),
			})
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	pf := root.PersistentFlags()
	pf.StringVar(&c.cfgFile, "config", "", "config file (default: ./salesq.yaml)")
	pf.String("data", "", "path to the sales table (.csv, .db, .sqlite)")
	pf.String("data-format", "", "data format: csv or sqlite (default: from extension)")
	pf.String("table", "", "table name inside a SQLite database")
	pf.String("provider", "", "reasoning provider: gemini or local")
	pf.String("model", "", "Gemini model name")
	pf.Duration("timeout", 0, "reasoning service timeout")
	pf.String("reference-date", "", "date relative questions resolve against (YYYY-MM-DD)")
	pf.String("currency", "", "currency symbol for sales values")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log format: console or json")

	_ = root.RegisterFlagCompletionFunc("provider", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"gemini", "local"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = root.RegisterFlagCompletionFunc("data-format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"csv", "sqlite"}, cobra.ShellCompDirectiveNoFileComp
	})

	root.AddCommand(
		newAskCmd(c),
		newChatCmd(c),
		newServeCmd(c),
		newInfoCmd(c),
		newExamplesCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "salesq v%s\n", version)
		},
	}
}
