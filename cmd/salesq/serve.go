package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/spektr-org/salesq/chat"
	"github.com/spektr-org/salesq/internal/api"
	"github.com/spektr-org/salesq/internal/logging"
	"github.com/spektr-org/salesq/internal/metrics"
)

func newServeCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat API over HTTP",
		Long: `Serve the chat API over HTTP.

  POST   /api/sessions                 start a conversation
  POST   /api/sessions/:id/ask         {"question": "..."}
  GET    /api/sessions/:id/history     answered turns
  GET    /api/sessions/:id/export.csv  last table as CSV
  DELETE /api/sessions/:id             clear the conversation
  GET    /api/dataset                  summary and known values
  GET    /api/examples                 example questions
  GET    /healthz, /metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			m := metrics.New()
			a, err := newAssistant(ctx, c.cfg, m)
			if err != nil {
				return err
			}
			sessions := chat.NewManager(a)
			m.TrackSessions(sessions.Len)

			h := api.NewHandler(a, sessions,
				api.WithMetrics(m),
				api.WithLogger(logging.Component("api")))

			eg, egctx := errgroup.WithContext(ctx)
			eg.Go(func() error {
				return sessions.RunJanitor(egctx, c.cfg.Server.SessionTTL, 0)
			})
			eg.Go(func() error {
				logging.Info().Str("addr", c.cfg.Server.Addr).Msg("serving")
				return api.Serve(egctx, h.New(), c.cfg.Server.Addr)
			})

			err = eg.Wait()
			logging.Info().Msg("server stopped")
			return err
		},
	}
	cmd.Flags().String("addr", "", "listen address (default :8080)")
	cmd.Flags().Duration("session-ttl", 0, "evict sessions idle for this long (default 30m)")
	return cmd
}
