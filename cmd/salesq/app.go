package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spektr-org/salesq/chat"
	"github.com/spektr-org/salesq/format"
	"github.com/spektr-org/salesq/helpers"
	"github.com/spektr-org/salesq/internal/config"
	"github.com/spektr-org/salesq/internal/logging"
	"github.com/spektr-org/salesq/internal/metrics"
	"github.com/spektr-org/salesq/schema"
	"github.com/spektr-org/salesq/translator"
)

// errNoAPIKey is returned when the gemini provider is selected without a key.
var errNoAPIKey = errors.New("GEMINI_API_KEY is not set (use --provider local to answer offline)")

// newAssistant loads the data and wires the extraction pipeline.
// m may be nil.
func newAssistant(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*chat.Assistant, error) {
	start := time.Now()
	store, err := helpers.LoadFile(ctx, cfg.Data.Path, cfg.Data.Format, cfg.Data.Table)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", cfg.Data.Path, err)
	}
	sum := store.Summary()
	logging.Info().
		Str("path", cfg.Data.Path).
		Int("rows", sum.TotalRows).
		Int("brands", sum.Brands).
		Int("stores", sum.Stores).
		Dur("duration", time.Since(start)).
		Msg("dataset loaded")

	provider, err := newProvider(cfg, m)
	if err != nil {
		return nil, err
	}

	ref, err := cfg.ReferenceTime()
	if err != nil {
		return nil, fmt.Errorf("reference date: %w", err)
	}
	xopts := []translator.Option{
		translator.WithTimeout(cfg.Reasoning.Timeout),
		translator.WithLogger(logging.Component("translator")),
	}
	if !ref.IsZero() {
		xopts = append(xopts, translator.WithReferenceDate(ref))
	}
	x := translator.NewExtractor(provider, schema.FromStore(store), xopts...)

	aopts := []chat.Option{
		chat.WithFormatter(format.New(
			format.WithCurrency(cfg.Currency),
			format.WithLogger(logging.Component("format")),
		)),
		chat.WithLogger(logging.Component("chat")),
	}
	if m != nil {
		aopts = append(aopts, chat.WithObserver(m))
	}
	return chat.NewAssistant(store, x, aopts...), nil
}

func newProvider(cfg *config.Config, m *metrics.Metrics) (translator.Provider, error) {
	rc := cfg.Reasoning
	if rc.Provider == "local" {
		return translator.NewHeuristic(), nil
	}
	if rc.APIKey == "" {
		return nil, errNoAPIKey
	}

	gc := translator.DefaultGeminiConfig()
	gc.APIKey = rc.APIKey
	gc.RatePerMinute = rc.RatePerMinute
	gc.BreakerFailures = rc.BreakerFailures
	if rc.Model != "" {
		gc.Model = rc.Model
	}
	if rc.Endpoint != "" {
		gc.Endpoint = rc.Endpoint
	}

	opts := []translator.GeminiOption{translator.WithGeminiLogger(logging.Component("gemini"))}
	if m != nil {
		opts = append(opts, translator.WithBreakerObserver(m.RecordBreakerState))
	}
	return translator.NewGemini(gc, opts...)
}
