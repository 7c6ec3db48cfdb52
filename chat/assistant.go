package chat

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/spektr-org/salesq/dataset"
	"github.com/spektr-org/salesq/engine"
	"github.com/spektr-org/salesq/format"
	"github.com/spektr-org/salesq/translator"
)

// ============================================================================
// CHAT — one question in, one answer out, per conversation
// ============================================================================
// Assistant holds what every conversation shares: the loaded store, the
// extractor and the formatter. All of it is read-only after construction.
// A Session adds the append-only history of one conversation.
// ============================================================================

// Outcome labels a finished turn.
type Outcome string

const (
	OutcomeAnswered     Outcome = "answered"
	OutcomeEmpty        Outcome = "empty"
	OutcomeUnknownValue Outcome = "unknown_value"
	OutcomeAmbiguous    Outcome = "ambiguous"
	OutcomeService      Outcome = "service_error"
	OutcomeInvalid      Outcome = "invalid"
	OutcomeFailed       Outcome = "failed"
)

// Observer receives timings and outcomes of turns.
type Observer interface {
	ObserveExtraction(d time.Duration)
	ObserveEngine(metric engine.Metric, d time.Duration)
	ObserveTurn(outcome Outcome)
}

type nopObserver struct{}

func (nopObserver) ObserveExtraction(time.Duration) {}
func (nopObserver) ObserveEngine(engine.Metric, time.Duration) {}
func (nopObserver) ObserveTurn(Outcome) {}

// Answer is the outcome of one successful turn.
type Answer struct {
	Question string           `json:"question"`
	Spec     engine.QuerySpec `json:"spec"`
	Result   *engine.Result   `json:"result"`
	Response format.Response  `json:"response"`
	At       time.Time        `json:"at"`
}

// Assistant answers questions over one dataset snapshot.
type Assistant struct {
	store     *dataset.Store
	extractor *translator.Extractor
	formatter *format.Formatter
	observer  Observer
	logger    zerolog.Logger
	now       func() time.Time
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithFormatter replaces the default formatter.
func WithFormatter(f *format.Formatter) Option {
	return func(a *Assistant) {
		if f != nil {
			a.formatter = f
		}
	}
}

// WithObserver reports turn metrics to o.
func WithObserver(o Observer) Option {
	return func(a *Assistant) {
		if o != nil {
			a.observer = o
		}
	}
}

// WithLogger sets the logger for turn events.
func WithLogger(logger zerolog.Logger) Option {
	return func(a *Assistant) {
		a.logger = logger
	}
}

// WithClock overrides time.Now for answer timestamps and session idle tracking.
func WithClock(now func() time.Time) Option {
	return func(a *Assistant) {
		if now != nil {
			a.now = now
		}
	}
}

// NewAssistant wires the extractor, the store and the formatter.
func NewAssistant(store *dataset.Store, extractor *translator.Extractor, opts ...Option) *Assistant {
	a := &Assistant{
		store:     store,
		extractor: extractor,
		formatter: format.New(),
		observer:  nopObserver{},
		logger:    zerolog.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Store returns the dataset snapshot.
func (a *Assistant) Store() *dataset.Store { return a.store }

// Extractor returns the question extractor.
func (a *Assistant) Extractor() *translator.Extractor { return a.extractor }

// answer runs one turn against history. It never mutates history.
func (a *Assistant) answer(ctx context.Context, question string, history []translator.Turn) (*Answer, error) {
	start := time.Now()
	spec, err := a.extractor.Extract(ctx, question, history)
	a.observer.ObserveExtraction(time.Since(start))
	if err != nil {
		a.finish(question, err)
		return nil, err
	}

	start = time.Now()
	res, err := engine.Execute(*spec, a.store, engine.WithLogger(a.logger))
	a.observer.ObserveEngine(spec.Metric, time.Since(start))
	if err != nil {
		a.finish(question, err)
		return nil, err
	}

	ans := &Answer{
		Question: question,
		Spec:     *spec,
		Result:   res,
		Response: a.formatter.Format(*spec, res),
		At:       a.now(),
	}
	outcome := OutcomeAnswered
	if res.Empty {
		outcome = OutcomeEmpty
	}
	a.observer.ObserveTurn(outcome)
	a.logger.Info().
		Str("question", question).
		Str("metric", string(spec.Metric)).
		Int("rows", res.MatchedRows).
		Dur("duration", time.Since(start)).
		Msg("turn answered")
	return ans, nil
}

func (a *Assistant) finish(question string, err error) {
	outcome := Classify(err)
	a.observer.ObserveTurn(outcome)
	ev := a.logger.Warn()
	if outcome == OutcomeUnknownValue || outcome == OutcomeAmbiguous {
		ev = a.logger.Info()
	}
	ev.Err(err).Str("question", question).Str("outcome", string(outcome)).Msg("turn failed")
}

// Classify maps a turn error to its outcome label.
func Classify(err error) Outcome {
	var (
		unknown   *translator.UnknownValueError
		ambiguous *translator.AmbiguousQueryError
		service   *translator.ExtractionServiceError
	)
	switch {
	case err == nil:
		return OutcomeAnswered
	case errors.As(err, &service):
		return OutcomeService
	case errors.As(err, &unknown):
		return OutcomeUnknownValue
	case errors.As(err, &ambiguous):
		return OutcomeAmbiguous
	case errors.Is(err, engine.ErrInvalidSpec):
		return OutcomeInvalid
	}
	return OutcomeFailed
}
