package translator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/spektr-org/salesq/dataset"
	"github.com/spektr-org/salesq/engine"
	"github.com/spektr-org/salesq/schema"
)

// DefaultTimeout bounds one provider call.
const DefaultTimeout = 20 * time.Second

// Extractor turns questions into validated query specs.
// It is safe for concurrent use; conversation state lives with the caller.
type Extractor struct {
	provider Provider
	schema   *schema.Config
	vocab    dataset.Vocabulary
	timeout  time.Duration
	refDate  time.Time
	logger   zerolog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(x *Extractor) {
		if d > 0 {
			x.timeout = d
		}
	}
}

// WithReferenceDate fixes the date relative references resolve against.
// The default is the current date at each call.
func WithReferenceDate(t time.Time) Option {
	return func(x *Extractor) {
		x.refDate = t
	}
}

// WithLogger routes extraction events to logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(x *Extractor) {
		x.logger = logger
	}
}

// NewExtractor creates an extractor over the dataset described by sch.
func NewExtractor(p Provider, sch *schema.Config, opts ...Option) *Extractor {
	x := &Extractor{
		provider: p,
		schema:   sch,
		vocab:    sch.Vocabulary(),
		timeout:  DefaultTimeout,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Schema returns the dataset description shown to the provider.
func (x *Extractor) Schema() *schema.Config { return x.schema }

type draftResult struct {
	draft Draft
	err   error
}

// Extract resolves question against the prior turns of its conversation.
//
// Errors are *UnknownValueError, *AmbiguousQueryError or
// *ExtractionServiceError; inspect them with errors.As.
func (x *Extractor) Extract(ctx context.Context, question string, history []Turn) (*engine.QuerySpec, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, &AmbiguousQueryError{Field: "question", Reason: "the question is empty"}
	}

	ref := x.refDate
	if ref.IsZero() {
		ref = time.Now()
	}
	req := Request{
		Question:      question,
		History:       history,
		Schema:        x.schema,
		ReferenceDate: ref,
	}

	cctx, cancel := context.WithTimeout(ctx, x.timeout)
	defer cancel()

	start := time.Now()
	done := make(chan draftResult, 1)
	go func() {
		d, err := x.provider.Draft(cctx, req)
		done <- draftResult{d, err}
	}()

	var res draftResult
	select {
	case res = <-done:
	case <-cctx.Done():
		res.err = cctx.Err()
	}
	if res.err != nil {
		if errors.Is(res.err, context.DeadlineExceeded) {
			res.err = fmt.Errorf("no answer within %s: %w", x.timeout, res.err)
		}
		x.logger.Warn().Err(res.err).Str("question", question).Msg("extraction provider failed")
		return nil, &ExtractionServiceError{Cause: res.err}
	}

	r := resolver{vocab: x.vocab, ref: ref}
	spec, err := r.resolve(question, normalizeDraft(res.draft), history)
	if err != nil {
		x.logger.Debug().Err(err).Str("question", question).Msg("draft rejected")
		return nil, err
	}
	if err := spec.Validate(x.vocab); err != nil {
		return nil, fmt.Errorf("%w: %w", engine.ErrInvalidSpec, err)
	}

	x.logger.Debug().
		Str("question", question).
		Str("metric", string(spec.Metric)).
		Dur("duration", time.Since(start)).
		Msg("question resolved")
	return &spec, nil
}
