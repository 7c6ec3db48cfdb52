package translator

import (
	"context"
	"fmt"
	"time"

	"github.com/spektr-org/salesq/engine"
	"github.com/spektr-org/salesq/schema"
)

// ============================================================================
// TRANSLATOR — natural language → validated QuerySpec
// ============================================================================
// A Provider turns a question into a loose Draft. Providers are untrusted:
// the Extractor re-validates every draft field against the vocabulary and
// the enum sets before a QuerySpec leaves this package.
//
// Providers: GeminiProvider (remote), HeuristicProvider (offline), ProviderFunc.
// ============================================================================

// Provider drafts a candidate query from a question.
type Provider interface {
	Draft(ctx context.Context, req Request) (Draft, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, req Request) (Draft, error)

// Draft calls f.
func (f ProviderFunc) Draft(ctx context.Context, req Request) (Draft, error) {
	return f(ctx, req)
}

// Request is everything a provider may see: the question, prior turns and
// the dataset description. It never carries transaction rows.
type Request struct {
	Question      string
	History       []Turn
	Schema        *schema.Config
	ReferenceDate time.Time
}

// Turn is one answered question of a conversation.
type Turn struct {
	Question string           `json:"question"`
	Spec     engine.QuerySpec `json:"spec"`
}

// Draft is a loosely structured candidate spec as returned by a provider.
// Recognised keys: brand, category (product), area, city, region, month,
// year, metric, group_by, comparison, periods, ranking, n (top_n), follow_up.
// Values may be strings, numbers, lists or nested objects.
type Draft map[string]any

// ============================================================================
// ERRORS
// ============================================================================

// UnknownValueError is raised when a referenced value is not in the vocabulary.
type UnknownValueError = engine.UnknownValueError

// AmbiguousQueryError is raised when a required field cannot be resolved.
type AmbiguousQueryError = engine.AmbiguousQueryError

// ExtractionServiceError wraps any failure or timeout of the reasoning
// provider. The turn may be retried as a fresh question.
type ExtractionServiceError struct {
	Cause error
}

func (e *ExtractionServiceError) Error() string {
	return fmt.Sprintf("reasoning service unavailable: %v", e.Cause)
}

func (e *ExtractionServiceError) Unwrap() error { return e.Cause }

// Transient reports that retrying later may succeed.
func (e *ExtractionServiceError) Transient() bool { return true }
