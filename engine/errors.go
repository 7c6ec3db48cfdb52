package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spektr-org/salesq/dataset"
)

// ErrInvalidSpec is returned by Execute for a spec that fails validation.
var ErrInvalidSpec = errors.New("invalid query specification")

// UnknownValueError reports a filter value with no match in the vocabulary.
type UnknownValueError struct {
	Dimension   dataset.Dimension
	Token       string
	Suggestions []string
}

func (e *UnknownValueError) Error() string {
	msg := fmt.Sprintf("unknown %s %q", e.Dimension, e.Token)
	if len(e.Suggestions) > 0 {
		msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(e.Suggestions, ", "))
	}
	return msg
}

// AmbiguousQueryError reports a required field that cannot be determined,
// or a token that resolves to several distinct values.
type AmbiguousQueryError struct {
	Field      string
	Reason     string
	Candidates []string
}

func (e *AmbiguousQueryError) Error() string {
	msg := fmt.Sprintf("ambiguous %s: %s", e.Field, e.Reason)
	if len(e.Candidates) > 0 {
		msg += fmt.Sprintf(" (candidates: %s)", strings.Join(e.Candidates, ", "))
	}
	return msg
}
