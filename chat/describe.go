package chat

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spektr-org/salesq/dataset"
	"github.com/spektr-org/salesq/engine"
	"github.com/spektr-org/salesq/translator"
)

// Problem is the user-facing account of a failed turn.
type Problem struct {
	Message    string `json:"message"`
	Suggestion string `json:"suggestion"`
}

// Describe turns a turn error into something a person can act on.
func Describe(err error) Problem {
	var (
		unknown   *translator.UnknownValueError
		ambiguous *translator.AmbiguousQueryError
		service   *translator.ExtractionServiceError
	)
	switch {
	case err == nil:
		return Problem{}

	case errors.As(err, &service):
		return Problem{
			Message:    "AI service is temporarily unavailable",
			Suggestion: "Please try again in a moment",
		}

	case errors.As(err, &unknown):
		p := Problem{
			Message:    fmt.Sprintf("I don't know the %s %q", dimensionNoun(unknown.Dimension), unknown.Token),
			Suggestion: "Check your brand names, dates, or numbers",
		}
		if len(unknown.Suggestions) > 0 {
			p.Suggestion = "Did you mean " + orList(unknown.Suggestions) + "?"
		}
		return p

	case errors.As(err, &ambiguous):
		p := Problem{
			Message:    fmt.Sprintf("I couldn't work out the %s: %s", ambiguous.Field, ambiguous.Reason),
			Suggestion: "Try rephrasing your question",
		}
		if len(ambiguous.Candidates) > 0 {
			p.Suggestion = "Try naming one of " + orList(ambiguous.Candidates)
		}
		return p

	case errors.Is(err, engine.ErrInvalidSpec):
		return Problem{
			Message:    "Invalid data in your query",
			Suggestion: "Check your brand names, dates, or numbers",
		}
	}
	return Problem{
		Message:    "Something went wrong",
		Suggestion: "Try asking: 'What were total sales in 2024?'",
	}
}

func dimensionNoun(d dataset.Dimension) string {
	if d == dataset.Category {
		return "product"
	}
	return string(d)
}

func orList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	if len(quoted) == 1 {
		return quoted[0]
	}
	return strings.Join(quoted[:len(quoted)-1], ", ") + " or " + quoted[len(quoted)-1]
}
