package chat

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spektr-org/salesq/dataset"
	"github.com/spektr-org/salesq/engine"
	"github.com/spektr-org/salesq/translator"
)

func TestDescribe(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		message    string
		suggestion string
		outcome    Outcome
	}{
		{
			name:       "service",
			err:        &translator.ExtractionServiceError{Cause: errors.New("503")},
			message:    "AI service is temporarily unavailable",
			suggestion: "Please try again in a moment",
			outcome:    OutcomeService,
		},
		{
			name:       "unknown with suggestions",
			err:        &translator.UnknownValueError{Dimension: dataset.Brand, Token: "Delfy", Suggestions: []string{"Delphy", "Delmonte"}},
			message:    `I don't know the brand "Delfy"`,
			suggestion: `Did you mean "Delphy" or "Delmonte"?`,
			outcome:    OutcomeUnknownValue,
		},
		{
			name:       "unknown product",
			err:        fmt.Errorf("%w: %w", engine.ErrInvalidSpec, &translator.UnknownValueError{Dimension: dataset.Category, Token: "Cars"}),
			message:    `I don't know the product "Cars"`,
			suggestion: "Check your brand names, dates, or numbers",
			outcome:    OutcomeUnknownValue,
		},
		{
			name:       "ambiguous",
			err:        &translator.AmbiguousQueryError{Field: "metric", Reason: "no metric named", Candidates: []string{"SALES", "ACTIVE_STORES"}},
			message:    "I couldn't work out the metric: no metric named",
			suggestion: `Try naming one of "SALES" or "ACTIVE_STORES"`,
			outcome:    OutcomeAmbiguous,
		},
		{
			name:       "invalid spec",
			err:        fmt.Errorf("%w: ranking n must be positive", engine.ErrInvalidSpec),
			message:    "Invalid data in your query",
			suggestion: "Check your brand names, dates, or numbers",
			outcome:    OutcomeInvalid,
		},
		{
			name:       "other",
			err:        errors.New("disk on fire"),
			message:    "Something went wrong",
			suggestion: "Try asking: 'What were total sales in 2024?'",
			outcome:    OutcomeFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Describe(tt.err)
			assert.Equal(t, tt.message, p.Message)
			assert.Equal(t, tt.suggestion, p.Suggestion)
			assert.Equal(t, tt.outcome, Classify(tt.err))
		})
	}

	assert.Equal(t, Problem{}, Describe(nil))
}

func TestExamples(t *testing.T) {
	groups := Examples()
	assert.Len(t, groups, 4)
	for _, g := range groups {
		assert.NotEmpty(t, g.Title)
		assert.Len(t, g.Questions, 3)
	}
	assert.Equal(t, "Rankings", groups[3].Title)
}
