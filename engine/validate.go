package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/spektr-org/salesq/dataset"
)

// ============================================================================
// VALIDATION — struct rules + vocabulary membership
// ============================================================================

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// suggestionLimit caps the suggestions attached to an UnknownValueError.
const suggestionLimit = 3

// Validate checks enum fields and structural rules, then verifies every
// filter value and period against the dataset vocabulary. Months are
// checked against the calendar codes, so a month without rows is valid.
// Unknown values fail with *UnknownValueError.
func (s QuerySpec) Validate(vocab dataset.Vocabulary) error {
	if err := structValidator().Struct(s); err != nil {
		return translateValidation(err)
	}
	if s.Ranking != nil && s.GroupBy == "" {
		return errors.New("ranking requires a grouping dimension")
	}

	for _, dim := range dataset.Dimensions {
		for _, val := range s.Filters[dim] {
			if dim == dataset.Month {
				if err := checkMonth(val); err != nil {
					return err
				}
				continue
			}
			if !vocab.Contains(dim, val) {
				return &UnknownValueError{
					Dimension:   dim,
					Token:       val,
					Suggestions: vocab.Suggest(dim, val, suggestionLimit),
				}
			}
		}
	}

	if s.Comparison != nil {
		for _, p := range s.Comparison.Periods {
			year := strconv.Itoa(p.Year)
			if !vocab.Contains(dataset.Year, year) {
				return &UnknownValueError{
					Dimension:   dataset.Year,
					Token:       year,
					Suggestions: vocab.Suggest(dataset.Year, year, suggestionLimit),
				}
			}
		}
		if s.Comparison.Periods[0] == s.Comparison.Periods[1] {
			return fmt.Errorf("comparison periods are identical (%s)", s.Comparison.Periods[0].Label())
		}
	}
	return nil
}

// checkMonth accepts the twelve canonical month codes.
func checkMonth(code string) error {
	if dataset.MonthIndex(code) > 0 {
		return nil
	}
	calendar := dataset.Vocabulary{dataset.Month: dataset.Months}
	return &UnknownValueError{
		Dimension:   dataset.Month,
		Token:       code,
		Suggestions: calendar.Suggest(dataset.Month, code, suggestionLimit),
	}
}

var validationMessages = map[string]string{
	"required": "%s is required",
	"oneof":    "%s must be one of: %s",
	"gt":       "%s must be greater than %s",
	"min":      "%s must have at least %s value(s)",
}

// translateValidation flattens validator errors into one readable error.
func translateValidation(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := strings.TrimPrefix(fe.Namespace(), "QuerySpec.")
		tmpl, ok := validationMessages[fe.Tag()]
		switch {
		case !ok:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		case strings.Count(tmpl, "%s") == 2:
			msgs = append(msgs, fmt.Sprintf(tmpl, field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf(tmpl, field))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
