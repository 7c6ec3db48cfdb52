package translator

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/spektr-org/salesq/schema"
)

// ============================================================================
// PROMPT BUILDER — schema-driven prompt for the reasoning model
// ============================================================================
// Generated from schema.Config: dimensions with their full vocabulary,
// metrics with synonyms, comparison modes and ranking verbs.
// The model only drafts; it never computes values.
// ============================================================================

// maxHistoryTurns bounds how much conversation is replayed to the model.
const maxHistoryTurns = 5

// BuildPrompt generates the complete prompt for one question.
func BuildPrompt(req Request) string {
	var b strings.Builder
	sch := req.Schema
	if sch == nil {
		sch = &schema.Config{}
	}

	fmt.Fprintf(&b, `You extract query parameters for "%s", a sales analytics assistant.

REFERENCE DATE: %s

YOUR ROLE:
Translate the user's question into a JSON draft that a local engine will validate and execute.
You are a TRANSLATOR ONLY. Do NOT compute any values.

`, sch.Name, req.ReferenceDate.Format("2006-01-02"))

	b.WriteString("DATA MODEL:\n")
	b.WriteString(buildDimensionDescription(sch))
	b.WriteString(buildMetricDescription(sch))
	b.WriteString("\n")

	if h := buildHistory(req.History); h != "" {
		b.WriteString("CONVERSATION SO FAR (oldest first):\n")
		b.WriteString(h)
		b.WriteString("\n")
	}

	b.WriteString(buildResponseFormat(sch))
	b.WriteString(buildRules(sch))
	b.WriteString(buildExamples())

	fmt.Fprintf(&b, "\nQUESTION: %q\n\nRespond with the JSON object only:", req.Question)
	return b.String()
}

// ============================================================================
// SECTION BUILDERS
// ============================================================================

func buildDimensionDescription(sch *schema.Config) string {
	var b strings.Builder
	b.WriteString("DIMENSIONS (filter and group by these):\n")
	for _, d := range sch.Dimensions {
		fmt.Fprintf(&b, "- \"%s\"", d.Key)
		if d.Description != "" {
			fmt.Fprintf(&b, ": %s", d.Description)
		}
		if len(d.Synonyms) > 0 {
			fmt.Fprintf(&b, " (also called: %s)", strings.Join(d.Synonyms, ", "))
		}
		if len(d.Values) > 0 {
			fmt.Fprintf(&b, " — values: [%s]", strings.Join(quotedValues(d.Values), ", "))
		}
		if d.IsTemporal {
			b.WriteString(" [TEMPORAL]")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func buildMetricDescription(sch *schema.Config) string {
	var b strings.Builder
	b.WriteString("\nMETRICS:\n")
	for _, m := range sch.Metrics {
		fmt.Fprintf(&b, "- \"%s\": %s", strings.ToLower(string(m.Key)), m.Description)
		if len(m.Synonyms) > 0 {
			fmt.Fprintf(&b, " (words: %s)", strings.Join(m.Synonyms, ", "))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func buildHistory(turns []Turn) string {
	if len(turns) > maxHistoryTurns {
		turns = turns[len(turns)-maxHistoryTurns:]
	}
	var b strings.Builder
	for _, t := range turns {
		spec, err := json.Marshal(t.Spec)
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "- Q: %q\n  resolved: %s\n", t.Question, spec)
	}
	return b.String()
}

func buildResponseFormat(sch *schema.Config) string {
	return fmt.Sprintf(`RESPONSE FORMAT (valid JSON, no markdown):
{
  "brand": "name" | ["name", ...] | null,
  "category": "name" | null,
  "area": "name" | null,
  "city": "name" | null,
  "region": "name when unsure whether it is an area or a city" | null,
  "month": "January" | "JAN" | "Q1" | "last month" | null,
  "year": 2024 | "last year" | null,
  "metric": %s | null,
  "group_by": %s | null,
  "comparison": %s | null,
  "periods": [{"month": "JAN", "year": 2024}, {"month": "JAN", "year": 2025}] | null,
  "ranking": %s | null,
  "n": 5 | null,
  "follow_up": true | false
}

`,
		strings.Join(quotedLower(sch.MetricKeys()), " | "),
		strings.Join(quotedValues(sch.DimensionKeys()), " | "),
		strings.Join(quotedValues(sch.Comparisons), " | "),
		`"top" | "bottom"`,
	)
}

func buildRules(sch *schema.Config) string {
	return fmt.Sprintf(`RULES:
1. Copy names exactly as the user wrote them; the engine matches them against the values listed above.
2. Leave a field null when the question does not mention it. Do not guess.
3. "metric": active stores means stores with positive net sales; use "active_stores" for any store-count question.
4. "comparison": "yoy" for year-over-year, "pop" for month-over-month or period-over-period. Fill "periods" when both periods are named.
5. "ranking": "top" for %s; "bottom" for the opposite. "n" is the number of entries.
6. "follow_up": true when the question only makes sense with the previous turn (e.g. "what about February?"). Then fill only what changed.
7. Relative dates ("this month", "last year") may be returned as written; they are resolved against the reference date.
8. Year span available: %d to %d.
`, strings.Join(sch.RankingVerbs, ", "), sch.MinYear, sch.MaxYear)
}

func buildExamples() string {
	return `
EXAMPLES:
- "What were Lays sales in January 2024?" → {"brand": "Lays", "month": "January", "year": 2024, "metric": "sales"}
- "How many active stores did Coke have in Q1 2024?" → {"brand": "Coke", "month": "Q1", "year": 2024, "metric": "active_stores"}
- "Compare sales between 2023 and 2024" → {"metric": "sales", "comparison": "yoy", "periods": [{"year": 2023}, {"year": 2024}]}
- "Show me top 5 brands by sales" → {"metric": "sales", "ranking": "top", "n": 5, "group_by": "brand"}
- "what about February?" → {"month": "February", "follow_up": true}
`
}

// ============================================================================
// HELPERS
// ============================================================================

func quotedValues(vals []string) []string {
	quoted := make([]string, len(vals))
	for i, v := range vals {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return quoted
}

func quotedLower(vals []string) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = fmt.Sprintf("%q", strings.ToLower(v))
	}
	return out
}
