package translator

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/spektr-org/salesq/dataset"
	"github.com/spektr-org/salesq/engine"
)

// ============================================================================
// HEURISTIC PROVIDER — offline, rule-based drafts
// ============================================================================
// Scans the question for vocabulary values (longest first, word-bounded),
// month and year tokens, comparison phrases and ranking verbs. It never
// fails; anything it cannot read is left for the resolver to report.
// ============================================================================

var (
	activeStorePattern = regexp.MustCompile(`\bactive\s+(stores?|outlets?)\b|\b(how many|number of|count of)\s+(active\s+)?(stores?|outlets?)\b|\bstore\s+count\b`)
	averagePattern     = regexp.MustCompile(`\b(average|avg|mean)\b`)
	salesPattern       = regexp.MustCompile(`\b(sales?|revenue|turnover|sold)\b`)

	monthPattern         = regexp.MustCompile(`\b(january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept?|oct|nov|dec)\b`)
	relativeMonthPattern = regexp.MustCompile(`\b(this|current|last|previous) month\b`)
	quarterWordPattern   = regexp.MustCompile(`\bq([1-4])\b`)
	yearPattern          = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	relativeYearPattern  = regexp.MustCompile(`\b(this|current|last|previous) year\b`)

	yoyPattern     = regexp.MustCompile(`\byear[- ]over[- ]year\b|\byoy\b|\bannual growth\b|\b(vs\.?|versus|compared to) last year\b`)
	popPattern     = regexp.MustCompile(`\bmonth[- ]over[- ]month\b|\bmom\b|\bperiod[- ]over[- ]period\b|\b(vs\.?|versus|compared to) (last|previous) month\b`)
	comparePattern = regexp.MustCompile(`\b(compare|comparison|vs\.?|versus|against)\b`)

	rankingPattern = regexp.MustCompile(`\b(top|highest|best|largest|bottom|lowest|worst|smallest)\b(?:\s+(\d+))?`)
	groupByPattern = regexp.MustCompile(`\b(?:by|per|each|every|across)\s+(brand|category|product|area|region|city|month|year)s?\b|\b(brands|categories|products|areas|regions|cities)\b`)
)

// inferMetric reads the metric from question keywords.
func inferMetric(question string) (engine.Metric, bool) {
	q := strings.ToLower(question)
	switch {
	case activeStorePattern.MatchString(q):
		return engine.MetricActiveStores, true
	case averagePattern.MatchString(q):
		return engine.MetricAverageSales, true
	case salesPattern.MatchString(q):
		return engine.MetricSales, true
	}
	return "", false
}

// HeuristicProvider builds drafts without a remote service.
type HeuristicProvider struct{}

// NewHeuristic returns the offline provider.
func NewHeuristic() *HeuristicProvider {
	return &HeuristicProvider{}
}

// Draft implements Provider.
func (h *HeuristicProvider) Draft(ctx context.Context, req Request) (Draft, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q := strings.ToLower(req.Question)
	d := Draft{}

	if m, ok := inferMetric(q); ok {
		d["metric"] = strings.ToLower(string(m))
	}
	if req.Schema != nil {
		q = scanNames(q, req.Schema.Vocabulary(), d)
	}

	months := scanMonths(q)
	years := uniqueMatches(yearPattern, q, 0)
	if m := relativeYearPattern.FindString(q); m != "" && len(years) == 0 {
		years = []string{m}
	}

	yoy, pop := yoyPattern.MatchString(q), popPattern.MatchString(q)
	switch {
	case (yoy || pop || comparePattern.MatchString(q)) && len(years) == 2:
		d["comparison"] = "yoy"
		if pop && !yoy {
			d["comparison"] = "pop"
		}
		d["periods"] = periodPair(months, years)
		years = nil
		if carriedByPeriods(months) {
			months = nil
		}
	case yoy:
		d["comparison"] = "yoy"
	case pop:
		d["comparison"] = "pop"
	case comparePattern.MatchString(q) && len(months) == 2 && carriedByPeriods(months):
		d["comparison"] = "pop"
		d["periods"] = periodPair(months, years)
		months, years = nil, nil
	}
	if len(months) > 0 {
		d["month"] = months
	}
	if len(years) > 0 {
		d["year"] = years
	}

	if m := rankingPattern.FindStringSubmatch(q); m != nil {
		d["ranking"] = m[1]
		if m[2] != "" {
			d["n"] = m[2]
		}
	}
	if m := groupByPattern.FindStringSubmatch(q); m != nil {
		if m[1] != "" {
			d["group_by"] = m[1]
		} else {
			d["group_by"] = m[2]
		}
	}
	if isFollowUp(q) {
		d["follow_up"] = true
	}
	return d, nil
}

// scanNames records vocabulary values found in q and returns q with the
// matched spans blanked, so a longer name is never matched twice.
// A value that is both an area and a city is drafted as a region.
func scanNames(q string, vocab dataset.Vocabulary, d Draft) string {
	type candidate struct {
		dim   dataset.Dimension
		value string
	}
	var cands []candidate
	for _, dim := range nameDimensions {
		for _, v := range vocab.Values(dim) {
			if strings.TrimSpace(v) != "" {
				cands = append(cands, candidate{dim, v})
			}
		}
	}
	sort.SliceStable(cands, func(i, j int) bool {
		return len(cands[i].value) > len(cands[j].value)
	})

	found := make(map[dataset.Dimension][]string)
	spans := make(map[string][]dataset.Dimension)
	for _, c := range cands {
		lower := strings.ToLower(c.value)
		re, err := regexp.Compile(`\b` + regexp.QuoteMeta(lower) + `\b`)
		if err != nil {
			continue
		}
		if !re.MatchString(q) {
			if dims, seen := spans[lower]; seen {
				// Same text already consumed by another dimension.
				spans[lower] = append(dims, c.dim)
				found[c.dim] = appendUnique(found[c.dim], c.value)
			}
			continue
		}
		spans[lower] = append(spans[lower], c.dim)
		found[c.dim] = appendUnique(found[c.dim], c.value)
		q = re.ReplaceAllStringFunc(q, func(s string) string { return strings.Repeat(" ", len(s)) })
	}

	for lower, dims := range spans {
		if containsDim(dims, dataset.Area) && containsDim(dims, dataset.City) {
			found[dataset.Area] = removeFold(found[dataset.Area], lower)
			found[dataset.City] = removeFold(found[dataset.City], lower)
			d["region"] = append(asStrings(d["region"]), lower)
		}
	}
	for dim, vals := range found {
		if len(vals) > 0 {
			d[string(dim)] = vals
		}
	}
	return q
}

func scanMonths(q string) []string {
	var out []string
	if m := relativeMonthPattern.FindString(q); m != "" {
		out = append(out, m)
	}
	for _, m := range quarterWordPattern.FindAllString(q, -1) {
		out = appendUnique(out, m)
	}
	for _, m := range monthPattern.FindAllString(q, -1) {
		out = appendUnique(out, m)
	}
	return out
}

func uniqueMatches(re *regexp.Regexp, q string, group int) []string {
	var out []string
	for _, m := range re.FindAllStringSubmatch(q, -1) {
		out = appendUnique(out, m[group])
	}
	return out
}

// periodPair drafts two periods from two years or two months.
func periodPair(months, years []string) []any {
	p := []any{map[string]any{}, map[string]any{}}
	for i := range 2 {
		obj := p[i].(map[string]any)
		switch {
		case len(years) == 2:
			obj["year"] = years[i]
		case len(years) == 1:
			obj["year"] = years[0]
		}
		if carriedByPeriods(months) {
			obj["month"] = months[min(i, len(months)-1)]
		}
	}
	return p
}

// carriedByPeriods reports whether months fit into period objects:
// one or two plain months, no quarters.
func carriedByPeriods(months []string) bool {
	if len(months) == 0 || len(months) > 2 {
		return false
	}
	for _, m := range months {
		if quarterWordPattern.MatchString(m) {
			return false
		}
	}
	return true
}

func containsDim(dims []dataset.Dimension, d dataset.Dimension) bool {
	for _, have := range dims {
		if have == d {
			return true
		}
	}
	return false
}

func removeFold(vals []string, v string) []string {
	out := vals[:0]
	for _, have := range vals {
		if !strings.EqualFold(have, v) {
			out = append(out, have)
		}
	}
	return out
}
