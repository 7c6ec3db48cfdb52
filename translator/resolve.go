package translator

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spektr-org/salesq/dataset"
	"github.com/spektr-org/salesq/engine"
)

// ============================================================================
// RESOLUTION — normalized Draft → QuerySpec
// ============================================================================
// Order: follow-up merge → metric → names → time → grouping →
// comparison → ranking. The result still goes through spec.Validate.
// ============================================================================

// DefaultRankingN is used when a ranking direction is given without a count.
const DefaultRankingN = 5

// followUpMarkers open elliptical questions that refine the previous turn.
var followUpMarkers = []string{"what about", "how about", "and ", "same for", "same but", "now ", "also for"}

var quarterPattern = regexp.MustCompile(`^(?:q|quarter\s*)([1-4])$`)

// monthNameVocab lets misspelled month names reuse the fuzzy matcher.
var monthNameVocab = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

type resolver struct {
	vocab dataset.Vocabulary
	ref   time.Time
}

// isFollowUp reports whether the question starts with a follow-up marker.
func isFollowUp(question string) bool {
	q := strings.ToLower(strings.TrimSpace(question)) + " "
	for _, m := range followUpMarkers {
		if strings.HasPrefix(q, m) {
			return true
		}
	}
	return false
}

func (r *resolver) resolve(question string, d Draft, history []Turn) (engine.QuerySpec, error) {
	var spec engine.QuerySpec
	inherited := false
	if (asBool(d["follow_up"]) || isFollowUp(question)) && len(history) > 0 {
		spec = history[len(history)-1].Spec.Clone()
		inherited = true
	}
	if spec.Filters == nil {
		spec.Filters = engine.Filters{}
	}

	if err := r.resolveMetric(&spec, question, d, inherited); err != nil {
		return spec, err
	}
	if err := r.resolveNames(&spec, d); err != nil {
		return spec, err
	}
	timeChanged, err := r.resolveTime(&spec, d)
	if err != nil {
		return spec, err
	}
	if err := r.resolveGroupBy(&spec, d); err != nil {
		return spec, err
	}
	if err := r.resolveComparison(&spec, d, timeChanged); err != nil {
		return spec, err
	}
	if err := r.resolveRanking(&spec, d); err != nil {
		return spec, err
	}
	if spec.Ranking != nil && spec.GroupBy == "" {
		spec.GroupBy = dataset.Brand
	}
	if spec.Filters.IsEmpty() {
		spec.Filters = nil
	}
	return spec, nil
}

// ============================================================================
// METRIC
// ============================================================================

var metricSynonyms = map[string]engine.Metric{
	"sales":          engine.MetricSales,
	"sale":           engine.MetricSales,
	"sales_value":    engine.MetricSales,
	"revenue":        engine.MetricSales,
	"value":          engine.MetricSales,
	"turnover":       engine.MetricSales,
	"sum":            engine.MetricSales,
	"total":          engine.MetricSales,
	"active_stores":  engine.MetricActiveStores,
	"active_store":   engine.MetricActiveStores,
	"stores":         engine.MetricActiveStores,
	"store_count":    engine.MetricActiveStores,
	"active_outlets": engine.MetricActiveStores,
	"outlets":        engine.MetricActiveStores,
	"average":        engine.MetricAverageSales,
	"avg":            engine.MetricAverageSales,
	"mean":           engine.MetricAverageSales,
	"average_sales":  engine.MetricAverageSales,
	"avg_sales":      engine.MetricAverageSales,
}

func parseMetric(tok string) (engine.Metric, bool) {
	key := strings.ToLower(strings.TrimSpace(tok))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	m, ok := metricSynonyms[key]
	return m, ok
}

func metricCandidates() []string {
	out := make([]string, len(engine.Metrics))
	for i, m := range engine.Metrics {
		out[i] = strings.ToLower(string(m))
	}
	return out
}

func (r *resolver) resolveMetric(spec *engine.QuerySpec, question string, d Draft, inherited bool) error {
	if tok, ok := asString(d["metric"]); ok {
		m, ok := parseMetric(tok)
		if !ok {
			return &AmbiguousQueryError{
				Field:      "metric",
				Reason:     fmt.Sprintf("unrecognised metric %q", tok),
				Candidates: metricCandidates(),
			}
		}
		spec.Metric = m
		return nil
	}
	if tok, ok := asString(d["aggregation"]); ok {
		if m, ok := parseMetric(tok); ok {
			spec.Metric = m
			return nil
		}
	}
	if m, ok := inferMetric(question); ok {
		spec.Metric = m
		return nil
	}
	if inherited && spec.Metric != "" {
		return nil
	}
	return &AmbiguousQueryError{
		Field:      "metric",
		Reason:     "the question does not say what to measure",
		Candidates: metricCandidates(),
	}
}

// ============================================================================
// NAMES — brand, category, area, city, region
// ============================================================================

var nameDimensions = []dataset.Dimension{dataset.Brand, dataset.Category, dataset.Area, dataset.City}

func (r *resolver) resolveNames(spec *engine.QuerySpec, d Draft) error {
	for _, dim := range nameDimensions {
		toks := asStrings(d[string(dim)])
		if len(toks) == 0 {
			continue
		}
		vals := make([]string, 0, len(toks))
		for _, tok := range toks {
			v, err := r.resolveValue(dim, tok)
			if err != nil {
				return err
			}
			vals = appendUnique(vals, v)
		}
		spec.Filters[dim] = vals
	}

	for _, tok := range asStrings(d["region"]) {
		dim, v, err := r.resolveRegion(tok)
		if err != nil {
			return err
		}
		spec.Filters[dim] = appendUnique(spec.Filters[dim], v)
	}
	return nil
}

// resolveValue maps a token onto one canonical vocabulary value.
func (r *resolver) resolveValue(dim dataset.Dimension, tok string) (string, error) {
	if exact := r.vocab.Lookup(dim, tok); len(exact) > 0 {
		return exact[0], nil
	}
	matches := fuzzyMatch(r.vocab.Values(dim), tok)
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", &UnknownValueError{
			Dimension:   dim,
			Token:       tok,
			Suggestions: r.vocab.Suggest(dim, tok, 3),
		}
	}
	return "", &AmbiguousQueryError{
		Field:      string(dim),
		Reason:     fmt.Sprintf("%q matches several values", tok),
		Candidates: matches,
	}
}

// resolveRegion tries area before city; exact matches beat fuzzy ones.
func (r *resolver) resolveRegion(tok string) (dataset.Dimension, string, error) {
	for _, dim := range []dataset.Dimension{dataset.Area, dataset.City} {
		if exact := r.vocab.Lookup(dim, tok); len(exact) > 0 {
			return dim, exact[0], nil
		}
	}

	var unknown *UnknownValueError
	var suggestions []string
	for _, dim := range []dataset.Dimension{dataset.Area, dataset.City} {
		v, err := r.resolveValue(dim, tok)
		if err == nil {
			return dim, v, nil
		}
		if !errors.As(err, &unknown) {
			return "", "", err
		}
		suggestions = append(suggestions, unknown.Suggestions...)
	}
	if len(suggestions) > 3 {
		suggestions = suggestions[:3]
	}
	return "", "", &UnknownValueError{Dimension: dataset.Area, Token: tok, Suggestions: suggestions}
}

// fuzzyMatch finds values equal to token ignoring punctuation, then a unique
// prefix, then the closest values within max(1, len/4) edits.
// Case-only variants collapse to one candidate.
func fuzzyMatch(values []string, token string) []string {
	key := dataset.Compact(token)
	if key == "" {
		return nil
	}

	var equal []string
	for _, v := range values {
		if dataset.Compact(v) == key {
			equal = appendFold(equal, v)
		}
	}
	if len(equal) > 0 {
		return equal
	}

	if len([]rune(key)) >= 3 {
		var prefixed []string
		for _, v := range values {
			if strings.HasPrefix(dataset.Compact(v), key) {
				prefixed = appendFold(prefixed, v)
			}
		}
		if len(prefixed) > 0 {
			return prefixed
		}
	}

	limit := max(1, len([]rune(key))/4)
	best := limit + 1
	var closest []string
	for _, v := range values {
		dist := dataset.Levenshtein(key, dataset.Compact(v))
		switch {
		case dist < best:
			best = dist
			closest = []string{v}
		case dist == best:
			closest = appendFold(closest, v)
		}
	}
	sort.Strings(closest)
	return closest
}

func appendFold(vals []string, v string) []string {
	for _, have := range vals {
		if strings.EqualFold(have, v) {
			return vals
		}
	}
	return append(vals, v)
}

func appendUnique(vals []string, v string) []string {
	for _, have := range vals {
		if have == v {
			return vals
		}
	}
	return append(vals, v)
}

// ============================================================================
// TIME — months, quarters, years, relative references
// ============================================================================

// resolveTime applies month and year tokens. It reports whether either changed.
func (r *resolver) resolveTime(spec *engine.QuerySpec, d Draft) (bool, error) {
	changed := false
	impliedYear := 0

	if toks := asStrings(d["month"]); len(toks) > 0 {
		var months []string
		for _, tok := range toks {
			got, year, err := r.resolveMonth(tok)
			if err != nil {
				return false, err
			}
			for _, m := range got {
				months = appendUnique(months, m)
			}
			if year != 0 {
				impliedYear = year
			}
		}
		spec.Filters[dataset.Month] = months
		changed = true
	}

	if toks := asStrings(d["year"]); len(toks) > 0 {
		var years []string
		for _, tok := range toks {
			y, err := r.resolveYear(tok)
			if err != nil {
				return false, err
			}
			years = appendUnique(years, strconv.Itoa(y))
		}
		spec.Filters[dataset.Year] = years
		changed = true
	} else if impliedYear != 0 {
		spec.Filters[dataset.Year] = []string{strconv.Itoa(impliedYear)}
		changed = true
	}
	return changed, nil
}

// resolveMonth returns the month codes for tok and, for relative
// references, the year they fall in.
func (r *resolver) resolveMonth(tok string) ([]string, int, error) {
	key := strings.Join(strings.Fields(strings.ToLower(tok)), " ")

	switch key {
	case "this month", "current month":
		code, year := r.relativeMonth(0)
		return []string{code}, year, nil
	case "last month", "previous month", "prior month":
		code, year := r.relativeMonth(-1)
		return []string{code}, year, nil
	}

	if m := quarterPattern.FindStringSubmatch(key); m != nil {
		q, _ := strconv.Atoi(m[1])
		first := (q-1)*3 + 1
		return []string{dataset.MonthAt(first), dataset.MonthAt(first + 1), dataset.MonthAt(first + 2)}, 0, nil
	}

	if code, err := dataset.NormalizeMonth(key); err == nil {
		return []string{code}, 0, nil
	}

	matches := fuzzyMatch(monthNameVocab, key)
	if len(matches) == 1 {
		code, err := dataset.NormalizeMonth(matches[0])
		if err == nil {
			return []string{code}, 0, nil
		}
	}

	var suggestions []string
	for _, name := range (dataset.Vocabulary{dataset.Month: monthNameVocab}).Suggest(dataset.Month, key, 3) {
		if code, err := dataset.NormalizeMonth(name); err == nil {
			suggestions = append(suggestions, code)
		}
	}
	return nil, 0, &UnknownValueError{Dimension: dataset.Month, Token: tok, Suggestions: suggestions}
}

// relativeMonth returns the month offset months from the reference date.
func (r *resolver) relativeMonth(offset int) (string, int) {
	m := int(r.ref.Month()) + offset
	y := r.ref.Year()
	for m < 1 {
		m += 12
		y--
	}
	for m > 12 {
		m -= 12
		y++
	}
	return dataset.MonthAt(m), y
}

func (r *resolver) resolveYear(tok string) (int, error) {
	key := strings.Join(strings.Fields(strings.ToLower(tok)), " ")
	switch key {
	case "this year", "current year":
		return r.ref.Year(), nil
	case "last year", "previous year", "prior year":
		return r.ref.Year() - 1, nil
	}
	if y, ok := asInt(key); ok && y > 0 {
		return y, nil
	}
	return 0, &AmbiguousQueryError{Field: "year", Reason: fmt.Sprintf("cannot read year %q", tok)}
}

// ============================================================================
// GROUPING
// ============================================================================

func isNoneToken(tok string) bool {
	switch strings.ToLower(strings.TrimSpace(tok)) {
	case "none", "null", "no", "false", "off":
		return true
	}
	return false
}

func (r *resolver) resolveGroupBy(spec *engine.QuerySpec, d Draft) error {
	tok, ok := asString(d["group_by"])
	if !ok {
		return nil
	}
	if isNoneToken(tok) {
		spec.GroupBy = ""
		return nil
	}
	dim, err := dataset.ParseDimension(tok)
	if err != nil {
		keys := make([]string, len(dataset.Dimensions))
		for i, k := range dataset.Dimensions {
			keys[i] = string(k)
		}
		return &AmbiguousQueryError{Field: "group_by", Reason: err.Error(), Candidates: keys}
	}
	spec.GroupBy = dim
	return nil
}

// ============================================================================
// COMPARISON
// ============================================================================

func parseComparisonMode(tok string) (engine.ComparisonMode, bool) {
	key := strings.ToLower(strings.TrimSpace(tok))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	switch key {
	case "yoy", "year_over_year", "yearly", "annual":
		return engine.CompareYearOverYear, true
	case "pop", "period_over_period", "mom", "month_over_month", "monthly":
		return engine.ComparePeriodOverPeriod, true
	}
	return "", false
}

func (r *resolver) resolveComparison(spec *engine.QuerySpec, d Draft, timeChanged bool) error {
	raw := d["comparison"]
	periodObjs := asObjects(d["periods"])
	modeTok, hasMode := asString(raw)

	if b, ok := raw.(bool); ok && !b || hasMode && isNoneToken(modeTok) {
		spec.Comparison = nil
		return nil
	}
	wanted := hasMode || len(periodObjs) > 0 || raw == true
	if !wanted {
		if !timeChanged || spec.Comparison == nil {
			return nil
		}
		// A new month or year replaces an inherited comparison.
		if !spec.Filters.Has(dataset.Year) {
			spec.Filters[dataset.Year] = []string{strconv.Itoa(spec.Comparison.Periods[1].Year)}
		}
		spec.Comparison = nil
		return nil
	}

	var mode engine.ComparisonMode
	if hasMode {
		m, ok := parseComparisonMode(modeTok)
		if !ok {
			return &AmbiguousQueryError{
				Field:      "comparison",
				Reason:     fmt.Sprintf("unrecognised comparison %q", modeTok),
				Candidates: []string{"yoy", "pop"},
			}
		}
		mode = m
	}

	periods, err := r.resolvePeriods(spec, periodObjs)
	if err != nil {
		return err
	}
	if mode == "" {
		mode = engine.CompareYearOverYear
		if len(periods) == 2 && periods[0].Month != periods[1].Month {
			mode = engine.ComparePeriodOverPeriod
		}
	}
	if len(periods) == 0 {
		if periods, err = r.defaultPeriods(mode, spec); err != nil {
			return err
		}
	}

	spec.Comparison = &engine.Comparison{Mode: mode, Periods: [2]engine.Period{periods[0], periods[1]}}
	spec.Filters = spec.Filters.Without(dataset.Year)
	if periods[0].Month != "" || periods[1].Month != "" {
		delete(spec.Filters, dataset.Month)
	}
	return nil
}

// resolvePeriods reads explicit periods. Missing years come from the other
// period, then the year filter, then the latest year in the data.
func (r *resolver) resolvePeriods(spec *engine.QuerySpec, objs []map[string]any) ([]engine.Period, error) {
	if len(objs) == 0 {
		return nil, nil
	}
	if len(objs) != 2 {
		return nil, &AmbiguousQueryError{
			Field:  "comparison",
			Reason: fmt.Sprintf("a comparison needs exactly two periods, got %d", len(objs)),
		}
	}

	periods := make([]engine.Period, 2)
	for i, obj := range objs {
		p, err := r.resolvePeriod(obj)
		if err != nil {
			return nil, err
		}
		periods[i] = p
	}

	for i := range periods {
		if periods[i].Year != 0 {
			continue
		}
		switch {
		case periods[1-i].Year != 0:
			periods[i].Year = periods[1-i].Year
		case len(spec.Filters[dataset.Year]) == 1:
			periods[i].Year, _ = strconv.Atoi(spec.Filters[dataset.Year][0])
		default:
			years := r.vocab.Years()
			if len(years) == 0 {
				return nil, &AmbiguousQueryError{Field: "comparison", Reason: "a period has no year"}
			}
			periods[i].Year = years[len(years)-1]
		}
	}
	if periods[0] == periods[1] {
		return nil, &AmbiguousQueryError{
			Field:  "comparison",
			Reason: fmt.Sprintf("both periods are %s", periods[0].Label()),
		}
	}
	return periods, nil
}

func (r *resolver) resolvePeriod(obj map[string]any) (engine.Period, error) {
	var p engine.Period

	if label, ok := asString(obj["label"]); ok {
		obj = splitPeriodLabel(label)
	}

	if tok, ok := asString(obj["month"]); ok {
		codes, year, err := r.resolveMonth(tok)
		if err != nil {
			return p, err
		}
		if len(codes) != 1 {
			return p, &AmbiguousQueryError{
				Field:  "comparison",
				Reason: fmt.Sprintf("period month %q spans several months", tok),
			}
		}
		p.Month = codes[0]
		p.Year = year
	}
	if tok, ok := asString(obj["year"]); ok {
		y, err := r.resolveYear(tok)
		if err != nil {
			return p, err
		}
		p.Year = y
	}
	return p, nil
}

// splitPeriodLabel reads "2024", "JAN 2024", "January 2024" or "last year".
func splitPeriodLabel(label string) map[string]any {
	key := strings.ToLower(strings.TrimSpace(label))
	switch key {
	case "this year", "current year", "last year", "previous year", "prior year":
		return map[string]any{"year": key}
	case "this month", "current month", "last month", "previous month", "prior month":
		return map[string]any{"month": key}
	}
	out := map[string]any{}
	for _, f := range strings.Fields(key) {
		if _, err := strconv.Atoi(f); err == nil {
			out["year"] = f
		} else {
			out["month"] = f
		}
	}
	return out
}

// defaultPeriods fills in periods the draft left out.
//
//	YoY: the two filtered years in ascending order, (Y-1, Y) from a single
//	     year filter, else the two latest years.
//	PoP: the month before the filtered month, then the filtered month.
func (r *resolver) defaultPeriods(mode engine.ComparisonMode, spec *engine.QuerySpec) ([]engine.Period, error) {
	years := r.vocab.Years()
	filterYear := 0
	var pair []int
	switch ys := spec.Filters[dataset.Year]; len(ys) {
	case 1:
		filterYear, _ = strconv.Atoi(ys[0])
	case 2:
		a, errA := strconv.Atoi(ys[0])
		b, errB := strconv.Atoi(ys[1])
		if errA == nil && errB == nil && a != b {
			pair = []int{min(a, b), max(a, b)}
		}
	}
	month := ""
	if ms := spec.Filters[dataset.Month]; len(ms) == 1 {
		month = ms[0]
	}

	if mode == engine.CompareYearOverYear {
		switch {
		case pair != nil:
			return []engine.Period{{Month: month, Year: pair[0]}, {Month: month, Year: pair[1]}}, nil
		case filterYear != 0:
			return []engine.Period{{Month: month, Year: filterYear - 1}, {Month: month, Year: filterYear}}, nil
		case len(years) >= 2:
			return []engine.Period{
				{Month: month, Year: years[len(years)-2]},
				{Month: month, Year: years[len(years)-1]},
			}, nil
		}
		return nil, &AmbiguousQueryError{Field: "comparison", Reason: "year-over-year needs two years of data"}
	}

	if month == "" {
		return nil, &AmbiguousQueryError{Field: "comparison", Reason: "period-over-period needs a single month"}
	}
	year := filterYear
	if year == 0 {
		if len(years) == 0 {
			return nil, &AmbiguousQueryError{Field: "comparison", Reason: "no year to compare in"}
		}
		year = years[len(years)-1]
	}
	idx := dataset.MonthIndex(month) - 1
	prevYear := year
	if idx < 1 {
		idx = 12
		prevYear--
	}
	return []engine.Period{{Month: dataset.MonthAt(idx), Year: prevYear}, {Month: month, Year: year}}, nil
}

// ============================================================================
// RANKING
// ============================================================================

func parseDirection(tok string) (engine.Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(tok)) {
	case "top", "highest", "best", "largest", "most", "desc", "descending":
		return engine.Top, true
	case "bottom", "lowest", "worst", "smallest", "least", "asc", "ascending":
		return engine.Bottom, true
	}
	return "", false
}

func (r *resolver) resolveRanking(spec *engine.QuerySpec, d Draft) error {
	raw := d["ranking"]
	dirTok, hasDir := asString(raw)
	nRaw := d["n"]
	hasN := nRaw != nil

	if b, ok := raw.(bool); ok && !b || hasDir && isNoneToken(dirTok) {
		spec.Ranking = nil
		return nil
	}
	if !hasDir && !hasN {
		return nil
	}

	ranking := engine.Ranking{Direction: engine.Top, N: DefaultRankingN}
	if spec.Ranking != nil {
		ranking = *spec.Ranking
	}
	if hasDir {
		dir, ok := parseDirection(dirTok)
		if !ok {
			return &AmbiguousQueryError{
				Field:      "ranking",
				Reason:     fmt.Sprintf("unrecognised ranking %q", dirTok),
				Candidates: []string{"top", "bottom"},
			}
		}
		ranking.Direction = dir
	}
	if hasN {
		n, ok := asInt(nRaw)
		if !ok || n <= 0 {
			return &AmbiguousQueryError{
				Field:  "ranking",
				Reason: fmt.Sprintf("cannot rank %v entries", nRaw),
			}
		}
		ranking.N = n
	}
	spec.Ranking = &ranking
	return nil
}
