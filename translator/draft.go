package translator

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// ============================================================================
// DRAFT COERCION — loose provider output → typed values
// ============================================================================
// Providers answer with whatever JSON they like: strings or numbers for
// years, single values or lists for names, flat keys or nested "filters".
// Everything is folded into one flat map with canonical keys first.
// ============================================================================

// draftKeyAliases maps provider spellings onto canonical draft keys.
var draftKeyAliases = map[string]string{
	"brands":          "brand",
	"product":         "category",
	"products":        "category",
	"categories":      "category",
	"areas":           "area",
	"regions":         "region",
	"cities":          "city",
	"months":          "month",
	"years":           "year",
	"groupby":         "group_by",
	"group":           "group_by",
	"dimension":       "group_by",
	"compare":         "comparison",
	"comparison_mode": "comparison",
	"top_n":           "n",
	"topn":            "n",
	"limit":           "n",
	"direction":       "ranking",
	"rank":            "ranking",
	"order":           "ranking",
	"followup":        "follow_up",
	"is_follow_up":    "follow_up",
}

// nestedDraftKeys hold objects whose fields are lifted to the top level.
var nestedDraftKeys = map[string]bool{"filters": true, "dimensions": true, "time": true}

// normalizeDraft returns a flat copy of d with canonical keys.
// Top-level keys win over keys lifted from nested objects.
func normalizeDraft(d Draft) Draft {
	out := make(Draft, len(d))
	lift := func(obj map[string]any) {
		for k, v := range obj {
			key := canonicalDraftKey(k)
			if _, taken := out[key]; !taken {
				out[key] = v
			}
		}
	}

	for k, v := range d {
		key := canonicalDraftKey(k)
		switch {
		case nestedDraftKeys[key]:
			continue
		case key == "comparison":
			if obj, ok := v.(map[string]any); ok {
				out["comparison"] = firstOf(obj, "mode", "type")
				if p, ok := obj["periods"]; ok {
					out["periods"] = p
				}
				continue
			}
		case key == "ranking":
			if obj, ok := v.(map[string]any); ok {
				out["ranking"] = firstOf(obj, "direction", "order")
				if n, ok := obj["n"]; ok {
					out["n"] = n
				}
				continue
			}
		}
		out[key] = v
	}
	for k, v := range d {
		if nestedDraftKeys[canonicalDraftKey(k)] {
			if obj, ok := v.(map[string]any); ok {
				lift(obj)
			}
		}
	}
	return out
}

func canonicalDraftKey(k string) string {
	key := strings.ToLower(strings.TrimSpace(k))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	if alias, ok := draftKeyAliases[key]; ok {
		return alias
	}
	return key
}

func firstOf(obj map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			return v
		}
	}
	return nil
}

// ============================================================================
// VALUE COERCION
// ============================================================================

// asStrings flattens a draft value into non-empty trimmed strings.
// Nulls and booleans yield nothing.
func asStrings(v any) []string {
	switch x := v.(type) {
	case nil, bool:
		return nil
	case string:
		if s := strings.TrimSpace(x); s != "" {
			return []string{s}
		}
		return nil
	case json.Number:
		return []string{x.String()}
	case float64:
		return []string{strconv.FormatFloat(x, 'f', -1, 64)}
	case int:
		return []string{strconv.Itoa(x)}
	case []string:
		var out []string
		for _, s := range x {
			out = append(out, asStrings(s)...)
		}
		return out
	case []any:
		var out []string
		for _, item := range x {
			out = append(out, asStrings(item)...)
		}
		return out
	case map[string]any:
		return asStrings(firstOf(x, "value", "name"))
	}
	return []string{fmt.Sprint(v)}
}

// asString returns the first string of v.
func asString(v any) (string, bool) {
	vals := asStrings(v)
	if len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

// asInt coerces integral numbers and numeric strings.
func asInt(v any) (int, bool) {
	var f float64
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return int(n), true
		}
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = x
	case int:
		return x, true
	case string:
		s := strings.TrimSpace(x)
		if n, err := strconv.Atoi(s); err == nil {
			return n, true
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// asBool accepts booleans and "true"/"yes" strings.
func asBool(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "yes", "1":
			return true
		}
	}
	return false
}

// asObjects returns the object elements of a list value.
func asObjects(v any) []map[string]any {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []map[string]any
	for _, item := range items {
		switch x := item.(type) {
		case map[string]any:
			out = append(out, x)
		case string, json.Number, float64:
			out = append(out, map[string]any{"label": x})
		}
	}
	return out
}
