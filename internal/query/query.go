// Package query turns free-form user input into search terms and a single
// disjunctive search expression.
package query

import (
	"sort"
	"strings"
)

// DefaultFallback is used when neither the caller nor the config supplies a term
const DefaultFallback = "finance"

// Query is an ordered set of search terms plus their combined expression
type Query struct {
	Terms      []string `json:"terms"`
	Expression string   `json:"expression"`
}

// Split splits comma-separated input into trimmed, non-empty terms.
// Order is preserved and exact duplicates are kept.
func Split(input string) []string {
	return Clean(strings.Split(input, ","))
}

// Clean trims each term and drops blank ones
func Clean(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Combine quotes each term and joins them with OR
func Combine(terms []string) string {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = `"` + t + `"`
	}
	return strings.Join(quoted, " OR ")
}

// Build cleans terms. When nothing usable is left it uses the fallback terms,
// then DefaultFallback.
func Build(terms []string, fallback ...string) Query {
	cleaned := Clean(terms)
	if len(cleaned) == 0 {
		cleaned = Clean(fallback)
	}
	if len(cleaned) == 0 {
		cleaned = []string{DefaultFallback}
	}
	return Query{
		Terms:      cleaned,
		Expression: Combine(cleaned),
	}
}

// Parse is Build over comma-separated input
func Parse(input string, fallback ...string) Query {
	return Build(Split(input), fallback...)
}

var presets = map[string][]string{
	"banking": {"HDFC", "SBI", "ICICI Bank", "Axis Bank"},
	"indices": {"Nifty 50", "Sensex", "BSE", "NSE"},
	"policy":  {"RBI monetary policy", "inflation", "GDP growth"},
	"tech":    {"TCS", "Infosys", "Wipro", "Tech Mahindra"},
	"auto":    {"Tata Motors", "Maruti Suzuki", "Bajaj Auto"},
	"energy":  {"Reliance", "ONGC", "oil prices", "crude oil"},
}

// Preset returns a named example query set
func Preset(name string) ([]string, bool) {
	terms, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, false
	}
	return append([]string(nil), terms...), true
}

// PresetNames lists the available preset names, sorted
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
