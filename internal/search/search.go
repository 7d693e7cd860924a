// Package search finds candidate news articles for a query.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/finsent/internal/model"
)

var (
	// ErrMissingAPIKey is returned when a backend needs a key and none is configured
	ErrMissingAPIKey = errors.New("search API key is not configured")
	// ErrInvalidCountry is returned for a country outside SupportedCountries
	ErrInvalidCountry = errors.New("unsupported country")
	// ErrInvalidLimit is returned for a limit below 1
	ErrInvalidLimit = errors.New("limit must be at least 1")
)

// SupportedCountries are the country codes the search API is queried with
var SupportedCountries = []string{"in", "us", "gb", "au"}

const (
	DefaultCategory = "business"
	DefaultLanguage = "en"
)

// Request describes one search call
type Request struct {
	Query    string   // Disjunctive expression sent to the API
	Terms    []string // Individual terms, used by backends that filter locally
	Country  string
	Category string
	Limit    int
	Language string
}

// Normalize fills empty category and language with their defaults
func (r Request) Normalize() Request {
	r.Country = strings.ToLower(strings.TrimSpace(r.Country))
	if r.Category == "" {
		r.Category = DefaultCategory
	}
	if r.Language == "" {
		r.Language = DefaultLanguage
	}
	return r
}

// Validate rejects requests the API would refuse
func (r Request) Validate() error {
	if !IsSupportedCountry(r.Country) {
		return fmt.Errorf("%w: %q (want one of %s)", ErrInvalidCountry, r.Country, strings.Join(SupportedCountries, ", "))
	}
	if r.Limit < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidLimit, r.Limit)
	}
	return nil
}

// IsSupportedCountry reports whether code is a supported country
func IsSupportedCountry(code string) bool {
	code = strings.ToLower(code)
	for _, c := range SupportedCountries {
		if c == code {
			return true
		}
	}
	return false
}

// Outcome is the result of one search. Err is set only when Status is
// model.SearchUnavailable.
type Outcome struct {
	Status     model.SearchStatus
	Candidates []model.Candidate
	Err        error
}

// Searcher queries a news source. Search never fails: connectivity and
// auth problems are reported as an unavailable outcome.
type Searcher interface {
	Name() string
	Search(ctx context.Context, req Request) Outcome
}

// found builds an ok or empty outcome from candidates, bounded by limit
func found(candidates []model.Candidate, limit int) Outcome {
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	if len(candidates) == 0 {
		return Outcome{Status: model.SearchEmpty, Candidates: []model.Candidate{}}
	}
	return Outcome{Status: model.SearchOK, Candidates: candidates}
}

func unavailable(err error) Outcome {
	return Outcome{Status: model.SearchUnavailable, Candidates: []model.Candidate{}, Err: err}
}
