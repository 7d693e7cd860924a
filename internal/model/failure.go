package model

// FailureKind tags why an item was dropped or not stored
type FailureKind string

const (
	FailureSearchUnavailable      FailureKind = "search_unavailable"
	FailureScrape                 FailureKind = "scrape_failure"
	FailureMissingField           FailureKind = "missing_field"
	FailurePersistenceConflict    FailureKind = "persistence_conflict"
	FailurePersistenceUnavailable FailureKind = "persistence_unavailable"
	FailureModelInference         FailureKind = "model_inference"
)

// Failure records one absorbed, per-item failure
type Failure struct {
	Kind      FailureKind `json:"kind"`
	Query     string      `json:"query,omitempty"`
	URL       string      `json:"url,omitempty"`
	ArticleID string      `json:"article_id,omitempty"`
	Message   string      `json:"message,omitempty"`
}

// SearchStatus distinguishes "nothing found" from "could not search"
type SearchStatus string

const (
	SearchOK          SearchStatus = "ok"
	SearchEmpty       SearchStatus = "empty"
	SearchUnavailable SearchStatus = "unavailable"
)

// CountFailures returns how many failures have the given kind
func CountFailures(failures []Failure, kind FailureKind) int {
	n := 0
	for _, f := range failures {
		if f.Kind == kind {
			n++
		}
	}
	return n
}
