package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestStringList_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"array", `["business","top"]`, []string{"business", "top"}},
		{"single string", `"business"`, []string{"business"}},
		{"empty string", `""`, nil},
		{"null", `null`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var l StringList
			if err := json.Unmarshal([]byte(tt.input), &l); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if strings.Join(l, "|") != strings.Join(tt.want, "|") || len(l) != len(tt.want) {
				t.Errorf("Got %v, want %v", l, tt.want)
			}
		})
	}

	var l StringList
	if err := json.Unmarshal([]byte(`42`), &l); err == nil {
		t.Error("Expected error for a number")
	}
}

func TestAuthors_JSON(t *testing.T) {
	a := Authors{"Jane Doe", "John Roe"}
	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `"Jane Doe, John Roe"` {
		t.Errorf("Authors should serialize comma-joined, got %s", data)
	}

	var fromArray Authors
	if err := json.Unmarshal([]byte(`["A, B", " C "]`), &fromArray); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if len(fromArray) != 3 || fromArray[2] != "C" {
		t.Errorf("Unexpected authors: %v", fromArray)
	}
}

func TestNewArticle(t *testing.T) {
	c := TaggedCandidate{
		Candidate: Candidate{
			ArticleID:   "abc",
			Title:       "Sensex rallies",
			Description: "Markets up",
			SourceName:  "Mint",
			Link:        "https://example.com/a",
			PubDate:     "2024-05-01 10:00:00",
			Category:    StringList{"business"},
			ImageURL:    "https://example.com/a.jpg",
		},
		SearchQuery: `"Sensex"`,
	}
	content := Content{Text: "Full body", Authors: []string{"Jane Doe"}}

	a := NewArticle(c, content)

	if a.ArticleID != "abc" || a.URL != c.Link || a.Source != "Mint" {
		t.Errorf("Metadata not carried over: %+v", a)
	}
	if a.FullContent != "Full body" || a.Authors.String() != "Jane Doe" {
		t.Errorf("Content not carried over: %+v", a)
	}
	if a.PubDate != c.PubDate {
		t.Errorf("PubDate should be kept verbatim, got %q", a.PubDate)
	}

	c.Category[0] = "changed"
	if a.Category[0] != "business" {
		t.Error("Article should not share the candidate's category slice")
	}
}

func TestArticle_JSONFieldNames(t *testing.T) {
	a := Article{ArticleID: "x", PubDate: "2024-01-01", Authors: Authors{"A"}}
	data, err := json.Marshal(a)
	if err != nil {
		t.Fatal(err)
	}

	for _, key := range []string{`"article_id"`, `"pubDate"`, `"full_content"`, `"authors":"A"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("Expected %s in %s", key, data)
		}
	}
}
