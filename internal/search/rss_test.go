package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ppiankov/finsent/internal/model"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Markets</title>
  <item>
    <title>Sensex closes higher on bank rally</title>
    <link>https://example.com/sensex</link>
    <description><![CDATA[<p>Banks <b>led</b> the gains.</p>]]></description>
    <pubDate>Wed, 01 May 2024 10:00:00 +0530</pubDate>
    <category>markets</category>
  </item>
  <item>
    <title>Monsoon forecast</title>
    <link>https://example.com/monsoon</link>
    <description>Rain expected</description>
  </item>
  <item>
    <title>Nifty 50 outlook</title>
    <link>https://example.com/nifty</link>
    <description>Analysts weigh in</description>
  </item>
</channel>
</rss>`

func feedServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = fmt.Fprint(w, sampleFeed)
	}))
}

func TestFeedSearcher_FiltersByTerm(t *testing.T) {
	server := feedServer(t)
	defer server.Close()

	s, err := NewFeedSearcher([]string{server.URL}, "test-agent", nil)
	if err != nil {
		t.Fatal(err)
	}

	out := s.Search(context.Background(), Request{Terms: []string{"sensex", "NIFTY 50"}, Country: "in", Limit: 5})
	if out.Status != model.SearchOK {
		t.Fatalf("status = %s, err = %v", out.Status, out.Err)
	}
	if len(out.Candidates) != 2 {
		t.Fatalf("got %d candidates, want 2", len(out.Candidates))
	}

	first := out.Candidates[0]
	if first.Description != "Banks led the gains." {
		t.Errorf("description = %q", first.Description)
	}
	if first.SourceName != "Markets" {
		t.Errorf("source = %q", first.SourceName)
	}
	if first.ArticleID == "" || first.ArticleID == out.Candidates[1].ArticleID {
		t.Errorf("article ids not unique: %q, %q", first.ArticleID, out.Candidates[1].ArticleID)
	}
	if first.Category.String() != "markets" {
		t.Errorf("category = %q", first.Category.String())
	}
}

func TestFeedSearcher_SkipsFailingFeed(t *testing.T) {
	server := feedServer(t)
	defer server.Close()

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()

	s, _ := NewFeedSearcher([]string{broken.URL, server.URL}, "", nil)
	out := s.Search(context.Background(), Request{Terms: []string{"monsoon"}, Country: "in", Limit: 5})
	if out.Status != model.SearchOK || len(out.Candidates) != 1 {
		t.Errorf("status = %s, candidates = %d", out.Status, len(out.Candidates))
	}
}

func TestFeedSearcher_AllFeedsFail(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()

	s, _ := NewFeedSearcher([]string{broken.URL}, "", nil)
	out := s.Search(context.Background(), Request{Terms: []string{"x"}, Country: "in", Limit: 5})
	if out.Status != model.SearchUnavailable || out.Err == nil {
		t.Errorf("status = %s, err = %v", out.Status, out.Err)
	}
}

func TestFeedSearcher_NoMatch(t *testing.T) {
	server := feedServer(t)
	defer server.Close()

	s, _ := NewFeedSearcher([]string{server.URL}, "", nil)
	out := s.Search(context.Background(), Request{Terms: []string{"bitcoin"}, Country: "in", Limit: 5})
	if out.Status != model.SearchEmpty {
		t.Errorf("status = %s, want empty", out.Status)
	}
}

func TestNewFeedSearcher_NoFeeds(t *testing.T) {
	if _, err := NewFeedSearcher(nil, "", nil); err == nil {
		t.Error("expected error with no feeds")
	}
}
