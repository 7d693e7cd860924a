package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ppiankov/finsent/internal/cache"
	"github.com/ppiankov/finsent/internal/model"
)

type stubSearcher struct {
	calls   int
	outcome Outcome
}

func (s *stubSearcher) Name() string { return "stub" }

func (s *stubSearcher) Search(ctx context.Context, req Request) Outcome {
	s.calls++
	return s.outcome
}

func TestCachedSearcher_CachesOK(t *testing.T) {
	stub := &stubSearcher{outcome: Outcome{
		Status:     model.SearchOK,
		Candidates: []model.Candidate{{ArticleID: "a1", Link: "https://example.com/a1"}},
	}}
	s := NewCachedSearcher(stub, cache.NewMemoryCache(time.Minute, time.Minute), time.Minute, nil)
	req := Request{Query: `"HDFC"`, Country: "in", Limit: 5}

	first := s.Search(context.Background(), req)
	second := s.Search(context.Background(), req)

	if stub.calls != 1 {
		t.Errorf("backend calls = %d, want 1", stub.calls)
	}
	if second.Status != model.SearchOK || len(second.Candidates) != 1 || second.Candidates[0].ArticleID != first.Candidates[0].ArticleID {
		t.Errorf("cached outcome = %+v", second)
	}

	// A different request misses
	req.Country = "us"
	s.Search(context.Background(), req)
	if stub.calls != 2 {
		t.Errorf("backend calls = %d, want 2", stub.calls)
	}
}

func TestCachedSearcher_DoesNotCacheFailures(t *testing.T) {
	stub := &stubSearcher{outcome: Outcome{Status: model.SearchUnavailable, Err: errors.New("down")}}
	s := NewCachedSearcher(stub, cache.NewMemoryCache(time.Minute, time.Minute), time.Minute, nil)
	req := Request{Query: `"HDFC"`, Country: "in", Limit: 5}

	s.Search(context.Background(), req)
	out := s.Search(context.Background(), req)

	if stub.calls != 2 {
		t.Errorf("backend calls = %d, want 2", stub.calls)
	}
	if out.Status != model.SearchUnavailable {
		t.Errorf("status = %s", out.Status)
	}
}

func TestNewSearcher(t *testing.T) {
	cfg := model.DefaultConfig()

	cfg.Search.APIKey = ""
	if _, err := NewSearcher(cfg, nil, nil); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("err = %v, want ErrMissingAPIKey", err)
	}

	cfg.Search.APIKey = "k"
	s, err := NewSearcher(cfg, cache.Nop{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*CachedSearcher); !ok {
		t.Errorf("got %T, want *CachedSearcher", s)
	}

	cfg.Search.Provider = "rss"
	cfg.Cache.Enabled = false
	s, err = NewSearcher(cfg, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if s.Name() != "rss" {
		t.Errorf("Name() = %q", s.Name())
	}

	cfg.Search.Provider = "bing"
	if _, err := NewSearcher(cfg, nil, nil); err == nil {
		t.Error("expected error for unknown provider")
	}
}
