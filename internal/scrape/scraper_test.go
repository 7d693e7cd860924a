package scrape

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/finsent/internal/cache"
	"github.com/ppiankov/finsent/internal/model"
	"github.com/ppiankov/finsent/internal/worker"
)

func articleServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/robots.txt":
			_, _ = fmt.Fprint(w, "User-agent: *\nDisallow: /private/\n")
		case "/missing":
			http.NotFound(w, r)
		default:
			if hits != nil {
				hits.Add(1)
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = fmt.Fprint(w, articlePage)
		}
	}))
}

func TestScraper_Scrape(t *testing.T) {
	server := articleServer(t, nil)
	defer server.Close()

	s := New(newTestFetcher(), Options{
		Robots:  NewRobotsChecker("finsent", 5*time.Second),
		Limiter: worker.NewLimiter(100, 10),
	})

	content, err := s.Scrape(context.Background(), server.URL+"/markets/story")
	if err != nil {
		t.Fatalf("Scrape: %v", err)
	}
	if content.Text == "" {
		t.Error("expected article text")
	}
	if len(content.Authors) != 3 {
		t.Errorf("Authors = %v", content.Authors)
	}
}

func TestScraper_Errors(t *testing.T) {
	server := articleServer(t, nil)
	defer server.Close()

	s := New(newTestFetcher(), Options{Robots: NewRobotsChecker("finsent", 5*time.Second)})
	ctx := context.Background()

	tests := []struct {
		name string
		url  string
		want error
	}{
		{"empty", "  ", ErrMissingURL},
		{"relative", "/news/story", ErrInvalidURL},
		{"ftp", "ftp://example.com/story", ErrInvalidURL},
		{"robots", server.URL + "/private/story", ErrDisallowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Scrape(ctx, tt.url); !errors.Is(err, tt.want) {
				t.Errorf("Scrape(%q) err = %v, want %v", tt.url, err, tt.want)
			}
		})
	}

	var statusErr *StatusError
	if _, err := s.Scrape(ctx, server.URL+"/missing"); !errors.As(err, &statusErr) {
		t.Errorf("404 err = %v, want StatusError", err)
	}
}

func TestScraper_CachesPages(t *testing.T) {
	var hits atomic.Int32
	server := articleServer(t, &hits)
	defer server.Close()

	s := New(newTestFetcher(), Options{
		Cache:    cache.NewMemoryCache(time.Minute, time.Minute),
		CacheTTL: time.Minute,
	})

	for i := 0; i < 3; i++ {
		if _, err := s.Scrape(context.Background(), server.URL+"/story"); err != nil {
			t.Fatal(err)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("page fetched %d times, want 1", hits.Load())
	}
}

type stubLoader struct {
	page *Page
	err  error
}

func (l *stubLoader) Load(ctx context.Context, rawURL string) (*Page, error) {
	return l.page, l.err
}

func TestScraper_LoaderError(t *testing.T) {
	boom := errors.New("browser crashed")
	s := New(&stubLoader{err: boom}, Options{})
	if _, err := s.Scrape(context.Background(), "https://example.com/a"); !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped loader error", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}

func TestFromConfig(t *testing.T) {
	cfg := model.DefaultConfig()
	s, err := FromConfig(cfg, cache.Nop{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.loader.(*Fetcher); !ok {
		t.Errorf("loader = %T, want *Fetcher", s.loader)
	}
	if s.robots == nil {
		t.Error("robots checker should be enabled by default")
	}

	cfg.HTTP.Renderer = "browser"
	s, err = FromConfig(cfg, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.loader.(*BrowserLoader); !ok {
		t.Errorf("loader = %T, want *BrowserLoader", s.loader)
	}

	cfg.HTTP.Renderer = "telnet"
	if _, err := FromConfig(cfg, nil, nil); err == nil {
		t.Error("expected error for unknown renderer")
	}
}
