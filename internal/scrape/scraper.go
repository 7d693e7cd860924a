// Package scrape recovers article text and authors from news pages.
package scrape

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/finsent/internal/cache"
	"github.com/ppiankov/finsent/internal/logging"
	"github.com/ppiankov/finsent/internal/model"
	"github.com/ppiankov/finsent/internal/worker"
)

var (
	// ErrMissingURL is returned when a candidate has no link
	ErrMissingURL = errors.New("missing URL")
	// ErrInvalidURL is returned for links that are not absolute http(s) URLs
	ErrInvalidURL = errors.New("invalid URL")
)

// Options holds the optional collaborators of a Scraper
type Options struct {
	Robots   *RobotsChecker  // nil skips robots.txt checks
	Limiter  *worker.Limiter // nil disables per-host rate limiting
	Cache    cache.Cache     // nil disables page caching
	CacheTTL time.Duration
	Logger   *zap.Logger
}

// Scraper downloads an article page and extracts its content
type Scraper struct {
	loader    Loader
	extractor *Extractor
	robots    *RobotsChecker
	limiter   *worker.Limiter
	cache     cache.Cache
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// New creates a scraper around loader
func New(loader Loader, opts Options) *Scraper {
	c := opts.Cache
	if c == nil {
		c = cache.Nop{}
	}
	return &Scraper{
		loader:    loader,
		extractor: NewExtractor(),
		robots:    opts.Robots,
		limiter:   opts.Limiter,
		cache:     c,
		cacheTTL:  opts.CacheTTL,
		logger:    logging.OrNop(opts.Logger),
	}
}

// FromConfig builds a scraper with the loader, robots policy and rate
// limits described by cfg
func FromConfig(cfg *model.Config, c cache.Cache, logger *zap.Logger) (*Scraper, error) {
	var loader Loader
	switch cfg.HTTP.Renderer {
	case "", "http":
		loader = NewFetcher(cfg.HTTP.Timeout, cfg.HTTP.UserAgent, cfg.HTTP.MaxBodyBytes,
			cfg.HTTP.InsecureTLS, cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy)
	case "browser":
		loader = NewBrowserLoader(cfg.HTTP.BrowserBin, cfg.HTTP.UserAgent, cfg.HTTP.Timeout)
	default:
		return nil, fmt.Errorf("unknown renderer: %s (supported: http, browser)", cfg.HTTP.Renderer)
	}

	opts := Options{
		Limiter:  worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize),
		Cache:    c,
		CacheTTL: cfg.Cache.DiskTTL,
		Logger:   logger,
	}
	if cfg.HTTP.RespectRobots {
		opts.Robots = NewRobotsChecker(cfg.HTTP.UserAgent, cfg.HTTP.Timeout)
	}

	return New(loader, opts), nil
}

// Scrape returns the main text and authors of the article at rawURL
func (s *Scraper) Scrape(ctx context.Context, rawURL string) (*model.Content, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, ErrMissingURL
	}
	if err := validateURL(rawURL); err != nil {
		return nil, err
	}

	page, err := s.load(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	content, err := s.extractor.Extract(page.HTML, page.FinalURL)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", rawURL, err)
	}

	s.logger.Debug("scraped article",
		zap.String("url", rawURL),
		zap.Int("chars", len(content.Text)),
		zap.Strings("authors", content.Authors))

	return content, nil
}

func (s *Scraper) load(ctx context.Context, rawURL string) (*Page, error) {
	key := cache.Key("page", rawURL)
	if data, ok := s.cache.Get(key); ok {
		var page Page
		if err := json.Unmarshal(data, &page); err == nil {
			return &page, nil
		}
		_ = s.cache.Delete(key)
	}

	var crawlDelay time.Duration
	if s.robots != nil {
		allowed, delay, err := s.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, fmt.Errorf("check robots.txt: %w", err)
		}
		if !allowed {
			return nil, fmt.Errorf("%w: %s", ErrDisallowed, rawURL)
		}
		crawlDelay = delay
	}

	if s.limiter != nil {
		if err := s.limiter.WaitWithDelay(ctx, rawURL, crawlDelay); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	page, err := s.loader.Load(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", rawURL, err)
	}

	if data, err := json.Marshal(page); err == nil {
		_ = s.cache.Set(key, data, s.cacheTTL)
	}

	return page, nil
}

// Close releases the loader's resources, e.g. a running browser
func (s *Scraper) Close() error {
	if c, ok := s.loader.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %s", ErrInvalidURL, rawURL)
	}
	return nil
}
