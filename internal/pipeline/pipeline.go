// Package pipeline runs news ingestion: search, scrape, assemble, then
// scoring and storage.
package pipeline

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ppiankov/finsent/internal/artifact"
	"github.com/ppiankov/finsent/internal/cache"
	"github.com/ppiankov/finsent/internal/llm"
	"github.com/ppiankov/finsent/internal/logging"
	"github.com/ppiankov/finsent/internal/model"
	"github.com/ppiankov/finsent/internal/queue"
	"github.com/ppiankov/finsent/internal/scrape"
	"github.com/ppiankov/finsent/internal/search"
	"github.com/ppiankov/finsent/internal/sentiment"
	"github.com/ppiankov/finsent/internal/store"
)

// Publisher hands stored article IDs to background scoring
type Publisher interface {
	Publish(ctx context.Context, ids ...string) error
}

// Deps are the collaborators of a pipeline. Searcher and Scraper are
// required; the rest may be nil.
type Deps struct {
	Searcher  search.Searcher
	Scraper   ContentScraper
	Analyzer  sentiment.Analyzer
	Hybrid    bool // Analyzer adds LLM explanations
	Store     store.Store
	Publisher Publisher
	Articles  artifact.Sink // news_articles.json
	Sentiment artifact.Sink // news_sentiment.json / news_llm_sentiment.json
	Logger    *zap.Logger
}

// Pipeline orchestrates a complete ingestion run
type Pipeline struct {
	cfg       *model.Config
	searcher  search.Searcher
	assembler *Assembler
	analyzer  sentiment.Analyzer
	hybrid    bool
	store     store.Store
	publisher Publisher
	articles  artifact.Sink
	sentiment artifact.Sink
	logger    *zap.Logger
	newRunID  func() string
	closers   []io.Closer
}

// New creates a pipeline from explicit collaborators
func New(cfg *model.Config, deps Deps) *Pipeline {
	logger := logging.OrNop(deps.Logger)

	st := deps.Store
	if st == nil {
		st = store.Disabled{}
	}

	return &Pipeline{
		cfg:       cfg,
		searcher:  deps.Searcher,
		assembler: NewAssembler(deps.Scraper, cfg.Concurrency.Workers, logger),
		analyzer:  deps.Analyzer,
		hybrid:    deps.Hybrid,
		store:     st,
		publisher: deps.Publisher,
		articles:  deps.Articles,
		sentiment: deps.Sentiment,
		logger:    logger,
		newRunID:  func() string { return uuid.NewString() },
	}
}

// FromConfig wires every collaborator from cfg. Missing secrets and bad
// model settings are errors; an unreachable database or queue only
// disables that stage.
func FromConfig(ctx context.Context, cfg *model.Config, logger *zap.Logger) (*Pipeline, error) {
	logger = logging.OrNop(logger)
	c := cache.New(cfg.Cache)

	searcher, err := search.NewSearcher(cfg, c, logger)
	if err != nil {
		return nil, err
	}

	scraper, err := scrape.FromConfig(cfg, c, logger)
	if err != nil {
		return nil, err
	}

	analyzer, hybrid, err := NewAnalyzer(ctx, cfg, logger)
	if err != nil {
		_ = scraper.Close()
		return nil, err
	}

	deps := Deps{
		Searcher: searcher,
		Scraper:  scraper,
		Analyzer: analyzer,
		Hybrid:   hybrid,
		Logger:   logger,
	}
	closers := []io.Closer{scraper}

	st := store.OpenOrDisabled(ctx, cfg.Database, logger)
	if _, disabled := st.(store.Disabled); !disabled {
		if err := st.Migrate(ctx); err != nil {
			logger.Error("schema migration failed", zap.Error(err))
		}
		closers = append(closers, st)
	}
	deps.Store = st

	if cfg.Queue.Enabled {
		q, err := queue.NewRedisQueue(ctx, cfg.Queue)
		if err != nil {
			logger.Warn("queue unavailable, articles will not be published", zap.Error(err))
		} else {
			deps.Publisher = q
			closers = append(closers, q)
		}
	}

	if cfg.Artifacts.Enabled {
		if deps.Articles, err = artifact.New(ctx, cfg.Artifacts, cfg.Ingestion.RootDir); err != nil {
			logger.Warn("article artifacts disabled", zap.Error(err))
			deps.Articles = nil
		}
		if deps.Sentiment, err = artifact.New(ctx, cfg.Artifacts, cfg.Sentiment.RootDir); err != nil {
			logger.Warn("sentiment artifacts disabled", zap.Error(err))
			deps.Sentiment = nil
		}
	}

	p := New(cfg, deps)
	p.closers = closers
	return p, nil
}

// NewAnalyzer builds the sentiment scorer, wrapped with explanations when an
// LLM provider is configured
func NewAnalyzer(ctx context.Context, cfg *model.Config, logger *zap.Logger) (sentiment.Analyzer, bool, error) {
	classifier, err := sentiment.NewClassifier(cfg.Sentiment)
	if err != nil {
		return nil, false, fmt.Errorf("create sentiment model: %w", err)
	}
	scorer := sentiment.NewScorer(classifier, cfg.Sentiment.MaxLength, cfg.Concurrency.Workers, logger)

	provider, err := llm.NewProvider(ctx, llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return nil, false, fmt.Errorf("create LLM provider: %w", err)
	}
	if provider == nil {
		return scorer, false, nil
	}

	explainer, err := sentiment.NewExplainer(provider)
	if err != nil {
		return nil, false, err
	}
	return sentiment.NewHybridScorer(scorer, explainer, logger), true, nil
}

// Store returns the persistence adapter in use
func (p *Pipeline) Store() store.Store {
	return p.store
}

// Analyzer returns the sentiment analyzer, nil when none is configured
func (p *Pipeline) Analyzer() sentiment.Analyzer {
	return p.analyzer
}

// Close releases scrapers, connections and clients opened by FromConfig
func (p *Pipeline) Close() error {
	var first error
	for _, c := range p.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
