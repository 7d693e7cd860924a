package search

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ppiankov/finsent/internal/cache"
	"github.com/ppiankov/finsent/internal/model"
)

// NewSearcher builds the configured backend, wrapped with a cache when
// caching is enabled
func NewSearcher(cfg *model.Config, c cache.Cache, logger *zap.Logger) (Searcher, error) {
	var (
		s   Searcher
		err error
	)

	switch cfg.Search.Provider {
	case "", "newsdata":
		s, err = NewNewsDataClient(cfg.Search, logger)
	case "rss":
		s, err = NewFeedSearcher(cfg.Search.Feeds, cfg.HTTP.UserAgent, logger)
	default:
		return nil, fmt.Errorf("unknown search provider: %s (supported: newsdata, rss)", cfg.Search.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s searcher: %w", cfg.Search.Provider, err)
	}

	if c == nil || !cfg.Cache.Enabled {
		return s, nil
	}
	return NewCachedSearcher(s, c, cfg.Cache.MemoryTTL, logger), nil
}
