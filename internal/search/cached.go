package search

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/finsent/internal/cache"
	"github.com/ppiankov/finsent/internal/logging"
	"github.com/ppiankov/finsent/internal/model"
)

// CachedSearcher serves repeated searches from a cache. Only successful,
// non-empty outcomes are stored so an outage is never remembered.
type CachedSearcher struct {
	next   Searcher
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedSearcher wraps next with c
func NewCachedSearcher(next Searcher, c cache.Cache, ttl time.Duration, logger *zap.Logger) *CachedSearcher {
	return &CachedSearcher{next: next, cache: c, ttl: ttl, logger: logging.OrNop(logger)}
}

// Name returns the wrapped backend's name
func (s *CachedSearcher) Name() string {
	return s.next.Name()
}

// Search returns a cached outcome when one exists, otherwise delegates
func (s *CachedSearcher) Search(ctx context.Context, req Request) Outcome {
	req = req.Normalize()
	key := requestKey(s.next.Name(), req)

	if data, ok := s.cache.Get(key); ok {
		var candidates []model.Candidate
		if err := json.Unmarshal(data, &candidates); err == nil {
			s.logger.Debug("search cache hit", zap.String("query", req.Query))
			return found(candidates, req.Limit)
		}
		_ = s.cache.Delete(key)
	}

	outcome := s.next.Search(ctx, req)
	if outcome.Status != model.SearchOK {
		return outcome
	}

	if data, err := json.Marshal(outcome.Candidates); err == nil {
		if err := s.cache.Set(key, data, s.ttl); err != nil {
			s.logger.Debug("search cache write failed", zap.Error(err))
		}
	}

	return outcome
}

func requestKey(backend string, req Request) string {
	return cache.Key("search", backend, req.Query, strings.Join(req.Terms, "\x1f"),
		req.Country, req.Category, strconv.Itoa(req.Limit), req.Language)
}
