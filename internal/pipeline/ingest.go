package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/finsent/internal/model"
	"github.com/ppiankov/finsent/internal/query"
	"github.com/ppiankov/finsent/internal/search"
)

// IngestRequest describes one ingestion run. Zero fields take the
// configured defaults.
type IngestRequest struct {
	Terms    []string `json:"terms"`
	Country  string   `json:"country"`
	Category string   `json:"category"`
	Language string   `json:"language"`
	Limit    int      `json:"limit"`
	FanOut   bool     `json:"fan_out"` // One search per term; also enabled by ingestion.fan_out
}

// SearchReport records what one search call returned
type SearchReport struct {
	Query      string             `json:"query"`
	Status     model.SearchStatus `json:"status"`
	Candidates int                `json:"candidates"`
	Error      string             `json:"error,omitempty"`
}

// IngestResult is everything one run produced. It is returned to the
// caller rather than kept by the pipeline.
type IngestResult struct {
	RunID     string          `json:"run_id"`
	Query     query.Query     `json:"query"`
	Searches  []SearchReport  `json:"searches"`
	Articles  []model.Article `json:"articles"`
	Failures  []model.Failure `json:"failures"`
	StartedAt time.Time       `json:"started_at"`
	Duration  time.Duration   `json:"duration"`
}

type plannedSearch struct {
	tag string
	req search.Request
}

// Ingest searches for the request's terms and assembles enriched articles.
// Only an invalid request is an error; search and scrape problems are
// reported in the result and an empty article list is a valid outcome.
func (p *Pipeline) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	start := time.Now()

	q := query.Build(req.Terms, p.fallbackTerms()...)

	base := search.Request{
		Country:  firstNonEmpty(req.Country, p.cfg.Ingestion.Country),
		Category: firstNonEmpty(req.Category, p.cfg.Ingestion.Category),
		Language: firstNonEmpty(req.Language, p.cfg.Ingestion.Language),
		Limit:    req.Limit,
	}
	if base.Limit == 0 {
		base.Limit = p.cfg.Ingestion.Limit
	}
	base = base.Normalize()
	if err := base.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ingest request: %w", err)
	}

	plan := planSearches(q, base, req.FanOut || p.cfg.Ingestion.FanOut)

	result := &IngestResult{
		RunID:     p.newRunID(),
		Query:     q,
		Searches:  make([]SearchReport, len(plan)),
		Articles:  []model.Article{},
		StartedAt: start.UTC(),
	}

	p.logger.Info("ingest started",
		zap.String("run_id", result.RunID),
		zap.String("query", q.Expression),
		zap.String("country", base.Country),
		zap.Int("limit", base.Limit),
		zap.Int("searches", len(plan)))

	outcomes := p.runSearches(ctx, plan)

	var candidates []model.TaggedCandidate
	for i, out := range outcomes {
		tag := plan[i].tag
		report := SearchReport{Query: tag, Status: out.Status, Candidates: len(out.Candidates)}

		switch out.Status {
		case model.SearchUnavailable:
			report.Error = "search unavailable"
			if out.Err != nil {
				report.Error = out.Err.Error()
			}
			result.Failures = append(result.Failures, model.Failure{
				Kind:    model.FailureSearchUnavailable,
				Query:   tag,
				Message: report.Error,
			})
			p.logger.Warn("search unavailable", zap.String("query", tag), zap.Error(out.Err))
		case model.SearchEmpty:
			p.logger.Info("no search results", zap.String("query", tag))
		}
		result.Searches[i] = report

		for _, c := range out.Candidates {
			candidates = append(candidates, model.TaggedCandidate{Candidate: c, SearchQuery: tag})
		}
	}

	articles, failures := p.assembler.Assemble(ctx, candidates)
	result.Articles = articles
	result.Failures = append(result.Failures, failures...)
	result.Duration = time.Since(start)

	p.logger.Info("ingest finished",
		zap.String("run_id", result.RunID),
		zap.Int("candidates", len(candidates)),
		zap.Int("articles", len(articles)),
		zap.Int("failures", len(result.Failures)),
		zap.Duration("duration", result.Duration))

	return result, nil
}

// fallbackTerms are ingestion.queries, else ingestion.fallback_query
func (p *Pipeline) fallbackTerms() []string {
	if terms := query.Clean(p.cfg.Ingestion.Queries); len(terms) > 0 {
		return terms
	}
	return []string{p.cfg.Ingestion.FallbackQuery}
}

// planSearches returns one combined search, or one search per term in
// fan-out mode. The tag becomes each article's search_query.
func planSearches(q query.Query, base search.Request, fanOut bool) []plannedSearch {
	if !fanOut {
		req := base
		req.Query = q.Expression
		req.Terms = q.Terms
		return []plannedSearch{{tag: q.Expression, req: req}}
	}

	plan := make([]plannedSearch, len(q.Terms))
	for i, term := range q.Terms {
		req := base
		req.Query = query.Combine([]string{term})
		req.Terms = []string{term}
		plan[i] = plannedSearch{tag: term, req: req}
	}
	return plan
}

// runSearches executes the plan concurrently, keeping plan order
func (p *Pipeline) runSearches(ctx context.Context, plan []plannedSearch) []search.Outcome {
	outcomes := make([]search.Outcome, len(plan))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(p.cfg.Concurrency.Workers, 1))
	for i, ps := range plan {
		i, ps := i, ps
		g.Go(func() error {
			outcomes[i] = p.searcher.Search(gctx, ps.req)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
