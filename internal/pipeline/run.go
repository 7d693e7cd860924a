package pipeline

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/finsent/internal/artifact"
	"github.com/ppiankov/finsent/internal/model"
	"github.com/ppiankov/finsent/internal/store"
)

// ErrNoAnalyzer is returned when scoring is requested without a model
var ErrNoAnalyzer = errors.New("no sentiment analyzer configured")

// RunRequest is an ingest request plus what to do with the articles
type RunRequest struct {
	IngestRequest
	Score bool `json:"score"` // Score inline; otherwise queue for background scoring
}

// RunResult extends the ingest result with storage and scoring outcomes
type RunResult struct {
	*IngestResult
	Stored      int                     `json:"stored"`
	StoreFailed int                     `json:"store_failed"`
	Queued      int                     `json:"queued"`
	Sentiment   []model.SentimentResult `json:"sentiment"`
}

// ScoreResult is the outcome of scoring a batch of articles
type ScoreResult struct {
	Results  []model.SentimentResult `json:"results"`
	Stored   int                     `json:"stored"`
	Failures []model.Failure         `json:"failures"`
}

// Run ingests, stores the articles, then scores them inline or queues
// them. Optional stages log and continue.
func (p *Pipeline) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	ingest, err := p.Ingest(ctx, req.IngestRequest)
	if err != nil {
		return nil, err
	}

	res := &RunResult{IngestResult: ingest, Sentiment: []model.SentimentResult{}}

	stored := p.storeArticles(ctx, res)
	p.saveArtifact(ctx, p.articles, artifact.ArticlesFile, ingest.Articles)

	switch {
	case req.Score:
		scored, err := p.ScoreArticles(ctx, ingest.Articles)
		if err != nil {
			return nil, err
		}
		res.Sentiment = scored.Results
		res.Failures = append(res.Failures, scored.Failures...)
	case p.publisher != nil && len(stored) > 0:
		if err := p.publisher.Publish(ctx, stored...); err != nil {
			p.logger.Warn("queue publish failed", zap.Error(err))
		} else {
			res.Queued = len(stored)
		}
	}

	res.Duration = time.Since(ingest.StartedAt)
	p.logger.Info("run finished",
		zap.String("run_id", res.RunID),
		zap.Int("articles", len(res.Articles)),
		zap.Int("stored", res.Stored),
		zap.Int("scored", len(res.Sentiment)),
		zap.Int("queued", res.Queued),
		zap.Int("failures", len(res.Failures)))

	return res, nil
}

// storeArticles inserts each article and returns the IDs that went in
func (p *Pipeline) storeArticles(ctx context.Context, res *RunResult) []string {
	var stored []string
	for _, a := range res.Articles {
		if err := p.store.InsertArticle(ctx, a); err != nil {
			res.StoreFailed++
			res.Failures = append(res.Failures, store.FailureFor(a, err))
			continue
		}
		res.Stored++
		stored = append(stored, a.ArticleID)
	}

	if len(res.Articles) > 0 {
		p.logger.Info("batch insert", zap.Int("success", res.Stored), zap.Int("failed", res.StoreFailed))
	}
	return stored
}

// ScoreArticles scores articles, stores the results and writes the
// sentiment artifact. Per-article inference errors become failures.
func (p *Pipeline) ScoreArticles(ctx context.Context, articles []model.Article) (*ScoreResult, error) {
	if p.analyzer == nil {
		return nil, ErrNoAnalyzer
	}

	results, failures := p.analyzer.ScoreAll(ctx, articles)

	out := &ScoreResult{Results: results, Failures: failures}
	for _, r := range results {
		if p.store.InsertSentiment(ctx, r) {
			out.Stored++
		}
	}

	name := artifact.SentimentFile
	if p.hybrid {
		name = artifact.LLMSentimentFile
	}
	p.saveArtifact(ctx, p.sentiment, name, results)

	p.logger.Info("sentiment scored",
		zap.Int("articles", len(articles)),
		zap.Int("scored", len(results)),
		zap.Int("stored", out.Stored),
		zap.Int("failed", len(failures)))

	return out, nil
}

// LoadArticles reads the last saved article artifact
func (p *Pipeline) LoadArticles(ctx context.Context) ([]model.Article, error) {
	if p.articles == nil {
		return nil, errors.New("article artifacts are disabled")
	}
	var articles []model.Article
	if err := p.articles.Load(ctx, artifact.ArticlesFile, &articles); err != nil {
		return nil, err
	}
	return articles, nil
}

func (p *Pipeline) saveArtifact(ctx context.Context, sink artifact.Sink, name string, v any) {
	if sink == nil {
		return
	}
	if err := sink.Save(ctx, name, v); err != nil {
		p.logger.Warn("artifact save failed", zap.String("name", name), zap.Error(err))
	}
}
