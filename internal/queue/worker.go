package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/finsent/internal/logging"
	"github.com/ppiankov/finsent/internal/model"
	"github.com/ppiankov/finsent/internal/sentiment"
	"github.com/ppiankov/finsent/internal/store"
)

const defaultPollTimeout = 5 * time.Second

// Worker scores queued articles and stores the results
type Worker struct {
	queue       Queue
	store       store.Store
	analyzer    sentiment.Analyzer
	logger      *zap.Logger
	pollTimeout time.Duration
}

// NewWorker creates a scoring worker
func NewWorker(q Queue, s store.Store, a sentiment.Analyzer, logger *zap.Logger) *Worker {
	return &Worker{
		queue:       q,
		store:       s,
		analyzer:    a,
		logger:      logging.OrNop(logger),
		pollTimeout: defaultPollTimeout,
	}
}

// Run processes ids until ctx is cancelled. Per-article failures are
// logged and skipped.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("scoring worker started")
	for {
		if ctx.Err() != nil {
			w.logger.Info("scoring worker stopped")
			return nil
		}

		_, err := w.ProcessNext(ctx)
		switch {
		case err == nil, errors.Is(err, ErrEmpty):
		case ctx.Err() != nil:
			w.logger.Info("scoring worker stopped")
			return nil
		default:
			w.logger.Warn("scoring failed", zap.Error(err))
		}
	}
}

// ProcessNext pops one id and scores it. It returns the stored result.
func (w *Worker) ProcessNext(ctx context.Context) (*model.SentimentResult, error) {
	id, err := w.queue.Pop(ctx, w.pollTimeout)
	if err != nil {
		return nil, err
	}

	article, err := w.store.GetArticle(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load article: %w", err)
	}

	result, err := w.analyzer.Score(ctx, article.ArticleID, sentiment.ArticleText(*article))
	if err != nil {
		return nil, err
	}

	if !w.store.InsertSentiment(ctx, *result) {
		return nil, fmt.Errorf("store sentiment for %s", id)
	}

	w.logger.Info("processed article",
		zap.String("article_id", id),
		zap.String("sentiment", string(result.Label)),
		zap.Float64("confidence", result.Confidence))
	return result, nil
}
