package sentiment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/finsent/internal/logging"
	"github.com/ppiankov/finsent/internal/model"
	"github.com/ppiankov/finsent/internal/worker"
)

// Analyzer scores single texts and article batches
type Analyzer interface {
	Score(ctx context.Context, articleID, text string) (*model.SentimentResult, error)
	ScoreAll(ctx context.Context, articles []model.Article) ([]model.SentimentResult, []model.Failure)
}

// Scorer turns classifier logits into a labelled probability distribution
type Scorer struct {
	classifier Classifier
	maxLength  int
	workers    int
	logger     *zap.Logger
}

// NewScorer creates a scorer. maxLength is the classifier window in tokens.
func NewScorer(c Classifier, maxLength, workers int, logger *zap.Logger) *Scorer {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	if workers <= 0 {
		workers = 1
	}
	return &Scorer{classifier: c, maxLength: maxLength, workers: workers, logger: logging.OrNop(logger)}
}

// ModelName is recorded on every result
func (s *Scorer) ModelName() string {
	return s.classifier.Name()
}

// Score classifies text. Input beyond the model window is truncated, not
// chunked. Inference errors are returned to the caller.
func (s *Scorer) Score(ctx context.Context, articleID, text string) (*model.SentimentResult, error) {
	start := time.Now()

	truncated, n := TruncateText(text, s.maxLength)

	logits, err := s.classifier.Logits(ctx, truncated)
	if err != nil {
		return nil, fmt.Errorf("classify %s: %w", articleID, err)
	}
	if len(logits) != len(model.Labels) {
		return nil, fmt.Errorf("classify %s: got %d logits, want %d", articleID, len(logits), len(model.Labels))
	}

	probs := Softmax(logits)
	best := Argmax(probs)

	s.logger.Debug("scored article",
		zap.String("article_id", articleID),
		zap.Int("tokens", n),
		zap.String("label", string(model.Labels[best])))

	return &model.SentimentResult{
		ArticleID:      articleID,
		ModelName:      s.classifier.Name(),
		Label:          model.Labels[best],
		Confidence:     probs[best],
		Scores:         model.ScoresFromSlice(probs),
		ProcessingTime: time.Since(start),
	}, nil
}

// ScoreAll scores every article independently. Failed articles are
// reported and skipped; output keeps input order.
func (s *Scorer) ScoreAll(ctx context.Context, articles []model.Article) ([]model.SentimentResult, []model.Failure) {
	return scoreAll(ctx, s.workers, articles, s.Score, s.logger)
}

// ArticleText is the text scored for an article: the full content, or the
// headline and description when the page yielded nothing
func ArticleText(a model.Article) string {
	if strings.TrimSpace(a.FullContent) != "" {
		return a.FullContent
	}
	if a.Description == "" {
		return a.Title
	}
	return a.Title + ". " + a.Description
}

type scoreFunc func(ctx context.Context, articleID, text string) (*model.SentimentResult, error)

func scoreAll(ctx context.Context, workers int, articles []model.Article, score scoreFunc, logger *zap.Logger) ([]model.SentimentResult, []model.Failure) {
	slots := make([]*model.SentimentResult, len(articles))

	errs := worker.ForEach(ctx, workers, len(articles), func(ctx context.Context, i int) error {
		r, err := score(ctx, articles[i].ArticleID, ArticleText(articles[i]))
		if err != nil {
			return err
		}
		slots[i] = r
		return nil
	})

	results := make([]model.SentimentResult, 0, len(articles))
	var failures []model.Failure
	for i, err := range errs {
		if err != nil {
			logger.Warn("sentiment inference failed",
				zap.String("article_id", articles[i].ArticleID),
				zap.Error(err))
			failures = append(failures, model.Failure{
				Kind:      model.FailureModelInference,
				ArticleID: articles[i].ArticleID,
				URL:       articles[i].URL,
				Message:   err.Error(),
			})
			continue
		}
		results = append(results, *slots[i])
	}

	return results, failures
}
