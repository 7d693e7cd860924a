package sentiment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/finsent/internal/llm"
	"github.com/ppiankov/finsent/internal/logging"
	"github.com/ppiankov/finsent/internal/model"
)

// explainMaxTokens bounds how much article text goes into the prompt
const explainMaxTokens = 1024

const explainSystem = "You are a financial analyst. Explain sentiment classifications of news articles concisely and factually."

const explainTemplate = `The following financial news has been classified as %s with %.1f%% confidence:

News: %s

Provide a detailed analysis explaining:
1. Why this sentiment classification makes sense
2. Key financial indicators or events mentioned
3. Potential market implications
4. Any risks or uncertainties

Analysis:`

// Explainer asks a generative model to justify a classification
type Explainer struct {
	provider llm.Provider
}

// NewExplainer creates an explainer; provider must not be nil
func NewExplainer(provider llm.Provider) (*Explainer, error) {
	if provider == nil {
		return nil, errors.New("explanations need an LLM provider")
	}
	return &Explainer{provider: provider}, nil
}

// BuildPrompt renders the explanation prompt for one result
func BuildPrompt(text string, r model.SentimentResult) string {
	truncated, _ := TruncateText(text, explainMaxTokens)
	return fmt.Sprintf(explainTemplate, r.Label, r.Confidence*100, truncated)
}

// Explain returns the model's analysis of why text got its label
func (e *Explainer) Explain(ctx context.Context, text string, r model.SentimentResult) (string, error) {
	resp, err := e.provider.Generate(ctx, llm.GenerateRequest{
		System: explainSystem,
		Prompt: BuildPrompt(text, r),
	})
	if err != nil {
		return "", fmt.Errorf("explain %s with %s: %w", r.ArticleID, e.provider.Name(), err)
	}
	return resp.Text, nil
}

// HybridScorer adds a generated explanation to every classification. A
// failed explanation is logged and the plain result kept.
type HybridScorer struct {
	base      *Scorer
	explainer *Explainer
	logger    *zap.Logger
}

// NewHybridScorer combines a scorer with an explainer
func NewHybridScorer(base *Scorer, explainer *Explainer, logger *zap.Logger) *HybridScorer {
	return &HybridScorer{base: base, explainer: explainer, logger: logging.OrNop(logger)}
}

// Score classifies text and then explains the classification
func (h *HybridScorer) Score(ctx context.Context, articleID, text string) (*model.SentimentResult, error) {
	start := time.Now()

	r, err := h.base.Score(ctx, articleID, text)
	if err != nil {
		return nil, err
	}

	explanation, err := h.explainer.Explain(ctx, text, *r)
	if err != nil {
		h.logger.Warn("explanation failed, keeping classification",
			zap.String("article_id", articleID),
			zap.Error(err))
		return r, nil
	}

	r.Explanation = explanation
	r.ProcessingTime = time.Since(start)
	return r, nil
}

// ScoreAll scores and explains every article, keeping input order
func (h *HybridScorer) ScoreAll(ctx context.Context, articles []model.Article) ([]model.SentimentResult, []model.Failure) {
	return scoreAll(ctx, h.base.workers, articles, h.Score, h.logger)
}
