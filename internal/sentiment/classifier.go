package sentiment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/finsent/internal/model"
)

// Classifier produces one logit per label, in model.Labels order
type Classifier interface {
	Name() string
	Logits(ctx context.Context, text string) ([]float64, error)
}

// NewClassifier builds the classifier selected by sentiment.backend
func NewClassifier(cfg model.SentimentConfig) (Classifier, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "lexicon":
		return NewLexiconClassifier(), nil
	case "huggingface", "hf":
		c, err := NewHuggingFaceClassifier(cfg.BaseURL, cfg.ModelName, cfg.APIToken, cfg.MaxLength, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown sentiment backend: %s (supported: lexicon, huggingface)", cfg.Backend)
	}
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}
