// Package artifact writes run outputs as JSON documents to a directory or
// a Cloud Storage bucket.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/ppiankov/finsent/internal/model"
)

// Artifact names
const (
	ArticlesFile     = "news_articles.json"
	SentimentFile    = "news_sentiment.json"
	LLMSentimentFile = "news_llm_sentiment.json"
)

// ErrNotFound is returned by Load for a missing artifact
var ErrNotFound = errors.New("artifact not found")

// Sink stores named JSON artifacts
type Sink interface {
	Save(ctx context.Context, name string, v any) error
	Load(ctx context.Context, name string, v any) error
}

// New builds the sink selected by cfg. dir is the local directory, or the
// object prefix below artifacts.prefix for GCS.
func New(ctx context.Context, cfg model.ArtifactsConfig, dir string) (Sink, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "local":
		return NewLocalSink(dir), nil
	case "gcs":
		s, err := NewGCSSink(ctx, cfg.Bucket, path.Join(cfg.Prefix, dir))
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown artifacts backend: %s (supported: local, gcs)", cfg.Backend)
	}
}
