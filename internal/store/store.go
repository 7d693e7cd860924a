// Package store persists articles and sentiment results.
package store

import (
	"context"
	"errors"

	"github.com/ppiankov/finsent/internal/model"
)

var (
	// ErrConflict reports a duplicate article_id
	ErrConflict = errors.New("article already stored")
	// ErrDisabled is returned by every operation of the disabled store
	ErrDisabled = errors.New("persistence disabled")
	// ErrNotFound reports a missing article
	ErrNotFound = errors.New("article not found")
)

// Store is the persistence adapter
type Store interface {
	// InsertArticle stores one article. Duplicates return ErrConflict.
	InsertArticle(ctx context.Context, a model.Article) error
	// InsertArticles stores each article independently and never aborts
	// the batch
	InsertArticles(ctx context.Context, articles []model.Article) (success, failed int)
	// InsertSentiment upserts by (article_id, model_name)
	InsertSentiment(ctx context.Context, r model.SentimentResult) bool
	GetArticle(ctx context.Context, id string) (*model.Article, error)
	ListArticles(ctx context.Context, limit int) ([]model.Article, error)
	ListSentiment(ctx context.Context, articleID string) ([]model.SentimentResult, error)
	Migrate(ctx context.Context) error
	Close() error
}

// Disabled stores nothing. Inserts report every item as failed.
type Disabled struct{}

func (Disabled) InsertArticle(context.Context, model.Article) error { return ErrDisabled }

func (Disabled) InsertArticles(_ context.Context, articles []model.Article) (int, int) {
	return 0, len(articles)
}

func (Disabled) InsertSentiment(context.Context, model.SentimentResult) bool { return false }

func (Disabled) GetArticle(context.Context, string) (*model.Article, error) { return nil, ErrDisabled }

func (Disabled) ListArticles(context.Context, int) ([]model.Article, error) { return nil, ErrDisabled }

func (Disabled) ListSentiment(context.Context, string) ([]model.SentimentResult, error) {
	return nil, ErrDisabled
}

func (Disabled) Migrate(context.Context) error { return ErrDisabled }

func (Disabled) Close() error { return nil }

// FailureFor maps an insert error onto the failure taxonomy
func FailureFor(a model.Article, err error) model.Failure {
	kind := model.FailurePersistenceUnavailable
	if errors.Is(err, ErrConflict) {
		kind = model.FailurePersistenceConflict
	}
	return model.Failure{
		Kind:      kind,
		ArticleID: a.ArticleID,
		URL:       a.URL,
		Message:   err.Error(),
	}
}
