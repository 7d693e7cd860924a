package queue

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ppiankov/finsent/internal/model"
	"github.com/ppiankov/finsent/internal/sentiment"
	"github.com/ppiankov/finsent/internal/store"
)

type memQueue struct {
	mu      sync.Mutex
	items   []string
	onEmpty func()
}

func (q *memQueue) Publish(ctx context.Context, ids ...string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, ids...)
	return nil
}

func (q *memQueue) Pop(ctx context.Context, timeout time.Duration) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		if q.onEmpty != nil {
			q.onEmpty()
		}
		return "", ErrEmpty
	}
	id := q.items[0]
	q.items = q.items[1:]
	return id, nil
}

func (q *memQueue) Close() error { return nil }

func newSQLiteStore(t *testing.T) *store.SQLStore {
	t.Helper()
	s, err := store.OpenSQL(context.Background(), store.DriverSQLite, filepath.Join(t.TempDir(), "q.db"), 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestWorker_ProcessNext(t *testing.T) {
	ctx := context.Background()
	st := newSQLiteStore(t)
	if err := st.InsertArticle(ctx, model.Article{
		ArticleID:   "a1",
		Title:       "Bank shares rally",
		FullContent: "Bank shares rally to a record high after profits surge",
	}); err != nil {
		t.Fatal(err)
	}

	q := &memQueue{}
	_ = q.Publish(ctx, "a1")

	scorer := sentiment.NewScorer(sentiment.NewLexiconClassifier(), 512, 1, nil)
	w := NewWorker(q, st, scorer, nil)

	r, err := w.ProcessNext(ctx)
	if err != nil {
		t.Fatalf("ProcessNext failed: %v", err)
	}
	if r.Label != model.LabelPositive {
		t.Errorf("Label = %s, want positive", r.Label)
	}

	stored, err := st.ListSentiment(ctx, "a1")
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 1 || stored[0].ModelName != sentiment.LexiconModelName {
		t.Errorf("Expected one stored lexicon result, got %+v", stored)
	}

	if _, err := w.ProcessNext(ctx); !errors.Is(err, ErrEmpty) {
		t.Errorf("Expected ErrEmpty on drained queue, got %v", err)
	}
}

func TestWorker_MissingArticle(t *testing.T) {
	ctx := context.Background()
	q := &memQueue{}
	_ = q.Publish(ctx, "ghost")

	w := NewWorker(q, newSQLiteStore(t), sentiment.NewScorer(sentiment.NewLexiconClassifier(), 512, 1, nil), nil)

	if _, err := w.ProcessNext(ctx); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestWorker_RunDrainsAndStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st := newSQLiteStore(t)
	for _, id := range []string{"a", "b", "c"} {
		if err := st.InsertArticle(ctx, model.Article{ArticleID: id, Title: "Markets slump", FullContent: "Markets slump on recession fears"}); err != nil {
			t.Fatal(err)
		}
	}

	// "missing" fails, the rest still get scored
	q := &memQueue{onEmpty: cancel}
	_ = q.Publish(ctx, "a", "missing", "b", "c")

	w := NewWorker(q, st, sentiment.NewScorer(sentiment.NewLexiconClassifier(), 512, 1, nil), nil)

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}

	for _, id := range []string{"a", "b", "c"} {
		got, err := st.ListSentiment(context.Background(), id)
		if err != nil || len(got) != 1 {
			t.Errorf("article %s: expected 1 result, got %d (%v)", id, len(got), err)
		}
	}
}

func TestNewRedisQueue_DefaultKey(t *testing.T) {
	q := newRedisQueue(nil, "")
	if q.Key() != DefaultKey {
		t.Errorf("Key() = %s, want %s", q.Key(), DefaultKey)
	}
}
