package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/ppiankov/finsent/internal/logging"
	"github.com/ppiankov/finsent/internal/model"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultSQLitePath = "finsent.db"

	// fixed width so timestamps sort as text
	timeLayout = "2006-01-02T15:04:05.000000Z"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS news_articles (
		article_id     TEXT PRIMARY KEY,
		title          TEXT NOT NULL,
		description    TEXT,
		content        TEXT,
		source         TEXT,
		published_date TEXT,
		url            TEXT,
		category       TEXT,
		authors        TEXT,
		image_url      TEXT,
		search_query   TEXT,
		created_at     TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sentiment_analysis (
		article_id         TEXT NOT NULL,
		model_name         TEXT NOT NULL,
		sentiment          TEXT NOT NULL,
		confidence         DOUBLE PRECISION NOT NULL,
		positive_score     DOUBLE PRECISION NOT NULL,
		negative_score     DOUBLE PRECISION NOT NULL,
		neutral_score      DOUBLE PRECISION NOT NULL,
		explanation        TEXT,
		processing_time_ms DOUBLE PRECISION,
		analyzed_at        TEXT NOT NULL,
		PRIMARY KEY (article_id, model_name)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_news_articles_created ON news_articles(created_at)`,
}

// SQLStore implements Store on Postgres or SQLite
type SQLStore struct {
	db     *sql.DB
	driver string
	logger *zap.Logger
	now    func() time.Time
}

// Open returns the store selected by cfg. A disabled config yields Disabled.
// The connection is verified with a ping.
func Open(ctx context.Context, cfg model.DatabaseConfig, logger *zap.Logger) (Store, error) {
	if !cfg.Enabled {
		return Disabled{}, nil
	}

	driver := strings.ToLower(cfg.Driver)
	if driver == "" || driver == "postgresql" || driver == "pg" {
		driver = DriverPostgres
	}

	dsn, err := buildDSN(driver, cfg)
	if err != nil {
		return nil, err
	}

	return OpenSQL(ctx, driver, dsn, cfg.PoolSize, logger)
}

// OpenOrDisabled is Open that logs and falls back to Disabled when the
// database cannot be reached
func OpenOrDisabled(ctx context.Context, cfg model.DatabaseConfig, logger *zap.Logger) Store {
	s, err := Open(ctx, cfg, logger)
	if err != nil {
		logging.OrNop(logger).Error("database unavailable, persistence disabled", zap.Error(err))
		return Disabled{}
	}
	return s
}

// OpenSQL opens a store for an explicit driver and DSN
func OpenSQL(ctx context.Context, driver, dsn string, poolSize int, logger *zap.Logger) (*SQLStore, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported database driver: %s (supported: postgres, sqlite)", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if poolSize <= 0 {
		poolSize = 5
	}
	db.SetMaxOpenConns(poolSize)
	db.SetMaxIdleConns(poolSize)
	if driver == DriverSQLite {
		// SQLite serializes writers; one connection avoids SQLITE_BUSY
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	return &SQLStore{
		db:     db,
		driver: driver,
		logger: logging.OrNop(logger),
		now:    time.Now,
	}, nil
}

func buildDSN(driver string, cfg model.DatabaseConfig) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}

	if driver == DriverSQLite {
		path := cfg.Name
		if path == "" {
			path = defaultSQLitePath
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return "", fmt.Errorf("create database directory: %w", err)
			}
		}
		return path, nil
	}

	parts := []string{
		"host=" + cfg.Host,
		"port=" + strconv.Itoa(cfg.Port),
		"dbname=" + cfg.Name,
		"user=" + cfg.User,
	}
	if cfg.Password != "" {
		parts = append(parts, "password="+cfg.Password)
	}
	if cfg.SSLMode != "" {
		parts = append(parts, "sslmode="+cfg.SSLMode)
	}
	return strings.Join(parts, " "), nil
}

// Migrate creates the tables if they do not exist
func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Close releases the connection pool
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders to $n for Postgres
func (s *SQLStore) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) timestamp() string {
	return s.now().UTC().Format(timeLayout)
}

// InsertArticle stores one article
func (s *SQLStore) InsertArticle(ctx context.Context, a model.Article) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO news_articles
		(article_id, title, description, content, source, published_date,
		 url, category, authors, image_url, search_query, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		a.ArticleID, a.Title, a.Description, a.FullContent, a.Source, a.PubDate,
		a.URL, a.Category.String(), a.Authors.String(), a.ImageURL, a.SearchQuery,
		s.timestamp())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert %s: %w", a.ArticleID, ErrConflict)
		}
		return fmt.Errorf("insert %s: %w", a.ArticleID, err)
	}
	return nil
}

// InsertArticles inserts each article on its own. A failed row is counted
// and the rest still go in.
func (s *SQLStore) InsertArticles(ctx context.Context, articles []model.Article) (int, int) {
	success, failed := 0, 0
	for _, a := range articles {
		if err := s.InsertArticle(ctx, a); err != nil {
			failed++
			if !errors.Is(err, ErrConflict) {
				s.logger.Warn("article insert failed", zap.String("article_id", a.ArticleID), zap.Error(err))
			}
			continue
		}
		success++
	}
	s.logger.Info("batch insert", zap.Int("success", success), zap.Int("failed", failed))
	return success, failed
}

// InsertSentiment upserts a result. A second score from the same model
// replaces the first.
func (s *SQLStore) InsertSentiment(ctx context.Context, r model.SentimentResult) bool {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO sentiment_analysis
		(article_id, model_name, sentiment, confidence,
		 positive_score, negative_score, neutral_score,
		 explanation, processing_time_ms, analyzed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (article_id, model_name) DO UPDATE SET
		sentiment = excluded.sentiment,
		confidence = excluded.confidence,
		positive_score = excluded.positive_score,
		negative_score = excluded.negative_score,
		neutral_score = excluded.neutral_score,
		explanation = excluded.explanation,
		processing_time_ms = excluded.processing_time_ms,
		analyzed_at = excluded.analyzed_at`),
		r.ArticleID, r.ModelName, string(r.Label), r.Confidence,
		r.Scores.Positive, r.Scores.Negative, r.Scores.Neutral,
		r.Explanation, r.ProcessingTimeMS(), s.timestamp())
	if err != nil {
		s.logger.Error("insert sentiment failed",
			zap.String("article_id", r.ArticleID),
			zap.String("model", r.ModelName),
			zap.Error(err))
		return false
	}
	return true
}

const articleColumns = `article_id, title, description, content, source, published_date,
	url, category, authors, image_url, search_query`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (*model.Article, error) {
	var a model.Article
	var desc, content, source, pub, url, cat, auth, img, sq sql.NullString
	if err := row.Scan(&a.ArticleID, &a.Title, &desc, &content, &source, &pub,
		&url, &cat, &auth, &img, &sq); err != nil {
		return nil, err
	}
	a.Description = desc.String
	a.FullContent = content.String
	a.Source = source.String
	a.PubDate = pub.String
	a.URL = url.String
	a.Category = model.StringList(splitList(cat.String))
	a.Authors = model.Authors(splitList(auth.String))
	a.ImageURL = img.String
	a.SearchQuery = sq.String
	return &a, nil
}

// GetArticle loads one article by ID
func (s *SQLStore) GetArticle(ctx context.Context, id string) (*model.Article, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+articleColumns+` FROM news_articles WHERE article_id = ?`), id)
	a, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get article %s: %w", id, err)
	}
	return a, nil
}

// ListArticles returns the most recently stored articles
func (s *SQLStore) ListArticles(ctx context.Context, limit int) ([]model.Article, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT `+articleColumns+`
		FROM news_articles ORDER BY created_at DESC, article_id LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	articles := []model.Article{}
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		articles = append(articles, *a)
	}
	return articles, rows.Err()
}

// ListSentiment returns every stored result for an article, one per model
func (s *SQLStore) ListSentiment(ctx context.Context, articleID string) ([]model.SentimentResult, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT article_id, model_name, sentiment, confidence,
		       positive_score, negative_score, neutral_score,
		       explanation, processing_time_ms
		FROM sentiment_analysis WHERE article_id = ? ORDER BY model_name`), articleID)
	if err != nil {
		return nil, fmt.Errorf("list sentiment: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := []model.SentimentResult{}
	for rows.Next() {
		var (
			r           model.SentimentResult
			label       string
			explanation sql.NullString
			ms          sql.NullFloat64
		)
		if err := rows.Scan(&r.ArticleID, &r.ModelName, &label, &r.Confidence,
			&r.Scores.Positive, &r.Scores.Negative, &r.Scores.Neutral,
			&explanation, &ms); err != nil {
			return nil, fmt.Errorf("scan sentiment: %w", err)
		}
		r.Label = model.Label(label)
		r.Explanation = explanation.String
		r.ProcessingTime = time.Duration(ms.Float64 * float64(time.Millisecond))
		results = append(results, r)
	}
	return results, rows.Err()
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// sqliteCoder matches modernc.org/sqlite's *Error
type sqliteCoder interface {
	Code() int
}

const (
	sqliteConstraintPrimaryKey = 1555
	sqliteConstraintUnique     = 2067
)

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	var coder sqliteCoder
	if errors.As(err, &coder) {
		switch coder.Code() {
		case sqliteConstraintPrimaryKey, sqliteConstraintUnique:
			return true
		}
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
