package pipeline

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/finsent/internal/logging"
	"github.com/ppiankov/finsent/internal/model"
	"github.com/ppiankov/finsent/internal/worker"
)

// ContentScraper recovers article text and authors from a URL
type ContentScraper interface {
	Scrape(ctx context.Context, url string) (*model.Content, error)
}

// Assembler merges search metadata with scraped content
type Assembler struct {
	scraper ContentScraper
	workers int
	logger  *zap.Logger
}

// NewAssembler creates an assembler scraping with up to workers goroutines
func NewAssembler(scraper ContentScraper, workers int, logger *zap.Logger) *Assembler {
	if workers <= 0 {
		workers = 1
	}
	return &Assembler{scraper: scraper, workers: workers, logger: logging.OrNop(logger)}
}

// Assemble builds one article per candidate that has a link and scrapes
// successfully. Output order follows input order. Dropped candidates are
// reported as failures; nothing here returns an error.
func (a *Assembler) Assemble(ctx context.Context, candidates []model.TaggedCandidate) ([]model.Article, []model.Failure) {
	slots := make([]*model.Article, len(candidates))
	failures := make([]*model.Failure, len(candidates))

	worker.ForEach(ctx, a.workers, len(candidates), func(ctx context.Context, i int) error {
		c := candidates[i]

		link := strings.TrimSpace(c.Link)
		if link == "" {
			failures[i] = &model.Failure{
				Kind:      model.FailureMissingField,
				Query:     c.SearchQuery,
				ArticleID: c.ArticleID,
				Message:   "candidate has no link",
			}
			return nil
		}

		content, err := a.scraper.Scrape(ctx, link)
		if err != nil {
			a.logger.Warn("scrape failed, dropping article",
				zap.String("url", link),
				zap.String("query", c.SearchQuery),
				zap.Error(err))
			failures[i] = &model.Failure{
				Kind:      model.FailureScrape,
				Query:     c.SearchQuery,
				URL:       link,
				ArticleID: c.ArticleID,
				Message:   err.Error(),
			}
			return nil
		}

		c.Link = link
		article := model.NewArticle(c, *content)
		slots[i] = &article
		return nil
	})

	articles := make([]model.Article, 0, len(candidates))
	var dropped []model.Failure
	for i := range candidates {
		switch {
		case slots[i] != nil:
			articles = append(articles, *slots[i])
		case failures[i] != nil:
			dropped = append(dropped, *failures[i])
		default:
			// never ran: the context was cancelled first
			dropped = append(dropped, model.Failure{
				Kind:      model.FailureScrape,
				Query:     candidates[i].SearchQuery,
				URL:       candidates[i].Link,
				ArticleID: candidates[i].ArticleID,
				Message:   contextMessage(ctx),
			})
		}
	}

	a.logger.Info("assembled articles",
		zap.Int("candidates", len(candidates)),
		zap.Int("articles", len(articles)),
		zap.Int("dropped", len(dropped)))

	return articles, dropped
}

func contextMessage(ctx context.Context) string {
	if err := ctx.Err(); err != nil {
		return err.Error()
	}
	return "not attempted"
}
