package search

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"github.com/ppiankov/finsent/internal/logging"
	"github.com/ppiankov/finsent/internal/model"
)

// FeedSearcher searches a fixed set of RSS/Atom feeds by matching terms
// against item titles and descriptions
type FeedSearcher struct {
	feeds  []string
	parser *gofeed.Parser
	logger *zap.Logger
}

// NewFeedSearcher creates a searcher over the given feed URLs
func NewFeedSearcher(feeds []string, userAgent string, logger *zap.Logger) (*FeedSearcher, error) {
	if len(feeds) == 0 {
		return nil, errors.New("no feeds configured")
	}

	parser := gofeed.NewParser()
	if userAgent != "" {
		parser.UserAgent = userAgent
	}

	return &FeedSearcher{
		feeds:  feeds,
		parser: parser,
		logger: logging.OrNop(logger),
	}, nil
}

// Name returns the backend name
func (s *FeedSearcher) Name() string {
	return "rss"
}

// Search reads every feed and keeps items mentioning any term. Failing
// feeds are skipped; the search is unavailable only when all of them fail.
func (s *FeedSearcher) Search(ctx context.Context, req Request) Outcome {
	req = req.Normalize()

	var (
		candidates []model.Candidate
		errs       []error
	)

	for _, feedURL := range s.feeds {
		if err := ctx.Err(); err != nil {
			return unavailable(err)
		}

		feed, err := s.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			s.logger.Warn("feed unavailable", zap.String("feed", feedURL), zap.Error(err))
			errs = append(errs, fmt.Errorf("parse feed %s: %w", feedURL, err))
			continue
		}

		for _, item := range feed.Items {
			c := candidateFromItem(feed, item)
			if matchesAny(c.Title+" "+c.Description, req.Terms) {
				candidates = append(candidates, c)
			}
		}
	}

	if len(errs) == len(s.feeds) {
		return unavailable(errors.Join(errs...))
	}

	return found(candidates, req.Limit)
}

func candidateFromItem(feed *gofeed.Feed, item *gofeed.Item) model.Candidate {
	c := model.Candidate{
		ArticleID:   feedArticleID(item),
		Title:       strings.TrimSpace(item.Title),
		Description: cleanHTML(item.Description),
		SourceName:  feed.Title,
		Link:        strings.TrimSpace(item.Link),
		PubDate:     item.Published,
		Category:    model.StringList(item.Categories),
	}
	if item.PublishedParsed != nil {
		c.PubDate = item.PublishedParsed.UTC().Format("2006-01-02 15:04:05")
	}
	if item.Image != nil {
		c.ImageURL = item.Image.URL
	}
	return c
}

// feedArticleID derives a stable id from the item's link or GUID
func feedArticleID(item *gofeed.Item) string {
	key := item.Link
	if key == "" {
		key = item.GUID
	}
	if key == "" {
		key = item.Title
	}
	sum := sha1.Sum([]byte(key))
	return hex.EncodeToString(sum[:16])
}

// cleanHTML strips markup from a feed description
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// matchesAny reports whether text mentions any term, ignoring case. No
// terms matches everything.
func matchesAny(text string, terms []string) bool {
	if len(terms) == 0 {
		return true
	}
	lower := strings.ToLower(text)
	for _, t := range terms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" && strings.Contains(lower, t) {
			return true
		}
	}
	return false
}
