package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/finsent/internal/model"
	"github.com/ppiankov/finsent/internal/pipeline"
)

var (
	scoreText    string
	scoreFromDB  bool
	scoreDBLimit int
	scoreJSONOut bool
)

// scoreCmd classifies saved articles or a single text
var scoreCmd = &cobra.Command{
	Use:   "score [articles.json]",
	Short: "Score sentiment of saved articles or a piece of text",
	Long: `Classify articles with the configured sentiment model and store the
results.

Articles come from, in order of preference:
  --text        a single piece of text (nothing is stored)
  a file        a JSON array of articles, e.g. news_articles.json
  --from-db     the most recently stored articles
  otherwise     the last saved article artifact

Examples:
  finsent score --text "Sensex surges 800 points on strong FII inflows"
  finsent score artifacts/data_ingestion/news_articles.json
  finsent score --from-db --limit 100`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		defer s.close()

		p, err := s.pipeline()
		if err != nil {
			return err
		}
		defer p.Close()

		if scoreText != "" {
			return scoreSingle(s, p)
		}

		articles, err := articlesToScore(s, p, args)
		if err != nil {
			return err
		}
		if len(articles) == 0 {
			fmt.Fprintf(os.Stderr, "No articles to score\n")
			return nil
		}

		fmt.Fprintf(os.Stderr, "Scoring %d articles with %s...\n\n", len(articles), s.cfg.Sentiment.ModelName)

		res, err := p.ScoreArticles(s.ctx, articles)
		if err != nil {
			return err
		}

		if scoreJSONOut {
			return printJSON(res)
		}

		for _, r := range res.Results {
			fmt.Fprintf(os.Stderr, "  ✓ %-8s %.3f  %s\n", r.Label, r.Confidence, r.ArticleID)
		}
		for _, f := range res.Failures {
			fmt.Fprintf(os.Stderr, "  ✗ %s: %s\n", f.ArticleID, f.Message)
		}
		fmt.Fprintf(os.Stderr, "\nScored %d, stored %d, failed %d\n", len(res.Results), res.Stored, len(res.Failures))
		return nil
	},
}

func scoreSingle(s *session, p *pipeline.Pipeline) error {
	r, err := p.Analyzer().Score(s.ctx, "text", scoreText)
	if err != nil {
		return err
	}
	if scoreJSONOut {
		return printJSON(r)
	}

	fmt.Printf("Label:      %s\n", r.Label)
	fmt.Printf("Confidence: %.4f\n", r.Confidence)
	fmt.Printf("Scores:     positive=%.4f negative=%.4f neutral=%.4f\n",
		r.Scores.Positive, r.Scores.Negative, r.Scores.Neutral)
	fmt.Printf("Model:      %s (%s)\n", r.ModelName, r.ProcessingTime)
	if r.Explanation != "" {
		fmt.Printf("\n%s\n", r.Explanation)
	}
	return nil
}

func articlesToScore(s *session, p *pipeline.Pipeline, args []string) ([]model.Article, error) {
	switch {
	case len(args) == 1:
		return readArticles(args[0])
	case scoreFromDB:
		return p.Store().ListArticles(s.ctx, scoreDBLimit)
	default:
		articles, err := p.LoadArticles(s.ctx)
		if err != nil {
			return nil, fmt.Errorf("load saved articles (run \"finsent ingest\" first): %w", err)
		}
		return articles, nil
	}
}

// readArticles loads a JSON array of articles from path
func readArticles(path string) ([]model.Article, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var articles []model.Article
	if err := json.Unmarshal(data, &articles); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for i, a := range articles {
		if a.ArticleID == "" {
			return nil, fmt.Errorf("%s: article %d has no article_id", path, i)
		}
	}
	return articles, nil
}

func init() {
	scoreCmd.Flags().StringVarP(&scoreText, "text", "t", "", "score a single piece of text")
	scoreCmd.Flags().BoolVar(&scoreFromDB, "from-db", false, "score the most recently stored articles")
	scoreCmd.Flags().IntVar(&scoreDBLimit, "limit", 50, "number of stored articles for --from-db")
	scoreCmd.Flags().BoolVar(&scoreJSONOut, "json", false, "print results as JSON")

	rootCmd.AddCommand(scoreCmd)
}
