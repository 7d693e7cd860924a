package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/finsent/internal/model"
	"github.com/ppiankov/finsent/internal/pipeline"
	"github.com/ppiankov/finsent/internal/query"
	"github.com/ppiankov/finsent/internal/search"
)

var (
	ingestQuery    string
	ingestPreset   string
	ingestCountry  string
	ingestCategory string
	ingestLanguage string
	ingestLimit    int
	ingestFanOut   bool
	ingestTimeout  time.Duration
	ingestJSON     bool
)

// ingestCmd searches and scrapes, then stores and queues the articles
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Search for financial news and scrape full article text",
	Long: `Search the news API for the given terms, scrape every result and store
the enriched articles. Stored articles are queued for background scoring
when the queue is enabled.

Terms are comma-separated and combined into one OR query:
  finsent ingest --query "Nifty 50, Sensex" --country in --limit 5

Use --fan-out to run one search per term instead, or --preset for a
named set of terms (see "finsent presets").`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(false)
	},
}

// runCmd is ingest plus inline scoring
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Ingest news and score sentiment in one pass",
	Long: `Run the complete pipeline: search, scrape, store, then classify every
article with the sentiment model and store the scores.

Example:
  finsent run --query "RBI monetary policy, inflation" --limit 10`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(true)
	},
}

func addIngestFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&ingestQuery, "query", "q", "", "comma-separated search terms (default: ingestion.queries)")
	cmd.Flags().StringVar(&ingestPreset, "preset", "", "use a named preset of terms")
	cmd.Flags().StringVar(&ingestCountry, "country", "", "country code: "+strings.Join(search.SupportedCountries, ", "))
	cmd.Flags().StringVar(&ingestCategory, "category", "", "news category (default: business)")
	cmd.Flags().StringVar(&ingestLanguage, "language", "", "article language (default: en)")
	cmd.Flags().IntVarP(&ingestLimit, "limit", "n", 0, "maximum results per search")
	cmd.Flags().BoolVar(&ingestFanOut, "fan-out", false, "one search per term instead of a combined query")
	cmd.Flags().DurationVar(&ingestTimeout, "timeout", 10*time.Minute, "overall run timeout")
	cmd.Flags().BoolVar(&ingestJSON, "json", false, "print the run result as JSON")
}

// ingestRequest turns flags into a request; presets win over --query
func ingestRequest() (pipeline.IngestRequest, error) {
	terms := query.Split(ingestQuery)
	if ingestPreset != "" {
		preset, ok := query.Preset(ingestPreset)
		if !ok {
			return pipeline.IngestRequest{}, fmt.Errorf("unknown preset %q (available: %s)",
				ingestPreset, strings.Join(query.PresetNames(), ", "))
		}
		terms = preset
	}

	return pipeline.IngestRequest{
		Terms:    terms,
		Country:  ingestCountry,
		Category: ingestCategory,
		Language: ingestLanguage,
		Limit:    ingestLimit,
		FanOut:   ingestFanOut,
	}, nil
}

func runPipeline(score bool) error {
	req, err := ingestRequest()
	if err != nil {
		return err
	}

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

	ctx := s.ctx
	if ingestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ingestTimeout)
		defer cancel()
	}

	if !ingestJSON {
		fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════\n")
		fmt.Fprintf(os.Stderr, "finsent v%s - Financial News Sentiment\n", Version)
		fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════\n\n")
	}

	res, err := p.Run(ctx, pipeline.RunRequest{IngestRequest: req, Score: score})
	if err != nil {
		return err
	}

	if ingestJSON {
		return printJSON(res)
	}
	printRunSummary(res)
	return nil
}

func printRunSummary(res *pipeline.RunResult) {
	fmt.Fprintf(os.Stderr, "Query: %s\n\n", res.Query.Expression)

	for _, sr := range res.Searches {
		mark := "✓"
		if sr.Status == model.SearchUnavailable {
			mark = "✗"
		}
		fmt.Fprintf(os.Stderr, "  %s %-40s %-12s %d candidates\n", mark, sr.Query, sr.Status, sr.Candidates)
		if sr.Error != "" {
			fmt.Fprintf(os.Stderr, "      %s\n", sr.Error)
		}
	}

	fmt.Fprintf(os.Stderr, "\n")
	for _, a := range res.Articles {
		fmt.Fprintf(os.Stderr, "  ✓ %s\n      %s\n", a.Title, a.URL)
	}
	for _, f := range res.Failures {
		target := f.URL
		if target == "" {
			target = f.Query
		}
		fmt.Fprintf(os.Stderr, "  ✗ [%s] %s: %s\n", f.Kind, target, f.Message)
	}

	if len(res.Sentiment) > 0 {
		fmt.Fprintf(os.Stderr, "\nSentiment:\n")
		for _, r := range res.Sentiment {
			fmt.Fprintf(os.Stderr, "  %-8s %.3f  %s\n", r.Label, r.Confidence, r.ArticleID)
		}
	}

	fmt.Fprintf(os.Stderr, "\n═══════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "Run:      %s\n", res.RunID)
	fmt.Fprintf(os.Stderr, "Articles: %d\n", len(res.Articles))
	fmt.Fprintf(os.Stderr, "Stored:   %d (failed %d)\n", res.Stored, res.StoreFailed)
	if res.Queued > 0 {
		fmt.Fprintf(os.Stderr, "Queued:   %d\n", res.Queued)
	}
	fmt.Fprintf(os.Stderr, "Scored:   %d\n", len(res.Sentiment))
	fmt.Fprintf(os.Stderr, "Failures: %d\n", len(res.Failures))
	fmt.Fprintf(os.Stderr, "Duration: %s\n", res.Duration.Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════\n")
}

// presetsCmd lists the named term sets
var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List named query presets",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range query.PresetNames() {
			terms, _ := query.Preset(name)
			fmt.Printf("%-10s %s\n", name, strings.Join(terms, ", "))
		}
	},
}

func init() {
	addIngestFlags(ingestCmd)
	addIngestFlags(runCmd)

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(presetsCmd)
}
