// Probe program for article extraction on live pages. Prints the title,
// authors and the start of the recovered text for each URL argument, so
// extraction rules can be checked against a news site quickly.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/finsent/internal/cache"
	"github.com/ppiankov/finsent/internal/model"
	"github.com/ppiankov/finsent/internal/scrape"
)

func main() {
	renderer := flag.String("renderer", "http", "page loader: http, browser")
	preview := flag.Int("preview", 600, "characters of text to print")
	flag.Parse()

	urls := flag.Args()
	if len(urls) == 0 {
		fmt.Fprintln(os.Stderr, "usage: scrape-probe [-renderer browser] URL...")
		os.Exit(2)
	}

	cfg := model.DefaultConfig()
	cfg.HTTP.Renderer = *renderer

	scraper, err := scrape.FromConfig(cfg, cache.Nop{}, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer scraper.Close()

	fmt.Println("=== Article Extraction Probe ===")
	fmt.Println()

	failed := 0
	for _, u := range urls {
		fmt.Printf("Probing: %s\n", u)
		fmt.Println(strings.Repeat("-", 60))

		ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
		start := time.Now()
		content, err := scraper.Scrape(ctx, u)
		cancel()

		if err != nil {
			failed++
			fmt.Printf("  ✗ %v\n\n", err)
			continue
		}

		fmt.Printf("  ✓ Extracted in %s\n", time.Since(start).Round(time.Millisecond))
		if content.FinalURL != "" && content.FinalURL != u {
			fmt.Printf("    Final URL: %s\n", content.FinalURL)
		}
		fmt.Printf("    Title:   %s\n", content.Title)
		fmt.Printf("    Authors: %s\n", strings.Join(content.Authors, ", "))
		fmt.Printf("    Words:   %d\n", len(strings.Fields(content.Text)))

		text := []rune(content.Text)
		if len(text) > *preview {
			text = append(text[:*preview], []rune("...")...)
		}
		fmt.Printf("\n%s\n\n", string(text))
	}

	fmt.Printf("=== %d of %d pages extracted ===\n", len(urls)-failed, len(urls))
	if failed > 0 {
		os.Exit(1)
	}
}
