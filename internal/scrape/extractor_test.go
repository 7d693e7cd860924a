package scrape

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

const articlePage = `<!DOCTYPE html>
<html>
<head>
  <title>Site | Banks lift Sensex</title>
  <meta property="og:title" content="Banks lift Sensex to record close">
  <meta name="author" content="By Priya Sharma and Rahul Mehta">
  <script type="application/ld+json">
  {"@context":"https://schema.org","@type":"NewsArticle","author":[{"@type":"Person","name":"Priya Sharma"},{"@type":"Person","name":"Anita Rao"}]}
  </script>
  <style>p { color: red }</style>
</head>
<body>
  <header><nav><a href="/">Home</a> <a href="/markets">Markets</a></nav></header>
  <div class="ad-slot"><p>Buy the best credit card offers today, limited time only!</p></div>
  <article class="story-body">
    <h1>Banks lift Sensex to record close</h1>
    <p>The Sensex rose 1.2 percent on Tuesday as banking stocks extended their rally.</p>
    <p>HDFC Bank and ICICI Bank were the top gainers, adding more than two percent each.</p>
    <div class="share-tools"><p>Share this story on your favourite social network now.</p></div>
    <p>Analysts expect the momentum to continue into the quarterly results season.</p>
    <script>trackPageview("this should never appear in text output")</script>
  </article>
  <aside class="related-stories"><p>Related: Nifty 50 outlook for the coming week and beyond.</p></aside>
  <footer><p>Copyright 2024 Example Media Private Limited. All rights reserved.</p></footer>
</body>
</html>`

func TestExtract_MainText(t *testing.T) {
	content, err := NewExtractor().Extract(articlePage, "https://example.com/story")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	want := strings.Join([]string{
		"The Sensex rose 1.2 percent on Tuesday as banking stocks extended their rally.",
		"HDFC Bank and ICICI Bank were the top gainers, adding more than two percent each.",
		"Analysts expect the momentum to continue into the quarterly results season.",
	}, "\n\n")
	if content.Text != want {
		t.Errorf("Text =\n%q\nwant\n%q", content.Text, want)
	}

	for _, noise := range []string{"credit card", "Share this", "Related", "Copyright", "trackPageview", "Home"} {
		if strings.Contains(content.Text, noise) {
			t.Errorf("text contains boilerplate %q", noise)
		}
	}

	if content.Title != "Banks lift Sensex to record close" {
		t.Errorf("Title = %q", content.Title)
	}
	if content.FinalURL != "https://example.com/story" {
		t.Errorf("FinalURL = %q", content.FinalURL)
	}
}

func TestExtract_Authors(t *testing.T) {
	content, err := NewExtractor().Extract(articlePage, "")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Priya Sharma", "Anita Rao", "Rahul Mehta"}
	if !reflect.DeepEqual(content.Authors, want) {
		t.Errorf("Authors = %v, want %v", content.Authors, want)
	}
}

func TestExtract_EmptyTextIsNotAnError(t *testing.T) {
	content, err := NewExtractor().Extract(`<html><body><nav>menu</nav></body></html>`, "")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if content.Text != "" {
		t.Errorf("Text = %q, want empty", content.Text)
	}
	if content.Authors == nil || len(content.Authors) != 0 {
		t.Errorf("Authors = %#v, want empty list", content.Authors)
	}
}

func TestExtract_EmptyDocument(t *testing.T) {
	if _, err := NewExtractor().Extract("   ", ""); !errors.Is(err, ErrEmptyDocument) {
		t.Errorf("err = %v, want ErrEmptyDocument", err)
	}
}

func TestExtract_FallbackWithoutParagraphs(t *testing.T) {
	page := `<html><body><div itemprop="articleBody">Markets were flat.<br>Volumes were thin.</div></body></html>`
	content, err := NewExtractor().Extract(page, "")
	if err != nil {
		t.Fatal(err)
	}
	if content.Text != "Markets were flat. Volumes were thin." {
		t.Errorf("Text = %q", content.Text)
	}
}

func TestExtract_PrefersDensestContainer(t *testing.T) {
	page := `<html><body>
	<div class="teaser"><p>Short teaser paragraph about something else entirely.</p></div>
	<div class="content">
	  <p>First long paragraph of the real story about the rupee and bond yields.</p>
	  <p>Second long paragraph of the real story with more detail on the RBI stance.</p>
	</div>
	</body></html>`
	content, err := NewExtractor().Extract(page, "")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(content.Text, "teaser") {
		t.Errorf("picked the teaser: %q", content.Text)
	}
	if !strings.HasPrefix(content.Text, "First long paragraph") {
		t.Errorf("Text = %q", content.Text)
	}
}

func TestCleanAuthors(t *testing.T) {
	tests := []struct {
		name string
		raw  []string
		want []string
	}{
		{"by prefix", []string{"By Jane Doe"}, []string{"Jane Doe"}},
		{"joint byline", []string{"Jane Doe and John Roe"}, []string{"Jane Doe", "John Roe"}},
		{"comma list", []string{"A. Kumar, B. Singh, C. Das"}, []string{"A. Kumar", "B. Singh", "C. Das"}},
		{"urls dropped", []string{"https://www.facebook.com/janedoe", "Jane Doe"}, []string{"Jane Doe"}},
		{"long phrase dropped", []string{"Our correspondent reporting live from the trading floor in Mumbai"}, []string{}},
		{"dates dropped", []string{"Jane Doe | Updated: 12 May 2024"}, []string{"Jane Doe"}},
		{"dedup keeps order", []string{"Jane Doe", "JANE DOE", "John Roe"}, []string{"Jane Doe", "John Roe"}},
		{"empty", []string{"", "  "}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cleanAuthors(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("cleanAuthors(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestJSONLDAuthors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"object", `{"author":{"name":"Jane Doe"}}`, []string{"Jane Doe"}},
		{"string", `{"author":"Jane Doe"}`, []string{"Jane Doe"}},
		{"graph", `{"@graph":[{"@type":"WebPage"},{"@type":"NewsArticle","author":[{"name":"A"},{"name":"B"}]}]}`, []string{"A", "B"}},
		{"array root", `[{"author":{"name":"C"}}]`, []string{"C"}},
		{"invalid", `{not json`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := jsonLDAuthors(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("jsonLDAuthors = %v, want %v", got, tt.want)
			}
		})
	}
}
