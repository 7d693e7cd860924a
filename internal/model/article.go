package model

import (
	"encoding/json"
	"strings"
)

// Candidate is the raw metadata of one search result, before enrichment
type Candidate struct {
	ArticleID   string     `json:"article_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	SourceName  string     `json:"source_name"`
	Link        string     `json:"link"`
	PubDate     string     `json:"pubDate"` // Source-defined format, kept verbatim
	Category    StringList `json:"category"`
	ImageURL    string     `json:"image_url"`
}

// TaggedCandidate carries the query term that produced a candidate
type TaggedCandidate struct {
	Candidate
	SearchQuery string
}

// Content is what the scraper recovers from an article page
type Content struct {
	Text     string   `json:"text"`
	Authors  []string `json:"authors"`
	Title    string   `json:"title,omitempty"`
	FinalURL string   `json:"final_url,omitempty"`
}

// Article is the canonical enriched record
type Article struct {
	ArticleID   string     `json:"article_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Source      string     `json:"source"`
	URL         string     `json:"url"`
	PubDate     string     `json:"pubDate"`
	Category    StringList `json:"category"`
	FullContent string     `json:"full_content"`
	Authors     Authors    `json:"authors"`
	ImageURL    string     `json:"image_url"`
	SearchQuery string     `json:"search_query,omitempty"`
}

// NewArticle merges search metadata with scraped content
func NewArticle(c TaggedCandidate, content Content) Article {
	return Article{
		ArticleID:   c.ArticleID,
		Title:       c.Title,
		Description: c.Description,
		Source:      c.SourceName,
		URL:         c.Link,
		PubDate:     c.PubDate,
		Category:    append(StringList(nil), c.Category...),
		FullContent: content.Text,
		Authors:     append(Authors(nil), content.Authors...),
		ImageURL:    c.ImageURL,
		SearchQuery: c.SearchQuery,
	}
}

// StringList decodes from either a JSON string or a JSON array of strings.
// The news API is inconsistent about this for category.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler
func (l *StringList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*l = nil
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*l = nil
		} else {
			*l = StringList{single}
		}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = many
	return nil
}

// String joins the list with ", "
func (l StringList) String() string {
	return strings.Join(l, ", ")
}

// Authors is an ordered author list serialized as a comma-joined string
type Authors []string

// MarshalJSON implements json.Marshaler
func (a Authors) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts the comma-joined form as well as an array
func (a *Authors) UnmarshalJSON(data []byte) error {
	var list StringList
	if err := list.UnmarshalJSON(data); err != nil {
		return err
	}

	var out Authors
	for _, entry := range list {
		for _, name := range strings.Split(entry, ",") {
			if name = strings.TrimSpace(name); name != "" {
				out = append(out, name)
			}
		}
	}
	*a = out
	return nil
}

// String joins the authors with ", "
func (a Authors) String() string {
	return strings.Join(a, ", ")
}
