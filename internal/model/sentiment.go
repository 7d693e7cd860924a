package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Label is the primary sentiment class
type Label string

const (
	LabelPositive Label = "positive"
	LabelNegative Label = "negative"
	LabelNeutral  Label = "neutral"
)

// Labels is the classification head order. Score vectors are indexed by it.
var Labels = []Label{LabelPositive, LabelNegative, LabelNeutral}

// ParseLabel maps a model label onto the closed set, ignoring case
func ParseLabel(s string) (Label, error) {
	switch l := Label(strings.ToLower(strings.TrimSpace(s))); l {
	case LabelPositive, LabelNegative, LabelNeutral:
		return l, nil
	}
	return "", fmt.Errorf("unknown sentiment label: %q", s)
}

// Scores is the per-class probability distribution
type Scores struct {
	Positive float64 `json:"positive_score"`
	Negative float64 `json:"negative_score"`
	Neutral  float64 `json:"neutral_score"`
}

// ScoresFromSlice builds Scores from a vector in Labels order
func ScoresFromSlice(v []float64) Scores {
	var s Scores
	if len(v) > 0 {
		s.Positive = v[0]
	}
	if len(v) > 1 {
		s.Negative = v[1]
	}
	if len(v) > 2 {
		s.Neutral = v[2]
	}
	return s
}

// Slice returns the scores in Labels order
func (s Scores) Slice() []float64 {
	return []float64{s.Positive, s.Negative, s.Neutral}
}

// Get returns the score for one label
func (s Scores) Get(l Label) float64 {
	switch l {
	case LabelPositive:
		return s.Positive
	case LabelNegative:
		return s.Negative
	default:
		return s.Neutral
	}
}

// SentimentResult is the scored record for one article. It refers to the
// article only by ID.
type SentimentResult struct {
	ArticleID      string        `json:"article_id"`
	ModelName      string        `json:"model_name"`
	Label          Label         `json:"sentiment"`
	Confidence     float64       `json:"confidence"`
	Scores         Scores        `json:"-"`
	Explanation    string        `json:"explanation,omitempty"`
	ProcessingTime time.Duration `json:"-"`
}

// ProcessingTimeMS returns the processing latency in milliseconds
func (r SentimentResult) ProcessingTimeMS() float64 {
	return float64(r.ProcessingTime) / float64(time.Millisecond)
}

type sentimentRecord struct {
	ArticleID        string  `json:"article_id"`
	ModelName        string  `json:"model_name"`
	Sentiment        Label   `json:"sentiment"`
	Confidence       float64 `json:"confidence"`
	PositiveScore    float64 `json:"positive_score"`
	NegativeScore    float64 `json:"negative_score"`
	NeutralScore     float64 `json:"neutral_score"`
	Explanation      string  `json:"explanation,omitempty"`
	ProcessingTimeMS float64 `json:"processing_time_ms"`
}

// MarshalJSON flattens the scores into the output record shape
func (r SentimentResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(sentimentRecord{
		ArticleID:        r.ArticleID,
		ModelName:        r.ModelName,
		Sentiment:        r.Label,
		Confidence:       r.Confidence,
		PositiveScore:    r.Scores.Positive,
		NegativeScore:    r.Scores.Negative,
		NeutralScore:     r.Scores.Neutral,
		Explanation:      r.Explanation,
		ProcessingTimeMS: r.ProcessingTimeMS(),
	})
}

// UnmarshalJSON reads the flattened output record
func (r *SentimentResult) UnmarshalJSON(data []byte) error {
	var rec sentimentRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	*r = SentimentResult{
		ArticleID:  rec.ArticleID,
		ModelName:  rec.ModelName,
		Label:      rec.Sentiment,
		Confidence: rec.Confidence,
		Scores: Scores{
			Positive: rec.PositiveScore,
			Negative: rec.NegativeScore,
			Neutral:  rec.NeutralScore,
		},
		Explanation:    rec.Explanation,
		ProcessingTime: time.Duration(rec.ProcessingTimeMS * float64(time.Millisecond)),
	}
	return nil
}
