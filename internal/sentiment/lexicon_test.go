package sentiment

import (
	"context"
	"testing"

	"github.com/ppiankov/finsent/internal/model"
)

func TestLexiconClassifier(t *testing.T) {
	scorer := NewScorer(NewLexiconClassifier(), 512, 1, nil)

	tests := []struct {
		text string
		want model.Label
	}{
		{"Sensex surges to record high as banks rally", model.LabelPositive},
		{"Shares plunge after fraud probe; analysts downgrade the stock", model.LabelNegative},
		{"The company will hold its annual meeting on Tuesday", model.LabelNeutral},
		{"", model.LabelNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			r, err := scorer.Score(context.Background(), "id", tt.text)
			if err != nil {
				t.Fatalf("Score failed: %v", err)
			}
			if r.Label != tt.want {
				t.Errorf("Label = %s (%+v), want %s", r.Label, r.Scores, tt.want)
			}
			if r.ModelName != LexiconModelName {
				t.Errorf("ModelName = %s", r.ModelName)
			}
			assertResultInvariants(t, r)
		})
	}
}

func TestLexiconClassifier_Negation(t *testing.T) {
	c := NewLexiconClassifier()

	logits, err := c.Logits(context.Background(), "Shares did not fall today")
	if err != nil {
		t.Fatal(err)
	}
	if logits[0] <= logits[1] {
		t.Errorf("Negated bearish word should lean positive, got %v", logits)
	}
}

func TestLexiconClassifier_Deterministic(t *testing.T) {
	c := NewLexiconClassifier()
	text := "Profit rises but slowdown concerns linger"

	a, _ := c.Logits(context.Background(), text)
	b, _ := c.Logits(context.Background(), text)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("Logits differ between calls: %v vs %v", a, b)
		}
	}
}

func TestLexiconClassifier_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewLexiconClassifier().Logits(ctx, "rally"); err == nil {
		t.Error("Expected context error")
	}
}

func TestNewClassifier(t *testing.T) {
	tests := []struct {
		name    string
		cfg     model.SentimentConfig
		want    string
		wantErr bool
	}{
		{"default", model.SentimentConfig{}, LexiconModelName, false},
		{"lexicon", model.SentimentConfig{Backend: "lexicon"}, LexiconModelName, false},
		{"huggingface", model.SentimentConfig{Backend: "huggingface", ModelName: "ProsusAI/finbert"}, "ProsusAI/finbert", false},
		{"hf without model", model.SentimentConfig{Backend: "hf"}, "", true},
		{"unknown", model.SentimentConfig{Backend: "onnx"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClassifier(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewClassifier() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && c.Name() != tt.want {
				t.Errorf("Name() = %s, want %s", c.Name(), tt.want)
			}
		})
	}
}
