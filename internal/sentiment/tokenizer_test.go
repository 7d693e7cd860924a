package sentiment

import (
	"math"
	"strings"
	"testing"
)

func TestTokenize(t *testing.T) {
	tokens := Tokenize("Nifty hit an ALL-TIME high, up 2.5%!")
	got := strings.Join(Words(tokens), " ")
	want := "nifty hit an all - time high , up 2 . 5 % !"
	if got != want {
		t.Errorf("Tokenize() = %q, want %q", got, want)
	}
}

func TestTokenize_StripsControlChars(t *testing.T) {
	tokens := Tokenize("profit\x00\x07 rises")
	got := strings.Join(Words(tokens), " ")
	if got != "profit rises" {
		t.Errorf("Tokenize() = %q, want %q", got, "profit rises")
	}
}

func TestTruncate(t *testing.T) {
	tokens := Tokenize(strings.Repeat("word ", 1000))

	got := Truncate(tokens, 512)
	if len(got) != 510 {
		t.Errorf("Expected 510 tokens (2 reserved), got %d", len(got))
	}

	short := Tokenize("three short words")
	if got := Truncate(short, 512); len(got) != 3 {
		t.Errorf("Short input should be untouched, got %d tokens", len(got))
	}
}

func TestTruncateText_KeepsOriginalPrefix(t *testing.T) {
	text := "Sensex Rallies. " + strings.Repeat("filler ", 100)

	got, n := TruncateText(text, 6)
	if n != 4 {
		t.Errorf("Expected 4 tokens kept, got %d", n)
	}
	if !strings.HasPrefix(got, "Sensex Rallies.") {
		t.Errorf("Truncated text should keep original casing, got %q", got)
	}
	if strings.Contains(got, "filler filler") {
		t.Errorf("Truncated text too long: %q", got)
	}
}

func TestSoftmax(t *testing.T) {
	tests := []struct {
		name   string
		logits []float64
	}{
		{"zeros", []float64{0, 0, 0}},
		{"mixed", []float64{2.5, -1, 0.3}},
		{"large", []float64{1000, 999, 998}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			probs := Softmax(tt.logits)
			sum := 0.0
			for _, p := range probs {
				if p < 0 || p > 1 || math.IsNaN(p) {
					t.Fatalf("probability out of range: %v", probs)
				}
				sum += p
			}
			if math.Abs(sum-1) > 1e-6 {
				t.Errorf("Expected sum 1, got %v", sum)
			}
		})
	}
}

func TestArgmax(t *testing.T) {
	if got := Argmax([]float64{0.2, 0.5, 0.3}); got != 1 {
		t.Errorf("Argmax = %d, want 1", got)
	}
	if got := Argmax([]float64{0.4, 0.4, 0.2}); got != 0 {
		t.Errorf("Ties should pick the first index, got %d", got)
	}
}
