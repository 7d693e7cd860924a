package sentiment

import (
	"context"
	"math"
	"strings"
)

// LexiconModelName identifies scores produced by the offline lexicon
const LexiconModelName = "finsent/lexicon-v1"

// Bullish and bearish phrase weights. A trailing * matches any word with
// that prefix.
var bullishPhrases = map[string]float64{
	"bullish": 0.7, "rall*": 0.6, "surg*": 0.7, "upbeat": 0.5, "soar*": 0.7,
	"gain*": 0.4, "growth": 0.4, "upgrad*": 0.6, "outperform*": 0.6,
	"buy": 0.4, "strong": 0.4, "strength*": 0.4, "recover*": 0.5, "breakout": 0.6,
	"record high": 0.7, "all - time high": 0.7, "beat*": 0.5, "jump*": 0.6,
	"exceed*": 0.5, "expansion": 0.4, "profit*": 0.3, "dividend*": 0.4,
	"accumulate": 0.5, "rise": 0.4, "rises": 0.4, "rising": 0.4, "rose": 0.4,
	"climb*": 0.5, "robust": 0.4, "optimis*": 0.5, "boost*": 0.5, "higher": 0.3,
	"inflow*": 0.4, "rate cut": 0.3,
}

var bearishPhrases = map[string]float64{
	"bearish": 0.7, "crash*": 0.8, "plung*": 0.7, "slump*": 0.6, "tumbl*": 0.6,
	"downgrad*": 0.6, "underperform*": 0.6, "sell": 0.4, "selloff": 0.7,
	"sell - off": 0.7, "weak*": 0.4, "declin*": 0.5, "loss": 0.4, "losses": 0.5,
	"fall": 0.4, "falls": 0.4, "fell": 0.4, "falling": 0.4, "correction": 0.5,
	"default*": 0.7, "fraud": 0.8, "scam": 0.8, "probe": 0.5, "investigation": 0.5,
	"miss": 0.5, "missed": 0.5, "warning": 0.5, "concern*": 0.3, "slowdown": 0.5,
	"drop*": 0.5, "lower": 0.3, "outflow*": 0.4, "inflation": 0.2, "recession": 0.7,
	"layoff*": 0.6, "bankrupt*": 0.8, "penalty": 0.5, "slid": 0.5, "slide*": 0.5,
}

// negators flip the polarity of the phrase that follows within two tokens
var negators = map[string]bool{"not": true, "no": true, "never": true, "without": true}

const (
	lexiconScale       = 3.0
	lexiconNeutralBias = 1.0
)

type phrase struct {
	words  []string
	prefix bool
	weight float64
}

// LexiconClassifier is an offline, deterministic financial sentiment
// classifier based on weighted bullish and bearish phrases
type LexiconClassifier struct {
	bullish []phrase
	bearish []phrase
}

// NewLexiconClassifier creates the classifier with the built-in lexicon
func NewLexiconClassifier() *LexiconClassifier {
	return &LexiconClassifier{
		bullish: compilePhrases(bullishPhrases),
		bearish: compilePhrases(bearishPhrases),
	}
}

func compilePhrases(m map[string]float64) []phrase {
	out := make([]phrase, 0, len(m))
	for text, weight := range m {
		p := phrase{weight: weight}
		if strings.HasSuffix(text, "*") {
			p.prefix = true
			text = strings.TrimSuffix(text, "*")
		}
		p.words = strings.Fields(text)
		out = append(out, p)
	}
	return out
}

// Name returns the model name recorded with each result
func (c *LexiconClassifier) Name() string {
	return LexiconModelName
}

// Logits scores text. With no matching phrases the neutral logit wins.
func (c *LexiconClassifier) Logits(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	words := Words(Tokenize(text))
	bull, bear := 0.0, 0.0

	for i := range words {
		negated := isNegated(words, i)
		for _, p := range c.bullish {
			if p.matchAt(words, i) {
				if negated {
					bear += p.weight
				} else {
					bull += p.weight
				}
			}
		}
		for _, p := range c.bearish {
			if p.matchAt(words, i) {
				if negated {
					bull += p.weight
				} else {
					bear += p.weight
				}
			}
		}
	}

	// tanh keeps long articles from producing unbounded logits
	return []float64{
		lexiconScale * math.Tanh(bull/2),
		lexiconScale * math.Tanh(bear/2),
		lexiconNeutralBias,
	}, nil
}

func (p phrase) matchAt(words []string, i int) bool {
	if i+len(p.words) > len(words) {
		return false
	}
	last := len(p.words) - 1
	for j, w := range p.words {
		got := words[i+j]
		if j == last && p.prefix {
			if !strings.HasPrefix(got, w) {
				return false
			}
			continue
		}
		if got != w {
			return false
		}
	}
	return true
}

func isNegated(words []string, i int) bool {
	for j := i - 1; j >= 0 && j >= i-2; j-- {
		if negators[words[j]] {
			return true
		}
	}
	return false
}
