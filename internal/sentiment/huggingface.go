package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/finsent/internal/model"
)

const defaultHFBaseURL = "https://api-inference.huggingface.co"

// minProbability keeps log() finite for labels the API scores as zero
const minProbability = 1e-12

// HuggingFaceClassifier calls a hosted text-classification model through
// the Inference API
type HuggingFaceClassifier struct {
	endpoint   string
	modelName  string
	token      string
	maxLength  int
	httpClient *http.Client
}

// NewHuggingFaceClassifier creates a classifier for modelName. maxLength is
// the model's token window; the API truncates inputs to it.
func NewHuggingFaceClassifier(baseURL, modelName, token string, maxLength int, timeout time.Duration) (*HuggingFaceClassifier, error) {
	if modelName == "" {
		return nil, errors.New("sentiment model name is required")
	}
	if baseURL == "" {
		baseURL = defaultHFBaseURL
	}
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	return &HuggingFaceClassifier{
		endpoint:   strings.TrimSuffix(baseURL, "/") + "/models/" + modelName,
		modelName:  modelName,
		token:      token,
		maxLength:  maxLength,
		httpClient: &http.Client{Timeout: orDefault(timeout, 30*time.Second)},
	}, nil
}

// Name returns the model name
func (c *HuggingFaceClassifier) Name() string {
	return c.modelName
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
	Options    hfOptions    `json:"options"`
}

// hfParameters makes the server cut inputs at the model's WordPiece window,
// which local word truncation alone cannot guarantee
type hfParameters struct {
	Truncation bool `json:"truncation"`
	MaxLength  int  `json:"max_length"`
}

type hfOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

type hfLabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type hfError struct {
	Error string `json:"error"`
}

// Logits returns log-probabilities so that a softmax over them gives back
// the model's own distribution
func (c *HuggingFaceClassifier) Logits(ctx context.Context, text string) ([]float64, error) {
	body, err := json.Marshal(hfRequest{
		Inputs:     text,
		Parameters: hfParameters{Truncation: true, MaxLength: c.maxLength},
		Options:    hfOptions{WaitForModel: true},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inference request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr hfError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("inference API error (%d): %s", resp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("inference API error (%d)", resp.StatusCode)
	}

	scores, err := parseHFScores(respBody)
	if err != nil {
		return nil, err
	}

	return labelLogits(scores)
}

// parseHFScores accepts both the nested [[...]] and flat [...] shapes
func parseHFScores(body []byte) ([]hfLabelScore, error) {
	var nested [][]hfLabelScore
	if err := json.Unmarshal(body, &nested); err == nil && len(nested) > 0 {
		return nested[0], nil
	}
	var flat []hfLabelScore
	if err := json.Unmarshal(body, &flat); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return flat, nil
}

func labelLogits(scores []hfLabelScore) ([]float64, error) {
	probs := make([]float64, len(model.Labels))
	seen := 0

	for _, s := range scores {
		label, err := model.ParseLabel(s.Label)
		if err != nil {
			return nil, fmt.Errorf("map model output: %w", err)
		}
		for i, l := range model.Labels {
			if l == label {
				probs[i] = s.Score
				seen++
			}
		}
	}
	if seen == 0 {
		return nil, errors.New("model returned no scores")
	}

	logits := make([]float64, len(probs))
	for i, p := range probs {
		logits[i] = math.Log(math.Max(p, minProbability))
	}
	return logits, nil
}
