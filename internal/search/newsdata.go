package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/finsent/internal/logging"
	"github.com/ppiankov/finsent/internal/model"
)

const defaultNewsDataURL = "https://newsdata.io/api/1"

// NewsDataClient searches the newsdata.io "latest" endpoint
type NewsDataClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewNewsDataClient creates a client. A missing API key is a configuration
// error and is reported here rather than on every search.
func NewNewsDataClient(cfg model.SearchConfig, logger *zap.Logger) (*NewsDataClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultNewsDataURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	return &NewsDataClient{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.OrNop(logger),
	}, nil
}

// Name returns the backend name
func (c *NewsDataClient) Name() string {
	return "newsdata"
}

type newsDataResponse struct {
	Status       string          `json:"status"`
	TotalResults int             `json:"totalResults"`
	Results      json.RawMessage `json:"results"`
}

type newsDataError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Search runs one query against the API
func (c *NewsDataClient) Search(ctx context.Context, req Request) Outcome {
	req = req.Normalize()

	candidates, err := c.search(ctx, req)
	if err != nil {
		c.logger.Warn("news search unavailable",
			zap.String("query", req.Query),
			zap.String("country", req.Country),
			zap.Error(err))
		return unavailable(err)
	}

	c.logger.Debug("news search complete",
		zap.String("query", req.Query),
		zap.Int("results", len(candidates)))

	return found(candidates, req.Limit)
}

func (c *NewsDataClient) search(ctx context.Context, req Request) ([]model.Candidate, error) {
	params := url.Values{}
	params.Set("apikey", c.apiKey)
	params.Set("q", req.Query)
	params.Set("country", req.Country)
	params.Set("category", req.Category)
	params.Set("size", strconv.Itoa(req.Limit))
	params.Set("language", req.Language)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/latest?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var parsed newsDataResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("newsdata returned status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || parsed.Status == "error" {
		var apiErr newsDataError
		_ = json.Unmarshal(parsed.Results, &apiErr)
		if apiErr.Message != "" {
			return nil, fmt.Errorf("newsdata returned status %d: %s", resp.StatusCode, apiErr.Message)
		}
		return nil, fmt.Errorf("newsdata returned status %d", resp.StatusCode)
	}

	// An absent results field means no results
	if len(parsed.Results) == 0 || string(parsed.Results) == "null" {
		return nil, nil
	}

	var candidates []model.Candidate
	if err := json.Unmarshal(parsed.Results, &candidates); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}

	return candidates, nil
}
