package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

// SearchFailedFallback is injected into the prompt when search is
// unavailable, so classification still proceeds on model logic alone.
const SearchFailedFallback = "Search failed, rely on logic."

const snippetLimit = 300

// Client wraps the Tavily search API.
type Client struct {
	apiKey     string
	baseURL    string
	maxResults int
	httpClient *http.Client
	logger     *zap.Logger
}

// Config for Tavily client
type Config struct {
	APIKey     string
	BaseURL    string // Default: "https://api.tavily.com"
	MaxResults int    // Default: 3
	Timeout    time.Duration
}

type searchRequest struct {
	Query       string `json:"query"`
	SearchDepth string `json:"search_depth"`
	MaxResults  int    `json:"max_results"`
}

type searchResponse struct {
	Results []Result `json:"results"`
}

// Result is a single search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
	Snippet string `json:"snippet,omitempty"`
}

// NewClient creates a new Tavily client
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("tavily API key is required")
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.tavily.com"
	}

	if cfg.MaxResults == 0 {
		cfg.MaxResults = 3
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	logger.Info("Tavily client initialized",
		zap.String("base_url", cfg.BaseURL),
		zap.Int("max_results", cfg.MaxResults))

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		maxResults: cfg.MaxResults,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}, nil
}

// Search runs a basic-depth search and returns the raw results.
func (c *Client) Search(ctx context.Context, query string) ([]Result, error) {
	reqBody := searchRequest{
		Query:       query,
		SearchDepth: "basic",
		MaxResults:  c.maxResults,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily API error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily API returned status %d: %s", resp.StatusCode, string(body))
	}

	var searchResp searchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return searchResp.Results, nil
}

// FetchEvidence searches for the query and formats each hit into a
// "Source / Fact" block for the classification prompt. On any failure it
// returns SearchFailedFallback so the judge can still proceed.
func (c *Client) FetchEvidence(ctx context.Context, query string) string {
	results, err := c.Search(ctx, query)
	if err != nil {
		c.logger.Warn("Evidence search failed", zap.Error(err))
		return SearchFailedFallback
	}

	if len(results) == 0 {
		return SearchFailedFallback
	}

	return FormatEvidence(results)
}

// FormatEvidence renders search results as prompt-ready evidence blocks.
func FormatEvidence(results []Result) string {
	blocks := make([]string, 0, len(results))
	for _, r := range results {
		snippet := r.Snippet
		if snippet == "" {
			snippet = r.Content
		}
		if len(snippet) > snippetLimit && utf8.RuneCountInString(snippet) > snippetLimit {
			snippet = string([]rune(snippet)[:snippetLimit])
		}
		blocks = append(blocks, fmt.Sprintf("Source: %s\nFact: %s", r.Title, snippet))
	}
	return strings.Join(blocks, "\n\n")
}
