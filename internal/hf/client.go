package hf

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/MohammadAghaei1/Misinformation-detector/internal/models"
)

// LogicFailedExplanation is returned when the model reply carries no
// parsable JSON verdict.
const LogicFailedExplanation = "Logic analysis failed."

// jsonObjectPattern locates the first {...} block in the reply, greedily
// across newlines, in case the model wraps the JSON in prose anyway.
var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// Client judges claims via the Hugging Face inference router, which speaks
// the OpenAI chat-completions dialect.
type Client struct {
	api        *openai.Client
	model      string
	maxRetries int
	retryDelay time.Duration
	timeout    time.Duration
	logger     *zap.Logger
}

// Config for the judge client
type Config struct {
	APIKey     string
	Model      string // Default: "meta-llama/Llama-3.3-70B-Instruct"
	BaseURL    string // Default: "https://router.huggingface.co/v1"
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
}

// NewClient creates a new judge client
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("hf API key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "meta-llama/Llama-3.3-70B-Instruct"
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://router.huggingface.co/v1"
	}

	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}

	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 2 * time.Second
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	apiCfg.BaseURL = cfg.BaseURL

	logger.Info("Judge client initialized",
		zap.String("model", cfg.Model),
		zap.String("base_url", cfg.BaseURL),
		zap.Int("max_retries", cfg.MaxRetries))

	return &Client{
		api:        openai.NewClientWithConfig(apiCfg),
		model:      cfg.Model,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		timeout:    cfg.Timeout,
		logger:     logger,
	}, nil
}

// GetModelInfo returns model information
func (c *Client) GetModelInfo() map[string]interface{} {
	return map[string]interface{}{
		"provider": "huggingface",
		"model":    c.model,
	}
}

// Judge classifies a claim against the supplied evidence block. It never
// returns an error: inference failures and unparsable replies degrade to
// the uncertain/0 fallbacks so the caller always gets a verdict.
func (c *Client) Judge(ctx context.Context, text string, isURL bool, evidence string) models.Verdict {
	prompt := BuildPrompt(text, isURL, evidence, time.Now())

	reply, err := c.complete(ctx, prompt)
	if err != nil {
		c.logger.Error("Model inference failed", zap.Error(err))
		return models.Verdict{
			Label:       models.LabelUncertain,
			Confidence:  0,
			Explanation: fmt.Sprintf("Model inference failed: %v", err),
		}
	}

	verdict, ok := ExtractVerdict(reply)
	if !ok {
		c.logger.Warn("No parsable verdict in model reply", zap.String("reply", reply))
		return models.Verdict{
			Label:       models.LabelUncertain,
			Confidence:  0,
			Explanation: LogicFailedExplanation,
		}
	}

	return verdict
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Warn("Retrying inference request",
				zap.Int("attempt", attempt+1),
				zap.Int("max_retries", c.maxRetries))
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
		resp, err := c.api.CreateChatCompletion(reqCtx, openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: SystemInstruction},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			Temperature: 0.1,
			MaxTokens:   350,
		})
		cancel()
		if err != nil {
			lastErr = err
			c.logger.Error("Inference API error", zap.Error(err), zap.Int("attempt", attempt+1))
			continue
		}

		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("empty response from model")
			continue
		}

		return resp.Choices[0].Message.Content, nil
	}

	return "", lastErr
}

// ExtractVerdict pulls the first {...} substring out of the raw model reply
// and parses it. The parsed verdict is returned as-is: an out-of-enum label
// or out-of-range confidence from the model passes through unvalidated.
func ExtractVerdict(reply string) (models.Verdict, bool) {
	match := jsonObjectPattern.FindString(reply)
	if match == "" {
		return models.Verdict{}, false
	}

	var raw struct {
		Label       *string `json:"label"`
		Confidence  *int    `json:"confidence"`
		Explanation *string `json:"explanation"`
	}
	if err := json.Unmarshal([]byte(match), &raw); err != nil {
		return models.Verdict{}, false
	}

	if raw.Label == nil || raw.Confidence == nil || raw.Explanation == nil {
		return models.Verdict{}, false
	}

	return models.Verdict{
		Label:       *raw.Label,
		Confidence:  *raw.Confidence,
		Explanation: *raw.Explanation,
	}, true
}
