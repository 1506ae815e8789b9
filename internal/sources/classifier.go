package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	radar "risk-radar/internal/radar/domain"
)

// NewsClassification is the model verdict for one article.
type NewsClassification struct {
	MarketMoving   bool           `json:"is_market_moving"`
	Category       radar.Category `json:"category"`
	Tier           radar.Tier     `json:"tier"`
	AffectedAssets []string       `json:"affected_assets"`
	ImpactHours    int            `json:"impact_hours"`
	Confidence     float64        `json:"confidence"`
}

// Classifier decides whether a news article is market-moving.
type Classifier interface {
	ClassifyNews(ctx context.Context, headline, content string) (NewsClassification, error)
}

const classifierSystemPrompt = "You are a financial market analyst. Respond only with valid JSON."

const classifyPromptFormat = `Analyze this news article for market-moving potential:

Headline: %s
Content: %s

Classify and respond with valid JSON:
1. "is_market_moving": boolean - true if this could significantly move markets
2. "category": one of ["economic", "fed_speaker", "earnings", "geopolitical", "crypto", "regulatory"]
3. "tier": integer 1-4 (1=highest impact, 4=lowest)
4. "affected_assets": list of affected assets from ["SPY", "QQQ", "BTC", "GOLD", "ETH"]
5. "impact_hours": estimated hours of market impact (1-48)
6. "confidence": float 0-1 indicating classification confidence

Respond with valid JSON only.`

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// LLMClassifier classifies news articles via a chat completion model.
// Parse failures degrade to a conservative not-market-moving verdict so
// a flaky model never fabricates events.
type LLMClassifier struct {
	client     chatCompleter
	model      string
	maxRetries int
	retryDelay time.Duration
}

// ClassifierOption customizes an LLMClassifier.
type ClassifierOption func(*LLMClassifier)

// WithClassifierModel overrides the completion model.
func WithClassifierModel(model string) ClassifierOption {
	return func(c *LLMClassifier) {
		if model != "" {
			c.model = model
		}
	}
}

// WithChatCompleter overrides the completion client, for tests.
func WithChatCompleter(client chatCompleter) ClassifierOption {
	return func(c *LLMClassifier) {
		if client != nil {
			c.client = client
		}
	}
}

// NewLLMClassifier builds a model-backed classifier.
func NewLLMClassifier(apiKey string, opts ...ClassifierOption) (*LLMClassifier, error) {
	c := &LLMClassifier{
		model:      openai.GPT4oMini,
		maxRetries: 3,
		retryDelay: time.Second,
	}
	if apiKey != "" {
		c.client = openai.NewClient(apiKey)
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		return nil, errors.New("llm classifier: no API key configured")
	}
	return c, nil
}

// ClassifyNews asks the model for a verdict on one article.
func (c *LLMClassifier) ClassifyNews(ctx context.Context, headline, content string) (NewsClassification, error) {
	if len(content) > 1000 {
		content = content[:1000]
	}
	prompt := fmt.Sprintf(classifyPromptFormat, headline, content)

	raw, err := c.complete(ctx, prompt)
	if err != nil {
		return NewsClassification{}, err
	}

	var result NewsClassification
	if err := json.Unmarshal([]byte(extractJSON(raw)), &result); err != nil {
		return conservativeVerdict(), nil
	}
	if !result.Category.Valid() || !result.Tier.Valid() {
		return conservativeVerdict(), nil
	}
	return result, nil
}

func (c *LLMClassifier) complete(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0.3,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: classifierSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err == nil {
			if len(resp.Choices) == 0 {
				return "", errors.New("llm classifier: empty completion")
			}
			return resp.Choices[0].Message.Content, nil
		}
		lastErr = err
		if attempt < c.maxRetries-1 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(c.retryDelay * time.Duration(attempt+1)):
			}
		}
	}
	return "", fmt.Errorf("llm classifier: %w", lastErr)
}

func conservativeVerdict() NewsClassification {
	return NewsClassification{
		MarketMoving: false,
		Category:     radar.CategoryGeopolitical,
		Tier:         radar.Tier3,
		ImpactHours:  6,
		Confidence:   0,
	}
}

// extractJSON strips markdown fences some models wrap around JSON output.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSuffix(raw, "```")
		raw = strings.TrimSpace(raw)
	}
	return raw
}
