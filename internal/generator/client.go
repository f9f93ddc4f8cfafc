package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
	openai "github.com/sashabaranov/go-openai"
)

// Provider names. They appear in responses, metrics labels and debug keys.
const (
	ProviderDeepSeek  = "deepseek"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"
)

const (
	DeepSeekBaseURL = "https://api.deepseek.com/v1"

	DefaultDeepSeekModel  = "deepseek-chat"
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultAnthropicModel = "claude-3-5-haiku-latest"
)

// LLMClient is the interface every provider implementation satisfies.
type LLMClient interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string, opts CallOptions) (*LLMResponse, error)
}

// Pinger is implemented by clients that can check reachability without
// generating content.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CallOptions bounds a single completion.
type CallOptions struct {
	Temperature float32
	MaxTokens   int
}

// LLMResponse holds the raw response content and token usage.
type LLMResponse struct {
	Content      string
	PromptTokens int
	OutputTokens int
}

// ProviderConfig describes one configured backend.
type ProviderConfig struct {
	Name    string
	APIKey  string
	Model   string
	BaseURL string
}

// NewClient builds the client for cfg.Name. A missing API key yields a nil
// client, which the orchestrator treats as a provider that returned nothing.
func NewClient(cfg ProviderConfig) (LLMClient, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Name))
	if name == ProviderMock {
		return NewMockClient(""), nil
	}
	if cfg.APIKey == "" {
		return nil, nil
	}

	switch name {
	case ProviderDeepSeek:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = DeepSeekBaseURL
		}
		return NewOpenAIClient(baseURL, cfg.APIKey, orDefault(cfg.Model, DefaultDeepSeekModel)), nil
	case ProviderOpenAI:
		return NewOpenAIClient(cfg.BaseURL, cfg.APIKey, orDefault(cfg.Model, DefaultOpenAIModel)), nil
	case ProviderAnthropic:
		return NewAnthropicClient(cfg.APIKey, orDefault(cfg.Model, DefaultAnthropicModel)), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Name)
	}
}

// DefaultModel returns the model used for a provider when none is configured.
func DefaultModel(name string) string {
	switch name {
	case ProviderDeepSeek:
		return DefaultDeepSeekModel
	case ProviderOpenAI:
		return DefaultOpenAIModel
	case ProviderAnthropic:
		return DefaultAnthropicModel
	default:
		return name
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// ── OpenAIClient (OpenAI-compatible chat completions) ──────────

// OpenAIClient talks to OpenAI or any compatible endpoint such as DeepSeek.
type OpenAIClient struct {
	api   *openai.Client
	model string
}

func NewOpenAIClient(baseURL, apiKey, model string) *OpenAIClient {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAIClient{
		api:   openai.NewClientWithConfig(config),
		model: model,
	}
}

func (c *OpenAIClient) Model() string { return c.model }

func (c *OpenAIClient) Generate(ctx context.Context, systemPrompt string, userPrompt string, opts CallOptions) (*LLMResponse, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return &LLMResponse{}, nil
	}

	return &LLMResponse{
		Content:      resp.Choices[0].Message.Content,
		PromptTokens: resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}

func (c *OpenAIClient) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// ── AnthropicClient ────────────────────────────────────────────

type AnthropicClient struct {
	client *anthropic.Client
	model  string
}

func NewAnthropicClient(apiKey, model string) *AnthropicClient {
	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)
	return &AnthropicClient{client: &client, model: model}
}

func (c *AnthropicClient) Model() string { return c.model }

func (c *AnthropicClient) Generate(ctx context.Context, systemPrompt string, userPrompt string, opts CallOptions) (*LLMResponse, error) {
	maxTokens := int64(opts.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   maxTokens,
		Temperature: param.NewOpt(float64(opts.Temperature)),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic messages: %w", err)
	}

	var responseText string
	for _, block := range message.Content {
		if block.Type == "text" {
			responseText = block.Text
			break
		}
	}

	return &LLMResponse{
		Content:      responseText,
		PromptTokens: int(message.Usage.InputTokens),
		OutputTokens: int(message.Usage.OutputTokens),
	}, nil
}

func (c *AnthropicClient) Ping(ctx context.Context) error {
	_, err := c.Generate(ctx, "Reply with OK.", "ping", CallOptions{MaxTokens: 1})
	return err
}

// ── MockClient ─────────────────────────────────────────────────

// MockClient returns canned content without any network call. An empty
// Content produces a small JSON question set.
type MockClient struct {
	Content string
}

func NewMockClient(content string) *MockClient {
	return &MockClient{Content: content}
}

func (m *MockClient) Model() string { return ProviderMock }

func (m *MockClient) Generate(ctx context.Context, systemPrompt string, userPrompt string, opts CallOptions) (*LLMResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content := m.Content
	if content == "" {
		content = buildMockJSON()
	}
	return &LLMResponse{
		Content:      content,
		PromptTokens: len(systemPrompt) + len(userPrompt),
		OutputTokens: len(content),
	}, nil
}

func (m *MockClient) Ping(ctx context.Context) error {
	return ctx.Err()
}

func buildMockJSON() string {
	topics := []string{"motion", "energy", "waves", "electricity", "magnetism"}
	levels := []string{"recall", "understand", "apply", "analyze", "apply"}

	questions := make([]string, 0, len(topics))
	for i, topic := range topics {
		questions = append(questions, fmt.Sprintf(
			`{"text":"[Mock] Question %d about %s.","type":"mcq","difficulty":"medium","cognitive":"%s","marks":1,"topics":["%s"],"options":["A","B","C","D"],"answer":"A","solution":"[Mock] Worked solution for %s."}`,
			i+1, topic, levels[i], topic, topic))
	}
	return fmt.Sprintf(`{"questions":[%s]}`, strings.Join(questions, ","))
}
