package generator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/a4ai/testgen/internal/models"
	"github.com/a4ai/testgen/internal/scorer"
)

const (
	DefaultTimeout = 60 * time.Second

	primaryTemperature = 0.7
	primaryMaxTokens   = 2000
	fallbackMaxTokens  = 4000

	healthProbeTimeout = 5 * time.Second
)

// Provider is one configured backend. A nil Client means the provider has no
// credentials; it is skipped and counts as returning empty text.
type Provider struct {
	Name   string
	Model  string
	Client LLMClient
}

func (p Provider) configured() bool {
	return p.Client != nil
}

type OrchestratorConfig struct {
	// Timeout bounds each provider call. Zero means DefaultTimeout.
	Timeout time.Duration
	Metrics *Metrics
}

// Orchestrator asks the primary provider for a test and falls back to the
// secondary only when the primary produced nothing. Calls are sequential.
type Orchestrator struct {
	primary  Provider
	fallback Provider
	timeout  time.Duration
	logger   *zap.Logger
	metrics  *Metrics
	now      func() time.Time
}

func NewOrchestrator(primary, fallback Provider, logger *zap.Logger, cfg OrchestratorConfig) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Orchestrator{
		primary:  primary,
		fallback: fallback,
		timeout:  timeout,
		logger:   logger,
		metrics:  cfg.Metrics,
		now:      time.Now,
	}
}

// Result is the winning generation plus the provenance of both candidates.
type Result struct {
	Text          string
	Provider      string
	Model         string
	Metadata      models.GenerateTestMetadata
	Candidates    []models.ProviderResponse
	PrimaryScore  int
	FallbackScore int
	Errors        []*ProviderError
}

// Validate reports every missing required field of req.
func Validate(req models.GenerateTestRequest) error {
	var errs []string
	if strings.TrimSpace(req.Subject) == "" {
		errs = append(errs, "subject is required")
	}
	if strings.TrimSpace(req.Difficulty) == "" {
		errs = append(errs, "difficulty is required")
	}
	if strings.TrimSpace(req.QuestionType) == "" {
		errs = append(errs, "questionType is required")
	}
	if req.QuestionCount == nil {
		errs = append(errs, "questionCount is required")
	} else if *req.QuestionCount <= 0 {
		errs = append(errs, "questionCount must be positive")
	}
	if strings.TrimSpace(req.OutputFormat) == "" {
		errs = append(errs, "outputFormat is required")
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// Generate runs the primary-then-fallback sequence for req.
//
// Errors: *ValidationError before any provider is called, and
// *GenerationExhaustedError when neither provider returned text. Provider
// failures alone never surface as errors.
func (o *Orchestrator) Generate(ctx context.Context, req models.GenerateTestRequest) (*Result, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	systemPrompt := BuildSystemPrompt(req)
	userPrompt := BuildUserPrompt(req)
	keywords := scorer.KeywordsFromTopic(req.Topic)

	result := &Result{}

	primaryText, err := o.call(ctx, o.primary, systemPrompt, userPrompt, CallOptions{
		Temperature: primaryTemperature,
		MaxTokens:   primaryMaxTokens,
	})
	if err != nil {
		result.Errors = append(result.Errors, err)
	}

	var fallbackText string
	if isEmpty(primaryText) {
		if o.fallback.configured() {
			o.logger.Info("primary returned no text, trying fallback",
				zap.String("primary", o.primary.Name),
				zap.String("fallback", o.fallback.Name),
			)
		}
		fallbackText, err = o.call(ctx, o.fallback, systemPrompt, userPrompt, CallOptions{
			Temperature: primaryTemperature,
			MaxTokens:   fallbackMaxTokens,
		})
		if err != nil {
			result.Errors = append(result.Errors, err)
		}
	}

	result.PrimaryScore = scorer.Occurrences(primaryText, keywords)
	result.FallbackScore = scorer.Occurrences(fallbackText, keywords)
	result.Candidates = []models.ProviderResponse{
		candidate(o.primary.Name, primaryText, result.PrimaryScore, result.Errors),
		candidate(o.fallback.Name, fallbackText, result.FallbackScore, result.Errors),
	}

	switch {
	case primaryWins(primaryText, result.PrimaryScore, fallbackText, result.FallbackScore):
		result.Text, result.Provider, result.Model = primaryText, o.primary.Name, o.primary.Model
	case !isEmpty(fallbackText):
		result.Text, result.Provider, result.Model = fallbackText, o.fallback.Name, o.fallback.Model
	default:
		o.metrics.observeExhausted()
		o.logger.Error("no provider returned text",
			zap.String("subject", req.Subject),
			zap.Int("providerErrors", len(result.Errors)),
		)
		return result, &GenerationExhaustedError{
			Texts: map[string]string{
				o.primary.Name:  primaryText,
				o.fallback.Name: fallbackText,
			},
			Errors: result.Errors,
		}
	}

	o.metrics.observeWinner(result.Provider)
	o.logger.Info("generation selected",
		zap.String("provider", result.Provider),
		zap.Int("primaryScore", result.PrimaryScore),
		zap.Int("fallbackScore", result.FallbackScore),
	)

	result.Metadata = models.GenerateTestMetadata{
		Subject:       req.Subject,
		Topic:         req.Topic,
		Difficulty:    req.Difficulty,
		QuestionType:  req.QuestionType,
		QuestionCount: req.Count(),
		GeneratedAt:   o.now().UTC(),
	}
	return result, nil
}

// call returns the provider's text, or "" with a *ProviderError when the call
// failed. Unconfigured providers return "" and no error.
func (o *Orchestrator) call(ctx context.Context, p Provider, systemPrompt, userPrompt string, opts CallOptions) (string, *ProviderError) {
	if !p.configured() {
		return "", nil
	}

	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	resp, err := p.Client.Generate(callCtx, systemPrompt, userPrompt, opts)
	elapsed := time.Since(start)

	if err != nil {
		outcome := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			outcome = "timeout"
		}
		o.metrics.observeCall(p.Name, outcome, elapsed)
		o.logger.Warn("provider call failed",
			zap.String("provider", p.Name),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return "", &ProviderError{Provider: p.Name, Err: err}
	}

	if resp == nil || isEmpty(resp.Content) {
		o.metrics.observeCall(p.Name, "empty", elapsed)
		o.logger.Warn("provider returned empty text", zap.String("provider", p.Name))
		return "", nil
	}

	o.metrics.observeCall(p.Name, "ok", elapsed)
	o.logger.Debug("provider call succeeded",
		zap.String("provider", p.Name),
		zap.Int("promptTokens", resp.PromptTokens),
		zap.Int("outputTokens", resp.OutputTokens),
	)
	return resp.Content, nil
}

func candidate(name, text string, score int, errs []*ProviderError) models.ProviderResponse {
	c := models.ProviderResponse{Provider: name, Text: text, KeywordScore: score}
	for _, e := range errs {
		if e.Provider == name {
			c.Err = e.Err.Error()
		}
	}
	return c
}

// primaryWins ranks two candidates by keyword score. Empty text never wins and
// a tie goes to the primary.
func primaryWins(primaryText string, primaryScore int, fallbackText string, fallbackScore int) bool {
	if isEmpty(primaryText) {
		return false
	}
	return isEmpty(fallbackText) || primaryScore >= fallbackScore
}

func isEmpty(text string) bool {
	return strings.TrimSpace(text) == ""
}

// ── Health ─────────────────────────────────────────────────────

type HealthReport struct {
	OK        bool              `json:"ok"`
	Keys      map[string]bool   `json:"keys"`
	Models    map[string]string `json:"models"`
	Reachable map[string]bool   `json:"reachable,omitempty"`
}

// Health reports which providers are configured. With probe set, configured
// providers that support Ping are checked concurrently.
func (o *Orchestrator) Health(ctx context.Context, probe bool) HealthReport {
	providers := []Provider{o.primary, o.fallback}

	report := HealthReport{
		Keys:   make(map[string]bool, len(providers)),
		Models: make(map[string]string, len(providers)),
	}
	for _, p := range providers {
		report.Keys[p.Name] = p.configured()
		report.Models[p.Name] = orDefault(p.Model, DefaultModel(p.Name))
		report.OK = report.OK || p.configured()
	}

	if !probe {
		return report
	}

	report.Reachable = make(map[string]bool, len(providers))
	var mu sync.Mutex
	var g errgroup.Group
	for _, p := range providers {
		pinger, ok := p.Client.(Pinger)
		if !p.configured() || !ok {
			mu.Lock()
			report.Reachable[p.Name] = false
			mu.Unlock()
			continue
		}
		name := p.Name
		g.Go(func() error {
			probeCtx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
			defer cancel()

			err := pinger.Ping(probeCtx)
			if err != nil {
				o.logger.Warn("provider health probe failed", zap.String("provider", name), zap.Error(err))
			}

			mu.Lock()
			report.Reachable[name] = err == nil
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return report
}
