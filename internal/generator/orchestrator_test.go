package generator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/a4ai/testgen/internal/models"
)

// stubClient returns fixed text or error and records every call.
type stubClient struct {
	mu    sync.Mutex
	text  string
	err   error
	calls []CallOptions
	delay time.Duration
}

func (s *stubClient) Generate(ctx context.Context, systemPrompt string, userPrompt string, opts CallOptions) (*LLMResponse, error) {
	s.mu.Lock()
	s.calls = append(s.calls, opts)
	s.mu.Unlock()

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return &LLMResponse{Content: s.text}, nil
}

func (s *stubClient) Ping(ctx context.Context) error {
	return s.err
}

func (s *stubClient) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func intPtr(n int) *int { return &n }

func physicsRequest() models.GenerateTestRequest {
	return models.GenerateTestRequest{
		Subject:       "Physics",
		Topic:         "force motion",
		Difficulty:    "medium",
		QuestionType:  "mcq",
		QuestionCount: intPtr(5),
		OutputFormat:  "plain text",
	}
}

func newTestOrchestrator(a, b LLMClient) *Orchestrator {
	return NewOrchestrator(
		Provider{Name: ProviderDeepSeek, Model: DefaultDeepSeekModel, Client: a},
		Provider{Name: ProviderOpenAI, Model: DefaultOpenAIModel, Client: b},
		zap.NewNop(),
		OrchestratorConfig{Timeout: time.Second},
	)
}

func TestGenerate_EndToEndPhysics(t *testing.T) {
	a := &stubClient{text: "1. What force keeps a body in motion? 2. Which force opposes it?"}
	b := &stubClient{text: "1. Define photosynthesis."}
	o := newTestOrchestrator(a, b)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	o.now = func() time.Time { return fixed }

	res, err := o.Generate(context.Background(), physicsRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Provider != ProviderDeepSeek {
		t.Errorf("expected provider %q, got %q", ProviderDeepSeek, res.Provider)
	}
	if res.Text != a.text {
		t.Errorf("expected primary text, got %q", res.Text)
	}
	if res.PrimaryScore != 3 || res.FallbackScore != 0 {
		t.Errorf("expected keyword scores 3 and 0, got %d and %d", res.PrimaryScore, res.FallbackScore)
	}
	if b.callCount() != 0 {
		t.Errorf("fallback should not be called when primary returns text, got %d calls", b.callCount())
	}

	md := res.Metadata
	if md.Subject != "Physics" || md.Topic != "force motion" || md.QuestionCount != 5 || !md.GeneratedAt.Equal(fixed) {
		t.Errorf("unexpected metadata echo: %+v", md)
	}
}

func TestGenerate_PrimaryCallOptions(t *testing.T) {
	a := &stubClient{text: ""}
	b := &stubClient{text: "force"}
	o := newTestOrchestrator(a, b)

	if _, err := o.Generate(context.Background(), physicsRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(a.calls) != 1 || a.calls[0].MaxTokens != 2000 || a.calls[0].Temperature != 0.7 {
		t.Errorf("unexpected primary call options %+v", a.calls)
	}
	if len(b.calls) != 1 || b.calls[0].MaxTokens != 4000 {
		t.Errorf("unexpected fallback call options %+v", b.calls)
	}
}

func TestGenerate_Fallback(t *testing.T) {
	tests := []struct {
		name    string
		primary LLMClient
	}{
		{"primary empty", &stubClient{text: ""}},
		{"primary whitespace", &stubClient{text: "  \n "}},
		{"primary error", &stubClient{err: errors.New("402 insufficient balance")}},
		{"primary missing key", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &stubClient{text: "A force acts on a body in motion."}
			o := newTestOrchestrator(tt.primary, b)

			res, err := o.Generate(context.Background(), physicsRequest())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Provider != ProviderOpenAI {
				t.Errorf("expected fallback provider, got %q", res.Provider)
			}
			if res.Text != b.text {
				t.Errorf("expected fallback text, got %q", res.Text)
			}
			if b.callCount() != 1 {
				t.Errorf("expected exactly one fallback call, got %d", b.callCount())
			}
		})
	}
}

func TestGenerate_PrimaryErrorRecorded(t *testing.T) {
	boom := errors.New("connection reset")
	o := newTestOrchestrator(&stubClient{err: boom}, &stubClient{text: "force"})

	res, err := o.Generate(context.Background(), physicsRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Errors) != 1 || !errors.Is(res.Errors[0], boom) || res.Errors[0].Provider != ProviderDeepSeek {
		t.Errorf("expected wrapped primary error, got %v", res.Errors)
	}
	if res.Candidates[0].Err == "" {
		t.Error("expected primary candidate to carry the error")
	}
}

func TestPrimaryWins(t *testing.T) {
	tests := []struct {
		name          string
		primary       string
		primaryScore  int
		fallback      string
		fallbackScore int
		wantPrimary   bool
	}{
		{"tie goes to primary", "force", 1, "force", 1, true},
		{"primary higher", "force force", 2, "force", 1, true},
		{"fallback higher", "cells", 0, "force", 1, false},
		{"primary empty", "", 0, "cells", 0, false},
		{"fallback empty", "cells", 0, " ", 0, true},
		{"both empty", "", 0, "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := primaryWins(tt.primary, tt.primaryScore, tt.fallback, tt.fallbackScore)
			if got != tt.wantPrimary {
				t.Errorf("expected primaryWins=%v, got %v", tt.wantPrimary, got)
			}
		})
	}
}

func TestGenerate_PrimaryPreferredRegardlessOfQuality(t *testing.T) {
	a := &stubClient{text: "Unrelated text about cells."}
	b := &stubClient{text: "force force force motion"}
	o := newTestOrchestrator(a, b)

	res, err := o.Generate(context.Background(), physicsRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Provider != ProviderDeepSeek {
		t.Errorf("expected non-empty primary to win, got %q", res.Provider)
	}
	if b.callCount() != 0 {
		t.Errorf("fallback must not be called, got %d calls", b.callCount())
	}
}

func TestGenerate_Exhausted(t *testing.T) {
	a := &stubClient{err: errors.New("timeout")}
	b := &stubClient{text: ""}
	o := newTestOrchestrator(a, b)

	_, err := o.Generate(context.Background(), physicsRequest())

	var exhausted *GenerationExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected GenerationExhaustedError, got %v", err)
	}
	debug := exhausted.Debug()
	if _, ok := debug["deepseekText"]; !ok {
		t.Errorf("expected deepseekText in debug, got %v", debug)
	}
	if _, ok := debug["openaiText"]; !ok {
		t.Errorf("expected openaiText in debug, got %v", debug)
	}
}

func TestGenerate_NoProvidersConfigured(t *testing.T) {
	o := newTestOrchestrator(nil, nil)

	_, err := o.Generate(context.Background(), physicsRequest())
	var exhausted *GenerationExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected GenerationExhaustedError, got %v", err)
	}
	if len(exhausted.Errors) != 0 {
		t.Errorf("missing keys must be silent, got %v", exhausted.Errors)
	}
}

func TestGenerate_ValidationGate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.GenerateTestRequest)
	}{
		{"missing questionCount", func(r *models.GenerateTestRequest) { r.QuestionCount = nil }},
		{"zero questionCount", func(r *models.GenerateTestRequest) { r.QuestionCount = intPtr(0) }},
		{"missing subject", func(r *models.GenerateTestRequest) { r.Subject = "" }},
		{"missing difficulty", func(r *models.GenerateTestRequest) { r.Difficulty = "" }},
		{"missing questionType", func(r *models.GenerateTestRequest) { r.QuestionType = " " }},
		{"missing outputFormat", func(r *models.GenerateTestRequest) { r.OutputFormat = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &stubClient{text: "force"}
			b := &stubClient{text: "force"}
			o := newTestOrchestrator(a, b)

			req := physicsRequest()
			tt.mutate(&req)

			_, err := o.Generate(context.Background(), req)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if a.callCount()+b.callCount() != 0 {
				t.Errorf("no provider may be called on invalid input, got %d calls", a.callCount()+b.callCount())
			}
		})
	}
}

func TestGenerate_Timeout(t *testing.T) {
	a := &stubClient{text: "force", delay: time.Second}
	b := &stubClient{text: "motion"}
	o := NewOrchestrator(
		Provider{Name: ProviderDeepSeek, Client: a},
		Provider{Name: ProviderOpenAI, Client: b},
		zap.NewNop(),
		OrchestratorConfig{Timeout: 20 * time.Millisecond},
	)

	res, err := o.Generate(context.Background(), physicsRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Provider != ProviderOpenAI {
		t.Errorf("expected fallback after primary timeout, got %q", res.Provider)
	}
	if len(res.Errors) != 1 || !errors.Is(res.Errors[0], context.DeadlineExceeded) {
		t.Errorf("expected deadline error recorded, got %v", res.Errors)
	}
}

func TestHealth(t *testing.T) {
	o := newTestOrchestrator(&stubClient{}, nil)

	report := o.Health(context.Background(), false)
	if !report.OK {
		t.Error("expected ok with one configured provider")
	}
	if !report.Keys[ProviderDeepSeek] || report.Keys[ProviderOpenAI] {
		t.Errorf("unexpected keys %v", report.Keys)
	}
	if report.Models[ProviderOpenAI] != DefaultOpenAIModel {
		t.Errorf("unexpected models %v", report.Models)
	}
	if report.Reachable != nil {
		t.Error("expected no probe results without probe")
	}

	probed := newTestOrchestrator(&stubClient{}, &stubClient{err: errors.New("down")}).Health(context.Background(), true)
	if !probed.Reachable[ProviderDeepSeek] || probed.Reachable[ProviderOpenAI] {
		t.Errorf("unexpected reachability %v", probed.Reachable)
	}
}
