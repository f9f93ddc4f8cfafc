// Package testgen wires generation, parsing, deduplication and scoring into the
// HTTP-facing pipeline and records every run.
package testgen

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/a4ai/testgen/internal/dedup"
	"github.com/a4ai/testgen/internal/generator"
	"github.com/a4ai/testgen/internal/models"
	"github.com/a4ai/testgen/internal/payload"
	"github.com/a4ai/testgen/internal/scorer"
)

// ErrUnparseable is returned when the winning text holds no usable questions.
var ErrUnparseable = errors.New("generated content could not be parsed")

// Generator is the orchestrator surface the service depends on.
type Generator interface {
	Generate(ctx context.Context, req models.GenerateTestRequest) (*generator.Result, error)
	Health(ctx context.Context, probe bool) generator.HealthReport
}

type Service struct {
	gen      Generator
	store    Store
	logger   *zap.Logger
	metrics  *Metrics
	dedupCfg dedup.Config
	now      func() time.Time
}

func NewService(gen Generator, store Store, logger *zap.Logger, metrics *Metrics) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = NewMemoryStore()
	}
	return &Service{
		gen:      gen,
		store:    store,
		logger:   logger,
		metrics:  metrics,
		dedupCfg: dedup.DefaultConfig(),
		now:      time.Now,
	}
}

// GenerateTest runs the legacy single-call flow and returns the winning text.
func (s *Service) GenerateTest(ctx context.Context, userID string, req models.GenerateTestRequest) (*models.GenerateTestResponse, error) {
	start := s.now()
	res, err := s.gen.Generate(ctx, req)

	run := s.newRun(userID, "", req, res, start)
	if err != nil {
		s.finishRun(ctx, run, err)
		return nil, err
	}
	s.finishRun(ctx, run, nil)

	return &models.GenerateTestResponse{
		Test:     res.Text,
		Provider: res.Provider,
		Metadata: res.Metadata,
	}, nil
}

// GeneratePaper runs the structured pipeline: validate, generate as JSON,
// parse, deduplicate when requested, then score against the buckets. The run
// is owned by the authenticated userID; req.UserID is never trusted.
func (s *Service) GeneratePaper(ctx context.Context, userID string, req models.GenerationRequest) (*models.GeneratePaperResponse, error) {
	if err := payload.Validate(req); err != nil {
		return nil, err
	}
	testReq := payload.ToTestRequest(req, generator.FormatJSON)

	start := s.now()
	res, err := s.gen.Generate(ctx, testReq)
	run := s.newRun(userID, req.RequestID, testReq, res, start)
	if err != nil {
		s.finishRun(ctx, run, err)
		return nil, err
	}

	parsed, err := generator.ParseQuestions(res.Text)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrUnparseable, err)
		s.finishRun(ctx, run, err)
		return nil, err
	}
	if len(parsed.Rejected) > 0 {
		s.logger.Warn("dropped malformed generated questions",
			zap.String("requestId", req.RequestID),
			zap.Strings("rejected", parsed.Rejected),
		)
	}

	questions := parsed.Questions
	var duplicates models.DuplicateMap
	if req.AvoidDuplicates {
		before := len(questions)
		adv := dedup.AdvancedDeduplicate(questions, s.dedupCfg)
		questions = dedup.DeduplicateQuestions(adv.Unique, true, s.dedupCfg)
		duplicates = adv.Duplicates

		removed := before - len(questions)
		s.metrics.observeRemoved(removed)
		if removed > 0 {
			s.logger.Info("removed duplicate questions",
				zap.String("requestId", req.RequestID),
				zap.Int("removed", removed),
			)
		}
	}

	weights := scorer.DefaultWeights()
	weights.NCERT = req.NCERTWeight
	sc := scorer.NewScorer(weights, scorer.KeywordsFromTopic(testReq.Topic), req.Subject)
	scored := sc.ScoreAgainstBuckets(questions, req.Buckets)
	report := scorer.BuildReport(scored, req.CognitiveLevels)

	run.QuestionsKept = len(scored)
	if len(scored) > 0 {
		overall := report.Overall
		run.AverageQuality = &overall
		s.metrics.observePaperScore(overall)
	}
	s.finishRun(ctx, run, nil)

	return &models.GeneratePaperResponse{
		RequestID:  req.RequestID,
		Test:       res.Text,
		Provider:   res.Provider,
		Questions:  scored,
		Duplicates: duplicates,
		Report:     &report,
		Metadata:   res.Metadata,
	}, nil
}

// Score rates questions offline against one expectation.
func (s *Service) Score(req models.ScoreRequest) models.ScoreResponse {
	weights := scorer.DefaultWeights()
	weights.NCERT = req.NCERTWeight
	sc := scorer.NewScorer(weights, scorer.KeywordsFromTopic(req.Topic), req.Subject)

	scored := sc.ScoreAll(req.Questions, scorer.Expectation{
		Difficulty: req.Difficulty,
		Cognitive:  req.Cognitive,
	})
	return models.ScoreResponse{
		Questions: scored,
		Report:    scorer.BuildReport(scored, nil),
	}
}

// Deduplicate removes near-duplicates with the requested strategy. A zero
// threshold selects each strategy's default.
func (s *Service) Deduplicate(req models.DeduplicateRequest) models.DeduplicateResponse {
	cfg := dedup.DefaultConfig()
	cfg.SimilarityThreshold = req.Threshold

	var resp models.DeduplicateResponse
	switch req.Mode {
	case models.DedupFast:
		resp.Unique = dedup.DeduplicateQuestions(req.Questions, true, cfg)
	case models.DedupBatch:
		resp.Unique = dedup.NewBatchDeduplicator(req.BatchSize, cfg).DeduplicateLargeSet(req.Questions)
	default:
		res := dedup.AdvancedDeduplicate(req.Questions, cfg)
		resp.Unique, resp.Duplicates = res.Unique, res.Duplicates
	}

	resp.Removed = len(req.Questions) - len(resp.Unique)
	s.metrics.observeRemoved(resp.Removed)
	return resp
}

func (s *Service) ListRuns(ctx context.Context, userID string, limit, offset int) ([]models.GenerationRun, error) {
	return s.store.ListRuns(ctx, userID, limit, offset)
}

func (s *Service) Health(ctx context.Context, probe bool) generator.HealthReport {
	return s.gen.Health(ctx, probe)
}

// ── Run history ────────────────────────────────────────

func (s *Service) newRun(userID, requestID string, req models.GenerateTestRequest, res *generator.Result, start time.Time) *models.GenerationRun {
	run := &models.GenerationRun{
		ID:            uuid.NewString(),
		RequestID:     requestID,
		UserID:        userID,
		Subject:       req.Subject,
		Topic:         req.Topic,
		QuestionCount: req.Count(),
		DurationMs:    s.now().Sub(start).Milliseconds(),
		CreatedAt:     s.now().UTC(),
	}
	if res != nil {
		run.Provider = res.Provider
		run.PrimaryScore = res.PrimaryScore
		run.FallbackScore = res.FallbackScore
		for _, e := range res.Errors {
			run.ProviderErrors = append(run.ProviderErrors, e.Error())
		}
	}
	return run
}

// finishRun sets the status from err and stores the run. Store failures are
// logged and never fail the request.
func (s *Service) finishRun(ctx context.Context, run *models.GenerationRun, err error) {
	run.Status = runStatus(err)
	if err != nil {
		run.ErrorMessage = err.Error()
	}
	s.metrics.observeRun(string(run.Status))

	if err := s.store.CreateRun(context.WithoutCancel(ctx), run); err != nil {
		s.logger.Error("failed to record generation run", zap.String("runId", run.ID), zap.Error(err))
	}
}

func runStatus(err error) models.RunStatus {
	var verr *generator.ValidationError
	var exhausted *generator.GenerationExhaustedError
	switch {
	case err == nil:
		return models.RunSucceeded
	case errors.As(err, &verr):
		return models.RunInvalid
	case errors.As(err, &exhausted):
		return models.RunExhausted
	default:
		return models.RunFailed
	}
}
