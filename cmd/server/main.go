package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/a4ai/testgen/internal/auth"
	"github.com/a4ai/testgen/internal/config"
	"github.com/a4ai/testgen/internal/database"
	"github.com/a4ai/testgen/internal/generator"
	"github.com/a4ai/testgen/internal/logger"
	"github.com/a4ai/testgen/internal/middleware"
	"github.com/a4ai/testgen/internal/models"
	"github.com/a4ai/testgen/internal/payment"
	"github.com/a4ai/testgen/internal/testgen"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "testgen",
		Short:        "Exam generation backend: multi-provider LLM orchestration, scoring and deduplication",
		SilenceUsage: true,
	}

	serve := serveCmd()
	root.AddCommand(serve, scoreCmd(), dedupCmd())

	// "serve" is the default when no subcommand is given.
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", "", "HTTP listen address (default :8080, or :$PORT)")
	f.String("primary", "deepseek", "Primary provider (deepseek, openai, anthropic, mock)")
	f.String("fallback", "openai", "Fallback provider (deepseek, openai, anthropic, mock)")
	f.Duration("provider-timeout", generator.DefaultTimeout, "Timeout for each provider call")
	f.Bool("mock", false, "Serve canned questions instead of calling providers")
	f.String("deepseek-model", generator.DefaultDeepSeekModel, "DeepSeek model")
	f.String("openai-model", generator.DefaultOpenAIModel, "OpenAI model")
	f.String("anthropic-model", generator.DefaultAnthropicModel, "Anthropic model")
	f.Int("rate-limit", 10, "Generation requests allowed per client per window (0 disables)")
	f.Duration("rate-window", time.Minute, "Rate limit window")
	f.StringSlice("trusted-proxies", nil, "Proxy CIDRs whose X-Forwarded-For is trusted for rate limiting")
	f.StringSlice("cors-origins", []string{"*"}, "Allowed CORS origins")
	addLogFlags(cmd)
	return cmd
}

func scoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a JSON array of questions offline",
		RunE:  runScore,
	}
	f := cmd.Flags()
	f.StringP("input", "i", "-", "Questions JSON file (- for stdin)")
	f.String("subject", "", "Subject used for syllabus scoring")
	f.String("topic", "", "Topic keywords")
	f.Float64("ncert-weight", 0, "Weight of NCERT phrasing in [0,1]")
	f.String("difficulty", "", "Expected difficulty")
	f.String("cognitive", "", "Expected cognitive level")
	addLogFlags(cmd)
	return cmd
}

func dedupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dedup",
		Short: "Remove near-duplicate questions from a JSON array",
		RunE:  runDedup,
	}
	f := cmd.Flags()
	f.StringP("input", "i", "-", "Questions JSON file (- for stdin)")
	f.String("mode", string(models.DedupFull), "Strategy (fast, full, batch)")
	f.Float64("threshold", 0, "Similarity threshold (0 uses the strategy default)")
	f.Int("batch-size", 0, "Batch size for batch mode")
	addLogFlags(cmd)
	return cmd
}

func addLogFlags(cmd *cobra.Command) {
	cmd.Flags().String("log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().String("log-format", "json", "Log format (json, console)")
}

// viperForCmd binds a command's flags on top of the environment.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := config.NewViper()
	_ = v.BindPFlags(cmd.Flags())
	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(viperForCmd(cmd))
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	primary, err := buildProvider(cfg.Providers, cfg.Providers.Primary)
	if err != nil {
		return err
	}
	fallback, err := buildProvider(cfg.Providers, cfg.Providers.Fallback)
	if err != nil {
		return err
	}
	for _, p := range []generator.Provider{primary, fallback} {
		if p.Client == nil {
			log.Warn("provider has no API key and will be skipped", zap.String("provider", p.Name))
		}
	}

	orch := generator.NewOrchestrator(primary, fallback, log, generator.OrchestratorConfig{
		Timeout: cfg.Providers.Timeout,
		Metrics: generator.NewMetrics(prometheus.DefaultRegisterer),
	})

	store, closeStore, err := openStore(cfg.Database, log)
	if err != nil {
		return err
	}
	defer closeStore()

	svc := testgen.NewService(orch, store, log, testgen.NewMetrics(prometheus.DefaultRegisterer))

	r := mux.NewRouter()
	r.Use(middleware.NewHTTPMetrics(prometheus.DefaultRegisterer).Middleware)
	r.Use(auth.Middleware([]byte(cfg.Auth.JWTSecret), log))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	var generationMW []mux.MiddlewareFunc
	if cfg.RateLimit.Requests > 0 {
		limiter := middleware.NewRateLimiter(ctx, cfg.RateLimit.Requests, cfg.RateLimit.Window)
		if err := limiter.SetTrustedProxies(cfg.RateLimit.TrustedProxies); err != nil {
			return err
		}
		generationMW = append(generationMW, limiter.Middleware)
	}
	testgen.NewHandler(svc, log).Register(r, generationMW...)

	if cfg.Payment.Enabled() {
		gateway := payment.NewClient(cfg.Payment.KeyID, cfg.Payment.KeySecret, cfg.Payment.BaseURL)
		payment.NewHandler(gateway, log).Register(r.PathPrefix("/payments").Subrouter())
	} else {
		log.Info("payment routes disabled: Razorpay keys not set")
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           withCORS(r, cfg.Server.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting",
			zap.String("addr", cfg.Server.Addr),
			zap.String("primary", primary.Name),
			zap.String("fallback", fallback.Name),
			zap.Duration("providerTimeout", cfg.Providers.Timeout),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// withCORS wraps r in the CORS handler. Every OPTIONS request answers an empty
// 200, including ones that are not CORS preflights.
func withCORS(r *mux.Router, origins []string) http.Handler {
	r.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	c := cors.New(cors.Options{
		AllowedOrigins:       origins,
		AllowedMethods:       []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:       []string{"authorization", "x-client-info", "apikey", "content-type"},
		OptionsSuccessStatus: http.StatusOK,
	})
	return c.Handler(r)
}

func buildProvider(cfg config.ProvidersConfig, name string) (generator.Provider, error) {
	if cfg.Mock || name == generator.ProviderMock {
		return generator.Provider{Name: name, Model: generator.ProviderMock, Client: generator.NewMockClient("")}, nil
	}

	settings := cfg.Settings(name)
	client, err := generator.NewClient(generator.ProviderConfig{
		Name:    name,
		APIKey:  settings.APIKey,
		Model:   settings.Model,
		BaseURL: settings.BaseURL,
	})
	if err != nil {
		return generator.Provider{}, fmt.Errorf("create %s client: %w", name, err)
	}

	model := settings.Model
	if model == "" {
		model = generator.DefaultModel(name)
	}
	return generator.Provider{Name: name, Model: model, Client: client}, nil
}

// openStore uses Postgres when a database URL is configured and keeps runs in
// memory otherwise.
func openStore(cfg config.DatabaseConfig, log *zap.Logger) (testgen.Store, func(), error) {
	if cfg.URL == "" {
		log.Info("DATABASE_URL not set, keeping generation runs in memory")
		return testgen.NewMemoryStore(), func() {}, nil
	}

	db, err := database.Connect(cfg.URL)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, nil, err
	}
	return testgen.NewPostgresStore(db), func() { db.Close() }, nil
}

// ── Offline tools ──────────────────────────────────────

func runScore(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)
	questions, err := readQuestions(v.GetString("input"), cmd.InOrStdin())
	if err != nil {
		return err
	}

	difficulty := models.Difficulty("")
	if d := v.GetString("difficulty"); d != "" {
		if difficulty, err = models.ParseDifficulty(d); err != nil {
			return err
		}
	}
	cognitive, err := models.ParseCognitive(v.GetString("cognitive"))
	if err != nil {
		return err
	}

	svc := testgen.NewService(nil, nil, nil, nil)
	resp := svc.Score(models.ScoreRequest{
		Subject:     v.GetString("subject"),
		Topic:       v.GetString("topic"),
		NCERTWeight: v.GetFloat64("ncert-weight"),
		Difficulty:  difficulty,
		Cognitive:   cognitive,
		Questions:   questions,
	})
	return writeOutput(cmd.OutOrStdout(), resp)
}

func runDedup(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)
	questions, err := readQuestions(v.GetString("input"), cmd.InOrStdin())
	if err != nil {
		return err
	}

	mode := models.DedupMode(v.GetString("mode"))
	switch mode {
	case models.DedupFast, models.DedupFull, models.DedupBatch:
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}

	svc := testgen.NewService(nil, nil, nil, nil)
	resp := svc.Deduplicate(models.DeduplicateRequest{
		Questions: questions,
		Mode:      mode,
		Threshold: v.GetFloat64("threshold"),
		BatchSize: v.GetInt("batch-size"),
	})
	return writeOutput(cmd.OutOrStdout(), resp)
}

func readQuestions(path string, stdin io.Reader) ([]models.Question, error) {
	var r io.Reader = stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	var questions []models.Question
	if err := json.NewDecoder(r).Decode(&questions); err != nil {
		return nil, fmt.Errorf("parse questions: %w", err)
	}
	for i, q := range questions {
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
	}
	return questions, nil
}

func writeOutput(w io.Writer, data interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
