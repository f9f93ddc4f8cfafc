package testgen

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/a4ai/testgen/internal/auth"
	"github.com/a4ai/testgen/internal/generator"
	"github.com/a4ai/testgen/internal/models"
	"github.com/a4ai/testgen/internal/payload"
)

const maxBodyBytes = 5 << 20

type Handler struct {
	service *Service
	logger  *zap.Logger
}

func NewHandler(service *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, logger: logger}
}

// Register mounts the routes on r. Generation routes are additionally wrapped
// with the given middleware.
func (h *Handler) Register(r *mux.Router, generationMW ...mux.MiddlewareFunc) {
	gen := r.NewRoute().Subrouter()
	gen.Use(generationMW...)
	gen.HandleFunc("/generate-test", h.GenerateTest).Methods(http.MethodPost)
	gen.HandleFunc("/generate-paper", h.GeneratePaper).Methods(http.MethodPost)

	r.HandleFunc("/generate-test/health", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/score", h.Score).Methods(http.MethodPost)
	r.HandleFunc("/deduplicate", h.Deduplicate).Methods(http.MethodPost)
	r.HandleFunc("/runs", h.ListRuns).Methods(http.MethodGet)
}

func (h *Handler) GenerateTest(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateTestRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	userID, _ := auth.UserID(r.Context())
	resp, err := h.service.GenerateTest(r.Context(), userID, req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) GeneratePaper(w http.ResponseWriter, r *http.Request) {
	var req models.GenerationRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	userID, _ := auth.UserID(r.Context())
	resp, err := h.service.GeneratePaper(r.Context(), userID, req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) Score(w http.ResponseWriter, r *http.Request) {
	var req models.ScoreRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if len(req.Questions) == 0 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "questions are required"})
		return
	}
	if req.NCERTWeight < 0 || req.NCERTWeight > 1 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "ncertWeight must be between 0 and 1"})
		return
	}
	if err := validateQuestions(req.Questions); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, h.service.Score(req))
}

func (h *Handler) Deduplicate(w http.ResponseWriter, r *http.Request) {
	var req models.DeduplicateRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	switch req.Mode {
	case "", models.DedupFast, models.DedupFull, models.DedupBatch:
	default:
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "mode must be 'fast', 'full', or 'batch'"})
		return
	}
	if req.Threshold < 0 || req.Threshold > 1 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "threshold must be between 0 and 1"})
		return
	}
	if err := validateQuestions(req.Questions); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	resp := h.service.Deduplicate(req)
	if resp.Unique == nil {
		resp.Unique = []models.Question{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit := intQueryParam(query, "limit", 20)
	offset := intQueryParam(query, "offset", 0)
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	userID, ok := auth.UserID(r.Context())
	if !ok || userID == "" {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	runs, err := h.service.ListRuns(r.Context(), userID, limit, offset)
	if err != nil {
		h.logger.Error("list runs failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to list runs"})
		return
	}

	if runs == nil {
		runs = []models.GenerationRun{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	probe := r.URL.Query().Get("probe") == "true"
	report := h.service.Health(r.Context(), probe)

	status := http.StatusOK
	if !report.OK {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

// writeError maps pipeline errors onto status codes.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var genValidation *generator.ValidationError
	var reqValidation *payload.ValidationError
	var exhausted *generator.GenerationExhaustedError

	switch {
	case errors.As(err, &genValidation):
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Missing required fields"})
	case errors.As(err, &reqValidation):
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: reqValidation.Error()})
	case errors.As(err, &exhausted):
		writeJSON(w, http.StatusBadGateway, models.ErrorResponse{
			Error: "No test content received from LLMs",
			Debug: exhausted.Debug(),
		})
	case errors.Is(err, ErrUnparseable):
		writeJSON(w, http.StatusBadGateway, models.ErrorResponse{Error: err.Error()})
	default:
		h.logger.Error("generation failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: err.Error()})
	}
}

func validateQuestions(qs []models.Question) error {
	for i, q := range qs {
		if err := q.Validate(); err != nil {
			return fmt.Errorf("question %d: %w", i+1, err)
		}
	}
	return nil
}

// decodeBody reads a JSON body. Generation routes report a failure as an
// unexpected error (500 with the raw message); the offline tools answer 400.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

func intQueryParam(query url.Values, key string, defaultVal int) int {
	v := query.Get(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return defaultVal
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
