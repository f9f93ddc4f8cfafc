package testgen

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/a4ai/testgen/internal/models"
)

// Store records generation runs.
type Store interface {
	CreateRun(ctx context.Context, run *models.GenerationRun) error
	// ListRuns returns the runs owned by userID. An empty userID matches
	// nothing.
	ListRuns(ctx context.Context, userID string, limit, offset int) ([]models.GenerationRun, error)
}

// ── Postgres ────────────────────────────────────────────

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateRun(ctx context.Context, run *models.GenerationRun) error {
	var providerErrors []byte
	if len(run.ProviderErrors) > 0 {
		data, err := json.Marshal(run.ProviderErrors)
		if err != nil {
			return fmt.Errorf("encode provider errors: %w", err)
		}
		providerErrors = data
	}

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO generation_runs (id, request_id, user_id, subject, topic, question_count,
		     provider, primary_score, fallback_score, status, error_message, provider_errors,
		     duration_ms, questions_kept, average_quality)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 RETURNING created_at`,
		run.ID, nullString(run.RequestID), nullString(run.UserID), run.Subject, nullString(run.Topic),
		run.QuestionCount, nullString(run.Provider), run.PrimaryScore, run.FallbackScore,
		run.Status, nullString(run.ErrorMessage), providerErrors,
		run.DurationMs, run.QuestionsKept, run.AverageQuality,
	).Scan(&run.CreatedAt)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, userID string, limit, offset int) ([]models.GenerationRun, error) {
	if userID == "" {
		return nil, nil
	}

	selectCols := `id, COALESCE(request_id, ''), COALESCE(user_id, ''), subject, COALESCE(topic, ''),
		        question_count, COALESCE(provider, ''), primary_score, fallback_score, status,
		        COALESCE(error_message, ''), provider_errors, duration_ms, questions_kept,
		        average_quality, created_at`

	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s FROM generation_runs WHERE user_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, selectCols),
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []models.GenerationRun
	for rows.Next() {
		var r models.GenerationRun
		var providerErrors []byte
		var avg sql.NullFloat64
		if err := rows.Scan(&r.ID, &r.RequestID, &r.UserID, &r.Subject, &r.Topic,
			&r.QuestionCount, &r.Provider, &r.PrimaryScore, &r.FallbackScore, &r.Status,
			&r.ErrorMessage, &providerErrors, &r.DurationMs, &r.QuestionsKept,
			&avg, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if len(providerErrors) > 0 {
			if err := json.Unmarshal(providerErrors, &r.ProviderErrors); err != nil {
				return nil, fmt.Errorf("decode provider errors: %w", err)
			}
		}
		if avg.Valid {
			v := avg.Float64
			r.AverageQuality = &v
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// ── Memory ──────────────────────────────────────────────

// MemoryStore keeps runs in process. It is used when no database is
// configured and in tests.
type MemoryStore struct {
	mu   sync.RWMutex
	runs []models.GenerationRun
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) CreateRun(ctx context.Context, run *models.GenerationRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *run
	cp.ProviderErrors = append([]string(nil), run.ProviderErrors...)
	s.runs = append(s.runs, cp)
	return nil
}

// ListRuns returns the user's runs newest first. Runs without an owner are
// never listed.
func (s *MemoryStore) ListRuns(ctx context.Context, userID string, limit, offset int) ([]models.GenerationRun, error) {
	if userID == "" {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.GenerationRun
	for i := len(s.runs) - 1; i >= 0; i-- {
		if r := s.runs[i]; r.UserID == userID {
			matched = append(matched, r)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if offset >= len(matched) {
		return nil, nil
	}
	end := len(matched)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return matched[offset:end], nil
}
