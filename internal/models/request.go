package models

import "time"

// ── Request Types ─────────────────────────────────────

// GenerateTestRequest is the body of POST /generate-test. QuestionCount is a
// pointer so an omitted field can be told apart from an explicit value.
type GenerateTestRequest struct {
	Subject                string `json:"subject"`
	Topic                  string `json:"topic,omitempty"`
	Difficulty             string `json:"difficulty"`
	QuestionType           string `json:"questionType"`
	QuestionCount          *int   `json:"questionCount"`
	OutputFormat           string `json:"outputFormat"`
	AdditionalRequirements string `json:"additionalRequirements,omitempty"`
}

// Count returns the requested question count, or 0 when it was omitted.
func (r GenerateTestRequest) Count() int {
	if r.QuestionCount == nil {
		return 0
	}
	return *r.QuestionCount
}

type GenerateTestMetadata struct {
	Subject       string    `json:"subject"`
	Topic         string    `json:"topic"`
	Difficulty    string    `json:"difficulty"`
	QuestionType  string    `json:"questionType"`
	QuestionCount int       `json:"questionCount"`
	GeneratedAt   time.Time `json:"generatedAt"`
}

type GenerateTestResponse struct {
	Test     string               `json:"test"`
	Provider string               `json:"provider"`
	Metadata GenerateTestMetadata `json:"metadata"`
}

type GeneratePaperResponse struct {
	RequestID  string               `json:"requestId,omitempty"`
	Test       string               `json:"test"`
	Provider   string               `json:"provider"`
	Questions  []Question           `json:"questions,omitempty"`
	Duplicates DuplicateMap         `json:"duplicates,omitempty"`
	Report     *ScoreReport         `json:"report,omitempty"`
	Metadata   GenerateTestMetadata `json:"metadata"`
}

type ScoreRequest struct {
	Subject     string         `json:"subject"`
	Topic       string         `json:"topic"`
	NCERTWeight float64        `json:"ncertWeight"`
	Difficulty  Difficulty     `json:"expectedDifficulty,omitempty"`
	Cognitive   CognitiveLevel `json:"expectedCognitive,omitempty"`
	Questions   []Question     `json:"questions"`
}

type ScoreResponse struct {
	Questions []Question  `json:"questions"`
	Report    ScoreReport `json:"report"`
}

type DedupMode string

const (
	DedupFast  DedupMode = "fast"
	DedupFull  DedupMode = "full"
	DedupBatch DedupMode = "batch"
)

type DeduplicateRequest struct {
	Questions []Question `json:"questions"`
	Mode      DedupMode  `json:"mode"`
	Threshold float64    `json:"threshold,omitempty"`
	BatchSize int        `json:"batchSize,omitempty"`
}

type DeduplicateResponse struct {
	Unique     []Question   `json:"unique"`
	Duplicates DuplicateMap `json:"duplicates,omitempty"`
	Removed    int          `json:"removed"`
}

// ── Persistence ───────────────────────────────────────

type RunStatus string

const (
	RunSucceeded RunStatus = "succeeded"
	RunExhausted RunStatus = "exhausted"
	RunInvalid   RunStatus = "invalid"
	RunFailed    RunStatus = "failed"
)

// GenerationRun records the provenance of one generation call.
type GenerationRun struct {
	ID             string    `json:"id"`
	RequestID      string    `json:"requestId,omitempty"`
	UserID         string    `json:"userId,omitempty"`
	Subject        string    `json:"subject"`
	Topic          string    `json:"topic,omitempty"`
	QuestionCount  int       `json:"questionCount"`
	Provider       string    `json:"provider,omitempty"`
	PrimaryScore   int       `json:"primaryScore"`
	FallbackScore  int       `json:"fallbackScore"`
	Status         RunStatus `json:"status"`
	ErrorMessage   string    `json:"errorMessage,omitempty"`
	ProviderErrors []string  `json:"providerErrors,omitempty"`
	DurationMs     int64     `json:"durationMs"`
	QuestionsKept  int       `json:"questionsKept"`
	AverageQuality *float64  `json:"averageQuality,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

type ErrorResponse struct {
	Error string            `json:"error"`
	Debug map[string]string `json:"debug,omitempty"`
}
