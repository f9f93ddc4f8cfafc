package models

import (
	"fmt"
	"strings"
)

type QuestionType string

const (
	TypeMCQ             QuestionType = "mcq"
	TypeShort           QuestionType = "short"
	TypeLong            QuestionType = "long"
	TypeNumerical       QuestionType = "numerical"
	TypeCaseBased       QuestionType = "case_based"
	TypeAssertionReason QuestionType = "assertion_reason"
)

var ValidQuestionTypes = map[QuestionType]bool{
	TypeMCQ:             true,
	TypeShort:           true,
	TypeLong:            true,
	TypeNumerical:       true,
	TypeCaseBased:       true,
	TypeAssertionReason: true,
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

var ValidDifficulties = map[Difficulty]bool{
	DifficultyEasy:   true,
	DifficultyMedium: true,
	DifficultyHard:   true,
}

// CognitiveLevel is the Bloom-style demand of a question. Levels are ordered:
// recall < understand < apply < analyze.
type CognitiveLevel string

const (
	CognitiveRecall     CognitiveLevel = "recall"
	CognitiveUnderstand CognitiveLevel = "understand"
	CognitiveApply      CognitiveLevel = "apply"
	CognitiveAnalyze    CognitiveLevel = "analyze"
)

// CognitiveHierarchy lists the levels in ascending order of demand.
var CognitiveHierarchy = []CognitiveLevel{
	CognitiveRecall,
	CognitiveUnderstand,
	CognitiveApply,
	CognitiveAnalyze,
}

// DefaultCognitive is used wherever a question or bucket omits its level.
const DefaultCognitive = CognitiveUnderstand

// DefaultDifficulty is used wherever a question omits its difficulty.
const DefaultDifficulty = DifficultyMedium

// Index returns the position of the level in CognitiveHierarchy, or -1.
func (c CognitiveLevel) Index() int {
	for i, l := range CognitiveHierarchy {
		if l == c {
			return i
		}
	}
	return -1
}

// OrDefault returns DefaultCognitive for the empty level.
func (c CognitiveLevel) OrDefault() CognitiveLevel {
	if c == "" {
		return DefaultCognitive
	}
	return c
}

func (d Difficulty) OrDefault() Difficulty {
	if d == "" {
		return DefaultDifficulty
	}
	return d
}

// ParseQuestionType normalizes s and rejects values outside the closed set.
func ParseQuestionType(s string) (QuestionType, error) {
	t := QuestionType(normalizeEnum(s))
	if !ValidQuestionTypes[t] {
		return "", fmt.Errorf("invalid question type %q", s)
	}
	return t, nil
}

func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(normalizeEnum(s))
	if !ValidDifficulties[d] {
		return "", fmt.Errorf("invalid difficulty %q", s)
	}
	return d, nil
}

// ParseCognitive accepts the four levels. The empty string maps to
// DefaultCognitive rather than an error.
func ParseCognitive(s string) (CognitiveLevel, error) {
	n := normalizeEnum(s)
	if n == "" {
		return DefaultCognitive, nil
	}
	c := CognitiveLevel(n)
	if c.Index() < 0 {
		return "", fmt.Errorf("invalid cognitive level %q", s)
	}
	return c, nil
}

func normalizeEnum(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "_")
	return strings.ReplaceAll(s, " ", "_")
}

// ── Core Structs ───────────────────────────────────────

type QuestionMeta struct {
	Keywords []string `json:"keywords,omitempty"`
	Score    *float64 `json:"score,omitempty"`
}

type Question struct {
	ID         string         `json:"id,omitempty"`
	Text       string         `json:"text"`
	Type       QuestionType   `json:"type"`
	Difficulty Difficulty     `json:"difficulty"`
	Cognitive  CognitiveLevel `json:"cognitive"`
	Marks      int            `json:"marks"`
	Topics     []string       `json:"topics,omitempty"`
	Options    []string       `json:"options,omitempty"`
	Solution   string         `json:"solution,omitempty"`
	Answer     string         `json:"answer,omitempty"`
	Meta       QuestionMeta   `json:"meta"`
}

// MarksOrDefault treats unset marks as 1, matching how generated questions
// without marks are compared.
func (q Question) MarksOrDefault() int {
	if q.Marks <= 0 {
		return 1
	}
	return q.Marks
}

// Validate checks the closed enumerations and the marks invariant.
func (q Question) Validate() error {
	if q.Marks <= 0 {
		return fmt.Errorf("marks must be positive, got %d", q.Marks)
	}
	if !ValidQuestionTypes[q.Type] {
		return fmt.Errorf("invalid question type %q", q.Type)
	}
	if q.Cognitive.OrDefault().Index() < 0 {
		return fmt.Errorf("invalid cognitive level %q", q.Cognitive)
	}
	if q.Difficulty != "" && !ValidDifficulties[q.Difficulty] {
		return fmt.Errorf("invalid difficulty %q", q.Difficulty)
	}
	return nil
}

// WithScore returns a copy of q carrying score. Keyword slices are cloned so the
// copy shares nothing mutable with q.
func (q Question) WithScore(score float64) Question {
	out := q
	out.Topics = append([]string(nil), q.Topics...)
	out.Options = append([]string(nil), q.Options...)
	out.Meta.Keywords = append([]string(nil), q.Meta.Keywords...)
	out.Meta.Score = &score
	return out
}

// Bucket is an independent demand for Count questions of one shape.
type Bucket struct {
	Type       QuestionType   `json:"type"`
	Difficulty Difficulty     `json:"difficulty"`
	Cognitive  CognitiveLevel `json:"cognitive"`
	Count      int            `json:"count"`
	Marks      int            `json:"marks"`
	Chapters   []string       `json:"chapters,omitempty"`
	Topics     []string       `json:"topics,omitempty"`
}

// Key identifies the bucket shape; questions with the same shape share a key.
func (b Bucket) Key() string {
	return BucketKey(b.Type, b.Difficulty, b.Cognitive, b.Marks)
}

func BucketKey(t QuestionType, d Difficulty, c CognitiveLevel, marks int) string {
	return fmt.Sprintf("%s/%s/%s/%d", t, d.OrDefault(), c.OrDefault(), marks)
}

// BucketKeyFor returns the bucket key a question falls into.
func BucketKeyFor(q Question) string {
	return BucketKey(q.Type, q.Difficulty, q.Cognitive, q.MarksOrDefault())
}

// GenerationRequest describes a whole exam. It is built once per submission
// and never mutated after it is sent.
type GenerationRequest struct {
	RequestID       string           `json:"requestId,omitempty"`
	UserID          string           `json:"userId,omitempty"`
	ExamTitle       string           `json:"examTitle,omitempty"`
	Subject         string           `json:"subject"`
	Board           string           `json:"board"`
	ClassNum        int              `json:"classNum"`
	Topic           string           `json:"topic,omitempty"`
	Buckets         []Bucket         `json:"buckets"`
	CognitiveLevels []CognitiveLevel `json:"cognitiveLevels,omitempty"`
	NCERTWeight     float64          `json:"ncertWeight"`
	AvoidDuplicates bool             `json:"avoidDuplicates"`
	UseNCERT        bool             `json:"useNCERT,omitempty"`
	NCERTChapters   []string         `json:"ncertChapters,omitempty"`
	QCount          int              `json:"qCount,omitempty"`
	Watermark       bool             `json:"watermark,omitempty"`
	Shuffle         bool             `json:"shuffleQuestions,omitempty"`
	OutputFormat    string           `json:"outputFormat,omitempty"`
}

// TotalQuestions sums the bucket counts.
func (r GenerationRequest) TotalQuestions() int {
	total := 0
	for _, b := range r.Buckets {
		total += b.Count
	}
	return total
}

// ── Derived Results ────────────────────────────────────

type ScoreReport struct {
	QuestionCount   int                `json:"questionCount"`
	Overall         float64            `json:"overall"`
	ByBucket        map[string]float64 `json:"byBucket"`
	ByCognitive     map[string]float64 `json:"byCognitive"`
	ByDifficulty    map[string]float64 `json:"byDifficulty"`
	Recommendations []string           `json:"recommendations"`
}

// DuplicateMap maps a question id to the ids of later questions judged
// near-duplicates of it.
type DuplicateMap map[string][]string

// ProviderResponse is one candidate text from a single LLM call.
type ProviderResponse struct {
	Provider     string `json:"provider"`
	Text         string `json:"text"`
	KeywordScore int    `json:"keywordScore"`
	Err          string `json:"error,omitempty"`
}
