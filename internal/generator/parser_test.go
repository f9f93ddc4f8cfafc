package generator

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/a4ai/testgen/internal/models"
)

func validBatchJSON(count int) string {
	types := []string{"mcq", "short", "long", "numerical"}
	batch := generatedBatch{Questions: make([]generatedQuestion, count)}

	for i := 0; i < count; i++ {
		batch.Questions[i] = generatedQuestion{
			Text:       "Calculate the net force on the block in case " + strings.Repeat("I", i+1),
			Type:       types[i%len(types)],
			Difficulty: "medium",
			Cognitive:  "apply",
			Marks:      i%3 + 1,
			Topics:     []string{"force"},
			Answer:     "10 N",
			Solution:   "Using F = ma with m = 2 kg and a = 5 m/s^2.",
		}
	}

	data, _ := json.Marshal(batch)
	return string(data)
}

func TestParseQuestions_ValidJSON(t *testing.T) {
	batch, err := ParseQuestions(validBatchJSON(6))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if len(batch.Questions) != 6 {
		t.Errorf("expected 6 questions, got %d", len(batch.Questions))
	}
	if len(batch.Rejected) != 0 {
		t.Errorf("expected nothing rejected, got %v", batch.Rejected)
	}

	for i, q := range batch.Questions {
		if err := q.Validate(); err != nil {
			t.Errorf("question %d invalid: %v", i+1, err)
		}
		if q.ID == "" {
			t.Errorf("question %d: expected an assigned id", i+1)
		}
	}
}

func TestParseQuestions_MarkdownFences(t *testing.T) {
	input := "```json\n" + validBatchJSON(3) + "\n```"

	batch, err := ParseQuestions(input)
	if err != nil {
		t.Fatalf("expected no error with markdown fences, got: %v", err)
	}
	if len(batch.Questions) != 3 {
		t.Errorf("expected 3 questions, got %d", len(batch.Questions))
	}
}

func TestParseQuestions_BareArray(t *testing.T) {
	input := `[{"stem":"Define inertia.","type":"Short"}]`

	batch, err := ParseQuestions(input)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	q := batch.Questions[0]
	if q.Text != "Define inertia." {
		t.Errorf("expected stem to fill text, got %q", q.Text)
	}
	if q.Type != models.TypeShort {
		t.Errorf("expected normalized type short, got %q", q.Type)
	}
	if q.Marks != 1 || q.Cognitive != models.CognitiveUnderstand || q.Difficulty != models.DifficultyMedium {
		t.Errorf("expected documented defaults, got marks=%d cognitive=%q difficulty=%q", q.Marks, q.Cognitive, q.Difficulty)
	}
}

func TestParseQuestions_RejectsUnknownEnums(t *testing.T) {
	input := `{"questions":[
		{"text":"Define inertia.","type":"mcq","cognitive":"create"},
		{"text":"State Ohm's law.","type":"essay"},
		{"text":"Why is the sky blue?","type":"long","difficulty":"extreme"},
		{"text":"   ","type":"mcq"},
		{"text":"Compute the current.","type":"numerical","marks":3}
	]}`

	batch, err := ParseQuestions(input)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(batch.Questions) != 1 || batch.Questions[0].Marks != 3 {
		t.Errorf("expected only the numerical question kept, got %+v", batch.Questions)
	}
	if len(batch.Rejected) != 4 {
		t.Errorf("expected 4 rejections, got %v", batch.Rejected)
	}
}

func TestParseQuestions_AllRejected(t *testing.T) {
	_, err := ParseQuestions(`{"questions":[{"text":"x","type":"essay"}]}`)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestParseQuestions_Empty(t *testing.T) {
	_, err := ParseQuestions(`{"questions":[]}`)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for empty batch, got %v", err)
	}
}

func TestParseQuestions_InvalidJSON(t *testing.T) {
	if _, err := ParseQuestions("1. What is force?\n2. Define motion."); err == nil {
		t.Fatal("expected error for plain text output")
	}
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"```json\n{}\n```", "{}"},
		{"```\n{}\n```", "{}"},
		{"  {}  ", "{}"},
		{"{}", "{}"},
	}

	for _, tt := range tests {
		if got := stripCodeFences(tt.input); got != tt.expected {
			t.Errorf("stripCodeFences(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestMockClient_ParsesAsQuestions(t *testing.T) {
	resp, err := NewMockClient("").Generate(t.Context(), "sys", "user", CallOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	batch, err := ParseQuestions(resp.Content)
	if err != nil {
		t.Fatalf("mock output should parse: %v", err)
	}
	if len(batch.Questions) != 5 {
		t.Errorf("expected 5 mock questions, got %d", len(batch.Questions))
	}
}
