package generator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/a4ai/testgen/internal/models"
)

// ParsedBatch is the result of reading structured model output. Rejected lists
// one reason per question that was dropped.
type ParsedBatch struct {
	Questions []models.Question
	Rejected  []string
}

type generatedQuestion struct {
	ID         string   `json:"id"`
	Text       string   `json:"text"`
	Stem       string   `json:"stem"`
	Type       string   `json:"type"`
	Difficulty string   `json:"difficulty"`
	Cognitive  string   `json:"cognitive"`
	Marks      int      `json:"marks"`
	Topics     []string `json:"topics"`
	Options    []string `json:"options"`
	Answer     string   `json:"answer"`
	Solution   string   `json:"solution"`
}

type generatedBatch struct {
	Questions []generatedQuestion `json:"questions"`
}

// ParseQuestions reads model output in the question schema. Code fences are
// tolerated, as is a bare JSON array. Questions with unknown enum values or an
// empty stem are rejected; missing marks default to 1, missing difficulty to
// medium and missing cognitive level to understand.
func ParseQuestions(responseBody string) (*ParsedBatch, error) {
	cleaned := stripCodeFences(responseBody)

	var batch generatedBatch
	if strings.HasPrefix(cleaned, "[") {
		if err := json.Unmarshal([]byte(cleaned), &batch.Questions); err != nil {
			return nil, fmt.Errorf("failed to parse JSON response: %w", err)
		}
	} else if err := json.Unmarshal([]byte(cleaned), &batch); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	if len(batch.Questions) == 0 {
		return nil, &ValidationError{Errors: []string{"no questions in response"}}
	}

	out := &ParsedBatch{}
	for i, g := range batch.Questions {
		q, err := g.toQuestion(i)
		if err != nil {
			out.Rejected = append(out.Rejected, fmt.Sprintf("question %d: %v", i+1, err))
			continue
		}
		out.Questions = append(out.Questions, q)
	}

	if len(out.Questions) == 0 {
		return nil, &ValidationError{Errors: out.Rejected}
	}
	return out, nil
}

func (g generatedQuestion) toQuestion(index int) (models.Question, error) {
	text := strings.TrimSpace(g.Text)
	if text == "" {
		text = strings.TrimSpace(g.Stem)
	}
	if text == "" {
		return models.Question{}, fmt.Errorf("empty text")
	}

	qType, err := models.ParseQuestionType(g.Type)
	if err != nil {
		return models.Question{}, err
	}

	difficulty := models.DefaultDifficulty
	if g.Difficulty != "" {
		if difficulty, err = models.ParseDifficulty(g.Difficulty); err != nil {
			return models.Question{}, err
		}
	}

	cognitive, err := models.ParseCognitive(g.Cognitive)
	if err != nil {
		return models.Question{}, err
	}

	marks := g.Marks
	if marks <= 0 {
		marks = 1
	}

	id := g.ID
	if id == "" {
		id = fmt.Sprintf("q%d", index+1)
	}

	return models.Question{
		ID:         id,
		Text:       text,
		Type:       qType,
		Difficulty: difficulty,
		Cognitive:  cognitive,
		Marks:      marks,
		Topics:     g.Topics,
		Options:    g.Options,
		Answer:     g.Answer,
		Solution:   g.Solution,
	}, nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimSpace(s)
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSpace(s)
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}
	return s
}
