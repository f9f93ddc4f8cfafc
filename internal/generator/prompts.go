package generator

import (
	"fmt"
	"strings"

	"github.com/a4ai/testgen/internal/models"
)

// FormatJSON asks the model for the structured question schema parsed by
// ParseQuestions.
const FormatJSON = "json"

func BuildSystemPrompt(req models.GenerateTestRequest) string {
	return fmt.Sprintf(
		"You are an expert educator tasked with creating high-quality %s test questions. Create %d %s questions at %s difficulty level.",
		req.Subject, req.Count(), req.QuestionType, req.Difficulty)
}

func BuildUserPrompt(req models.GenerateTestRequest) string {
	var sb strings.Builder

	sb.WriteString("Generate a " + req.Subject + " test")
	if req.Topic != "" {
		sb.WriteString(" on the topic of " + req.Topic)
	}
	sb.WriteString(fmt.Sprintf(". The test should include %d questions at %s difficulty level in %s format.",
		req.Count(), req.Difficulty, req.QuestionType))
	sb.WriteString(" The output should be formatted as " + req.OutputFormat + ".")
	if req.AdditionalRequirements != "" {
		sb.WriteString(" Additional requirements: " + req.AdditionalRequirements)
	}

	if instructions := formatInstructions(req.OutputFormat); instructions != "" {
		sb.WriteString(" " + instructions)
	}

	return sb.String()
}

func formatInstructions(outputFormat string) string {
	switch strings.ToLower(strings.TrimSpace(outputFormat)) {
	case "pdf", "docx", "html":
		return "Format the output as clean markup that could be easily converted to the requested format."
	case "plain text":
		return "Format the output as plain text with clear question numbering and spacing."
	case FormatJSON:
		return questionSchemaInstructions
	default:
		return ""
	}
}

const questionSchemaInstructions = `Respond with ONLY valid JSON, no commentary, in this shape:
{
  "questions": [
    {
      "text": "question stem",
      "type": "mcq | short | long | numerical | case_based | assertion_reason",
      "difficulty": "easy | medium | hard",
      "cognitive": "recall | understand | apply | analyze",
      "marks": 1,
      "topics": ["topic"],
      "options": ["only for mcq"],
      "answer": "correct answer",
      "solution": "worked solution"
    }
  ]
}`

// BucketRequirements describes the bucket plan of a structured request for
// the additional requirements of the user prompt.
func BucketRequirements(req models.GenerationRequest) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Class %d, %s board.", req.ClassNum, req.Board))

	for _, b := range req.Buckets {
		sb.WriteString(fmt.Sprintf(" %d %s question(s) of %d mark(s), %s difficulty, %s level",
			b.Count, b.Type, b.Marks, b.Difficulty.OrDefault(), b.Cognitive.OrDefault()))
		if len(b.Chapters) > 0 {
			sb.WriteString(" from " + strings.Join(b.Chapters, ", "))
		}
		sb.WriteString(".")
	}

	if req.UseNCERT && len(req.NCERTChapters) > 0 {
		sb.WriteString(" Follow the NCERT chapters: " + strings.Join(req.NCERTChapters, ", ") + ".")
	}
	if req.AvoidDuplicates {
		sb.WriteString(" Do not repeat questions.")
	}
	return sb.String()
}
