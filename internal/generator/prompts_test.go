package generator

import (
	"strings"
	"testing"

	"github.com/a4ai/testgen/internal/models"
)

func TestBuildSystemPrompt(t *testing.T) {
	prompt := BuildSystemPrompt(physicsRequest())

	want := "You are an expert educator tasked with creating high-quality Physics test questions. Create 5 mcq questions at medium difficulty level."
	if prompt != want {
		t.Errorf("unexpected system prompt:\n got: %q\nwant: %q", prompt, want)
	}
}

func TestBuildUserPrompt(t *testing.T) {
	req := physicsRequest()
	req.AdditionalRequirements = "Include diagrams."

	prompt := BuildUserPrompt(req)

	required := []string{
		"Generate a Physics test on the topic of force motion.",
		"The test should include 5 questions at medium difficulty level in mcq format.",
		"The output should be formatted as plain text.",
		"Additional requirements: Include diagrams.",
		"clear question numbering",
	}
	for _, keyword := range required {
		if !strings.Contains(prompt, keyword) {
			t.Errorf("user prompt missing %q:\n%s", keyword, prompt)
		}
	}
}

func TestBuildUserPrompt_NoTopic(t *testing.T) {
	req := physicsRequest()
	req.Topic = ""

	prompt := BuildUserPrompt(req)
	if !strings.HasPrefix(prompt, "Generate a Physics test. ") {
		t.Errorf("expected no topic clause, got %q", prompt)
	}
	if strings.Contains(prompt, "Additional requirements") {
		t.Error("expected no additional requirements clause")
	}
}

func TestFormatInstructions(t *testing.T) {
	tests := []struct {
		format   string
		contains string
	}{
		{"PDF", "clean markup"},
		{"docx", "clean markup"},
		{"html", "clean markup"},
		{"Plain Text", "plain text with clear question numbering"},
		{"json", `"questions"`},
		{"csv", ""},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			got := formatInstructions(tt.format)
			if tt.contains == "" && got != "" {
				t.Errorf("expected no instructions for %q, got %q", tt.format, got)
			}
			if !strings.Contains(got, tt.contains) {
				t.Errorf("expected %q in instructions for %q, got %q", tt.contains, tt.format, got)
			}
		})
	}
}

func TestBucketRequirements(t *testing.T) {
	req := models.GenerationRequest{
		Board:    "CBSE",
		ClassNum: 10,
		Buckets: []models.Bucket{
			{Type: models.TypeMCQ, Count: 4, Marks: 1, Chapters: []string{"Motion"}},
			{Type: models.TypeLong, Count: 1, Marks: 5, Difficulty: models.DifficultyHard, Cognitive: models.CognitiveAnalyze},
		},
		UseNCERT:        true,
		NCERTChapters:   []string{"Force and Laws of Motion"},
		AvoidDuplicates: true,
	}

	got := BucketRequirements(req)
	required := []string{
		"Class 10, CBSE board.",
		"4 mcq question(s) of 1 mark(s), medium difficulty, understand level from Motion.",
		"1 long question(s) of 5 mark(s), hard difficulty, analyze level.",
		"NCERT chapters: Force and Laws of Motion",
		"Do not repeat questions.",
	}
	for _, r := range required {
		if !strings.Contains(got, r) {
			t.Errorf("bucket requirements missing %q:\n%s", r, got)
		}
	}
}
