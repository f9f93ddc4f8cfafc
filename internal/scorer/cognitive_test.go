package scorer

import (
	"testing"

	"github.com/a4ai/testgen/internal/models"
)

func TestClassifyCognitive(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		solution   string
		level      models.CognitiveLevel
		confidence float64
	}{
		{"recall", "Define velocity.", "", models.CognitiveRecall, 1.0},
		{"understand", "Explain the process.", "", models.CognitiveUnderstand, 1.0},
		{"apply", "Calculate the speed of the car.", "", models.CognitiveApply, 1.0},
		{"analyze", "Compare the two graphs.", "", models.CognitiveAnalyze, 1.0},
		{"tie goes to lower level", "Define and explain inertia.", "", models.CognitiveRecall, 0.5},
		{"solution counts", "Photosynthesis in green plants.", "We calculate the rate.", models.CognitiveApply, 1.0},
		{"no indicators", "Photosynthesis in green plants.", "", models.CognitiveUnderstand, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyCognitive(tt.text, tt.solution)
			if got.Level != tt.level {
				t.Errorf("expected level %q, got %q", tt.level, got.Level)
			}
			if !almostEqual(got.Confidence, tt.confidence) {
				t.Errorf("expected confidence %f, got %f", tt.confidence, got.Confidence)
			}
		})
	}
}

func TestClassifyCognitive_ConfidenceRange(t *testing.T) {
	texts := []string{
		"",
		"Define, explain, calculate and compare why the force differs.",
		"List and name the states of matter; state why.",
	}
	for _, text := range texts {
		got := ClassifyCognitive(text, "")
		if got.Confidence < 0 || got.Confidence > 1 {
			t.Errorf("confidence %f out of range for %q", got.Confidence, text)
		}
	}
}

func TestCognitiveAlignment_PenaltyStructure(t *testing.T) {
	for _, l := range models.CognitiveHierarchy {
		if got := CognitiveAlignment(l, l); !almostEqual(got, 1.0) {
			t.Errorf("expected 1.0 for equal level %q, got %f", l, got)
		}
	}

	expected := models.CognitiveRecall
	prev := 1.0
	for _, actual := range models.CognitiveHierarchy[1:] {
		got := CognitiveAlignment(expected, actual)
		if got >= prev {
			t.Errorf("alignment not strictly decreasing at %q: %f >= %f", actual, got, prev)
		}
		if got < 0 {
			t.Errorf("alignment below 0 at %q: %f", actual, got)
		}
		prev = got
	}

	// recall vs analyze is 3 levels apart.
	if got := CognitiveAlignment(models.CognitiveRecall, models.CognitiveAnalyze); !almostEqual(got, 0.1) {
		t.Errorf("expected 0.1 for distance 3, got %f", got)
	}
}

func TestCognitiveAlignment_UnknownAndDefault(t *testing.T) {
	if got := CognitiveAlignment("synthesize", models.CognitiveApply); !almostEqual(got, 0.5) {
		t.Errorf("expected 0.5 for unknown level, got %f", got)
	}
	if got := CognitiveAlignment("", models.CognitiveUnderstand); !almostEqual(got, 1.0) {
		t.Errorf("expected empty level to default to understand, got %f", got)
	}
}

func TestCognitiveScore(t *testing.T) {
	w := DefaultCognitiveWeights()
	tests := []struct {
		name     string
		expected models.CognitiveLevel
		actual   models.CognitiveLevel
		want     float64
	}{
		{"equal recall uses weight", models.CognitiveRecall, models.CognitiveRecall, 0.8},
		{"equal analyze uses weight", models.CognitiveAnalyze, models.CognitiveAnalyze, 1.5},
		{"one level apart", models.CognitiveApply, models.CognitiveAnalyze, 0.7},
		{"two levels apart", models.CognitiveRecall, models.CognitiveApply, 0.4},
		{"missing defaults to understand", "", models.CognitiveUnderstand, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CognitiveScore(tt.expected, tt.actual, w)
			if !almostEqual(got, tt.want) {
				t.Errorf("expected %f, got %f", tt.want, got)
			}
		})
	}
}

func TestCognitiveAllowed(t *testing.T) {
	tests := []struct {
		subject string
		level   models.CognitiveLevel
		want    bool
	}{
		{"Physics", models.CognitiveAnalyze, true},
		{"chemistry", models.CognitiveAnalyze, false},
		{"mathematics", models.CognitiveRecall, false},
		{"History", models.CognitiveApply, true},
		{"History", models.CognitiveRecall, false},
	}

	for _, tt := range tests {
		if got := CognitiveAllowed(tt.subject, tt.level); got != tt.want {
			t.Errorf("CognitiveAllowed(%q, %q) = %v, want %v", tt.subject, tt.level, got, tt.want)
		}
	}
}
