package scorer

import (
	"math"
	"strings"

	"github.com/a4ai/testgen/internal/models"
)

// Decay per level of distance when the requested and actual levels differ.
const cognitiveScoreDecay = 0.3

// CognitiveWeights rewards matching harder cognitive demands.
type CognitiveWeights struct {
	Recall     float64 `json:"recall"`
	Understand float64 `json:"understand"`
	Apply      float64 `json:"apply"`
	Analyze    float64 `json:"analyze"`
}

func DefaultCognitiveWeights() CognitiveWeights {
	return CognitiveWeights{
		Recall:     0.8,
		Understand: 1.0,
		Apply:      1.2,
		Analyze:    1.5,
	}
}

func (w CognitiveWeights) For(level models.CognitiveLevel) float64 {
	switch level {
	case models.CognitiveRecall:
		return w.Recall
	case models.CognitiveUnderstand:
		return w.Understand
	case models.CognitiveApply:
		return w.Apply
	case models.CognitiveAnalyze:
		return w.Analyze
	default:
		return 1.0
	}
}

// Indicator patterns per level, in hierarchy order.
var cognitivePatterns = [][]string{
	{"recall", "remember", "define", "list", "name", "state", "what is"},
	{"explain", "describe", "understand", "discuss", "summarize", "meaning"},
	{"apply", "calculate", "solve", "use", "demonstrate", "find", "compute"},
	{"analyze", "compare", "contrast", "differentiate", "evaluate", "justify", "why"},
}

type Classification struct {
	Level      models.CognitiveLevel `json:"level"`
	Confidence float64               `json:"confidence"`
	Indicators []string              `json:"indicators"`
}

// ClassifyCognitive infers the cognitive level of a question from its text and
// solution. Every matching pattern adds one to its level; the highest count
// wins and ties go to the lower level. With no match at all the level is
// models.DefaultCognitive and confidence is 0.5.
func ClassifyCognitive(text, solution string) Classification {
	full := strings.ToLower(text + " " + solution)

	counts := make([]int, len(models.CognitiveHierarchy))
	var indicators []string
	total := 0
	for i, patterns := range cognitivePatterns {
		for _, p := range patterns {
			if strings.Contains(full, p) {
				counts[i]++
				total++
			}
		}
		if counts[i] > 0 {
			indicators = append(indicators, string(models.CognitiveHierarchy[i]))
		}
	}

	if total == 0 {
		return Classification{Level: models.DefaultCognitive, Confidence: 0.5}
	}

	best := 0
	for i := 1; i < len(counts); i++ {
		if counts[i] > counts[best] {
			best = i
		}
	}

	return Classification{
		Level:      models.CognitiveHierarchy[best],
		Confidence: float64(counts[best]) / float64(total),
		Indicators: indicators,
	}
}

// CognitiveAlignment is the distance curve: 1.0 for equal levels, falling by
// 0.3 per level of distance, never below 0. Unknown levels score 0.5.
func CognitiveAlignment(expected, actual models.CognitiveLevel) float64 {
	ei := expected.OrDefault().Index()
	ai := actual.OrDefault().Index()
	if ei < 0 || ai < 0 {
		return 0.5
	}
	distance := math.Abs(float64(ei - ai))
	return math.Max(0, 1-distance*cognitiveScoreDecay)
}

// CognitiveScore returns the configured weight of the level when expected and
// actual agree, and CognitiveAlignment otherwise.
func CognitiveScore(expected, actual models.CognitiveLevel, weights CognitiveWeights) float64 {
	expected = expected.OrDefault()
	actual = actual.OrDefault()
	if expected == actual {
		return weights.For(actual)
	}
	return CognitiveAlignment(expected, actual)
}

var subjectCognitiveLevels = map[string][]models.CognitiveLevel{
	"physics":     {models.CognitiveRecall, models.CognitiveUnderstand, models.CognitiveApply, models.CognitiveAnalyze},
	"chemistry":   {models.CognitiveRecall, models.CognitiveUnderstand, models.CognitiveApply},
	"mathematics": {models.CognitiveUnderstand, models.CognitiveApply, models.CognitiveAnalyze},
}

// CognitiveAllowed reports whether a level is permitted for the subject.
// Subjects without an entry allow understand and apply.
func CognitiveAllowed(subject string, level models.CognitiveLevel) bool {
	levels, ok := subjectCognitiveLevels[strings.ToLower(strings.TrimSpace(subject))]
	if !ok {
		levels = []models.CognitiveLevel{models.CognitiveUnderstand, models.CognitiveApply}
	}
	for _, l := range levels {
		if l == level {
			return true
		}
	}
	return false
}
