package scorer

import (
	"math"
	"strings"
)

var syllabusKeywords = map[string][]string{
	"physics":     {"force", "energy", "motion", "wave", "electric", "magnetic", "work", "power"},
	"chemistry":   {"mole", "bond", "reaction", "organic", "periodic", "acid", "base"},
	"mathematics": {"algebra", "geometry", "calculus", "trigonometry", "probability", "equation"},
}

var (
	ncertTerms = []string{
		"ncert", "textbook", "exercise", "example", "chapter",
		"as per syllabus", "curriculum", "board pattern",
	}
	conceptualIndicators = []string{
		"explain", "derive", "prove", "show that", "demonstrate",
		"analyze", "compare", "contrast",
	}
	applicationIndicators = []string{
		"real world", "application", "example from", "daily life",
		"practical", "experiment", "observation",
	}
)

// SyllabusScore measures presence of the subject's curriculum keywords.
// Matching half of the subject's list already gives full credit. Subjects
// without a keyword list score 0.
func SyllabusScore(subject, text string) float64 {
	keywords := syllabusKeywords[strings.ToLower(strings.TrimSpace(subject))]
	if len(keywords) == 0 {
		return 0
	}
	matches := MatchCount(text, keywords)
	return math.Min(float64(matches)/math.Max(float64(len(keywords))/2, 1), 1)
}

// NCERTScore rates curriculum-style phrasing in a question and its solution:
// curriculum references (0.3), conceptual verbs (0.4) and real-world
// application phrases (0.3), each capped, summed and clamped to 1.
func NCERTScore(text, solution string) float64 {
	full := text + " " + solution

	score := math.Min(float64(MatchCount(full, ncertTerms))/3, 1) * 0.3
	score += math.Min(float64(MatchCount(full, conceptualIndicators))/2, 1) * 0.4
	score += math.Min(float64(MatchCount(full, applicationIndicators))/2, 1) * 0.3

	return math.Min(score, 1)
}

// SyllabusAlignment combines keyword presence and NCERT phrasing into one
// [0,1] signal. It feeds ranking only.
func SyllabusAlignment(subject, text, solution string) float64 {
	return (SyllabusScore(subject, text) + NCERTScore(text, solution)) / 2
}
