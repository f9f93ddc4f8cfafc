// Package dedup finds and removes near-duplicate questions.
//
// Two strategies are offered. DeduplicateQuestions is a cheap single pass over a
// canonical key plus a text check against already accepted questions.
// FindDuplicates and AdvancedDeduplicate compare every pair with the weighted
// Similarity and are O(n²).
package dedup

import (
	"fmt"
	"strings"

	"github.com/a4ai/testgen/internal/models"
)

const (
	// DefaultThreshold applies to the pairwise path.
	DefaultThreshold = 0.85
	// FastThreshold applies to DeduplicateQuestions when no threshold is set.
	FastThreshold = 0.8
)

type Config struct {
	SimilarityThreshold float64 `json:"similarityThreshold"`
	CheckCognitiveLevel bool    `json:"checkCognitiveLevel"`
	CheckTopics         bool    `json:"checkTopics"`
	CheckConcepts       bool    `json:"checkConcepts"`
}

func DefaultConfig() Config {
	return Config{
		SimilarityThreshold: DefaultThreshold,
		CheckCognitiveLevel: true,
		CheckTopics:         true,
		CheckConcepts:       true,
	}
}

func (c Config) threshold(fallback float64) float64 {
	if c.SimilarityThreshold <= 0 {
		return fallback
	}
	return c.SimilarityThreshold
}

// QuestionID returns q.ID, or question_<index> when the id is empty.
func QuestionID(q models.Question, index int) string {
	if q.ID != "" {
		return q.ID
	}
	return fmt.Sprintf("question_%d", index)
}

// FindDuplicates compares every pair and maps each question's id to the ids of
// later questions at or above the threshold. Questions without duplicates are
// absent from the map.
func FindDuplicates(qs []models.Question, cfg Config) models.DuplicateMap {
	threshold := cfg.threshold(DefaultThreshold)
	duplicates := models.DuplicateMap{}

	for i := 0; i < len(qs); i++ {
		var similar []string
		for j := i + 1; j < len(qs); j++ {
			if Similarity(qs[i], qs[j], cfg) >= threshold {
				similar = append(similar, QuestionID(qs[j], j))
			}
		}
		if len(similar) > 0 {
			duplicates[QuestionID(qs[i], i)] = similar
		}
	}
	return duplicates
}

// CreateQuestionKey builds the canonical key used by DeduplicateQuestions:
// normalized stem, type, marks and cognitive level. Inline $…$ math is
// collapsed to "math" so formatting differences do not split keys.
func CreateQuestionKey(q models.Question) string {
	stem := latexRe.ReplaceAllString(strings.ToLower(q.Text), "math")
	stem = whitespaceRe.ReplaceAllString(stem, " ")
	stem = strings.TrimSpace(punctuationRe.ReplaceAllString(stem, ""))

	return fmt.Sprintf("%s_%s_%d_%s", stem, q.Type, q.MarksOrDefault(), q.Cognitive.OrDefault())
}

// DeduplicateQuestions returns the questions that survive the fast pass, in
// input order. When avoid is false it returns a copy of qs unchanged.
func DeduplicateQuestions(qs []models.Question, avoid bool, cfg Config) []models.Question {
	if !avoid {
		return append([]models.Question(nil), qs...)
	}

	threshold := cfg.threshold(FastThreshold)
	seen := make(map[string]bool, len(qs))
	unique := make([]models.Question, 0, len(qs))

	for _, q := range qs {
		key := CreateQuestionKey(q)
		if seen[key] {
			continue
		}
		if isCognitiveDuplicate(unique, q, threshold) {
			continue
		}
		seen[key] = true
		unique = append(unique, q)
	}
	return unique
}

func isCognitiveDuplicate(accepted []models.Question, q models.Question, threshold float64) bool {
	for _, existing := range accepted {
		if existing.Type != q.Type {
			continue
		}
		diff := existing.MarksOrDefault() - q.MarksOrDefault()
		if diff > 1 || diff < -1 {
			continue
		}
		if existing.Cognitive.OrDefault() != q.Cognitive.OrDefault() {
			continue
		}
		if TextSimilarity(existing.Text, q.Text) >= threshold {
			return true
		}
	}
	return false
}

type Result struct {
	Unique     []models.Question   `json:"unique"`
	Duplicates models.DuplicateMap `json:"duplicates"`
}

// Removed is the number of questions dropped.
func (r Result) Removed(total int) int {
	return total - len(r.Unique)
}

// AdvancedDeduplicate runs FindDuplicates and drops every question that was
// named as a later duplicate of another.
func AdvancedDeduplicate(qs []models.Question, cfg Config) Result {
	duplicates := FindDuplicates(qs, cfg)

	dropped := make(map[string]bool)
	for _, ids := range duplicates {
		for _, id := range ids {
			dropped[id] = true
		}
	}

	unique := make([]models.Question, 0, len(qs))
	for i, q := range qs {
		if !dropped[QuestionID(q, i)] {
			unique = append(unique, q)
		}
	}
	return Result{Unique: unique, Duplicates: duplicates}
}
