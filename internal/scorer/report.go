package scorer

import (
	"fmt"
	"sort"

	"github.com/a4ai/testgen/internal/models"
)

const (
	lowOverallThreshold = 60.0
	lowBucketThreshold  = 50.0
)

// BuildReport aggregates scored questions. Questions without Meta.Score are
// counted but contribute nothing to the means. requested lists the cognitive
// levels the exam asked for; any level without a question produces a
// recommendation.
func BuildReport(qs []models.Question, requested []models.CognitiveLevel) models.ScoreReport {
	report := models.ScoreReport{
		QuestionCount:   len(qs),
		ByBucket:        map[string]float64{},
		ByCognitive:     map[string]float64{},
		ByDifficulty:    map[string]float64{},
		Recommendations: []string{},
	}

	overall := newMean()
	buckets := map[string]*mean{}
	cognitive := map[string]*mean{}
	difficulty := map[string]*mean{}
	seenLevels := map[models.CognitiveLevel]bool{}

	for _, q := range qs {
		seenLevels[q.Cognitive.OrDefault()] = true
		if q.Meta.Score == nil {
			continue
		}
		s := *q.Meta.Score
		overall.add(s)
		meanFor(buckets, models.BucketKeyFor(q)).add(s)
		meanFor(cognitive, string(q.Cognitive.OrDefault())).add(s)
		meanFor(difficulty, string(q.Difficulty.OrDefault())).add(s)
	}

	report.Overall = overall.value()
	for k, m := range buckets {
		report.ByBucket[k] = m.value()
	}
	for k, m := range cognitive {
		report.ByCognitive[k] = m.value()
	}
	for k, m := range difficulty {
		report.ByDifficulty[k] = m.value()
	}

	if overall.n > 0 && report.Overall < lowOverallThreshold {
		report.Recommendations = append(report.Recommendations,
			fmt.Sprintf("Overall quality %.1f is below %.0f; consider regenerating with a more specific topic", report.Overall, lowOverallThreshold))
	}

	for _, level := range requested {
		if !seenLevels[level.OrDefault()] {
			report.Recommendations = append(report.Recommendations,
				fmt.Sprintf("No questions at the requested %s level", level.OrDefault()))
		}
	}

	keys := make([]string, 0, len(report.ByBucket))
	for k := range report.ByBucket {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := report.ByBucket[k]; v < lowBucketThreshold {
			report.Recommendations = append(report.Recommendations,
				fmt.Sprintf("Bucket %s averages %.1f; review or replace its questions", k, v))
		}
	}

	return report
}

type mean struct {
	sum float64
	n   int
}

func newMean() *mean { return &mean{} }

func (m *mean) add(v float64) {
	m.sum += v
	m.n++
}

func (m *mean) value() float64 {
	if m.n == 0 {
		return 0
	}
	return m.sum / float64(m.n)
}

func meanFor(ms map[string]*mean, key string) *mean {
	m, ok := ms[key]
	if !ok {
		m = newMean()
		ms[key] = m
	}
	return m
}
