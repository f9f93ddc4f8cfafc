package scorer

import (
	"math"

	"github.com/a4ai/testgen/internal/models"
)

// Weights configures the composite score. Cognitive and NCERT extend the older
// five-factor scorer and count as 0 when left unset.
type Weights struct {
	Topic      float64 `json:"topic"`
	Difficulty float64 `json:"difficulty"`
	Syllabus   float64 `json:"syllabus"`
	Clarity    float64 `json:"clarity"`
	Solution   float64 `json:"solution"`
	Style      float64 `json:"style"`
	Cognitive  float64 `json:"cognitive"`
	NCERT      float64 `json:"ncert"`
}

func DefaultWeights() Weights {
	return Weights{
		Topic:      0.20,
		Difficulty: 0.15,
		Syllabus:   0.15,
		Clarity:    0.10,
		Solution:   0.20,
		Style:      0.10,
		Cognitive:  0.15,
	}
}

// Expectation is what the question was requested as. Empty fields fall back to
// medium difficulty and the understand level.
type Expectation struct {
	Difficulty models.Difficulty
	Cognitive  models.CognitiveLevel
}

func ExpectationFor(b models.Bucket) Expectation {
	return Expectation{Difficulty: b.Difficulty, Cognitive: b.Cognitive}
}

// Breakdown holds each sub-score in [0,1].
type Breakdown struct {
	Topic      float64 `json:"topic"`
	Difficulty float64 `json:"difficulty"`
	Syllabus   float64 `json:"syllabus"`
	NCERT      float64 `json:"ncert"`
	Cognitive  float64 `json:"cognitive"`
	Clarity    float64 `json:"clarity"`
	Solution   float64 `json:"solution"`
	Style      float64 `json:"style"`
}

// Scorer rates generated questions against the request that produced them.
// It holds no mutable state and is safe for concurrent use.
type Scorer struct {
	weights   Weights
	cognitive CognitiveWeights
	keywords  []string
	subject   string
}

func NewScorer(weights Weights, keywords []string, subject string) *Scorer {
	return &Scorer{
		weights:   weights,
		cognitive: DefaultCognitiveWeights(),
		keywords:  append([]string(nil), keywords...),
		subject:   subject,
	}
}

// WithCognitiveWeights returns a copy of s using w for matched levels.
func (s *Scorer) WithCognitiveWeights(w CognitiveWeights) *Scorer {
	cp := *s
	cp.cognitive = w
	return &cp
}

// Breakdown computes the sub-scores of q.
func (s *Scorer) Breakdown(q models.Question, exp Expectation) Breakdown {
	difficulty := 0.5
	if exp.Difficulty.OrDefault() == q.Difficulty.OrDefault() {
		difficulty = 1
	}

	return Breakdown{
		Topic:      KeywordScore(q.Text, s.keywords),
		Difficulty: difficulty,
		Syllabus:   SyllabusScore(s.subject, q.Text),
		NCERT:      NCERTScore(q.Text, q.Solution),
		Cognitive:  clamp01(CognitiveScore(exp.Cognitive, q.Cognitive, s.cognitive)),
		Clarity:    clarityScore(q.Text),
		Solution:   solutionScore(q.Solution),
		Style:      0.8,
	}
}

// Score returns the weighted quality of q in [0,100].
//
// Formula: Σ(sub_i * w_i) / Σ w_i * 100, over the weights actually applied.
func (s *Scorer) Score(q models.Question, exp Expectation) float64 {
	b := s.Breakdown(q, exp)

	pairs := [][2]float64{
		{b.Topic, s.weights.Topic},
		{b.Difficulty, s.weights.Difficulty},
		{b.Syllabus, s.weights.Syllabus},
		{b.Cognitive, s.weights.Cognitive},
		{b.NCERT, s.weights.NCERT},
		{b.Clarity, s.weights.Clarity},
		{b.Solution, s.weights.Solution},
		{b.Style, s.weights.Style},
	}

	total, maxPossible := 0.0, 0.0
	for _, p := range pairs {
		w := p[1]
		if w <= 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			continue
		}
		total += p[0] * w
		maxPossible += w
	}
	if maxPossible == 0 {
		return 0
	}
	return clamp01(total/maxPossible) * 100
}

// ScoreAll returns copies of qs with Meta.Score set. The input slice is not
// modified.
func (s *Scorer) ScoreAll(qs []models.Question, exp Expectation) []models.Question {
	out := make([]models.Question, len(qs))
	for i, q := range qs {
		out[i] = q.WithScore(s.Score(q, exp))
	}
	return out
}

// ScoreAgainstBuckets scores each question with the expectation of the bucket
// matching its type and marks, falling back to the first bucket.
func (s *Scorer) ScoreAgainstBuckets(qs []models.Question, buckets []models.Bucket) []models.Question {
	out := make([]models.Question, len(qs))
	for i, q := range qs {
		exp := Expectation{}
		if b, ok := matchBucket(q, buckets); ok {
			exp = ExpectationFor(b)
		}
		out[i] = q.WithScore(s.Score(q, exp))
	}
	return out
}

func matchBucket(q models.Question, buckets []models.Bucket) (models.Bucket, bool) {
	if len(buckets) == 0 {
		return models.Bucket{}, false
	}
	for _, b := range buckets {
		if b.Type == q.Type && b.Marks == q.MarksOrDefault() {
			return b, true
		}
	}
	return buckets[0], true
}

func clarityScore(text string) float64 {
	n := len(text)
	switch {
	case n < 10:
		return 0
	case n > 200:
		return 0.7
	default:
		return 1
	}
}

func solutionScore(solution string) float64 {
	n := len(solution)
	switch {
	case n > 20:
		return 1
	case n > 10:
		return 0.7
	default:
		return 0.3
	}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
