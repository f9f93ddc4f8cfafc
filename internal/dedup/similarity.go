package dedup

import (
	"math"
	"regexp"
	"strings"

	"github.com/a4ai/testgen/internal/models"
)

// Factor weights of the pairwise similarity. Disabled factors drop out of the
// denominator.
const (
	textWeight       = 0.4
	structuralWeight = 0.2
	cognitiveWeight  = 0.15
	topicWeight      = 0.15
	conceptWeight    = 0.1

	cognitiveDecay        = 0.4
	unknownCognitiveScore = 0.3
	emptyTopicScore       = 0.5
	emptyConceptScore     = 0.3
)

var (
	whitespaceRe  = regexp.MustCompile(`\s+`)
	punctuationRe = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
	latexRe       = regexp.MustCompile(`\$[^$]+\$`)
)

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true,
}

var typeSynonyms = map[models.QuestionType][]string{
	models.TypeMCQ:       {"multiple choice", "objective"},
	models.TypeShort:     {"vsa", "very short", "short answer"},
	models.TypeLong:      {"la", "long answer", "descriptive"},
	models.TypeNumerical: {"calculation", "compute"},
}

var stemConcepts = []string{
	"force", "energy", "velocity", "acceleration", "equation", "formula",
	"ratio", "percentage", "probability", "function", "derivative",
	"reaction", "compound", "element", "molecule", "cell", "organism",
}

// Similarity returns how alike two questions are, in [0,1]. Questions with the
// same normalized stem, type and marks are identical and score 1. Questions
// that share no word, no type and no topic are unrelated and score 0.
func Similarity(q1, q2 models.Question, cfg Config) float64 {
	if sameQuestion(q1, q2) {
		return 1
	}

	text := TextSimilarity(q1.Text, q2.Text)
	if text == 0 && q1.Type != q2.Type && !sharesTopic(q1.Topics, q2.Topics) {
		return 0
	}

	score := text * textWeight
	total := textWeight

	score += structuralSimilarity(q1, q2) * structuralWeight
	total += structuralWeight

	if cfg.CheckCognitiveLevel {
		score += cognitiveSimilarity(q1.Cognitive, q2.Cognitive) * cognitiveWeight
		total += cognitiveWeight
	}
	if cfg.CheckTopics {
		score += topicSimilarity(q1.Topics, q2.Topics) * topicWeight
		total += topicWeight
	}
	if cfg.CheckConcepts {
		score += conceptSimilarity(q1, q2) * conceptWeight
		total += conceptWeight
	}

	return score / total
}

// TextSimilarity is the Jaccard index of the normalized token sets.
func TextSimilarity(a, b string) float64 {
	return jaccardSimilarity(tokenize(a), tokenize(b))
}

// NormalizeText lowercases, collapses whitespace, strips punctuation and drops
// stop words.
func NormalizeText(s string) string {
	s = strings.ToLower(s)
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = punctuationRe.ReplaceAllString(s, "")

	words := strings.Fields(s)
	kept := words[:0]
	for _, w := range words {
		if !stopWords[w] {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

func sameQuestion(q1, q2 models.Question) bool {
	return q1.Type == q2.Type &&
		q1.MarksOrDefault() == q2.MarksOrDefault() &&
		NormalizeText(q1.Text) == NormalizeText(q2.Text)
}

func tokenize(s string) map[string]bool {
	tokens := make(map[string]bool)
	for _, word := range strings.Fields(NormalizeText(s)) {
		tokens[word] = true
	}
	return tokens
}

func jaccardSimilarity(a, b map[string]bool) float64 {
	intersection := 0
	for k := range a {
		if b[k] {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func structuralSimilarity(q1, q2 models.Question) float64 {
	typeScore := 0.0
	if q1.Type == q2.Type {
		typeScore = 1
	} else if synonymsOverlap(q1.Type, q2.Type) {
		typeScore = 0.5
	}

	marksScore := 0.0
	switch diff := math.Abs(float64(q1.MarksOrDefault() - q2.MarksOrDefault())); {
	case diff == 0:
		marksScore = 1
	case diff <= 1:
		marksScore = 0.7
	case diff <= 2:
		marksScore = 0.3
	}

	return (typeScore + marksScore) / 2
}

func synonymsOverlap(t1, t2 models.QuestionType) bool {
	s1, ok := typeSynonyms[t1]
	if !ok {
		s1 = []string{string(t1)}
	}
	s2, ok := typeSynonyms[t2]
	if !ok {
		s2 = []string{string(t2)}
	}
	for _, a := range s1 {
		for _, b := range s2 {
			if a == b {
				return true
			}
		}
	}
	return false
}

func cognitiveSimilarity(c1, c2 models.CognitiveLevel) float64 {
	c1, c2 = c1.OrDefault(), c2.OrDefault()
	if c1 == c2 {
		return 1
	}
	i1, i2 := c1.Index(), c2.Index()
	if i1 < 0 || i2 < 0 {
		return unknownCognitiveScore
	}
	distance := math.Abs(float64(i1 - i2))
	return math.Max(0, 1-distance*cognitiveDecay)
}

func topicSimilarity(t1, t2 []string) float64 {
	if len(t1) == 0 && len(t2) == 0 {
		return emptyTopicScore
	}
	return jaccardSimilarity(lowerSet(t1), lowerSet(t2))
}

func conceptSimilarity(q1, q2 models.Question) float64 {
	c1, c2 := extractConcepts(q1), extractConcepts(q2)
	if len(c1) == 0 && len(c2) == 0 {
		return emptyConceptScore
	}
	return jaccardSimilarity(c1, c2)
}

func extractConcepts(q models.Question) map[string]bool {
	text := strings.ToLower(q.Text)
	solution := strings.ToLower(q.Solution)

	concepts := make(map[string]bool)
	for _, c := range stemConcepts {
		if strings.Contains(text, c) || strings.Contains(solution, c) {
			concepts[c] = true
		}
	}
	return concepts
}

func sharesTopic(t1, t2 []string) bool {
	set := lowerSet(t1)
	for _, t := range t2 {
		if set[strings.ToLower(t)] {
			return true
		}
	}
	return false
}

func lowerSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, s := range items {
		set[strings.ToLower(s)] = true
	}
	return set
}
