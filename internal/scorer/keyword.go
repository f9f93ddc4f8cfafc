package scorer

import "strings"

// neutralKeywordScore is returned for requests that carry no topic keywords,
// so topic-less requests are not punished.
const neutralKeywordScore = 0.5

// KeywordsFromTopic splits a topic string on whitespace and commas.
func KeywordsFromTopic(topic string) []string {
	fields := strings.FieldsFunc(topic, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	keywords := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			keywords = append(keywords, f)
		}
	}
	return keywords
}

// MatchCount returns how many distinct keywords occur anywhere in text.
// Matching is case-insensitive substring containment, not tokenized.
func MatchCount(text string, keywords []string) int {
	lower := strings.ToLower(text)
	count := 0
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			count++
		}
	}
	return count
}

// Occurrences returns the total number of keyword hits in text, counting
// repeats. Provider outputs are ranked with it.
func Occurrences(text string, keywords []string) int {
	lower := strings.ToLower(text)
	total := 0
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		total += strings.Count(lower, strings.ToLower(kw))
	}
	return total
}

// KeywordScore normalizes MatchCount to [0,1].
func KeywordScore(text string, keywords []string) float64 {
	if len(keywords) == 0 {
		return neutralKeywordScore
	}
	return float64(MatchCount(text, keywords)) / float64(len(keywords))
}
