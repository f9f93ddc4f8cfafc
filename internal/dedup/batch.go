package dedup

import "github.com/a4ai/testgen/internal/models"

const DefaultBatchSize = 50

// BatchDeduplicator bounds the pairwise cost on large sets by deduplicating
// fixed-size batches, then the accumulated survivors whenever they outgrow a
// batch. Pairs that never share a pass are not compared, so the result is an
// approximation of AdvancedDeduplicate over the whole set.
type BatchDeduplicator struct {
	BatchSize int
	Config    Config
}

func NewBatchDeduplicator(batchSize int, cfg Config) *BatchDeduplicator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &BatchDeduplicator{BatchSize: batchSize, Config: cfg}
}

func (b *BatchDeduplicator) DeduplicateLargeSet(qs []models.Question) []models.Question {
	size := b.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}

	var unique []models.Question
	for start := 0; start < len(qs); start += size {
		end := start + size
		if end > len(qs) {
			end = len(qs)
		}

		unique = append(unique, AdvancedDeduplicate(qs[start:end], b.Config).Unique...)

		if len(unique) > size {
			unique = AdvancedDeduplicate(unique, b.Config).Unique
		}
	}

	if unique == nil {
		return []models.Question{}
	}
	return unique
}
