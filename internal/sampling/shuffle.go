package sampling

import (
	"math/rand/v2"
	"slices"

	"github.com/cespare/xxhash/v2"
)

// draw picks up to n questions from candidates with a Fisher–Yates shuffle
// seeded by seed and the bucket key, so each bucket gets its own stream and
// the same inputs always produce the same picks.
func draw(candidates []Question, n int, seed int64, bucket string) []Question {
	if n <= 0 || len(candidates) == 0 {
		return nil
	}

	r := rand.New(rand.NewPCG(uint64(seed), xxhash.Sum64String(bucket)))
	shuffled := slices.Clone(candidates)
	r.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	return shuffled[:min(n, len(shuffled))]
}
