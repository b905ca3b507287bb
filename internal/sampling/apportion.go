package sampling

import (
	"cmp"
	"slices"
)

type remainder struct {
	key  string
	frac int // hundredths of a unit
}

// Apportion splits total across the buckets of dist with the largest-remainder
// method: every bucket gets floor(total*p/100), and the units left over go to
// the buckets with the largest fractional parts, ties broken by key. When the
// percentages sum to 100 the targets sum to exactly total.
func Apportion(total int, dist DistributionMap) map[string]int {
	keys := dist.Keys()
	targets := make(map[string]int, len(keys))
	if len(keys) == 0 {
		return targets
	}
	total = max(total, 0)

	rems := make([]remainder, 0, len(keys))
	assigned := 0
	for _, k := range keys {
		exact := total * dist[k]
		targets[k] = exact / 100
		assigned += targets[k]
		rems = append(rems, remainder{key: k, frac: exact % 100})
	}

	// Stable sort keeps ascending key order among equal fractions.
	slices.SortStableFunc(rems, func(a, b remainder) int {
		return cmp.Compare(b.frac, a.frac)
	})

	left := total - assigned
	for i := 0; left > 0; i++ {
		targets[rems[i%len(rems)].key]++
		left--
	}

	// Only reachable for distributions summing above 100: take units back
	// from the smallest remainders first.
	for i := len(rems) - 1; left < 0; i-- {
		if i < 0 {
			i = len(rems) - 1
		}
		if k := rems[i].key; targets[k] > 0 {
			targets[k]--
			left++
		}
	}

	return targets
}
