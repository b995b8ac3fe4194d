package utils

import "math"

const epsilon = 1e-6

// CalcEntropy returns the normalized Shannon entropy of a distribution of counts.
//
// 1.0 means a perfectly even spread, values close to 0 mean that almost
// everything landed in a single bucket. Empty and single-bucket maps are even by definition.
func CalcEntropy(m map[any]int) float64 {
	if len(m) <= 1 {
		return 1.0
	}

	var total int
	for _, count := range m {
		total += count
	}
	if total == 0 {
		return 1.0
	}

	var entropy float64
	for _, count := range m {
		if count == 0 {
			continue
		}
		p := float64(count) / float64(total)
		entropy -= p * math.Log2(p)
	}

	normalized := entropy / math.Log2(float64(len(m)))
	if math.Abs(normalized-1.0) < epsilon {
		return 1.0
	}
	return normalized
}
