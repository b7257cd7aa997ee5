// Package stats summarises repeated latency samples.
package stats

import (
	"math"
	"slices"
	"time"
)

// Summary describes one endpoint across several probe rounds.
type Summary struct {
	Samples int // rounds attempted
	OK      int // rounds that succeeded
	P50     time.Duration
	P95     time.Duration
	Max     time.Duration
}

// SuccessRate is OK/Samples in [0,1].
func (s Summary) SuccessRate() float64 {
	if s.Samples == 0 {
		return 0
	}
	return float64(s.OK) / float64(s.Samples)
}

// Summarize computes tail latency over the successful samples. total is the
// number of rounds attempted, including failed ones.
func Summarize(latencies []time.Duration, total int) Summary {
	s := Summary{Samples: total, OK: len(latencies)}
	if len(latencies) == 0 {
		return s
	}

	sorted := slices.Clone(latencies)
	slices.Sort(sorted)

	s.P50 = Percentile(sorted, 0.50)
	s.P95 = Percentile(sorted, 0.95)
	s.Max = sorted[len(sorted)-1]
	return s
}

// Percentile uses the nearest-rank method on an ascending slice.
func Percentile(sorted []time.Duration, p float64) time.Duration {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := int(math.Ceil(float64(n)*p)) - 1
	idx = max(0, min(idx, n-1))
	return sorted[idx]
}
