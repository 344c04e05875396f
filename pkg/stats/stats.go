// Package stats provides the ranking statistics used to evaluate detector
// quality: ROC AUC, Spearman rank correlation, and contamination-based
// pseudo-labeling. All functions are pure and allocation-light; they run
// once per sealed window on the hot path.
package stats

import (
	"math"
	"sort"
)

// ROCAUC computes the area under the ROC curve for binary labels against
// real-valued scores, using the rank-sum (Mann-Whitney) formulation with
// average ranks for ties.
//
// Returns NaN when labels contain no positive or no negative example: the
// metric is undefined there and callers must not fabricate a value.
func ROCAUC(labels []int, scores []float64) float64 {
	if len(labels) != len(scores) || len(labels) == 0 {
		return math.NaN()
	}

	var nPos, nNeg int
	for _, y := range labels {
		if y > 0 {
			nPos++
		} else {
			nNeg++
		}
	}
	if nPos == 0 || nNeg == 0 {
		return math.NaN()
	}

	ranks := averageRanks(scores)

	var posRankSum float64
	for i, y := range labels {
		if y > 0 {
			posRankSum += ranks[i]
		}
	}

	u := posRankSum - float64(nPos)*float64(nPos+1)/2
	return u / (float64(nPos) * float64(nNeg))
}

// Spearman computes the Spearman rank correlation between two equal-length
// score sequences, using average ranks for ties. Result is in [-1, 1].
//
// Returns 0 when either sequence is constant: rank agreement is undefined
// there, and a neutral value keeps weight updates inert.
func Spearman(a, b []float64) float64 {
	if len(a) != len(b) || len(a) < 2 {
		return 0
	}

	ra := averageRanks(a)
	rb := averageRanks(b)

	var meanA, meanB float64
	for i := range ra {
		meanA += ra[i]
		meanB += rb[i]
	}
	meanA /= float64(len(ra))
	meanB /= float64(len(rb))

	var cov, varA, varB float64
	for i := range ra {
		da := ra[i] - meanA
		db := rb[i] - meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	if varA == 0 || varB == 0 {
		return 0
	}
	return cov / math.Sqrt(varA*varB)
}

// PseudoLabels derives binary labels from anomaly scores by marking the top
// contamination fraction as anomalous. At least one instance is always
// labeled positive.
func PseudoLabels(scores []float64, contamination float64) []int {
	n := len(scores)
	if n == 0 {
		return nil
	}

	nAnomalies := int(float64(n) * contamination)
	if nAnomalies < 1 {
		nAnomalies = 1
	}
	if nAnomalies > n {
		nAnomalies = n
	}

	sorted := append([]float64(nil), scores...)
	sort.Float64s(sorted)
	threshold := sorted[n-nAnomalies]

	labels := make([]int, n)
	for i, s := range scores {
		if s >= threshold {
			labels[i] = 1
		}
	}
	return labels
}

// averageRanks assigns 1-based ranks to values, giving tied values the
// average of the ranks they span.
func averageRanks(values []float64) []float64 {
	n := len(values)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool { return values[idx[i]] < values[idx[j]] })

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && values[idx[j+1]] == values[idx[i]] {
			j++
		}
		// Ranks are 1-based; ties share the mean rank of their span.
		avg := float64(i+j+2) / 2
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		i = j + 1
	}
	return ranks
}
