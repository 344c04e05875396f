package selector

// rollingNorm min-max normalizes a detector's raw scores against a trailing
// window of strictly past scores. The current score never contributes to its
// own normalization range, so combination uses no look-ahead.
//
// Min and max over the trailing window are tracked with monotonic wedges,
// keeping updates amortized O(1) regardless of window size.
type rollingNorm struct {
	capacity int // <= 0 means unbounded
	count    int
	seq      int

	minQ []wedgeEntry
	maxQ []wedgeEntry
}

type wedgeEntry struct {
	seq int
	val float64
}

func newRollingNorm(capacity int) *rollingNorm {
	return &rollingNorm{capacity: capacity}
}

// Normalize maps raw into [0, 1] against the trailing range, then records
// raw for future calls. With no history, or a constant history, the result
// is 0.5. Values outside the historical range clamp to the boundary.
func (n *rollingNorm) Normalize(raw float64) float64 {
	out := 0.5
	if n.count > 0 {
		min := n.minQ[0].val
		max := n.maxQ[0].val
		if max > min {
			out = (raw - min) / (max - min)
			if out < 0 {
				out = 0
			} else if out > 1 {
				out = 1
			}
		}
	}
	n.push(raw)
	return out
}

func (n *rollingNorm) push(v float64) {
	if n.capacity > 0 && n.count == n.capacity {
		evictSeq := n.seq - n.capacity
		if len(n.minQ) > 0 && n.minQ[0].seq == evictSeq {
			n.minQ = n.minQ[1:]
		}
		if len(n.maxQ) > 0 && n.maxQ[0].seq == evictSeq {
			n.maxQ = n.maxQ[1:]
		}
	} else {
		n.count++
	}

	for len(n.minQ) > 0 && n.minQ[len(n.minQ)-1].val >= v {
		n.minQ = n.minQ[:len(n.minQ)-1]
	}
	n.minQ = append(n.minQ, wedgeEntry{seq: n.seq, val: v})

	for len(n.maxQ) > 0 && n.maxQ[len(n.maxQ)-1].val <= v {
		n.maxQ = n.maxQ[:len(n.maxQ)-1]
	}
	n.maxQ = append(n.maxQ, wedgeEntry{seq: n.seq, val: v})

	n.seq++
}
