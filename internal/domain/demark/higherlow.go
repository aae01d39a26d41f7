package demark

// higherLowTracker confirms swing higher lows with a one-bar delay. At most
// one candidate is pending at a time: when a bar's low exceeds the previous
// bar's low, that previous low becomes the candidate; one bar later it is
// confirmed if it beats the best confirmed value so far. The confirming bar
// cannot register a new candidate.
type higherLowTracker struct {
	pending   bool
	candidate float64
	confirmed float64
}

func (h *higherLowTracker) step(bars []Bar) float64 {
	if h.pending {
		if h.candidate > h.confirmed {
			h.confirmed = h.candidate
		}
		h.pending = false
		return h.confirmed
	}

	i := len(bars) - 1
	if i >= 1 && bars[i].Low > bars[i-1].Low {
		h.pending = true
		h.candidate = bars[i-1].Low
	}
	return h.confirmed
}
