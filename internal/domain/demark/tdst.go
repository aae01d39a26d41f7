package demark

// tdstTracker derives TDST support and resistance levels from the first four
// bars of a completed nine-bar run. Support comes from bullish Setups and is
// deactivated by the first close below it; resistance mirrors it for bearish
// runs (nine consecutive closes below the close four back) and flags the
// breakout bar.
type tdstTracker struct {
	support   float64
	active    bool
	resist    float64
	resActive bool

	bearRun int
}

type tdstResult struct {
	support   float64
	active    bool
	resist    float64
	resActive bool
	resBroken bool
}

func (t *tdstTracker) step(bars []Bar, setup setupResult) tdstResult {
	i := len(bars) - 1
	b := bars[i]

	// Bullish side: derive support on the Setup-nine rising edge.
	if setup.count == setupTarget && setup.prevCount < setupTarget && i >= 2*tdstWindow {
		t.support = lowestLow(bars[i-2*tdstWindow : i-tdstWindow])
		t.active = true
	} else if t.active && b.Close < t.support {
		t.active = false
		t.support = 0
	}

	// Bearish mirror with its own nine-count.
	if i >= 4 && b.Close < bars[i-4].Close {
		t.bearRun++
	} else {
		t.bearRun = 0
	}

	broken := false
	if t.bearRun == setupTarget && i >= 2*tdstWindow {
		t.resist = highestHigh(bars[i-2*tdstWindow : i-tdstWindow])
		t.resActive = true
	} else if t.resActive && b.Close > t.resist {
		t.resActive = false
		t.resist = 0
		broken = true
	}

	return tdstResult{
		support:   t.support,
		active:    t.active,
		resist:    t.resist,
		resActive: t.resActive,
		resBroken: broken,
	}
}

func lowestLow(bars []Bar) float64 {
	lo := bars[0].Low
	for _, b := range bars[1:] {
		if b.Low < lo {
			lo = b.Low
		}
	}
	return lo
}

func highestHigh(bars []Bar) float64 {
	hi := bars[0].High
	for _, b := range bars[1:] {
		if b.High > hi {
			hi = b.High
		}
	}
	return hi
}
