package demark

// setupPhase tags the lifecycle of the nine-count Setup.
type setupPhase int

const (
	phaseIdle setupPhase = iota
	phaseBuilding
	phaseCompleted
)

// setupCounter implements the Sequential Setup: a run of bars each closing
// above the close four bars earlier. The internal run counter is unbounded;
// the reported count is capped at nine. Completion tracking (bar-nine close,
// range position, bars since, best close since) is captured on the rising edge
// of nine and, by default, survives later run breaks.
type setupCounter struct {
	resetOnBreak bool

	run   int
	phase setupPhase

	lowestLow    float64
	bar9Close    float64
	bar9RangePct float64
	sinceBar9    int
	bestClose    float64
}

func newSetupCounter(cfg Config) *setupCounter {
	return &setupCounter{resetOnBreak: cfg.ResetSetupOnBreak}
}

// setupResult is the per-bar output of the counter.
type setupResult struct {
	count        int // capped at setupTarget
	prevCount    int
	complete     bool
	bar9Close    float64
	bar9RangePct float64
	lowestLow    float64
	sinceBar9    int
	bestClose    float64
}

func (s *setupCounter) step(bars []Bar) setupResult {
	i := len(bars) - 1
	b := bars[i]
	prev := s.run

	if i >= 4 && b.Close > bars[i-4].Close {
		s.run++
	} else {
		s.run = 0
		s.lowestLow = 0
		if s.phase == phaseBuilding {
			s.phase = phaseIdle
		}
		if s.resetOnBreak && s.phase == phaseCompleted {
			s.phase = phaseIdle
			s.bar9Close = 0
			s.bar9RangePct = 0
			s.sinceBar9 = 0
			s.bestClose = 0
		}
	}

	switch {
	case s.run == 1:
		if s.phase != phaseCompleted {
			// Under the sticky default a completed phase survives new runs
			// until the next bar nine overwrites it.
			s.phase = phaseBuilding
		}
		s.lowestLow = b.Low
	case s.run > 1 && s.run <= setupTarget:
		if b.Low < s.lowestLow {
			s.lowestLow = b.Low
		}
	}

	if s.run == setupTarget && prev == setupTarget-1 {
		// Rising edge of bar nine.
		s.phase = phaseCompleted
		s.bar9Close = b.Close
		s.bar9RangePct = rangePct(b)
		s.sinceBar9 = 0
		s.bestClose = b.Close
	} else if s.phase == phaseCompleted {
		s.sinceBar9++
		if b.Close > s.bestClose {
			s.bestClose = b.Close
		}
	}

	return setupResult{
		count:        capCount(s.run, setupTarget),
		prevCount:    capCount(prev, setupTarget),
		complete:     s.phase == phaseCompleted,
		bar9Close:    s.bar9Close,
		bar9RangePct: s.bar9RangePct,
		lowestLow:    s.lowestLow,
		sinceBar9:    s.sinceBar9,
		bestClose:    s.bestClose,
	}
}

// rangePct places the close within the bar's high-low range. A degenerate
// zero-range bar maps to 0.5.
func rangePct(b Bar) float64 {
	rng := b.High - b.Low
	if rng == 0 {
		return 0.5
	}
	return (b.Close - b.Low) / rng
}

func capCount(n, limit int) int {
	if n > limit {
		return limit
	}
	return n
}
