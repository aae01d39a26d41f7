package demark

// countdownCounter implements the thirteen-count Countdown. It arms on the
// rising edge of Setup nine, increments while the close holds at or above the
// high two bars back, and disarms the instant a new Setup run begins.
type countdownCounter struct {
	armed bool
	count int
}

func (c *countdownCounter) step(bars []Bar, setup setupResult) (count int, complete bool) {
	i := len(bars) - 1

	switch {
	case setup.count == setupTarget && setup.prevCount < setupTarget:
		// Arm on the completion bar; counting starts on the next bar.
		c.armed = true
		c.count = 0
	case setup.count == 1 && setup.prevCount != 1:
		c.armed = false
		c.count = 0
	default:
		if c.armed && c.count < countdownTarget && i >= 2 && bars[i].Close >= bars[i-2].High {
			c.count++
		}
	}

	return c.count, c.count >= countdownTarget
}
