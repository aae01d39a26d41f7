package demark

// maTrigger implements the TD Moving Average breakout windows. TD MA I fires
// when the current low clears the lowest low of the lookback window; TD MA II
// mirrors it on closes against the highest close. While active the trigger
// reports the 5-bar SMA captured at the trigger bar; a re-trigger inside an
// active window restarts the remaining-bars counter, it does not stack.
type maTrigger struct {
	lookback  int
	smaWindow int
	extension int
	useClose  bool // TD MA II
	strict    bool // withhold triggers until the SMA window is full

	left  int // bars remaining in the active window, including the current bar
	value float64
}

func newMATrigger(cfg Config, useClose bool) *maTrigger {
	return &maTrigger{
		lookback:  cfg.Lookback,
		smaWindow: cfg.SMAWindow,
		extension: cfg.ExtensionBars,
		useClose:  useClose,
		strict:    cfg.StrictWarmup,
	}
}

// step consumes the latest bar (the last element of bars) and reports whether
// the window is active at that bar and the value it carries.
func (t *maTrigger) step(bars []Bar) (active bool, value float64) {
	if t.left > 0 {
		t.left--
	}

	i := len(bars) - 1
	if i >= t.lookback && t.fires(bars, i) {
		warm := i+1 >= t.smaWindow
		if warm || !t.strict {
			t.left = t.extension + 1 // this bar plus the extension
			if warm {
				t.value = t.sma(bars, i)
			} else {
				// Historical quirk kept under the lenient policy: the window
				// activates with a zero value until the SMA is defined.
				t.value = 0
			}
		}
	}

	if t.left > 0 {
		return true, t.value
	}
	return false, 0
}

func (t *maTrigger) fires(bars []Bar, i int) bool {
	if t.useClose {
		hi := bars[i-t.lookback].Close
		for j := i - t.lookback + 1; j < i; j++ {
			if bars[j].Close > hi {
				hi = bars[j].Close
			}
		}
		return bars[i].Close > hi
	}
	lo := bars[i-t.lookback].Low
	for j := i - t.lookback + 1; j < i; j++ {
		if bars[j].Low < lo {
			lo = bars[j].Low
		}
	}
	return bars[i].Low > lo
}

func (t *maTrigger) sma(bars []Bar, i int) float64 {
	sum := 0.0
	for j := i - t.smaWindow + 1; j <= i; j++ {
		if t.useClose {
			sum += bars[j].Close
		} else {
			sum += bars[j].Low
		}
	}
	return sum / float64(t.smaWindow)
}
