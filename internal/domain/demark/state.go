package demark

// State holds the computed indicator values for one bar. One State is produced
// per input bar; earlier states are never mutated.
type State struct {
	Index int `json:"index"`

	// TD MA I (lows) and TD MA II (closes) trigger windows.
	MA1Active bool    `json:"ma1_active"`
	MA1Value  float64 `json:"ma1_value"`
	MA2Active bool    `json:"ma2_active"`
	MA2Value  float64 `json:"ma2_value"`

	// EntryValid is true when both moving-average windows are active.
	EntryValid bool `json:"td_entry_valid"`

	// Sequential Setup (nine-count).
	SetupCount        int     `json:"setup_count"` // reported count, capped at 9
	SetupComplete     bool    `json:"setup_complete"`
	SetupBar9Close    float64 `json:"setup_bar9_close"`
	SetupBar9RangePct float64 `json:"setup_bar9_range_pct"` // close position within bar nine's range
	SetupLowestLow    float64 `json:"setup_lowest_low"`

	BarsSinceSetup9         int     `json:"bars_since_setup9"`
	HighestCloseSinceSetup9 float64 `json:"highest_close_since_setup9"`

	// TDST support (bullish runs) and resistance (bearish mirror).
	TDSTSupport    float64 `json:"tdst_support"`
	TDSTActive     bool    `json:"tdst_active"`
	TDSTResistance float64 `json:"tdst_resistance"`
	TDSTResActive  bool    `json:"tdst_res_active"`
	TDSTResBroken  bool    `json:"tdst_res_broken"` // set on the breakout bar only

	// Countdown (thirteen-count).
	Countdown         int  `json:"countdown"`
	CountdownComplete bool `json:"countdown_complete"`

	// Latest confirmed swing higher low; 0 before the first confirmation.
	RecentHigherLow float64 `json:"recent_higher_low"`

	Warm Readiness `json:"warm"`
}

// Readiness reports, per calculator, whether enough history has been seen for
// its output to be meaningful. A false flag means "not yet warmed up", which is
// distinct from a warm calculator reporting an inactive or zero value.
type Readiness struct {
	MA        bool `json:"ma"`        // lookback plus SMA window satisfied
	Setup     bool `json:"setup"`     // four prior bars for the close comparison
	Countdown bool `json:"countdown"` // two prior bars for the high comparison
	TDST      bool `json:"tdst"`      // nine bars so the first four run bars exist
}

func readinessAt(i int, cfg Config) Readiness {
	return Readiness{
		MA:        i >= cfg.Lookback && i+1 >= cfg.Lookback+cfg.SMAWindow,
		Setup:     i >= 4,
		Countdown: i >= 2,
		TDST:      i >= 8,
	}
}
