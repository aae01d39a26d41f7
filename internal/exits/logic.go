package exits

import (
	"fmt"

	"github.com/tdmkt/tdseq/internal/domain/demark"
)

// Reason identifies which condition triggered a tranche exit.
type Reason int

const (
	NoExit Reason = iota
	CloseBelowTDMA1
	FailedFollowThrough
	TDSTSupportBreach
	SetupValidityBreach
	CountdownExhaustion
	HigherLowBreak
	TimeStop
)

func (r Reason) String() string {
	switch r {
	case NoExit:
		return "NO_EXIT"
	case CloseBelowTDMA1:
		return "CLOSE_BELOW_TD_MA1"
	case FailedFollowThrough:
		return "FAILED_FOLLOW_THROUGH"
	case TDSTSupportBreach:
		return "TDST_SUPPORT_BREACH"
	case SetupValidityBreach:
		return "SETUP_VALIDITY_BREACH"
	case CountdownExhaustion:
		return "COUNTDOWN_EXHAUSTION"
	case HigherLowBreak:
		return "HIGHER_LOW_BREAK"
	case TimeStop:
		return "TIME_STOP"
	default:
		return "UNKNOWN"
	}
}

// Tranche identifies one of the three independent exit gates.
type Tranche int

const (
	Tranche1 Tranche = iota + 1 // de-risk
	Tranche2                    // structural
	Tranche3                    // runner
)

// Fraction returns the share of the position each tranche controls.
func (t Tranche) Fraction() float64 {
	switch t {
	case Tranche1:
		return 0.30
	case Tranche2:
		return 0.45
	case Tranche3:
		return 0.25
	default:
		return 0
	}
}

func (t Tranche) String() string {
	switch t {
	case Tranche1:
		return "tranche1_derisk"
	case Tranche2:
		return "tranche2_structural"
	case Tranche3:
		return "tranche3_runner"
	default:
		return "unknown"
	}
}

// Inputs contains everything a tranche evaluation needs: the latest indicator
// snapshot plus the caller-owned position context. The evaluator never mutates
// indicator state.
type Inputs struct {
	Symbol     string       `json:"symbol"`
	Close      float64      `json:"close"`
	State      demark.State `json:"state"`
	EntryPrice float64      `json:"entry_price"`
	DaysHeld   int          `json:"days_held"`
}

// Decision is the outcome for one tranche.
type Decision struct {
	Tranche     Tranche `json:"tranche"`
	Fraction    float64 `json:"fraction"`
	Triggered   bool    `json:"triggered"`
	Reason      Reason  `json:"reason"`
	ReasonLabel string  `json:"reason_label"`
	TriggeredBy string  `json:"triggered_by,omitempty"`
}

// Config contains the tranche thresholds.
type Config struct {
	// Tranche 1 follow-through gate.
	MinBarsAfterSetup9 int     `yaml:"min_bars_after_setup9"` // 3
	WeakCloseThreshold float64 `yaml:"weak_close_threshold"`  // bar-nine range position below this is a weak close (0.5)

	// Tranche 3 time stop.
	TimeStopFloorDays int `yaml:"time_stop_floor_days"` // 20
	TimeStopSetupPad  int `yaml:"time_stop_setup_pad"`  // bars since nine plus this pad (10)
}

// DefaultConfig returns the standard tranche thresholds.
func DefaultConfig() *Config {
	return &Config{
		MinBarsAfterSetup9: 3,
		WeakCloseThreshold: 0.5,
		TimeStopFloorDays:  20,
		TimeStopSetupPad:   10,
	}
}

// Evaluator applies the three tranche gates to an indicator snapshot. It is
// stateless and safe to share across goroutines.
type Evaluator struct {
	config *Config
}

// NewEvaluator creates an evaluator; a nil config selects the defaults.
func NewEvaluator(config *Config) *Evaluator {
	if config == nil {
		config = DefaultConfig()
	}
	return &Evaluator{config: config}
}

// Evaluate runs all three tranches independently and returns one decision per
// tranche, in tranche order. Within a tranche the conditions are checked in
// their defined order and the first hit determines the reason.
func (ev *Evaluator) Evaluate(in Inputs) []Decision {
	return []Decision{
		ev.EvaluateTranche(Tranche1, in),
		ev.EvaluateTranche(Tranche2, in),
		ev.EvaluateTranche(Tranche3, in),
	}
}

// EvaluateTranche runs a single tranche gate.
func (ev *Evaluator) EvaluateTranche(t Tranche, in Inputs) Decision {
	var (
		reason  Reason
		trigger string
	)
	switch t {
	case Tranche1:
		reason, trigger = ev.evaluateTranche1(in)
	case Tranche2:
		reason, trigger = ev.evaluateTranche2(in)
	case Tranche3:
		reason, trigger = ev.evaluateTranche3(in)
	}
	return Decision{
		Tranche:     t,
		Fraction:    t.Fraction(),
		Triggered:   reason != NoExit,
		Reason:      reason,
		ReasonLabel: reason.String(),
		TriggeredBy: trigger,
	}
}

// evaluateTranche1 covers the de-risk gate: a close under the TD MA I window,
// or a completed Setup that failed to follow through after bar nine.
func (ev *Evaluator) evaluateTranche1(in Inputs) (Reason, string) {
	st := in.State

	if st.MA1Active && in.Close < st.MA1Value {
		return CloseBelowTDMA1, fmt.Sprintf("close %.4f < TD MA I %.4f", in.Close, st.MA1Value)
	}

	if st.SetupComplete &&
		st.BarsSinceSetup9 >= ev.config.MinBarsAfterSetup9 &&
		st.HighestCloseSinceSetup9 <= st.SetupBar9Close &&
		(st.SetupBar9RangePct < ev.config.WeakCloseThreshold || in.Close < st.SetupBar9Close) {
		return FailedFollowThrough, fmt.Sprintf("no close above bar-9 %.4f in %d bars", st.SetupBar9Close, st.BarsSinceSetup9)
	}

	return NoExit, ""
}

// evaluateTranche2 covers the structural gate: a TDST support breach or a
// close under the Setup validity low.
func (ev *Evaluator) evaluateTranche2(in Inputs) (Reason, string) {
	st := in.State

	if st.TDSTActive && in.Close < st.TDSTSupport {
		return TDSTSupportBreach, fmt.Sprintf("close %.4f < TDST support %.4f", in.Close, st.TDSTSupport)
	}

	if st.SetupLowestLow > 0 && in.Close < st.SetupLowestLow {
		return SetupValidityBreach, fmt.Sprintf("close %.4f < setup low %.4f", in.Close, st.SetupLowestLow)
	}

	return NoExit, ""
}

// evaluateTranche3 covers the runner gate: countdown exhaustion under the
// TD MA II window, a broken swing higher low, or the time stop.
func (ev *Evaluator) evaluateTranche3(in Inputs) (Reason, string) {
	st := in.State

	if st.Countdown >= 13 && st.MA2Active && in.Close < st.MA2Value {
		return CountdownExhaustion, fmt.Sprintf("countdown %d and close %.4f < TD MA II %.4f", st.Countdown, in.Close, st.MA2Value)
	}

	if st.RecentHigherLow > 0 && in.Close < st.RecentHigherLow {
		return HigherLowBreak, fmt.Sprintf("close %.4f < higher low %.4f", in.Close, st.RecentHigherLow)
	}

	threshold := ev.config.TimeStopFloorDays
	if st.SetupComplete {
		if padded := st.BarsSinceSetup9 + ev.config.TimeStopSetupPad; padded > threshold {
			threshold = padded
		}
	}
	if in.DaysHeld >= threshold && in.Close <= in.EntryPrice && !st.SetupComplete {
		return TimeStop, fmt.Sprintf("held %d days >= %d with close %.4f <= entry %.4f", in.DaysHeld, threshold, in.Close, in.EntryPrice)
	}

	return NoExit, ""
}
