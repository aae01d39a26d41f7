package demark

import (
	"github.com/rs/zerolog"
)

// Engine folds the five TD Sequential calculators over a bar series, one bar
// at a time. Each Step is a deterministic function of the bars seen so far, so
// replaying an identical series yields an identical state history. The engine
// holds no locks; use one Engine per instrument and feed bars in order.
type Engine struct {
	cfg Config
	log zerolog.Logger

	bars    []Bar
	history []State

	ma1   *maTrigger
	ma2   *maTrigger
	setup *setupCounter
	cd    *countdownCounter
	tdst  *tdstTracker
	hl    *higherLowTracker
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger attaches a logger for state-transition events. The default
// discards them.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// New creates an engine with the given configuration. Call Validate on the
// config first if it comes from user input.
func New(cfg Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:   cfg,
		log:   zerolog.Nop(),
		ma1:   newMATrigger(cfg, false),
		ma2:   newMATrigger(cfg, true),
		setup: newSetupCounter(cfg),
		cd:    &countdownCounter{},
		tdst:  &tdstTracker{},
		hl:    &higherLowTracker{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Step appends one bar and returns its computed state.
func (e *Engine) Step(b Bar) State {
	e.bars = append(e.bars, b)
	i := len(e.bars) - 1

	setup := e.setup.step(e.bars)
	count, cdComplete := e.cd.step(e.bars, setup)
	tdst := e.tdst.step(e.bars, setup)
	ma1Active, ma1Value := e.ma1.step(e.bars)
	ma2Active, ma2Value := e.ma2.step(e.bars)
	higherLow := e.hl.step(e.bars)

	st := State{
		Index:                   i,
		MA1Active:               ma1Active,
		MA1Value:                ma1Value,
		MA2Active:               ma2Active,
		MA2Value:                ma2Value,
		EntryValid:              ma1Active && ma2Active,
		SetupCount:              setup.count,
		SetupComplete:           setup.complete,
		SetupBar9Close:          setup.bar9Close,
		SetupBar9RangePct:       setup.bar9RangePct,
		SetupLowestLow:          setup.lowestLow,
		BarsSinceSetup9:         setup.sinceBar9,
		HighestCloseSinceSetup9: setup.bestClose,
		TDSTSupport:             tdst.support,
		TDSTActive:              tdst.active,
		TDSTResistance:          tdst.resist,
		TDSTResActive:           tdst.resActive,
		TDSTResBroken:           tdst.resBroken,
		Countdown:               count,
		CountdownComplete:       cdComplete,
		RecentHigherLow:         higherLow,
		Warm:                    readinessAt(i, e.cfg),
	}
	e.history = append(e.history, st)

	e.logTransitions(st)
	return st
}

// Run folds a whole series and returns the full per-bar state history.
func (e *Engine) Run(bars []Bar) []State {
	for _, b := range bars {
		e.Step(b)
	}
	return e.History()
}

// History returns the per-bar states computed so far. The returned slice is
// the engine's own; callers must not mutate it.
func (e *Engine) History() []State {
	return e.history
}

// Latest returns the most recent state. Before the first bar it returns an
// InsufficientHistoryError rather than a zero state, so callers can tell
// "no data yet" apart from a genuinely inactive snapshot.
func (e *Engine) Latest() (State, error) {
	if len(e.history) == 0 {
		return State{}, &InsufficientHistoryError{Component: "engine", Need: 1, Have: 0}
	}
	return e.history[len(e.history)-1], nil
}

// BarCount reports how many bars the engine has consumed.
func (e *Engine) BarCount() int { return len(e.bars) }

func (e *Engine) logTransitions(st State) {
	if len(e.history) < 2 {
		return
	}
	prev := e.history[len(e.history)-2]
	switch {
	case st.SetupCount == setupTarget && prev.SetupCount < setupTarget:
		e.log.Debug().Int("index", st.Index).
			Float64("tdst_support", st.TDSTSupport).
			Float64("bar9_close", st.SetupBar9Close).
			Msg("setup nine completed")
	case st.CountdownComplete && !prev.CountdownComplete:
		e.log.Debug().Int("index", st.Index).Msg("countdown thirteen reached")
	case !st.TDSTActive && prev.TDSTActive:
		e.log.Debug().Int("index", st.Index).
			Float64("support", prev.TDSTSupport).
			Msg("tdst support violated")
	case st.TDSTResBroken:
		e.log.Debug().Int("index", st.Index).Msg("tdst resistance broken")
	}
}
