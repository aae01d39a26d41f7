package demark

import "fmt"

// Setup and Countdown targets are fixed by the TD Sequential definition.
const (
	setupTarget     = 9
	countdownTarget = 13
	tdstWindow      = 4 // first four bars of a completed nine-bar run
)

// Config defines the tunable parameters of the indicator engine.
type Config struct {
	Lookback      int `yaml:"lookback"`       // breakout lookback for TD MA I/II (default 12)
	SMAWindow     int `yaml:"sma_window"`     // simple moving average window (default 5)
	ExtensionBars int `yaml:"extension_bars"` // bars a trigger stays active beyond the trigger bar (default 4)

	// StrictWarmup withholds a moving-average trigger entirely while the SMA
	// window is not yet full. The lenient default reproduces the historical
	// behavior: the window activates and reports 0.0 until warm.
	StrictWarmup bool `yaml:"strict_warmup"`

	// ResetSetupOnBreak clears the setup-completion tracking (bars since bar
	// nine, highest close since bar nine) when a run breaks. The default keeps
	// the tracking sticky across run breaks for parity with historical output.
	ResetSetupOnBreak bool `yaml:"reset_setup_on_break"`
}

// DefaultConfig returns the standard TD Sequential parameters.
func DefaultConfig() Config {
	return Config{
		Lookback:      12,
		SMAWindow:     5,
		ExtensionBars: 4,
	}
}

// Validate checks the configuration for usable values.
func (c Config) Validate() error {
	if c.Lookback < 1 {
		return fmt.Errorf("lookback must be positive, got %d", c.Lookback)
	}
	if c.SMAWindow < 1 {
		return fmt.Errorf("sma_window must be positive, got %d", c.SMAWindow)
	}
	if c.ExtensionBars < 0 {
		return fmt.Errorf("extension_bars must be non-negative, got %d", c.ExtensionBars)
	}
	return nil
}
