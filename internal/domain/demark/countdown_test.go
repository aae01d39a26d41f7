package demark

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountdown_IncrementsOnHighTwoBack(t *testing.T) {
	bars := trendBars(16)
	// Bar 14 closes below the high two bars back, bar 15 back above it.
	bars[14].Close = bars[12].High - 0.1
	states := New(DefaultConfig()).Run(bars)

	require.True(t, states[12].SetupComplete)
	assert.Equal(t, 1, states[13].Countdown)
	assert.Equal(t, 1, states[14].Countdown) // no increment
	assert.Equal(t, 2, states[15].Countdown)
}

func TestCountdown_DisarmedByNewRun(t *testing.T) {
	bars := trendBars(14)
	// Break the run twice so no new run starts, then resume.
	bars = append(bars,
		Bar{Open: 105, High: 105.5, Low: 104, Close: 105}, // idx 14: below close[10]
		Bar{Open: 104, High: 104.5, Low: 103, Close: 104}, // idx 15: below close[11]
		Bar{Open: 113, High: 113.5, Low: 112, Close: 113.5}, // idx 16: above close[12], new run
		Bar{Open: 120, High: 120.5, Low: 119, Close: 120}, // idx 17
	)

	states := New(DefaultConfig()).Run(bars)

	assert.Equal(t, 1, states[13].Countdown)
	// The run break alone does not touch the countdown.
	assert.Equal(t, 0, states[14].SetupCount)
	assert.Equal(t, 1, states[14].Countdown)
	assert.Equal(t, 1, states[15].Countdown)

	// A fresh run start disarms and zeroes it.
	assert.Equal(t, 1, states[16].SetupCount)
	assert.Equal(t, 0, states[16].Countdown)
	// Disarmed: qualifying closes no longer count.
	assert.Equal(t, 0, states[17].Countdown)
}
