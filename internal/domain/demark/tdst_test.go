package demark

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTDST_SupportFromFirstFourRunBars(t *testing.T) {
	bars := trendBars(14)
	states := New(DefaultConfig()).Run(bars)

	require.True(t, states[12].SetupComplete)
	assert.True(t, states[12].TDSTActive)
	// The run spans indices 4-12; support is the lowest low of its first four bars.
	assert.Equal(t, bars[4].Low, states[12].TDSTSupport)
	assert.False(t, states[11].TDSTActive)
}

func TestTDST_SupportDeactivatesOnCloseBelow(t *testing.T) {
	bars := trendBars(14)
	support := bars[4].Low // 103
	bars = append(bars,
		Bar{Open: 104, High: 104.5, Low: 103.5, Close: 104},             // above support
		Bar{Open: 103, High: 103.5, Low: 102, Close: support - 0.5},     // breach
		Bar{Open: 103, High: 103.5, Low: 102, Close: support + 1},       // after breach
	)

	states := New(DefaultConfig()).Run(bars)

	assert.True(t, states[14].TDSTActive)
	assert.Equal(t, support, states[14].TDSTSupport)

	assert.False(t, states[15].TDSTActive)
	assert.Zero(t, states[15].TDSTSupport)
	// Stays inactive until the next Setup completes.
	assert.False(t, states[16].TDSTActive)
}

// bearBars mirrors trendBars downward.
func bearBars(n int) []Bar {
	bars := make([]Bar, n)
	for i := 0; i < n; i++ {
		c := 100.0 - float64(i)
		bars[i] = Bar{Open: c + 0.5, High: c + 1, Low: c - 0.5, Close: c}
	}
	return bars
}

func TestTDST_ResistanceFromBearishRun(t *testing.T) {
	bars := bearBars(14)
	states := New(DefaultConfig()).Run(bars)

	// Nine consecutive lower closes complete at index 12.
	assert.True(t, states[12].TDSTResActive)
	assert.Equal(t, bars[4].High, states[12].TDSTResistance)
	assert.False(t, states[12].TDSTResBroken)
}

func TestTDST_ResistanceBreakoutFlagsSingleBar(t *testing.T) {
	bars := bearBars(14)
	resistance := bars[4].High // 97
	bars = append(bars,
		Bar{Open: 90, High: 95, Low: 89, Close: 94},              // still below
		Bar{Open: 95, High: 99, Low: 94, Close: resistance + 1},  // breakout
		Bar{Open: 98, High: 100, Low: 97, Close: resistance + 2}, // after breakout
	)

	states := New(DefaultConfig()).Run(bars)

	assert.True(t, states[14].TDSTResActive)
	assert.False(t, states[14].TDSTResBroken)

	assert.False(t, states[15].TDSTResActive)
	assert.True(t, states[15].TDSTResBroken)
	assert.Zero(t, states[15].TDSTResistance)

	// The flag does not persist past the breakout bar.
	assert.False(t, states[16].TDSTResBroken)
}
