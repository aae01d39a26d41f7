package demark

// Bar represents a single OHLC bar. Bars are identified by their position in
// the series; ordering is total and significant.
type Bar struct {
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}
