package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/tdmkt/tdseq/internal/data"
	"github.com/tdmkt/tdseq/internal/domain/demark"
	"github.com/tdmkt/tdseq/internal/exits"
	"github.com/tdmkt/tdseq/internal/metrics"
)

type fakeSnapshots struct {
	states map[string]demark.State
}

func (f *fakeSnapshots) Get(_ context.Context, symbol string) (demark.State, error) {
	st, ok := f.states[symbol]
	if !ok {
		return demark.State{}, data.ErrSnapshotMissing
	}
	return st, nil
}

func (f *fakeSnapshots) Put(_ context.Context, symbol string, st demark.State) error {
	if f.states == nil {
		f.states = make(map[string]demark.State)
	}
	f.states[symbol] = st
	return nil
}

func newTestServer(states map[string]demark.State, limit rate.Limit, burst int) *Server {
	return NewServer(
		&fakeSnapshots{states: states},
		exits.NewEvaluator(nil),
		metrics.NewRegistry(),
		limit, burst,
		zerolog.Nop(),
	)
}

func TestSnapshotEndpoint(t *testing.T) {
	server := newTestServer(map[string]demark.State{
		"RELIANCE": {Index: 99, SetupCount: 9, SetupComplete: true},
	}, 100, 100)
	ts := httptest.NewServer(server.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/snapshot/RELIANCE")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var st demark.State
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	assert.Equal(t, 99, st.Index)
	assert.Equal(t, 9, st.SetupCount)
}

func TestSnapshotEndpoint_UnknownSymbol(t *testing.T) {
	server := newTestServer(nil, 100, 100)
	ts := httptest.NewServer(server.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/snapshot/NOPE")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPublishEndpoint_RoundTrip(t *testing.T) {
	server := newTestServer(nil, 100, 100)
	ts := httptest.NewServer(server.Router())
	defer ts.Close()

	body, _ := json.Marshal(demark.State{Index: 12, SetupCount: 9, SetupComplete: true})
	resp, err := http.Post(ts.URL+"/v1/snapshot/RELIANCE", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got, err := http.Get(ts.URL + "/v1/snapshot/RELIANCE")
	require.NoError(t, err)
	defer got.Body.Close()
	require.Equal(t, http.StatusOK, got.StatusCode)

	var st demark.State
	require.NoError(t, json.NewDecoder(got.Body).Decode(&st))
	assert.Equal(t, 12, st.Index)
	assert.True(t, st.SetupComplete)
}

func TestPublishEndpoint_BadBody(t *testing.T) {
	server := newTestServer(nil, 100, 100)
	ts := httptest.NewServer(server.Router())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/v1/snapshot/X", "application/json", bytes.NewReader([]byte("{")))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExitsEndpoint(t *testing.T) {
	server := newTestServer(map[string]demark.State{
		"RELIANCE": {TDSTActive: true, TDSTSupport: 100.0},
	}, 100, 100)
	ts := httptest.NewServer(server.Router())
	defer ts.Close()

	body, _ := json.Marshal(map[string]interface{}{
		"close":       99.9,
		"entry_price": 95.0,
		"days_held":   4,
	})
	resp, err := http.Post(ts.URL+"/v1/exits/RELIANCE", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Symbol    string           `json:"symbol"`
		Decisions []exits.Decision `json:"decisions"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Decisions, 3)

	assert.False(t, out.Decisions[0].Triggered)
	assert.True(t, out.Decisions[1].Triggered)
	assert.Equal(t, "TDST_SUPPORT_BREACH", out.Decisions[1].ReasonLabel)
	assert.False(t, out.Decisions[2].Triggered)
}

func TestExitsEndpoint_BadBody(t *testing.T) {
	server := newTestServer(map[string]demark.State{"X": {}}, 100, 100)
	ts := httptest.NewServer(server.Router())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/v1/exits/X", "application/json", bytes.NewReader([]byte("{")))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRateLimit(t *testing.T) {
	server := newTestServer(map[string]demark.State{"X": {}}, 1, 1)
	ts := httptest.NewServer(server.Router())
	defer ts.Close()

	first, err := http.Get(ts.URL + "/v1/snapshot/X")
	require.NoError(t, err)
	first.Body.Close()
	require.Equal(t, http.StatusOK, first.StatusCode)

	second, err := http.Get(ts.URL + "/v1/snapshot/X")
	require.NoError(t, err)
	second.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, second.StatusCode)
}
