package data

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tdmkt/tdseq/internal/domain/demark"
)

func TestSnapshotStore_PutAndGet(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	store := NewSnapshotStore(rdb, 5*time.Minute)

	st := demark.State{
		Index:       42,
		SetupCount:  9,
		TDSTActive:  true,
		TDSTSupport: 103.0,
	}
	payload, err := json.Marshal(st)
	require.NoError(t, err)

	mock.ExpectSet("tdseq:snapshot:RELIANCE", payload, 5*time.Minute).SetVal("OK")
	require.NoError(t, store.Put(context.Background(), "RELIANCE", st))

	mock.ExpectGet("tdseq:snapshot:RELIANCE").SetVal(string(payload))
	got, err := store.Get(context.Background(), "RELIANCE")
	require.NoError(t, err)
	assert.Equal(t, st, got)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotStore_MissingSymbol(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	store := NewSnapshotStore(rdb, 0)

	mock.ExpectGet("tdseq:snapshot:NOPE").RedisNil()

	_, err := store.Get(context.Background(), "NOPE")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSnapshotMissing))
}
