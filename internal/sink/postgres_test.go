package sink_test

import (
	"context"
	"errors"
	"testing"

	"marketpulse/internal/market"
	"marketpulse/internal/sink"
	"marketpulse/pkg/storage/postgres"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeStore struct {
	calls   int
	records []postgres.AssetRecord
	err     error
	healthy bool
	closed  bool
}

func (f *fakeStore) ReplaceAssets(_ context.Context, records []postgres.AssetRecord) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.records = records
	return nil
}

func (f *fakeStore) IsHealthy(context.Context) bool { return f.healthy }

func (f *fakeStore) Close() error {
	f.closed = true
	return nil
}

// opener hands out the given stores in order, or fails with err once they run out.
func opener(err error, stores ...*fakeStore) (sink.StoreOpener, *int) {
	opens := 0
	return func(context.Context) (sink.AssetStore, error) {
		opens++
		if len(stores) == 0 {
			return nil, err
		}
		s := stores[0]
		stores = stores[1:]
		return s, nil
	}, &opens
}

// go test -v --run TestPostgresTableReplace
func TestPostgresTableReplace(t *testing.T) {
	store := &fakeStore{healthy: true}
	open, opens := opener(nil, store)
	table := sink.NewPostgresTable(open, zaptest.NewLogger(t))

	require.NoError(t, table.Replace(context.Background(), snapshotOf(t, btc, eth)))
	require.NoError(t, table.Replace(context.Background(), snapshotOf(t, btc, eth)))
	assert.Equal(t, 1, *opens, "healthy connection is reused")

	require.Len(t, store.records, 2)
	assert.Equal(t, "btc", store.records[0].Symbol)
	assert.Equal(t, 2, store.records[1].Rank)

	require.NoError(t, table.Close())
	assert.True(t, store.closed)
}

// go test -v --run TestPostgresTableError
func TestPostgresTableError(t *testing.T) {
	cause := errors.New("connection reset")
	open, _ := opener(nil, &fakeStore{healthy: true, err: cause})
	table := sink.NewPostgresTable(open, zaptest.NewLogger(t))

	err := table.Replace(context.Background(), snapshotOf(t, btc))
	var pe *market.PublishError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "live_table", pe.Sink)
	assert.ErrorIs(t, err, cause)
}

// go test -v --run TestPostgresTableUnreachable
func TestPostgresTableUnreachable(t *testing.T) {
	cause := errors.New("dial tcp 127.0.0.1:1: connect: connection refused")
	store := &fakeStore{healthy: true}
	open, opens := opener(cause)
	table := sink.NewPostgresTable(open, zaptest.NewLogger(t))

	for i := 0; i < 2; i++ {
		err := table.Replace(context.Background(), snapshotOf(t, btc))
		var pe *market.PublishError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, "live_table", pe.Sink)
		assert.ErrorIs(t, err, cause)
	}
	assert.Equal(t, 2, *opens, "open is retried on every cycle")

	// the database comes back
	table.Open, opens = opener(nil, store)
	require.NoError(t, table.Replace(context.Background(), snapshotOf(t, btc)))
	assert.Equal(t, 1, store.calls)
	assert.Equal(t, 1, *opens)
}

// go test -v --run TestPostgresTableReopensUnhealthy
func TestPostgresTableReopensUnhealthy(t *testing.T) {
	first := &fakeStore{healthy: true}
	second := &fakeStore{healthy: true}
	open, opens := opener(nil, first, second)
	table := sink.NewPostgresTable(open, zaptest.NewLogger(t))

	require.NoError(t, table.Replace(context.Background(), snapshotOf(t, btc)))
	first.healthy = false
	require.NoError(t, table.Replace(context.Background(), snapshotOf(t, eth)))

	assert.Equal(t, 2, *opens)
	assert.True(t, first.closed)
	assert.Equal(t, 1, first.calls)
	require.Len(t, second.records, 1)
	assert.Equal(t, "eth", second.records[0].Symbol)
}
