package snapshot_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"marketpulse/internal/market"
	"marketpulse/internal/snapshot"
	"marketpulse/pkg/coingecko"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type stubClient struct {
	list coingecko.MarketList
	err  error
	got  coingecko.MarketsQuery
}

func (s *stubClient) GetMarkets(_ context.Context, q coingecko.MarketsQuery) (coingecko.MarketList, error) {
	s.got = q
	return s.list, s.err
}

func asset(symbol string, mcap float64) market.Asset {
	return market.Asset{Name: symbol, Symbol: symbol, CurrentPrice: 1, MarketCap: mcap, TotalVolume: 1}
}

func newLoader(t *testing.T, client snapshot.MarketsClient, universe int) *snapshot.Loader {
	return &snapshot.Loader{
		Client:     client,
		VsCurrency: "usd",
		Order:      coingecko.OrderMarketCapDesc,
		Universe:   universe,
		Timeout:    time.Second,
		Logger:     zaptest.NewLogger(t),
		Now:        func() time.Time { return time.Unix(1700000000, 0) },
	}
}

// go test -v --run TestFetchTruncatesToUniverse
func TestFetchTruncatesToUniverse(t *testing.T) {
	client := &stubClient{list: coingecko.MarketList{
		Assets: []market.Asset{asset("a", 3), asset("b", 2), asset("c", 1)},
		Total:  3,
	}}

	res, err := newLoader(t, client, 2).Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, client.got.PerPage)
	assert.Equal(t, coingecko.OrderMarketCapDesc, client.got.Order)
	assert.Equal(t, 1, client.got.Page)
	require.Equal(t, 2, res.Snapshot.Len())
	assert.Equal(t, "a", res.Snapshot.At(0).Symbol)
	assert.Equal(t, "b", res.Snapshot.At(1).Symbol)
	assert.Equal(t, time.Unix(1700000000, 0), res.Snapshot.FetchedAt())
}

// go test -v --run TestFetchTransportError
func TestFetchTransportError(t *testing.T) {
	cause := errors.New("API request failed with status code 500")
	_, err := newLoader(t, &stubClient{err: cause}, 50).Fetch(context.Background())

	var fe *market.FetchError
	require.ErrorAs(t, err, &fe)
	assert.ErrorIs(t, err, cause)
}

// go test -v --run TestFetchMajorityMalformed
func TestFetchMajorityMalformed(t *testing.T) {
	tests := []struct {
		name    string
		total   int
		dropped int
		fail    bool
	}{
		{"none dropped", 4, 0, false},
		{"exactly half", 4, 2, false},
		{"majority", 4, 3, true},
		{"all of one", 1, 1, true},
		{"empty payload", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := coingecko.MarketList{Total: tt.total}
			for i := 0; i < tt.total-tt.dropped; i++ {
				list.Assets = append(list.Assets, asset(string(rune('a'+i)), 1))
			}
			for i := 0; i < tt.dropped; i++ {
				list.Rejected = append(list.Rejected, coingecko.Rejection{Index: i, Reason: "missing name"})
			}

			res, err := newLoader(t, &stubClient{list: list}, 50).Fetch(context.Background())
			if tt.fail {
				var fe *market.FetchError
				require.ErrorAs(t, err, &fe)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.total-tt.dropped, res.Snapshot.Len())
			assert.Equal(t, tt.dropped, res.Dropped)
		})
	}
}

// go test -v --run TestFetchDropsNonNumericPrice
func TestFetchDropsNonNumericPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
		  {"name":"Bitcoin","symbol":"btc","current_price":64000,"market_cap":1.2e12,"total_volume":3e10,"price_change_percentage_24h":1.1},
		  {"name":"Ethereum","symbol":"eth","current_price":"abc","market_cap":4e11,"total_volume":1e10,"price_change_percentage_24h":2.2},
		  {"name":"Solana","symbol":"sol","current_price":150,"market_cap":7e10,"total_volume":2e9,"price_change_percentage_24h":-3.3}
		]`))
	}))
	defer srv.Close()

	loader := newLoader(t, coingecko.NewRESTClient(srv.URL, time.Second), 50)
	res, err := loader.Fetch(context.Background())
	require.NoError(t, err)

	require.Equal(t, 2, res.Snapshot.Len())
	assert.Equal(t, "btc", res.Snapshot.At(0).Symbol)
	assert.Equal(t, "sol", res.Snapshot.At(1).Symbol)
	assert.Equal(t, 1, res.Dropped)
}

// go test -v --run TestFetchStatusError
func TestFetchStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newLoader(t, coingecko.NewRESTClient(srv.URL, time.Second), 50).Fetch(context.Background())

	var fe *market.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, err.Error(), "status code 503")
}
