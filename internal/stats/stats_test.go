package stats_test

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"
	"time"

	"marketpulse/internal/market"
	"marketpulse/internal/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSnapshot(t *testing.T, assets ...market.Asset) market.Snapshot {
	t.Helper()
	s, err := market.NewSnapshot(assets, time.Unix(0, 0))
	require.NoError(t, err)
	return s
}

func coin(name string, price, mcap, change float64) market.Asset {
	return market.Asset{
		Name:                     name,
		Symbol:                   name,
		CurrentPrice:             price,
		MarketCap:                mcap,
		TotalVolume:              1,
		PriceChangePercentage24h: change,
	}
}

// go test -v --run TestComputeExample
func TestComputeExample(t *testing.T) {
	s := mustSnapshot(t,
		coin("A", 10, 100, 2),
		coin("B", 20, 300, -5),
		coin("C", 5, 50, 9),
	)

	got, err := stats.Compute(s, 2)
	require.NoError(t, err)

	assert.Equal(t, []stats.Ranked{{Name: "B", MarketCap: 300}, {Name: "A", MarketCap: 100}}, got.TopByMarketCap)
	assert.Equal(t, "11.67", fmt.Sprintf("%.2f", got.AveragePrice))
	assert.Equal(t, stats.Change{Name: "C", PriceChangePercentage24h: 9}, got.MaxChange)
	assert.Equal(t, stats.Change{Name: "B", PriceChangePercentage24h: -5}, got.MinChange)
	assert.Equal(t, 3, got.Count)
}

// go test -v --run TestComputeEmpty
func TestComputeEmpty(t *testing.T) {
	s := mustSnapshot(t)

	_, err := stats.Compute(s, 5)
	assert.ErrorIs(t, err, market.ErrEmptySnapshot)

	_, err = stats.AveragePrice(s)
	assert.ErrorIs(t, err, market.ErrEmptySnapshot)
	_, err = stats.MaxChange(s)
	assert.ErrorIs(t, err, market.ErrEmptySnapshot)
	_, err = stats.MinChange(s)
	assert.ErrorIs(t, err, market.ErrEmptySnapshot)

	var ee *market.EmptySnapshotError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "min_change", ee.Stat)

	assert.Empty(t, stats.TopByMarketCap(s, 5))
}

// go test -v --run TestTopByMarketCapShortSnapshot
func TestTopByMarketCapShortSnapshot(t *testing.T) {
	s := mustSnapshot(t, coin("A", 1, 10, 0), coin("B", 1, 20, 0))

	top := stats.TopByMarketCap(s, 5)
	assert.Equal(t, []stats.Ranked{{Name: "B", MarketCap: 20}, {Name: "A", MarketCap: 10}}, top)
	assert.Empty(t, stats.TopByMarketCap(s, 0))
}

// go test -v --run TestTiesKeepSnapshotOrder
func TestTiesKeepSnapshotOrder(t *testing.T) {
	s := mustSnapshot(t,
		coin("first", 1, 50, 4),
		coin("second", 1, 80, -2),
		coin("third", 1, 50, 4),
		coin("fourth", 1, 80, -2),
	)

	top := stats.TopByMarketCap(s, 3)
	assert.Equal(t, []string{"second", "fourth", "first"}, names(top))

	maxChange, err := stats.MaxChange(s)
	require.NoError(t, err)
	assert.Equal(t, "first", maxChange.Name)

	minChange, err := stats.MinChange(s)
	require.NoError(t, err)
	assert.Equal(t, "second", minChange.Name)
}

// go test -v --run TestComputeDeterministic
func TestComputeDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 50; round++ {
		n := rng.Intn(60)
		assets := make([]market.Asset, n)
		for i := range assets {
			// coarse values so ties are common
			assets[i] = coin(fmt.Sprintf("c%d", i),
				float64(1+rng.Intn(100)),
				float64(rng.Intn(10)*1000),
				float64(rng.Intn(11)-5))
		}
		s := mustSnapshot(t, assets...)
		k := rng.Intn(8)

		top := stats.TopByMarketCap(s, k)
		assert.Len(t, top, min(k, n))
		assert.True(t, sort.SliceIsSorted(top, func(i, j int) bool {
			return top[i].MarketCap > top[j].MarketCap
		}), "ranking must be descending")

		if n == 0 {
			continue
		}
		first, err := stats.Compute(s, k)
		require.NoError(t, err)
		second, err := stats.Compute(s, k)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	}
}

func names(rs []stats.Ranked) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Name
	}
	return out
}
