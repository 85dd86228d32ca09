// Package stats derives summary statistics from a market snapshot.
// Every function is pure; ties resolve to the earliest asset in snapshot order.
package stats

import (
	"sort"

	"marketpulse/internal/market"
)

// Ranked is one entry of the market cap ranking.
type Ranked struct {
	Name      string
	MarketCap float64
}

// Change is an asset's 24h percentage move.
type Change struct {
	Name                     string
	PriceChangePercentage24h float64
}

// Statistics is computed once per snapshot and never mutated.
type Statistics struct {
	TopByMarketCap []Ranked
	AveragePrice   float64
	MaxChange      Change
	MinChange      Change
	Count          int // assets in the source snapshot
}

// Compute derives every statistic. It fails with *market.EmptySnapshotError
// when the snapshot has no assets.
func Compute(s market.Snapshot, k int) (Statistics, error) {
	avg, err := AveragePrice(s)
	if err != nil {
		return Statistics{}, err
	}
	maxChange, err := MaxChange(s)
	if err != nil {
		return Statistics{}, err
	}
	minChange, err := MinChange(s)
	if err != nil {
		return Statistics{}, err
	}
	return Statistics{
		TopByMarketCap: TopByMarketCap(s, k),
		AveragePrice:   avg,
		MaxChange:      maxChange,
		MinChange:      minChange,
		Count:          s.Len(),
	}, nil
}

// TopByMarketCap returns the min(k, len) largest assets by market cap,
// descending.
func TopByMarketCap(s market.Snapshot, k int) []Ranked {
	assets := s.Assets()
	sort.SliceStable(assets, func(i, j int) bool {
		return assets[i].MarketCap > assets[j].MarketCap
	})
	if k < 0 {
		k = 0
	}
	if k > len(assets) {
		k = len(assets)
	}

	out := make([]Ranked, k)
	for i := 0; i < k; i++ {
		out[i] = Ranked{Name: assets[i].Name, MarketCap: assets[i].MarketCap}
	}
	return out
}

// AveragePrice is the arithmetic mean of current prices.
func AveragePrice(s market.Snapshot) (float64, error) {
	if s.Len() == 0 {
		return 0, &market.EmptySnapshotError{Stat: "average_price"}
	}
	var sum float64
	for i := 0; i < s.Len(); i++ {
		sum += s.At(i).CurrentPrice
	}
	return sum / float64(s.Len()), nil
}

// MaxChange returns the asset with the largest 24h change.
func MaxChange(s market.Snapshot) (Change, error) {
	return extremum(s, "max_change", func(a, b float64) bool { return a > b })
}

// MinChange returns the asset with the smallest 24h change.
func MinChange(s market.Snapshot) (Change, error) {
	return extremum(s, "min_change", func(a, b float64) bool { return a < b })
}

// extremum scans once; only a strictly better value replaces the current pick.
func extremum(s market.Snapshot, stat string, better func(a, b float64) bool) (Change, error) {
	if s.Len() == 0 {
		return Change{}, &market.EmptySnapshotError{Stat: stat}
	}
	best := s.At(0)
	for i := 1; i < s.Len(); i++ {
		if a := s.At(i); better(a.PriceChangePercentage24h, best.PriceChangePercentage24h) {
			best = a
		}
	}
	return Change{Name: best.Name, PriceChangePercentage24h: best.PriceChangePercentage24h}, nil
}
