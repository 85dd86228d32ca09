package market

import (
	"fmt"
	"math"
	"time"
)

// Asset is one row of a market snapshot.
type Asset struct {
	Name                     string  `json:"name"`                        // Display name, e.g. "Bitcoin"
	Symbol                   string  `json:"symbol"`                      // Ticker, e.g. "btc"
	CurrentPrice             float64 `json:"current_price"`               // Quote-currency price, > 0
	MarketCap                float64 `json:"market_cap"`                  // >= 0
	TotalVolume              float64 `json:"total_volume"`                // 24h traded value, >= 0
	PriceChangePercentage24h float64 `json:"price_change_percentage_24h"` // Signed percentage
}

// Validate reports why the asset cannot be part of a snapshot.
func (a Asset) Validate() error {
	if a.Name == "" {
		return fmt.Errorf("asset has empty name")
	}
	if a.Symbol == "" {
		return fmt.Errorf("asset %q has empty symbol", a.Name)
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"current_price", a.CurrentPrice},
		{"market_cap", a.MarketCap},
		{"total_volume", a.TotalVolume},
		{"price_change_percentage_24h", a.PriceChangePercentage24h},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("asset %q: %s is not finite", a.Symbol, f.name)
		}
	}
	if a.CurrentPrice <= 0 {
		return fmt.Errorf("asset %q: current_price must be positive, got %v", a.Symbol, a.CurrentPrice)
	}
	if a.MarketCap < 0 {
		return fmt.Errorf("asset %q: market_cap must not be negative, got %v", a.Symbol, a.MarketCap)
	}
	if a.TotalVolume < 0 {
		return fmt.Errorf("asset %q: total_volume must not be negative, got %v", a.Symbol, a.TotalVolume)
	}
	return nil
}

// Snapshot is an immutable, ordered batch of assets fetched at one instant.
type Snapshot struct {
	assets    []Asset
	fetchedAt time.Time
}

// NewSnapshot validates every asset and rejects duplicate symbols.
// The input slice is copied.
func NewSnapshot(assets []Asset, fetchedAt time.Time) (Snapshot, error) {
	seen := make(map[string]struct{}, len(assets))
	cp := make([]Asset, len(assets))
	for i, a := range assets {
		if err := a.Validate(); err != nil {
			return Snapshot{}, err
		}
		if _, dup := seen[a.Symbol]; dup {
			return Snapshot{}, fmt.Errorf("duplicate symbol %q in snapshot", a.Symbol)
		}
		seen[a.Symbol] = struct{}{}
		cp[i] = a
	}
	return Snapshot{assets: cp, fetchedAt: fetchedAt}, nil
}

// Assets returns a copy of the rows in snapshot order.
func (s Snapshot) Assets() []Asset {
	out := make([]Asset, len(s.assets))
	copy(out, s.assets)
	return out
}

// At returns the i-th asset.
func (s Snapshot) At(i int) Asset { return s.assets[i] }

func (s Snapshot) Len() int { return len(s.assets) }

func (s Snapshot) FetchedAt() time.Time { return s.fetchedAt }
