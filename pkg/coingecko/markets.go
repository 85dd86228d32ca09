package coingecko

import (
	"fmt"

	"marketpulse/internal/market"

	"github.com/tidwall/gjson"
)

// ParseMarkets converts a /coins/markets payload into assets.
// It skips invalid rows, recording why, and fails only when the payload
// itself is not a JSON array.
func ParseMarkets(body []byte) (MarketList, error) {
	if !gjson.ValidBytes(body) {
		return MarketList{}, fmt.Errorf("payload is not valid JSON")
	}
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return MarketList{}, fmt.Errorf("payload is not an array")
	}

	rows := root.Array()
	out := MarketList{Total: len(rows)}
	seen := make(map[string]struct{}, len(rows))

	for i, row := range rows {
		asset, err := parseAsset(row)
		if err != nil {
			out.Rejected = append(out.Rejected, Rejection{Index: i, Reason: err.Error()})
			continue
		}
		if _, dup := seen[asset.Symbol]; dup {
			out.Rejected = append(out.Rejected, Rejection{Index: i, Reason: fmt.Sprintf("duplicate symbol %q", asset.Symbol)})
			continue
		}
		seen[asset.Symbol] = struct{}{}
		out.Assets = append(out.Assets, asset)
	}
	return out, nil
}

func parseAsset(row gjson.Result) (market.Asset, error) {
	if !row.IsObject() {
		return market.Asset{}, fmt.Errorf("row is not an object")
	}

	name, err := stringField(row, "name")
	if err != nil {
		return market.Asset{}, err
	}
	symbol, err := stringField(row, "symbol")
	if err != nil {
		return market.Asset{}, err
	}

	var nums [4]float64
	for i, key := range []string{"current_price", "market_cap", "total_volume", "price_change_percentage_24h"} {
		if nums[i], err = numberField(row, key); err != nil {
			return market.Asset{}, fmt.Errorf("%s: %w", symbol, err)
		}
	}

	asset := market.Asset{
		Name:                     name,
		Symbol:                   symbol,
		CurrentPrice:             nums[0],
		MarketCap:                nums[1],
		TotalVolume:              nums[2],
		PriceChangePercentage24h: nums[3],
	}
	if err := asset.Validate(); err != nil {
		return market.Asset{}, err
	}
	return asset, nil
}

func stringField(row gjson.Result, key string) (string, error) {
	v := row.Get(key)
	if v.Type != gjson.String || v.Str == "" {
		return "", fmt.Errorf("missing %s", key)
	}
	return v.Str, nil
}

func numberField(row gjson.Result, key string) (float64, error) {
	v := row.Get(key)
	switch v.Type {
	case gjson.Number:
		return v.Num, nil
	case gjson.Null:
		if v.Exists() {
			return 0, fmt.Errorf("%s is null", key)
		}
		return 0, fmt.Errorf("missing %s", key)
	default:
		return 0, fmt.Errorf("%s is not numeric: %s", key, v.Raw)
	}
}
