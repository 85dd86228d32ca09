package coingecko

import "marketpulse/internal/market"

// MarketsQuery holds the /coins/markets query parameters.
type MarketsQuery struct {
	VsCurrency string // e.g. "usd"
	Order      Order  // e.g. OrderMarketCapDesc
	PerPage    int    // 1..MaxPerPage
	Page       int    // 1-based
}

// Rejection describes a payload row that did not become an Asset.
type Rejection struct {
	Index  int    // position in the payload array
	Reason string // human-readable cause
}

// MarketList is a parsed /coins/markets payload.
type MarketList struct {
	Assets   []market.Asset // accepted rows, payload order
	Total    int            // rows in the payload
	Rejected []Rejection
}

// ErrorResponse is the body CoinGecko sends with non-2xx statuses.
type ErrorResponse struct {
	Status struct {
		ErrorCode    int    `json:"error_code"`
		ErrorMessage string `json:"error_message"`
	} `json:"status"`
	Error string `json:"error"`
}
