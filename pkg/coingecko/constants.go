package coingecko

import "fmt"

// Order is the sort criterion accepted by /coins/markets.
type Order string

const (
	OrderMarketCapDesc Order = "market_cap_desc"
	OrderMarketCapAsc  Order = "market_cap_asc"
	OrderVolumeDesc    Order = "volume_desc"
	OrderVolumeAsc     Order = "volume_asc"
	OrderIDDesc        Order = "id_desc"
	OrderIDAsc         Order = "id_asc"
)

// MaxPerPage is the largest page size the endpoint serves.
const MaxPerPage = 250

var validOrders = map[Order]struct{}{
	OrderMarketCapDesc: {},
	OrderMarketCapAsc:  {},
	OrderVolumeDesc:    {},
	OrderVolumeAsc:     {},
	OrderIDDesc:        {},
	OrderIDAsc:         {},
}

// IsValid checks if the Order is one the endpoint understands
func (o Order) IsValid() bool {
	_, ok := validOrders[o]
	return ok
}

// ParseOrder parses a config string into an Order
func ParseOrder(s string) (Order, error) {
	o := Order(s)
	if !o.IsValid() {
		return "", fmt.Errorf("invalid coingecko order: %q", s)
	}
	return o, nil
}
