package snapshot

import (
	"context"
	"fmt"
	"time"

	"marketpulse/internal/market"
	"marketpulse/pkg/coingecko"

	"go.uber.org/zap"
)

// MarketsClient is the upstream query the loader depends on.
type MarketsClient interface {
	GetMarkets(ctx context.Context, q coingecko.MarketsQuery) (coingecko.MarketList, error)
}

// Loader fetches the current market snapshot for a bounded universe.
type Loader struct {
	Client     MarketsClient
	VsCurrency string
	Order      coingecko.Order
	Universe   int           // max assets per snapshot
	Timeout    time.Duration // per-fetch deadline, 0 for none
	Logger     *zap.Logger

	// Now stamps the snapshot; defaults to time.Now.
	Now func() time.Time
}

// LoadResult carries the snapshot plus how many payload rows were dropped.
type LoadResult struct {
	Snapshot market.Snapshot
	Dropped  int
}

// Fetch retrieves one snapshot. Malformed rows are dropped and logged; a
// transport failure, non-2xx status, or a payload where most rows are
// malformed is returned as a *market.FetchError. Fetch does not retry.
func (l *Loader) Fetch(ctx context.Context) (LoadResult, error) {
	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}

	list, err := l.Client.GetMarkets(ctx, coingecko.MarketsQuery{
		VsCurrency: l.VsCurrency,
		Order:      l.Order,
		PerPage:    l.Universe,
		Page:       1,
	})
	if err != nil {
		return LoadResult{}, &market.FetchError{Op: "coins/markets", Err: err}
	}

	for _, r := range list.Rejected {
		l.logger().Warn("dropped malformed record", zap.Int("index", r.Index), zap.String("reason", r.Reason))
	}

	dropped := len(list.Rejected)
	if dropped*2 > list.Total {
		return LoadResult{}, &market.FetchError{
			Op:  "coins/markets",
			Err: fmt.Errorf("%d of %d records malformed", dropped, list.Total),
		}
	}

	assets := list.Assets
	if len(assets) > l.Universe {
		assets = assets[:l.Universe]
	}

	snap, err := market.NewSnapshot(assets, l.now())
	if err != nil {
		return LoadResult{}, &market.FetchError{Op: "coins/markets", Err: err}
	}

	l.logger().Debug("loaded snapshot", zap.Int("assets", snap.Len()), zap.Int("dropped", dropped))
	return LoadResult{Snapshot: snap, Dropped: dropped}, nil
}

func (l *Loader) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

func (l *Loader) logger() *zap.Logger {
	if l.Logger == nil {
		return zap.NewNop()
	}
	return l.Logger
}
