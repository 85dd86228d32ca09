package sink

import (
	"context"
	"io"

	"marketpulse/internal/market"
	"marketpulse/pkg/storage/postgres"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// AssetStore is the table operation PostgresTable needs.
type AssetStore interface {
	ReplaceAssets(ctx context.Context, records []postgres.AssetRecord) error
}

// StoreOpener connects to the database and prepares the asset table.
type StoreOpener func(ctx context.Context) (AssetStore, error)

type healthChecker interface {
	IsHealthy(ctx context.Context) bool
}

// PostgresTable mirrors each snapshot into the asset_record table. The
// connection is opened on first use and reopened after it goes unhealthy, so
// an unreachable database fails only the live table for that cycle.
// Not safe for concurrent use.
type PostgresTable struct {
	Open   StoreOpener
	Logger *zap.Logger

	store AssetStore
}

func NewPostgresTable(open StoreOpener, logger *zap.Logger) *PostgresTable {
	return &PostgresTable{Open: open, Logger: logger}
}

func (p *PostgresTable) Name() string { return "live_table" }

func (p *PostgresTable) Replace(ctx context.Context, snap market.Snapshot) error {
	store, err := p.connect(ctx)
	if err != nil {
		return &market.PublishError{Sink: p.Name(), Err: err}
	}
	if err := store.ReplaceAssets(ctx, postgres.ToAssetRecords(snap)); err != nil {
		return &market.PublishError{Sink: p.Name(), Err: err}
	}
	return nil
}

// Close releases the open connection, if any.
func (p *PostgresTable) Close() error {
	store := p.store
	p.store = nil
	if c, ok := store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (p *PostgresTable) connect(ctx context.Context) (AssetStore, error) {
	if p.store != nil {
		h, ok := p.store.(healthChecker)
		if !ok || h.IsHealthy(ctx) {
			return p.store, nil
		}
		p.logger().Warn("live table connection unhealthy; reopening")
		if err := p.Close(); err != nil {
			p.logger().Warn("failed to close live table connection", zap.Error(err))
		}
	}

	store, err := p.Open(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "open live table")
	}
	p.store = store
	return store, nil
}

func (p *PostgresTable) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}
