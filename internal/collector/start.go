package collector

import (
	"context"
	"fmt"

	"marketpulse/config"
	"marketpulse/internal/metrics"
	"marketpulse/internal/scheduler"
	"marketpulse/internal/sink"
	"marketpulse/internal/snapshot"
	"marketpulse/pkg/coingecko"
	"marketpulse/pkg/storage/postgres"

	"go.uber.org/zap"
)

// Start wires the pipeline from cfg and runs cycles until ctx is cancelled
// or the configured cycle count is reached.
func Start(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	order, err := coingecko.ParseOrder(cfg.CoinGecko.Order)
	if err != nil {
		return err
	}

	// REST client for the markets endpoint
	restClient := coingecko.NewRESTClient(cfg.CoinGecko.REST.BaseURL, cfg.CoinGecko.REST.Timeout)
	loader := &snapshot.Loader{
		Client:     restClient,
		VsCurrency: cfg.CoinGecko.VsCurrency,
		Order:      order,
		Universe:   cfg.CoinGecko.Universe,
		Timeout:    cfg.CoinGecko.REST.Timeout,
		Logger:     logger,
	}

	table, closeTable := newLiveTable(cfg, logger)
	defer closeTable()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		go func() {
			if err := m.Serve(ctx, cfg.Metrics.Addr, logger); err != nil {
				logger.Error("metrics listener failed", zap.Error(err))
			}
		}()
	}

	c := &Collector{
		Fetcher: loader,
		Table:   table,
		Report:  sink.NewReport(cfg.Report.Path),
		TopK:    cfg.Cycle.TopK,
		Logger:  logger,
		Metrics: m,
	}

	s := scheduler.New(c.Cycle, cfg.Cycle.Interval, logger)
	s.MaxCycles = cfg.Cycle.MaxCycles
	s.Run(ctx)
	return nil
}

// newLiveTable builds the configured live table. The Postgres backend
// connects lazily on the first cycle, so an unreachable database fails only
// that sink.
func newLiveTable(cfg *config.Config, logger *zap.Logger) (LiveTable, func()) {
	switch cfg.LiveTable.Backend {
	case config.BackendPostgres:
		table := sink.NewPostgresTable(func(context.Context) (sink.AssetStore, error) {
			client, err := postgres.InitializeAndMigrateAssetRecord(cfg.Postgres, cfg.Log.Environment, true)
			if err != nil {
				return nil, fmt.Errorf("failed to connect to DB: %w", err)
			}
			return client, nil
		}, logger)
		closeFn := func() {
			if err := table.Close(); err != nil {
				logger.Warn("failed to close DB", zap.Error(err))
			}
		}
		return table, closeFn
	default:
		return sink.NewWorkbook(cfg.LiveTable.Path, cfg.LiveTable.Sheet, logger), func() {}
	}
}
