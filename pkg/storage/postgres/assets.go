package postgres

import (
	"context"
	"fmt"

	"marketpulse/internal/market"

	"gorm.io/gorm"
)

// ReplaceAssets swaps the whole table for the given records in one
// transaction; readers see either the old rows or the new ones.
func (p *PostgresClient) ReplaceAssets(ctx context.Context, records []AssetRecord) error {
	return p.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM "asset_record"`).Error; err != nil {
			return fmt.Errorf("clear asset_record: %w", err)
		}
		if len(records) == 0 {
			return nil
		}
		if err := tx.Create(&records).Error; err != nil {
			return fmt.Errorf("insert asset_record: %w", err)
		}
		return nil
	})
}

// ToAssetRecords converts a snapshot into table rows, ranked by snapshot order.
func ToAssetRecords(snap market.Snapshot) []AssetRecord {
	records := make([]AssetRecord, 0, snap.Len())
	for i, a := range snap.Assets() {
		records = append(records, AssetRecord{
			Rank:                     i + 1,
			Name:                     a.Name,
			Symbol:                   a.Symbol,
			CurrentPrice:             a.CurrentPrice,
			MarketCap:                a.MarketCap,
			TotalVolume:              a.TotalVolume,
			PriceChangePercentage24h: a.PriceChangePercentage24h,
			FetchedAt:                snap.FetchedAt(),
		})
	}
	return records
}
