package postgres

import "time"

// AssetRecord is one row of the live market table.
type AssetRecord struct {
	ID uint `gorm:"primaryKey"`

	// position in the snapshot, 1-based
	Rank   int    `gorm:"not null;index:idx_asset_rank"`
	Name   string `gorm:"type:text;not null"`
	Symbol string `gorm:"type:varchar(32);not null;uniqueIndex:idx_asset_symbol"`

	CurrentPrice             float64 `gorm:"type:numeric;not null"`
	MarketCap                float64 `gorm:"type:numeric;not null"`
	TotalVolume              float64 `gorm:"type:numeric;not null"`
	PriceChangePercentage24h float64 `gorm:"column:price_change_percentage_24h;type:numeric;not null"`

	FetchedAt time.Time `gorm:"not null"`
}

// TableName overrides the default table name for GORM.
func (AssetRecord) TableName() string {
	return "asset_record"
}
