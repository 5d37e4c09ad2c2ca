package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// TokenExchangeRate is one row of the market price feed, keyed by contract address
type TokenExchangeRate struct {
	Address                  string              `db:"address" json:"address"`
	Symbol                   string              `db:"symbol" json:"symbol"`
	Name                     string              `db:"name" json:"name"`
	Image                    *string             `db:"image" json:"image,omitempty"`
	CurrentPrice             decimal.NullDecimal `db:"current_price" json:"current_price"`
	MarketCap                decimal.NullDecimal `db:"market_cap" json:"market_cap"`
	TotalVolume              decimal.NullDecimal `db:"total_volume" json:"total_volume"`
	High24h                  decimal.NullDecimal `db:"high_24h" json:"high_24h"`
	Low24h                   decimal.NullDecimal `db:"low_24h" json:"low_24h"`
	PriceChange24h           decimal.NullDecimal `db:"price_change_24h" json:"price_change_24h"`
	PriceChangePercentage24h decimal.NullDecimal `db:"price_change_percentage_24h" json:"price_change_percentage_24h"`
	CirculatingSupply        decimal.NullDecimal `db:"circulating_supply" json:"circulating_supply"`
	TotalSupply              decimal.NullDecimal `db:"total_supply" json:"total_supply"`
	LastUpdated              *time.Time          `db:"last_updated" json:"last_updated,omitempty"`
}

// ExchangeRateFilter for listing exchange rates
type ExchangeRateFilter struct {
	SortBy    string
	SortOrder string
	Limit     int
	Offset    int
}
