package repositories

import (
	"context"
	"time"

	"github.com/bimakw/token-explorer/internal/domain/entities"
)

// ExchangeRateRepository defines the interface for the market price table
type ExchangeRateRepository interface {
	// GetAll retrieves exchange rates sorted and paginated by the filter
	GetAll(ctx context.Context, filter entities.ExchangeRateFilter) ([]entities.TokenExchangeRate, error)

	// Count returns the number of exchange rates
	Count(ctx context.Context) (int64, error)

	// GetByAddress retrieves the rate of one contract, nil if absent
	GetByAddress(ctx context.Context, address string) (*entities.TokenExchangeRate, error)

	// GetBySymbol retrieves the rate for a ticker symbol, nil if absent
	GetBySymbol(ctx context.Context, symbol string) (*entities.TokenExchangeRate, error)

	// GetByAddresses retrieves the rates of several contracts
	GetByAddresses(ctx context.Context, addresses []string) ([]entities.TokenExchangeRate, error)

	// BatchUpsert creates or updates rates in a single transaction
	BatchUpsert(ctx context.Context, rates []entities.TokenExchangeRate) error

	// LatestUpdate returns the newest last_updated of the table, nil when it is empty
	LatestUpdate(ctx context.Context) (*time.Time, error)
}
