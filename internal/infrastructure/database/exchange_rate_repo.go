package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/bimakw/token-explorer/internal/domain/entities"
	"github.com/bimakw/token-explorer/internal/domain/repositories"
)

// Ensure ExchangeRateRepo implements ExchangeRateRepository
var _ repositories.ExchangeRateRepository = (*ExchangeRateRepo)(nil)

const exchangeRateTable = "token_exchange_rates"

var exchangeRateColumns = []string{
	"address", "symbol", "name", "image",
	"current_price", "market_cap", "total_volume",
	"high_24h", "low_24h",
	"price_change_24h", "price_change_percentage_24h",
	"circulating_supply", "total_supply", "last_updated",
}

// exchangeRateSortColumns whitelists the columns rates can be sorted by
var exchangeRateSortColumns = map[string]string{
	"market_cap":                  "market_cap",
	"current_price":               "current_price",
	"price_change_percentage_24h": "price_change_percentage_24h",
	"total_volume":                "total_volume",
	"symbol":                      "symbol",
}

// ExchangeRateRepo implements ExchangeRateRepository using PostgreSQL
type ExchangeRateRepo struct {
	db *sqlx.DB
}

// NewExchangeRateRepo creates a new exchange rate repository
func NewExchangeRateRepo(db *sqlx.DB) *ExchangeRateRepo {
	return &ExchangeRateRepo{db: db}
}

// GetAll retrieves exchange rates sorted and paginated by the filter
func (r *ExchangeRateRepo) GetAll(ctx context.Context, filter entities.ExchangeRateFilter) ([]entities.TokenExchangeRate, error) {
	column, ok := exchangeRateSortColumns[filter.SortBy]
	if !ok {
		column = "market_cap"
	}

	query, args, err := psql.Select(exchangeRateColumns...).
		From(exchangeRateTable).
		OrderBy(fmt.Sprintf("%s %s NULLS LAST", column, sortOrder(filter.SortOrder)), "address").
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build exchange rate query: %w", err)
	}

	var rates []entities.TokenExchangeRate
	if err := r.db.SelectContext(ctx, &rates, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get exchange rates: %w", err)
	}

	return rates, nil
}

// Count returns the number of exchange rates
func (r *ExchangeRateRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM `+exchangeRateTable); err != nil {
		return 0, fmt.Errorf("failed to count exchange rates: %w", err)
	}
	return count, nil
}

// GetByAddress retrieves the rate of one contract, nil if absent
func (r *ExchangeRateRepo) GetByAddress(ctx context.Context, address string) (*entities.TokenExchangeRate, error) {
	return r.getOne(ctx, psql.Select(exchangeRateColumns...).
		From(exchangeRateTable).
		Where(sq.Eq{"address": address}))
}

// GetBySymbol retrieves the rate for a ticker symbol, nil if absent.
// When several contracts share a symbol the one with the largest market cap wins.
func (r *ExchangeRateRepo) GetBySymbol(ctx context.Context, symbol string) (*entities.TokenExchangeRate, error) {
	return r.getOne(ctx, psql.Select(exchangeRateColumns...).
		From(exchangeRateTable).
		Where(sq.Expr("LOWER(symbol) = LOWER(?)", symbol)).
		OrderBy("market_cap DESC NULLS LAST").
		Limit(1))
}

func (r *ExchangeRateRepo) getOne(ctx context.Context, builder sq.SelectBuilder) (*entities.TokenExchangeRate, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build exchange rate query: %w", err)
	}

	var rate entities.TokenExchangeRate
	if err := r.db.GetContext(ctx, &rate, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get exchange rate: %w", err)
	}

	return &rate, nil
}

// GetByAddresses retrieves the rates of several contracts
func (r *ExchangeRateRepo) GetByAddresses(ctx context.Context, addresses []string) ([]entities.TokenExchangeRate, error) {
	if len(addresses) == 0 {
		return []entities.TokenExchangeRate{}, nil
	}

	query, args, err := psql.Select(exchangeRateColumns...).
		From(exchangeRateTable).
		Where("address = ANY(?)", pq.Array(addresses)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build exchange rate query: %w", err)
	}

	var rates []entities.TokenExchangeRate
	if err := r.db.SelectContext(ctx, &rates, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get exchange rates by address: %w", err)
	}

	return rates, nil
}

// BatchUpsert creates or updates rates in a single transaction
func (r *ExchangeRateRepo) BatchUpsert(ctx context.Context, rates []entities.TokenExchangeRate) error {
	if len(rates) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, rate := range rates {
		query, args, err := psql.Insert(exchangeRateTable).
			Columns(exchangeRateColumns...).
			Values(
				rate.Address, rate.Symbol, rate.Name, rate.Image,
				rate.CurrentPrice, rate.MarketCap, rate.TotalVolume,
				rate.High24h, rate.Low24h,
				rate.PriceChange24h, rate.PriceChangePercentage24h,
				rate.CirculatingSupply, rate.TotalSupply, rate.LastUpdated,
			).
			Suffix(`ON CONFLICT (address) DO UPDATE SET
				symbol = EXCLUDED.symbol,
				name = EXCLUDED.name,
				image = COALESCE(EXCLUDED.image, ` + exchangeRateTable + `.image),
				current_price = EXCLUDED.current_price,
				market_cap = EXCLUDED.market_cap,
				total_volume = EXCLUDED.total_volume,
				high_24h = COALESCE(EXCLUDED.high_24h, ` + exchangeRateTable + `.high_24h),
				low_24h = COALESCE(EXCLUDED.low_24h, ` + exchangeRateTable + `.low_24h),
				price_change_24h = EXCLUDED.price_change_24h,
				price_change_percentage_24h = EXCLUDED.price_change_percentage_24h,
				circulating_supply = COALESCE(EXCLUDED.circulating_supply, ` + exchangeRateTable + `.circulating_supply),
				total_supply = COALESCE(EXCLUDED.total_supply, ` + exchangeRateTable + `.total_supply),
				last_updated = EXCLUDED.last_updated`).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build upsert for %s: %w", rate.Address, err)
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to upsert exchange rate %s: %w", rate.Address, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// LatestUpdate returns the newest last_updated of the table, nil when it is empty
func (r *ExchangeRateRepo) LatestUpdate(ctx context.Context) (*time.Time, error) {
	var latest sql.NullTime
	if err := r.db.GetContext(ctx, &latest, `SELECT MAX(last_updated) FROM `+exchangeRateTable); err != nil {
		return nil, fmt.Errorf("failed to get latest exchange rate update: %w", err)
	}
	if !latest.Valid {
		return nil, nil
	}
	t := latest.Time.UTC()
	return &t, nil
}
