package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bimakw/token-explorer/internal/domain/entities"
	"github.com/bimakw/token-explorer/internal/domain/repositories"
	"github.com/bimakw/token-explorer/internal/domain/valuation"
	"github.com/bimakw/token-explorer/internal/infrastructure/cache"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// ExchangeService exposes the market price table and builds price lookups for valuation
type ExchangeService struct {
	rateRepo repositories.ExchangeRateRepository
	cache    *cache.RedisCache
	priceTTL time.Duration
	logger   *zap.Logger
}

// NewExchangeService creates a new exchange service
func NewExchangeService(
	rateRepo repositories.ExchangeRateRepository,
	cache *cache.RedisCache,
	priceTTL time.Duration,
	logger *zap.Logger,
) *ExchangeService {
	return &ExchangeService{
		rateRepo: rateRepo,
		cache:    cache,
		priceTTL: priceTTL,
		logger:   logger,
	}
}

// ExchangeRateListResponse is the API response for exchange rate list queries
type ExchangeRateListResponse struct {
	Data       []entities.TokenExchangeRate `json:"data"`
	Pagination PaginationResponse           `json:"pagination"`
}

// ExchangeRateResponse is the API response for single exchange rate queries
type ExchangeRateResponse struct {
	Data entities.TokenExchangeRate `json:"data"`
}

// GetExchangeRates lists exchange rates sorted and paginated by the filter
func (s *ExchangeService) GetExchangeRates(ctx context.Context, filter entities.ExchangeRateFilter) (*ExchangeRateListResponse, error) {
	filter.Limit = clampLimit(filter.Limit)
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	cacheKey := fmt.Sprintf("exchange_rates:list:%d:%d:%s:%s", filter.Limit, filter.Offset, filter.SortBy, filter.SortOrder)

	var cached ExchangeRateListResponse
	if s.cache != nil {
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			s.logger.Debug("Cache hit", zap.String("key", cacheKey))
			return &cached, nil
		}
	}

	rates, err := s.rateRepo.GetAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get exchange rates: %w", err)
	}

	total, err := s.rateRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count exchange rates: %w", err)
	}

	if rates == nil {
		rates = []entities.TokenExchangeRate{}
	}

	response := &ExchangeRateListResponse{
		Data: rates,
		Pagination: PaginationResponse{
			Total:  total,
			Limit:  filter.Limit,
			Offset: filter.Offset,
		},
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, response); err != nil {
			s.logger.Warn("Failed to cache response", zap.Error(err))
		}
	}

	return response, nil
}

// GetByAddress retrieves the exchange rate of one contract
func (s *ExchangeService) GetByAddress(ctx context.Context, address string) (*ExchangeRateResponse, error) {
	rate, err := s.rateRepo.GetByAddress(ctx, strings.ToLower(address))
	if err != nil {
		return nil, fmt.Errorf("failed to get exchange rate: %w", err)
	}
	if rate == nil {
		return nil, nil
	}
	return &ExchangeRateResponse{Data: *rate}, nil
}

// GetBySymbol retrieves the exchange rate for a ticker symbol
func (s *ExchangeService) GetBySymbol(ctx context.Context, symbol string) (*ExchangeRateResponse, error) {
	rate, err := s.rateRepo.GetBySymbol(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to get exchange rate: %w", err)
	}
	if rate == nil {
		return nil, nil
	}
	return &ExchangeRateResponse{Data: *rate}, nil
}

// LatestPriceUpdate returns when the newest exchange rate was written, nil if there is none
func (s *ExchangeService) LatestPriceUpdate(ctx context.Context) (*time.Time, error) {
	return s.rateRepo.LatestUpdate(ctx)
}

// cachedQuote is the cache representation of a valuation.PriceQuote
type cachedQuote struct {
	Price  decimal.NullDecimal `json:"price"`
	Change decimal.NullDecimal `json:"change"`
}

// PriceLookup builds the price lookup for a set of contracts.
// A failing price table yields the unavailable lookup instead of an error.
func (s *ExchangeService) PriceLookup(ctx context.Context, addresses []string) valuation.PriceLookup {
	normalized := make([]string, 0, len(addresses))
	seen := make(map[string]struct{}, len(addresses))
	for _, addr := range addresses {
		addr = strings.ToLower(addr)
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		normalized = append(normalized, addr)
	}
	sort.Strings(normalized)

	if len(normalized) == 0 {
		return valuation.NewPriceLookup(nil)
	}

	cacheKey := priceCacheKey(normalized)

	var cached map[string]cachedQuote
	if s.cache != nil {
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			s.logger.Debug("Cache hit", zap.String("key", cacheKey))
			return lookupFromCache(cached)
		}
	}

	rates, err := s.rateRepo.GetByAddresses(ctx, normalized)
	if err != nil {
		s.logger.Warn("Price lookup unavailable, valuing without prices",
			zap.Int("addresses", len(normalized)),
			zap.Error(err),
		)
		return valuation.Unavailable()
	}

	quotes := make(map[string]cachedQuote, len(rates))
	for _, r := range rates {
		quotes[strings.ToLower(r.Address)] = cachedQuote{
			Price:  r.CurrentPrice,
			Change: r.PriceChangePercentage24h,
		}
	}

	if s.cache != nil {
		if err := s.cache.SetWithTTL(ctx, cacheKey, quotes, s.priceTTL); err != nil {
			s.logger.Warn("Failed to cache price lookup", zap.Error(err))
		}
	}

	return lookupFromCache(quotes)
}

func lookupFromCache(cached map[string]cachedQuote) valuation.PriceLookup {
	quotes := make(map[string]valuation.PriceQuote, len(cached))
	for addr, q := range cached {
		quotes[addr] = valuation.PriceQuote{
			CurrentPrice:     q.Price,
			PercentChange24h: q.Change,
		}
	}
	return valuation.NewPriceLookup(quotes)
}

// priceCacheKey hashes the sorted address set into a bounded key
func priceCacheKey(sortedAddresses []string) string {
	sum := sha256.Sum256([]byte(strings.Join(sortedAddresses, ",")))
	return "prices:" + hex.EncodeToString(sum[:16])
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
