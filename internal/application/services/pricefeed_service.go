package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bimakw/token-explorer/internal/config"
	"github.com/bimakw/token-explorer/internal/domain/entities"
	"github.com/bimakw/token-explorer/internal/domain/repositories"
	"github.com/bimakw/token-explorer/internal/infrastructure/cache"
	"github.com/bimakw/token-explorer/internal/infrastructure/pricefeed"
)

// ErrPriceFeedUnavailable is returned when every batch of a refresh failed
var ErrPriceFeedUnavailable = errors.New("price feed unavailable")

// QuoteSource fetches market quotes for token contracts
type QuoteSource interface {
	GetTokenPrices(ctx context.Context, platform string, addresses []string) (map[string]pricefeed.TokenPrice, error)
}

// PriceFeedService copies market quotes for indexed tokens into the exchange rate table
type PriceFeedService struct {
	source    QuoteSource
	tokenRepo repositories.TokenRepository
	rateRepo  repositories.ExchangeRateRepository
	cache     *cache.RedisCache
	config    config.PriceFeedConfig
	logger    *zap.Logger
	now       func() time.Time
}

// NewPriceFeedService creates a new price feed service
func NewPriceFeedService(
	source QuoteSource,
	tokenRepo repositories.TokenRepository,
	rateRepo repositories.ExchangeRateRepository,
	cache *cache.RedisCache,
	cfg config.PriceFeedConfig,
	logger *zap.Logger,
) *PriceFeedService {
	return &PriceFeedService{
		source:    source,
		tokenRepo: tokenRepo,
		rateRepo:  rateRepo,
		cache:     cache,
		config:    cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// RefreshResult summarizes one refresh run
type RefreshResult struct {
	Tokens        int
	Batches       int
	FailedBatches int
	Upserted      int
}

// Refresh fetches quotes for every indexed ERC-20 token and upserts them.
// Failed batches are skipped; the refresh fails only when all of them failed.
func (s *PriceFeedService) Refresh(ctx context.Context) (*RefreshResult, error) {
	tokens, err := s.tokenRepo.GetByStandard(ctx, entities.StandardERC20)
	if err != nil {
		priceFeedRefreshes.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to load tokens: %w", err)
	}

	result := &RefreshResult{Tokens: len(tokens)}
	if len(tokens) == 0 {
		s.logger.Info("No tokens to price")
		priceFeedRefreshes.WithLabelValues("empty").Inc()
		return result, nil
	}

	batchSize := s.config.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}

	for start := 0; start < len(tokens); start += batchSize {
		end := start + batchSize
		if end > len(tokens) {
			end = len(tokens)
		}
		batch := tokens[start:end]
		result.Batches++

		upserted, err := s.refreshBatch(ctx, batch)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			result.FailedBatches++
			s.logger.Warn("Price feed batch failed, skipping",
				zap.Int("batch", result.Batches),
				zap.Int("tokens", len(batch)),
				zap.Error(err),
			)
			continue
		}
		result.Upserted += upserted
	}

	quotesUpserted.Add(float64(result.Upserted))

	if result.FailedBatches == result.Batches {
		priceFeedRefreshes.WithLabelValues("error").Inc()
		return result, fmt.Errorf("%w: %d batches failed", ErrPriceFeedUnavailable, result.FailedBatches)
	}

	if result.Upserted > 0 {
		s.invalidate(ctx)
	}

	if result.FailedBatches > 0 {
		priceFeedRefreshes.WithLabelValues("partial").Inc()
	} else {
		priceFeedRefreshes.WithLabelValues("success").Inc()
	}

	s.logger.Info("Price feed refreshed",
		zap.Int("tokens", result.Tokens),
		zap.Int("batches", result.Batches),
		zap.Int("failed_batches", result.FailedBatches),
		zap.Int("upserted", result.Upserted),
	)

	return result, nil
}

func (s *PriceFeedService) refreshBatch(ctx context.Context, batch []entities.Token) (int, error) {
	addresses := make([]string, len(batch))
	for i, t := range batch {
		addresses[i] = strings.ToLower(t.Address)
	}

	prices, err := s.source.GetTokenPrices(ctx, s.config.Platform, addresses)
	if err != nil {
		return 0, err
	}

	rates := make([]entities.TokenExchangeRate, 0, len(prices))
	for _, token := range batch {
		p, ok := prices[strings.ToLower(token.Address)]
		if !ok {
			continue
		}
		rates = append(rates, s.toExchangeRate(token, p))
	}

	if len(rates) == 0 {
		return 0, nil
	}

	if err := s.rateRepo.BatchUpsert(ctx, rates); err != nil {
		return 0, fmt.Errorf("failed to upsert exchange rates: %w", err)
	}

	return len(rates), nil
}

func (s *PriceFeedService) toExchangeRate(token entities.Token, p pricefeed.TokenPrice) entities.TokenExchangeRate {
	updated := s.now().UTC()
	if p.LastUpdatedAt != nil {
		updated = *p.LastUpdatedAt
	}

	return entities.TokenExchangeRate{
		Address:                  strings.ToLower(token.Address),
		Symbol:                   token.Symbol,
		Name:                     token.Name,
		CurrentPrice:             p.Price,
		MarketCap:                p.MarketCap,
		TotalVolume:              p.Volume24h,
		PriceChange24h:           absoluteChange(p.Price, p.Change24h),
		PriceChangePercentage24h: p.Change24h,
		LastUpdated:              &updated,
	}
}

// absoluteChange derives the 24h price delta from the current price and the
// percentage change: price * pct / (100 + pct)
func absoluteChange(price, pct decimal.NullDecimal) decimal.NullDecimal {
	if !price.Valid || !pct.Valid {
		return decimal.NullDecimal{}
	}
	denom := decimal.NewFromInt(100).Add(pct.Decimal)
	if denom.IsZero() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(price.Decimal.Mul(pct.Decimal).DivRound(denom, 18))
}

// invalidate drops cached lookups and responses that embed prices
func (s *PriceFeedService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	for _, pattern := range []string{"prices:*", "portfolio:*", "holders:*", "exchange_rates:*"} {
		n, err := s.cache.DeletePattern(ctx, pattern)
		if err != nil {
			s.logger.Warn("Failed to invalidate cache", zap.String("pattern", pattern), zap.Error(err))
			continue
		}
		s.logger.Debug("Invalidated cache", zap.String("pattern", pattern), zap.Int("keys", n))
	}
}
