package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bimakw/token-explorer/internal/domain/entities"
	"github.com/bimakw/token-explorer/internal/domain/repositories"
	"github.com/bimakw/token-explorer/internal/domain/valuation"
	"github.com/bimakw/token-explorer/internal/infrastructure/cache"
)

// PortfolioService provides business logic for valued wallet portfolios
type PortfolioService struct {
	portfolioRepo repositories.PortfolioRepository
	prices        PriceLookupProvider
	cache         *cache.RedisCache
	cacheTTL      time.Duration
	currency      string
	logger        *zap.Logger
}

// NewPortfolioService creates a new portfolio service
func NewPortfolioService(
	portfolioRepo repositories.PortfolioRepository,
	prices PriceLookupProvider,
	cache *cache.RedisCache,
	cacheTTL time.Duration,
	currency string,
	logger *zap.Logger,
) *PortfolioService {
	return &PortfolioService{
		portfolioRepo: portfolioRepo,
		prices:        prices,
		cache:         cache,
		cacheTTL:      cacheTTL,
		currency:      strings.ToUpper(currency),
		logger:        logger,
	}
}

// PortfolioSummary contains totals for a valued portfolio
type PortfolioSummary struct {
	TotalTokens         int    `json:"total_tokens"`
	PricedTokens        int    `json:"priced_tokens"`
	PricesAvailable     bool   `json:"prices_available"`
	TotalValue          string `json:"total_value"`
	TotalValueFormatted string `json:"total_value_formatted"`
	Currency            string `json:"currency"`
}

// PortfolioDTO is the API representation of a wallet portfolio
type PortfolioDTO struct {
	WalletAddress string                       `json:"wallet_address"`
	Kind          string                       `json:"kind"`
	Sort          string                       `json:"sort"`
	Holdings      []valuation.AnnotatedHolding `json:"holdings"`
	Summary       PortfolioSummary             `json:"summary"`
	UpdatedAt     string                       `json:"updated_at"`
}

// PortfolioResponse wraps portfolio data for API response
type PortfolioResponse struct {
	Data PortfolioDTO `json:"data"`
}

// TokenHoldingResponse wraps a single valued holding for API response
type TokenHoldingResponse struct {
	Data valuation.AnnotatedHolding `json:"data"`
}

// GetPortfolio values and ranks every holding of one kind in a wallet
func (s *PortfolioService) GetPortfolio(ctx context.Context, walletAddress string, kind valuation.HoldingKind, mode valuation.SortMode) (*PortfolioResponse, error) {
	walletAddress = strings.ToLower(walletAddress)

	cacheKey := fmt.Sprintf("portfolio:%s:%s:%s", walletAddress, kind, mode)

	var cached PortfolioResponse
	if s.cache != nil {
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			s.logger.Debug("Cache hit", zap.String("key", cacheKey))
			return &cached, nil
		}
	}

	holdings, err := s.portfolioRepo.GetWalletHoldings(ctx, walletAddress, kind.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet holdings: %w", err)
	}

	// Non-fungible holdings are never priced
	prices := valuation.Unavailable()
	if kind == valuation.Fungible && len(holdings) > 0 {
		addresses := make([]string, len(holdings))
		for i, h := range holdings {
			addresses[i] = h.ContractAddress
		}
		prices = s.prices.PriceLookup(ctx, addresses)
	}

	annotated, priced, err := valueHoldings(kind, prices, holdings)
	if err != nil {
		return nil, fmt.Errorf("failed to value holdings: %w", err)
	}

	ranked := valuation.Rank(annotated, mode)
	total := valuation.TotalFiatValue(ranked)

	response := &PortfolioResponse{
		Data: PortfolioDTO{
			WalletAddress: walletAddress,
			Kind:          kind.String(),
			Sort:          mode.String(),
			Holdings:      ranked,
			Summary: PortfolioSummary{
				TotalTokens:         len(ranked),
				PricedTokens:        priced,
				PricesAvailable:     prices.Available(),
				TotalValue:          total.StringFixed(2),
				TotalValueFormatted: formatMoney(total, s.currency),
				Currency:            s.currency,
			},
			UpdatedAt: time.Now().UTC().Format(time.RFC3339),
		},
	}

	if s.cache != nil {
		if err := s.cache.SetWithTTL(ctx, cacheKey, response, s.cacheTTL); err != nil {
			s.logger.Warn("Failed to cache response", zap.Error(err))
		}
	}

	return response, nil
}

// GetPortfolioByToken values the holding of a specific token in a wallet.
// The holding and its quote are loaded concurrently.
func (s *PortfolioService) GetPortfolioByToken(ctx context.Context, walletAddress, tokenAddress string) (*TokenHoldingResponse, error) {
	walletAddress = strings.ToLower(walletAddress)
	tokenAddress = strings.ToLower(tokenAddress)

	cacheKey := fmt.Sprintf("portfolio:%s:token:%s", walletAddress, tokenAddress)

	var cached TokenHoldingResponse
	if s.cache != nil {
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			s.logger.Debug("Cache hit", zap.String("key", cacheKey))
			return &cached, nil
		}
	}

	var (
		holding *entities.TokenHolding
		prices  valuation.PriceLookup
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		holding, err = s.portfolioRepo.GetWalletHoldingByToken(gCtx, walletAddress, tokenAddress)
		if err != nil {
			return fmt.Errorf("failed to get wallet holding by token: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		prices = s.prices.PriceLookup(gCtx, []string{tokenAddress})
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if holding == nil {
		return nil, nil
	}

	// Transfer sums go negative for mint sources and wallets with gaps in
	// indexed history; such a wallet holds nothing of the token.
	if strings.HasPrefix(holding.RawBalance, "-") {
		s.logger.Warn("Negative derived balance, treating as zero",
			zap.String("wallet", walletAddress),
			zap.String("token", tokenAddress),
			zap.String("balance", holding.RawBalance),
		)
		clamped := *holding
		clamped.RawBalance = "0"
		holding = &clamped
	}

	kind := valuation.KindOf(holding.Standard)
	if kind == valuation.NonFungible {
		prices = valuation.Unavailable()
	}

	annotated, _, err := valueHoldings(kind, prices, []entities.TokenHolding{*holding})
	if err != nil {
		return nil, fmt.Errorf("failed to value holding: %w", err)
	}

	response := &TokenHoldingResponse{Data: annotated[0]}

	if s.cache != nil {
		if err := s.cache.SetWithTTL(ctx, cacheKey, response, s.cacheTTL); err != nil {
			s.logger.Warn("Failed to cache response", zap.Error(err))
		}
	}

	return response, nil
}
