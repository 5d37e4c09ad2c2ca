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

// HoldersService provides business logic for token holders
type HoldersService struct {
	transferRepo repositories.TransferRepository
	tokenRepo    repositories.TokenRepository
	prices       PriceLookupProvider
	cache        *cache.RedisCache
	logger       *zap.Logger
}

// NewHoldersService creates a new holders service
func NewHoldersService(
	transferRepo repositories.TransferRepository,
	tokenRepo repositories.TokenRepository,
	prices PriceLookupProvider,
	cache *cache.RedisCache,
	logger *zap.Logger,
) *HoldersService {
	return &HoldersService{
		transferRepo: transferRepo,
		tokenRepo:    tokenRepo,
		prices:       prices,
		cache:        cache,
		logger:       logger,
	}
}

// HolderDTO is the API representation of a holder's valued balance
type HolderDTO struct {
	Address          string   `json:"address"`
	Balance          string   `json:"balance"`
	NormalizedAmount float64  `json:"normalized_amount"`
	FiatValue        float64  `json:"fiat_value"`
	PercentChange24h *float64 `json:"percent_change_24h"`
	Rank             int      `json:"rank"`
}

// TopHoldersResponse is the API response for top holders queries
type TopHoldersResponse struct {
	Data   []HolderDTO `json:"data"`
	Sort   string      `json:"sort"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

// HolderBalanceResponse is the API response for holder balance queries
type HolderBalanceResponse struct {
	Data HolderDTO `json:"data"`
}

// GetTopHolders retrieves a page of the largest holders of a token, valued
// through the engine and ordered by mode. Rank is the position by raw balance.
func (s *HoldersService) GetTopHolders(ctx context.Context, tokenAddress string, limit, offset int, mode valuation.SortMode) (*TopHoldersResponse, error) {
	tokenAddress = strings.ToLower(tokenAddress)
	limit = clampLimit(limit)
	if offset < 0 {
		offset = 0
	}

	cacheKey := fmt.Sprintf("holders:%s:%d:%d:%s", tokenAddress, limit, offset, mode)

	var cached TopHoldersResponse
	if s.cache != nil {
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			s.logger.Debug("Cache hit", zap.String("key", cacheKey))
			return &cached, nil
		}
	}

	var (
		token   *entities.Token
		holders []entities.HolderBalance
		prices  valuation.PriceLookup
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		token, err = s.tokenRepo.GetByAddress(gCtx, tokenAddress)
		if err != nil {
			return fmt.Errorf("failed to check token: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		holders, err = s.transferRepo.GetTopHolders(gCtx, tokenAddress, limit, offset)
		if err != nil {
			return fmt.Errorf("failed to get top holders: %w", err)
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

	if token == nil {
		return nil, nil // Token not found
	}

	data, err := s.valueHolders(token, prices, holders)
	if err != nil {
		return nil, err
	}

	response := &TopHoldersResponse{
		Data:   rankHolders(data, mode),
		Sort:   mode.String(),
		Limit:  limit,
		Offset: offset,
	}

	// Cache the response (5 minutes TTL for holders)
	if s.cache != nil {
		if err := s.cache.SetWithTTL(ctx, cacheKey, response, 5*time.Minute); err != nil {
			s.logger.Warn("Failed to cache response", zap.Error(err))
		}
	}

	return response, nil
}

// GetHolderBalance retrieves the valued balance and rank of a specific holder
func (s *HoldersService) GetHolderBalance(ctx context.Context, tokenAddress, holderAddress string) (*HolderBalanceResponse, error) {
	tokenAddress = strings.ToLower(tokenAddress)
	holderAddress = strings.ToLower(holderAddress)

	cacheKey := fmt.Sprintf("holders:%s:holder:%s", tokenAddress, holderAddress)

	var cached HolderBalanceResponse
	if s.cache != nil {
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			s.logger.Debug("Cache hit", zap.String("key", cacheKey))
			return &cached, nil
		}
	}

	token, err := s.tokenRepo.GetByAddress(ctx, tokenAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to check token: %w", err)
	}
	if token == nil {
		return nil, nil // Token not found
	}

	holder, err := s.transferRepo.GetHolderBalance(ctx, tokenAddress, holderAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to get holder balance: %w", err)
	}
	if holder == nil {
		return nil, nil
	}

	prices := s.prices.PriceLookup(ctx, []string{tokenAddress})

	data, err := s.valueHolders(token, prices, []entities.HolderBalance{*holder})
	if err != nil {
		return nil, err
	}

	response := &HolderBalanceResponse{Data: data[0]}

	// Cache the response (1 minute TTL for individual holder)
	if s.cache != nil {
		if err := s.cache.SetWithTTL(ctx, cacheKey, response, time.Minute); err != nil {
			s.logger.Warn("Failed to cache response", zap.Error(err))
		}
	}

	return response, nil
}

// valueHolders treats each holder's balance as a holding of the token
func (s *HoldersService) valueHolders(token *entities.Token, prices valuation.PriceLookup, holders []entities.HolderBalance) ([]HolderDTO, error) {
	kind := valuation.KindOf(token.Standard)
	if kind == valuation.NonFungible {
		prices = valuation.Unavailable()
	}

	var decimals *int
	if token.IsFungible() {
		d := token.Decimals
		decimals = &d
	}

	holdings := make([]entities.TokenHolding, len(holders))
	for i, h := range holders {
		holdings[i] = entities.TokenHolding{
			ContractAddress: token.Address,
			Name:            token.Name,
			Symbol:          token.Symbol,
			Standard:        token.Standard,
			RawBalance:      h.Balance,
			Decimals:        decimals,
		}
	}

	annotated, _, err := valueHoldings(kind, prices, holdings)
	if err != nil {
		return nil, fmt.Errorf("failed to value holders: %w", err)
	}

	data := make([]HolderDTO, len(holders))
	for i, h := range holders {
		data[i] = HolderDTO{
			Address:          h.Address,
			Balance:          h.Balance,
			NormalizedAmount: annotated[i].NormalizedAmount,
			FiatValue:        annotated[i].FiatValue,
			PercentChange24h: annotated[i].PercentChange24h,
			Rank:             h.Rank,
		}
	}
	return data, nil
}

// rankHolders orders holders with the engine's ranking. The holder address
// stands in for the display name so name sorts are meaningful.
func rankHolders(holders []HolderDTO, mode valuation.SortMode) []HolderDTO {
	byAddress := make(map[string]HolderDTO, len(holders))
	annotated := make([]valuation.AnnotatedHolding, len(holders))
	for i, h := range holders {
		byAddress[h.Address] = h
		annotated[i] = valuation.AnnotatedHolding{
			DisplayName:      h.Address,
			NormalizedAmount: h.NormalizedAmount,
			FiatValue:        h.FiatValue,
			PercentChange24h: h.PercentChange24h,
		}
	}

	ranked := valuation.Rank(annotated, mode)
	result := make([]HolderDTO, len(ranked))
	for i, a := range ranked {
		result[i] = byAddress[a.DisplayName]
	}
	return result
}
