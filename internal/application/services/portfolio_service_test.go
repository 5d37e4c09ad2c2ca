package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bimakw/token-explorer/internal/domain/entities"
	"github.com/bimakw/token-explorer/internal/domain/valuation"
	"github.com/bimakw/token-explorer/internal/testutil"
)

const testWallet = "0x1234567890123456789012345678901234567890"

func newTestPortfolioService(portfolioRepo *testutil.MockPortfolioRepository, rateRepo *testutil.MockExchangeRateRepository) *PortfolioService {
	logger := zap.NewNop()
	prices := NewExchangeService(rateRepo, nil, time.Minute, logger)
	return NewPortfolioService(portfolioRepo, prices, nil, time.Minute, "usd", logger)
}

func seedStablecoins(portfolioRepo *testutil.MockPortfolioRepository, rateRepo *testutil.MockExchangeRateRepository) {
	portfolioRepo.AddHoldings(testWallet,
		testutil.CreateTestHolding(
			testutil.HoldingWithContract(testutil.USDTAddress, "Tether USD", "USDT"),
			testutil.HoldingWithBalance("1000000000"),
		),
		testutil.CreateTestHolding(
			testutil.HoldingWithContract(testutil.USDCAddress, "USD Coin", "USDC"),
			testutil.HoldingWithBalance("500000000"),
		),
	)
	rateRepo.AddRates(
		testutil.CreateTestExchangeRate(testutil.USDTAddress, "usdt", "1", "0.05"),
		testutil.CreateTestExchangeRate(testutil.USDCAddress, "usdc", "1", "-0.1"),
	)
}

func TestPortfolioService_GetPortfolio(t *testing.T) {
	ctx := context.Background()

	t.Run("values and ranks fungible holdings", func(t *testing.T) {
		portfolioRepo := testutil.NewMockPortfolioRepository()
		rateRepo := testutil.NewMockExchangeRateRepository()
		seedStablecoins(portfolioRepo, rateRepo)

		service := newTestPortfolioService(portfolioRepo, rateRepo)

		result, err := service.GetPortfolio(ctx, testWallet, valuation.Fungible, valuation.ParseSortMode(valuation.SortFiatValueHigh))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		holdings := result.Data.Holdings
		if len(holdings) != 2 {
			t.Fatalf("expected 2 holdings, got %d", len(holdings))
		}
		if holdings[0].Symbol != "USDT" || holdings[1].Symbol != "USDC" {
			t.Errorf("expected USDT before USDC, got %s, %s", holdings[0].Symbol, holdings[1].Symbol)
		}
		if holdings[0].NormalizedAmount != 1000 {
			t.Errorf("expected normalized amount 1000, got %v", holdings[0].NormalizedAmount)
		}
		if holdings[0].FiatValue != 1000 {
			t.Errorf("expected fiat value 1000, got %v", holdings[0].FiatValue)
		}
		if holdings[0].DisplayName != "tether usd" {
			t.Errorf("expected lower-cased display name, got %s", holdings[0].DisplayName)
		}

		summary := result.Data.Summary
		if summary.TotalTokens != 2 || summary.PricedTokens != 2 {
			t.Errorf("expected 2 tokens all priced, got %d/%d", summary.PricedTokens, summary.TotalTokens)
		}
		if !summary.PricesAvailable {
			t.Error("expected prices to be available")
		}
		if summary.TotalValue != "1500.00" {
			t.Errorf("expected total 1500.00, got %s", summary.TotalValue)
		}
		if summary.TotalValueFormatted != "$1,500.00" {
			t.Errorf("expected formatted total $1,500.00, got %s", summary.TotalValueFormatted)
		}
		if result.Data.Sort != valuation.SortFiatValueHigh {
			t.Errorf("expected sort %s, got %s", valuation.SortFiatValueHigh, result.Data.Sort)
		}
	})

	t.Run("change_high ranks the biggest loser first", func(t *testing.T) {
		portfolioRepo := testutil.NewMockPortfolioRepository()
		rateRepo := testutil.NewMockExchangeRateRepository()
		seedStablecoins(portfolioRepo, rateRepo)

		service := newTestPortfolioService(portfolioRepo, rateRepo)

		result, err := service.GetPortfolio(ctx, testWallet, valuation.Fungible, valuation.ParseSortMode(valuation.SortChangeHigh))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Data.Holdings[0].Symbol != "USDC" {
			t.Errorf("expected USDC first, got %s", result.Data.Holdings[0].Symbol)
		}
	})

	t.Run("non-fungible holdings are never priced", func(t *testing.T) {
		portfolioRepo := testutil.NewMockPortfolioRepository()
		rateRepo := testutil.NewMockExchangeRateRepository()
		portfolioRepo.AddHoldings(testWallet, testutil.CreateTestHolding(
			testutil.HoldingWithContract(testutil.PunksAddress, "CryptoPunks", "PUNK"),
			testutil.HoldingWithBalance("3"),
			testutil.HoldingNFT(),
		))
		rateRepo.AddRates(testutil.CreateTestExchangeRate(testutil.PunksAddress, "punk", "50000", "1"))

		service := newTestPortfolioService(portfolioRepo, rateRepo)

		result, err := service.GetPortfolio(ctx, testWallet, valuation.NonFungible, valuation.ParseSortMode(valuation.SortAmountHigh))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(rateRepo.Calls) != 0 {
			t.Errorf("expected no price lookups, got %d calls", len(rateRepo.Calls))
		}
		h := result.Data.Holdings[0]
		if h.NormalizedAmount != 3 || h.FiatValue != 0 || h.PercentChange24h != nil {
			t.Errorf("unexpected NFT valuation: %+v", h)
		}
		if result.Data.Summary.PricesAvailable {
			t.Error("expected prices to be unavailable for NFTs")
		}
		if result.Data.Kind != entities.StandardERC721 {
			t.Errorf("expected kind erc721, got %s", result.Data.Kind)
		}
	})

	t.Run("price table failure values at zero", func(t *testing.T) {
		portfolioRepo := testutil.NewMockPortfolioRepository()
		rateRepo := testutil.NewMockExchangeRateRepository()
		seedStablecoins(portfolioRepo, rateRepo)
		rateRepo.GetByAddressesFunc = func(ctx context.Context, addresses []string) ([]entities.TokenExchangeRate, error) {
			return nil, errors.New("database error")
		}

		service := newTestPortfolioService(portfolioRepo, rateRepo)

		result, err := service.GetPortfolio(ctx, testWallet, valuation.Fungible, valuation.ParseSortMode(valuation.SortFiatValueHigh))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Data.Summary.PricesAvailable {
			t.Error("expected prices to be unavailable")
		}
		if result.Data.Summary.TotalValue != "0.00" {
			t.Errorf("expected total 0.00, got %s", result.Data.Summary.TotalValue)
		}
		for _, h := range result.Data.Holdings {
			if h.FiatValue != 0 || h.PercentChange24h != nil {
				t.Errorf("expected unpriced holding, got %+v", h)
			}
		}
	})

	t.Run("unpriced token counts as zero", func(t *testing.T) {
		portfolioRepo := testutil.NewMockPortfolioRepository()
		rateRepo := testutil.NewMockExchangeRateRepository()
		seedStablecoins(portfolioRepo, rateRepo)
		portfolioRepo.AddHoldings(testWallet, testutil.CreateTestHolding(
			testutil.HoldingWithContract(testutil.CharlieAddr, "Obscure", "OBS"),
			testutil.HoldingWithBalance("42"),
			testutil.HoldingWithDecimals(testutil.PointerTo(0)),
		))

		service := newTestPortfolioService(portfolioRepo, rateRepo)

		result, err := service.GetPortfolio(ctx, testWallet, valuation.Fungible, valuation.ParseSortMode(valuation.SortFiatValueLow))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Data.Summary.PricedTokens != 2 || result.Data.Summary.TotalTokens != 3 {
			t.Errorf("expected 2 of 3 priced, got %d of %d", result.Data.Summary.PricedTokens, result.Data.Summary.TotalTokens)
		}
		if result.Data.Holdings[0].Symbol != "OBS" {
			t.Errorf("expected unpriced token first in ascending order, got %s", result.Data.Holdings[0].Symbol)
		}
	})

	t.Run("invalid balance is a parse error", func(t *testing.T) {
		portfolioRepo := testutil.NewMockPortfolioRepository()
		rateRepo := testutil.NewMockExchangeRateRepository()
		portfolioRepo.AddHoldings(testWallet, testutil.CreateTestHolding(testutil.HoldingWithBalance("-5")))

		service := newTestPortfolioService(portfolioRepo, rateRepo)

		_, err := service.GetPortfolio(ctx, testWallet, valuation.Fungible, valuation.ParseSortMode(valuation.SortFiatValueHigh))
		var parseErr *valuation.BalanceParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("expected BalanceParseError, got %v", err)
		}
		if parseErr.RawBalance != "-5" {
			t.Errorf("expected raw balance -5, got %s", parseErr.RawBalance)
		}
	})

	t.Run("returns error when holdings fail", func(t *testing.T) {
		portfolioRepo := testutil.NewMockPortfolioRepository()
		portfolioRepo.GetWalletHoldingsFunc = func(ctx context.Context, walletAddress, standard string) ([]entities.TokenHolding, error) {
			return nil, errors.New("database error")
		}

		service := newTestPortfolioService(portfolioRepo, testutil.NewMockExchangeRateRepository())

		_, err := service.GetPortfolio(ctx, testWallet, valuation.Fungible, valuation.ParseSortMode(""))
		if err == nil {
			t.Fatal("expected error, got nil")
		}
	})

	t.Run("empty wallet", func(t *testing.T) {
		service := newTestPortfolioService(testutil.NewMockPortfolioRepository(), testutil.NewMockExchangeRateRepository())

		result, err := service.GetPortfolio(ctx, testWallet, valuation.Fungible, valuation.ParseSortMode(valuation.SortNameLow))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Data.Holdings) != 0 {
			t.Errorf("expected no holdings, got %d", len(result.Data.Holdings))
		}
		if result.Data.Summary.TotalValue != "0.00" {
			t.Errorf("expected total 0.00, got %s", result.Data.Summary.TotalValue)
		}
	})

	t.Run("lowercases wallet address", func(t *testing.T) {
		portfolioRepo := testutil.NewMockPortfolioRepository()
		var captured string
		portfolioRepo.GetWalletHoldingsFunc = func(ctx context.Context, walletAddress, standard string) ([]entities.TokenHolding, error) {
			captured = walletAddress
			return nil, nil
		}

		service := newTestPortfolioService(portfolioRepo, testutil.NewMockExchangeRateRepository())

		_, err := service.GetPortfolio(ctx, "0xABCDEF1234567890ABCDEF1234567890ABCDEF12", valuation.Fungible, valuation.ParseSortMode(""))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if captured != "0xabcdef1234567890abcdef1234567890abcdef12" {
			t.Errorf("expected lowercase address, got %s", captured)
		}
	})
}

func TestPortfolioService_GetPortfolioByToken(t *testing.T) {
	ctx := context.Background()

	t.Run("values a single holding", func(t *testing.T) {
		portfolioRepo := testutil.NewMockPortfolioRepository()
		rateRepo := testutil.NewMockExchangeRateRepository()
		seedStablecoins(portfolioRepo, rateRepo)

		service := newTestPortfolioService(portfolioRepo, rateRepo)

		result, err := service.GetPortfolioByToken(ctx, testWallet, testutil.USDTAddress)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result == nil {
			t.Fatal("expected result, got nil")
		}
		if result.Data.FiatValue != 1000 {
			t.Errorf("expected fiat value 1000, got %v", result.Data.FiatValue)
		}
		if result.Data.PercentChange24h == nil || *result.Data.PercentChange24h != 0.05 {
			t.Errorf("expected change 0.05, got %v", result.Data.PercentChange24h)
		}
	})

	t.Run("returns nil for unknown token", func(t *testing.T) {
		service := newTestPortfolioService(testutil.NewMockPortfolioRepository(), testutil.NewMockExchangeRateRepository())

		result, err := service.GetPortfolioByToken(ctx, testWallet, testutil.USDTAddress)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result != nil {
			t.Errorf("expected nil, got %+v", result)
		}
	})

	t.Run("negative derived balance values as zero", func(t *testing.T) {
		portfolioRepo := testutil.NewMockPortfolioRepository()
		rateRepo := testutil.NewMockExchangeRateRepository()
		rateRepo.AddRates(testutil.CreateTestExchangeRate(testutil.USDTAddress, "usdt", "1", "0.05"))

		decimals := 6
		portfolioRepo.GetWalletHoldingByTokenFunc = func(ctx context.Context, walletAddress, tokenAddress string) (*entities.TokenHolding, error) {
			return &entities.TokenHolding{
				ContractAddress: testutil.USDTAddress,
				Name:            "Tether USD",
				Symbol:          "USDT",
				Standard:        entities.StandardERC20,
				RawBalance:      "-1000000",
				Decimals:        &decimals,
			}, nil
		}

		service := newTestPortfolioService(portfolioRepo, rateRepo)

		result, err := service.GetPortfolioByToken(ctx, testutil.ZeroAddress, testutil.USDTAddress)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result == nil {
			t.Fatal("expected result, got nil")
		}
		if result.Data.RawBalance != "0" || result.Data.NormalizedAmount != 0 || result.Data.FiatValue != 0 {
			t.Errorf("expected zero holding, got %+v", result.Data)
		}
	})

	t.Run("nft holding is not priced", func(t *testing.T) {
		portfolioRepo := testutil.NewMockPortfolioRepository()
		rateRepo := testutil.NewMockExchangeRateRepository()
		portfolioRepo.AddHoldings(testWallet, testutil.CreateTestHolding(
			testutil.HoldingWithContract(testutil.PunksAddress, "CryptoPunks", "PUNK"),
			testutil.HoldingWithBalance("2"),
			testutil.HoldingNFT(),
		))
		rateRepo.AddRates(testutil.CreateTestExchangeRate(testutil.PunksAddress, "punk", "50000", "1"))

		service := newTestPortfolioService(portfolioRepo, rateRepo)

		result, err := service.GetPortfolioByToken(ctx, testWallet, testutil.PunksAddress)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Data.FiatValue != 0 || result.Data.PercentChange24h != nil {
			t.Errorf("expected unpriced NFT, got %+v", result.Data)
		}
	})

	t.Run("returns error when repository fails", func(t *testing.T) {
		portfolioRepo := testutil.NewMockPortfolioRepository()
		portfolioRepo.GetWalletHoldingByTokenFunc = func(ctx context.Context, walletAddress, tokenAddress string) (*entities.TokenHolding, error) {
			return nil, errors.New("database error")
		}

		service := newTestPortfolioService(portfolioRepo, testutil.NewMockExchangeRateRepository())

		_, err := service.GetPortfolioByToken(ctx, testWallet, testutil.USDTAddress)
		if err == nil {
			t.Fatal("expected error, got nil")
		}
	})
}
