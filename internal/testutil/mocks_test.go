package testutil

import (
	"context"
	"math/big"
	"testing"

	"github.com/bimakw/token-explorer/internal/domain/entities"
)

func TestMockTransferRepository_TopHolders(t *testing.T) {
	repo := NewMockTransferRepository()
	ctx := context.Background()

	// Alice mints 100, sends 30 to Bob and 10 to Charlie
	err := repo.BatchInsert(ctx, []entities.Transfer{
		CreateTestTransfer(WithFromAddress(ZeroAddress), WithToAddress(AliceAddress), WithValue(big.NewInt(100))),
		CreateTestTransfer(WithFromAddress(AliceAddress), WithToAddress(BobAddress), WithValue(big.NewInt(30))),
		CreateTestTransfer(WithFromAddress(AliceAddress), WithToAddress(CharlieAddr), WithValue(big.NewInt(10))),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	holders, err := repo.GetTopHolders(ctx, USDTAddress, 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(holders) != 3 {
		t.Fatalf("expected 3 holders, got %d", len(holders))
	}
	if holders[0].Address != AliceAddress || holders[0].Balance != "60" || holders[0].Rank != 1 {
		t.Errorf("unexpected top holder %+v", holders[0])
	}
	if holders[2].Address != CharlieAddr || holders[2].Rank != 3 {
		t.Errorf("unexpected last holder %+v", holders[2])
	}

	page, _ := repo.GetTopHolders(ctx, USDTAddress, 1, 1)
	if len(page) != 1 || page[0].Address != BobAddress {
		t.Errorf("expected Bob on the second page, got %+v", page)
	}

	bob, _ := repo.GetHolderBalance(ctx, USDTAddress, BobAddress)
	if bob.Balance != "30" || bob.Rank != 2 {
		t.Errorf("unexpected Bob balance %+v", bob)
	}

	none, _ := repo.GetHolderBalance(ctx, USDTAddress, "0x9999999999999999999999999999999999999999")
	if none.Balance != "0" || none.Rank != 4 {
		t.Errorf("unexpected empty holder %+v", none)
	}
}

func TestMockTransferRepository_GetLatestBlock(t *testing.T) {
	repo := NewMockTransferRepository()

	repo.AddTransfers(
		CreateTestTransfer(WithBlockNumber(100), WithTokenAddress(USDTAddress)),
		CreateTestTransfer(WithBlockNumber(200), WithTokenAddress(USDTAddress)),
		CreateTestTransfer(WithBlockNumber(150), WithTokenAddress(USDCAddress)),
	)

	ctx := context.Background()

	latest, err := repo.GetLatestBlock(ctx, USDTAddress)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if latest != 200 {
		t.Errorf("expected 200, got %d", latest)
	}

	latest, err = repo.GetLatestBlock(ctx, USDCAddress)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if latest != 150 {
		t.Errorf("expected 150, got %d", latest)
	}
}

func TestMockTokenRepository(t *testing.T) {
	repo := NewMockTokenRepository()
	ctx := context.Background()

	// Test Upsert
	token := CreateTestToken()
	err := repo.Upsert(ctx, token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Test GetByAddress
	retrieved, err := repo.GetByAddress(ctx, USDTAddress)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if retrieved == nil {
		t.Fatal("expected token, got nil")
	}
	if retrieved.Symbol != "USDT" {
		t.Errorf("expected USDT, got %s", retrieved.Symbol)
	}

	// Test GetAllPaginated and GetByStandard
	repo.AddToken(CreateTestToken(TokenWithAddress(USDCAddress), TokenWithSymbol("USDC")))
	repo.AddToken(CreateTestToken(TokenWithAddress(PunksAddress), TokenWithSymbol("PUNK"), TokenWithStandard(entities.StandardERC721)))

	all, total, err := repo.GetAllPaginated(ctx, entities.TokenFilter{Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 3 || total != 3 {
		t.Errorf("expected 3 tokens, got %d (total %d)", len(all), total)
	}

	fungible, _ := repo.GetByStandard(ctx, entities.StandardERC20)
	if len(fungible) != 2 {
		t.Errorf("expected 2 erc20 tokens, got %d", len(fungible))
	}

	// Test UpdateStats
	err = repo.UpdateStats(ctx, USDTAddress, 100, 12500000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	retrieved, _ = repo.GetByAddress(ctx, USDTAddress)
	if retrieved.TotalIndexedTransfers != 100 {
		t.Errorf("expected 100 transfers, got %d", retrieved.TotalIndexedTransfers)
	}
}

func TestMockIndexerStateRepository(t *testing.T) {
	repo := NewMockIndexerStateRepository()
	ctx := context.Background()

	// Test Upsert
	state := CreateTestIndexerState()
	err := repo.Upsert(ctx, state)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Test Get
	retrieved, err := repo.Get(ctx, USDTAddress)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if retrieved == nil {
		t.Fatal("expected state, got nil")
	}
	if retrieved.LastIndexedBlock != 12345678 {
		t.Errorf("expected block 12345678, got %d", retrieved.LastIndexedBlock)
	}

	// Test UpdateLastBlock
	err = repo.UpdateLastBlock(ctx, USDTAddress, 12500000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	retrieved, _ = repo.Get(ctx, USDTAddress)
	if retrieved.LastIndexedBlock != 12500000 {
		t.Errorf("expected block 12500000, got %d", retrieved.LastIndexedBlock)
	}

	// The cursor never moves backward
	if err := repo.UpdateLastBlock(ctx, USDTAddress, 12400000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	retrieved, _ = repo.Get(ctx, USDTAddress)
	if retrieved.LastIndexedBlock != 12500000 {
		t.Errorf("expected cursor to stay at 12500000, got %d", retrieved.LastIndexedBlock)
	}

	// UpdateLastBlock creates a missing cursor
	if err := repo.UpdateLastBlock(ctx, PunksAddress, 42); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	states, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(states) != 2 || states[0].TokenAddress != PunksAddress || states[0].LastIndexedBlock != 42 {
		t.Errorf("unexpected cursors %+v", states)
	}

	// Test SetBackfilling
	fromBlock := int64(10000000)
	toBlock := int64(11000000)
	err = repo.SetBackfilling(ctx, USDTAddress, true, &fromBlock, &toBlock)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	retrieved, _ = repo.Get(ctx, USDTAddress)
	if !retrieved.IsBackfilling {
		t.Error("expected backfilling to be true")
	}
	if *retrieved.BackfillFromBlock != 10000000 {
		t.Errorf("expected from block 10000000, got %d", *retrieved.BackfillFromBlock)
	}
}

func TestCreateTestTransfer(t *testing.T) {
	// Test default values
	transfer := CreateTestTransfer()
	if transfer.TokenAddress != USDTAddress {
		t.Errorf("expected USDT address, got %s", transfer.TokenAddress)
	}
	if transfer.FromAddress != AliceAddress {
		t.Errorf("expected Alice address, got %s", transfer.FromAddress)
	}

	// Test with options
	transfer = CreateTestTransfer(
		WithBlockNumber(999),
		WithTokenAddress(USDCAddress),
	)
	if transfer.BlockNumber != 999 {
		t.Errorf("expected block 999, got %d", transfer.BlockNumber)
	}
	if transfer.TokenAddress != USDCAddress {
		t.Errorf("expected USDC address, got %s", transfer.TokenAddress)
	}
}

func TestCreateMultipleTransfers(t *testing.T) {
	transfers := CreateMultipleTransfers(10)
	if len(transfers) != 10 {
		t.Errorf("expected 10 transfers, got %d", len(transfers))
	}

	// Verify each has unique ID and LogIndex
	ids := make(map[int64]bool)
	for _, tr := range transfers {
		if ids[tr.ID] {
			t.Errorf("duplicate ID: %d", tr.ID)
		}
		ids[tr.ID] = true
	}
}

func TestMockPortfolioRepository(t *testing.T) {
	repo := NewMockPortfolioRepository()
	ctx := context.Background()

	repo.AddHoldings(AliceAddress,
		CreateTestHolding(),
		CreateTestHolding(HoldingWithContract(PunksAddress, "CryptoPunks", "PUNK"), HoldingWithBalance("2"), HoldingNFT()),
	)

	fungible, err := repo.GetWalletHoldings(ctx, AliceAddress, entities.StandardERC20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fungible) != 1 || fungible[0].ContractAddress != USDTAddress {
		t.Errorf("unexpected erc20 holdings %+v", fungible)
	}

	nft, _ := repo.GetWalletHoldingByToken(ctx, AliceAddress, PunksAddress)
	if nft == nil || nft.Decimals != nil {
		t.Errorf("unexpected nft holding %+v", nft)
	}

	missing, _ := repo.GetWalletHoldingByToken(ctx, BobAddress, USDTAddress)
	if missing != nil {
		t.Error("expected nil for unknown holding")
	}
}

func TestMockExchangeRateRepository(t *testing.T) {
	repo := NewMockExchangeRateRepository()
	ctx := context.Background()

	if err := repo.BatchUpsert(ctx, []entities.TokenExchangeRate{
		CreateTestExchangeRate(USDTAddress, "USDT", "1.0001", "0.01"),
		CreateTestExchangeRate(USDCAddress, "USDC", "0.9998", ""),
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rates, _ := repo.GetByAddresses(ctx, []string{USDTAddress, PunksAddress})
	if len(rates) != 1 {
		t.Errorf("expected 1 rate, got %d", len(rates))
	}

	usdc, _ := repo.GetBySymbol(ctx, "usdc")
	if usdc == nil || usdc.PriceChangePercentage24h.Valid {
		t.Errorf("unexpected USDC rate %+v", usdc)
	}

	count, _ := repo.Count(ctx)
	if count != 2 {
		t.Errorf("expected 2 rates, got %d", count)
	}
}

func TestPointerTo(t *testing.T) {
	intVal := 42
	ptr := PointerTo(intVal)
	if *ptr != 42 {
		t.Errorf("expected 42, got %d", *ptr)
	}

	strVal := "hello"
	strPtr := PointerTo(strVal)
	if *strPtr != "hello" {
		t.Errorf("expected hello, got %s", *strPtr)
	}
}
