package testutil

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bimakw/token-explorer/internal/domain/entities"
)

// Common test addresses
const (
	USDTAddress  = "0xdac17f958d2ee523a2206206994597c13d831ec7"
	USDCAddress  = "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"
	AliceAddress = "0x1111111111111111111111111111111111111111"
	BobAddress   = "0x2222222222222222222222222222222222222222"
	CharlieAddr  = "0x3333333333333333333333333333333333333333"
	PunksAddress = "0xb47e3cd837ddf8e4c57f05d70ab865de6e193bbb"
	ZeroAddress  = "0x0000000000000000000000000000000000000000"
)

// CreateTestTransfer creates a test transfer with default values
func CreateTestTransfer(opts ...TransferOption) entities.Transfer {
	t := entities.Transfer{
		ID:             1,
		TxHash:         "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		LogIndex:       0,
		BlockNumber:    12345678,
		BlockTimestamp: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		TokenAddress:   USDTAddress,
		FromAddress:    AliceAddress,
		ToAddress:      BobAddress,
		Value:          big.NewInt(1000000), // 1 USDT
		ValueString:    "1000000",
		CreatedAt:      time.Now(),
	}

	for _, opt := range opts {
		opt(&t)
	}

	return t
}

type TransferOption func(*entities.Transfer)

func WithLogIndex(idx int) TransferOption {
	return func(t *entities.Transfer) {
		t.LogIndex = idx
	}
}

func WithBlockNumber(num int64) TransferOption {
	return func(t *entities.Transfer) {
		t.BlockNumber = num
	}
}

func WithTokenAddress(addr string) TransferOption {
	return func(t *entities.Transfer) {
		t.TokenAddress = addr
	}
}

func WithFromAddress(addr string) TransferOption {
	return func(t *entities.Transfer) {
		t.FromAddress = addr
	}
}

func WithToAddress(addr string) TransferOption {
	return func(t *entities.Transfer) {
		t.ToAddress = addr
	}
}

func WithValue(val *big.Int) TransferOption {
	return func(t *entities.Transfer) {
		t.Value = val
		t.ValueString = val.String()
	}
}

// WithTokenID turns the transfer into an ERC-721 transfer of one token
func WithTokenID(id string) TransferOption {
	return func(t *entities.Transfer) {
		t.TokenID = &id
		t.Value = big.NewInt(1)
		t.ValueString = "1"
	}
}

// CreateTestToken creates a test token with default values
func CreateTestToken(opts ...TokenOption) *entities.Token {
	firstSeenBlock := int64(12000000)
	lastSeenBlock := int64(12345678)
	t := &entities.Token{
		Address:               USDTAddress,
		Name:                  "Tether USD",
		Symbol:                "USDT",
		Decimals:              6,
		Standard:              entities.StandardERC20,
		TotalIndexedTransfers: 0,
		FirstSeenBlock:        &firstSeenBlock,
		LastSeenBlock:         &lastSeenBlock,
		CreatedAt:             time.Now(),
		UpdatedAt:             time.Now(),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

type TokenOption func(*entities.Token)

func TokenWithAddress(addr string) TokenOption {
	return func(t *entities.Token) {
		t.Address = addr
	}
}

func TokenWithName(name string) TokenOption {
	return func(t *entities.Token) {
		t.Name = name
	}
}

func TokenWithSymbol(symbol string) TokenOption {
	return func(t *entities.Token) {
		t.Symbol = symbol
	}
}

func TokenWithDecimals(dec int) TokenOption {
	return func(t *entities.Token) {
		t.Decimals = dec
	}
}

func TokenWithStandard(standard string) TokenOption {
	return func(t *entities.Token) {
		t.Standard = standard
	}
}

func TokenWithTotalTransfers(count int64) TokenOption {
	return func(t *entities.Token) {
		t.TotalIndexedTransfers = count
	}
}

// CreateTestIndexerState creates a test indexer state
func CreateTestIndexerState(opts ...IndexerStateOption) *entities.IndexerState {
	s := &entities.IndexerState{
		TokenAddress:     USDTAddress,
		LastIndexedBlock: 12345678,
		IsBackfilling:    false,
		UpdatedAt:        time.Now(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

type IndexerStateOption func(*entities.IndexerState)

func StateWithTokenAddress(addr string) IndexerStateOption {
	return func(s *entities.IndexerState) {
		s.TokenAddress = addr
	}
}

func StateWithLastIndexedBlock(block int64) IndexerStateOption {
	return func(s *entities.IndexerState) {
		s.LastIndexedBlock = block
	}
}

func StateWithBackfilling(isBackfilling bool, fromBlock, toBlock *int64) IndexerStateOption {
	return func(s *entities.IndexerState) {
		s.IsBackfilling = isBackfilling
		s.BackfillFromBlock = fromBlock
		s.BackfillToBlock = toBlock
	}
}

// CreateTestHolding creates an ERC-20 holding with default values
func CreateTestHolding(opts ...HoldingOption) entities.TokenHolding {
	h := entities.TokenHolding{
		ContractAddress: USDTAddress,
		Name:            "Tether USD",
		Symbol:          "USDT",
		Standard:        entities.StandardERC20,
		RawBalance:      "1000000",
		Decimals:        PointerTo(6),
	}

	for _, opt := range opts {
		opt(&h)
	}

	return h
}

type HoldingOption func(*entities.TokenHolding)

func HoldingWithContract(addr, name, symbol string) HoldingOption {
	return func(h *entities.TokenHolding) {
		h.ContractAddress = addr
		h.Name = name
		h.Symbol = symbol
	}
}

func HoldingWithBalance(raw string) HoldingOption {
	return func(h *entities.TokenHolding) {
		h.RawBalance = raw
	}
}

func HoldingWithDecimals(decimals *int) HoldingOption {
	return func(h *entities.TokenHolding) {
		h.Decimals = decimals
	}
}

// HoldingNFT marks the holding as an ERC-721 position without decimals
func HoldingNFT() HoldingOption {
	return func(h *entities.TokenHolding) {
		h.Standard = entities.StandardERC721
		h.Decimals = nil
	}
}

// CreateTestExchangeRate creates a price feed row
func CreateTestExchangeRate(address, symbol, price, change string) entities.TokenExchangeRate {
	updated := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	rate := entities.TokenExchangeRate{
		Address:     address,
		Symbol:      symbol,
		Name:        symbol,
		LastUpdated: &updated,
	}
	if price != "" {
		rate.CurrentPrice = decimal.NewNullDecimal(decimal.RequireFromString(price))
	}
	if change != "" {
		rate.PriceChangePercentage24h = decimal.NewNullDecimal(decimal.RequireFromString(change))
	}
	return rate
}

// CreateMultipleTransfers creates multiple test transfers for testing pagination
func CreateMultipleTransfers(count int, opts ...TransferOption) []entities.Transfer {
	transfers := make([]entities.Transfer, count)
	for i := 0; i < count; i++ {
		t := CreateTestTransfer(opts...)
		t.ID = int64(i + 1)
		t.LogIndex = i
		t.BlockNumber = int64(12345678 + i)
		t.BlockTimestamp = t.BlockTimestamp.Add(time.Duration(i) * time.Minute)
		t.TxHash = generateTxHash(i)
		transfers[i] = t
	}
	return transfers
}

func generateTxHash(index int) string {
	// Generate a unique tx hash based on index
	hash := "0x"
	for i := 0; i < 64; i++ {
		hash += string(rune('a' + (index+i)%6))
	}
	return hash
}

// PointerTo returns a pointer to the given value
func PointerTo[T any](v T) *T {
	return &v
}
