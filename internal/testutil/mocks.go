package testutil

import (
	"context"
	"errors"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bimakw/token-explorer/internal/domain/entities"
	"github.com/bimakw/token-explorer/internal/infrastructure/ethereum"
	"github.com/bimakw/token-explorer/internal/infrastructure/pricefeed"
)

type MockCall struct {
	Method string
	Args   []interface{}
}

// MockTransferRepository is a mock implementation of TransferRepository.
// Holder balances are derived from the stored transfers.
type MockTransferRepository struct {
	mu        sync.RWMutex
	transfers []entities.Transfer

	// Function hooks for custom behavior
	BatchInsertFunc      func(ctx context.Context, transfers []entities.Transfer) error
	GetLatestBlockFunc   func(ctx context.Context, tokenAddress string) (int64, error)
	GetTopHoldersFunc    func(ctx context.Context, tokenAddress string, limit, offset int) ([]entities.HolderBalance, error)
	GetHolderBalanceFunc func(ctx context.Context, tokenAddress, holderAddress string) (*entities.HolderBalance, error)

	// Call tracking
	Calls []MockCall
}

func NewMockTransferRepository() *MockTransferRepository {
	return &MockTransferRepository{
		transfers: make([]entities.Transfer, 0),
		Calls:     make([]MockCall, 0),
	}
}

func (m *MockTransferRepository) BatchInsert(ctx context.Context, transfers []entities.Transfer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, MockCall{Method: "BatchInsert", Args: []interface{}{transfers}})

	if m.BatchInsertFunc != nil {
		return m.BatchInsertFunc(ctx, transfers)
	}

	m.transfers = append(m.transfers, transfers...)
	return nil
}

func (m *MockTransferRepository) GetLatestBlock(ctx context.Context, tokenAddress string) (int64, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{Method: "GetLatestBlock", Args: []interface{}{tokenAddress}})
	m.mu.Unlock()

	if m.GetLatestBlockFunc != nil {
		return m.GetLatestBlockFunc(ctx, tokenAddress)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest int64
	for _, t := range m.transfers {
		if t.TokenAddress == tokenAddress && t.BlockNumber > latest {
			latest = t.BlockNumber
		}
	}
	return latest, nil
}

func (m *MockTransferRepository) GetTopHolders(ctx context.Context, tokenAddress string, limit, offset int) ([]entities.HolderBalance, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{Method: "GetTopHolders", Args: []interface{}{tokenAddress, limit, offset}})
	m.mu.Unlock()

	if m.GetTopHoldersFunc != nil {
		return m.GetTopHoldersFunc(ctx, tokenAddress, limit, offset)
	}

	holders := m.rankedHolders(tokenAddress)
	if offset >= len(holders) {
		return []entities.HolderBalance{}, nil
	}
	end := offset + limit
	if end > len(holders) {
		end = len(holders)
	}
	return holders[offset:end], nil
}

func (m *MockTransferRepository) GetHolderBalance(ctx context.Context, tokenAddress, holderAddress string) (*entities.HolderBalance, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{Method: "GetHolderBalance", Args: []interface{}{tokenAddress, holderAddress}})
	m.mu.Unlock()

	if m.GetHolderBalanceFunc != nil {
		return m.GetHolderBalanceFunc(ctx, tokenAddress, holderAddress)
	}

	holders := m.rankedHolders(tokenAddress)
	for i := range holders {
		if holders[i].Address == holderAddress {
			return &holders[i], nil
		}
	}
	return &entities.HolderBalance{
		Address: holderAddress,
		Balance: "0",
		Rank:    len(holders) + 1,
	}, nil
}

// rankedHolders computes positive balances ordered by balance desc, then address
func (m *MockTransferRepository) rankedHolders(tokenAddress string) []entities.HolderBalance {
	m.mu.RLock()
	defer m.mu.RUnlock()

	balances := make(map[string]*big.Int)
	add := func(addr string, v *big.Int) {
		if _, ok := balances[addr]; !ok {
			balances[addr] = new(big.Int)
		}
		balances[addr].Add(balances[addr], v)
	}

	for _, t := range m.transfers {
		if t.TokenAddress != tokenAddress {
			continue
		}
		v, ok := new(big.Int).SetString(t.ValueString, 10)
		if !ok {
			continue
		}
		add(t.ToAddress, v)
		add(t.FromAddress, new(big.Int).Neg(v))
	}

	holders := make([]entities.HolderBalance, 0, len(balances))
	for addr, bal := range balances {
		if bal.Sign() > 0 {
			holders = append(holders, entities.HolderBalance{Address: addr, Balance: bal.String()})
		}
	}

	sort.Slice(holders, func(i, j int) bool {
		bi, _ := new(big.Int).SetString(holders[i].Balance, 10)
		bj, _ := new(big.Int).SetString(holders[j].Balance, 10)
		if c := bi.Cmp(bj); c != 0 {
			return c > 0
		}
		return holders[i].Address < holders[j].Address
	})
	for i := range holders {
		holders[i].Rank = i + 1
	}

	return holders
}

// AddTransfers adds transfers to the mock store
func (m *MockTransferRepository) AddTransfers(transfers ...entities.Transfer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transfers = append(m.transfers, transfers...)
}

// Transfers returns a copy of the stored transfers
func (m *MockTransferRepository) Transfers() []entities.Transfer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]entities.Transfer(nil), m.transfers...)
}

// Reset clears all stored data and calls
func (m *MockTransferRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transfers = make([]entities.Transfer, 0)
	m.Calls = make([]MockCall, 0)
}

// MockTokenRepository is a mock implementation of TokenRepository
type MockTokenRepository struct {
	mu     sync.RWMutex
	tokens map[string]*entities.Token

	// Function hooks
	GetByAddressFunc    func(ctx context.Context, address string) (*entities.Token, error)
	GetByStandardFunc   func(ctx context.Context, standard string) ([]entities.Token, error)
	GetAllPaginatedFunc func(ctx context.Context, filter entities.TokenFilter) ([]entities.Token, int64, error)
	UpsertFunc          func(ctx context.Context, token *entities.Token) error
	UpdateStatsFunc     func(ctx context.Context, address string, transferCount int64, lastBlock int64) error

	Calls []MockCall
}

func NewMockTokenRepository() *MockTokenRepository {
	return &MockTokenRepository{
		tokens: make(map[string]*entities.Token),
		Calls:  make([]MockCall, 0),
	}
}

func (m *MockTokenRepository) GetByAddress(ctx context.Context, address string) (*entities.Token, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{Method: "GetByAddress", Args: []interface{}{address}})
	m.mu.Unlock()

	if m.GetByAddressFunc != nil {
		return m.GetByAddressFunc(ctx, address)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if token, ok := m.tokens[address]; ok {
		return token, nil
	}
	return nil, nil
}

func (m *MockTokenRepository) GetByStandard(ctx context.Context, standard string) ([]entities.Token, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{Method: "GetByStandard", Args: []interface{}{standard}})
	m.mu.Unlock()

	if m.GetByStandardFunc != nil {
		return m.GetByStandardFunc(ctx, standard)
	}

	result := make([]entities.Token, 0)
	for _, token := range m.sorted() {
		if token.Standard == standard {
			result = append(result, token)
		}
	}
	return result, nil
}

func (m *MockTokenRepository) GetAllPaginated(ctx context.Context, filter entities.TokenFilter) ([]entities.Token, int64, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{Method: "GetAllPaginated", Args: []interface{}{filter}})
	m.mu.Unlock()

	if m.GetAllPaginatedFunc != nil {
		return m.GetAllPaginatedFunc(ctx, filter)
	}

	result := make([]entities.Token, 0)
	for _, token := range m.sorted() {
		if filter.Standard != "" && token.Standard != filter.Standard {
			continue
		}
		result = append(result, token)
	}

	total := int64(len(result))

	start := filter.Offset
	if start > len(result) {
		return []entities.Token{}, total, nil
	}
	end := start + filter.Limit
	if end > len(result) {
		end = len(result)
	}

	return result[start:end], total, nil
}

func (m *MockTokenRepository) Upsert(ctx context.Context, token *entities.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, MockCall{Method: "Upsert", Args: []interface{}{token}})

	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, token)
	}

	m.tokens[token.Address] = token
	return nil
}

func (m *MockTokenRepository) UpdateStats(ctx context.Context, address string, transferCount int64, lastBlock int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, MockCall{Method: "UpdateStats", Args: []interface{}{address, transferCount, lastBlock}})

	if m.UpdateStatsFunc != nil {
		return m.UpdateStatsFunc(ctx, address, transferCount, lastBlock)
	}

	if token, ok := m.tokens[address]; ok {
		token.TotalIndexedTransfers += transferCount
		if token.LastSeenBlock == nil || lastBlock > *token.LastSeenBlock {
			token.LastSeenBlock = &lastBlock
		}
	}
	return nil
}

// sorted returns stored tokens ordered by address
func (m *MockTokenRepository) sorted() []entities.Token {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]entities.Token, 0, len(m.tokens))
	for _, token := range m.tokens {
		result = append(result, *token)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Address < result[j].Address })
	return result
}

// AddToken adds a token to the mock store
func (m *MockTokenRepository) AddToken(token *entities.Token) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token.Address] = token
}

// Reset clears all stored data and calls
func (m *MockTokenRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = make(map[string]*entities.Token)
	m.Calls = make([]MockCall, 0)
}

// MockIndexerStateRepository is a mock implementation of IndexerStateRepository
type MockIndexerStateRepository struct {
	mu     sync.RWMutex
	states map[string]*entities.IndexerState

	// Function hooks
	GetFunc             func(ctx context.Context, tokenAddress string) (*entities.IndexerState, error)
	ListFunc            func(ctx context.Context) ([]entities.IndexerState, error)
	UpsertFunc          func(ctx context.Context, state *entities.IndexerState) error
	UpdateLastBlockFunc func(ctx context.Context, tokenAddress string, blockNumber int64) error
	SetBackfillingFunc  func(ctx context.Context, tokenAddress string, isBackfilling bool, fromBlock, toBlock *int64) error

	Calls []MockCall
}

func NewMockIndexerStateRepository() *MockIndexerStateRepository {
	return &MockIndexerStateRepository{
		states: make(map[string]*entities.IndexerState),
		Calls:  make([]MockCall, 0),
	}
}

func (m *MockIndexerStateRepository) Get(ctx context.Context, tokenAddress string) (*entities.IndexerState, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{Method: "Get", Args: []interface{}{tokenAddress}})
	m.mu.Unlock()

	if m.GetFunc != nil {
		return m.GetFunc(ctx, tokenAddress)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if state, ok := m.states[tokenAddress]; ok {
		return state, nil
	}
	return nil, nil
}

func (m *MockIndexerStateRepository) List(ctx context.Context) ([]entities.IndexerState, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{Method: "List"})
	m.mu.Unlock()

	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	states := make([]entities.IndexerState, 0, len(m.states))
	for _, state := range m.states {
		states = append(states, *state)
	}
	sort.Slice(states, func(i, j int) bool { return states[i].TokenAddress < states[j].TokenAddress })
	return states, nil
}

func (m *MockIndexerStateRepository) Upsert(ctx context.Context, state *entities.IndexerState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, MockCall{Method: "Upsert", Args: []interface{}{state}})

	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, state)
	}

	if existing, ok := m.states[state.TokenAddress]; ok && existing.LastIndexedBlock > state.LastIndexedBlock {
		state.LastIndexedBlock = existing.LastIndexedBlock
	}
	m.states[state.TokenAddress] = state
	return nil
}

func (m *MockIndexerStateRepository) UpdateLastBlock(ctx context.Context, tokenAddress string, blockNumber int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, MockCall{Method: "UpdateLastBlock", Args: []interface{}{tokenAddress, blockNumber}})

	if m.UpdateLastBlockFunc != nil {
		return m.UpdateLastBlockFunc(ctx, tokenAddress, blockNumber)
	}

	state, ok := m.states[tokenAddress]
	if !ok {
		m.states[tokenAddress] = &entities.IndexerState{TokenAddress: tokenAddress, LastIndexedBlock: blockNumber}
		return nil
	}
	if blockNumber > state.LastIndexedBlock {
		state.LastIndexedBlock = blockNumber
	}
	return nil
}

func (m *MockIndexerStateRepository) SetBackfilling(ctx context.Context, tokenAddress string, isBackfilling bool, fromBlock, toBlock *int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, MockCall{Method: "SetBackfilling", Args: []interface{}{tokenAddress, isBackfilling, fromBlock, toBlock}})

	if m.SetBackfillingFunc != nil {
		return m.SetBackfillingFunc(ctx, tokenAddress, isBackfilling, fromBlock, toBlock)
	}

	if state, ok := m.states[tokenAddress]; ok {
		state.IsBackfilling = isBackfilling
		state.BackfillFromBlock = fromBlock
		state.BackfillToBlock = toBlock
	}
	return nil
}

// AddState adds a state to the mock store
func (m *MockIndexerStateRepository) AddState(state *entities.IndexerState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[state.TokenAddress] = state
}

// State returns the stored state for a token
func (m *MockIndexerStateRepository) State(tokenAddress string) *entities.IndexerState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.states[tokenAddress]
}

// MockPortfolioRepository is a mock implementation of PortfolioRepository
type MockPortfolioRepository struct {
	mu       sync.RWMutex
	holdings map[string][]entities.TokenHolding

	// Function hooks
	GetWalletHoldingsFunc       func(ctx context.Context, walletAddress, standard string) ([]entities.TokenHolding, error)
	GetWalletHoldingByTokenFunc func(ctx context.Context, walletAddress, tokenAddress string) (*entities.TokenHolding, error)

	Calls []MockCall
}

func NewMockPortfolioRepository() *MockPortfolioRepository {
	return &MockPortfolioRepository{
		holdings: make(map[string][]entities.TokenHolding),
		Calls:    make([]MockCall, 0),
	}
}

func (m *MockPortfolioRepository) GetWalletHoldings(ctx context.Context, walletAddress, standard string) ([]entities.TokenHolding, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{Method: "GetWalletHoldings", Args: []interface{}{walletAddress, standard}})
	m.mu.Unlock()

	if m.GetWalletHoldingsFunc != nil {
		return m.GetWalletHoldingsFunc(ctx, walletAddress, standard)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]entities.TokenHolding, 0)
	for _, h := range m.holdings[walletAddress] {
		if h.Standard == standard {
			result = append(result, h)
		}
	}
	return result, nil
}

func (m *MockPortfolioRepository) GetWalletHoldingByToken(ctx context.Context, walletAddress, tokenAddress string) (*entities.TokenHolding, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{Method: "GetWalletHoldingByToken", Args: []interface{}{walletAddress, tokenAddress}})
	m.mu.Unlock()

	if m.GetWalletHoldingByTokenFunc != nil {
		return m.GetWalletHoldingByTokenFunc(ctx, walletAddress, tokenAddress)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, h := range m.holdings[walletAddress] {
		if h.ContractAddress == tokenAddress {
			holding := h
			return &holding, nil
		}
	}
	return nil, nil
}

// AddHoldings adds holdings for a wallet to the mock store
func (m *MockPortfolioRepository) AddHoldings(walletAddress string, holdings ...entities.TokenHolding) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.holdings[walletAddress] = append(m.holdings[walletAddress], holdings...)
}

// MockExchangeRateRepository is a mock implementation of ExchangeRateRepository
type MockExchangeRateRepository struct {
	mu    sync.RWMutex
	rates map[string]entities.TokenExchangeRate

	// Function hooks
	GetAllFunc         func(ctx context.Context, filter entities.ExchangeRateFilter) ([]entities.TokenExchangeRate, error)
	CountFunc          func(ctx context.Context) (int64, error)
	GetByAddressFunc   func(ctx context.Context, address string) (*entities.TokenExchangeRate, error)
	GetBySymbolFunc    func(ctx context.Context, symbol string) (*entities.TokenExchangeRate, error)
	GetByAddressesFunc func(ctx context.Context, addresses []string) ([]entities.TokenExchangeRate, error)
	BatchUpsertFunc    func(ctx context.Context, rates []entities.TokenExchangeRate) error
	LatestUpdateFunc   func(ctx context.Context) (*time.Time, error)

	Calls []MockCall
}

func NewMockExchangeRateRepository() *MockExchangeRateRepository {
	return &MockExchangeRateRepository{
		rates: make(map[string]entities.TokenExchangeRate),
		Calls: make([]MockCall, 0),
	}
}

func (m *MockExchangeRateRepository) record(method string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, MockCall{Method: method, Args: args})
}

func (m *MockExchangeRateRepository) GetAll(ctx context.Context, filter entities.ExchangeRateFilter) ([]entities.TokenExchangeRate, error) {
	m.record("GetAll", filter)

	if m.GetAllFunc != nil {
		return m.GetAllFunc(ctx, filter)
	}

	m.mu.RLock()
	result := make([]entities.TokenExchangeRate, 0, len(m.rates))
	for _, r := range m.rates {
		result = append(result, r)
	}
	m.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool { return result[i].Address < result[j].Address })

	start := filter.Offset
	if start > len(result) {
		return []entities.TokenExchangeRate{}, nil
	}
	end := start + filter.Limit
	if end > len(result) {
		end = len(result)
	}
	return result[start:end], nil
}

func (m *MockExchangeRateRepository) Count(ctx context.Context) (int64, error) {
	m.record("Count")

	if m.CountFunc != nil {
		return m.CountFunc(ctx)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.rates)), nil
}

func (m *MockExchangeRateRepository) GetByAddress(ctx context.Context, address string) (*entities.TokenExchangeRate, error) {
	m.record("GetByAddress", address)

	if m.GetByAddressFunc != nil {
		return m.GetByAddressFunc(ctx, address)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if r, ok := m.rates[address]; ok {
		return &r, nil
	}
	return nil, nil
}

func (m *MockExchangeRateRepository) GetBySymbol(ctx context.Context, symbol string) (*entities.TokenExchangeRate, error) {
	m.record("GetBySymbol", symbol)

	if m.GetBySymbolFunc != nil {
		return m.GetBySymbolFunc(ctx, symbol)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.rates {
		if strings.EqualFold(r.Symbol, symbol) {
			rate := r
			return &rate, nil
		}
	}
	return nil, nil
}

func (m *MockExchangeRateRepository) GetByAddresses(ctx context.Context, addresses []string) ([]entities.TokenExchangeRate, error) {
	m.record("GetByAddresses", addresses)

	if m.GetByAddressesFunc != nil {
		return m.GetByAddressesFunc(ctx, addresses)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]entities.TokenExchangeRate, 0, len(addresses))
	for _, addr := range addresses {
		if r, ok := m.rates[addr]; ok {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *MockExchangeRateRepository) BatchUpsert(ctx context.Context, rates []entities.TokenExchangeRate) error {
	m.record("BatchUpsert", rates)

	if m.BatchUpsertFunc != nil {
		return m.BatchUpsertFunc(ctx, rates)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rates {
		m.rates[r.Address] = r
	}
	return nil
}

func (m *MockExchangeRateRepository) LatestUpdate(ctx context.Context) (*time.Time, error) {
	m.record("LatestUpdate")

	if m.LatestUpdateFunc != nil {
		return m.LatestUpdateFunc(ctx)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest *time.Time
	for _, r := range m.rates {
		if r.LastUpdated != nil && (latest == nil || r.LastUpdated.After(*latest)) {
			t := *r.LastUpdated
			latest = &t
		}
	}
	return latest, nil
}

// AddRates adds exchange rates to the mock store
func (m *MockExchangeRateRepository) AddRates(rates ...entities.TokenExchangeRate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rates {
		m.rates[r.Address] = r
	}
}

// MockTransferFetcher is a mock source of on-chain Transfer events
type MockTransferFetcher struct {
	mu sync.Mutex

	SafeBlock int64
	// Transfers returned per token, filtered to the requested block range
	TransfersByToken map[string][]entities.Transfer

	FetchTransfersFunc     func(ctx context.Context, tokenAddresses []string, fromBlock, toBlock int64) (*ethereum.FetchResult, error)
	GetSafeBlockNumberFunc func(ctx context.Context) (int64, error)

	Calls []MockCall
}

func NewMockTransferFetcher(safeBlock int64) *MockTransferFetcher {
	return &MockTransferFetcher{
		SafeBlock:        safeBlock,
		TransfersByToken: make(map[string][]entities.Transfer),
	}
}

func (m *MockTransferFetcher) FetchTransfers(ctx context.Context, tokenAddresses []string, fromBlock, toBlock int64) (*ethereum.FetchResult, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{Method: "FetchTransfers", Args: []interface{}{tokenAddresses, fromBlock, toBlock}})
	m.mu.Unlock()

	if m.FetchTransfersFunc != nil {
		return m.FetchTransfersFunc(ctx, tokenAddresses, fromBlock, toBlock)
	}

	result := &ethereum.FetchResult{
		Transfers: []entities.Transfer{},
		FromBlock: fromBlock,
		ToBlock:   toBlock,
	}
	for _, addr := range tokenAddresses {
		for _, t := range m.TransfersByToken[addr] {
			if t.BlockNumber >= fromBlock && t.BlockNumber <= toBlock {
				result.Transfers = append(result.Transfers, t)
				if t.IsNFT() {
					result.NFTCount++
				}
			}
		}
	}
	return result, nil
}

func (m *MockTransferFetcher) GetSafeBlockNumber(ctx context.Context) (int64, error) {
	if m.GetSafeBlockNumberFunc != nil {
		return m.GetSafeBlockNumberFunc(ctx)
	}
	return m.SafeBlock, nil
}

// MockMetadataSource returns canned token metadata
type MockMetadataSource struct {
	mu       sync.Mutex
	Metadata map[string]*ethereum.TokenMetadata
	Err      error
	Calls    []MockCall
}

func NewMockMetadataSource() *MockMetadataSource {
	return &MockMetadataSource{Metadata: make(map[string]*ethereum.TokenMetadata)}
}

func (m *MockMetadataSource) FetchMetadata(ctx context.Context, tokenAddress, standard string) (*ethereum.TokenMetadata, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{Method: "FetchMetadata", Args: []interface{}{tokenAddress, standard}})
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if md, ok := m.Metadata[tokenAddress]; ok {
		return md, nil
	}
	return &ethereum.TokenMetadata{Name: "Unknown", Symbol: "UNK", Decimals: 18, Standard: standard}, nil
}

// MockQuoteSource is a mock price feed
type MockQuoteSource struct {
	mu     sync.Mutex
	Prices map[string]pricefeed.TokenPrice

	GetTokenPricesFunc func(ctx context.Context, platform string, addresses []string) (map[string]pricefeed.TokenPrice, error)

	Calls []MockCall
}

func NewMockQuoteSource() *MockQuoteSource {
	return &MockQuoteSource{Prices: make(map[string]pricefeed.TokenPrice)}
}

func (m *MockQuoteSource) GetTokenPrices(ctx context.Context, platform string, addresses []string) (map[string]pricefeed.TokenPrice, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{Method: "GetTokenPrices", Args: []interface{}{platform, addresses}})
	m.mu.Unlock()

	if m.GetTokenPricesFunc != nil {
		return m.GetTokenPricesFunc(ctx, platform, addresses)
	}

	result := make(map[string]pricefeed.TokenPrice)
	for _, addr := range addresses {
		if p, ok := m.Prices[addr]; ok {
			result[addr] = p
		}
	}
	return result, nil
}

// MockHealthChecker is a mock implementation of HealthChecker
type MockHealthChecker struct {
	mu sync.RWMutex

	Healthy bool
	Error   error
	Calls   []MockCall
}

func NewMockHealthChecker(healthy bool) *MockHealthChecker {
	var err error
	if !healthy {
		err = errors.New("health check failed")
	}
	return &MockHealthChecker{
		Healthy: healthy,
		Error:   err,
		Calls:   make([]MockCall, 0),
	}
}

func (m *MockHealthChecker) HealthCheck(ctx context.Context) error {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{Method: "HealthCheck", Args: nil})
	m.mu.Unlock()

	return m.Error
}

