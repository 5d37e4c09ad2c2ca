package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bimakw/token-explorer/internal/config"
	"github.com/bimakw/token-explorer/internal/domain/entities"
	"github.com/bimakw/token-explorer/internal/domain/repositories"
	"github.com/bimakw/token-explorer/internal/infrastructure/ethereum"
)

// TransferFetcher reads Transfer events from the chain
type TransferFetcher interface {
	FetchTransfers(ctx context.Context, tokenAddresses []string, fromBlock, toBlock int64) (*ethereum.FetchResult, error)
	GetSafeBlockNumber(ctx context.Context) (int64, error)
}

// MetadataSource reads token name, symbol and decimals from the chain
type MetadataSource interface {
	FetchMetadata(ctx context.Context, tokenAddress, standard string) (*ethereum.TokenMetadata, error)
}

// IndexerObserver receives indexing progress, e.g. to export Prometheus metrics
type IndexerObserver interface {
	ObserveBatch(blocks, transfers, lastBlock int64)
	ObserveLag(tokenAddress string, blocks int64)
	ObserveLatency(d time.Duration)
	ObserveError()
}

// IndexerService orchestrates the indexing process
type IndexerService struct {
	fetcher      TransferFetcher
	metadata     MetadataSource
	tokenRepo    repositories.TokenRepository
	transferRepo repositories.TransferRepository
	stateRepo    repositories.IndexerStateRepository
	config       config.IndexerConfig
	logger       *zap.Logger
	observer     IndexerObserver
	metrics      *IndexerMetrics
	tokens       []trackedToken
	stopCh       chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
}

type trackedToken struct {
	address  string
	standard string
}

// IndexerMetrics tracks indexer performance
type IndexerMetrics struct {
	mu                sync.RWMutex
	BlocksIndexed     int64
	TransfersIndexed  int64
	LastIndexedBlock  int64
	LastIndexedTime   time.Time
	IndexingLatencyMs int64
	ErrorCount        int64
}

// NewIndexerService creates a new indexer service. observer may be nil.
func NewIndexerService(
	fetcher TransferFetcher,
	metadata MetadataSource,
	tokenRepo repositories.TokenRepository,
	transferRepo repositories.TransferRepository,
	stateRepo repositories.IndexerStateRepository,
	cfg config.IndexerConfig,
	observer IndexerObserver,
	logger *zap.Logger,
) *IndexerService {
	return &IndexerService{
		fetcher:      fetcher,
		metadata:     metadata,
		tokenRepo:    tokenRepo,
		transferRepo: transferRepo,
		stateRepo:    stateRepo,
		config:       cfg,
		logger:       logger,
		observer:     observer,
		metrics:      &IndexerMetrics{},
		tokens:       configuredTokens(cfg),
		stopCh:       make(chan struct{}),
	}
}

// configuredTokens merges the ERC-20 and ERC-721 lists; the first listing of an address wins
func configuredTokens(cfg config.IndexerConfig) []trackedToken {
	seen := make(map[string]bool)
	var tokens []trackedToken

	add := func(addresses []string, standard string) {
		for _, addr := range addresses {
			addr = strings.ToLower(strings.TrimSpace(addr))
			if addr == "" || seen[addr] {
				continue
			}
			seen[addr] = true
			tokens = append(tokens, trackedToken{address: addr, standard: standard})
		}
	}
	add(cfg.TokenAddresses, entities.StandardERC20)
	add(cfg.NFTAddresses, entities.StandardERC721)

	return tokens
}

// Start begins the indexing process
func (s *IndexerService) Start(ctx context.Context) error {
	s.logger.Info("Starting indexer service",
		zap.Strings("tokens", s.config.TokenAddresses),
		zap.Strings("nfts", s.config.NFTAddresses),
	)

	if err := s.initializeTokens(ctx); err != nil {
		return fmt.Errorf("failed to initialize tokens: %w", err)
	}

	s.wg.Add(1)
	go s.runIndexingLoop(ctx)

	return nil
}

// Stop gracefully stops the indexer
func (s *IndexerService) Stop() {
	s.logger.Info("Stopping indexer service")
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
}

// GetMetrics returns current indexer metrics
func (s *IndexerService) GetMetrics() IndexerMetrics {
	s.metrics.mu.RLock()
	defer s.metrics.mu.RUnlock()
	return IndexerMetrics{
		BlocksIndexed:     s.metrics.BlocksIndexed,
		TransfersIndexed:  s.metrics.TransfersIndexed,
		LastIndexedBlock:  s.metrics.LastIndexedBlock,
		LastIndexedTime:   s.metrics.LastIndexedTime,
		IndexingLatencyMs: s.metrics.IndexingLatencyMs,
		ErrorCount:        s.metrics.ErrorCount,
	}
}

// initializeTokens ensures all configured tokens exist in the database,
// reading metadata from the chain the first time a token is seen
func (s *IndexerService) initializeTokens(ctx context.Context) error {
	for _, t := range s.tokens {
		existing, err := s.tokenRepo.GetByAddress(ctx, t.address)
		if err != nil {
			return fmt.Errorf("failed to check token %s: %w", t.address, err)
		}
		if existing != nil {
			continue
		}

		token := &entities.Token{
			Address:  t.address,
			Name:     "Unknown",
			Symbol:   "UNK",
			Decimals: 18,
			Standard: t.standard,
		}
		if t.standard == entities.StandardERC721 {
			token.Decimals = 0
		}

		if s.metadata != nil {
			md, err := s.metadata.FetchMetadata(ctx, t.address, t.standard)
			if err != nil {
				s.logger.Warn("Failed to fetch token metadata, using placeholders",
					zap.String("token", t.address),
					zap.Error(err),
				)
			} else {
				token.Name = md.Name
				token.Symbol = md.Symbol
				token.Decimals = int(md.Decimals)
			}
		}

		if err := s.tokenRepo.Upsert(ctx, token); err != nil {
			return fmt.Errorf("failed to create token %s: %w", t.address, err)
		}

		state := &entities.IndexerState{
			TokenAddress:     t.address,
			LastIndexedBlock: 0,
		}
		if err := s.stateRepo.Upsert(ctx, state); err != nil {
			return fmt.Errorf("failed to create indexer state for %s: %w", t.address, err)
		}

		s.logger.Info("Initialized token",
			zap.String("address", t.address),
			zap.String("standard", t.standard),
			zap.String("symbol", token.Symbol),
		)
	}

	return nil
}

// runIndexingLoop continuously indexes new blocks
func (s *IndexerService) runIndexingLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	// Run immediately on start
	s.IndexNewBlocks(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.IndexNewBlocks(ctx)
		}
	}
}

// IndexNewBlocks indexes any new blocks since the last checkpoint of every token
func (s *IndexerService) IndexNewBlocks(ctx context.Context) {
	startTime := time.Now()

	// Get safe block number (latest - confirmations)
	safeBlock, err := s.fetcher.GetSafeBlockNumber(ctx)
	if err != nil {
		s.logger.Error("Failed to get safe block number", zap.Error(err))
		s.incrementErrorCount()
		return
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.config.WorkerCount, 1))

	for _, t := range s.tokens {
		g.Go(func() error {
			return s.indexTokenTransfers(gCtx, t.address, safeBlock)
		})
	}

	if err := g.Wait(); err != nil {
		s.logger.Error("Error indexing transfers", zap.Error(err))
		s.incrementErrorCount()
	}

	s.reportLag(ctx, safeBlock)

	latency := time.Since(startTime)
	s.metrics.mu.Lock()
	s.metrics.IndexingLatencyMs = latency.Milliseconds()
	s.metrics.LastIndexedTime = time.Now()
	s.metrics.mu.Unlock()

	if s.observer != nil {
		s.observer.ObserveLatency(latency)
	}
}

// indexTokenTransfers indexes transfers for a single token
func (s *IndexerService) indexTokenTransfers(ctx context.Context, tokenAddress string, toBlock int64) error {
	state, err := s.stateRepo.Get(ctx, tokenAddress)
	if err != nil {
		return fmt.Errorf("failed to get indexer state: %w", err)
	}

	if state == nil {
		return fmt.Errorf("indexer state not found for %s", tokenAddress)
	}

	if state.IsBackfilling {
		s.logger.Debug("Token is backfilling, skipping", zap.String("token", tokenAddress))
		return nil
	}

	fromBlock := state.NextBlock()
	if fromBlock > toBlock {
		// Already up to date
		return nil
	}

	ranges := ethereum.SplitBlockRange(fromBlock, toBlock, s.config.BatchSize)

	for _, r := range ranges {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		result, err := s.fetcher.FetchTransfers(ctx, []string{tokenAddress}, r.From, r.To)
		if err != nil {
			return fmt.Errorf("failed to fetch transfers for blocks %d-%d: %w", r.From, r.To, err)
		}

		if len(result.Transfers) > 0 {
			if err := s.transferRepo.BatchInsert(ctx, result.Transfers); err != nil {
				return fmt.Errorf("failed to insert transfers: %w", err)
			}

			if err := s.tokenRepo.UpdateStats(ctx, tokenAddress, int64(len(result.Transfers)), r.To); err != nil {
				s.logger.Warn("Failed to update token stats", zap.Error(err))
			}
		}

		if err := s.stateRepo.UpdateLastBlock(ctx, tokenAddress, r.To); err != nil {
			return fmt.Errorf("failed to update checkpoint: %w", err)
		}

		s.updateMetrics(r.To-r.From+1, int64(len(result.Transfers)), r.To)

		s.logger.Debug("Indexed block range",
			zap.String("token", tokenAddress),
			zap.Int64("from", r.From),
			zap.Int64("to", r.To),
			zap.Int("transfers", len(result.Transfers)),
			zap.Int("nft_transfers", result.NFTCount),
		)
	}

	return nil
}

// Backfill indexes historical blocks for a token
func (s *IndexerService) Backfill(ctx context.Context, tokenAddress string, fromBlock, toBlock int64) error {
	tokenAddress = strings.ToLower(tokenAddress)

	if fromBlock > toBlock {
		return fmt.Errorf("invalid backfill range %d-%d", fromBlock, toBlock)
	}

	s.logger.Info("Starting backfill",
		zap.String("token", tokenAddress),
		zap.Int64("from_block", fromBlock),
		zap.Int64("to_block", toBlock),
	)

	if err := s.stateRepo.SetBackfilling(ctx, tokenAddress, true, &fromBlock, &toBlock); err != nil {
		return fmt.Errorf("failed to set backfilling state: %w", err)
	}

	defer func() {
		if err := s.stateRepo.SetBackfilling(context.WithoutCancel(ctx), tokenAddress, false, nil, nil); err != nil {
			s.logger.Warn("Failed to clear backfilling state", zap.String("token", tokenAddress), zap.Error(err))
		}
	}()

	ranges := ethereum.SplitBlockRange(fromBlock, toBlock, s.config.BackfillBatchSize)

	for i, r := range ranges {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		result, err := s.fetcher.FetchTransfers(ctx, []string{tokenAddress}, r.From, r.To)
		if err != nil {
			s.incrementErrorCount()
			return fmt.Errorf("backfill failed at blocks %d-%d: %w", r.From, r.To, err)
		}

		if len(result.Transfers) > 0 {
			if err := s.transferRepo.BatchInsert(ctx, result.Transfers); err != nil {
				return fmt.Errorf("failed to insert backfill transfers: %w", err)
			}
		}

		s.logger.Info("Backfill progress",
			zap.String("token", tokenAddress),
			zap.Int("batch", i+1),
			zap.Int("total_batches", len(ranges)),
			zap.Int64("from", r.From),
			zap.Int64("to", r.To),
			zap.Int("transfers", len(result.Transfers)),
		)
	}

	s.logger.Info("Backfill completed",
		zap.String("token", tokenAddress),
		zap.Int64("from_block", fromBlock),
		zap.Int64("to_block", toBlock),
	)

	return nil
}

// reportLag publishes how far each token's derived balances trail the safe
// block, including tokens that failed or are backfilling this round
func (s *IndexerService) reportLag(ctx context.Context, safeBlock int64) {
	if s.observer == nil {
		return
	}

	states, err := s.stateRepo.List(ctx)
	if err != nil {
		s.logger.Warn("Failed to list sync cursors", zap.Error(err))
		return
	}

	for i := range states {
		s.observer.ObserveLag(states[i].TokenAddress, states[i].Lag(safeBlock))
	}
}

func (s *IndexerService) updateMetrics(blocks, transfers, lastBlock int64) {
	s.metrics.mu.Lock()
	s.metrics.BlocksIndexed += blocks
	s.metrics.TransfersIndexed += transfers
	if lastBlock > s.metrics.LastIndexedBlock {
		s.metrics.LastIndexedBlock = lastBlock
	}
	s.metrics.mu.Unlock()

	if s.observer != nil {
		s.observer.ObserveBatch(blocks, transfers, lastBlock)
	}
}

func (s *IndexerService) incrementErrorCount() {
	s.metrics.mu.Lock()
	s.metrics.ErrorCount++
	s.metrics.mu.Unlock()

	if s.observer != nil {
		s.observer.ObserveError()
	}
}
