package ethereum

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/bimakw/token-explorer/internal/config"
)

// Client wraps the Ethereum client with retry logic and utilities
type Client struct {
	client  *ethclient.Client
	config  config.EthereumConfig
	logger  *zap.Logger
	chainID *big.Int
}

// NewClient creates a new Ethereum client
func NewClient(cfg config.EthereumConfig, logger *zap.Logger) (*Client, error) {
	client, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Ethereum node: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}

	if chainID.Int64() != cfg.ChainID {
		return nil, fmt.Errorf("chain ID mismatch: expected %d, got %d", cfg.ChainID, chainID.Int64())
	}

	logger.Info("Connected to Ethereum node",
		zap.String("rpc_url", cfg.RPCURL),
		zap.Int64("chain_id", chainID.Int64()),
	)

	return &Client{
		client:  client,
		config:  cfg,
		logger:  logger,
		chainID: chainID,
	}, nil
}

// Close closes the Ethereum client connection
func (c *Client) Close() {
	c.client.Close()
}

// retry runs fn until it succeeds, the retries are exhausted or ctx is done
func (c *Client) retry(ctx context.Context, op string, fn func(ctx context.Context) error, fields ...zap.Field) error {
	var err error
	for i := 0; i <= c.config.MaxRetries; i++ {
		callCtx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
		err = fn(callCtx)
		cancel()
		if err == nil {
			return nil
		}

		c.logger.Warn("Failed to "+op+", retrying",
			append(fields, zap.Int("attempt", i+1), zap.Error(err))...,
		)

		if i < c.config.MaxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.config.RetryDelay):
			}
		}
	}

	return fmt.Errorf("failed to %s after %d retries: %w", op, c.config.MaxRetries, err)
}

// GetLatestBlockNumber returns the latest block number
func (c *Client) GetLatestBlockNumber(ctx context.Context) (uint64, error) {
	var blockNumber uint64
	err := c.retry(ctx, "get latest block number", func(ctx context.Context) error {
		var err error
		blockNumber, err = c.client.BlockNumber(ctx)
		return err
	})
	return blockNumber, err
}

// GetHeaderByNumber returns a block header by its number
func (c *Client) GetHeaderByNumber(ctx context.Context, blockNumber *big.Int) (*types.Header, error) {
	var header *types.Header
	err := c.retry(ctx, "get block header", func(ctx context.Context) error {
		var err error
		header, err = c.client.HeaderByNumber(ctx, blockNumber)
		return err
	}, zap.String("block_number", blockNumber.String()))
	return header, err
}

// GetLogs retrieves logs matching the filter query
func (c *Client) GetLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	var logs []types.Log
	err := c.retry(ctx, "get logs", func(ctx context.Context) error {
		var err error
		logs, err = c.client.FilterLogs(ctx, query)
		return err
	})
	return logs, err
}

// CallContract executes a read-only eth_call against the latest block
func (c *Client) CallContract(ctx context.Context, contract common.Address, data []byte) ([]byte, error) {
	msg := ethereum.CallMsg{
		To:   &contract,
		Data: data,
	}

	var result []byte
	err := c.retry(ctx, "call contract", func(ctx context.Context) error {
		var err error
		result, err = c.client.CallContract(ctx, msg, nil)
		return err
	}, zap.String("contract", contract.Hex()))
	return result, err
}

// GetBlockTimestamp returns the timestamp of a block
func (c *Client) GetBlockTimestamp(ctx context.Context, blockNumber uint64) (time.Time, error) {
	header, err := c.GetHeaderByNumber(ctx, new(big.Int).SetUint64(blockNumber))
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(int64(header.Time), 0).UTC(), nil
}

// BuildFilterQuery builds a filter query for Transfer events.
// ERC-20 and ERC-721 share the event signature, so one query covers both.
func BuildFilterQuery(fromBlock, toBlock *big.Int, addresses []common.Address) ethereum.FilterQuery {
	return ethereum.FilterQuery{
		FromBlock: fromBlock,
		ToBlock:   toBlock,
		Addresses: addresses,
		Topics: [][]common.Hash{
			{TransferEventSignature},
		},
	}
}

// ChainID returns the chain ID
func (c *Client) ChainID() *big.Int {
	return c.chainID
}
