package repositories

import (
	"context"

	"github.com/bimakw/token-explorer/internal/domain/entities"
)

// TransferRepository defines the interface for transfer data operations
type TransferRepository interface {
	// BatchInsert inserts multiple transfers in a single transaction
	BatchInsert(ctx context.Context, transfers []entities.Transfer) error

	// GetLatestBlock returns the latest indexed block for a token
	GetLatestBlock(ctx context.Context, tokenAddress string) (int64, error)

	// GetTopHolders returns the holders of a token with the largest balances
	GetTopHolders(ctx context.Context, tokenAddress string, limit, offset int) ([]entities.HolderBalance, error)

	// GetHolderBalance returns the balance and rank of one holder
	GetHolderBalance(ctx context.Context, tokenAddress, holderAddress string) (*entities.HolderBalance, error)
}
