package repositories

import (
	"context"

	"github.com/bimakw/token-explorer/internal/domain/entities"
)

// IndexerStateRepository stores the per-token sync cursors
type IndexerStateRepository interface {
	// Get returns nil when the token has no cursor yet
	Get(ctx context.Context, tokenAddress string) (*entities.IndexerState, error)

	// List returns every cursor ordered by token address
	List(ctx context.Context) ([]entities.IndexerState, error)

	// Upsert creates the cursor or overwrites its backfill window. The
	// indexed block never moves backward.
	Upsert(ctx context.Context, state *entities.IndexerState) error

	// UpdateLastBlock advances the cursor, creating it when missing
	UpdateLastBlock(ctx context.Context, tokenAddress string, blockNumber int64) error

	// SetBackfilling marks a historical range as in flight, or clears it
	SetBackfilling(ctx context.Context, tokenAddress string, isBackfilling bool, fromBlock, toBlock *int64) error
}
