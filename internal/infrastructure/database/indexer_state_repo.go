package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/bimakw/token-explorer/internal/domain/entities"
	"github.com/bimakw/token-explorer/internal/domain/repositories"
)

// Ensure IndexerStateRepo implements IndexerStateRepository
var _ repositories.IndexerStateRepository = (*IndexerStateRepo)(nil)

const indexerStateTable = "indexer_state"

var indexerStateColumns = []string{
	"token_address", "last_indexed_block",
	"is_backfilling", "backfill_from_block", "backfill_to_block",
	"updated_at",
}

// IndexerStateRepo keeps the per-token sync cursors in PostgreSQL
type IndexerStateRepo struct {
	db *sqlx.DB
}

// NewIndexerStateRepo creates a new indexer state repository
func NewIndexerStateRepo(db *sqlx.DB) *IndexerStateRepo {
	return &IndexerStateRepo{db: db}
}

// Get retrieves the cursor of a token
func (r *IndexerStateRepo) Get(ctx context.Context, tokenAddress string) (*entities.IndexerState, error) {
	query, args, err := psql.Select(indexerStateColumns...).
		From(indexerStateTable).
		Where(sq.Eq{"token_address": tokenAddress}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build cursor query: %w", err)
	}

	var state entities.IndexerState
	if err := r.db.GetContext(ctx, &state, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get indexer state: %w", err)
	}

	return &state, nil
}

// List retrieves every cursor
func (r *IndexerStateRepo) List(ctx context.Context) ([]entities.IndexerState, error) {
	query, args, err := psql.Select(indexerStateColumns...).
		From(indexerStateTable).
		OrderBy("token_address").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build cursor list query: %w", err)
	}

	var states []entities.IndexerState
	if err := r.db.SelectContext(ctx, &states, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list indexer state: %w", err)
	}

	return states, nil
}

// Upsert creates or updates a cursor
func (r *IndexerStateRepo) Upsert(ctx context.Context, state *entities.IndexerState) error {
	query, args, err := upsertCursorQuery(state)
	if err != nil {
		return fmt.Errorf("failed to build cursor upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to upsert indexer state: %w", err)
	}

	return nil
}

// UpdateLastBlock moves the cursor forward in one statement, so a live round
// and a backfill finishing out of order cannot rewind it
func (r *IndexerStateRepo) UpdateLastBlock(ctx context.Context, tokenAddress string, blockNumber int64) error {
	query, args, err := advanceCursorQuery(tokenAddress, blockNumber)
	if err != nil {
		return fmt.Errorf("failed to build cursor update: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update last block: %w", err)
	}

	return nil
}

// SetBackfilling sets the backfill window of a token
func (r *IndexerStateRepo) SetBackfilling(ctx context.Context, tokenAddress string, isBackfilling bool, fromBlock, toBlock *int64) error {
	query, args, err := psql.Update(indexerStateTable).
		Set("is_backfilling", isBackfilling).
		Set("backfill_from_block", fromBlock).
		Set("backfill_to_block", toBlock).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"token_address": tokenAddress}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build backfill update: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to set backfilling: %w", err)
	}

	return nil
}

const keepHighestBlock = `last_indexed_block = GREATEST(` + indexerStateTable + `.last_indexed_block, EXCLUDED.last_indexed_block)`

func upsertCursorQuery(state *entities.IndexerState) (string, []interface{}, error) {
	return psql.Insert(indexerStateTable).
		Columns("token_address", "last_indexed_block", "is_backfilling", "backfill_from_block", "backfill_to_block").
		Values(state.TokenAddress, state.LastIndexedBlock, state.IsBackfilling, state.BackfillFromBlock, state.BackfillToBlock).
		Suffix(`ON CONFLICT (token_address) DO UPDATE SET
			` + keepHighestBlock + `,
			is_backfilling = EXCLUDED.is_backfilling,
			backfill_from_block = EXCLUDED.backfill_from_block,
			backfill_to_block = EXCLUDED.backfill_to_block,
			updated_at = NOW()`).
		ToSql()
}

func advanceCursorQuery(tokenAddress string, blockNumber int64) (string, []interface{}, error) {
	return psql.Insert(indexerStateTable).
		Columns("token_address", "last_indexed_block").
		Values(tokenAddress, blockNumber).
		Suffix(`ON CONFLICT (token_address) DO UPDATE SET
			` + keepHighestBlock + `,
			updated_at = NOW()`).
		ToSql()
}
