package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/bimakw/token-explorer/internal/domain/entities"
	"github.com/bimakw/token-explorer/internal/domain/repositories"
)

// Ensure TransferRepo implements TransferRepository
var _ repositories.TransferRepository = (*TransferRepo)(nil)

// TransferRepo implements TransferRepository using PostgreSQL
type TransferRepo struct {
	db *sqlx.DB
}

// NewTransferRepo creates a new transfer repository
func NewTransferRepo(db *sqlx.DB) *TransferRepo {
	return &TransferRepo{db: db}
}

// BatchInsert inserts multiple transfers in a single transaction
func (r *TransferRepo) BatchInsert(ctx context.Context, transfers []entities.Transfer) error {
	if len(transfers) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO transfers (tx_hash, log_index, block_number, block_timestamp,
							   token_address, from_address, to_address, value, token_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (tx_hash, log_index, block_timestamp) DO NOTHING
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, t := range transfers {
		_, err := stmt.ExecContext(ctx,
			t.TxHash,
			t.LogIndex,
			t.BlockNumber,
			t.BlockTimestamp,
			t.TokenAddress,
			t.FromAddress,
			t.ToAddress,
			t.ValueString,
			t.TokenID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert transfer %s/%d: %w", t.TxHash, t.LogIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetLatestBlock returns the latest indexed block for a token
func (r *TransferRepo) GetLatestBlock(ctx context.Context, tokenAddress string) (int64, error) {
	query := `SELECT COALESCE(MAX(block_number), 0) FROM transfers WHERE token_address = $1`

	var blockNumber int64
	if err := r.db.GetContext(ctx, &blockNumber, query, tokenAddress); err != nil {
		return 0, fmt.Errorf("failed to get latest block: %w", err)
	}

	return blockNumber, nil
}

// balancesCTE computes the positive balance of every holder of token $1.
// ERC-721 transfers carry value 1, so the same sum counts owned token ids.
const balancesCTE = `
	WITH balances AS (
		SELECT
			address,
			SUM(amount) as balance
		FROM (
			SELECT to_address as address, value as amount
			FROM transfers
			WHERE token_address = $1

			UNION ALL

			SELECT from_address as address, -value as amount
			FROM transfers
			WHERE token_address = $1
		) t
		GROUP BY address
		HAVING SUM(amount) > 0
	)
`

// GetTopHolders returns the holders of a token with the largest balances
func (r *TransferRepo) GetTopHolders(ctx context.Context, tokenAddress string, limit, offset int) ([]entities.HolderBalance, error) {
	query := balancesCTE + `
		SELECT
			address,
			balance::TEXT as balance,
			ROW_NUMBER() OVER (ORDER BY balance DESC, address)::INTEGER as rank
		FROM balances
		ORDER BY balance DESC, address
		LIMIT $2 OFFSET $3
	`

	var holders []entities.HolderBalance
	if err := r.db.SelectContext(ctx, &holders, query, tokenAddress, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to get top holders: %w", err)
	}

	return holders, nil
}

// GetHolderBalance returns the balance and rank of one holder
func (r *TransferRepo) GetHolderBalance(ctx context.Context, tokenAddress, holderAddress string) (*entities.HolderBalance, error) {
	query := balancesCTE + `,
	holder AS (
		SELECT COALESCE((SELECT balance FROM balances WHERE address = $2), 0) as balance
	)
	SELECT
		$2::TEXT as address,
		h.balance::TEXT as balance,
		(SELECT COUNT(*) + 1 FROM balances b WHERE b.balance > h.balance)::INTEGER as rank
	FROM holder h
	`

	var holder entities.HolderBalance
	if err := r.db.GetContext(ctx, &holder, query, tokenAddress, holderAddress); err != nil {
		return nil, fmt.Errorf("failed to get holder balance: %w", err)
	}

	return &holder, nil
}
