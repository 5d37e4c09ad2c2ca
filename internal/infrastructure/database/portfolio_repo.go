package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/bimakw/token-explorer/internal/domain/entities"
	"github.com/bimakw/token-explorer/internal/domain/repositories"
)

// Ensure PortfolioRepo implements PortfolioRepository
var _ repositories.PortfolioRepository = (*PortfolioRepo)(nil)

// PortfolioRepo implements PortfolioRepository using PostgreSQL
type PortfolioRepo struct {
	db *sqlx.DB
}

// NewPortfolioRepo creates a new portfolio repository
func NewPortfolioRepo(db *sqlx.DB) *PortfolioRepo {
	return &PortfolioRepo{db: db}
}

// GetWalletHoldings retrieves all positive holdings of one token standard for a wallet
func (r *PortfolioRepo) GetWalletHoldings(ctx context.Context, walletAddress, standard string) ([]entities.TokenHolding, error) {
	// ERC-721 transfers are stored with value 1, so the sum is the number of owned token ids
	query := `
		WITH balances AS (
			SELECT
				token_address,
				SUM(CASE WHEN to_address = $1 THEN value ELSE 0 END) -
				SUM(CASE WHEN from_address = $1 THEN value ELSE 0 END) as balance
			FROM transfers
			WHERE from_address = $1 OR to_address = $1
			GROUP BY token_address
			HAVING SUM(CASE WHEN to_address = $1 THEN value ELSE 0 END) -
				   SUM(CASE WHEN from_address = $1 THEN value ELSE 0 END) > 0
		)
		SELECT
			b.token_address,
			t.name,
			t.symbol,
			t.standard,
			CASE WHEN t.standard = 'erc721' THEN NULL ELSE t.decimals END as decimals,
			b.balance::text as balance
		FROM balances b
		JOIN tokens t ON t.address = b.token_address
		WHERE t.standard = $2
		ORDER BY b.token_address
	`

	var holdings []entities.TokenHolding
	if err := r.db.SelectContext(ctx, &holdings, query, walletAddress, standard); err != nil {
		return nil, fmt.Errorf("failed to get wallet holdings: %w", err)
	}

	return holdings, nil
}

// GetWalletHoldingByToken retrieves the holding of a specific token, nil if the token is unknown.
// A negative derived balance (mint source, gaps in indexed history) reads as zero.
func (r *PortfolioRepo) GetWalletHoldingByToken(ctx context.Context, walletAddress, tokenAddress string) (*entities.TokenHolding, error) {
	query := `
		SELECT
			t.address as token_address,
			t.name,
			t.symbol,
			t.standard,
			CASE WHEN t.standard = 'erc721' THEN NULL ELSE t.decimals END as decimals,
			GREATEST(
				COALESCE(
					SUM(CASE WHEN tr.to_address = $1 THEN tr.value ELSE 0 END) -
					SUM(CASE WHEN tr.from_address = $1 THEN tr.value ELSE 0 END),
					0
				),
				0
			)::text as balance
		FROM tokens t
		LEFT JOIN transfers tr ON tr.token_address = t.address
			AND (tr.from_address = $1 OR tr.to_address = $1)
		WHERE t.address = $2
		GROUP BY t.address, t.name, t.symbol, t.standard, t.decimals
	`

	var holding entities.TokenHolding
	if err := r.db.GetContext(ctx, &holding, query, walletAddress, tokenAddress); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get wallet holding by token: %w", err)
	}

	return &holding, nil
}
