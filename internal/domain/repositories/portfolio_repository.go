package repositories

import (
	"context"

	"github.com/bimakw/token-explorer/internal/domain/entities"
)

// PortfolioRepository defines interface for wallet holdings derived from transfers
type PortfolioRepository interface {
	// GetWalletHoldings retrieves all positive holdings of one token standard for a wallet.
	// ERC-20 balances are SUM(received) - SUM(sent); ERC-721 balances count owned token ids.
	GetWalletHoldings(ctx context.Context, walletAddress, standard string) ([]entities.TokenHolding, error)

	// GetWalletHoldingByToken retrieves the holding of a specific token, nil if the token is unknown
	GetWalletHoldingByToken(ctx context.Context, walletAddress, tokenAddress string) (*entities.TokenHolding, error)
}
