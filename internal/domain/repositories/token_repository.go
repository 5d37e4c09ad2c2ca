package repositories

import (
	"context"

	"github.com/bimakw/token-explorer/internal/domain/entities"
)

// TokenRepository defines the interface for token data operations
type TokenRepository interface {
	// GetByAddress retrieves a token by its address
	GetByAddress(ctx context.Context, address string) (*entities.Token, error)

	// GetByStandard retrieves all tokens of one standard
	GetByStandard(ctx context.Context, standard string) ([]entities.Token, error)

	// GetAllPaginated retrieves tokens matching the filter together with the total count
	GetAllPaginated(ctx context.Context, filter entities.TokenFilter) ([]entities.Token, int64, error)

	// Upsert creates or updates a token
	Upsert(ctx context.Context, token *entities.Token) error

	// UpdateStats updates token statistics
	UpdateStats(ctx context.Context, address string, transferCount int64, lastBlock int64) error
}
