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

// Ensure TokenRepo implements TokenRepository
var _ repositories.TokenRepository = (*TokenRepo)(nil)

// tokenSortColumns whitelists the columns tokens can be sorted by
var tokenSortColumns = map[string]string{
	"total_indexed_transfers": "total_indexed_transfers",
	"symbol":                  "symbol",
	"name":                    "name",
	"created_at":              "created_at",
	"last_seen_block":         "last_seen_block",
}

// TokenRepo implements TokenRepository using PostgreSQL
type TokenRepo struct {
	db *sqlx.DB
}

// NewTokenRepo creates a new token repository
func NewTokenRepo(db *sqlx.DB) *TokenRepo {
	return &TokenRepo{db: db}
}

// GetByAddress retrieves a token by its address
func (r *TokenRepo) GetByAddress(ctx context.Context, address string) (*entities.Token, error) {
	var token entities.Token
	query := `SELECT * FROM tokens WHERE address = $1`

	if err := r.db.GetContext(ctx, &token, query, address); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	return &token, nil
}

// GetByStandard retrieves all tokens of one standard
func (r *TokenRepo) GetByStandard(ctx context.Context, standard string) ([]entities.Token, error) {
	var tokens []entities.Token
	query := `SELECT * FROM tokens WHERE standard = $1 ORDER BY symbol`

	if err := r.db.SelectContext(ctx, &tokens, query, standard); err != nil {
		return nil, fmt.Errorf("failed to get tokens: %w", err)
	}

	return tokens, nil
}

// GetAllPaginated retrieves tokens matching the filter together with the total count
func (r *TokenRepo) GetAllPaginated(ctx context.Context, filter entities.TokenFilter) ([]entities.Token, int64, error) {
	where := sq.And{}
	if filter.Standard != "" {
		where = append(where, sq.Eq{"standard": filter.Standard})
	}

	countSQL, countArgs, err := psql.Select("COUNT(*)").From("tokens").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, countSQL, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("failed to count tokens: %w", err)
	}

	column, ok := tokenSortColumns[filter.SortBy]
	if !ok {
		column = "total_indexed_transfers"
	}

	query := psql.Select("*").From("tokens").Where(where).
		OrderBy(fmt.Sprintf("%s %s NULLS LAST", column, sortOrder(filter.SortOrder)), "address").
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset))

	querySQL, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build token query: %w", err)
	}

	var tokens []entities.Token
	if err := r.db.SelectContext(ctx, &tokens, querySQL, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to get tokens: %w", err)
	}

	return tokens, total, nil
}

// Upsert creates or updates a token
func (r *TokenRepo) Upsert(ctx context.Context, token *entities.Token) error {
	query := `
		INSERT INTO tokens (address, name, symbol, decimals, standard, first_seen_block)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (address) DO UPDATE SET
			name = EXCLUDED.name,
			symbol = EXCLUDED.symbol,
			decimals = EXCLUDED.decimals,
			standard = EXCLUDED.standard,
			updated_at = NOW()
	`

	_, err := r.db.ExecContext(ctx, query,
		token.Address,
		token.Name,
		token.Symbol,
		token.Decimals,
		token.Standard,
		token.FirstSeenBlock,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert token: %w", err)
	}

	return nil
}

// UpdateStats updates token statistics
func (r *TokenRepo) UpdateStats(ctx context.Context, address string, transferCount int64, lastBlock int64) error {
	query := `
		UPDATE tokens SET
			total_indexed_transfers = total_indexed_transfers + $2,
			last_seen_block = GREATEST(COALESCE(last_seen_block, 0), $3),
			first_seen_block = COALESCE(first_seen_block, $3),
			updated_at = NOW()
		WHERE address = $1
	`

	_, err := r.db.ExecContext(ctx, query, address, transferCount, lastBlock)
	if err != nil {
		return fmt.Errorf("failed to update token stats: %w", err)
	}

	return nil
}
