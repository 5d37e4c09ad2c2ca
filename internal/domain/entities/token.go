package entities

import (
	"time"
)

// Token represents an ERC-20 or ERC-721 contract being indexed
type Token struct {
	Address               string    `db:"address"`
	Name                  string    `db:"name"`
	Symbol                string    `db:"symbol"`
	Decimals              int       `db:"decimals"`
	Standard              string    `db:"standard"`
	TotalIndexedTransfers int64     `db:"total_indexed_transfers"`
	FirstSeenBlock        *int64    `db:"first_seen_block"`
	LastSeenBlock         *int64    `db:"last_seen_block"`
	CreatedAt             time.Time `db:"created_at"`
	UpdatedAt             time.Time `db:"updated_at"`
}

// IsFungible reports whether balances of this token carry a decimals exponent
func (t *Token) IsFungible() bool {
	return t.Standard != StandardERC721
}

// TokenFilter for listing tokens
type TokenFilter struct {
	Standard  string // empty matches every standard
	SortBy    string
	SortOrder string
	Limit     int
	Offset    int
}
