package entities

import (
	"math/big"
	"time"
)

// Transfer represents an ERC-20 or ERC-721 Transfer event
type Transfer struct {
	ID             int64     `db:"id"`
	TxHash         string    `db:"tx_hash"`
	LogIndex       int       `db:"log_index"`
	BlockNumber    int64     `db:"block_number"`
	BlockTimestamp time.Time `db:"block_timestamp"`
	TokenAddress   string    `db:"token_address"`
	FromAddress    string    `db:"from_address"`
	ToAddress      string    `db:"to_address"`
	Value          *big.Int  `db:"-"` // Handled separately due to NUMERIC type
	ValueString    string    `db:"value"`
	TokenID        *string   `db:"token_id"` // ERC-721 only; Value is 1
	CreatedAt      time.Time `db:"created_at"`
}

// IsNFT reports whether the transfer moved a single non-fungible token
func (t *Transfer) IsNFT() bool {
	return t.TokenID != nil
}
