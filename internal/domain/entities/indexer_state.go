package entities

import (
	"time"
)

// IndexerState is the sync cursor of one tracked token. Wallet balances are
// derived from indexed transfers, so they are complete only through
// LastIndexedBlock.
type IndexerState struct {
	TokenAddress      string    `db:"token_address"`
	LastIndexedBlock  int64     `db:"last_indexed_block"`
	IsBackfilling     bool      `db:"is_backfilling"`
	BackfillFromBlock *int64    `db:"backfill_from_block"`
	BackfillToBlock   *int64    `db:"backfill_to_block"`
	UpdatedAt         time.Time `db:"updated_at"`
}

// NextBlock is the first block the live loop still has to fetch
func (s *IndexerState) NextBlock() int64 {
	return s.LastIndexedBlock + 1
}

// Lag returns how many confirmed blocks the token's derived balances trail
// head by. A cursor at or past head has no lag.
func (s *IndexerState) Lag(head int64) int64 {
	if head <= s.LastIndexedBlock {
		return 0
	}
	return head - s.LastIndexedBlock
}
