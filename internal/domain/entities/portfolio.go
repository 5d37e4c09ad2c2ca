package entities

// Token standards understood by the indexer and the portfolio API
const (
	StandardERC20  = "erc20"
	StandardERC721 = "erc721"
)

// TokenHolding represents a single token position owned by a wallet
type TokenHolding struct {
	ContractAddress string `db:"token_address" json:"contract_address"`
	Name            string `db:"name" json:"name"`
	Symbol          string `db:"symbol" json:"symbol"`
	Standard        string `db:"standard" json:"standard"`
	RawBalance      string `db:"balance" json:"balance"` // smallest unit (wei) for ERC-20, token count for ERC-721
	Decimals        *int   `db:"decimals" json:"decimals,omitempty"`
}

// HolderBalance is a single holder's balance of one token
type HolderBalance struct {
	Address string `db:"address"`
	Balance string `db:"balance"`
	Rank    int    `db:"rank"`
}
