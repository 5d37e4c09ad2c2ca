package valuation

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PriceQuote is one market snapshot for a contract. Either field may be absent.
type PriceQuote struct {
	CurrentPrice     decimal.NullDecimal
	PercentChange24h decimal.NullDecimal
}

// PriceLookup maps contract addresses to quotes. The zero value is the
// "unavailable" lookup: no price data exists at all for the call.
type PriceLookup struct {
	quotes    map[string]PriceQuote
	available bool
}

// NewPriceLookup builds an available lookup. Addresses are matched
// case-insensitively.
func NewPriceLookup(quotes map[string]PriceQuote) PriceLookup {
	normalized := make(map[string]PriceQuote, len(quotes))
	for addr, q := range quotes {
		normalized[strings.ToLower(addr)] = q
	}
	return PriceLookup{quotes: normalized, available: true}
}

// Unavailable returns the sentinel lookup used when the price feed could not be read
func Unavailable() PriceLookup {
	return PriceLookup{}
}

// Available reports whether the lookup carries price data
func (p PriceLookup) Available() bool {
	return p.available
}

// Len returns the number of quotes in the lookup
func (p PriceLookup) Len() int {
	return len(p.quotes)
}

// Quote returns the quote for a contract, or false when there is none
func (p PriceLookup) Quote(contractAddress string) (PriceQuote, bool) {
	if !p.available {
		return PriceQuote{}, false
	}
	q, ok := p.quotes[strings.ToLower(contractAddress)]
	return q, ok
}
