package valuation

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/bimakw/token-explorer/internal/domain/entities"
)

// AnnotatedHolding is a holding together with its derived valuation fields
type AnnotatedHolding struct {
	entities.TokenHolding
	DisplayName      string   `json:"display_name"`
	NormalizedAmount float64  `json:"normalized_amount"`
	FiatValue        float64  `json:"fiat_value"`
	PercentChange24h *float64 `json:"percent_change_24h"`

	// exact price × amount; FiatValue is its display rounding
	fiat decimal.Decimal
}

// Engine values one homogeneous batch of holdings against a price lookup.
// It keeps no state between calls and is safe for concurrent use.
type Engine struct {
	kind   HoldingKind
	prices PriceLookup
}

// NewEngine creates a valuation engine for a batch of the given kind
func NewEngine(kind HoldingKind, prices PriceLookup) *Engine {
	return &Engine{
		kind:   kind,
		prices: prices,
	}
}

// Kind returns the holding kind of the batch
func (e *Engine) Kind() HoldingKind {
	return e.kind
}

// Annotate derives display name, normalized amount, fiat value and 24h change
// for every holding, in input order. The input is not modified.
func (e *Engine) Annotate(holdings []entities.TokenHolding) ([]AnnotatedHolding, error) {
	annotated := make([]AnnotatedHolding, 0, len(holdings))

	for _, h := range holdings {
		quote, ok := e.prices.Quote(h.ContractAddress)

		amount, err := e.Balance(h)
		if err != nil {
			return nil, err
		}

		fiat, err := e.fiatDecimal(h, quote, ok)
		if err != nil {
			return nil, err
		}
		fiatFloat, _ := fiat.Float64()

		annotated = append(annotated, AnnotatedHolding{
			TokenHolding:     h,
			DisplayName:      strings.ToLower(h.Name),
			NormalizedAmount: amount,
			FiatValue:        fiatFloat,
			PercentChange24h: PercentChange(quote, ok),
			fiat:             fiat,
		})
	}

	return annotated, nil
}

// Value normalizes the raw balance to whole units. Fungible balances are
// shifted by their decimals exponent; non-fungible balances are returned as is.
func (e *Engine) Value(h entities.TokenHolding) (decimal.Decimal, error) {
	raw, err := parseRawBalance(h)
	if err != nil {
		return decimal.Zero, err
	}

	if e.kind == Fungible && h.Decimals != nil && *h.Decimals != 0 {
		return raw.Shift(-int32(*h.Decimals)), nil
	}
	return raw, nil
}

// Balance returns the normalized amount as a float for display
func (e *Engine) Balance(h entities.TokenHolding) (float64, error) {
	v, err := e.Value(h)
	if err != nil {
		return 0, err
	}
	f, _ := v.Float64()
	return f, nil
}

// FiatValue returns price × normalized amount. Non-fungible holdings and
// holdings without a price are worth zero.
func (e *Engine) FiatValue(h entities.TokenHolding, quote PriceQuote, ok bool) (float64, error) {
	d, err := e.fiatDecimal(h, quote, ok)
	if err != nil {
		return 0, err
	}
	f, _ := d.Float64()
	return f, nil
}

func (e *Engine) fiatDecimal(h entities.TokenHolding, quote PriceQuote, ok bool) (decimal.Decimal, error) {
	if e.kind == NonFungible {
		return decimal.Zero, nil
	}
	if !ok || !quote.CurrentPrice.Valid {
		return decimal.Zero, nil
	}

	v, err := e.Value(h)
	if err != nil {
		return decimal.Zero, err
	}
	return quote.CurrentPrice.Decimal.Mul(v), nil
}

// PercentChange returns the quote's 24h change, or nil when it is unknown
func PercentChange(quote PriceQuote, ok bool) *float64 {
	if !ok || !quote.PercentChange24h.Valid {
		return nil
	}
	f, _ := quote.PercentChange24h.Decimal.Float64()
	return &f
}

// TotalFiatValue sums the exact fiat values of holdings produced by Annotate
func TotalFiatValue(holdings []AnnotatedHolding) decimal.Decimal {
	total := decimal.Zero
	for _, h := range holdings {
		total = total.Add(h.fiat)
	}
	return total
}

func parseRawBalance(h entities.TokenHolding) (decimal.Decimal, error) {
	n, ok := new(big.Int).SetString(h.RawBalance, 10)
	if !ok || n.Sign() < 0 {
		return decimal.Zero, &BalanceParseError{
			ContractAddress: h.ContractAddress,
			RawBalance:      h.RawBalance,
		}
	}
	return decimal.NewFromBigInt(n, 0), nil
}
