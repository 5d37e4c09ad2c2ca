package services

import (
	"context"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/bimakw/token-explorer/internal/domain/entities"
	"github.com/bimakw/token-explorer/internal/domain/valuation"
)

// PriceLookupProvider builds price lookups for a set of contracts
type PriceLookupProvider interface {
	PriceLookup(ctx context.Context, addresses []string) valuation.PriceLookup
}

// valueHoldings runs one homogeneous batch through the valuation engine and records metrics
func valueHoldings(kind valuation.HoldingKind, prices valuation.PriceLookup, holdings []entities.TokenHolding) ([]valuation.AnnotatedHolding, int, error) {
	annotated, err := valuation.NewEngine(kind, prices).Annotate(holdings)
	if err != nil {
		return nil, 0, err
	}

	priced := 0
	if kind == valuation.Fungible {
		for _, h := range holdings {
			if q, ok := prices.Quote(h.ContractAddress); ok && q.CurrentPrice.Valid {
				priced++
			}
		}
		unpricedHoldings.WithLabelValues(kind.String()).Add(float64(len(holdings) - priced))
	}
	holdingsAnnotated.WithLabelValues(kind.String()).Add(float64(len(annotated)))

	return annotated, priced, nil
}

// formatMoney renders an amount in the given ISO currency, e.g. "$1,234.56".
// Unknown currencies and amounts whose minor units overflow int64 fall back
// to the plain decimal.
func formatMoney(amount decimal.Decimal, currency string) string {
	code := strings.ToUpper(currency)
	cur := money.GetCurrency(code)
	if cur == nil {
		return amount.StringFixed(2) + " " + code
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	if !minor.BigInt().IsInt64() {
		return amount.StringFixed(2) + " " + code
	}
	return money.New(minor.IntPart(), code).Display()
}
