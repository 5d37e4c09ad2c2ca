package valuation

import (
	"cmp"
	"slices"
	"strings"
)

// SortKey selects the annotated field holdings are ranked by
type SortKey int

const (
	SortByName SortKey = iota
	SortByAmount
	SortByFiatValue
	SortByPercentChange
)

// Direction of a ranking
type Direction int

const (
	Descending Direction = iota
	Ascending
)

// SortMode is a decoded sort-mode token
type SortMode struct {
	Key       SortKey
	Direction Direction
}

// Sort-mode tokens accepted by the API
const (
	SortNameHigh      = "name_high"
	SortNameLow       = "name_low"
	SortAmountHigh    = "amount_id_high"
	SortAmountLow     = "amount_id_low"
	SortFiatValueHigh = "amount_usd_high"
	SortFiatValueLow  = "amount_usd_low"
	SortChangeHigh    = "change_high"
	SortChangeLow     = "change_low"
)

// SortModeTokens lists the eight canonical sort-mode tokens
var SortModeTokens = []string{
	SortNameHigh, SortNameLow,
	SortAmountHigh, SortAmountLow,
	SortFiatValueHigh, SortFiatValueLow,
	SortChangeHigh, SortChangeLow,
}

// ParseSortMode decodes a sort-mode token. Tokens naming neither name,
// amount_id nor amount_usd rank by percent change, where "high" means
// ascending and anything else means descending. Unknown tokens are never
// rejected.
func ParseSortMode(token string) SortMode {
	high := strings.Contains(token, "high")

	var key SortKey
	switch {
	case strings.Contains(token, "name"):
		key = SortByName
	case strings.Contains(token, "amount_id"):
		key = SortByAmount
	case strings.Contains(token, "amount_usd"):
		key = SortByFiatValue
	default:
		if high {
			return SortMode{Key: SortByPercentChange, Direction: Ascending}
		}
		return SortMode{Key: SortByPercentChange, Direction: Descending}
	}

	if high {
		return SortMode{Key: key, Direction: Descending}
	}
	return SortMode{Key: key, Direction: Ascending}
}

// String returns the canonical token that decodes to m
func (m SortMode) String() string {
	if m.Key == SortByPercentChange {
		if m.Direction == Ascending {
			return SortChangeHigh
		}
		return SortChangeLow
	}

	var prefix string
	switch m.Key {
	case SortByName:
		prefix = "name"
	case SortByAmount:
		prefix = "amount_id"
	default:
		prefix = "amount_usd"
	}
	if m.Direction == Descending {
		return prefix + "_high"
	}
	return prefix + "_low"
}

// Rank returns a new slice ordered by mode. The input slice is left untouched.
// Ascending order is the exact reverse of the stable descending order, so ties
// keep their relative order as a block and flip together.
func Rank(holdings []AnnotatedHolding, mode SortMode) []AnnotatedHolding {
	ranked := make([]AnnotatedHolding, len(holdings))
	copy(ranked, holdings)

	compare := comparator(mode.Key)
	slices.SortStableFunc(ranked, func(a, b AnnotatedHolding) int {
		return compare(b, a)
	})

	if mode.Direction == Ascending {
		slices.Reverse(ranked)
	}
	return ranked
}

func comparator(key SortKey) func(a, b AnnotatedHolding) int {
	switch key {
	case SortByName:
		return func(a, b AnnotatedHolding) int { return cmp.Compare(a.DisplayName, b.DisplayName) }
	case SortByAmount:
		return func(a, b AnnotatedHolding) int { return cmp.Compare(a.NormalizedAmount, b.NormalizedAmount) }
	case SortByFiatValue:
		return func(a, b AnnotatedHolding) int { return cmp.Compare(a.FiatValue, b.FiatValue) }
	default:
		return func(a, b AnnotatedHolding) int {
			return cmp.Compare(changeOrZero(a.PercentChange24h), changeOrZero(b.PercentChange24h))
		}
	}
}

// unknown change ranks as zero
func changeOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
