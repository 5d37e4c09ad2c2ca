package valuation

import (
	"testing"
)

func float64Ptr(v float64) *float64 {
	return &v
}

func names(holdings []AnnotatedHolding) []string {
	out := make([]string, len(holdings))
	for i, h := range holdings {
		out[i] = h.DisplayName
	}
	return out
}

func changes(holdings []AnnotatedHolding) []float64 {
	out := make([]float64, len(holdings))
	for i, h := range holdings {
		out[i] = changeOrZero(h.PercentChange24h)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalFloats(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestParseSortMode(t *testing.T) {
	tests := []struct {
		token    string
		expected SortMode
	}{
		{SortNameHigh, SortMode{Key: SortByName, Direction: Descending}},
		{SortNameLow, SortMode{Key: SortByName, Direction: Ascending}},
		{SortAmountHigh, SortMode{Key: SortByAmount, Direction: Descending}},
		{SortAmountLow, SortMode{Key: SortByAmount, Direction: Ascending}},
		{SortFiatValueHigh, SortMode{Key: SortByFiatValue, Direction: Descending}},
		{SortFiatValueLow, SortMode{Key: SortByFiatValue, Direction: Ascending}},
		// percent change inverts the high/low convention
		{SortChangeHigh, SortMode{Key: SortByPercentChange, Direction: Ascending}},
		{SortChangeLow, SortMode{Key: SortByPercentChange, Direction: Descending}},
		{"", SortMode{Key: SortByPercentChange, Direction: Descending}},
		{"bogus_high", SortMode{Key: SortByPercentChange, Direction: Ascending}},
		{"bogus", SortMode{Key: SortByPercentChange, Direction: Descending}},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got := ParseSortMode(tt.token)
			if got != tt.expected {
				t.Errorf("ParseSortMode(%q) = %+v, want %+v", tt.token, got, tt.expected)
			}
		})
	}
}

func TestSortMode_String(t *testing.T) {
	for _, token := range SortModeTokens {
		if got := ParseSortMode(token).String(); got != token {
			t.Errorf("expected %q to round-trip, got %q", token, got)
		}
	}
}

func TestRank(t *testing.T) {
	t.Run("name high and low", func(t *testing.T) {
		holdings := []AnnotatedHolding{
			{DisplayName: "b"},
			{DisplayName: "a"},
			{DisplayName: "c"},
		}

		high := Rank(holdings, ParseSortMode(SortNameHigh))
		if got := names(high); !equalStrings(got, []string{"c", "b", "a"}) {
			t.Errorf("expected [c b a], got %v", got)
		}

		low := Rank(holdings, ParseSortMode(SortNameLow))
		if got := names(low); !equalStrings(got, []string{"a", "b", "c"}) {
			t.Errorf("expected [a b c], got %v", got)
		}
	})

	t.Run("percent change fallback is inverted", func(t *testing.T) {
		holdings := []AnnotatedHolding{
			{DisplayName: "one", PercentChange24h: float64Ptr(1)},
			{DisplayName: "three", PercentChange24h: float64Ptr(3)},
			{DisplayName: "two", PercentChange24h: float64Ptr(2)},
		}

		high := Rank(holdings, ParseSortMode(SortChangeHigh))
		if got := changes(high); !equalFloats(got, []float64{1, 2, 3}) {
			t.Errorf("expected [1 2 3], got %v", got)
		}

		low := Rank(holdings, ParseSortMode(SortChangeLow))
		if got := changes(low); !equalFloats(got, []float64{3, 2, 1}) {
			t.Errorf("expected [3 2 1], got %v", got)
		}
	})

	t.Run("amount and fiat value descend on high", func(t *testing.T) {
		holdings := []AnnotatedHolding{
			{DisplayName: "small", NormalizedAmount: 1, FiatValue: 300},
			{DisplayName: "large", NormalizedAmount: 100, FiatValue: 2},
			{DisplayName: "medium", NormalizedAmount: 10, FiatValue: 50},
		}

		byAmount := Rank(holdings, ParseSortMode(SortAmountHigh))
		if got := names(byAmount); !equalStrings(got, []string{"large", "medium", "small"}) {
			t.Errorf("expected [large medium small], got %v", got)
		}

		byValue := Rank(holdings, ParseSortMode(SortFiatValueHigh))
		if got := names(byValue); !equalStrings(got, []string{"small", "medium", "large"}) {
			t.Errorf("expected [small medium large], got %v", got)
		}

		byValueLow := Rank(holdings, ParseSortMode(SortFiatValueLow))
		if got := names(byValueLow); !equalStrings(got, []string{"large", "medium", "small"}) {
			t.Errorf("expected [large medium small], got %v", got)
		}
	})

	t.Run("ties flip as a block", func(t *testing.T) {
		holdings := []AnnotatedHolding{
			{DisplayName: "x", FiatValue: 5},
			{DisplayName: "y", FiatValue: 5},
			{DisplayName: "z", FiatValue: 9},
		}

		high := Rank(holdings, ParseSortMode(SortFiatValueHigh))
		if got := names(high); !equalStrings(got, []string{"z", "x", "y"}) {
			t.Errorf("expected [z x y], got %v", got)
		}

		low := Rank(holdings, ParseSortMode(SortFiatValueLow))
		if got := names(low); !equalStrings(got, []string{"y", "x", "z"}) {
			t.Errorf("expected [y x z], got %v", got)
		}
	})

	t.Run("unknown change ranks as zero", func(t *testing.T) {
		holdings := []AnnotatedHolding{
			{DisplayName: "down", PercentChange24h: float64Ptr(-4)},
			{DisplayName: "unknown"},
			{DisplayName: "up", PercentChange24h: float64Ptr(7)},
		}

		low := Rank(holdings, ParseSortMode(SortChangeLow))
		if got := names(low); !equalStrings(got, []string{"up", "unknown", "down"}) {
			t.Errorf("expected [up unknown down], got %v", got)
		}
	})

	t.Run("does not reorder the input", func(t *testing.T) {
		holdings := []AnnotatedHolding{
			{DisplayName: "b"},
			{DisplayName: "a"},
			{DisplayName: "c"},
		}

		_ = Rank(holdings, ParseSortMode(SortNameLow))
		_ = Rank(holdings, ParseSortMode(SortNameHigh))

		if got := names(holdings); !equalStrings(got, []string{"b", "a", "c"}) {
			t.Errorf("expected input order preserved, got %v", got)
		}
	})

	t.Run("empty and nil input for every mode", func(t *testing.T) {
		for _, token := range SortModeTokens {
			for _, input := range [][]AnnotatedHolding{nil, {}} {
				result := Rank(input, ParseSortMode(token))
				if result == nil || len(result) != 0 {
					t.Errorf("%s: expected empty non-nil result, got %v", token, result)
				}
			}
		}
	})
}
