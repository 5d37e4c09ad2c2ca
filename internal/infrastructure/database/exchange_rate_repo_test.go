package database

import (
	"strings"
	"testing"

	sq "github.com/Masterminds/squirrel"
)

func TestSortOrder(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"asc", "ASC"},
		{"ASC", "ASC"},
		{"desc", "DESC"},
		{"", "DESC"},
		{"; DROP TABLE tokens", "DESC"},
	}

	for _, tt := range tests {
		if got := sortOrder(tt.input); got != tt.expected {
			t.Errorf("sortOrder(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestExchangeRateQueries(t *testing.T) {
	t.Run("address list uses dollar placeholders", func(t *testing.T) {
		query, args, err := psql.Select(exchangeRateColumns...).
			From(exchangeRateTable).
			Where(sq.Eq{"address": []string{"0xa", "0xb"}}).
			ToSql()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(query, "address IN ($1,$2)") {
			t.Errorf("expected IN clause with dollar placeholders, got %s", query)
		}
		if len(args) != 2 {
			t.Errorf("expected 2 args, got %d", len(args))
		}
	})

	t.Run("unknown sort column is not whitelisted", func(t *testing.T) {
		if _, ok := exchangeRateSortColumns["current_price; DROP TABLE"]; ok {
			t.Error("expected injected column to be rejected")
		}
		if _, ok := exchangeRateSortColumns["market_cap"]; !ok {
			t.Error("expected market_cap to be sortable")
		}
	})
}
