package pricefeed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/bimakw/token-explorer/internal/config"
)

const tokenPriceEndpoint = "%s/simple/token_price/%s"

// TokenPrice is one contract's market snapshot as reported by CoinGecko
type TokenPrice struct {
	Address       string
	Price         decimal.NullDecimal
	MarketCap     decimal.NullDecimal
	Volume24h     decimal.NullDecimal
	Change24h     decimal.NullDecimal
	LastUpdatedAt *time.Time
}

// CoinGecko fetches token prices from the CoinGecko simple API.
// Requests are throttled to the configured rate.
type CoinGecko struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	vsCurrency string
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewCoinGecko creates a new CoinGecko client
func NewCoinGecko(cfg config.PriceFeedConfig, logger *zap.Logger) *CoinGecko {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}

	return &CoinGecko{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		vsCurrency: strings.ToLower(cfg.VsCurrency),
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger,
	}
}

// GetTokenPrices returns the quotes CoinGecko knows for the given contracts,
// keyed by lower-cased address. Contracts CoinGecko does not list are absent.
func (cg *CoinGecko) GetTokenPrices(ctx context.Context, platform string, addresses []string) (map[string]TokenPrice, error) {
	if len(addresses) == 0 {
		return map[string]TokenPrice{}, nil
	}

	if err := cg.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	q := url.Values{}
	q.Set("contract_addresses", strings.ToLower(strings.Join(addresses, ",")))
	q.Set("vs_currencies", cg.vsCurrency)
	q.Set("include_market_cap", "true")
	q.Set("include_24hr_vol", "true")
	q.Set("include_24hr_change", "true")
	q.Set("include_last_updated_at", "true")

	endpoint := fmt.Sprintf(tokenPriceEndpoint, cg.baseURL, url.PathEscape(platform)) + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if cg.apiKey != "" {
		req.Header.Set(cg.apiKeyHeader(), cg.apiKey)
	}

	start := time.Now()
	rsp, err := cg.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call coingecko: %w", err)
	}
	defer rsp.Body.Close()

	if rsp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %s", rsp.Status)
	}

	body, err := io.ReadAll(rsp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	prices, err := cg.decode(body)
	if err != nil {
		return nil, err
	}

	cg.logger.Debug("Fetched token prices",
		zap.String("platform", platform),
		zap.Int("requested", len(addresses)),
		zap.Int("returned", len(prices)),
		zap.Duration("latency", time.Since(start)),
	)

	return prices, nil
}

// apiKeyHeader picks the header for pro or demo keys
func (cg *CoinGecko) apiKeyHeader() string {
	if strings.Contains(cg.baseURL, "pro-api") {
		return "x-cg-pro-api-key"
	}
	return "x-cg-demo-api-key"
}

// decode parses {"0xabc": {"usd": 1.0, "usd_market_cap": ..., "last_updated_at": ...}}
func (cg *CoinGecko) decode(body []byte) (map[string]TokenPrice, error) {
	var raw map[string]map[string]json.Number

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode token prices: %w", err)
	}

	prices := make(map[string]TokenPrice, len(raw))
	for addr, fields := range raw {
		addr = strings.ToLower(addr)
		price := TokenPrice{
			Address:   addr,
			Price:     nullDecimal(fields[cg.vsCurrency]),
			MarketCap: nullDecimal(fields[cg.vsCurrency+"_market_cap"]),
			Volume24h: nullDecimal(fields[cg.vsCurrency+"_24h_vol"]),
			Change24h: nullDecimal(fields[cg.vsCurrency+"_24h_change"]),
		}
		if ts, err := fields["last_updated_at"].Int64(); err == nil && ts > 0 {
			t := time.Unix(ts, 0).UTC()
			price.LastUpdatedAt = &t
		}
		prices[addr] = price
	}

	return prices, nil
}

// nullDecimal converts a JSON number; missing or null numbers are invalid
func nullDecimal(n json.Number) decimal.NullDecimal {
	if n == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}
