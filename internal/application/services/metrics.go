package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	holdingsAnnotated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "valuation_holdings_annotated_total",
			Help: "Total number of holdings valued by the engine",
		},
		[]string{"kind"},
	)

	unpricedHoldings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "valuation_unpriced_holdings_total",
			Help: "Total number of fungible holdings valued without a price",
		},
		[]string{"kind"},
	)

	priceFeedRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricefeed_refresh_total",
			Help: "Total number of price feed refreshes by result",
		},
		[]string{"result"},
	)

	quotesUpserted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pricefeed_quotes_upserted_total",
			Help: "Total number of exchange rates written by the price feed",
		},
	)
)
