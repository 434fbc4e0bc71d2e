package models

import (
	"context"
	"time"
)

// CandleSource fetches the most recent one-minute candles for an asset.
type CandleSource interface {
	Name() string
	Candles(ctx context.Context, asset string, count int) ([]Candle, error)
}

// MarketFinder locates the fast market to trade at a given moment.
type MarketFinder interface {
	FindMarket(ctx context.Context, now time.Time) (*Market, error)
}
