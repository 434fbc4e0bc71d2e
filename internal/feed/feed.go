// Package feed fetches one-minute candles from public exchange APIs.
package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	phttp "github.com/Alias1177/fastloop/internal/platform/http"
	"github.com/Alias1177/fastloop/models"
)

// ErrAllSourcesFailed is returned by Chain when no source produced candles.
var ErrAllSourcesFailed = errors.New("all price sources failed")

// Names lists the supported sources in default fallback order.
var Names = []string{"binance", "coinbase"}

// New returns the named source.
func New(name string, client *phttp.Client) (models.CandleSource, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "binance":
		return NewBinance(client, ""), nil
	case "coinbase":
		return NewCoinbase(client, ""), nil
	}
	return nil, fmt.Errorf("unknown price source %q", name)
}

// Chain tries each source in order and returns the first successful result.
type Chain struct {
	sources []models.CandleSource
	logger  zerolog.Logger
}

// NewChain builds a chain with primary first and the remaining known sources
// after it.
func NewChain(primary string, client *phttp.Client) (*Chain, error) {
	first, err := New(primary, client)
	if err != nil {
		return nil, err
	}
	sources := []models.CandleSource{first}
	for _, name := range Names {
		if name == first.Name() {
			continue
		}
		src, err := New(name, client)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return NewChainOf(sources...), nil
}

// NewChainOf builds a chain from explicit sources.
func NewChainOf(sources ...models.CandleSource) *Chain {
	return &Chain{
		sources: sources,
		logger:  log.With().Str("component", "price_feed").Logger(),
	}
}

func (c *Chain) Name() string {
	if len(c.sources) == 0 {
		return "none"
	}
	return c.sources[0].Name()
}

// Candles implements models.CandleSource.
func (c *Chain) Candles(ctx context.Context, asset string, count int) ([]models.Candle, error) {
	var errs []error
	for i, src := range c.sources {
		candles, err := src.Candles(ctx, asset, count)
		if err == nil && len(candles) == 0 {
			err = errors.New("empty data returned")
		}
		if err == nil {
			if i > 0 {
				c.logger.Warn().Str("source", src.Name()).Msg("using fallback price source")
			}
			c.logger.Debug().Str("source", src.Name()).Int("count", len(candles)).Msg("fetched candles")
			return candles, nil
		}
		c.logger.Warn().Err(err).Str("source", src.Name()).Msg("price source failed")
		errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
		if ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf("%w: %w", ErrAllSourcesFailed, errors.Join(errs...))
}

// number decodes a JSON number or numeric string. Anything else is NaN.
func number(raw json.RawMessage) float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return math.NaN()
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return math.NaN()
		}
		raw = []byte(strings.TrimSpace(s))
	}
	v, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func field(row []json.RawMessage, i int) float64 {
	if i >= len(row) {
		return math.NaN()
	}
	return number(row[i])
}

func lastN(candles []models.Candle, n int) []models.Candle {
	if n > 0 && len(candles) > n {
		return candles[len(candles)-n:]
	}
	return candles
}
