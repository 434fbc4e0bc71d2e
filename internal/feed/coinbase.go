package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	phttp "github.com/Alias1177/fastloop/internal/platform/http"
	"github.com/Alias1177/fastloop/models"
)

const coinbaseURL = "https://api.exchange.coinbase.com"

// maxCoinbaseLimit is how many candles one candles call returns.
const maxCoinbaseLimit = 300

// Coinbase reads exchange candles against USD.
type Coinbase struct {
	client  *phttp.Client
	baseURL string
}

// NewCoinbase returns a Coinbase source. An empty baseURL means the public API.
func NewCoinbase(client *phttp.Client, baseURL string) *Coinbase {
	if baseURL == "" {
		baseURL = coinbaseURL
	}
	return &Coinbase{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

func (c *Coinbase) Name() string { return "coinbase" }

// Candles returns the latest count one-minute candles, oldest first. The API
// answers newest first with rows of [time, low, high, open, close, volume].
func (c *Coinbase) Candles(ctx context.Context, asset string, count int) ([]models.Candle, error) {
	if count <= 0 || count > maxCoinbaseLimit {
		return nil, fmt.Errorf("coinbase: candle count %d out of range", count)
	}
	endpoint := fmt.Sprintf("%s/products/%s-USD/candles?granularity=60", c.baseURL, strings.ToUpper(asset))

	var rows [][]json.RawMessage
	if err := c.client.GetJSON(ctx, endpoint, nil, &rows); err != nil {
		return nil, fmt.Errorf("coinbase candles: %w", err)
	}

	candles := make([]models.Candle, 0, len(rows))
	for _, row := range rows {
		ts := field(row, 0)
		if math.IsNaN(ts) {
			continue
		}
		candles = append(candles, models.Candle{
			Time:   time.Unix(int64(ts), 0).UTC(),
			Low:    field(row, 1),
			High:   field(row, 2),
			Open:   field(row, 3),
			Close:  field(row, 4),
			Volume: field(row, 5),
		})
	}
	sort.Slice(candles, func(i, j int) bool { return candles[i].Time.Before(candles[j].Time) })
	return lastN(candles, count), nil
}
