package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	phttp "github.com/Alias1177/fastloop/internal/platform/http"
	"github.com/Alias1177/fastloop/models"
)

const binanceURL = "https://api.binance.com"

// maxBinanceLimit is the largest page the klines endpoint serves.
const maxBinanceLimit = 1000

// Binance reads spot klines against USDT.
type Binance struct {
	client  *phttp.Client
	baseURL string
}

// NewBinance returns a Binance source. An empty baseURL means the public API.
func NewBinance(client *phttp.Client, baseURL string) *Binance {
	if baseURL == "" {
		baseURL = binanceURL
	}
	return &Binance{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

func (b *Binance) Name() string { return "binance" }

// Candles returns the latest count one-minute klines, oldest first.
func (b *Binance) Candles(ctx context.Context, asset string, count int) ([]models.Candle, error) {
	if count <= 0 || count > maxBinanceLimit {
		return nil, fmt.Errorf("binance: candle count %d out of range", count)
	}
	q := url.Values{}
	q.Set("symbol", strings.ToUpper(asset)+"USDT")
	q.Set("interval", "1m")
	q.Set("limit", strconv.Itoa(count))

	var rows [][]json.RawMessage
	if err := b.client.GetJSON(ctx, b.baseURL+"/api/v3/klines?"+q.Encode(), nil, &rows); err != nil {
		return nil, fmt.Errorf("binance klines: %w", err)
	}

	candles := make([]models.Candle, 0, len(rows))
	for _, row := range rows {
		// [openTime, open, high, low, close, volume, closeTime, ...]
		openMs := field(row, 0)
		if math.IsNaN(openMs) {
			continue
		}
		candles = append(candles, models.Candle{
			Time:   time.UnixMilli(int64(openMs)).UTC(),
			Open:   field(row, 1),
			High:   field(row, 2),
			Low:    field(row, 3),
			Close:  field(row, 4),
			Volume: field(row, 5),
		})
	}
	sort.Slice(candles, func(i, j int) bool { return candles[i].Time.Before(candles[j].Time) })
	return lastN(candles, count), nil
}
