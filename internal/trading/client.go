package trading

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	phttp "github.com/Alias1177/fastloop/internal/platform/http"
	"github.com/Alias1177/fastloop/models"
)

// DefaultURL is the hosted trading API.
const DefaultURL = "https://api.simmer.markets"

// Venue and Source tag every order submitted by this tool.
const (
	Venue  = "polymarket"
	Source = "sdk:fastloop"
)

var (
	// ErrMissingAPIKey is returned by calls that need credentials.
	ErrMissingAPIKey = errors.New("SIMMER_API_KEY is not set")
	// ErrOrderRejected means the venue refused the order.
	ErrOrderRejected = errors.New("order rejected")
)

// TradeRequest is the body of POST /api/sdk/trade.
type TradeRequest struct {
	MarketID string      `json:"market_id"`
	Side     models.Side `json:"side"`
	Amount   float64     `json:"amount"`
	Venue    string      `json:"venue"`
	Source   string      `json:"source"`
}

// TradeResponse is the answer of POST /api/sdk/trade.
type TradeResponse struct {
	Success      bool    `json:"success"`
	TradeID      string  `json:"trade_id"`
	SharesBought float64 `json:"shares_bought"`
	Error        string  `json:"error"`
}

// Client talks to the hosted trading API.
type Client struct {
	http    *phttp.Client
	baseURL string
	apiKey  string
	logger  zerolog.Logger
}

// NewClient returns a trading API client. An empty baseURL means DefaultURL.
func NewClient(httpClient *phttp.Client, baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  strings.TrimSpace(apiKey),
		logger:  log.With().Str("component", "trading_api").Logger(),
	}
}

// HasKey reports whether credentials are configured.
func (c *Client) HasKey() bool { return c.apiKey != "" }

func (c *Client) header() (http.Header, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	h := http.Header{}
	h.Set("Authorization", "Bearer "+c.apiKey)
	return h, nil
}

// Balance returns the available USDC balance.
func (c *Client) Balance(ctx context.Context) (float64, error) {
	h, err := c.header()
	if err != nil {
		return 0, err
	}
	var out struct {
		BalanceUSDC *float64 `json:"balance_usdc"`
	}
	if err := c.http.GetJSON(ctx, c.baseURL+"/api/sdk/portfolio", h, &out); err != nil {
		return 0, fmt.Errorf("portfolio: %w", err)
	}
	if out.BalanceUSDC == nil {
		return 0, fmt.Errorf("portfolio: balance_usdc missing")
	}
	return *out.BalanceUSDC, nil
}

// ImportMarket registers a Polymarket event with the trading API and returns
// the API's market id. Importing an already known market is not an error.
func (c *Client) ImportMarket(ctx context.Context, polymarketURL string) (string, error) {
	h, err := c.header()
	if err != nil {
		return "", err
	}
	in := map[string]any{"polymarket_url": polymarketURL, "shared": true}
	var out struct {
		MarketID string `json:"market_id"`
		Status   string `json:"status"`
		Error    string `json:"error"`
	}
	if err := c.http.PostJSON(ctx, c.baseURL+"/api/sdk/markets/import", h, in, &out); err != nil {
		return "", fmt.Errorf("import market: %w", err)
	}
	if out.MarketID == "" {
		if out.Error != "" {
			return "", fmt.Errorf("import market: %s", out.Error)
		}
		return "", fmt.Errorf("import market: no market_id in response")
	}
	c.logger.Debug().Str("market_id", out.MarketID).Str("status", out.Status).Msg("market imported")
	return out.MarketID, nil
}

// Trade submits an order exactly once; it is never retried. A venue refusal,
// either as a 4xx or as success=false, is reported as ErrOrderRejected.
func (c *Client) Trade(ctx context.Context, req TradeRequest) (*TradeResponse, error) {
	h, err := c.header()
	if err != nil {
		return nil, err
	}
	if req.Venue == "" {
		req.Venue = Venue
	}
	if req.Source == "" {
		req.Source = Source
	}

	var out TradeResponse
	if err := c.http.PostJSONOnce(ctx, c.baseURL+"/api/sdk/trade", h, req, &out); err != nil {
		var se *phttp.StatusError
		if errors.As(err, &se) && se.StatusCode >= 400 && se.StatusCode < 500 {
			return nil, fmt.Errorf("%w: %s", ErrOrderRejected, se.Body)
		}
		return nil, fmt.Errorf("trade: %w", err)
	}
	if !out.Success {
		reason := out.Error
		if reason == "" {
			reason = "no reason given"
		}
		return &out, fmt.Errorf("%w: %s", ErrOrderRejected, reason)
	}
	return &out, nil
}

// Positions lists every open position on the account.
func (c *Client) Positions(ctx context.Context) ([]models.Position, error) {
	h, err := c.header()
	if err != nil {
		return nil, err
	}
	var out struct {
		Positions []models.Position `json:"positions"`
	}
	if err := c.http.GetJSON(ctx, c.baseURL+"/api/sdk/positions", h, &out); err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}
	return out.Positions, nil
}
