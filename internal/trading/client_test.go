package trading

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	phttp "github.com/Alias1177/fastloop/internal/platform/http"
	"github.com/Alias1177/fastloop/models"
)

func testHTTP() *phttp.Client {
	return phttp.NewClient(phttp.ClientOptions{
		Timeout:         2 * time.Second,
		RequestsPerSec:  100,
		MaxRetryTimeout: 50 * time.Millisecond,
		InitialInterval: time.Millisecond,
	})
}

func apiServer(t *testing.T, tradeStatus int, tradeBody string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/sdk/portfolio":
			_, _ = w.Write([]byte(`{"balance_usdc": 123.45}`))
		case "/api/sdk/markets/import":
			var in map[string]any
			_ = json.NewDecoder(r.Body).Decode(&in)
			if in["polymarket_url"] != "https://polymarket.com/event/btc-updown-5m-1" {
				http.Error(w, `{"error":"bad url"}`, http.StatusBadRequest)
				return
			}
			_, _ = w.Write([]byte(`{"market_id":"sim-1","status":"imported"}`))
		case "/api/sdk/trade":
			var in TradeRequest
			_ = json.NewDecoder(r.Body).Decode(&in)
			if in.Venue != Venue || in.Source != Source || in.MarketID != "sim-1" {
				t.Errorf("trade request = %+v", in)
			}
			w.WriteHeader(tradeStatus)
			_, _ = w.Write([]byte(tradeBody))
		case "/api/sdk/positions":
			_, _ = w.Write([]byte(`{"positions":[{"market_id":"sim-1","question":"Bitcoin Up or Down","shares_yes":10,"current_value":5.1,"pnl":0.3,"status":"active"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientBalanceAndPositions(t *testing.T) {
	srv := apiServer(t, http.StatusOK, `{}`)
	c := NewClient(testHTTP(), srv.URL, "sk-test")

	bal, err := c.Balance(context.Background())
	if err != nil || bal != 123.45 {
		t.Fatalf("Balance() = %v, %v; want 123.45", bal, err)
	}
	ps, err := c.Positions(context.Background())
	if err != nil || len(ps) != 1 || ps[0].SharesYes != 10 {
		t.Fatalf("Positions() = %+v, %v", ps, err)
	}
}

func TestClientTrade(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		wantRejected bool
		wantTradeID  string
	}{
		{name: "filled", status: http.StatusOK, body: `{"success":true,"trade_id":"t-1","shares_bought":11.9}`, wantTradeID: "t-1"},
		{name: "rejected in body", status: http.StatusOK, body: `{"success":false,"error":"market closed"}`, wantRejected: true},
		{name: "rejected by status", status: http.StatusBadRequest, body: `{"error":"below minimum"}`, wantRejected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := apiServer(t, tt.status, tt.body)
			c := NewClient(testHTTP(), srv.URL, "sk-test")

			id, err := c.ImportMarket(context.Background(), "https://polymarket.com/event/btc-updown-5m-1")
			if err != nil || id != "sim-1" {
				t.Fatalf("ImportMarket() = %q, %v", id, err)
			}
			resp, err := c.Trade(context.Background(), TradeRequest{MarketID: id, Side: models.SideYes, Amount: 5})
			if tt.wantRejected {
				if !errors.Is(err, ErrOrderRejected) {
					t.Fatalf("Trade() error = %v, want ErrOrderRejected", err)
				}
				return
			}
			if err != nil || resp.TradeID != tt.wantTradeID {
				t.Fatalf("Trade() = %+v, %v", resp, err)
			}
		})
	}
}

func TestClientRequiresKey(t *testing.T) {
	c := NewClient(testHTTP(), "http://127.0.0.1:1", "")
	if c.HasKey() {
		t.Fatal("HasKey() = true, want false")
	}
	if _, err := c.Balance(context.Background()); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("Balance() error = %v, want ErrMissingAPIKey", err)
	}
	if _, err := c.Trade(context.Background(), TradeRequest{}); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("Trade() error = %v, want ErrMissingAPIKey", err)
	}
}

func TestClientTradeIsNotRetried(t *testing.T) {
	var posts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/sdk/trade" {
			http.NotFound(w, r)
			return
		}
		if atomic.AddInt32(&posts, 1) == 1 {
			http.Error(w, "upstream unavailable", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"trade_id":"t-dup"}`))
	}))
	defer srv.Close()

	c := NewClient(testHTTP(), srv.URL, "sk-test")
	resp, err := c.Trade(context.Background(), TradeRequest{MarketID: "sim-1", Side: models.SideYes, Amount: 5})
	if err == nil {
		t.Fatalf("Trade() = %+v, want error after 502", resp)
	}
	if errors.Is(err, ErrOrderRejected) {
		t.Errorf("Trade() error = %v, a gateway failure is not a venue rejection", err)
	}
	if got := atomic.LoadInt32(&posts); got != 1 {
		t.Errorf("trade POSTs = %d, want exactly 1", got)
	}
}
