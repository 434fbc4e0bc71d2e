package market

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	phttp "github.com/Alias1177/fastloop/internal/platform/http"
	"github.com/Alias1177/fastloop/models"
)

var windowStart = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func testClient() *phttp.Client {
	return phttp.NewClient(phttp.ClientOptions{
		Timeout:         2 * time.Second,
		RequestsPerSec:  100,
		MaxRetryTimeout: 50 * time.Millisecond,
		InitialInterval: time.Millisecond,
	})
}

func eventJSON(slug string, end time.Time, prices string) string {
	return fmt.Sprintf(`[{
  "slug": %q,
  "closed": false,
  "markets": [{
    "id": "540816",
    "slug": %q,
    "question": "Bitcoin Up or Down - October 16, 8:00AM-8:05AM ET",
    "endDate": %q,
    "active": true,
    "closed": false,
    "outcomes": "[\"Up\", \"Down\"]",
    "outcomePrices": %s
  }]
}]`, slug, slug, end.Format(time.RFC3339), prices)
}

// gammaServer serves the given slug->body map and [] for anything else.
func gammaServer(t *testing.T, bodies map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/events" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		body, ok := bodies[r.URL.Query().Get("slug")]
		if !ok {
			body = `[]`
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newLocator(t *testing.T, url string, minRemaining int) *Locator {
	t.Helper()
	cfg := models.Config{Asset: "BTC", Window: "5m", MinTimeRemaining: minRemaining}
	l, err := NewLocator(testClient(), url, cfg)
	if err != nil {
		t.Fatalf("NewLocator() error = %v", err)
	}
	return l
}

func TestSlug(t *testing.T) {
	got := Slug("BTC", "15m", time.Unix(1765791900, 0))
	if got != "btc-updown-15m-1765791900" {
		t.Errorf("Slug() = %q", got)
	}
}

func TestFindMarketCurrentWindow(t *testing.T) {
	slug := Slug("btc", "5m", windowStart)
	srv := gammaServer(t, map[string]string{
		slug: eventJSON(slug, windowStart.Add(5*time.Minute), `"[\"0.42\", \"0.58\"]"`),
	})

	now := windowStart.Add(2 * time.Minute)
	m, err := newLocator(t, srv.URL, 60).FindMarket(context.Background(), now)
	if err != nil {
		t.Fatalf("FindMarket() error = %v", err)
	}
	if m.ID != "540816" || m.Slug != slug {
		t.Errorf("market = %+v", m)
	}
	if m.YesPrice != 0.42 || m.NoPrice != 0.58 {
		t.Errorf("prices = %v/%v, want 0.42/0.58", m.YesPrice, m.NoPrice)
	}
	if m.TimeRemaining(now) != 3*time.Minute {
		t.Errorf("remaining = %v, want 3m", m.TimeRemaining(now))
	}
}

func TestFindMarketSkipsNearExpiry(t *testing.T) {
	slug := Slug("btc", "5m", windowStart)
	srv := gammaServer(t, map[string]string{
		slug: eventJSON(slug, windowStart.Add(5*time.Minute), `["0.30", "0.70"]`),
	})

	now := windowStart.Add(5*time.Minute - 30*time.Second)
	_, err := newLocator(t, srv.URL, 60).FindMarket(context.Background(), now)
	if !errors.Is(err, ErrNoMarket) {
		t.Fatalf("FindMarket() error = %v, want ErrNoMarket", err)
	}
}

func TestFindMarketFallsToNextWindow(t *testing.T) {
	next := windowStart.Add(5 * time.Minute)
	slug := Slug("btc", "5m", next)
	srv := gammaServer(t, map[string]string{
		slug: eventJSON(slug, next.Add(5*time.Minute), `["0.5", "0.5"]`),
	})

	now := windowStart.Add(4*time.Minute + 45*time.Second)
	m, err := newLocator(t, srv.URL, 60).FindMarket(context.Background(), now)
	if err != nil {
		t.Fatalf("FindMarket() error = %v", err)
	}
	if m.Slug != slug {
		t.Errorf("Slug = %q, want %q", m.Slug, slug)
	}
}

func TestFindMarketMalformedPrices(t *testing.T) {
	slug := Slug("btc", "5m", windowStart)
	srv := gammaServer(t, map[string]string{
		slug: eventJSON(slug, windowStart.Add(5*time.Minute), `["n/a"]`),
	})

	m, err := newLocator(t, srv.URL, 60).FindMarket(context.Background(), windowStart)
	if err != nil {
		t.Fatalf("FindMarket() error = %v", err)
	}
	if !math.IsNaN(m.YesPrice) || !math.IsNaN(m.NoPrice) {
		t.Errorf("prices = %v/%v, want NaN", m.YesPrice, m.NoPrice)
	}
}

func TestFindMarketGammaDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := newLocator(t, srv.URL, 60).FindMarket(context.Background(), windowStart)
	if err == nil || errors.Is(err, ErrNoMarket) {
		t.Fatalf("FindMarket() error = %v, want fetch error", err)
	}
}
