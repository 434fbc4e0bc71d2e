// Package market finds the currently tradeable fast up/down market for an
// asset on the Polymarket Gamma API.
package market

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	phttp "github.com/Alias1177/fastloop/internal/platform/http"
	"github.com/Alias1177/fastloop/models"
)

// DefaultURL is the public Gamma API.
const DefaultURL = "https://gamma-api.polymarket.com"

// ErrNoMarket means no candidate market is open with enough time left.
var ErrNoMarket = errors.New("no tradeable fast market")

// Locator resolves the fast market for the configured asset and window.
type Locator struct {
	client       *phttp.Client
	baseURL      string
	asset        string
	window       string
	windowDur    time.Duration
	minRemaining time.Duration
	logger       zerolog.Logger
}

// NewLocator validates the window and returns a Locator.
func NewLocator(client *phttp.Client, baseURL string, cfg models.Config) (*Locator, error) {
	d, err := models.WindowDuration(cfg.Window)
	if err != nil {
		return nil, err
	}
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Locator{
		client:       client,
		baseURL:      strings.TrimRight(baseURL, "/"),
		asset:        strings.ToLower(cfg.Asset),
		window:       cfg.Window,
		windowDur:    d,
		minRemaining: cfg.MinTimeRemainingDuration(),
		logger:       log.With().Str("component", "market_locator").Logger(),
	}, nil
}

// Slug builds the event slug for the window starting at start,
// e.g. btc-updown-5m-1765791900.
func Slug(asset, window string, start time.Time) string {
	return fmt.Sprintf("%s-updown-%s-%d", strings.ToLower(asset), window, start.Unix())
}

// FindMarket returns the first of the current and next windows that is open
// and has at least the minimum time remaining. Markets that are too close to
// expiry are skipped, never traded.
func (l *Locator) FindMarket(ctx context.Context, now time.Time) (*models.Market, error) {
	start := models.WindowStart(now, l.windowDur)
	candidates := []time.Time{start, start.Add(l.windowDur)}

	var fetchErrs []error
	for _, ws := range candidates {
		slug := Slug(l.asset, l.window, ws)
		m, err := l.lookup(ctx, slug, ws.Add(l.windowDur))
		if err != nil {
			l.logger.Warn().Err(err).Str("slug", slug).Msg("market lookup failed")
			fetchErrs = append(fetchErrs, err)
			continue
		}
		if m == nil {
			l.logger.Debug().Str("slug", slug).Msg("market not listed or closed")
			continue
		}
		remaining := m.TimeRemaining(now)
		if remaining < l.minRemaining {
			l.logger.Info().
				Str("slug", slug).
				Dur("remaining", remaining).
				Dur("min_remaining", l.minRemaining).
				Msg("skipping market, too close to expiry")
			continue
		}
		return m, nil
	}

	if len(fetchErrs) == len(candidates) {
		return nil, fmt.Errorf("gamma: %w", errors.Join(fetchErrs...))
	}
	return nil, ErrNoMarket
}

// lookup fetches one event by slug. A nil market with nil error means the
// event is absent or closed.
func (l *Locator) lookup(ctx context.Context, slug string, fallbackEnd time.Time) (*models.Market, error) {
	q := url.Values{}
	q.Set("slug", slug)

	var events []gammaEvent
	if err := l.client.GetJSON(ctx, l.baseURL+"/events?"+q.Encode(), nil, &events); err != nil {
		return nil, err
	}
	if len(events) == 0 || events[0].Closed || len(events[0].Markets) == 0 {
		return nil, nil
	}
	ev := events[0]

	chosen := &ev.Markets[0]
	for i := range ev.Markets {
		if strings.TrimSpace(ev.Markets[i].Slug) == slug {
			chosen = &ev.Markets[i]
			break
		}
	}
	if chosen.Closed || (chosen.Active != nil && !*chosen.Active) {
		return nil, nil
	}

	end := parseTime(chosen.EndDate)
	if end.IsZero() {
		end = parseTime(ev.EndDate)
	}
	if end.IsZero() {
		end = fallbackEnd
	}

	yes, no := chosen.prices()
	return &models.Market{
		ID:       chosen.ID,
		Slug:     slug,
		Question: chosen.Question,
		EndTime:  end,
		YesPrice: yes,
		NoPrice:  no,
	}, nil
}

func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05Z0700"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
