package trading

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Alias1177/fastloop/models"
)

// PositionLister is the part of the trading API the reporter needs.
type PositionLister interface {
	Positions(ctx context.Context) ([]models.Position, error)
}

var assetNames = map[string]string{
	"BTC": "bitcoin",
	"ETH": "ethereum",
	"SOL": "solana",
	"XRP": "xrp",
}

// FastMarketPositions keeps open positions in fast up/down markets for asset.
func FastMarketPositions(positions []models.Position, asset string) []models.Position {
	name := assetNames[strings.ToUpper(asset)]
	var out []models.Position
	for _, p := range positions {
		q := strings.ToLower(p.Question)
		if !strings.Contains(q, "up or down") {
			continue
		}
		if name != "" && !strings.Contains(q, name) {
			continue
		}
		if p.SharesYes <= 0 && p.SharesNo <= 0 {
			continue
		}
		switch strings.ToLower(p.Status) {
		case "", "active", "open":
		default:
			continue
		}
		out = append(out, p)
	}
	return out
}

// Reporter prints open fast-market positions.
type Reporter struct {
	api   PositionLister
	asset string
	out   io.Writer
}

// NewReporter returns a Reporter that prints asset positions to out.
func NewReporter(api PositionLister, asset string, out io.Writer) *Reporter {
	return &Reporter{api: api, asset: asset, out: out}
}

// Report fetches and prints positions. It returns the number printed.
func (r *Reporter) Report(ctx context.Context) (int, error) {
	all, err := r.api.Positions(ctx)
	if err != nil {
		return 0, err
	}
	positions := FastMarketPositions(all, r.asset)
	if len(positions) == 0 {
		fmt.Fprintf(r.out, "No open %s fast market positions\n", strings.ToUpper(r.asset))
		return 0, nil
	}

	fmt.Fprintf(r.out, "Open %s fast market positions:\n", strings.ToUpper(r.asset))
	var value, pnl float64
	for _, p := range positions {
		fmt.Fprintf(r.out, "- %s\n  YES %.2f | NO %.2f | value $%.2f | P&L %+.2f\n",
			p.Question, p.SharesYes, p.SharesNo, p.CurrentValue, p.PnL)
		value += p.CurrentValue
		pnl += p.PnL
	}
	fmt.Fprintf(r.out, "Total: %d positions, value $%.2f, P&L %+.2f\n", len(positions), value, pnl)
	return len(positions), nil
}
