package trading

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/fastloop/internal/journal"
	"github.com/Alias1177/fastloop/models"
)

// journalTimeout bounds the fire-and-forget journal call.
const journalTimeout = 10 * time.Second

// OrderAPI is the part of the trading API the executor needs.
type OrderAPI interface {
	ImportMarket(ctx context.Context, polymarketURL string) (string, error)
	Trade(ctx context.Context, req TradeRequest) (*TradeResponse, error)
}

// Executor turns decisions into orders. In dry-run mode it only prints what it
// would do.
type Executor struct {
	api     OrderAPI
	journal journal.Journal
	live    bool
	out     io.Writer
	logger  zerolog.Logger
	now     func() time.Time
}

// NewExecutor returns an executor. A nil journal means no journaling.
func NewExecutor(api OrderAPI, j journal.Journal, live bool, out io.Writer) *Executor {
	if j == nil {
		j = journal.Nop{}
	}
	return &Executor{
		api:     api,
		journal: j,
		live:    live,
		out:     out,
		logger:  log.With().Str("component", "executor").Logger(),
		now:     time.Now,
	}
}

// Execute places the order described by d. Decisions that do not trade are
// ignored. Dry runs never fail.
func (e *Executor) Execute(ctx context.Context, m models.Market, sig models.Signal, d models.Decision) (*models.TradeResult, error) {
	if !d.Trade() {
		return nil, nil
	}
	side := strings.ToUpper(string(d.Side))

	if !e.live {
		fmt.Fprintf(e.out, "[DRY RUN] Would buy %s $%.2f (~%.2f shares @ %.3f) on %q\n",
			side, d.Amount, d.Shares, d.Price, m.Question)
		return &models.TradeResult{MarketID: m.ID, SharesBought: d.Shares, DryRun: true}, nil
	}

	marketID, err := e.api.ImportMarket(ctx, m.URL())
	if err != nil {
		e.logger.Error().Err(err).Str("slug", m.Slug).Msg("market import failed")
		return nil, err
	}

	resp, err := e.api.Trade(ctx, TradeRequest{
		MarketID: marketID,
		Side:     d.Side,
		Amount:   d.Amount,
	})
	if err != nil {
		e.logger.Error().Err(err).Str("market_id", marketID).Str("side", side).Float64("amount", d.Amount).Msg("order failed")
		return nil, err
	}

	shares := resp.SharesBought
	if shares == 0 {
		shares = d.Shares
	}
	fmt.Fprintf(e.out, "Bought %s $%.2f (%.2f shares @ %.3f) on %q, trade %s\n",
		side, d.Amount, shares, d.Price, m.Question, resp.TradeID)
	e.logger.Info().Str("trade_id", resp.TradeID).Str("market_id", marketID).Str("side", side).Float64("amount", d.Amount).Msg("order filled")

	e.record(ctx, journal.Entry{
		Time:        e.now().UTC(),
		MarketID:    marketID,
		Slug:        m.Slug,
		Question:    m.Question,
		Side:        d.Side,
		Amount:      d.Amount,
		Shares:      shares,
		Price:       d.Price,
		MomentumPct: sig.MomentumPct,
		Confidence:  sig.Confidence,
		TradeID:     resp.TradeID,
		Source:      Source,
	})

	return &models.TradeResult{TradeID: resp.TradeID, MarketID: marketID, SharesBought: shares}, nil
}

// record journals a trade. Failures are logged and never returned.
func (e *Executor) record(ctx context.Context, entry journal.Entry) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalTimeout)
	defer cancel()
	if err := e.journal.LogTrade(ctx, entry); err != nil {
		e.logger.Warn().Err(err).Str("trade_id", entry.TradeID).Msg("trade journal failed")
	}
}
