// Package runner wires feed, signal, market locator, decision engine and
// executor into one trading cycle.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/fastloop/internal/decision"
	"github.com/Alias1177/fastloop/internal/market"
	"github.com/Alias1177/fastloop/internal/signal"
	"github.com/Alias1177/fastloop/internal/trading"
	"github.com/Alias1177/fastloop/models"
)

// BalanceSource reports the tradeable account balance.
type BalanceSource interface {
	Balance(ctx context.Context) (float64, error)
}

// OrderExecutor carries out a decision.
type OrderExecutor interface {
	Execute(ctx context.Context, m models.Market, sig models.Signal, d models.Decision) (*models.TradeResult, error)
}

// Deps are the collaborators of a Runner. Balance may be nil, in which case
// sizing uses the configured maximum position.
type Deps struct {
	Feed     models.CandleSource
	Markets  models.MarketFinder
	Balance  BalanceSource
	Executor OrderExecutor
	Out      io.Writer
	Now      func() time.Time
}

// Result summarizes one cycle.
type Result struct {
	Signal   models.Signal
	Market   *models.Market
	Decision models.Decision
	Trade    *models.TradeResult
}

// Runner executes trading cycles.
type Runner struct {
	cfg    models.Config
	params decision.Params
	deps   Deps
	quiet  bool
	logger zerolog.Logger
}

// New returns a Runner. When quiet is set, only trades reach Out.
func New(cfg models.Config, deps Deps, quiet bool) *Runner {
	if deps.Out == nil {
		deps.Out = io.Discard
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Runner{
		cfg:    cfg,
		params: decision.ParamsFromConfig(cfg),
		deps:   deps,
		quiet:  quiet,
		logger: log.With().Str("component", "runner").Str("asset", cfg.Asset).Str("window", cfg.Window).Logger(),
	}
}

// RunOnce runs a single fetch -> decide -> act cycle. Only a failed price feed
// or an order the venue rejected is returned as an error. A missing or
// unreachable market, or an order that could not be sent, is logged and ends
// the cycle without trading.
func (r *Runner) RunOnce(ctx context.Context) (*Result, error) {
	res := &Result{Decision: models.Decision{Action: models.ActionNone}}

	count := models.CandlesForLookback(r.cfg.LookbackMinutes, r.cfg.VolumeConfidence)
	candles, err := r.deps.Feed.Candles(ctx, r.cfg.Asset, count)
	if err != nil {
		r.logger.Error().Err(err).Msg("price feed unavailable")
		return res, fmt.Errorf("price feed: %w", err)
	}

	sig := signal.Momentum(candles, r.cfg.LookbackMinutes, r.cfg.VolumeConfidence)
	sig.Source = r.deps.Feed.Name()
	res.Signal = sig
	if sig.Valid() {
		r.printf("%s momentum %+.3f%% over %dm (confidence %.2f, price %.2f)\n",
			r.cfg.Asset, sig.MomentumPct, r.cfg.LookbackMinutes, sig.Confidence, sig.Price)
	} else {
		r.logger.Warn().Str("reason", sig.Reason).Msg("no usable momentum signal")
	}

	now := r.deps.Now()
	m, err := r.deps.Markets.FindMarket(ctx, now)
	if err != nil {
		if errors.Is(err, market.ErrNoMarket) {
			r.logger.Info().Msg("no tradeable fast market right now")
			r.printf("No tradeable %s %s market right now\n", r.cfg.Asset, r.cfg.Window)
		} else {
			r.logger.Error().Err(err).Msg("market lookup failed")
		}
		res.Decision.Reason = err.Error()
		return res, nil
	}
	res.Market = m
	r.printf("Market %q: YES %.3f / NO %.3f, %s left\n",
		m.Question, m.YesPrice, m.NoPrice, m.TimeRemaining(now).Round(time.Second))

	in := decision.Input{Signal: sig, Market: *m, Now: now}
	if r.deps.Balance != nil {
		bal, err := r.deps.Balance.Balance(ctx)
		if err != nil {
			r.logger.Warn().Err(err).Msg("balance unavailable, sizing from max position")
		} else {
			in.Balance, in.BalanceKnown = bal, true
		}
	}

	d := decision.Decide(r.params, in)
	res.Decision = d
	if !d.Trade() {
		r.logger.Info().Str("reason", d.Reason).Msg("no trade")
		r.printf("No trade: %s\n", d.Reason)
		return res, nil
	}
	r.logger.Info().
		Str("action", string(d.Action)).
		Float64("amount", d.Amount).
		Float64("shares", d.Shares).
		Float64("price", d.Price).
		Msg("trade signal")

	trade, err := r.deps.Executor.Execute(ctx, *m, sig, d)
	res.Trade = trade
	if err != nil {
		if errors.Is(err, trading.ErrOrderRejected) {
			return res, err
		}
		r.logger.Error().Err(err).Msg("order not placed")
		r.printf("Order not placed: %v\n", err)
		return res, nil
	}
	return res, nil
}

func (r *Runner) printf(format string, args ...any) {
	if r.quiet {
		return
	}
	fmt.Fprintf(r.deps.Out, format, args...)
}
