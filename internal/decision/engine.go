// Package decision turns a momentum signal and a fast market quote into a
// trade decision. Everything here is a pure function of its inputs.
package decision

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Alias1177/fastloop/models"
)

const (
	// SmartSizingPct is the share of the account balance risked per trade.
	SmartSizingPct = 0.05
	// MinSharesPerOrder is the venue's minimum contract quantity.
	MinSharesPerOrder = 5
	// Midpoint is the fair-coin price of a binary contract.
	Midpoint = 0.50
)

// Params are the tunables the engine reads from the configuration.
type Params struct {
	EntryThreshold   float64
	MinMomentumPct   float64
	MaxPosition      float64
	MinTimeRemaining time.Duration
	VolumeWeighted   bool
	SizingPct        float64
	MinShares        float64
}

// ParamsFromConfig builds engine parameters with the package defaults for
// sizing and minimum order size.
func ParamsFromConfig(cfg models.Config) Params {
	return Params{
		EntryThreshold:   cfg.EntryThreshold,
		MinMomentumPct:   cfg.MinMomentumPct,
		MaxPosition:      cfg.MaxPosition,
		MinTimeRemaining: cfg.MinTimeRemainingDuration(),
		VolumeWeighted:   cfg.VolumeConfidence,
		SizingPct:        SmartSizingPct,
		MinShares:        MinSharesPerOrder,
	}
}

// Input is one signal/market pair to decide on. Balance is only used when
// BalanceKnown is set; otherwise sizing falls back to MaxPosition.
type Input struct {
	Signal       models.Signal
	Market       models.Market
	Balance      float64
	BalanceKnown bool
	Now          time.Time
}

// Decide returns the action for in. Malformed inputs yield ActionNone with a
// reason; it never panics.
func Decide(p Params, in Input) models.Decision {
	sig, mkt := in.Signal, in.Market

	if !sig.Valid() {
		reason := "invalid signal"
		if sig.Reason != "" {
			reason += ": " + sig.Reason
		}
		return none(reason)
	}
	if !isPrice(mkt.YesPrice) {
		return none(fmt.Sprintf("invalid market price %v", mkt.YesPrice))
	}

	if remaining := mkt.TimeRemaining(in.Now); remaining < p.MinTimeRemaining {
		return none(fmt.Sprintf("market expires in %s, below minimum %s",
			remaining.Round(time.Second), p.MinTimeRemaining))
	}

	if math.Abs(sig.MomentumPct) <= p.MinMomentumPct {
		return none(fmt.Sprintf("momentum %.3f%% within threshold %.3f%%", sig.MomentumPct, p.MinMomentumPct))
	}

	yes := decimal.NewFromFloat(mkt.YesPrice)
	mid := decimal.NewFromFloat(Midpoint)
	threshold := decimal.NewFromFloat(p.EntryThreshold)
	divergence := yes.Sub(mid).Abs()

	if divergence.LessThanOrEqual(threshold) {
		d := none(fmt.Sprintf("divergence %s not above entry threshold %s",
			divergence.StringFixed(3), threshold.StringFixed(3)))
		d.Divergence = divergence.InexactFloat64()
		return d
	}

	var side models.Side
	switch {
	case sig.MomentumPct > 0 && yes.LessThan(mid.Add(threshold)):
		side = models.SideYes
	case sig.MomentumPct < 0 && yes.GreaterThan(mid.Sub(threshold)):
		side = models.SideNo
	default:
		// Momentum and price point in different directions: the move is
		// already priced in, or the market leans against it.
		d := none(fmt.Sprintf("momentum %.3f%% disagrees with yes price %s", sig.MomentumPct, yes.StringFixed(3)))
		d.Divergence = divergence.InexactFloat64()
		return d
	}

	price := sidePrice(side, mkt)
	amount, shares := Size(p, in, price)

	d := models.Decision{
		Side:       side,
		Amount:     amount.InexactFloat64(),
		Shares:     shares.InexactFloat64(),
		Price:      price.InexactFloat64(),
		Divergence: divergence.InexactFloat64(),
	}
	if shares.LessThan(decimal.NewFromFloat(p.MinShares)) {
		d.Action = models.ActionNone
		d.Reason = fmt.Sprintf("size too small: $%s buys %s shares, minimum %v",
			amount.StringFixed(2), shares.StringFixed(2), p.MinShares)
		return d
	}

	if side == models.SideYes {
		d.Action = models.ActionBuyYes
	} else {
		d.Action = models.ActionBuyNo
	}
	d.Reason = fmt.Sprintf("momentum %+.3f%%, yes price %s, divergence %s",
		sig.MomentumPct, yes.StringFixed(3), divergence.StringFixed(3))
	return d
}

// Size returns the dollar amount (rounded down to cents) and the share count
// (rounded down to hundredths) at price. Higher confidence never yields a
// smaller size.
func Size(p Params, in Input, price decimal.Decimal) (amount, shares decimal.Decimal) {
	amount = decimal.NewFromFloat(p.MaxPosition)
	if in.BalanceKnown {
		balance := decimal.Zero
		if isFinite(in.Balance) && in.Balance > 0 {
			balance = decimal.NewFromFloat(in.Balance)
		}
		amount = decimal.Min(amount, balance.Mul(decimal.NewFromFloat(p.SizingPct)))
	}
	if p.VolumeWeighted {
		conf := in.Signal.Confidence
		if conf < 0 {
			conf = 0
		}
		if conf > 1 {
			conf = 1
		}
		amount = amount.Mul(decimal.NewFromFloat(conf))
	}
	amount = amount.Truncate(2)
	if !price.IsPositive() {
		return amount, decimal.Zero
	}
	return amount, amount.Div(price).Truncate(2)
}

func sidePrice(side models.Side, m models.Market) decimal.Decimal {
	if side == models.SideYes {
		return decimal.NewFromFloat(m.YesPrice)
	}
	if isPrice(m.NoPrice) {
		return decimal.NewFromFloat(m.NoPrice)
	}
	return decimal.NewFromInt(1).Sub(decimal.NewFromFloat(m.YesPrice))
}

func none(reason string) models.Decision {
	return models.Decision{Action: models.ActionNone, Reason: reason}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// isPrice reports whether v is a usable binary contract price.
func isPrice(v float64) bool {
	return isFinite(v) && v > 0 && v < 1
}
