package models

import (
	"math"
	"time"
)

// Config holds the resolved trader configuration. It is built once at startup
// and never mutated afterwards.
type Config struct {
	EntryThreshold   float64 `json:"entry_threshold"`
	MinMomentumPct   float64 `json:"min_momentum_pct"`
	MaxPosition      float64 `json:"max_position"`
	SignalSource     string  `json:"signal_source"`
	LookbackMinutes  int     `json:"lookback_minutes"`
	MinTimeRemaining int     `json:"min_time_remaining"` // seconds
	Asset            string  `json:"asset"`
	Window           string  `json:"window"`
	VolumeConfidence bool    `json:"volume_confidence"`
	Schedule         string  `json:"schedule"`

	APIKey         string `json:"-"`
	APIURL         string `json:"-"`
	GammaURL       string `json:"-"`
	LogLevel       string `json:"-"`
	RequestTimeout int    `json:"-"` // seconds
	JournalPath    string `json:"-"`
	JournalDSN     string `json:"-"`
	TelegramToken  string `json:"-"`
	TelegramChatID int64  `json:"-"`
}

// MinTimeRemainingDuration returns MinTimeRemaining as a time.Duration.
func (c Config) MinTimeRemainingDuration() time.Duration {
	return time.Duration(c.MinTimeRemaining) * time.Second
}

// Candle represents a single one-minute price candle, oldest first in a series.
// Fields a feed could not parse are NaN.
type Candle struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Signal is the momentum reading for one cycle.
type Signal struct {
	Source      string  `json:"source"`
	Price       float64 `json:"price"`
	MomentumPct float64 `json:"momentum_pct"`
	Confidence  float64 `json:"confidence"` // 0..1
	VolumeRatio float64 `json:"volume_ratio,omitempty"`
	Reason      string  `json:"reason,omitempty"`
}

// Valid reports whether the signal carries usable numbers.
func (s Signal) Valid() bool {
	return !math.IsNaN(s.MomentumPct) && !math.IsInf(s.MomentumPct, 0) &&
		!math.IsNaN(s.Confidence)
}

// Market is an open fast up/down contract. YES pays out when the asset closes
// the window higher.
type Market struct {
	ID       string    `json:"id"`
	Slug     string    `json:"slug"`
	Question string    `json:"question"`
	EndTime  time.Time `json:"end_time"`
	YesPrice float64   `json:"yes_price"`
	NoPrice  float64   `json:"no_price"`
}

// TimeRemaining returns how long the market has left at now.
func (m Market) TimeRemaining(now time.Time) time.Duration {
	return m.EndTime.Sub(now)
}

// URL returns the public Polymarket event page for the market.
func (m Market) URL() string {
	return "https://polymarket.com/event/" + m.Slug
}

// Side is the outcome being bought.
type Side string

const (
	SideYes Side = "yes"
	SideNo  Side = "no"
)

// Action is what the decision engine settled on.
type Action string

const (
	ActionNone   Action = "none"
	ActionBuyYes Action = "buy_yes"
	ActionBuyNo  Action = "buy_no"
)

// Decision is the output of the decision engine for one signal/market pair.
type Decision struct {
	Action     Action  `json:"action"`
	Side       Side    `json:"side,omitempty"`
	Amount     float64 `json:"amount"` // USD
	Shares     float64 `json:"shares"`
	Price      float64 `json:"price"`
	Divergence float64 `json:"divergence"`
	Reason     string  `json:"reason"`
}

// Trade reports whether the decision asks for an order.
func (d Decision) Trade() bool {
	return d.Action == ActionBuyYes || d.Action == ActionBuyNo
}

// Position is an open holding reported by the trading API.
type Position struct {
	MarketID     string  `json:"market_id"`
	Question     string  `json:"question"`
	SharesYes    float64 `json:"shares_yes"`
	SharesNo     float64 `json:"shares_no"`
	CurrentValue float64 `json:"current_value"`
	PnL          float64 `json:"pnl"`
	Status       string  `json:"status"`
}

// TradeResult is what the venue returned for a submitted order.
type TradeResult struct {
	TradeID      string  `json:"trade_id"`
	MarketID     string  `json:"market_id"`
	SharesBought float64 `json:"shares_bought"`
	DryRun       bool    `json:"dry_run"`
}
