// Package journal records executed trades. The sink is chosen at startup;
// by default nothing is recorded.
package journal

import (
	"context"
	"errors"
	"time"

	"github.com/Alias1177/fastloop/models"
)

// Entry is one executed trade.
type Entry struct {
	Time        time.Time   `json:"time"`
	MarketID    string      `json:"market_id"`
	Slug        string      `json:"slug"`
	Question    string      `json:"question"`
	Side        models.Side `json:"side"`
	Amount      float64     `json:"amount"`
	Shares      float64     `json:"shares"`
	Price       float64     `json:"price"`
	MomentumPct float64     `json:"momentum_pct"`
	Confidence  float64     `json:"confidence"`
	TradeID     string      `json:"trade_id"`
	Source      string      `json:"source"`
}

// Journal records trades.
type Journal interface {
	LogTrade(ctx context.Context, e Entry) error
	Close() error
}

// Nop discards every entry.
type Nop struct{}

func (Nop) LogTrade(context.Context, Entry) error { return nil }
func (Nop) Close() error                          { return nil }

// Multi fans an entry out to every sink and joins their errors.
type Multi []Journal

// NewMulti drops nil sinks and returns Nop when none remain.
func NewMulti(sinks ...Journal) Journal {
	var m Multi
	for _, s := range sinks {
		if s != nil {
			m = append(m, s)
		}
	}
	switch len(m) {
	case 0:
		return Nop{}
	case 1:
		return m[0]
	}
	return m
}

func (m Multi) LogTrade(ctx context.Context, e Entry) error {
	var errs []error
	for _, s := range m {
		if err := s.LogTrade(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FromConfig opens the file and Postgres sinks the configuration asks for.
// A sink that fails to open is reported in the error; the sinks that did open
// are still returned.
func FromConfig(cfg models.Config) ([]Journal, error) {
	var sinks []Journal
	if cfg.JournalPath != "" {
		sinks = append(sinks, NewFile(cfg.JournalPath))
	}
	if cfg.JournalDSN != "" {
		pg, err := OpenPostgres(cfg.JournalDSN)
		if err != nil {
			return sinks, err
		}
		sinks = append(sinks, pg)
	}
	return sinks, nil
}
