package journal

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// Postgres stores entries in the fastloop_trades table.
type Postgres struct {
	db *sql.DB
}

// OpenPostgres connects with dsn and creates the table if it does not exist.
func OpenPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}

	// Check connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping journal db: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create journal table: %w", err)
	}

	return &Postgres{db: db}, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS fastloop_trades (
			id BIGSERIAL PRIMARY KEY,
			traded_at TIMESTAMPTZ NOT NULL,
			market_id TEXT NOT NULL,
			slug TEXT,
			question TEXT,
			side TEXT NOT NULL,
			amount NUMERIC NOT NULL,
			shares NUMERIC NOT NULL,
			price NUMERIC NOT NULL,
			momentum_pct DOUBLE PRECISION,
			confidence DOUBLE PRECISION,
			trade_id TEXT,
			source TEXT
		)
	`)
	return err
}

func (p *Postgres) LogTrade(ctx context.Context, e Entry) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO fastloop_trades (
			traded_at, market_id, slug, question, side, amount, shares, price,
			momentum_pct, confidence, trade_id, source
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		e.Time, e.MarketID, e.Slug, e.Question, string(e.Side), e.Amount, e.Shares, e.Price,
		e.MomentumPct, e.Confidence, e.TradeID, e.Source)
	if err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

// countTrades returns how many entries are stored for marketID.
func (p *Postgres) countTrades(ctx context.Context, marketID string) (int, error) {
	var n int
	err := p.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM fastloop_trades WHERE market_id = $1`, marketID).Scan(&n)
	return n, err
}

func (p *Postgres) Close() error {
	return p.db.Close()
}
