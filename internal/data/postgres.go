package data

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/tdmkt/tdseq/internal/domain/demark"
)

// PostgresSource loads bar series from a candle table, ordered by timestamp.
// Queries run behind a circuit breaker so a degraded database fails fast
// instead of stalling every scan.
type PostgresSource struct {
	db      *sqlx.DB
	table   string
	breaker *gobreaker.CircuitBreaker
	log     zerolog.Logger
}

// NewPostgresSource opens a connection pool against the given DSN.
func NewPostgresSource(dsn, table string, log zerolog.Logger) (*PostgresSource, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return NewPostgresSourceFromDB(db, table, log), nil
}

// NewPostgresSourceFromDB wraps an existing connection pool; used by tests.
func NewPostgresSourceFromDB(db *sqlx.DB, table string, log zerolog.Logger) *PostgresSource {
	settings := gobreaker.Settings{
		Name:    "postgres_bars",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).
				Str("from", from.String()).Str("to", to.String()).
				Msg("bar source circuit state changed")
		},
	}
	return &PostgresSource{
		db:      db,
		table:   table,
		breaker: gobreaker.NewCircuitBreaker(settings),
		log:     log,
	}
}

type barRow struct {
	Open  float64 `db:"open"`
	High  float64 `db:"high"`
	Low   float64 `db:"low"`
	Close float64 `db:"close"`
}

// Bars implements Source.
func (s *PostgresSource) Bars(ctx context.Context, symbol string) ([]demark.Bar, error) {
	query := fmt.Sprintf(
		`SELECT open, high, low, close FROM %s WHERE symbol = $1 ORDER BY ts ASC`, s.table)

	result, err := s.breaker.Execute(func() (interface{}, error) {
		var rows []barRow
		if err := s.db.SelectContext(ctx, &rows, query, symbol); err != nil {
			return nil, err
		}
		return rows, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load bars for %s: %w", symbol, err)
	}

	rows := result.([]barRow)
	bars := make([]demark.Bar, len(rows))
	for i, r := range rows {
		bars[i] = demark.Bar{Open: r.Open, High: r.High, Low: r.Low, Close: r.Close}
	}
	s.log.Debug().Str("symbol", symbol).Int("bars", len(bars)).Msg("loaded bar series")
	return bars, nil
}

// Close releases the connection pool.
func (s *PostgresSource) Close() error { return s.db.Close() }
