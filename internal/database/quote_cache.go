package database

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/optifolio/optifolio/internal/clients/yahoo"
)

const dateLayout = "2006-01-02"

// QuoteCache stores fetched daily closes so a failed provider call can fall
// back to the most recent local copy.
type QuoteCache struct {
	db  *DB
	log zerolog.Logger
}

// NewQuoteCache creates a quote cache backed by db.
func NewQuoteCache(db *DB, log zerolog.Logger) *QuoteCache {
	return &QuoteCache{
		db:  db,
		log: log.With().Str("component", "quote_cache").Logger(),
	}
}

// Put upserts a batch of daily bars for symbol.
func (c *QuoteCache) Put(symbol string, bars []yahoo.HistoricalPrice) error {
	tx, err := c.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO daily_prices (symbol, date, close, adj_close, volume)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(symbol, date) DO UPDATE SET
			close = excluded.close,
			adj_close = excluded.adj_close,
			volume = excluded.volume
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, bar := range bars {
		if _, err := stmt.Exec(symbol, bar.Date.Format(dateLayout), bar.Close, bar.AdjClose, bar.Volume); err != nil {
			return fmt.Errorf("failed to upsert %s@%s: %w", symbol, bar.Date.Format(dateLayout), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit upsert: %w", err)
	}

	c.log.Debug().Str("symbol", symbol).Int("bars", len(bars)).Msg("Cached daily prices")
	return nil
}

// Get returns cached daily bars for symbol over [start, end), ordered by date.
func (c *QuoteCache) Get(symbol string, start, end time.Time) ([]yahoo.HistoricalPrice, error) {
	rows, err := c.db.Conn().Query(`
		SELECT date, close, adj_close, volume
		FROM daily_prices
		WHERE symbol = ? AND date >= ? AND date < ?
		ORDER BY date ASC
	`, symbol, start.Format(dateLayout), end.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query quote cache: %w", err)
	}
	defer rows.Close()

	var bars []yahoo.HistoricalPrice
	for rows.Next() {
		var dateStr string
		var bar yahoo.HistoricalPrice

		if err := rows.Scan(&dateStr, &bar.Close, &bar.AdjClose, &bar.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan cached price: %w", err)
		}

		date, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("corrupt date %q in quote cache: %w", dateStr, err)
		}
		bar.Date = date

		bars = append(bars, bar)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cached prices: %w", err)
	}

	return bars, nil
}
