package marketdata

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
)

// DailyPrice is a stored end-of-day price row.
type DailyPrice struct {
	Ticker string  `json:"ticker"`
	Date   string  `json:"date"` // YYYY-MM-DD
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// PriceRepository handles daily price database operations.
type PriceRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(db *sql.DB, log zerolog.Logger) *PriceRepository {
	return &PriceRepository{
		db:  db,
		log: log.With().Str("repo", "price").Logger(),
	}
}

// UpsertBars stores bars for a ticker, replacing rows on date conflict.
func (r *PriceRepository) UpsertBars(ticker string, bars []Bar) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin price transaction: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO daily_prices (ticker, date, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ticker, date) DO UPDATE SET
			open = excluded.open, high = excluded.high, low = excluded.low,
			close = excluded.close, volume = excluded.volume`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to prepare price upsert: %w", err)
	}
	defer stmt.Close()

	for _, bar := range bars {
		if _, err := stmt.Exec(ticker, bar.Date, bar.Open, bar.High, bar.Low, bar.Close, bar.Volume); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to upsert price %s/%s: %w", ticker, bar.Date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit price upsert: %w", err)
	}

	return nil
}

// GetDailyCloses returns close prices for a ticker in ascending date
// order, limited to the most recent limit rows (0 = no limit).
func (r *PriceRepository) GetDailyCloses(ticker string, limit int) ([]DailyPrice, error) {
	query := `SELECT ticker, date, open, high, low, close, volume FROM daily_prices WHERE ticker = ? ORDER BY date DESC`
	args := []interface{}{ticker}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query prices for %s: %w", ticker, err)
	}
	defer rows.Close()

	var prices []DailyPrice
	for rows.Next() {
		var p DailyPrice
		if err := rows.Scan(&p.Ticker, &p.Date, &p.Open, &p.High, &p.Low, &p.Close, &p.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan price row: %w", err)
		}
		prices = append(prices, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating prices: %w", err)
	}

	// Reverse to ascending date order.
	for i, j := 0, len(prices)-1; i < j; i, j = i+1, j-1 {
		prices[i], prices[j] = prices[j], prices[i]
	}

	return prices, nil
}

// LatestCloses returns the most recent close per ticker as a price map,
// the shape the rebalancing engine consumes. Tickers with no stored
// prices are simply absent.
func (r *PriceRepository) LatestCloses(tickers []string) (map[string]float64, error) {
	prices := make(map[string]float64)

	for _, ticker := range tickers {
		var close float64
		err := r.db.QueryRow(
			`SELECT close FROM daily_prices WHERE ticker = ? ORDER BY date DESC LIMIT 1`, ticker).
			Scan(&close)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query latest close for %s: %w", ticker, err)
		}
		prices[ticker] = close
	}

	return prices, nil
}
