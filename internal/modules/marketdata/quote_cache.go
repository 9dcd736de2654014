package marketdata

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// QuoteSnapshot is the cached price map with its capture time.
type QuoteSnapshot struct {
	Prices  map[string]float64 `msgpack:"prices"`
	AsOf    time.Time          `msgpack:"as_of"`
	Tickers []string           `msgpack:"tickers"`
}

// QuoteCache stores serialized quote snapshots with a TTL so repeated
// rebalance previews within a short window reuse one valuation base.
type QuoteCache struct {
	db  *sql.DB
	ttl time.Duration
	log zerolog.Logger
}

// NewQuoteCache creates a quote cache with the given TTL.
func NewQuoteCache(db *sql.DB, ttl time.Duration, log zerolog.Logger) *QuoteCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &QuoteCache{
		db:  db,
		ttl: ttl,
		log: log.With().Str("component", "quote_cache").Logger(),
	}
}

// Get returns the cached snapshot under key, or nil when missing or expired.
func (c *QuoteCache) Get(key string) (*QuoteSnapshot, error) {
	var blob []byte
	var expires string
	err := c.db.QueryRow(`SELECT value, expires_at FROM quote_cache WHERE key = ?`, key).
		Scan(&blob, &expires)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query quote cache: %w", err)
	}

	expiresAt, err := time.Parse(time.RFC3339, expires)
	if err != nil || time.Now().After(expiresAt) {
		return nil, nil
	}

	var snap QuoteSnapshot
	if err := msgpack.Unmarshal(blob, &snap); err != nil {
		// A corrupt entry is treated as a miss, not a failure.
		c.log.Warn().Err(err).Str("key", key).Msg("Failed to unmarshal cached snapshot, dropping")
		return nil, nil
	}

	return &snap, nil
}

// Set stores a snapshot under key with the cache TTL.
func (c *QuoteCache) Set(key string, snap QuoteSnapshot) error {
	blob, err := msgpack.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal quote snapshot: %w", err)
	}

	expiresAt := time.Now().Add(c.ttl).UTC().Format(time.RFC3339)
	_, err = c.db.Exec(`
		INSERT INTO quote_cache (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, blob, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to store quote snapshot: %w", err)
	}

	return nil
}

// Purge removes expired cache entries.
func (c *QuoteCache) Purge() error {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := c.db.Exec(`DELETE FROM quote_cache WHERE expires_at < ?`, now)
	if err != nil {
		return fmt.Errorf("failed to purge quote cache: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		c.log.Debug().Int64("purged", n).Msg("Purged expired quote cache entries")
	}
	return nil
}
