package database

// schemas maps database names to their DDL. Kept in source rather than
// on disk so migrations work regardless of working directory.
var schemas = map[string]string{
	"portfolio": portfolioSchema,
	"market":    marketSchema,
}

const portfolioSchema = `
CREATE TABLE IF NOT EXISTS holdings (
    ticker        TEXT PRIMARY KEY,
    target_weight REAL NOT NULL DEFAULT 0,
    created_at    TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS lots (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    ticker        TEXT NOT NULL REFERENCES holdings(ticker) ON DELETE CASCADE,
    shares        REAL NOT NULL,
    cost_basis    REAL NOT NULL,
    purchase_date TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_lots_ticker ON lots(ticker);

CREATE TABLE IF NOT EXISTS executed_trades (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    ticker      TEXT NOT NULL,
    shares      REAL NOT NULL,
    amount      REAL NOT NULL,
    tax_cost    REAL NOT NULL DEFAULT 0,
    executed_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_executed_trades_ticker ON executed_trades(ticker);
`

const marketSchema = `
CREATE TABLE IF NOT EXISTS daily_prices (
    ticker TEXT NOT NULL,
    date   TEXT NOT NULL,
    open   REAL,
    high   REAL,
    low    REAL,
    close  REAL NOT NULL,
    volume REAL,
    PRIMARY KEY (ticker, date)
);

CREATE INDEX IF NOT EXISTS idx_daily_prices_date ON daily_prices(date);

CREATE TABLE IF NOT EXISTS quote_cache (
    key        TEXT PRIMARY KEY,
    value      BLOB NOT NULL,
    expires_at TEXT NOT NULL
);
`
