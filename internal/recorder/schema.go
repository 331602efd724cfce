// internal/recorder/schema.go
package recorder

const schema = `
CREATE TABLE IF NOT EXISTS trades (
	id TEXT PRIMARY KEY,
	timestamp DATETIME NOT NULL,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	action TEXT NOT NULL,
	price REAL NOT NULL,
	size REAL NOT NULL,
	leverage INTEGER NOT NULL,
	commission REAL NOT NULL,
	gross_pnl REAL NOT NULL,
	net_pnl REAL NOT NULL,
	entry_price REAL NOT NULL,
	hold_seconds REAL NOT NULL,
	order_ref TEXT NOT NULL,
	paper_trade INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_timestamp ON trades(timestamp);

CREATE TABLE IF NOT EXISTS position_snapshots (
	time DATETIME NOT NULL,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	size REAL NOT NULL,
	entry_price REAL NOT NULL,
	mark_price REAL NOT NULL,
	leverage INTEGER NOT NULL,
	unrealized_pnl REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_position_snapshots_time ON position_snapshots(time);

CREATE TABLE IF NOT EXISTS balance_snapshots (
	time DATETIME NOT NULL,
	asset TEXT NOT NULL,
	balance REAL NOT NULL,
	available REAL NOT NULL,
	total_margin REAL NOT NULL,
	total_unrealized_pnl REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_balance_snapshots_time ON balance_snapshots(time);

CREATE TABLE IF NOT EXISTS trading_stats (
	date TEXT PRIMARY KEY,
	total_trades INTEGER NOT NULL,
	winning_trades INTEGER NOT NULL,
	total_commission REAL NOT NULL,
	total_volume REAL NOT NULL,
	period_pnl REAL NOT NULL
);
`
