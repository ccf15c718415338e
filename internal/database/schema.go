package database

// Schema holds the full relational schema. The trades table is the
// append-only ledger and is never updated or deleted from; holdings is
// a derived projection rebuilt wholesale from trades.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY,
    email TEXT UNIQUE NOT NULL,
    password_digest TEXT NOT NULL,
    first_name TEXT NOT NULL,
    middle_name TEXT,
    last_name TEXT NOT NULL,
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS brokerage_accounts (
    id INTEGER PRIMARY KEY,
    owner_user_id INTEGER NOT NULL REFERENCES users(id),
    account_number TEXT NOT NULL,
    account_type TEXT NOT NULL DEFAULT 'TAXABLE',
    brokerage_name TEXT NOT NULL,
    base_currency TEXT NOT NULL DEFAULT 'USD',
    nickname TEXT,
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS portfolios (
    id INTEGER PRIMARY KEY,
    owner_user_id INTEGER NOT NULL REFERENCES users(id),
    name TEXT NOT NULL,
    base_currency TEXT NOT NULL DEFAULT 'USD',
    brokerage_account_id INTEGER REFERENCES brokerage_accounts(id),
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS securities (
    id INTEGER PRIMARY KEY,
    ticker TEXT NOT NULL,
    exchange TEXT NOT NULL DEFAULT 'UNKNOWN',
    currency TEXT NOT NULL DEFAULT 'USD',
    sec_type TEXT NOT NULL DEFAULT 'STOCK',
    sector TEXT,
    industry TEXT,
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS security_tags (
    security_id INTEGER NOT NULL REFERENCES securities(id),
    tag TEXT NOT NULL,
    PRIMARY KEY (security_id, tag)
);

CREATE TABLE IF NOT EXISTS trades (
    id INTEGER PRIMARY KEY,
    portfolio_id INTEGER NOT NULL REFERENCES portfolios(id),
    security_id INTEGER NOT NULL REFERENCES securities(id),
    kind TEXT NOT NULL CHECK (kind IN ('BUY','SELL','DIVIDEND')),
    trade_date TEXT NOT NULL,
    settle_date TEXT NOT NULL,
    quantity REAL NOT NULL CHECK (quantity >= 0),
    unit_price REAL NOT NULL CHECK (unit_price >= 0),
    fees REAL NOT NULL DEFAULT 0 CHECK (fees >= 0),
    trade_currency TEXT NOT NULL,
    notes TEXT,
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_portfolio ON trades(portfolio_id, security_id);
CREATE INDEX IF NOT EXISTS idx_trades_date ON trades(trade_date);

CREATE TABLE IF NOT EXISTS price_snapshots (
    id INTEGER PRIMARY KEY,
    security_id INTEGER NOT NULL REFERENCES securities(id),
    snapshot_time TEXT NOT NULL,
    open_price REAL NOT NULL,
    high_price REAL NOT NULL,
    low_price REAL NOT NULL,
    close_price REAL NOT NULL,
    volume INTEGER NOT NULL DEFAULT 0,
    source TEXT NOT NULL DEFAULT 'Manual',
    interval_code TEXT NOT NULL DEFAULT '1D',
    UNIQUE (security_id, snapshot_time)
);

CREATE INDEX IF NOT EXISTS idx_price_snapshots_latest ON price_snapshots(security_id, snapshot_time DESC);

CREATE TABLE IF NOT EXISTS holdings (
    portfolio_id INTEGER NOT NULL REFERENCES portfolios(id),
    security_id INTEGER NOT NULL REFERENCES securities(id),
    avg_cost_basis REAL NOT NULL,
    rebuilt_at TEXT NOT NULL,
    PRIMARY KEY (portfolio_id, security_id)
);
`
