package sqlstore

import "database/sql"

// schema sets up the database. It is valid for both SQLite and PostgreSQL and
// runs on every startup.
// Tables are ordered so that foreign key targets exist first.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    display_name TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    payout_account_id TEXT NOT NULL DEFAULT '',
    created_at BIGINT NOT NULL,
    updated_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS splits (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    total_amount_cents BIGINT NOT NULL,
    creator_id TEXT NOT NULL,
    status TEXT NOT NULL,
    created_at BIGINT NOT NULL,
    FOREIGN KEY (creator_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS split_items (
    id TEXT PRIMARY KEY,
    split_id TEXT NOT NULL,
    item_index INTEGER NOT NULL,
    name TEXT NOT NULL,
    quantity DOUBLE PRECISION NOT NULL,
    unit_price_cents BIGINT NOT NULL,
    total_price_cents BIGINT NOT NULL,
    claimed_quantity DOUBLE PRECISION NOT NULL DEFAULT 0,
    UNIQUE (split_id, item_index),
    FOREIGN KEY (split_id) REFERENCES splits(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS payment_links (
    id TEXT PRIMARY KEY,
    split_id TEXT NOT NULL,
    short_code TEXT NOT NULL UNIQUE,
    created_by TEXT NOT NULL,
    created_at BIGINT NOT NULL,
    expires_at BIGINT NOT NULL,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    FOREIGN KEY (split_id) REFERENCES splits(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS item_claims (
    id TEXT PRIMARY KEY,
    split_id TEXT NOT NULL,
    payment_link_id TEXT NOT NULL DEFAULT '',
    item_index INTEGER NOT NULL,
    item_name TEXT NOT NULL,
    amount_cents BIGINT NOT NULL,
    claimant_name TEXT NOT NULL,
    claimant_email TEXT NOT NULL,
    quantity_claimed DOUBLE PRECISION NOT NULL,
    share_count INTEGER NOT NULL DEFAULT 1,
    created_at BIGINT NOT NULL,
    UNIQUE (split_id, item_index, claimant_email),
    FOREIGN KEY (split_id) REFERENCES splits(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS payments (
    id TEXT PRIMARY KEY,
    split_id TEXT NOT NULL,
    payment_link_id TEXT NOT NULL,
    payer_name TEXT NOT NULL,
    payer_email TEXT NOT NULL,
    amount_cents BIGINT NOT NULL,
    platform_fee_cents BIGINT NOT NULL,
    currency TEXT NOT NULL,
    intent_id TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    recipient_user_id TEXT NOT NULL,
    created_at BIGINT NOT NULL,
    updated_at BIGINT NOT NULL,
    FOREIGN KEY (split_id) REFERENCES splits(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS payment_claims (
    payment_id TEXT NOT NULL,
    item_index INTEGER NOT NULL,
    item_name TEXT NOT NULL,
    amount_cents BIGINT NOT NULL,
    quantity_claimed DOUBLE PRECISION NOT NULL,
    share_count INTEGER NOT NULL,
    PRIMARY KEY (payment_id, item_index),
    FOREIGN KEY (payment_id) REFERENCES payments(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_splits_creator_id ON splits(creator_id);
CREATE INDEX IF NOT EXISTS idx_split_items_split_id ON split_items(split_id);
CREATE INDEX IF NOT EXISTS idx_payment_links_split_id ON payment_links(split_id);
CREATE INDEX IF NOT EXISTS idx_item_claims_split_id ON item_claims(split_id);
CREATE INDEX IF NOT EXISTS idx_payments_split_id ON payments(split_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
