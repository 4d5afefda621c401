package credentials

import (
    "context"
    "database/sql"
)

// Schema creates the credentials table when it does not exist.
const Schema = `
CREATE TABLE IF NOT EXISTS gateway_credentials (
    gateway    text NOT NULL,
    key        text NOT NULL,
    value      text NOT NULL,
    created_at timestamptz NOT NULL DEFAULT now(),
    PRIMARY KEY (gateway, key)
)`

func Migrate(ctx context.Context, db *sql.DB) error {
    _, err := db.ExecContext(ctx, Schema)
    return err
}
