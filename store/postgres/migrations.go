package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the HookFreight store. It can
// be registered with the grove extension for orchestrated migration
// management (locking, version tracking, rollback support).
var Migrations = migrate.NewGroup("hookfreight")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_hookfreight_apps",
			Version: "20260101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS hookfreight_apps (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS hookfreight_apps`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_hookfreight_endpoints",
			Version: "20260101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS hookfreight_endpoints (
    id                 TEXT PRIMARY KEY,
    app_id             TEXT NOT NULL,
    hook_token         TEXT NOT NULL UNIQUE,
    forward_url        TEXT NOT NULL DEFAULT '',
    forwarding_enabled BOOLEAN NOT NULL DEFAULT TRUE,
    auth_header_name   TEXT NOT NULL DEFAULT '',
    auth_header_value  TEXT NOT NULL DEFAULT '',
    http_timeout_ms    INT NOT NULL DEFAULT 0,
    is_active          BOOLEAN NOT NULL DEFAULT TRUE,
    created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_hookfreight_endpoints_app ON hookfreight_endpoints (app_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS hookfreight_endpoints`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_hookfreight_events",
			Version: "20260101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS hookfreight_events (
    id           TEXT PRIMARY KEY,
    seq          BIGSERIAL,
    endpoint_id  TEXT NOT NULL,
    received_at  TIMESTAMPTZ NOT NULL,
    method       TEXT NOT NULL,
    original_url TEXT NOT NULL DEFAULT '',
    source_url   TEXT NOT NULL DEFAULT '',
    path         TEXT NOT NULL DEFAULT '',
    query        JSONB NOT NULL DEFAULT '{}',
    headers      JSONB NOT NULL DEFAULT '{}',
    body         BYTEA,
    source_ip    TEXT NOT NULL DEFAULT '',
    user_agent   TEXT NOT NULL DEFAULT '',
    size_bytes   INT NOT NULL DEFAULT 0,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_hookfreight_events_endpoint ON hookfreight_events (endpoint_id, received_at DESC, seq DESC);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS hookfreight_events`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_hookfreight_deliveries",
			Version: "20260101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS hookfreight_deliveries (
    id                 TEXT PRIMARY KEY,
    event_id           TEXT NOT NULL,
    endpoint_id        TEXT NOT NULL,
    parent_delivery_id TEXT,
    status             TEXT NOT NULL,
    destination_url    TEXT NOT NULL DEFAULT '',
    response_status    INT,
    response_headers   JSONB,
    response_body      BYTEA,
    duration_ms        INT NOT NULL DEFAULT 0,
    error_message      TEXT NOT NULL DEFAULT '',
    created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_hookfreight_deliveries_unique_attempt
    ON hookfreight_deliveries (event_id, COALESCE(parent_delivery_id, ''));
CREATE INDEX IF NOT EXISTS idx_hookfreight_deliveries_event ON hookfreight_deliveries (event_id, created_at DESC);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS hookfreight_deliveries`)
				return err
			},
		},
	)
}
