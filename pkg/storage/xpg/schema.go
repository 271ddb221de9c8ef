package xpg

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Execer EnsureSchema 需要的最小接口。
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// SettingsSchema guild_settings 表定义。
const SettingsSchema = `CREATE TABLE IF NOT EXISTS guild_settings (
	guild_id   BIGINT       NOT NULL,
	key        VARCHAR(255) NOT NULL,
	value      JSONB,
	created_at TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
	PRIMARY KEY (guild_id, key)
)`

// EnsureSchema 创建设置表，已存在时不做任何修改。
func EnsureSchema(ctx context.Context, db Execer) error {
	if db == nil {
		return ErrNilExecer
	}
	if _, err := db.Exec(ctx, SettingsSchema); err != nil {
		return fmt.Errorf("xpg: ensure schema: %w", err)
	}
	return nil
}
