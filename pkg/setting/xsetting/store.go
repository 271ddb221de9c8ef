package xsetting

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Store 设置的持久化存储。值为 JSON 编码的原始字节。
type Store interface {
	// Get 没有对应行时返回 ErrNotFound。
	Get(ctx context.Context, tenant TenantID, key Key) ([]byte, error)
	// Set 插入或覆盖。
	Set(ctx context.Context, tenant TenantID, key Key, raw []byte) error
}

// Querier PostgresStore 需要的最小查询接口，*pgxpool.Pool 与 pgx.Tx 均满足。
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const (
	selectSettingSQL = `SELECT value FROM guild_settings WHERE guild_id = $1 AND key = $2`

	upsertSettingSQL = `INSERT INTO guild_settings (guild_id, key, value, created_at, updated_at)
VALUES ($1, $2, $3, NOW(), NOW())
ON CONFLICT (guild_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`
)

// PostgresStore 基于 guild_settings 表的 Store。
type PostgresStore struct {
	q Querier
}

// NewPostgresStore 创建 PostgresStore。
func NewPostgresStore(q Querier) (*PostgresStore, error) {
	if q == nil {
		return nil, ErrNilQuerier
	}
	return &PostgresStore{q: q}, nil
}

// Get 读取 JSONB 值。列为 NULL 时返回 nil 字节。
func (s *PostgresStore) Get(ctx context.Context, tenant TenantID, key Key) ([]byte, error) {
	var raw []byte
	err := s.q.QueryRow(ctx, selectSettingSQL, int64(tenant), string(key)).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("xsetting: query %s for tenant %d: %w", key, tenant, err)
	}
	return raw, nil
}

// Set 按 (guild_id, key) upsert。
func (s *PostgresStore) Set(ctx context.Context, tenant TenantID, key Key, raw []byte) error {
	if _, err := s.q.Exec(ctx, upsertSettingSQL, int64(tenant), string(key), raw); err != nil {
		return fmt.Errorf("xsetting: upsert %s for tenant %d: %w", key, tenant, err)
	}
	return nil
}
