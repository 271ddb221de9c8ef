package xpg

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgx-contrib/pgxotel"

	"github.com/omeyang/xshard/pkg/resilience/xretry"
)

const (
	// DefaultPort 默认端口。
	DefaultPort = 5432
	// DefaultConnectTimeout 默认连接超时。
	DefaultConnectTimeout = 5 * time.Second
)

// Config 连接参数。URL 非空时忽略其余地址字段。
type Config struct {
	URL      string
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string

	// MaxConns 连接池上限，0 使用 pgxpool 默认值。
	MaxConns int32
	// ConnectTimeout <= 0 使用 DefaultConnectTimeout。
	ConnectTimeout time.Duration
}

// ConnString 连接串。
func (c Config) ConnString() (string, error) {
	if c.URL != "" {
		return c.URL, nil
	}
	if c.Host == "" || c.Name == "" {
		return "", fmt.Errorf("%w: host and database name required", ErrInvalidConfig)
	}
	port := c.Port
	if port == 0 {
		port = DefaultPort
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(port)),
		Path:   "/" + c.Name,
	}
	switch {
	case c.User != "" && c.Password != "":
		u.User = url.UserPassword(c.User, c.Password)
	case c.User != "":
		u.User = url.User(c.User)
	}
	if c.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {c.SSLMode}}.Encode()
	}
	return u.String(), nil
}

// PoolConfig 解析为 pgxpool 配置，挂载查询追踪。
func (c Config) PoolConfig() (*pgxpool.Config, error) {
	dsn, err := c.ConnString()
	if err != nil {
		return nil, err
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	timeout := c.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	cfg.ConnConfig.ConnectTimeout = timeout
	if c.MaxConns > 0 {
		cfg.MaxConns = c.MaxConns
	}
	cfg.ConnConfig.Tracer = &pgxotel.QueryTracer{Name: "xpg"}
	return cfg, nil
}

type openOptions struct {
	retryer *xretry.Retryer
}

// Option Open 配置。
type Option func(*openOptions)

// WithRetryer 替换 Ping 的重试策略。
func WithRetryer(r *xretry.Retryer) Option {
	return func(o *openOptions) {
		if r != nil {
			o.retryer = r
		}
	}
}

// Open 建立连接池并 Ping。失败时连接池已关闭。
func Open(ctx context.Context, cfg Config, opts ...Option) (*pgxpool.Pool, error) {
	poolCfg, err := cfg.PoolConfig()
	if err != nil {
		return nil, err
	}
	o := &openOptions{
		retryer: xretry.NewRetryer(
			xretry.WithAttempts(3),
			xretry.WithBackoffPolicy(xretry.NewExponentialBackoff(
				xretry.WithInitialDelay(500*time.Millisecond),
				xretry.WithMaxDelay(5*time.Second),
			)),
		),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := o.retryer.Do(ctx, pool.Ping); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, poolCfg.ConnConfig.Host, err)
	}
	return pool, nil
}
