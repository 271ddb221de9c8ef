package xcache

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/omeyang/xshard/pkg/resilience/xretry"
)

const (
	// DefaultDialTimeout 默认连接超时。
	DefaultDialTimeout = time.Second
	// DefaultPort 默认端口。
	DefaultPort = 6379
)

// RedisConfig 连接参数。URL 非空时忽略其余地址字段。
type RedisConfig struct {
	URL      string
	Host     string
	Port     int
	Password string
	DB       int

	// DialTimeout 连接与读写超时，<= 0 使用 DefaultDialTimeout。
	DialTimeout time.Duration
}

// Options 转换为 go-redis 连接参数。
func (c RedisConfig) Options() (*redis.Options, error) {
	timeout := c.DialTimeout
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}

	var opts *redis.Options
	if c.URL != "" {
		o, err := redis.ParseURL(c.URL)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		opts = o
	} else {
		if c.Host == "" {
			return nil, fmt.Errorf("%w: host or url required", ErrInvalidConfig)
		}
		port := c.Port
		if port == 0 {
			port = DefaultPort
		}
		if port < 0 || port > 65535 {
			return nil, fmt.Errorf("%w: port %d", ErrInvalidConfig, port)
		}
		opts = &redis.Options{
			Addr:     net.JoinHostPort(c.Host, strconv.Itoa(port)),
			Password: c.Password,
			DB:       c.DB,
		}
	}
	opts.DialTimeout = timeout
	opts.ReadTimeout = timeout
	opts.WriteTimeout = timeout
	return opts, nil
}

// Redis 持有一个 go-redis 客户端。
type Redis interface {
	// Client 底层客户端。
	Client() redis.UniversalClient

	// Ping 检查连接。Close 之后返回 ErrClosed。
	Ping(ctx context.Context) error

	// Close 关闭客户端，可重复调用。
	Close() error
}

type openOptions struct {
	retryer *xretry.Retryer
}

// OpenOption Open 配置。
type OpenOption func(*openOptions)

// WithRetryer 替换 Ping 的重试策略。
func WithRetryer(r *xretry.Retryer) OpenOption {
	return func(o *openOptions) {
		if r != nil {
			o.retryer = r
		}
	}
}

// Open 创建客户端并 Ping，默认重试 3 次。失败时客户端已关闭，返回 ErrUnavailable。
func Open(ctx context.Context, cfg RedisConfig, opts ...OpenOption) (Redis, error) {
	redisOpts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	o := &openOptions{
		retryer: xretry.NewRetryer(
			xretry.WithAttempts(3),
			xretry.WithBackoffPolicy(xretry.NewExponentialBackoff(
				xretry.WithInitialDelay(200*time.Millisecond),
				xretry.WithMaxDelay(2*time.Second),
			)),
		),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	r := &redisWrapper{client: redis.NewClient(redisOpts)}
	err = o.retryer.Do(ctx, func(ctx context.Context) error {
		return r.client.Ping(ctx).Err()
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("%w: %s: %w", ErrUnavailable, redisOpts.Addr, err), r.Close())
	}
	return r, nil
}

// NewRedis 包装已初始化的客户端，不做连接检查。
func NewRedis(client redis.UniversalClient) (Redis, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	return &redisWrapper{client: client}, nil
}

type redisWrapper struct {
	client    redis.UniversalClient
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

func (w *redisWrapper) Client() redis.UniversalClient { return w.client }

func (w *redisWrapper) Ping(ctx context.Context) error {
	if w.closed.Load() {
		return ErrClosed
	}
	return w.client.Ping(ctx).Err()
}

func (w *redisWrapper) Close() error {
	w.closeOnce.Do(func() {
		w.closed.Store(true)
		w.closeErr = w.client.Close()
	})
	return w.closeErr
}
