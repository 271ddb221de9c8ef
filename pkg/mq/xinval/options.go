package xinval

import (
	"time"

	"github.com/omeyang/xshard/pkg/observability/xlog"
	"github.com/omeyang/xshard/pkg/observability/xmetrics"
	"github.com/omeyang/xshard/pkg/resilience/xretry"
)

const (
	// DefaultChannel 默认频道。
	DefaultChannel = "prefix_updates"
	// DefaultPublishTimeout 发布超时。
	DefaultPublishTimeout = 2 * time.Second
	// DefaultReceiveTimeout 单次轮询超时，也是响应取消的最长延迟。
	DefaultReceiveTimeout = time.Second
)

type options struct {
	channel        string
	publishTimeout time.Duration
	receiveTimeout time.Duration
	backoff        xretry.BackoffPolicy
	logger         xlog.Logger
	observer       xmetrics.Observer
}

func defaultOptions() *options {
	return &options{
		channel:        DefaultChannel,
		publishTimeout: DefaultPublishTimeout,
		receiveTimeout: DefaultReceiveTimeout,
		logger:         xlog.Discard(),
		observer:       xmetrics.NoopObserver{},
	}
}

// Option Bus 配置。
type Option func(*options)

// WithChannel 频道名，空值忽略。
func WithChannel(ch string) Option {
	return func(o *options) {
		if ch != "" {
			o.channel = ch
		}
	}
}

// WithPublishTimeout 发布超时，d <= 0 忽略。
func WithPublishTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.publishTimeout = d
		}
	}
}

// WithReceiveTimeout 轮询超时，d <= 0 忽略。
func WithReceiveTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.receiveTimeout = d
		}
	}
}

// WithBackoff 重新订阅的退避策略，默认 mqcore.DefaultBackoff。
func WithBackoff(b xretry.BackoffPolicy) Option {
	return func(o *options) {
		o.backoff = b
	}
}

// WithLogger 设置日志。
func WithLogger(l xlog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithObserver 设置观测器。
func WithObserver(obs xmetrics.Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}
