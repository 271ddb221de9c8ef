package xconf

import (
	"github.com/omeyang/xshard/pkg/observability/xlog"
	"github.com/omeyang/xshard/pkg/observability/xmetrics"
)

// Format 配置文件格式。
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// DefaultOwnersKey 默认的 Owners 段名称。
const DefaultOwnersKey = "Owners"

type options struct {
	delim     string
	tag       string
	ownersKey string
	format    Format
	logger    xlog.Logger
	observer  xmetrics.Observer
}

// Option Store 配置。
type Option func(*options)

func defaultOptions() *options {
	return &options{
		delim:     ".",
		tag:       "koanf",
		ownersKey: DefaultOwnersKey,
		logger:    xlog.Discard(),
		observer:  xmetrics.NoopObserver{},
	}
}

// WithDelim 路径分隔符，默认 "."。
func WithDelim(delim string) Option {
	return func(o *options) {
		if delim != "" {
			o.delim = delim
		}
	}
}

// WithTag Unmarshal 使用的结构体标签，默认 "koanf"。
func WithTag(tag string) Option {
	return func(o *options) {
		if tag != "" {
			o.tag = tag
		}
	}
}

// WithOwnersKey Owners 段名称，默认 "Owners"。
func WithOwnersKey(key string) Option {
	return func(o *options) {
		if key != "" {
			o.ownersKey = key
		}
	}
}

// WithFormat 显式指定格式，不再按扩展名推断。
func WithFormat(f Format) Option {
	return func(o *options) {
		o.format = f
	}
}

// WithLogger 设置日志，默认丢弃。
func WithLogger(l xlog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithObserver 设置观测器，默认 Noop。
func WithObserver(obs xmetrics.Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}
