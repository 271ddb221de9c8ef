package xconf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/omeyang/xshard/pkg/observability/xlog"
	"github.com/omeyang/xshard/pkg/observability/xmetrics"
)

// Store 可热更新的配置存储，并发安全。
type Store struct {
	path   string
	format Format
	opts   *options

	cur    atomic.Pointer[Document]
	loadMu sync.Mutex // 串行化 Load，保证后读到的文件内容后生效

	hooksMu sync.RWMutex
	hooks   []func(*Document)
}

// New 创建 Store 并完成首次加载，首次加载失败直接返回错误。
func New(path string, opts ...Option) (*Store, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	format := o.format
	if format == "" {
		f, err := detectFormat(path)
		if err != nil {
			return nil, err
		}
		format = f
	}

	s := &Store{path: filepath.Clean(path), format: format, opts: o}
	if _, err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path 配置文件路径（已清理）。
func (s *Store) Path() string { return s.path }

// Format 配置格式。
func (s *Store) Format() Format { return s.format }

// Load 读取并解析配置文件，成功后原子替换当前快照并通知 OnReload 回调。
//
// 失败时当前快照保持不变，错误记录日志后返回给调用方。
func (s *Store) Load() (doc *Document, err error) {
	ctx, span := xmetrics.Start(context.Background(), s.opts.observer, xmetrics.SpanOptions{
		Component: "xconf",
		Operation: "reload",
	})
	defer func() { span.End(xmetrics.Result{Err: err}) }()

	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	start := time.Now()
	data, err := os.ReadFile(s.path)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrLoadFailed, err)
		s.logFailure(ctx, err)
		return nil, err
	}
	// 读者只访问 cur，解析期间不受影响
	doc, err = parseDocument(data, s.format, s.opts)
	if err != nil {
		s.logFailure(ctx, err)
		return nil, err
	}

	var version uint64 = 1
	if prev := s.cur.Load(); prev != nil {
		version = prev.version + 1
	}
	doc.version = version
	doc.loadedAt = time.Now()
	s.cur.Store(doc)

	s.opts.logger.Info(ctx, "config loaded",
		xlog.Component("xconf"),
		xlog.Operation("reload"),
		xlog.Count(int64(version)),
		xlog.Duration(time.Since(start)),
	)
	s.notify(doc)
	return doc, nil
}

// Reload 同 Load，但只记录错误不返回。供 Watcher 和信号处理使用。
func (s *Store) Reload() {
	_, _ = s.Load() //nolint:errcheck // 错误已在 Load 中记录
}

func (s *Store) logFailure(ctx context.Context, err error) {
	if prev := s.cur.Load(); prev != nil {
		s.opts.logger.Error(ctx, "config reload failed, keeping previous version",
			xlog.Component("xconf"), xlog.Err(err), xlog.Count(int64(prev.version)))
		return
	}
	s.opts.logger.Error(ctx, "config load failed", xlog.Component("xconf"), xlog.Err(err))
}

// OnReload 注册回调，在每次成功替换快照后按注册顺序同步调用。
// 回调持有加载锁，不能在回调中调用 Load/Reload。
func (s *Store) OnReload(fn func(*Document)) {
	if fn == nil {
		return
	}
	s.hooksMu.Lock()
	s.hooks = append(s.hooks, fn)
	s.hooksMu.Unlock()
}

func (s *Store) notify(doc *Document) {
	s.hooksMu.RLock()
	hooks := s.hooks
	s.hooksMu.RUnlock()
	for _, fn := range hooks {
		fn(doc)
	}
}

// Current 当前快照，New 成功后永不为 nil。
func (s *Store) Current() *Document { return s.cur.Load() }

// Version 当前快照版本。
func (s *Store) Version() uint64 { return s.Current().version }

// Get 见 Document.Get。
func (s *Store) Get(path string) (any, error) { return s.Current().Get(path) }

// Section 见 Document.Section。
func (s *Store) Section(name string) (Section, error) { return s.Current().Section(name) }

// String 见 Document.String。
func (s *Store) String(path string) (string, error) { return s.Current().String(path) }

// Int 见 Document.Int。
func (s *Store) Int(path string) (int64, error) { return s.Current().Int(path) }

// Bool 见 Document.Bool。
func (s *Store) Bool(path string) (bool, error) { return s.Current().Bool(path) }

// Unmarshal 见 Document.Unmarshal。
func (s *Store) Unmarshal(path string, target any) error { return s.Current().Unmarshal(path, target) }

// Owners 见 Document.Owners。
func (s *Store) Owners() []Owner { return s.Current().Owners() }

// IsOwner 见 Document.IsOwner。
func (s *Store) IsOwner(id int64) (bool, error) { return s.Current().IsOwner(id) }
