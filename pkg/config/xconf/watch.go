package xconf

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/omeyang/xshard/pkg/observability/xlog"
	"github.com/omeyang/xshard/pkg/util/xdebounce"
)

// DefaultDebounce 默认防抖时间。
const DefaultDebounce = 500 * time.Millisecond

type watchOptions struct {
	debounce time.Duration
	clock    xdebounce.Clock
	logger   xlog.Logger
}

// WatchOption Watcher 配置。
type WatchOption func(*watchOptions)

// WithDebounce 防抖时间，d <= 0 忽略。
func WithDebounce(d time.Duration) WatchOption {
	return func(o *watchOptions) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// WithClock 替换防抖计时器，用于测试。
func WithClock(c xdebounce.Clock) WatchOption {
	return func(o *watchOptions) {
		o.clock = c
	}
}

// WithWatchLogger 设置日志，默认沿用 Store 的 logger。
func WithWatchLogger(l xlog.Logger) WatchOption {
	return func(o *watchOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// Watcher 监视单个配置文件并触发 Store.Reload。
type Watcher struct {
	store    *Store
	target   string
	fs       *fsnotify.Watcher
	debounce *xdebounce.Debouncer
	logger   xlog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	// reloadMu 覆盖 ctx 检查与 Store.Reload，Stop 借它等待进行中的重载
	reloadMu sync.Mutex

	mu       sync.Mutex
	running  bool
	stopOnce sync.Once
	stopErr  error
	done     chan struct{}
}

// NewWatcher 创建监视器并开始监听目录，事件在 Start/StartAsync/Run 之后才会处理。
func NewWatcher(store *Store, opts ...WatchOption) (*Watcher, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	o := &watchOptions{debounce: DefaultDebounce, logger: store.opts.logger}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	target, err := filepath.Abs(store.Path())
	if err != nil {
		return nil, fmt.Errorf("xconf: resolve config path: %w", err)
	}

	w := &Watcher{store: store, target: target, logger: o.logger, done: make(chan struct{})}
	dopts := []xdebounce.Option{}
	if o.clock != nil {
		dopts = append(dopts, xdebounce.WithClock(o.clock))
	}
	w.debounce, err = xdebounce.New(o.debounce, w.reload, dopts...)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("xconf: create watcher: %w", err)
	}
	// 监视父目录：rename 覆盖会替换 inode，直接监视文件会丢失后续事件
	dir := filepath.Dir(target)
	if err := fsw.Add(dir); err != nil {
		return nil, errors.Join(fmt.Errorf("xconf: watch directory %s: %w", dir, err), fsw.Close())
	}
	w.fs = fsw
	w.ctx, w.cancel = context.WithCancel(context.Background())
	return w, nil
}

func (w *Watcher) reload() {
	w.reloadMu.Lock()
	defer w.reloadMu.Unlock()
	if w.ctx.Err() != nil {
		return
	}
	w.store.Reload()
}

// Start 阻塞运行事件循环，直到 Stop。重复调用立即返回。
func (w *Watcher) Start() {
	if w.markRunning() != nil {
		return
	}
	w.loop()
}

// StartAsync 在后台 goroutine 运行事件循环。
func (w *Watcher) StartAsync() {
	if w.markRunning() != nil {
		return
	}
	go w.loop()
}

// Run 阻塞运行直到 ctx 取消或 Stop，ctx 取消时自动 Stop。正常结束返回 nil。
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.markRunning(); err != nil {
		return err
	}
	go func() {
		select {
		case <-ctx.Done():
			_ = w.Stop() //nolint:errcheck // Close 错误由调用方的 Stop 获取
		case <-w.ctx.Done():
		}
	}()
	w.loop()
	return nil
}

func (w *Watcher) markRunning() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ctx.Err() != nil {
		return ErrWatcherStopped
	}
	if w.running {
		return ErrWatcherRunning
	}
	w.running = true
	return nil
}

// Stop 停止监视并取消等待中的重载。可重复调用。
//
// 进行中的重载会先完成，Stop 返回后不会再开始新的重载。
// 不要在 OnReload 回调中调用 Stop，会死锁。
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() {
		w.cancel()
		w.debounce.Stop()
		w.reloadMu.Lock()
		w.reloadMu.Unlock() //nolint:staticcheck // 只等待进行中的重载结束
		w.stopErr = w.fs.Close()

		w.mu.Lock()
		running := w.running
		w.mu.Unlock()
		if running {
			<-w.done
		}
	})
	return w.stopErr
}

// Done 事件循环结束时关闭。
func (w *Watcher) Done() <-chan struct{} { return w.done }

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if w.qualifies(event) {
				w.debounce.Trigger()
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn(w.ctx, "config watch error", xlog.Component("xconf"), xlog.Err(err))
		}
	}
}

// qualifies 只接受目标文件的写入、创建（移动到位）和重命名事件。
func (w *Watcher) qualifies(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.target {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}
