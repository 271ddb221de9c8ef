package node

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/omeyang/xshard/pkg/mq/xinval"
	"github.com/omeyang/xshard/pkg/setting/xsetting"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("github.com/redis/go-redis/v9/internal/pool.(*ConnPool).tryDial"),
		goleak.IgnoreTopFunction("github.com/redis/go-redis/v9/maintnotifications.(*CircuitBreakerManager).cleanupLoop"),
		goleak.IgnoreTopFunction("time.Sleep"),
	)
}

// sharedStore 多个 Node 共享的内存 Store。
type sharedStore struct {
	mu   sync.Mutex
	rows map[xsetting.TenantID][]byte
	gets atomic.Int32
}

func newSharedStore() *sharedStore {
	return &sharedStore{rows: map[xsetting.TenantID][]byte{}}
}

func (s *sharedStore) Get(_ context.Context, tenant xsetting.TenantID, _ xsetting.Key) ([]byte, error) {
	s.gets.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.rows[tenant]
	if !ok {
		return nil, xsetting.ErrNotFound
	}
	return raw, nil
}

func (s *sharedStore) Set(_ context.Context, tenant xsetting.TenantID, _ xsetting.Key, raw []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[tenant] = raw
	return nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

func redisClient(t *testing.T, mr *miniredis.Miniredis) *redis.Client {
	t.Helper()
	c := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// runNode 后台运行 Node，返回停止函数。
func runNode(t *testing.T, n *Node) func() error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- n.Run(ctx) }()
	stop := sync.OnceValue(func() error {
		cancel()
		return <-done
	})
	t.Cleanup(func() {
		_ = stop()
		_ = n.Close()
	})
	return stop
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{ConfigPath: "x.yaml"}, Deps{})
	assert.ErrorIs(t, err, ErrNilStore)

	_, err = New(Config{}, Deps{Store: newSharedStore()})
	assert.ErrorIs(t, err, ErrEmptyConfigPath)
}

func TestNew_BadConfigReleasesResources(t *testing.T) {
	path := writeConfig(t, "Owners: [broken\n")
	var closed atomic.Bool
	_, err := New(Config{ConfigPath: path}, Deps{
		Store:   newSharedStore(),
		Closers: []io.Closer{closerFunc(func() error { closed.Store(true); return nil })},
	})
	require.Error(t, err)
	assert.True(t, closed.Load())
}

func TestNode_PushAcrossProcesses(t *testing.T) {
	mr := miniredis.RunT(t)
	store := newSharedStore()
	path := writeConfig(t, "Owners:\n  alice: 1\n")

	a, err := New(Config{ConfigPath: path, Instance: "a"}, Deps{Store: store, Redis: redisClient(t, mr)})
	require.NoError(t, err)
	b, err := New(Config{ConfigPath: path, Instance: "b"}, Deps{Store: store, Redis: redisClient(t, mr)})
	require.NoError(t, err)
	assert.Equal(t, "a", a.Instance())

	runNode(t, a)
	runNode(t, b)
	require.Eventually(t, func() bool {
		return a.Listener.State() == xinval.StateSubscribed && b.Listener.State() == xinval.StateSubscribed
	}, 2*time.Second, 5*time.Millisecond)

	ctx := context.Background()
	assert.Equal(t, xsetting.Value("o!"), b.Resolver.Resolve(ctx, 42))
	gets := store.gets.Load()

	require.NoError(t, a.Writer.SetPrefix(ctx, 42, "!"))
	assert.Eventually(t, func() bool {
		return b.Resolver.Resolve(ctx, 42) == "!"
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, gets, store.gets.Load(), "push must not trigger a store query")
}

func TestNode_ConfigHotReload(t *testing.T) {
	path := writeConfig(t, "Owners:\n  alice: 1\n")
	n, err := New(Config{ConfigPath: path, Debounce: 20 * time.Millisecond}, Deps{Store: newSharedStore()})
	require.NoError(t, err)
	assert.Nil(t, n.Listener)
	assert.NotEmpty(t, n.Instance())

	runNode(t, n)
	// 等待监视循环启动后再写入
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("Owners:\n  alice: 1\n  bob: 2\n"), 0o600))

	require.Eventually(t, func() bool {
		ok, err := n.Conf.IsOwner(2)
		return err == nil && ok
	}, 3*time.Second, 10*time.Millisecond)
}

func TestNode_RunStopsCleanly(t *testing.T) {
	mr := miniredis.RunT(t)
	path := writeConfig(t, "{}\n")
	n, err := New(Config{ConfigPath: path, StatsInterval: 10 * time.Millisecond},
		Deps{Store: newSharedStore(), Redis: redisClient(t, mr)})
	require.NoError(t, err)

	stop := runNode(t, n)
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, stop())
	assert.Equal(t, xinval.StateShuttingDown, n.Listener.State())
}

func TestNode_CloseOrder(t *testing.T) {
	path := writeConfig(t, "{}\n")
	var order []string
	errBoom := errors.New("boom")
	n, err := New(Config{ConfigPath: path}, Deps{
		Store: newSharedStore(),
		Closers: []io.Closer{
			closerFunc(func() error { order = append(order, "redis"); return nil }),
			closerFunc(func() error { order = append(order, "db"); return errBoom }),
		},
	})
	require.NoError(t, err)

	require.ErrorIs(t, n.Close(), errBoom)
	require.ErrorIs(t, n.Close(), errBoom)
	assert.Equal(t, []string{"db", "redis"}, order)
}

func TestNode_RunAfterClose(t *testing.T) {
	path := writeConfig(t, "{}\n")
	n, err := New(Config{ConfigPath: path}, Deps{Store: newSharedStore()})
	require.NoError(t, err)
	require.NoError(t, n.Close())

	assert.ErrorIs(t, n.Run(context.Background()), ErrClosed)
}
