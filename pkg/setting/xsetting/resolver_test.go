package xsetting

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/omeyang/xshard/pkg/context/xtenant"
	"github.com/omeyang/xshard/pkg/observability/xmetrics"
	"github.com/omeyang/xshard/pkg/resilience/xbreaker"
)

func newTestResolver(t *testing.T, store Store, opts ...ResolverOption) (*Resolver, *Cache) {
	t.Helper()
	cache := newTestCache(t, CacheConfig{})
	r, err := NewResolver(cache, store, opts...)
	require.NoError(t, err)
	return r, cache
}

func TestNewResolver_Validation(t *testing.T) {
	_, err := NewResolver(nil, newMemStore())
	assert.ErrorIs(t, err, ErrNilCache)

	cache := newTestCache(t, CacheConfig{})
	_, err = NewResolver(cache, nil)
	assert.ErrorIs(t, err, ErrNilStore)
}

func TestResolver_NoTenant(t *testing.T) {
	store := newMemStore()
	r, _ := newTestResolver(t, store)

	assert.Equal(t, DefaultPrefix, r.Resolve(context.Background(), NoTenant))
	assert.Equal(t, DefaultPrefix, r.Resolve(context.Background(), -3))
	assert.Equal(t, DefaultPrefix, r.ResolveContext(context.Background()))
	assert.Zero(t, store.gets.Load())
}

func TestResolver_NoRowCachesDefault(t *testing.T) {
	store := newMemStore()
	r, cache := newTestResolver(t, store)
	ctx := context.Background()

	assert.Equal(t, Value("o!"), r.Resolve(ctx, 42))
	assert.Equal(t, Value("o!"), r.Resolve(ctx, 42))
	assert.Equal(t, int32(1), store.gets.Load())

	v, ok := cache.Get(42, KeyPrefix)
	assert.True(t, ok)
	assert.Equal(t, DefaultPrefix, v)
}

func TestResolver_StoredValues(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Value
	}{
		{"json string", `"!"`, "!"},
		{"null", `null`, DefaultPrefix},
		{"empty string", `""`, DefaultPrefix},
		{"undecodable", `{"x":1}`, DefaultPrefix},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			store.put(9, tt.raw)
			r, cache := newTestResolver(t, store)

			assert.Equal(t, tt.want, r.Resolve(context.Background(), 9))
			v, ok := cache.Get(9, KeyPrefix)
			assert.True(t, ok)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestResolver_PushServedWithoutStore(t *testing.T) {
	store := newMemStore()
	r, cache := newTestResolver(t, store)

	cache.Set(42, KeyPrefix, "!")
	assert.Equal(t, Value("!"), r.Resolve(context.Background(), 42))
	assert.Zero(t, store.gets.Load())
}

func TestResolver_StoreErrorNotCached(t *testing.T) {
	store := newMemStore()
	store.setErr(errors.New("connection refused"))
	r, cache := newTestResolver(t, store)
	ctx := context.Background()

	assert.Equal(t, DefaultPrefix, r.Resolve(ctx, 5))
	_, ok := cache.Get(5, KeyPrefix)
	assert.False(t, ok)

	store.setErr(nil)
	store.put(5, `"$"`)
	assert.Equal(t, Value("$"), r.Resolve(ctx, 5))
	assert.Equal(t, int32(2), store.gets.Load())
}

func TestResolver_Timeout(t *testing.T) {
	store := newMemStore()
	store.gate = make(chan struct{})
	defer close(store.gate)
	r, cache := newTestResolver(t, store, WithQueryTimeout(30*time.Millisecond))

	start := time.Now()
	assert.Equal(t, DefaultPrefix, r.Resolve(context.Background(), 8))
	assert.Less(t, time.Since(start), time.Second)
	_, ok := cache.Get(8, KeyPrefix)
	assert.False(t, ok)
}

func TestResolver_CustomDefault(t *testing.T) {
	r, _ := newTestResolver(t, newMemStore(), WithDefault("?"))
	assert.Equal(t, Value("?"), r.Default())
	assert.Equal(t, Value("?"), r.Resolve(context.Background(), 3))
}

func TestResolver_BreakerOpens(t *testing.T) {
	store := newMemStore()
	store.setErr(errors.New("db down"))
	br := xbreaker.NewBreaker("test", xbreaker.WithConsecutiveFailures(2), xbreaker.WithTimeout(time.Minute))
	r, _ := newTestResolver(t, store, WithBreaker(br))
	ctx := context.Background()

	r.Resolve(ctx, 1)
	r.Resolve(ctx, 2)
	require.Equal(t, xbreaker.StateOpen, br.State())

	assert.Equal(t, DefaultPrefix, r.Resolve(ctx, 3))
	assert.Equal(t, int32(2), store.gets.Load(), "open breaker must not reach the store")
}

func TestResolver_NotFoundIsNotFailure(t *testing.T) {
	br := xbreaker.NewBreaker("test", xbreaker.WithConsecutiveFailures(1))
	r, _ := newTestResolver(t, newMemStore(), WithBreaker(br))

	for i := range 5 {
		r.Resolve(context.Background(), TenantID(i+1))
	}
	assert.Equal(t, xbreaker.StateClosed, br.State())
}

func TestResolver_CoalescesConcurrentMisses(t *testing.T) {
	store := newMemStore()
	store.put(77, `"&"`)
	store.gate = make(chan struct{})
	r, _ := newTestResolver(t, store)

	const n = 16
	results := make([]Value, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Go(func() {
			results[i] = r.Resolve(context.Background(), 77)
		})
	}

	require.Eventually(t, func() bool { return store.gets.Load() >= 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(store.gate)
	wg.Wait()

	assert.Equal(t, int32(1), store.gets.Load())
	for _, v := range results {
		assert.Equal(t, Value("&"), v)
	}
}

func TestResolver_CallerCancel(t *testing.T) {
	store := newMemStore()
	store.put(4, `"%"`)
	store.gate = make(chan struct{})
	r, cache := newTestResolver(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan Value, 1)
	go func() { done <- r.Resolve(ctx, 4) }()

	require.Eventually(t, func() bool { return store.gets.Load() == 1 }, time.Second, time.Millisecond)
	cancel()
	assert.Equal(t, DefaultPrefix, <-done)

	// 查询本身不受调用方取消影响，完成后结果进入缓存
	close(store.gate)
	assert.Eventually(t, func() bool {
		v, ok := cache.Get(4, KeyPrefix)
		return ok && v == "%"
	}, time.Second, 5*time.Millisecond)
}

func TestResolver_KeepsUpdateArrivedDuringLoad(t *testing.T) {
	store := newMemStore()
	store.put(42, `"old"`)
	store.gate = make(chan struct{})
	r, cache := newTestResolver(t, store)

	done := make(chan Value, 1)
	go func() { done <- r.Resolve(context.Background(), 42) }()

	require.Eventually(t, func() bool { return store.gets.Load() == 1 }, time.Second, time.Millisecond)
	// 查询阻塞期间到达的失效推送
	cache.Set(42, KeyPrefix, "new")
	close(store.gate)

	assert.Equal(t, Value("new"), <-done)
	assert.Equal(t, Value("new"), r.Resolve(context.Background(), 42))
	assert.Equal(t, int32(1), store.gets.Load())
}

func TestResolver_ResolveContext(t *testing.T) {
	store := newMemStore()
	store.put(42, `"!"`)
	r, _ := newTestResolver(t, store)

	ctx, err := xtenant.WithTenantID(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, Value("!"), r.ResolveContext(ctx))
}

func TestResolver_RecordsSpans(t *testing.T) {
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	defer func() { _ = tp.Shutdown(context.Background()) }()
	obs, err := xmetrics.NewOTelObserver(xmetrics.WithTracerProvider(tp))
	require.NoError(t, err)

	store := newMemStore()
	store.put(1, `"!"`)
	r, _ := newTestResolver(t, store, WithObserver(obs))

	r.Resolve(context.Background(), 1)
	r.Resolve(context.Background(), 1) // 命中缓存，不产生跨度

	ended := spans.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "xsetting.resolve", ended[0].Name())
}
