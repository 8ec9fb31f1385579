// Copyright © 2024 OpenIM. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package localcache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vison888/localcache/pkg/localcache/revision"
	"github.com/vison888/localcache/pkg/localcache/store"
	"golang.org/x/sync/errgroup"
	testingclock "k8s.io/utils/clock/testing"
)

type countTarget struct {
	hit, success, failed, clear atomic.Int64
}

func (c *countTarget) IncrGetHit()     { c.hit.Add(1) }
func (c *countTarget) IncrGetSuccess() { c.success.Add(1) }
func (c *countTarget) IncrGetFailed()  { c.failed.Add(1) }
func (c *countTarget) IncrClear()      { c.clear.Add(1) }

func constant[V any](v V) func(context.Context, string) (V, error) {
	return func(context.Context, string) (V, error) { return v, nil }
}

func TestFromStore(t *testing.T) {
	ctx := context.Background()
	st := store.NewLockingStore[string, int]()
	require.NoError(t, st.Add("a", 1))
	target := &countTarget{}
	c := FromStore[string, int](st, WithTarget(target))

	v, err := c.GetOrCreate(ctx, "a", func(context.Context, string) (int, error) {
		panic("fetch should not be called on hit")
	})
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = c.GetOrCreate(ctx, "b", constant(2))
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	v, ok := c.TryGet(ctx, "b")
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	boom := errors.New("boom")
	_, err = c.GetOrCreate(ctx, "c", func(context.Context, string) (int, error) { return 0, boom })
	assert.Same(t, boom, err)
	_, ok = c.TryGet(ctx, "c")
	assert.False(t, ok)

	c.Clear(ctx)
	assert.Equal(t, 0, st.Len())
	assert.False(t, c.IsNull())

	assert.Equal(t, int64(2), target.hit.Load())
	assert.Equal(t, int64(1), target.success.Load())
	assert.Equal(t, int64(1), target.failed.Load())
	assert.Equal(t, int64(1), target.clear.Load())
}

func TestNull(t *testing.T) {
	ctx := context.Background()
	c := Null[string, int]()
	assert.True(t, c.IsNull())
	var calls int
	fetch := func(context.Context, string) (int, error) {
		calls++
		return calls, nil
	}
	v, _ := c.GetOrCreate(ctx, "a", fetch)
	assert.Equal(t, 1, v)
	v, _ = c.GetOrCreate(ctx, "a", fetch)
	assert.Equal(t, 2, v)
	_, ok := c.TryGet(ctx, "a")
	assert.False(t, ok)
	c.Clear(ctx)

	assert.True(t, NewScoped(c, revision.New()).IsNull())
}

func TestScopedInvalidationClearsBeforeOp(t *testing.T) {
	ctx := context.Background()
	token := revision.New()
	st := store.NewLockingStore[string, string]()
	c := NewScoped(FromStore[string, string](st), token)

	st.Set("k", "stale")
	token.Invalidate()

	_, ok := c.TryGet(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, 0, st.Len())
}

func TestScopedInvalidationRefetch(t *testing.T) {
	ctx := context.Background()
	token := revision.New()
	c := NewScoped(NewLazyLocking[string, string](), token)

	v, err := c.GetOrCreate(ctx, "x", constant("v1"))
	require.NoError(t, err)
	assert.Equal(t, "v1", v)
	v, _ = c.GetOrCreate(ctx, "x", constant("v2"))
	assert.Equal(t, "v1", v)

	token.Invalidate()
	v, err = c.GetOrCreate(ctx, "x", constant("v2"))
	require.NoError(t, err)
	assert.Equal(t, "v2", v)
}

func TestScopedClearDoesNotPropagate(t *testing.T) {
	ctx := context.Background()
	token := revision.New()
	first := NewScoped(NewLocking[string, int](), token)
	second := NewScoped(NewLocking[string, int](), token)

	_, _ = first.GetOrCreate(ctx, "a", constant(1))
	_, _ = second.GetOrCreate(ctx, "a", constant(2))

	first.Clear(ctx)
	assert.Equal(t, uint64(0), token.Current())
	_, ok := first.TryGet(ctx, "a")
	assert.False(t, ok)
	v, ok := second.TryGet(ctx, "a")
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	// 令牌失效时两者一起清空
	token.Invalidate()
	_, ok = second.TryGet(ctx, "a")
	assert.False(t, ok)
}

func TestNewTTL(t *testing.T) {
	ctx := context.Background()
	clk := testingclock.NewFakeClock(time.Now())
	for _, lazy := range []bool{true, false} {
		t.Run(fmt.Sprintf("lazy=%v", lazy), func(t *testing.T) {
			c := New[string, int](WithLazy(lazy), WithTTL(time.Minute), WithClock(clk))
			var calls int
			fetch := func(context.Context, string) (int, error) {
				calls++
				return calls, nil
			}
			v, _ := c.GetOrCreate(ctx, "a", fetch)
			assert.Equal(t, 1, v)
			clk.Step(59 * time.Second)
			v, _ = c.GetOrCreate(ctx, "a", fetch)
			assert.Equal(t, 1, v)
			clk.Step(time.Second)
			_, ok := c.TryGet(ctx, "a")
			assert.False(t, ok)
			v, _ = c.GetOrCreate(ctx, "a", fetch)
			assert.Equal(t, 2, v)

			clk.Step(time.Minute)
			c.(store.Sweeper).Sweep()
			_, ok = c.TryGet(ctx, "a")
			assert.False(t, ok)
		})
	}
}

func TestNewSlotComparer(t *testing.T) {
	ctx := context.Background()
	c := New[string, string](WithSlotNum(8), WithComparer[string](store.StringFold{}))
	_, err := c.GetOrCreate(ctx, "UserID", constant("u"))
	require.NoError(t, err)
	v, ok := c.TryGet(ctx, "userid")
	assert.True(t, ok)
	assert.Equal(t, "u", v)
}

func TestNewSlotHash(t *testing.T) {
	assert.Panics(t, func() { New[int, int](WithSlotNum(4)) })
	c := New[int, int](WithSlotNum(4), WithHash(func(key int) uint64 { return uint64(key) }))
	v, err := c.GetOrCreate(context.Background(), 3, func(_ context.Context, key int) (int, error) {
		return key * 2, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 6, v)

	assert.Panics(t, func() { New[int, int](WithSlotNum(4), WithHash(func(key string) uint64 { return 0 })) })
}

func TestNewConcurrentFetchOnce(t *testing.T) {
	ctx := context.Background()
	token := revision.New()
	target := &countTarget{}
	c := New[string, string](WithSlotNum(16), WithToken(token), WithTarget(target))

	const keys = 100
	var fetches [keys]atomic.Int32
	var g errgroup.Group
	for i := 0; i < 32; i++ {
		g.Go(func() error {
			for j := 0; j < keys; j++ {
				key := fmt.Sprintf("key_%d", j)
				v, err := c.GetOrCreate(ctx, key, func(_ context.Context, key string) (string, error) {
					fetches[j].Add(1)
					return "value_" + key, nil
				})
				if err != nil {
					return err
				}
				if v != "value_"+key {
					return fmt.Errorf("unexpected value %s", v)
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	for i := range fetches {
		assert.Equal(t, int32(1), fetches[i].Load())
	}
	assert.Equal(t, int64(keys), target.success.Load())
	assert.Equal(t, int64(32*keys-keys), target.hit.Load())
}

func TestNewFailureStaysWithCaller(t *testing.T) {
	target := &countTarget{}
	c := New[string, int](WithTarget(target))

	ctxA, cancelA := context.WithCancel(context.Background())
	started := make(chan struct{})
	release := make(chan struct{})
	errA := make(chan error, 1)
	go func() {
		_, err := c.GetOrCreate(ctxA, "k", func(ctx context.Context, key string) (int, error) {
			close(started)
			<-release
			cancelA()
			return 0, ctx.Err()
		})
		errA <- err
	}()
	<-started

	var calledB atomic.Bool
	errB := make(chan error, 1)
	go func() {
		v, err := c.GetOrCreate(context.Background(), "k", func(ctx context.Context, key string) (int, error) {
			calledB.Store(true)
			return 2, ctx.Err()
		})
		assert.Equal(t, 2, v)
		errB <- err
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)

	assert.ErrorIs(t, <-errA, context.Canceled)
	require.NoError(t, <-errB)
	assert.True(t, calledB.Load())
	assert.Equal(t, int64(1), target.failed.Load())
	assert.Equal(t, int64(1), target.success.Load())
}

func TestScopedConcurrentInvalidate(t *testing.T) {
	ctx := context.Background()
	token := revision.New()
	c := NewScoped(NewLazyLocking[string, uint64](), token)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				_, _ = c.GetOrCreate(ctx, "rev", func(context.Context, string) (uint64, error) {
					return token.Current(), nil
				})
			}
		}()
	}
	for i := 0; i < 100; i++ {
		token.Invalidate()
	}
	close(stop)
	wg.Wait()

	// 失效之后开始的操作不会看到旧版本的数据
	token.Invalidate()
	v, err := c.GetOrCreate(ctx, "rev", func(context.Context, string) (uint64, error) {
		return token.Current(), nil
	})
	require.NoError(t, err)
	assert.Equal(t, token.Current(), v)
}
