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
	"sync/atomic"

	"github.com/openimsdk/tools/log"
	"github.com/vison888/localcache/pkg/localcache/revision"
	"github.com/vison888/localcache/pkg/localcache/store"
)

// NewScoped 把inner绑定到共享的失效令牌上
// 每次访问前比较令牌版本，版本变化说明有人调用了 Invalidate，先清空inner再继续
// 多个缓存共享同一个令牌即可一起失效
func NewScoped[K comparable, V any](inner Cache[K, V], token *revision.Token) Cache[K, V] {
	if inner == nil || token == nil {
		panic("inner and token should not be nil")
	}
	x := &scoped[K, V]{inner: inner, token: token}
	x.last.Store(token.Current())
	return x
}

type scoped[K comparable, V any] struct {
	inner Cache[K, V]
	token *revision.Token
	last  atomic.Uint64 // 最近一次同步的版本，不会大于令牌的当前版本
}

// check 版本变化时清空inner
// 先清空再记录版本，并发的首批观察者可能各自清空一次
func (x *scoped[K, V]) check(ctx context.Context) {
	cur := x.token.Current()
	last := x.last.Load()
	if cur == last {
		return
	}
	x.inner.Clear(ctx)
	x.last.Store(cur)
	log.ZDebug(ctx, "local cache revision changed", "last", last, "current", cur)
}

func (x *scoped[K, V]) GetOrCreate(ctx context.Context, key K, fetch func(ctx context.Context, key K) (V, error)) (V, error) {
	x.check(ctx)
	return x.inner.GetOrCreate(ctx, key, fetch)
}

func (x *scoped[K, V]) TryGet(ctx context.Context, key K) (V, bool) {
	x.check(ctx)
	return x.inner.TryGet(ctx, key)
}

// Clear 只清空自己，不推进令牌，共享令牌的其他缓存不受影响
func (x *scoped[K, V]) Clear(ctx context.Context) {
	cur := x.token.Current()
	x.inner.Clear(ctx)
	x.last.Store(cur)
}

func (x *scoped[K, V]) IsNull() bool {
	return x.inner.IsNull()
}

func (x *scoped[K, V]) Sweep() {
	if s, ok := x.inner.(store.Sweeper); ok {
		s.Sweep()
	}
}
