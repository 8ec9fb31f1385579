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

	"github.com/vison888/localcache/pkg/localcache/store"
)

// Cache 面向调用方的缓存门面
// 所有并发保证来自内部的store装饰器，门面本身不加锁
type Cache[K comparable, V any] interface {
	// GetOrCreate 命中时直接返回，未命中时调用fetch生成并缓存
	// fetch返回错误时不缓存，错误原样返回
	GetOrCreate(ctx context.Context, key K, fetch func(ctx context.Context, key K) (V, error)) (V, error)

	// TryGet 只读查询，不会触发fetch
	TryGet(ctx context.Context, key K) (V, bool)

	// Clear 清空缓存
	Clear(ctx context.Context)

	// IsNull 为true表示这是不缓存任何数据的空实现，调用方无需区分分支
	IsNull() bool
}

// Target 缓存统计指标的收集接口
type Target interface {
	IncrGetHit()
	IncrGetSuccess()
	IncrGetFailed()
	IncrClear()
}

// FromStore 把任意store包装成Cache
func FromStore[K comparable, V any](st store.Store[K, V], opts ...Option) Cache[K, V] {
	if st == nil {
		panic("store should not be nil")
	}
	opt := defaultOption()
	for _, o := range opts {
		o(opt)
	}
	return &cache[K, V]{store: st, target: opt.target}
}

type cache[K comparable, V any] struct {
	store  store.Store[K, V]
	target Target
}

func (c *cache[K, V]) GetOrCreate(ctx context.Context, key K, fetch func(ctx context.Context, key K) (V, error)) (V, error) {
	var fetched bool
	value, err := c.store.GetOrCreate(key, func(key K) (V, error) {
		fetched = true
		return fetch(ctx, key)
	})
	switch {
	case err != nil:
		c.target.IncrGetFailed()
	case fetched:
		c.target.IncrGetSuccess()
	default:
		c.target.IncrGetHit()
	}
	return value, err
}

func (c *cache[K, V]) TryGet(ctx context.Context, key K) (V, bool) {
	value, ok := c.store.TryGet(key)
	if ok {
		c.target.IncrGetHit()
	}
	return value, ok
}

func (c *cache[K, V]) Clear(ctx context.Context) {
	c.store.Clear()
	c.target.IncrClear()
}

func (c *cache[K, V]) IsNull() bool {
	return false
}

// Sweep 内部store支持主动清理时转发，供定时任务调用
func (c *cache[K, V]) Sweep() {
	if s, ok := c.store.(store.Sweeper); ok {
		s.Sweep()
	}
}

// NewLocking 整表加锁的缓存
func NewLocking[K comparable, V any](opts ...Option) Cache[K, V] {
	return FromStore[K, V](store.NewLockingStore[K, V](), opts...)
}

// NewLazyLocking 按key懒加载的缓存，不同key的fetch互不阻塞
func NewLazyLocking[K comparable, V any](opts ...Option) Cache[K, V] {
	return FromStore[K, V](store.NewLazyLockingStore[K, V](), opts...)
}
