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

package expire

import (
	"time"

	"github.com/vison888/localcache/pkg/localcache/store"
)

// Entry 保存在inner中的条目
type Entry[V, I any] struct {
	Value V
	Info  I
}

type option[K comparable, V, I any] struct {
	inner    store.Store[K, Entry[V, I]]
	storeOpt []store.Option[K]
}

// Option 配置 New
type Option[K comparable, V, I any] func(o *option[K, V, I])

// WithInner 指定保存条目的inner store，默认是哈希表
func WithInner[K comparable, V, I any](inner store.Store[K, Entry[V, I]]) Option[K, V, I] {
	return func(o *option[K, V, I]) {
		o.inner = inner
	}
}

// WithStoreOption 创建默认inner时使用的选项，指定了 WithInner 时无效
func WithStoreOption[K comparable, V, I any](opts ...store.Option[K]) Option[K, V, I] {
	return func(o *option[K, V, I]) {
		o.storeOpt = append(o.storeOpt, opts...)
	}
}

// New 创建由policy控制过期的store
// 和基础store一样不做并发保护，需要时在外层套 store.Locking
func New[K comparable, V, I any](policy Policy[V, I], opts ...Option[K, V, I]) *Store[K, V, I] {
	if policy == nil {
		panic("policy should not be nil")
	}
	opt := &option[K, V, I]{}
	for _, o := range opts {
		o(opt)
	}
	if opt.inner == nil {
		opt.inner = store.NewHashStore[K, Entry[V, I]](opt.storeOpt...)
	}
	return &Store[K, V, I]{policy: policy, inner: opt.inner}
}

// NewTTL 使用 TimePolicy 的便捷构造
func NewTTL[K comparable, V any](ttl time.Duration, opts ...Option[K, V, time.Time]) *Store[K, V, time.Time] {
	return New[K, V, time.Time](NewTimePolicy[V](ttl, nil), opts...)
}

// Store 过期store
//
// 读操作遇到已过期的条目会立即删除并按未命中处理，
// 写操作之后根据 Policy.ShouldSweep 决定是否全量清理。
// Len 包含尚未被清理的过期条目。
type Store[K comparable, V, I any] struct {
	policy Policy[V, I]
	inner  store.Store[K, Entry[V, I]]
}

// lookup 查找未过期的条目
// 命中过期条目时删除并通知policy，按未命中返回
// 返回值和是否命中
func (x *Store[K, V, I]) lookup(key K) (V, bool) {
	e, ok := x.inner.TryGet(key)
	if !ok {
		var zero V
		return zero, false
	}
	if x.policy.IsExpired(e.Value, e.Info) {
		x.inner.Remove(key)
		x.policy.ItemRemoved(e.Value)
		var zero V
		return zero, false
	}
	return e.Value, true
}

func (x *Store[K, V, I]) entry(value V) Entry[V, I] {
	return Entry[V, I]{Value: value, Info: x.policy.ExpirationInfo(value)}
}

// maybeSweep 询问policy是否需要全表清理，需要时调用Sweep
func (x *Store[K, V, I]) maybeSweep() {
	if x.policy.ShouldSweep() {
		x.Sweep()
	}
}

func (x *Store[K, V, I]) ContainsKey(key K) bool {
	_, ok := x.lookup(key)
	return ok
}

func (x *Store[K, V, I]) Add(key K, value V) error {
	x.lookup(key)
	if err := x.inner.Add(key, x.entry(value)); err != nil {
		return err
	}
	x.policy.ItemAdded(value)
	x.maybeSweep()
	return nil
}

// Remove 返回是否删除了一个未过期的条目
func (x *Store[K, V, I]) Remove(key K) bool {
	e, ok := x.inner.TryGet(key)
	if !ok {
		return false
	}
	live := !x.policy.IsExpired(e.Value, e.Info)
	x.inner.Remove(key)
	x.policy.ItemRemoved(e.Value)
	x.maybeSweep()
	return live
}

func (x *Store[K, V, I]) Clear() {
	values := make([]V, 0, x.inner.Len())
	x.inner.Range(func(_ K, e Entry[V, I]) bool {
		values = append(values, e.Value)
		return true
	})
	x.inner.Clear()
	for _, v := range values {
		x.policy.ItemRemoved(v)
	}
}

func (x *Store[K, V, I]) Get(key K) (V, error) {
	value, ok := x.lookup(key)
	if !ok {
		return value, store.ErrKeyNotFound.WrapMsg("key not found", "key", key)
	}
	return value, nil
}

// Set 覆盖已有条目时，对旧值调用 ItemRemoved，对新值调用 ItemAdded
func (x *Store[K, V, I]) Set(key K, value V) {
	old, ok := x.inner.TryGet(key)
	x.inner.Set(key, x.entry(value))
	if ok {
		x.policy.ItemRemoved(old.Value)
	}
	x.policy.ItemAdded(value)
	x.maybeSweep()
}

func (x *Store[K, V, I]) TryGet(key K) (V, bool) {
	return x.lookup(key)
}

func (x *Store[K, V, I]) GetOrCreate(key K, create func(key K) (V, error)) (V, error) {
	if value, ok := x.lookup(key); ok {
		return value, nil
	}
	var created bool
	e, err := x.inner.GetOrCreate(key, func(key K) (Entry[V, I], error) {
		value, err := create(key)
		if err != nil {
			return Entry[V, I]{Value: value}, err
		}
		created = true
		return x.entry(value), nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	if created {
		x.policy.ItemAdded(e.Value)
		x.maybeSweep()
	}
	return e.Value, nil
}

func (x *Store[K, V, I]) GetOrDefault(key K) V {
	value, _ := x.lookup(key)
	return value
}

func (x *Store[K, V, I]) Len() int {
	return x.inner.Len()
}

// Range 跳过已过期的条目，但不会删除它们
func (x *Store[K, V, I]) Range(fn func(key K, value V) bool) {
	x.inner.Range(func(key K, e Entry[V, I]) bool {
		if x.policy.IsExpired(e.Value, e.Info) {
			return true
		}
		return fn(key, e.Value)
	})
}

// Sweep 删除所有已过期的条目
func (x *Store[K, V, I]) Sweep() {
	var expired []K
	x.inner.Range(func(key K, e Entry[V, I]) bool {
		if x.policy.IsExpired(e.Value, e.Info) {
			expired = append(expired, key)
		}
		return true
	})
	for _, key := range expired {
		if e, ok := x.inner.TryGet(key); ok {
			x.inner.Remove(key)
			x.policy.ItemRemoved(e.Value)
		}
	}
	x.policy.Swept()
}

var (
	_ store.Store[string, any] = (*Store[string, any, time.Time])(nil)
	_ store.Sweeper            = (*Store[string, any, time.Time])(nil)
)
