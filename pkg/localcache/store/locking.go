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

package store

import (
	"sync"
	"sync/atomic"

	"github.com/petermattis/goid"
)

// NewLocking 使用一把互斥锁包装inner，所有操作在整个调用期间持有该锁
func NewLocking[K comparable, V any](inner Store[K, V]) *Locking[K, V] {
	if inner == nil {
		panic("inner should not be nil")
	}
	return &Locking[K, V]{inner: inner}
}

// NewLockingStore 创建一个加锁的哈希表Store
func NewLockingStore[K comparable, V any](opts ...Option[K]) *Locking[K, V] {
	return NewLocking[K, V](NewHashStore[K, V](opts...))
}

// Locking 整表互斥锁装饰器
//
// GetOrCreate的create回调在持锁状态下执行，因此整个"不存在则创建"对其他操作是原子的，
// 代价是不同key之间也会串行。
//
// sync.Mutex不可重入，create回调中再次访问同一个Locking会直接死锁。
// 为此在执行create之前记录当前goroutine和正在计算的key，
// 之后的每个操作在加锁前先比较调用方goroutine，相同即判定为重入并快速失败：
// 返回error的操作返回 ErrReentrantAccess，其余操作panic *ReentrantError，
// 由外层GetOrCreate recover后作为错误返回。
// 无论create是否忽略了该错误，本次计算都会作废，不写入任何数据。
type Locking[K comparable, V any] struct {
	lock      sync.Mutex
	inner     Store[K, V]
	owner     atomic.Int64 // 正在执行create/Range的goroutine id，0表示没有
	inFlight  K            // 正在计算的key，只由owner读写
	abandoned error        // 回调中检测到的重入，非nil时create的结果作废，只由owner读写
}

// reentrant 判断当前goroutine是否正在该实例的回调中
// 命中时记录到abandoned，返回值供调用方返回或panic
func (x *Locking[K, V]) reentrant(op string) *ReentrantError {
	if x.owner.Load() != goid.Get() {
		return nil
	}
	re := newReentrantError(x, op, x.inFlight)
	x.abandoned = re.err
	return re
}

// mustLock 用于不返回error的操作，重入时panic
func (x *Locking[K, V]) mustLock(op string) {
	if re := x.reentrant(op); re != nil {
		panic(re)
	}
	x.lock.Lock()
}

func (x *Locking[K, V]) ContainsKey(key K) bool {
	x.mustLock("ContainsKey")
	defer x.lock.Unlock()
	return x.inner.ContainsKey(key)
}

func (x *Locking[K, V]) Add(key K, value V) error {
	if re := x.reentrant("Add"); re != nil {
		return re.err
	}
	x.lock.Lock()
	defer x.lock.Unlock()
	return x.inner.Add(key, value)
}

func (x *Locking[K, V]) Remove(key K) bool {
	x.mustLock("Remove")
	defer x.lock.Unlock()
	return x.inner.Remove(key)
}

func (x *Locking[K, V]) Clear() {
	x.mustLock("Clear")
	defer x.lock.Unlock()
	x.inner.Clear()
}

func (x *Locking[K, V]) Get(key K) (V, error) {
	if re := x.reentrant("Get"); re != nil {
		var zero V
		return zero, re.err
	}
	x.lock.Lock()
	defer x.lock.Unlock()
	return x.inner.Get(key)
}

func (x *Locking[K, V]) Set(key K, value V) {
	x.mustLock("Set")
	defer x.lock.Unlock()
	x.inner.Set(key, value)
}

func (x *Locking[K, V]) TryGet(key K) (V, bool) {
	x.mustLock("TryGet")
	defer x.lock.Unlock()
	return x.inner.TryGet(key)
}

// GetOrCreate 持锁执行"不存在则创建"，create只会在key不存在时被调用一次
func (x *Locking[K, V]) GetOrCreate(key K, create func(key K) (V, error)) (V, error) {
	if re := x.reentrant("GetOrCreate"); re != nil {
		var zero V
		return zero, re.err
	}
	id := goid.Get()
	x.lock.Lock()
	defer x.lock.Unlock()
	return x.inner.GetOrCreate(key, func(key K) (V, error) {
		return x.create(id, key, create)
	})
}

// create 在持锁状态下执行用户回调，并把回调中检测到的本实例重入转换为错误
// id: 调用方goroutine id
// key: 正在计算的key
// 回调期间发生过重入时丢弃回调的返回值，返回 ErrReentrantAccess
func (x *Locking[K, V]) create(id int64, key K, create func(key K) (V, error)) (value V, err error) {
	x.inFlight = key
	x.abandoned = nil
	x.owner.Store(id)
	defer func() {
		abandoned := x.abandoned
		x.owner.Store(0)
		var zero K
		x.inFlight = zero
		x.abandoned = nil
		if r := recover(); r != nil {
			re, ok := r.(*ReentrantError)
			if !ok || re.source != any(x) {
				panic(r)
			}
			abandoned = re.err
		}
		if abandoned != nil {
			var zero V
			value, err = zero, abandoned
		}
	}()
	return create(key)
}

func (x *Locking[K, V]) GetOrDefault(key K) V {
	x.mustLock("GetOrDefault")
	defer x.lock.Unlock()
	return x.inner.GetOrDefault(key)
}

func (x *Locking[K, V]) Len() int {
	x.mustLock("Len")
	defer x.lock.Unlock()
	return x.inner.Len()
}

// Range 持锁遍历，fn中再次访问该实例会panic *ReentrantError
func (x *Locking[K, V]) Range(fn func(key K, value V) bool) {
	if re := x.reentrant("Range"); re != nil {
		panic(re)
	}
	x.lock.Lock()
	defer x.lock.Unlock()
	x.owner.Store(goid.Get())
	defer x.owner.Store(0)
	x.inner.Range(fn)
}

// removeIf 持锁删除key，仅当当前值满足match时才删除
// match: 判断当前值是否为期望删除的值，key不存在时不会调用
// 返回是否真的删除了
func (x *Locking[K, V]) removeIf(key K, match func(value V) bool) bool {
	x.mustLock("Remove")
	defer x.lock.Unlock()
	value, ok := x.inner.TryGet(key)
	if !ok || !match(value) {
		return false
	}
	return x.inner.Remove(key)
}

// Sweep 持锁调用inner的Sweep，inner不支持时什么也不做
func (x *Locking[K, V]) Sweep() {
	x.mustLock("Sweep")
	defer x.lock.Unlock()
	if s, ok := x.inner.(Sweeper); ok {
		s.Sweep()
	}
}

var (
	_ Store[string, any] = (*Locking[string, any])(nil)
	_ Sweeper            = (*Locking[string, any])(nil)
)
