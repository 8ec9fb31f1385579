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

import "github.com/vison888/localcache/pkg/localcache/lazy"

// NewLazyLocking 在inner之上构建按key懒加载的并发store
// inner保存的是懒加载单元，外层只在安装/查找单元时短暂持锁，
// 真正的create在锁外执行，不同key的计算互不阻塞
func NewLazyLocking[K comparable, V any](inner Store[K, *lazy.Value[V]]) *LazyLocking[K, V] {
	return &LazyLocking[K, V]{cells: NewLocking[K, *lazy.Value[V]](inner)}
}

// NewLazyLockingStore 使用哈希表作为inner创建 LazyLocking
func NewLazyLockingStore[K comparable, V any](opts ...Option[K]) *LazyLocking[K, V] {
	return NewLazyLocking[K, V](NewHashStore[K, *lazy.Value[V]](opts...))
}

// LazyLocking 每个key对应一个懒加载单元，同一个key的create最多成功执行一次
//
// 单元由安装它的调用者用自己的create解析，其他调用者只等待结果。
// create失败时只有安装者拿到错误，失败单元被移除，等待者各自重新进入GetOrCreate，
// 用自己的create再试一次。
// create中访问其他key是安全的；读取自己的key会立即返回 ErrReentrantAccess，
// 本次计算作废，即使create忽略了该错误也不会写入结果。
type LazyLocking[K comparable, V any] struct {
	cells *Locking[K, *lazy.Value[V]]
}

// sameCell 返回只匹配cell本身的条件，用于removeIf
// 已被Set/Add替换或重新安装的单元不受影响
func sameCell[V any](cell *lazy.Value[V]) func(c *lazy.Value[V]) bool {
	return func(c *lazy.Value[V]) bool { return c == cell }
}

// install 查找key对应的单元，不存在时安装一个待解析的新单元
// installed为true表示单元由本次调用安装，必须由本次调用解析
func (x *LazyLocking[K, V]) install(key K) (cell *lazy.Value[V], installed bool, err error) {
	cell, err = x.cells.GetOrCreate(key, func(K) (*lazy.Value[V], error) {
		installed = true
		return lazy.New[V](), nil
	})
	return cell, installed, err
}

// resolve 安装者在锁外执行create
// 单元最终没有解析成功（出错、panic或被作废）时从表中移除，
// 失败的单元不会再变为resolved，因此不会误删其他调用者的结果
func (x *LazyLocking[K, V]) resolve(key K, cell *lazy.Value[V], create func(key K) (V, error)) (V, error) {
	defer func() {
		if !cell.IsResolved() {
			x.cells.removeIf(key, sameCell(cell))
		}
	}()
	value, err := cell.Resolve(func() (V, error) {
		return create(key)
	})
	if cell.Abandoned() {
		var zero V
		return zero, newReentrantError(x, "GetOrCreate", key).err
	}
	return value, err
}

// await 等待其他调用者安装的单元
// 当前goroutine正是该单元的解析者时作废本次计算并返回 ErrReentrantAccess；
// ok为false表示解析失败，失败单元已被移除
func (x *LazyLocking[K, V]) await(op string, key K, cell *lazy.Value[V]) (value V, ok bool, err error) {
	if cell.Owned() {
		cell.Abandon()
		return value, false, newReentrantError(x, op, key).err
	}
	value, ok = cell.Wait()
	if !ok {
		x.cells.removeIf(key, sameCell(cell))
	}
	return value, ok, nil
}

func (x *LazyLocking[K, V]) ContainsKey(key K) bool {
	return x.cells.ContainsKey(key)
}

func (x *LazyLocking[K, V]) Add(key K, value V) error {
	return x.cells.Add(key, lazy.Resolved(value))
}

func (x *LazyLocking[K, V]) Remove(key K) bool {
	return x.cells.Remove(key)
}

func (x *LazyLocking[K, V]) Clear() {
	x.cells.Clear()
}

// Get 正在计算的单元会等待其结果，计算失败按不存在处理
func (x *LazyLocking[K, V]) Get(key K) (V, error) {
	var zero V
	cell, err := x.cells.Get(key)
	if err != nil {
		return zero, err
	}
	value, ok, err := x.await("Get", key, cell)
	if err != nil {
		return zero, err
	}
	if !ok {
		return zero, ErrKeyNotFound.WrapMsg("key not found", "key", key)
	}
	return value, nil
}

func (x *LazyLocking[K, V]) Set(key K, value V) {
	x.cells.Set(key, lazy.Resolved(value))
}

// TryGet 只查找不安装，正在计算的单元会等待其结果
// 计算失败或在自己的create中读取自己的key都视为未命中
func (x *LazyLocking[K, V]) TryGet(key K) (V, bool) {
	var zero V
	cell, ok := x.cells.TryGet(key)
	if !ok {
		return zero, false
	}
	value, ok, err := x.await("TryGet", key, cell)
	if err != nil || !ok {
		return zero, false
	}
	return value, true
}

// GetOrCreate 每一轮要么安装新单元并用自己的create解析，要么等待已有单元；
// 等待的单元失败后进入下一轮，直到本次调用拿到结果或自己的create出错
func (x *LazyLocking[K, V]) GetOrCreate(key K, create func(key K) (V, error)) (V, error) {
	for {
		cell, installed, err := x.install(key)
		if err != nil {
			var zero V
			return zero, err
		}
		if installed {
			return x.resolve(key, cell, create)
		}
		value, ok, err := x.await("GetOrCreate", key, cell)
		if err != nil || ok {
			return value, err
		}
	}
}

func (x *LazyLocking[K, V]) GetOrDefault(key K) V {
	value, _ := x.TryGet(key)
	return value
}

// Len 包含正在计算中的单元
func (x *LazyLocking[K, V]) Len() int {
	return x.cells.Len()
}

// Range 只遍历已经解析的单元，不等待正在计算的单元
func (x *LazyLocking[K, V]) Range(fn func(key K, value V) bool) {
	x.cells.Range(func(key K, cell *lazy.Value[V]) bool {
		if !cell.IsResolved() {
			return true
		}
		value, _ := cell.Wait()
		return fn(key, value)
	})
}

func (x *LazyLocking[K, V]) Sweep() {
	x.cells.Sweep()
}

var (
	_ Store[string, any] = (*LazyLocking[string, any])(nil)
	_ Sweeper            = (*LazyLocking[string, any])(nil)
)
