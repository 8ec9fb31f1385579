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

// Store 是最基础的键值容器接口，所有装饰器（加锁、懒加载、过期）都实现并包装同一个接口
// 基础实现不做任何并发保护，并发访问需要在外层套上 Locking 或 LazyLocking
type Store[K comparable, V any] interface {
	// ContainsKey 判断key是否存在
	ContainsKey(key K) bool

	// Add 添加新的键值对，key已存在时返回 ErrDuplicateKey
	Add(key K, value V) error

	// Remove 删除key，返回key之前是否存在
	Remove(key K) bool

	// Clear 清空所有数据
	Clear()

	// Get 获取key对应的值，不存在时返回 ErrKeyNotFound
	Get(key K) (V, error)

	// Set 写入或覆盖key对应的值
	Set(key K, value V)

	// TryGet 获取key对应的值，第二个返回值表示是否命中
	TryGet(key K) (V, bool)

	// GetOrCreate 命中时直接返回已有值，未命中时调用create生成值并保存
	// create返回错误时不会写入任何数据，错误原样返回给调用者
	GetOrCreate(key K, create func(key K) (V, error)) (V, error)

	// GetOrDefault 获取key对应的值，未命中时返回零值
	GetOrDefault(key K) V

	// Len 返回当前保存的条目数量
	Len() int

	// Range 遍历所有条目，fn返回false时停止
	// 遍历过程中不允许修改store
	Range(fn func(key K, value V) bool)
}

// Sweeper 由支持主动清理过期数据的store实现
type Sweeper interface {
	Sweep()
}

// NewHashStore 创建基于哈希表的Store
// 默认使用key的自然相等（==），通过 WithComparer 可以注入自定义的相等/哈希策略
func NewHashStore[K comparable, V any](opts ...Option[K]) Store[K, V] {
	opt := defaultOption[K]()
	for _, o := range opts {
		o(opt)
	}
	if opt.comparer == nil {
		return &mapStore[K, V]{data: make(map[K]V, opt.capacity)}
	}
	return &bucketStore[K, V]{
		cmp:     opt.comparer,
		buckets: make(map[uint64][]entry[K, V], opt.capacity),
	}
}

// mapStore 使用Go原生map，key按 == 比较
type mapStore[K comparable, V any] struct {
	data map[K]V
}

func (x *mapStore[K, V]) ContainsKey(key K) bool {
	_, ok := x.data[key]
	return ok
}

func (x *mapStore[K, V]) Add(key K, value V) error {
	if _, ok := x.data[key]; ok {
		return ErrDuplicateKey.WrapMsg("key already exists", "key", key)
	}
	x.data[key] = value
	return nil
}

func (x *mapStore[K, V]) Remove(key K) bool {
	if _, ok := x.data[key]; !ok {
		return false
	}
	delete(x.data, key)
	return true
}

func (x *mapStore[K, V]) Clear() {
	clear(x.data)
}

func (x *mapStore[K, V]) Get(key K) (V, error) {
	v, ok := x.data[key]
	if !ok {
		return v, ErrKeyNotFound.WrapMsg("key not found", "key", key)
	}
	return v, nil
}

func (x *mapStore[K, V]) Set(key K, value V) {
	x.data[key] = value
}

func (x *mapStore[K, V]) TryGet(key K) (V, bool) {
	v, ok := x.data[key]
	return v, ok
}

func (x *mapStore[K, V]) GetOrCreate(key K, create func(key K) (V, error)) (V, error) {
	if v, ok := x.data[key]; ok {
		return v, nil
	}
	v, err := create(key)
	if err != nil {
		return v, err
	}
	x.data[key] = v
	return v, nil
}

func (x *mapStore[K, V]) GetOrDefault(key K) V {
	return x.data[key]
}

func (x *mapStore[K, V]) Len() int {
	return len(x.data)
}

func (x *mapStore[K, V]) Range(fn func(key K, value V) bool) {
	for k, v := range x.data {
		if !fn(k, v) {
			return
		}
	}
}

type entry[K comparable, V any] struct {
	key   K
	value V
}

// bucketStore 按 Comparer.Hash 分桶，桶内用 Comparer.Equal 线性比较
// 第一次写入的key作为该条目的代表key保存
type bucketStore[K comparable, V any] struct {
	cmp     Comparer[K]
	buckets map[uint64][]entry[K, V]
	n       int
}

func (x *bucketStore[K, V]) find(key K) (uint64, int) {
	h := x.cmp.Hash(key)
	for i, e := range x.buckets[h] {
		if x.cmp.Equal(e.key, key) {
			return h, i
		}
	}
	return h, -1
}

func (x *bucketStore[K, V]) ContainsKey(key K) bool {
	_, i := x.find(key)
	return i >= 0
}

func (x *bucketStore[K, V]) Add(key K, value V) error {
	h, i := x.find(key)
	if i >= 0 {
		return ErrDuplicateKey.WrapMsg("key already exists", "key", key)
	}
	x.buckets[h] = append(x.buckets[h], entry[K, V]{key: key, value: value})
	x.n++
	return nil
}

func (x *bucketStore[K, V]) Remove(key K) bool {
	h, i := x.find(key)
	if i < 0 {
		return false
	}
	b := x.buckets[h]
	last := len(b) - 1
	b[i] = b[last]
	b[last] = entry[K, V]{}
	if last == 0 {
		delete(x.buckets, h)
	} else {
		x.buckets[h] = b[:last]
	}
	x.n--
	return true
}

func (x *bucketStore[K, V]) Clear() {
	clear(x.buckets)
	x.n = 0
}

func (x *bucketStore[K, V]) Get(key K) (V, error) {
	h, i := x.find(key)
	if i < 0 {
		var zero V
		return zero, ErrKeyNotFound.WrapMsg("key not found", "key", key)
	}
	return x.buckets[h][i].value, nil
}

func (x *bucketStore[K, V]) Set(key K, value V) {
	h, i := x.find(key)
	if i >= 0 {
		x.buckets[h][i].value = value
		return
	}
	x.buckets[h] = append(x.buckets[h], entry[K, V]{key: key, value: value})
	x.n++
}

func (x *bucketStore[K, V]) TryGet(key K) (V, bool) {
	h, i := x.find(key)
	if i < 0 {
		var zero V
		return zero, false
	}
	return x.buckets[h][i].value, true
}

func (x *bucketStore[K, V]) GetOrCreate(key K, create func(key K) (V, error)) (V, error) {
	if h, i := x.find(key); i >= 0 {
		return x.buckets[h][i].value, nil
	}
	v, err := create(key)
	if err != nil {
		return v, err
	}
	x.Set(key, v)
	return v, nil
}

func (x *bucketStore[K, V]) GetOrDefault(key K) V {
	v, _ := x.TryGet(key)
	return v
}

func (x *bucketStore[K, V]) Len() int {
	return x.n
}

func (x *bucketStore[K, V]) Range(fn func(key K, value V) bool) {
	for _, b := range x.buckets {
		for _, e := range b {
			if !fn(e.key, e.value) {
				return
			}
		}
	}
}
