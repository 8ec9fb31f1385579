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

// NewSlotStore 按哈希把key分散到n个独立的store中
// 每个槽位由create单独创建，通常是 Locking 或 LazyLocking，
// 这样整表锁被拆成n把锁。分槽本身不加任何锁
func NewSlotStore[K comparable, V any](n int, hash func(key K) uint64, create func() Store[K, V]) Store[K, V] {
	if n <= 0 {
		panic("slot number should be positive")
	}
	if hash == nil || create == nil {
		panic("hash and create should not be nil")
	}
	x := &slotStore[K, V]{
		n:     uint64(n),
		slots: make([]Store[K, V], n),
		hash:  hash,
	}
	for i := 0; i < n; i++ {
		x.slots[i] = create()
	}
	return x
}

type slotStore[K comparable, V any] struct {
	n     uint64
	slots []Store[K, V]
	hash  func(key K) uint64
}

func (x *slotStore[K, V]) slot(key K) Store[K, V] {
	return x.slots[x.hash(key)%x.n]
}

func (x *slotStore[K, V]) ContainsKey(key K) bool {
	return x.slot(key).ContainsKey(key)
}

func (x *slotStore[K, V]) Add(key K, value V) error {
	return x.slot(key).Add(key, value)
}

func (x *slotStore[K, V]) Remove(key K) bool {
	return x.slot(key).Remove(key)
}

// Clear 逐个清空槽位，整体不是原子的
func (x *slotStore[K, V]) Clear() {
	for _, s := range x.slots {
		s.Clear()
	}
}

func (x *slotStore[K, V]) Get(key K) (V, error) {
	return x.slot(key).Get(key)
}

func (x *slotStore[K, V]) Set(key K, value V) {
	x.slot(key).Set(key, value)
}

func (x *slotStore[K, V]) TryGet(key K) (V, bool) {
	return x.slot(key).TryGet(key)
}

func (x *slotStore[K, V]) GetOrCreate(key K, create func(key K) (V, error)) (V, error) {
	return x.slot(key).GetOrCreate(key, create)
}

func (x *slotStore[K, V]) GetOrDefault(key K) V {
	return x.slot(key).GetOrDefault(key)
}

func (x *slotStore[K, V]) Len() int {
	var n int
	for _, s := range x.slots {
		n += s.Len()
	}
	return n
}

func (x *slotStore[K, V]) Range(fn func(key K, value V) bool) {
	for _, s := range x.slots {
		next := true
		s.Range(func(key K, value V) bool {
			next = fn(key, value)
			return next
		})
		if !next {
			return
		}
	}
}

func (x *slotStore[K, V]) Sweep() {
	for _, s := range x.slots {
		if sw, ok := s.(Sweeper); ok {
			sw.Sweep()
		}
	}
}
