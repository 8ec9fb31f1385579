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

import "context"

// Null 返回不缓存任何数据的空实现
// GetOrCreate 每次都调用fetch，TryGet 总是未命中
func Null[K comparable, V any]() Cache[K, V] {
	return nullCache[K, V]{}
}

type nullCache[K comparable, V any] struct{}

func (nullCache[K, V]) GetOrCreate(ctx context.Context, key K, fetch func(ctx context.Context, key K) (V, error)) (V, error) {
	return fetch(ctx, key)
}

func (nullCache[K, V]) TryGet(context.Context, K) (V, bool) {
	var zero V
	return zero, false
}

func (nullCache[K, V]) Clear(context.Context) {}

func (nullCache[K, V]) IsNull() bool {
	return true
}
