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

package lazy

import (
	"sync/atomic"

	"github.com/petermattis/goid"
)

const (
	pending int32 = iota
	resolved
	failed
)

// Value 单值懒加载单元
// 由安装它的调用者调用Resolve计算一次，其他goroutine通过Wait等待结果。
// 计算失败、panic或被作废的单元进入failed状态，之后不会再变为resolved，
// 等待者拿到失败结果后应当换一个新单元用自己的fetch重试。
type Value[V any] struct {
	state     atomic.Int32
	owner     atomic.Int64 // 正在执行Resolve的goroutine id，0表示没有
	abandoned atomic.Bool  // 计算期间被解析者自己重入，结果作废
	done      chan struct{}
	value     V
}

// New 创建一个待解析的单元
func New[V any]() *Value[V] {
	return &Value[V]{done: make(chan struct{})}
}

// Resolved 创建一个已经解析好的单元
func Resolved[V any](value V) *Value[V] {
	x := &Value[V]{value: value, done: make(chan struct{})}
	x.state.Store(resolved)
	close(x.done)
	return x
}

// Resolve 在当前goroutine执行fetch并发布结果，每个单元只能调用一次
// 返回值就是fetch的返回值；fetch出错、panic或期间被Abandon时单元进入failed状态
func (x *Value[V]) Resolve(fetch func() (V, error)) (value V, err error) {
	if x.state.Load() != pending || !x.owner.CompareAndSwap(0, goid.Get()) {
		panic("lazy value should be resolved only once")
	}
	ok := false
	defer func() {
		x.owner.Store(0)
		if ok && !x.abandoned.Load() {
			x.value = value
			x.state.Store(resolved)
		} else {
			x.state.Store(failed)
		}
		close(x.done)
	}()
	value, err = fetch()
	ok = err == nil
	return value, err
}

// Wait 阻塞到单元计算结束，ok为false表示计算失败
// 解析者自己调用会永久阻塞，调用前先用Owned检查
func (x *Value[V]) Wait() (V, bool) {
	<-x.done
	if x.state.Load() != resolved {
		var zero V
		return zero, false
	}
	return x.value, true
}

// Owned 当前goroutine是否正在执行该单元的Resolve
func (x *Value[V]) Owned() bool {
	return x.owner.Load() == goid.Get()
}

// Abandon 作废正在进行的计算，Resolve结束后单元进入failed状态
func (x *Value[V]) Abandon() {
	x.abandoned.Store(true)
}

// Abandoned 返回计算是否被作废
func (x *Value[V]) Abandoned() bool {
	return x.abandoned.Load()
}

// IsResolved 返回单元是否已经解析成功
func (x *Value[V]) IsResolved() bool {
	return x.state.Load() == resolved
}

// IsFailed 返回单元是否已经计算失败
func (x *Value[V]) IsFailed() bool {
	return x.state.Load() == failed
}
