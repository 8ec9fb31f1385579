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
	"fmt"
	"time"

	"github.com/vison888/localcache/pkg/localcache/expire"
	"github.com/vison888/localcache/pkg/localcache/lazy"
	"github.com/vison888/localcache/pkg/localcache/revision"
	"github.com/vison888/localcache/pkg/localcache/store"
	"k8s.io/utils/clock"
)

func defaultOption() *option {
	return &option{
		lazy:    true,
		slotNum: 1,
		target:  EmptyTarget{},
	}
}

type option struct {
	lazy     bool          // 按key懒加载，false时使用整表锁
	slotNum  int           // 分槽数量，大于1时按哈希拆分锁
	hash     any           // func(K) uint64，分槽哈希函数，string key可以不设置
	comparer any           // store.Comparer[K]
	ttl      time.Duration // 0表示不过期
	clock    clock.PassiveClock
	token    *revision.Token
	target   Target
}

// Option 缓存配置项
type Option func(o *option)

// WithLazy 设置是否按key懒加载（默认开启）
func WithLazy(lazy bool) Option {
	return func(o *option) {
		o.lazy = lazy
	}
}

// WithSlotNum 设置分槽数量，建议设置为CPU核心数的倍数
func WithSlotNum(slotNum int) Option {
	if slotNum <= 0 {
		panic("slotNum should be greater than 0")
	}
	return func(o *option) {
		o.slotNum = slotNum
	}
}

// WithHash 设置分槽使用的哈希函数，非string的key在分槽时必须设置
func WithHash[K comparable](hash func(key K) uint64) Option {
	if hash == nil {
		panic("hash should not be nil")
	}
	return func(o *option) {
		o.hash = hash
	}
}

// WithComparer 设置key的相等策略
func WithComparer[K comparable](c store.Comparer[K]) Option {
	if c == nil {
		panic("comparer should not be nil")
	}
	return func(o *option) {
		o.comparer = c
	}
}

// WithTTL 设置写入后的存活时间
func WithTTL(ttl time.Duration) Option {
	if ttl < 0 {
		panic("ttl should not be negative")
	}
	return func(o *option) {
		o.ttl = ttl
	}
}

// WithClock 替换过期判断使用的时钟
func WithClock(c clock.PassiveClock) Option {
	return func(o *option) {
		o.clock = c
	}
}

// WithToken 绑定失效令牌
func WithToken(token *revision.Token) Option {
	if token == nil {
		panic("token should not be nil")
	}
	return func(o *option) {
		o.token = token
	}
}

// WithTarget 设置统计指标收集器
func WithTarget(target Target) Option {
	if target == nil {
		panic("target should not be nil")
	}
	return func(o *option) {
		o.target = target
	}
}

// New 按选项组装缓存
//
// 组装顺序由内到外：哈希表 -> 过期(WithTTL) -> 整表锁或按key懒加载(WithLazy)
// -> 分槽(WithSlotNum) -> Cache门面 -> 失效令牌(WithToken)
func New[K comparable, V any](opts ...Option) Cache[K, V] {
	opt := defaultOption()
	for _, o := range opts {
		o(opt)
	}
	var storeOpts []store.Option[K]
	if opt.comparer != nil {
		c, ok := opt.comparer.(store.Comparer[K])
		if !ok {
			panic(fmt.Sprintf("comparer %T does not match key type", opt.comparer))
		}
		storeOpts = append(storeOpts, store.WithComparer[K](c))
	}

	create := func() store.Store[K, V] {
		if opt.lazy {
			return store.NewLazyLocking[K, V](newBase[K, *lazy.Value[V]](opt, storeOpts))
		}
		return store.NewLocking[K, V](newBase[K, V](opt, storeOpts))
	}

	var st store.Store[K, V]
	if opt.slotNum > 1 {
		st = store.NewSlotStore[K, V](opt.slotNum, slotHash[K](opt), create)
	} else {
		st = create()
	}

	c := FromStore[K, V](st, WithTarget(opt.target))
	if opt.token != nil {
		c = NewScoped[K, V](c, opt.token)
	}
	return c
}

// newBase 创建最内层的store，设置了ttl时包一层过期
func newBase[K comparable, V any](opt *option, storeOpts []store.Option[K]) store.Store[K, V] {
	if opt.ttl <= 0 {
		return store.NewHashStore[K, V](storeOpts...)
	}
	policy := expire.NewTimePolicy[V](opt.ttl, opt.clock)
	return expire.New[K, V, time.Time](policy, expire.WithStoreOption[K, V, time.Time](storeOpts...))
}

// slotHash 返回分片使用的哈希函数
// 优先使用WithHash指定的函数；string类型的key使用默认哈希，设置了StringFold时先折叠大小写
// 其他类型没有指定哈希时panic
func slotHash[K comparable](opt *option) func(key K) uint64 {
	if opt.hash != nil {
		hash, ok := opt.hash.(func(key K) uint64)
		if !ok {
			panic(fmt.Sprintf("hash %T does not match key type", opt.hash))
		}
		return hash
	}
	var key K
	if _, ok := any(key).(string); ok {
		if fold, ok := opt.comparer.(store.StringFold); ok {
			return func(key K) uint64 { return fold.Hash(any(key).(string)) }
		}
		return func(key K) uint64 { return store.StringHash(any(key).(string)) }
	}
	panic("slot hash is required for non-string keys")
}

// EmptyTarget 不做任何统计
type EmptyTarget struct{}

func (EmptyTarget) IncrGetHit() {}

func (EmptyTarget) IncrGetSuccess() {}

func (EmptyTarget) IncrGetFailed() {}

func (EmptyTarget) IncrClear() {}
