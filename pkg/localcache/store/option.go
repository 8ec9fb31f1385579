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
	"strings"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
)

// Comparer 定义key的相等与哈希策略
// Equal(a, b) 为true时 Hash(a) 必须等于 Hash(b)
type Comparer[K any] interface {
	Hash(key K) uint64
	Equal(a, b K) bool
}

// StringFold 忽略大小写比较字符串key
type StringFold struct{}

func (StringFold) Hash(key string) uint64 {
	if isASCIILower(key) {
		return xxhash.Sum64String(key)
	}
	return xxhash.Sum64String(strings.ToLower(strings.ToUpper(key)))
}

func (StringFold) Equal(a, b string) bool {
	return strings.EqualFold(a, b)
}

// isASCIILower 判断s是否只包含ASCII且没有大写字母，满足时可以跳过转换
func isASCIILower(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= utf8.RuneSelf || ('A' <= c && c <= 'Z') {
			return false
		}
	}
	return true
}

// StringHash 是字符串key默认的分槽哈希函数
func StringHash(key string) uint64 {
	return xxhash.Sum64String(key)
}

// defaultOption 默认使用key自身的相等比较
func defaultOption[K comparable]() *option[K] {
	return &option[K]{}
}

type option[K comparable] struct {
	comparer Comparer[K] // nil 表示使用 ==
	capacity int         // 初始容量提示
}

// Option 配置 NewHashStore
type Option[K comparable] func(o *option[K])

// WithComparer 使用自定义的相等/哈希策略
func WithComparer[K comparable](c Comparer[K]) Option[K] {
	return func(o *option[K]) {
		o.comparer = c
	}
}

// WithCapacity 设置初始容量
func WithCapacity[K comparable](n int) Option[K] {
	if n < 0 {
		panic("capacity should not be negative")
	}
	return func(o *option[K]) {
		o.capacity = n
	}
}
