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

// Package revision 提供缓存失效令牌
//
// Token 是一个单调递增的版本号，多个缓存可以共享同一个令牌，
// 调用 Invalidate 之后，所有观察该令牌的缓存在下一次访问时清空自己。
package revision // import "github.com/vison888/localcache/pkg/localcache/revision"

import "sync/atomic"

// Token 失效令牌，零值可用，初始版本为0
type Token struct {
	rev atomic.Uint64
}

// New 创建版本为0的令牌
func New() *Token {
	return &Token{}
}

// Invalidate 使所有基于当前版本的缓存失效，返回新版本
func (t *Token) Invalidate() uint64 {
	return t.rev.Add(1)
}

// Current 返回当前版本
func (t *Token) Current() uint64 {
	return t.rev.Load()
}

// IsCurrent 判断rev是否仍是当前版本
func (t *Token) IsCurrent(rev uint64) bool {
	return t.rev.Load() == rev
}
