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

package notify

import (
	"context"
	"sort"
	"sync"

	"github.com/openimsdk/tools/log"
	"github.com/vison888/localcache/pkg/localcache/link"
	"github.com/vison888/localcache/pkg/localcache/revision"
)

// NewRegistry 创建topic注册表
func NewRegistry() *Registry {
	return &Registry{
		tokens: make(map[string]*revision.Token),
		link:   link.New(16),
	}
}

// Registry 维护topic到失效令牌的映射
// 同一个topic的所有缓存共享一个令牌，topic之间的依赖关系记录在link中
type Registry struct {
	lock   sync.RWMutex
	tokens map[string]*revision.Token
	link   link.Link
}

// Token 返回topic的令牌，不存在时创建
func (r *Registry) Token(topic string) *revision.Token {
	r.lock.RLock()
	t, ok := r.tokens[topic]
	r.lock.RUnlock()
	if ok {
		return t
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	if t, ok = r.tokens[topic]; ok {
		return t
	}
	t = revision.New()
	r.tokens[topic] = t
	return t
}

// Depend 声明topic依赖deps，任意一个dep失效时topic也失效
func (r *Registry) Depend(topic string, deps ...string) {
	for _, dep := range deps {
		r.link.Point(dep, topic)
	}
}

// Bind 把topics绑定在一起，任意一个失效时全部失效
func (r *Registry) Bind(topics ...string) {
	if len(topics) < 2 {
		return
	}
	r.link.Link(topics[0], topics[1:]...)
}

// Closure 返回topics及所有依赖它们的topic，已排序
func (r *Registry) Closure(topics ...string) []string {
	all := make(map[string]struct{})
	for _, topic := range topics {
		for k := range r.link.Reach(topic) {
			all[k] = struct{}{}
		}
	}
	res := make([]string, 0, len(all))
	for k := range all {
		res = append(res, k)
	}
	sort.Strings(res)
	return res
}

// Invalidate 使topics及其依赖方的令牌失效，每个令牌只推进一次
// 没有注册过令牌的topic不会被创建，返回实际失效的topic
func (r *Registry) Invalidate(ctx context.Context, topics ...string) []string {
	var done []string
	for _, topic := range r.Closure(topics...) {
		r.lock.RLock()
		t, ok := r.tokens[topic]
		r.lock.RUnlock()
		if !ok {
			continue
		}
		rev := t.Invalidate()
		done = append(done, topic)
		log.ZDebug(ctx, "local cache topic invalidated", "topic", topic, "revision", rev)
	}
	return done
}

// Topics 返回所有已注册的topic，已排序
func (r *Registry) Topics() []string {
	r.lock.RLock()
	defer r.lock.RUnlock()
	res := make([]string, 0, len(r.tokens))
	for k := range r.tokens {
		res = append(res, k)
	}
	sort.Strings(res)
	return res
}
