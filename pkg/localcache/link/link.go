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

package link

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Link 管理key之间的关联关系
// 关联是有向的：from指向to表示from变化时to也要跟着处理
type Link interface {
	// Link 建立双向关联，key和link中任意一个变化时其余都要处理
	Link(key string, link ...string)

	// Point 建立从key指向to的单向关联
	Point(key string, to ...string)

	// Reach 返回从key出发能到达的所有key（包括自身），不修改关联关系
	Reach(key string) map[string]struct{}

	// Unlink 删除从key出发的所有关联，返回被删除的直接关联
	Unlink(key string) map[string]struct{}
}

// newLinkKey 创建空分片
func newLinkKey() *linkKey {
	return &linkKey{
		data: make(map[string]map[string]struct{}),
	}
}

// linkKey 单个分片
type linkKey struct {
	lock sync.Mutex
	data map[string]map[string]struct{} // key -> 直接关联的key
}

// link 记录key的直接关联，忽略指向自身的关联
// key: 起点
// link: 需要关联的key，重复添加只保留一份
func (x *linkKey) link(key string, link ...string) {
	x.lock.Lock()
	defer x.lock.Unlock()
	v, ok := x.data[key]
	if !ok {
		v = make(map[string]struct{})
		x.data[key] = v
	}
	for _, k := range link {
		if k != key {
			v[k] = struct{}{}
		}
	}
}

// next 复制一份直接关联，调用方可以在锁外遍历
func (x *linkKey) next(key string) []string {
	x.lock.Lock()
	defer x.lock.Unlock()
	ks := x.data[key]
	if len(ks) == 0 {
		return nil
	}
	res := make([]string, 0, len(ks))
	for k := range ks {
		res = append(res, k)
	}
	return res
}

// del 删除key的全部直接关联
// 返回被删除的关联集合，key不存在时返回nil
func (x *linkKey) del(key string) map[string]struct{} {
	x.lock.Lock()
	defer x.lock.Unlock()
	ks, ok := x.data[key]
	if !ok {
		return nil
	}
	delete(x.data, key)
	return ks
}

// New 创建分片数为n的Link
func New(n int) Link {
	if n <= 0 {
		panic("must be greater than 0")
	}
	slots := make([]*linkKey, n)
	for i := 0; i < len(slots); i++ {
		slots[i] = newLinkKey()
	}
	return &slot{
		n:     uint64(n),
		slots: slots,
	}
}

// slot 按key哈希分片，每个分片一把锁
type slot struct {
	n     uint64
	slots []*linkKey
}

// index 计算key所在的分片下标
func (x *slot) index(s string) uint64 {
	return xxhash.Sum64String(s) % x.n
}

// Link 两个方向分别写入各自所在的分片
func (x *slot) Link(key string, link ...string) {
	if len(link) == 0 {
		return
	}
	lks := make([]string, len(link))
	copy(lks, link)
	x.slots[x.index(key)].link(key, lks...)
	for _, lk := range lks {
		x.slots[x.index(lk)].link(lk, key)
	}
}

func (x *slot) Point(key string, to ...string) {
	if len(to) == 0 {
		return
	}
	x.slots[x.index(key)].link(key, to...)
}

// Reach 深度优先遍历，已访问集合防止环
func (x *slot) Reach(key string) map[string]struct{} {
	seen := make(map[string]struct{})
	stack := []string{key}
	for len(stack) > 0 {
		curr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[curr]; ok {
			continue
		}
		seen[curr] = struct{}{}
		stack = append(stack, x.slots[x.index(curr)].next(curr)...)
	}
	return seen
}

// Unlink 只删除key自身的出边，其他key指向key的关联保留
func (x *slot) Unlink(key string) map[string]struct{} {
	return x.slots[x.index(key)].del(key)
}
