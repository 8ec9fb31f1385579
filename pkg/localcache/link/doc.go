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

// Package link 管理缓存topic之间的关联关系
//
// 一个topic失效时，所有能从它到达的topic都要一起失效。
// 关联按key的哈希分片存储，每个分片独立加锁；
// Reach 使用栈做深度优先遍历，已访问集合保证有环时也能结束。
//
// 使用示例：
//
//	l := link.New(8)
//	l.Point("user", "friend", "group") // user变化时friend和group也失效
//	l.Reach("user")                    // {user, friend, group}
package link // import "github.com/vison888/localcache/pkg/localcache/link"
