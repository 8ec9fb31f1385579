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

// Package store 提供本地缓存的存储层
//
// 所有实现共享同一个 Store 接口，通过装饰器逐层叠加能力：
//
//   - NewHashStore：基础哈希表，不做并发保护，可注入 Comparer 自定义key相等
//   - Locking：整表互斥锁，GetOrCreate 持锁执行create，重入时快速失败
//   - LazyLocking：每个key一个懒加载单元，create在锁外执行，同key最多成功一次
//   - NewSlotStore：按哈希分槽，把一把锁拆成多把
//
// 使用示例：
//
//	s := store.NewLazyLockingStore[string, *User]()
//	u, err := s.GetOrCreate("1001", func(id string) (*User, error) {
//	    return db.FindUser(id)
//	})
package store // import "github.com/vison888/localcache/pkg/localcache/store"
