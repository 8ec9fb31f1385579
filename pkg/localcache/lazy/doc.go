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

// Package lazy 提供单值懒加载原语 Value
//
// Value 只由安装它的调用者解析一次，其他goroutine等待结果而不会执行自己的fetch。
// 失败的单元不会复活，等待者换新单元重试，因此每次计算使用的都是调用者自己的回调。
// 它是 store.LazyLocking 实现按key粒度加锁的基础：
// 外层锁只负责安装 Value，真正耗时的计算在锁外完成。
package lazy // import "github.com/vison888/localcache/pkg/localcache/lazy"
