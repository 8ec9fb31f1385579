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

// Package notify 通过redis发布订阅在多个进程之间传播缓存失效
//
// 每个缓存按topic分组，同一个topic的缓存共享 Registry 中的失效令牌。
// 数据变化的一方通过 Publisher 发布topic列表，所有进程的 Subscribe
// 收到消息后对这些topic及依赖它们的topic调用 Invalidate。
// redis只传递失效信号，不保存任何缓存数据。
package notify // import "github.com/vison888/localcache/pkg/localcache/notify"
