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

// Package expire 提供按策略过期的store装饰器
//
// 过期判断完全交给 Policy：写入时计算过期信息，读取时判断是否过期，
// 写操作之后由策略决定是否全量清理。TimePolicy 是固定TTL的实现，
// 时钟通过 k8s.io/utils/clock 注入，测试中可以使用假时钟。
//
// 使用示例：
//
//	s := store.NewLocking[string, int](expire.NewTTL[string, int](time.Minute))
package expire // import "github.com/vison888/localcache/pkg/localcache/expire"
