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

// Package localcache 提供进程内的并发缓存
//
// 缓存由若干层store装饰器组装而成，见 store、lazy、expire 子包；
// Cache 是面向调用方的门面，NewScoped 把缓存绑定到共享的失效令牌上，
// 令牌版本变化时缓存在下一次访问前清空自己。
//
// 使用示例：
//
//	token := revision.New()
//	users := localcache.New[string, *User](
//	    localcache.WithTTL(time.Minute),
//	    localcache.WithSlotNum(16),
//	    localcache.WithToken(token),
//	)
//	u, err := users.GetOrCreate(ctx, "1001", func(ctx context.Context, id string) (*User, error) {
//	    return db.FindUser(ctx, id)
//	})
//
//	// 底层数据发生变化
//	token.Invalidate()
package localcache // import "github.com/vison888/localcache/pkg/localcache"
