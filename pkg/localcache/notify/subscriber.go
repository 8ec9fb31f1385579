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
	"encoding/json"

	"github.com/openimsdk/tools/errs"
	"github.com/openimsdk/tools/log"
	"github.com/redis/go-redis/v9"
)

// Subscribe 订阅redis频道，收到的每条消息是JSON编码的topic列表，
// 对这些topic调用 Registry.Invalidate。阻塞直到ctx取消或连接关闭
func Subscribe(ctx context.Context, client redis.UniversalClient, channel string, reg *Registry) {
	defer func() {
		if r := recover(); r != nil {
			log.ZPanic(ctx, "local cache subscriber panic", errs.ErrPanic(r))
		}
	}()
	sub := client.Subscribe(ctx, channel)
	defer sub.Close()
	for message := range sub.Channel() {
		log.ZDebug(ctx, "local cache subscriber", "channel", channel, "payload", message.Payload)
		if err := HandlePayload(ctx, reg, message.Payload); err != nil {
			log.ZError(ctx, "local cache subscriber bad payload", err, "channel", channel)
		}
	}
}

// HandlePayload 解析一条失效消息并执行失效
func HandlePayload(ctx context.Context, reg *Registry, payload string) error {
	var topics []string
	if err := json.Unmarshal([]byte(payload), &topics); err != nil {
		return errs.WrapMsg(err, "json.Unmarshal failed", "payload", payload)
	}
	if len(topics) == 0 {
		return nil
	}
	reg.Invalidate(ctx, topics...)
	return nil
}

// encodeTopics 生成与 HandlePayload 对应的消息
func encodeTopics(topics []string) (string, error) {
	data, err := json.Marshal(topics)
	if err != nil {
		return "", errs.WrapMsg(err, "json.Marshal failed")
	}
	return string(data), nil
}
