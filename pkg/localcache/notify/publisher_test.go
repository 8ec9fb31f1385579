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
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisherFlushOnClose(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()
	mock.ExpectPublish("local-cache", `["friend","user"]`).SetVal(1)

	p := NewPublisher(client, "local-cache", WithInterval(time.Hour))
	p.Start()
	require.NoError(t, p.Publish(ctx, "user", "friend"))
	require.NoError(t, p.Publish(ctx, "user"))
	require.NoError(t, p.Publish(ctx))
	p.Close()
	p.Close()

	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Error(t, p.Publish(ctx, "user"))
}

func TestPublisherFlushOnSize(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()
	mock.ExpectPublish("local-cache", `["a","b"]`).SetVal(1)
	mock.ExpectPublish("local-cache", `["c"]`).SetVal(1)

	p := NewPublisher(client, "local-cache", WithInterval(time.Hour), WithSize(2))
	p.Start()
	// 单个消费者按顺序处理，达到size的一批先于后续的topic发布
	require.NoError(t, p.Publish(ctx, "b", "a"))
	require.NoError(t, p.Publish(ctx, "c"))
	p.Close()
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPublisherLocalRegistry(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()
	mock.ExpectPublish("ch", `["user"]`).SetErr(assert.AnError)

	reg := NewRegistry()
	tk := reg.Token("user")
	p := NewPublisher(client, "ch", WithInterval(10*time.Millisecond), WithRegistry(reg))
	p.Start()
	defer p.Close()

	require.NoError(t, p.Publish(ctx, "user"))
	// 本地令牌同步失效，不依赖redis
	assert.Equal(t, uint64(1), tk.Current())
	require.Eventually(t, func() bool {
		return mock.ExpectationsWereMet() == nil
	}, time.Second, 5*time.Millisecond)
}

func TestPublisherCanceledContext(t *testing.T) {
	client, _ := redismock.NewClientMock()
	p := NewPublisher(client, "ch", WithBuffer(0))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// 未启动时通道无人接收
	assert.ErrorIs(t, p.Publish(ctx, "user"), context.Canceled)
}
