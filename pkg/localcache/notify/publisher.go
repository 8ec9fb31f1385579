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
	"time"

	"github.com/google/uuid"
	"github.com/openimsdk/tools/errs"
	"github.com/openimsdk/tools/log"
	"github.com/openimsdk/tools/mcontext"
	"github.com/redis/go-redis/v9"
)

var (
	DefaultInterval = time.Second // 定时发布间隔
	DefaultSize     = 100         // 聚合的topic数量达到该值时立即发布
	DefaultBuffer   = 1000        // 待发布通道的容量
)

type publisherConfig struct {
	interval time.Duration
	size     int
	buffer   int
	registry *Registry
}

// PublisherOption 配置 Publisher
type PublisherOption func(c *publisherConfig)

func WithInterval(i time.Duration) PublisherOption {
	return func(c *publisherConfig) {
		c.interval = i
	}
}

func WithSize(s int) PublisherOption {
	return func(c *publisherConfig) {
		c.size = s
	}
}

func WithBuffer(b int) PublisherOption {
	return func(c *publisherConfig) {
		c.buffer = b
	}
}

// WithRegistry 发布前先在本进程内同步失效，不必等待自己订阅到的消息
func WithRegistry(reg *Registry) PublisherOption {
	return func(c *publisherConfig) {
		c.registry = reg
	}
}

// NewPublisher 创建失效消息发布器，需要调用 Start 启动
func NewPublisher(client redis.UniversalClient, channel string, opts ...PublisherOption) *Publisher {
	c := &publisherConfig{
		interval: DefaultInterval,
		size:     DefaultSize,
		buffer:   DefaultBuffer,
	}
	for _, opt := range opts {
		opt(c)
	}
	p := &Publisher{
		config:  c,
		client:  client,
		channel: channel,
		data:    make(chan []string, c.buffer),
	}
	p.globalCtx, p.cancel = context.WithCancel(context.Background())
	return p
}

// Publisher 在一个间隔内聚合失效的topic，去重后作为一条消息发布
type Publisher struct {
	config  *publisherConfig
	client  redis.UniversalClient
	channel string

	globalCtx context.Context
	cancel    context.CancelFunc
	data      chan []string
	wait      sync.WaitGroup
	closeOnce sync.Once
}

func (p *Publisher) Start() {
	p.wait.Add(1)
	go p.scheduler()
}

// Publish 投递需要失效的topic
func (p *Publisher) Publish(ctx context.Context, topics ...string) error {
	if len(topics) == 0 {
		return nil
	}
	if p.config.registry != nil {
		p.config.registry.Invalidate(ctx, topics...)
	}
	select {
	case <-p.globalCtx.Done():
		return errs.New("publisher is closed").Wrap()
	case <-ctx.Done():
		return ctx.Err()
	case p.data <- topics:
		return nil
	}
}

// Close 发布剩余的topic后停止
func (p *Publisher) Close() {
	p.closeOnce.Do(func() {
		p.cancel()
		p.wait.Wait()
	})
}

func (p *Publisher) scheduler() {
	ticker := time.NewTicker(p.config.interval)
	defer func() {
		ticker.Stop()
		p.wait.Done()
	}()

	pending := make(map[string]struct{})
	flush := func() {
		if len(pending) == 0 {
			return
		}
		p.flush(pending)
		pending = make(map[string]struct{})
	}
	for {
		select {
		case topics := <-p.data:
			for _, topic := range topics {
				pending[topic] = struct{}{}
			}
			if len(pending) >= p.config.size {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-p.globalCtx.Done():
			for {
				select {
				case topics := <-p.data:
					for _, topic := range topics {
						pending[topic] = struct{}{}
					}
				default:
					flush()
					return
				}
			}
		}
	}
}

func (p *Publisher) flush(pending map[string]struct{}) {
	topics := make([]string, 0, len(pending))
	for topic := range pending {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	ctx := mcontext.SetOperationID(context.Background(), uuid.NewString())
	payload, err := encodeTopics(topics)
	if err != nil {
		log.ZError(ctx, "encode local cache topics", err, "topics", topics)
		return
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		log.ZError(ctx, "publish local cache invalidation", errs.Wrap(err), "channel", p.channel, "topics", topics)
		return
	}
	log.ZDebug(ctx, "publish local cache invalidation", "channel", p.channel, "topics", topics)
}
