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

package expire

import (
	"time"

	"k8s.io/utils/clock"
)

// Policy 决定条目何时过期，以及何时触发一次全量清理
// I 是条目写入时由 ExpirationInfo 计算并随条目保存的过期信息
type Policy[V, I any] interface {
	// ItemAdded 条目写入后调用
	ItemAdded(value V)
	// ItemRemoved 条目离开store时调用，包括删除、覆盖、过期淘汰和清空
	ItemRemoved(value V)
	// ExpirationInfo 计算条目的过期信息
	ExpirationInfo(value V) I
	// IsExpired 判断条目是否已经过期
	IsExpired(value V, info I) bool
	// ShouldSweep 每次写操作后调用，返回true时执行一次 Sweep
	ShouldSweep() bool
	// Swept 一次 Sweep 结束后调用
	Swept()
}

// NewTimePolicy 按写入时间计算过期，条目在写入ttl之后过期
// c为nil时使用系统时钟
func NewTimePolicy[V any](ttl time.Duration, c clock.PassiveClock) *TimePolicy[V] {
	if ttl <= 0 {
		panic("ttl should be positive")
	}
	if c == nil {
		c = clock.RealClock{}
	}
	return &TimePolicy[V]{
		ttl:      ttl,
		clock:    c,
		nextScan: c.Now().Add(ttl),
	}
}

// TimePolicy 固定TTL的过期策略，每过一个ttl最多触发一次全量清理
type TimePolicy[V any] struct {
	ttl      time.Duration
	clock    clock.PassiveClock
	nextScan time.Time
}

func (p *TimePolicy[V]) ItemAdded(V) {}

func (p *TimePolicy[V]) ItemRemoved(V) {}

func (p *TimePolicy[V]) ExpirationInfo(V) time.Time {
	return p.clock.Now().Add(p.ttl)
}

func (p *TimePolicy[V]) IsExpired(_ V, expireAt time.Time) bool {
	return !p.clock.Now().Before(expireAt)
}

func (p *TimePolicy[V]) ShouldSweep() bool {
	return !p.clock.Now().Before(p.nextScan)
}

func (p *TimePolicy[V]) Swept() {
	p.nextScan = p.clock.Now().Add(p.ttl)
}

var _ Policy[any, time.Time] = (*TimePolicy[any])(nil)
