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

// Package crontask 定时清理本地缓存中已过期的数据
package crontask

import (
	"context"
	"sync"

	"github.com/openimsdk/tools/errs"
	"github.com/openimsdk/tools/log"
	"github.com/openimsdk/tools/mcontext"
	"github.com/robfig/cron/v3"
	"github.com/vison888/localcache/pkg/localcache/store"
)

// NewSweeper 按spec周期性调用已注册store的Sweep
// spec是cron表达式，支持 "@every 30s" 这样的写法
func NewSweeper(spec string) *Sweeper {
	return &Sweeper{
		spec:     spec,
		cron:     cron.New(),
		sweepers: make(map[string]store.Sweeper),
	}
}

type Sweeper struct {
	spec     string
	cron     *cron.Cron
	lock     sync.Mutex
	sweepers map[string]store.Sweeper
}

// Register 注册需要清理的store，同名覆盖
func (s *Sweeper) Register(name string, sw store.Sweeper) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.sweepers[name] = sw
}

// Start 添加定时任务并启动调度
func (s *Sweeper) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.SweepAll(ctx) }); err != nil {
		return errs.WrapMsg(err, "add sweep cron task failed", "spec", s.spec)
	}
	s.cron.Start()
	log.ZInfo(ctx, "local cache sweeper started", "spec", s.spec)
	return nil
}

// Stop 停止调度并等待正在执行的清理结束
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

// SweepAll 立即清理所有已注册的store，单个store的panic不影响其他store
func (s *Sweeper) SweepAll(ctx context.Context) {
	ctx = mcontext.SetOperationID(ctx, "sweep")
	s.lock.Lock()
	list := make(map[string]store.Sweeper, len(s.sweepers))
	for k, v := range s.sweepers {
		list[k] = v
	}
	s.lock.Unlock()
	for name, sw := range list {
		s.sweep(ctx, name, sw)
	}
}

func (s *Sweeper) sweep(ctx context.Context, name string, sw store.Sweeper) {
	defer func() {
		if r := recover(); r != nil {
			log.ZError(ctx, "local cache sweep panic", errs.ErrPanic(r), "cache", name)
		}
	}()
	sw.Sweep()
	log.ZDebug(ctx, "local cache swept", "cache", name)
}
