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

// Package prommetrics 把本地缓存的统计接入Prometheus
package prommetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/vison888/localcache/pkg/localcache"
)

const cacheLabel = "cache"

// Metrics 所有缓存共用的计数器，按cache标签区分
type Metrics struct {
	getHit     *prometheus.CounterVec
	getSuccess *prometheus.CounterVec
	getFailed  *prometheus.CounterVec
	clear      *prometheus.CounterVec
}

// NewMetrics 创建并注册计数器
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		getHit: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "local_cache_get_hit_total",
			Help: "Total number of local cache hits",
		}, []string{cacheLabel}),
		getSuccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "local_cache_get_success_total",
			Help: "Total number of successful local cache fetches",
		}, []string{cacheLabel}),
		getFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "local_cache_get_failed_total",
			Help: "Total number of failed local cache fetches",
		}, []string{cacheLabel}),
		clear: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "local_cache_clear_total",
			Help: "Total number of local cache clears",
		}, []string{cacheLabel}),
	}
	reg.MustRegister(m.getHit, m.getSuccess, m.getFailed, m.clear)
	return m
}

// Target 返回名为name的缓存使用的统计目标
func (m *Metrics) Target(name string) *CacheTarget {
	labels := prometheus.Labels{cacheLabel: name}
	return &CacheTarget{
		getHit:     m.getHit.With(labels),
		getSuccess: m.getSuccess.With(labels),
		getFailed:  m.getFailed.With(labels),
		clear:      m.clear.With(labels),
	}
}

// CacheTarget 实现 localcache.Target
type CacheTarget struct {
	getHit     prometheus.Counter
	getSuccess prometheus.Counter
	getFailed  prometheus.Counter
	clear      prometheus.Counter
}

func (c *CacheTarget) IncrGetHit() {
	c.getHit.Inc()
}

func (c *CacheTarget) IncrGetSuccess() {
	c.getSuccess.Inc()
}

func (c *CacheTarget) IncrGetFailed() {
	c.getFailed.Inc()
}

func (c *CacheTarget) IncrClear() {
	c.clear.Inc()
}

var _ localcache.Target = (*CacheTarget)(nil)
