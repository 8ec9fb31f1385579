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

package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/openimsdk/tools/db/redisutil"
	"github.com/openimsdk/tools/errs"
	"github.com/openimsdk/tools/log"
	"github.com/openimsdk/tools/mcontext"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	"github.com/spf13/cobra"
	"github.com/vison888/localcache/internal/crontask"
	"github.com/vison888/localcache/pkg/common/config"
	"github.com/vison888/localcache/pkg/common/prommetrics"
	"github.com/vison888/localcache/pkg/localcache"
	"github.com/vison888/localcache/pkg/localcache/notify"
	"github.com/vison888/localcache/pkg/localcache/store"
	_ "go.uber.org/automaxprocs"
	"golang.org/x/sync/errgroup"
)

const version = "v0.1.0"

type options struct {
	configPath string
	duration   time.Duration
	workers    int
	keys       int
	invalidate time.Duration
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		color.Red("localcache-bench: %v", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:     "localcache-bench",
		Short:   "Run a concurrent workload against the configured local caches",
		Version: version,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.configPath, config.FlagConf, "c", "", "config file path")
	cmd.Flags().DurationVarP(&opts.duration, "duration", "d", 10*time.Second, "workload duration")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 64, "concurrent workers")
	cmd.Flags().IntVarP(&opts.keys, "keys", "k", 1000, "distinct keys per cache")
	cmd.Flags().DurationVar(&opts.invalidate, "invalidate", time.Second, "interval between random topic invalidations, 0 disables")
	return cmd
}

// bench 按配置组装的一组缓存
type bench struct {
	names    []string
	caches   map[string]localcache.Cache[string, string]
	topics   []string
	registry *notify.Registry
	gatherer prometheus.Gatherer
	sweeper  *crontask.Sweeper

	// 使topic失效，启用redis时通过发布器广播
	invalidate func(ctx context.Context, topic string) error
}

func run(ctx context.Context, opts *options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var cfg config.Config
	path := config.ResolvePath(opts.configPath)
	if err := config.Load(path, &cfg); err != nil {
		return err
	}
	if err := log.InitLoggerFromConfig("localcache", "localcache-bench", "", "",
		cfg.Log.RemainLogLevel, cfg.Log.IsStdout, cfg.Log.IsJson, cfg.Log.StorageLocation,
		cfg.Log.RemainRotationCount, cfg.Log.RotationTime, version, cfg.Log.IsSimplify); err != nil {
		return errs.WrapMsg(err, "init logger failed")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = mcontext.SetOperationID(ctx, uuid.NewString())

	b := newBench(&cfg)
	if err := b.sweeper.Start(ctx); err != nil {
		return err
	}
	defer b.sweeper.Stop()

	b.invalidate = func(ctx context.Context, topic string) error {
		b.registry.Invalidate(ctx, topic)
		return nil
	}
	if cfg.Redis.Enable() {
		rdb, err := redisutil.NewRedisClient(ctx, cfg.Redis.Build())
		if err != nil {
			return err
		}
		defer rdb.Close()
		subCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go notify.Subscribe(subCtx, rdb, cfg.LocalCache.Channel, b.registry)

		pub := notify.NewPublisher(rdb, cfg.LocalCache.Channel,
			notify.WithInterval(cfg.LocalCache.FlushInterval), notify.WithRegistry(b.registry))
		pub.Start()
		defer pub.Close()
		b.invalidate = func(ctx context.Context, topic string) error {
			return pub.Publish(ctx, topic)
		}
	}

	if cfg.Prometheus.Enable {
		srv := &http.Server{
			Addr:    ":" + strconv.Itoa(cfg.Prometheus.Port),
			Handler: promhttp.HandlerFor(b.gatherer, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.ZError(ctx, "prometheus server exited", err, "addr", srv.Addr)
			}
		}()
		defer srv.Close()
	}

	log.ZInfo(ctx, "local cache bench start", "config", path, "caches", b.names, "workers", opts.workers, "duration", opts.duration)
	start := time.Now()
	if err := b.workload(ctx, opts); err != nil {
		return err
	}
	return b.report(time.Since(start))
}

func newBench(cfg *config.Config) *bench {
	reg := prometheus.NewRegistry()
	metrics := prommetrics.NewMetrics(reg)
	b := &bench{
		caches:   make(map[string]localcache.Cache[string, string]),
		registry: notify.NewRegistry(),
		gatherer: reg,
		sweeper:  crontask.NewSweeper(cfg.LocalCache.SweepSpec),
	}
	for name, cc := range cfg.LocalCache.Caches {
		opts := []localcache.Option{
			localcache.WithLazy(cc.Lazy),
			localcache.WithTTL(cc.Expire()),
			localcache.WithTarget(metrics.Target(name)),
		}
		if cc.SlotNum > 1 {
			opts = append(opts, localcache.WithSlotNum(cc.SlotNum))
		}
		if cc.Enable() {
			opts = append(opts, localcache.WithToken(b.registry.Token(cc.Topic)))
			b.registry.Depend(cc.Topic, cc.Depends...)
			b.topics = append(b.topics, cc.Topic)
		}
		c := localcache.New[string, string](opts...)
		if sw, ok := c.(store.Sweeper); ok && cc.Expire() > 0 {
			b.sweeper.Register(name, sw)
		}
		b.caches[name] = c
		b.names = append(b.names, name)
	}
	sort.Strings(b.names)
	sort.Strings(b.topics)
	return b
}

func (b *bench) workload(ctx context.Context, opts *options) error {
	if len(b.names) == 0 {
		return errs.New("no cache configured").Wrap()
	}
	ctx, cancel := context.WithTimeout(ctx, opts.duration)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < opts.workers; i++ {
		r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(i)))
		g.Go(func() error {
			for ctx.Err() == nil {
				name := b.names[r.Intn(len(b.names))]
				key := "key_" + strconv.Itoa(r.Intn(opts.keys))
				_, err := b.caches[name].GetOrCreate(ctx, key, func(ctx context.Context, key string) (string, error) {
					return fmt.Sprintf("%s:%s:%s", name, key, uuid.NewString()), nil
				})
				if err != nil {
					return err
				}
			}
			return nil
		})
	}
	if opts.invalidate > 0 && len(b.topics) > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(opts.invalidate)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					topic := b.topics[rand.Intn(len(b.topics))]
					if err := b.invalidate(ctx, topic); err != nil && ctx.Err() == nil {
						return err
					}
				}
			}
		})
	}
	return g.Wait()
}

func (b *bench) report(elapsed time.Duration) error {
	families, err := b.gatherer.Gather()
	if err != nil {
		return errs.WrapMsg(err, "gather metrics failed")
	}
	counters := make(map[string]map[string]float64)
	for _, mf := range families {
		if mf.GetType() != dto.MetricType_COUNTER {
			continue
		}
		for _, m := range mf.GetMetric() {
			name := cacheName(m)
			if counters[name] == nil {
				counters[name] = make(map[string]float64)
			}
			counters[name][mf.GetName()] = m.GetCounter().GetValue()
		}
	}

	color.Cyan("elapsed %s", elapsed.Round(time.Millisecond))
	for _, name := range b.names {
		c := counters[name]
		hit := c["local_cache_get_hit_total"]
		success := c["local_cache_get_success_total"]
		total := hit + success + c["local_cache_get_failed_total"]
		ratio := 0.0
		if total > 0 {
			ratio = hit / total
		}
		fmt.Printf("%-16s hit=%-10.0f fetch=%-10.0f failed=%-6.0f clear=%-6.0f ", name,
			hit, success, c["local_cache_get_failed_total"], c["local_cache_clear_total"])
		color.Green("hit ratio %.2f%%", ratio*100)
	}
	return nil
}

func cacheName(m *dto.Metric) string {
	for _, l := range m.GetLabel() {
		if l.GetName() == "cache" {
			return l.GetValue()
		}
	}
	return ""
}
