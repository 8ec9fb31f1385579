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

/*
 * 本地缓存配置结构定义
 *
 * 配置分类：
 *
 * 1. 缓存配置 (CacheConfig, LocalCache)
 *    - 每个缓存的topic、懒加载、分槽、过期时间
 *    - topic之间的依赖关系
 *    - 失效消息频道和定时清理周期
 *
 * 2. 基础设施配置
 *    - 日志配置 (Log)
 *    - Redis配置 (Redis)，只用于传递失效消息
 *    - 监控配置 (Prometheus)
 *
 * 结构体通过mapstructure标签与YAML映射，支持环境变量覆盖，
 * validate标签由 Validate 检查。
 */
package config

import (
	"time"

	"github.com/openimsdk/tools/db/redisutil"
)

// CacheConfig 单个缓存的配置
//
// 配置说明：
// - Topic: 缓存所属的失效topic，为空时缓存不参与失效通知
// - Lazy: 是否按key懒加载，关闭时使用整表锁
// - SlotNum: 分槽数量，0或1表示不分槽
// - ExpireSecond: 写入后的存活时间（秒），0表示不过期
// - Depends: 依赖的topic，任意一个失效时本缓存也失效
type CacheConfig struct {
	Topic        string   `mapstructure:"topic"`
	Lazy         bool     `mapstructure:"lazy"`
	SlotNum      int      `mapstructure:"slotNum" validate:"gte=0"`
	ExpireSecond int      `mapstructure:"expireSecond" validate:"gte=0"`
	Depends      []string `mapstructure:"depends"`
}

// Enable 是否参与失效通知
func (c CacheConfig) Enable() bool {
	return c.Topic != ""
}

// Expire 存活时间，0表示不过期
func (c CacheConfig) Expire() time.Duration {
	return time.Second * time.Duration(c.ExpireSecond)
}

// LocalCache 本地缓存配置
type LocalCache struct {
	Channel       string                 `mapstructure:"channel"`       // 失效消息的redis频道
	SweepSpec     string                 `mapstructure:"sweepSpec"`     // 定时清理过期数据的cron表达式
	FlushInterval time.Duration          `mapstructure:"flushInterval"` // 失效消息聚合发布的间隔
	Caches        map[string]CacheConfig `mapstructure:"caches" validate:"dive"`
}

// Log 日志配置
type Log struct {
	StorageLocation     string `mapstructure:"storageLocation"`
	RotationTime        uint   `mapstructure:"rotationTime"`
	RemainRotationCount uint   `mapstructure:"remainRotationCount"`
	RemainLogLevel      int    `mapstructure:"remainLogLevel" validate:"omitempty,gte=1,lte=6"`
	IsStdout            bool   `mapstructure:"isStdout"`
	IsJson              bool   `mapstructure:"isJson"`
	IsSimplify          bool   `mapstructure:"isSimplify"`
}

// Redis 连接配置，Address为空时不启用跨进程失效
type Redis struct {
	Address     []string `mapstructure:"address"`
	Username    string   `mapstructure:"username"`
	Password    string   `mapstructure:"password"`
	ClusterMode bool     `mapstructure:"clusterMode"`
	DB          int      `mapstructure:"db" validate:"gte=0"`
	MaxRetry    int      `mapstructure:"maxRetry" validate:"gte=0"`
	PoolSize    int      `mapstructure:"poolSize" validate:"gte=0"`
}

func (r *Redis) Enable() bool {
	return len(r.Address) > 0
}

func (r *Redis) Build() *redisutil.Config {
	return &redisutil.Config{
		ClusterMode: r.ClusterMode,
		Address:     r.Address,
		Username:    r.Username,
		Password:    r.Password,
		DB:          r.DB,
		MaxRetry:    r.MaxRetry,
		PoolSize:    r.PoolSize,
	}
}

// Prometheus 监控配置
type Prometheus struct {
	Enable bool `mapstructure:"enable"`
	Port   int  `mapstructure:"port" validate:"gte=0,lte=65535"`
}

// Config 本地缓存进程的完整配置
type Config struct {
	LocalCache LocalCache `mapstructure:"localCache"`
	Log        Log        `mapstructure:"log"`
	Redis      Redis      `mapstructure:"redis"`
	Prometheus Prometheus `mapstructure:"prometheus"`
}
