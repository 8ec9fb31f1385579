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

package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/openimsdk/tools/errs"
	"github.com/spf13/viper"
)

// LoadConfig 读取配置文件并映射到config
//
// 环境变量可以覆盖文件中的值：键中的点号替换为下划线并加上envPrefix，
// 例如 envPrefix为 LOCALCACHE 时，LOCALCACHE_REDIS_PASSWORD 覆盖 redis.password。
// 时间字段支持 "500ms"、"1s" 这样的写法。
func LoadConfig(path string, envPrefix string, config any) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return errs.WrapMsg(err, "failed to read config file", "path", path, "envPrefix", envPrefix)
	}

	if err := v.Unmarshal(config, func(config *mapstructure.DecoderConfig) {
		config.TagName = "mapstructure"
		config.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return errs.WrapMsg(err, "failed to unmarshal config", "path", path, "envPrefix", envPrefix)
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate 按validate标签检查配置
func Validate(config any) error {
	if err := validate.Struct(config); err != nil {
		return errs.WrapMsg(err, "invalid config")
	}
	return nil
}

// Load 读取、检查配置并填充默认值
func Load(path string, config *Config) error {
	if err := LoadConfig(path, EnvPrefix(path), config); err != nil {
		return err
	}
	if err := Validate(config); err != nil {
		return err
	}
	config.setDefault()
	return nil
}

func (c *Config) setDefault() {
	if c.LocalCache.Channel == "" {
		c.LocalCache.Channel = DefaultChannel
	}
	if c.LocalCache.SweepSpec == "" {
		c.LocalCache.SweepSpec = DefaultSweepSpec
	}
	if c.LocalCache.FlushInterval <= 0 {
		c.LocalCache.FlushInterval = DefaultFlushInterval
	}
	if c.Log.RemainLogLevel == 0 {
		c.Log.RemainLogLevel = DefaultLogLevel
	}
}
