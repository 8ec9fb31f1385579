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

import "time"

const (
	// MountConfigFilePath 配置目录的环境变量名
	MountConfigFilePath = "CONFIG_PATH"

	// EnvPrefixRoot 环境变量前缀的公共部分
	EnvPrefixRoot = "LOCALCACHE"

	// FlagConf 指定配置文件的命令行参数
	FlagConf = "config"

	FileName = "local-cache.yml"

	DefaultFolderPath = "config"
)

const (
	DefaultChannel       = "local-cache-invalidate"
	DefaultSweepSpec     = "@every 30s"
	DefaultFlushInterval = time.Second
	DefaultLogLevel      = 3
)
