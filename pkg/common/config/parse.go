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
	"os"
	"path/filepath"

	"github.com/openimsdk/tools/errs"
	"gopkg.in/yaml.v3"
)

// ReadYAML 直接用yaml解析配置文件，不经过环境变量覆盖
// 路径不存在时尝试 $CONFIG_PATH 下的同名文件
func ReadYAML(path string, config any) error {
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return errs.WrapMsg(err, "stat config path error", "path", path)
		}
		dir := os.Getenv(MountConfigFilePath)
		if dir == "" {
			return errs.WrapMsg(err, "config file not found", "path", path)
		}
		path = filepath.Join(dir, filepath.Base(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return errs.WrapMsg(err, "read file error", "path", path)
	}
	if err = yaml.Unmarshal(data, config); err != nil {
		return errs.WrapMsg(err, "unmarshal yaml error", "path", path)
	}
	return nil
}

// ResolvePath 返回配置文件路径
// 优先使用参数，其次是 $CONFIG_PATH 目录下的 FileName，最后是默认目录
func ResolvePath(path string) string {
	if path != "" {
		return path
	}
	if dir := os.Getenv(MountConfigFilePath); dir != "" {
		return filepath.Join(dir, FileName)
	}
	return filepath.Join(DefaultFolderPath, FileName)
}
