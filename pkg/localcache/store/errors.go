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

package store

import (
	"github.com/openimsdk/tools/errs"
)

// 错误码定义，与业务错误码区间隔离
const (
	DuplicateKeyError    = 1701 // 添加的key已存在
	KeyNotFoundError     = 1702 // 读取的key不存在
	ReentrantAccessError = 1703 // 在GetOrCreate的create回调中重入了同一个加锁store
)

var (
	ErrDuplicateKey    = errs.NewCodeError(DuplicateKeyError, "DuplicateKeyError")
	ErrKeyNotFound     = errs.NewCodeError(KeyNotFoundError, "KeyNotFoundError")
	ErrReentrantAccess = errs.NewCodeError(ReentrantAccessError, "ReentrantAccessError")
)

// ReentrantError 是不返回error的操作在检测到重入时panic携带的值
// 外层 Locking.GetOrCreate 会recover该类型并作为普通错误返回
type ReentrantError struct {
	source any // 检测到重入的store实例，只有它自己的GetOrCreate会recover
	err    error
}

// newReentrantError 构造重入错误
// source: 检测到重入的store实例
// op: 重入时调用的操作名
// key: 正在计算的key
func newReentrantError(source any, op string, key any) *ReentrantError {
	return &ReentrantError{
		source: source,
		err:    ErrReentrantAccess.WrapMsg("store accessed from inside its own GetOrCreate", "op", op, "inFlightKey", key),
	}
}

func (e *ReentrantError) Error() string {
	return e.err.Error()
}

func (e *ReentrantError) Unwrap() error {
	return e.err
}
