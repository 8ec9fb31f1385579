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

package link

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func set(keys ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		m[k] = struct{}{}
	}
	return m
}

func TestLinkBidirectional(t *testing.T) {
	v := New(1)
	v.Link("a:1", "b:1", "c:1")
	v.Link("z:1", "b:1")

	// z -> b -> a -> c，所有key都连通
	assert.Equal(t, set("a:1", "b:1", "c:1", "z:1"), v.Reach("z:1"))
	assert.Equal(t, set("a:1", "b:1", "c:1", "z:1"), v.Reach("c:1"))
	// Reach不修改关联
	assert.Equal(t, set("a:1", "b:1", "c:1", "z:1"), v.Reach("z:1"))
}

func TestLinkPoint(t *testing.T) {
	v := New(4)
	v.Point("user", "friend", "group")
	v.Point("friend", "conversation")
	v.Point("conversation", "user")

	assert.Equal(t, set("user", "friend", "group", "conversation"), v.Reach("user"))
	assert.Equal(t, set("group"), v.Reach("group"))
	assert.Equal(t, set("unknown"), v.Reach("unknown"))

	assert.Equal(t, set("friend", "group"), v.Unlink("user"))
	assert.Equal(t, set("user"), v.Reach("user"))
	assert.Equal(t, set("friend", "conversation", "user"), v.Reach("friend"))
	assert.Nil(t, v.Unlink("user"))
}

func TestLinkSelf(t *testing.T) {
	v := New(2)
	v.Point("a", "a")
	v.Link("b")
	assert.Equal(t, set("a"), v.Reach("a"))
	assert.Equal(t, set("b"), v.Reach("b"))
	assert.Panics(t, func() { New(0) })
}
