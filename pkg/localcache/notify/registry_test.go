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

package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryToken(t *testing.T) {
	reg := NewRegistry()
	a := reg.Token("user")
	assert.Same(t, a, reg.Token("user"))
	assert.NotSame(t, a, reg.Token("group"))
	assert.Equal(t, []string{"group", "user"}, reg.Topics())
}

func TestRegistryInvalidateDepends(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry()
	user := reg.Token("user")
	friend := reg.Token("friend")
	conv := reg.Token("conversation")
	group := reg.Token("group")

	reg.Depend("friend", "user")
	reg.Depend("conversation", "friend", "group")

	done := reg.Invalidate(ctx, "user")
	assert.Equal(t, []string{"conversation", "friend", "user"}, done)
	assert.Equal(t, uint64(1), user.Current())
	assert.Equal(t, uint64(1), friend.Current())
	assert.Equal(t, uint64(1), conv.Current())
	assert.Equal(t, uint64(0), group.Current())

	// 闭包中的每个令牌只推进一次
	reg.Invalidate(ctx, "user", "friend", "group")
	assert.Equal(t, uint64(2), conv.Current())
	assert.Equal(t, uint64(1), group.Current())

	// 未注册的topic不会创建令牌
	assert.Empty(t, reg.Invalidate(ctx, "unknown"))
	assert.Equal(t, []string{"conversation", "friend", "group", "user"}, reg.Topics())
}

func TestRegistryBind(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry()
	a, b := reg.Token("a"), reg.Token("b")
	reg.Bind("a", "b")
	reg.Bind("a")
	reg.Invalidate(ctx, "b")
	assert.Equal(t, uint64(1), a.Current())
	assert.Equal(t, uint64(1), b.Current())
	assert.Equal(t, []string{"a", "b"}, reg.Closure("a"))
}

func TestHandlePayload(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry()
	tk := reg.Token("user")

	require.NoError(t, HandlePayload(ctx, reg, `["user","other"]`))
	assert.Equal(t, uint64(1), tk.Current())

	require.NoError(t, HandlePayload(ctx, reg, `[]`))
	assert.Equal(t, uint64(1), tk.Current())

	assert.Error(t, HandlePayload(ctx, reg, `user`))
	assert.Equal(t, uint64(1), tk.Current())
}
