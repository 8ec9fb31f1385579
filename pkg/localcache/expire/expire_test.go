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

package expire

import (
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vison888/localcache/pkg/localcache/store"
	testingclock "k8s.io/utils/clock/testing"
)

// recordPolicy 在TimePolicy的基础上记录回调
type recordPolicy struct {
	*TimePolicy[string]
	added   []string
	removed []string
	sweeps  int
}

func (p *recordPolicy) ItemAdded(v string)   { p.added = append(p.added, v) }
func (p *recordPolicy) ItemRemoved(v string) { p.removed = append(p.removed, v) }
func (p *recordPolicy) Swept() {
	p.sweeps++
	p.TimePolicy.Swept()
}

func newTestStore(ttl time.Duration) (*Store[string, string, time.Time], *recordPolicy, *testingclock.FakeClock) {
	clk := testingclock.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	p := &recordPolicy{TimePolicy: NewTimePolicy[string](ttl, clk)}
	return New[string, string, time.Time](p), p, clk
}

func TestExpireHidesValue(t *testing.T) {
	s, p, clk := newTestStore(time.Minute)
	require.NoError(t, s.Add("a", "va"))

	clk.Step(30 * time.Second)
	v, ok := s.TryGet("a")
	assert.True(t, ok)
	assert.Equal(t, "va", v)

	clk.Step(30 * time.Second)
	assert.False(t, s.ContainsKey("a"))
	_, err := s.Get("a")
	assert.True(t, store.ErrKeyNotFound.Is(err))
	assert.Equal(t, "", s.GetOrDefault("a"))
	assert.Equal(t, []string{"va"}, p.removed)
	assert.Equal(t, 0, s.Len())
}

func TestExpireGetOrCreate(t *testing.T) {
	s, p, clk := newTestStore(time.Minute)
	var calls int
	create := func(key string) (string, error) {
		calls++
		return key + "-" + string(rune('0'+calls)), nil
	}
	v, err := s.GetOrCreate("k", create)
	require.NoError(t, err)
	assert.Equal(t, "k-1", v)
	v, _ = s.GetOrCreate("k", create)
	assert.Equal(t, "k-1", v)

	clk.Step(time.Minute)
	v, err = s.GetOrCreate("k", create)
	require.NoError(t, err)
	assert.Equal(t, "k-2", v)
	assert.Equal(t, []string{"k-1", "k-2"}, p.added)
	assert.Equal(t, []string{"k-1"}, p.removed)

	boom := errors.New("boom")
	_, err = s.GetOrCreate("x", func(string) (string, error) { return "", boom })
	assert.Same(t, boom, err)
	assert.False(t, s.ContainsKey("x"))
}

func TestExpireAddAfterExpiry(t *testing.T) {
	s, _, clk := newTestStore(time.Minute)
	require.NoError(t, s.Add("a", "1"))
	assert.True(t, store.ErrDuplicateKey.Is(s.Add("a", "2")))
	clk.Step(time.Minute)
	require.NoError(t, s.Add("a", "3"))
	assert.Equal(t, "3", s.GetOrDefault("a"))
}

func TestExpireSetRemoveClear(t *testing.T) {
	s, p, _ := newTestStore(time.Minute)
	s.Set("a", "1")
	s.Set("a", "2")
	s.Set("b", "3")
	assert.Equal(t, []string{"1", "2", "3"}, p.added)
	assert.Equal(t, []string{"1"}, p.removed)

	assert.True(t, s.Remove("a"))
	assert.False(t, s.Remove("a"))
	assert.Equal(t, []string{"1", "2"}, p.removed)

	s.Set("c", "4")
	s.Clear()
	assert.Equal(t, 0, s.Len())
	removed := append([]string(nil), p.removed[2:]...)
	sort.Strings(removed)
	assert.Equal(t, []string{"3", "4"}, removed)
}

func TestExpireSweep(t *testing.T) {
	s, p, clk := newTestStore(time.Minute)
	s.Set("old1", "o1")
	s.Set("old2", "o2")
	clk.Step(40 * time.Second)
	s.Set("new", "n")

	var live []string
	clk.Step(20 * time.Second)
	s.Range(func(key, _ string) bool {
		live = append(live, key)
		return true
	})
	assert.Equal(t, []string{"new"}, live)
	assert.Equal(t, 3, s.Len())

	// 到达nextScan后的写操作触发全量清理
	s.Set("trigger", "t")
	assert.Equal(t, 1, p.sweeps)
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.ContainsKey("new"))
	assert.True(t, s.ContainsKey("trigger"))
	removed := append([]string(nil), p.removed...)
	sort.Strings(removed)
	assert.Equal(t, []string{"o1", "o2"}, removed)

	// 下一次清理要再等一个ttl
	s.Set("again", "a")
	assert.Equal(t, 1, p.sweeps)
}

func TestExpireUnderLocking(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Now())
	inner := New[string, int, time.Time](NewTimePolicy[int](time.Second, clk),
		WithStoreOption[string, int, time.Time](store.WithComparer[string](store.StringFold{})))
	s := store.NewLocking[string, int](inner)

	v, err := s.GetOrCreate("Key", func(string) (int, error) { return 1, nil })
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.True(t, s.ContainsKey("KEY"))

	clk.Step(time.Second)
	assert.Equal(t, 1, s.Len())
	s.Sweep()
	assert.Equal(t, 0, s.Len())
}

func TestTimePolicyInvalid(t *testing.T) {
	assert.Panics(t, func() { NewTimePolicy[int](0, nil) })
	assert.Panics(t, func() { New[string, int, time.Time](nil) })
}
