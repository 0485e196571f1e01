// Copyright 2026 the pagesnap authors
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

package resolve

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoalescerSingleCaller(t *testing.T) {
	c := NewCoalescer()

	out, led, leaderID, err := c.Resolve(context.Background(), "https://a.example", "u1", func(ctx context.Context) (Outcome, error) {
		return DeliveredReference("ref-1"), nil
	})
	require.NoError(t, err)
	assert.True(t, led)
	assert.Equal(t, "u1", leaderID)
	assert.Equal(t, "ref-1", out.Reference)
	assert.False(t, c.InFlight("https://a.example"))
}

func TestCoalescerConcurrentSameKey(t *testing.T) {
	c := NewCoalescer()

	var workCalls int32
	started := make(chan struct{})
	release := make(chan struct{})
	work := func(ctx context.Context) (Outcome, error) {
		atomic.AddInt32(&workCalls, 1)
		close(started)
		<-release
		return DeliveredReference("shared-ref"), nil
	}

	leaderDone := make(chan struct{})
	go func() {
		defer close(leaderDone)
		out, led, _, err := c.Resolve(context.Background(), "k", "leader", work)
		assert.NoError(t, err)
		assert.True(t, led)
		assert.Equal(t, "shared-ref", out.Reference)
	}()
	<-started

	const followers = 8
	var wg sync.WaitGroup
	for i := 0; i < followers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, led, leaderID, err := c.Resolve(context.Background(), "k", fmt.Sprintf("f%d", i), func(ctx context.Context) (Outcome, error) {
				t.Error("follower must not run work")
				return Outcome{}, nil
			})
			assert.NoError(t, err)
			assert.False(t, led)
			assert.Equal(t, "leader", leaderID)
			assert.Equal(t, "shared-ref", out.Reference)
		}(i)
	}

	// 等待 follower 全部登记到 PendingSet 再放行 leader
	require.Eventually(t, func() bool { return c.Waiters("k") == followers }, time.Second, time.Millisecond)
	close(release)
	wg.Wait()
	<-leaderDone

	assert.Equal(t, int32(1), atomic.LoadInt32(&workCalls))
	assert.False(t, c.InFlight("k"))
}

func TestCoalescerDistinctKeysIndependent(t *testing.T) {
	c := NewCoalescer()

	var calls int32
	var wg sync.WaitGroup
	for _, key := range []string{"k1", "k2", "k3"} {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			out, led, _, err := c.Resolve(context.Background(), key, "u", func(ctx context.Context) (Outcome, error) {
				atomic.AddInt32(&calls, 1)
				return DeliveredReference("ref-" + key), nil
			})
			assert.NoError(t, err)
			assert.True(t, led)
			assert.Equal(t, "ref-"+key, out.Reference)
		}(key)
	}
	wg.Wait()
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestCoalescerSlowKeyDoesNotBlockOthers(t *testing.T) {
	c := NewCoalescer()

	started := make(chan struct{})
	release := make(chan struct{})
	defer close(release)
	go func() {
		_, _, _, _ = c.Resolve(context.Background(), "slow", "u1", func(ctx context.Context) (Outcome, error) {
			close(started)
			<-release
			return Empty(), nil
		})
	}()
	<-started

	// slow key 的渲染挂着，其他 key 必须立即走完
	done := make(chan struct{})
	go func() {
		defer close(done)
		out, led, _, err := c.Resolve(context.Background(), "fast", "u2", func(ctx context.Context) (Outcome, error) {
			return DeliveredReference("fast-ref"), nil
		})
		assert.NoError(t, err)
		assert.True(t, led)
		assert.Equal(t, "fast-ref", out.Reference)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("unrelated key blocked by an in-flight render")
	}
}

func TestCoalescerFailurePropagatesToAll(t *testing.T) {
	c := NewCoalescer()
	boom := errors.New("render exploded")

	started := make(chan struct{})
	release := make(chan struct{})
	leaderErr := make(chan error, 1)
	go func() {
		_, _, _, err := c.Resolve(context.Background(), "k", "leader", func(ctx context.Context) (Outcome, error) {
			close(started)
			<-release
			return Outcome{}, boom
		})
		leaderErr <- err
	}()
	<-started

	followerErr := make(chan error, 1)
	go func() {
		_, _, _, err := c.Resolve(context.Background(), "k", "f1", func(ctx context.Context) (Outcome, error) {
			return Outcome{}, nil
		})
		followerErr <- err
	}()
	require.Eventually(t, func() bool { return c.Waiters("k") == 1 }, time.Second, time.Millisecond)
	close(release)

	require.ErrorIs(t, <-leaderErr, boom)
	require.ErrorIs(t, <-followerErr, boom)
}

func TestCoalescerFollowerContextCancelled(t *testing.T) {
	c := NewCoalescer()

	started := make(chan struct{})
	release := make(chan struct{})
	defer close(release)
	go func() {
		_, _, _, _ = c.Resolve(context.Background(), "k", "leader", func(ctx context.Context) (Outcome, error) {
			close(started)
			<-release
			return Empty(), nil
		})
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, _, err := c.Resolve(ctx, "k", "f1", func(ctx context.Context) (Outcome, error) {
		return Outcome{}, nil
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestCoalescerRetryAfterCompletion(t *testing.T) {
	c := NewCoalescer()

	var calls int32
	work := func(ctx context.Context) (Outcome, error) {
		atomic.AddInt32(&calls, 1)
		return DeliveredReference("r"), nil
	}
	// 完成后的同 key 请求开启新一轮，不复用已发布的结果
	_, _, _, err := c.Resolve(context.Background(), "k", "u1", work)
	require.NoError(t, err)
	_, _, _, err = c.Resolve(context.Background(), "k", "u2", work)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
