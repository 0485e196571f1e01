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
	"sync"
)

// WorkFunc leader 为某个 key 实际执行的解析工作
type WorkFunc func(ctx context.Context) (Outcome, error)

// pendingSet 某个 key 在途解析的等待队列；key 存在 pendingSet 当且仅当该 key 有渲染在途。
// leader 完成后结果写入 outcome/err 并 close(done)，条目同一临界区内从 map 移除。
type pendingSet struct {
	leaderID string
	waiters  []string // 请求方标识，到达顺序；仅影响统计，不影响正确性
	done     chan struct{}
	outcome  Outcome
	err      error
}

// Coalescer 同 key 并发解析合并：首个调用者成为 leader 执行工作，
// 其余成为 follower 挂起等待，leader 发布的结果（成功或失败）原样交给所有人。
// 保证同一 key 任意时刻至多一个渲染在途；合并只在单进程内生效。
type Coalescer struct {
	mu       sync.Mutex
	inflight map[string]*pendingSet
}

// NewCoalescer 创建合并器
func NewCoalescer() *Coalescer {
	return &Coalescer{inflight: make(map[string]*pendingSet)}
}

// Resolve 加入或发起 key 的解析。返回值 led 表示本调用是否为 leader，
// leaderID 为执行工作的请求方标识（follower 据此抑制对自身的重复投递）。
// work 在任何锁之外执行，慢渲染不会阻塞其他 key 的注册。
func (c *Coalescer) Resolve(ctx context.Context, key, requesterID string, work WorkFunc) (outcome Outcome, led bool, leaderID string, err error) {
	c.mu.Lock()
	if p, ok := c.inflight[key]; ok {
		// follower：入队后挂起，不轮询，不执行 work
		p.waiters = append(p.waiters, requesterID)
		c.mu.Unlock()
		select {
		case <-p.done:
			return p.outcome, false, p.leaderID, p.err
		case <-ctx.Done():
			return Outcome{}, false, p.leaderID, ctx.Err()
		}
	}
	p := &pendingSet{leaderID: requesterID, done: make(chan struct{})}
	c.inflight[key] = p
	c.mu.Unlock()

	out, workErr := work(ctx)

	// 发布与摘除在同一临界区：新 leader 只可能在条目清空之后出现
	c.mu.Lock()
	p.outcome = out
	p.err = workErr
	delete(c.inflight, key)
	close(p.done)
	c.mu.Unlock()

	return out, true, requesterID, workErr
}

// InFlight 返回 key 是否有解析在途（监控用）
func (c *Coalescer) InFlight(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inflight[key]
	return ok
}

// Waiters 返回 key 当前等待队列长度；无在途时为 0
func (c *Coalescer) Waiters(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.inflight[key]
	if !ok {
		return 0
	}
	return len(p.waiters)
}
