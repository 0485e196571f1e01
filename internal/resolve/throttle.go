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
	"sync"
	"time"
)

// Throttle 按请求方的准入控制：同一请求方两次发起解析的最小间隔为 cooldown。
// 状态表由后台任务整表周期清空（非逐条过期），内存有界；代价是清理落在
// 冷却窗口中间时，该请求方的实际冷却会短于配置值。
type Throttle struct {
	cooldown   time.Duration
	purgeEvery time.Duration

	mu           sync.Mutex
	lastAdmitted map[string]time.Time
	shutdown     bool

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewThrottle 创建限流器并启动后台清理任务；purgeEvery <= 0 时默认 60s
func NewThrottle(cooldown, purgeEvery time.Duration) *Throttle {
	if purgeEvery <= 0 {
		purgeEvery = 60 * time.Second
	}
	t := &Throttle{
		cooldown:     cooldown,
		purgeEvery:   purgeEvery,
		lastAdmitted: make(map[string]time.Time),
		stopCh:       make(chan struct{}),
	}
	t.wg.Add(1)
	go t.purgeLoop()
	return t
}

// Admit 判断 requesterID 是否可发起新解析；准入时在同一临界区记录准入时刻
func (t *Throttle) Admit(requesterID string) bool {
	return t.admitAt(requesterID, time.Now())
}

func (t *Throttle) admitAt(requesterID string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.shutdown {
		return false
	}
	if last, ok := t.lastAdmitted[requesterID]; ok && now.Sub(last) <= t.cooldown {
		return false
	}
	t.lastAdmitted[requesterID] = now
	return true
}

// Clear 清空整张状态表
func (t *Throttle) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastAdmitted = make(map[string]time.Time)
}

func (t *Throttle) purgeLoop() {
	defer t.wg.Done()
	ticker := time.NewTicker(t.purgeEvery)
	defer ticker.Stop()
	for {
		select {
		case <-t.stopCh:
			return
		case <-ticker.C:
			t.Clear()
		}
	}
}

// Close 停止后台清理并拒绝后续准入；重复调用是安全的
func (t *Throttle) Close() {
	t.mu.Lock()
	if t.shutdown {
		t.mu.Unlock()
		return
	}
	t.shutdown = true
	t.mu.Unlock()
	close(t.stopCh)
	t.wg.Wait()
}
