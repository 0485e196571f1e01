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
	"time"

	"pagesnap/internal/store"
	"pagesnap/pkg/log"
)

// Decision 新鲜度判定结果
type Decision string

const (
	// DecisionRenderFresh 无记录：无条件渲染并投递
	DecisionRenderFresh Decision = "render_fresh"
	// DecisionReuse 记录在新鲜窗口内：直接复用已投递引用，不触发渲染与投递
	DecisionReuse Decision = "reuse"
	// DecisionRevalidate 记录过期：重新渲染后对比内容哈希，决定是否跳过投递
	DecisionRevalidate Decision = "revalidate"
)

// FreshnessCache 新鲜度判定：基于记录存储的查询结果给出复用/重验/全新渲染的决策。
// 存储读失败降级为 RenderFresh（按冷缓存处理），不中断解析。
type FreshnessCache struct {
	store  store.Store
	window time.Duration
	logger *log.Logger
}

// NewFreshnessCache 创建新鲜度判定器；window <= 0 时默认 10 分钟
func NewFreshnessCache(st store.Store, window time.Duration, logger *log.Logger) *FreshnessCache {
	if window <= 0 {
		window = 10 * time.Minute
	}
	return &FreshnessCache{store: st, window: window, logger: logger}
}

// Decide 判定 key 的处理分支；DecisionRenderFresh 时 rec 为 nil
func (f *FreshnessCache) Decide(ctx context.Context, key string) (Decision, *store.Record) {
	rec, err := f.store.Get(ctx, key)
	if err != nil {
		f.logger.Warn("record store read failed, treating key as cold",
			"key", key, "error", (&StoreError{Op: "get", Err: err}).Error())
		return DecisionRenderFresh, nil
	}
	if rec == nil {
		return DecisionRenderFresh, nil
	}
	if time.Since(rec.RecordedAt) <= f.window {
		return DecisionReuse, rec
	}
	return DecisionRevalidate, rec
}
