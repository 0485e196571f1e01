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
	"os"
	"time"

	"github.com/google/uuid"

	"pagesnap/internal/store"
	"pagesnap/pkg/hashutil"
	"pagesnap/pkg/log"
	"pagesnap/pkg/metrics"
)

// Options 编排策略参数；零值字段使用默认
type Options struct {
	RenderTimeout    time.Duration // 默认 90s
	DeliveryTimeout  time.Duration // 默认 60s
	FreshnessWindow  time.Duration // 默认 10m
	ThrottleCooldown time.Duration // 默认 10s
	ThrottlePurge    time.Duration // 默认 60s
}

// Orchestrator 解析编排器：限流 → 合并 → (新鲜度判定 → 渲染 → 哈希对比 → 投递 → 记录写回)。
// 所有协作方在构造时注入；进程内的 PendingSet 与限流状态表归其所有。
type Orchestrator struct {
	coalescer *Coalescer
	throttle  *Throttle
	fresh     *FreshnessCache
	renderer  Renderer
	channel   Channel
	store     store.Store
	logger    *log.Logger

	renderTimeout   time.Duration
	deliveryTimeout time.Duration
}

// NewOrchestrator 组装编排器
func NewOrchestrator(renderer Renderer, channel Channel, st store.Store, logger *log.Logger, opts Options) *Orchestrator {
	if opts.RenderTimeout <= 0 {
		opts.RenderTimeout = 90 * time.Second
	}
	if opts.DeliveryTimeout <= 0 {
		opts.DeliveryTimeout = 60 * time.Second
	}
	if opts.ThrottleCooldown <= 0 {
		opts.ThrottleCooldown = 10 * time.Second
	}
	return &Orchestrator{
		coalescer:       NewCoalescer(),
		throttle:        NewThrottle(opts.ThrottleCooldown, opts.ThrottlePurge),
		fresh:           NewFreshnessCache(st, opts.FreshnessWindow, logger),
		renderer:        renderer,
		channel:         channel,
		store:           st,
		logger:          logger,
		renderTimeout:   opts.RenderTimeout,
		deliveryTimeout: opts.DeliveryTimeout,
	}
}

// Close 停止后台任务；在途的 leader 工作自然跑完或失败，不强制取消
func (o *Orchestrator) Close() {
	o.throttle.Close()
}

// Resolve 为 requesterID 解析 url：渲染共享，投递按请求方各自进行。
// 限流拒绝返回 ErrThrottled；渲染失败以同一 RenderError 交给该 key 的所有等待者；
// 投递失败只影响对应请求方。
func (o *Orchestrator) Resolve(ctx context.Context, url, requesterID string) (Outcome, error) {
	if !o.throttle.Admit(requesterID) {
		metrics.ThrottleRejectTotal.Inc()
		o.logger.Info("request throttled", "requester", requesterID, "url", url)
		return Outcome{}, ErrThrottled
	}

	rid := uuid.New().String()

	// leader 自身的投递结果只回给 leader，不进入共享发布
	var leaderDeliveryErr error
	outcome, led, leaderID, err := o.coalescer.Resolve(ctx, url, requesterID, func(wctx context.Context) (Outcome, error) {
		out, derr, werr := o.lead(wctx, rid, url, requesterID)
		leaderDeliveryErr = derr
		return out, werr
	})
	if err != nil {
		return Outcome{}, err
	}

	if led {
		if leaderDeliveryErr != nil {
			metrics.DeliveryFailTotal.WithLabelValues("upload").Inc()
			o.logger.Error("leader delivery failed", "rid", rid, "requester", requesterID, "error", leaderDeliveryErr)
			return outcome, &DeliveryError{RequesterID: requesterID, Err: leaderDeliveryErr}
		}
		return outcome, nil
	}

	metrics.CoalescedFollowerTotal.Inc()
	if requesterID == leaderID {
		// leader 已经给这个请求方投递过，抑制对自身的重复通知
		return outcome, nil
	}
	if _, derr := o.deliver(ctx, requesterID, outcome); derr != nil {
		metrics.DeliveryFailTotal.WithLabelValues("fanout").Inc()
		o.logger.Error("follower delivery failed", "requester", requesterID, "url", url, "error", derr)
		return outcome, &DeliveryError{RequesterID: requesterID, Err: derr}
	}
	return outcome, nil
}

// lead leader 路径：新鲜度判定并按分支执行。返回值依次为发布给所有等待者的结果、
// 仅属于 leader 的投递错误、以及共享失败（渲染失败等）。
func (o *Orchestrator) lead(ctx context.Context, rid, url, leaderID string) (Outcome, error, error) {
	decision, rec := o.fresh.Decide(ctx, url)
	metrics.CacheDecisionTotal.WithLabelValues(string(decision)).Inc()

	if decision == DecisionReuse {
		o.logger.Info("reusing cached reference", "rid", rid, "url", url, "ref", rec.Reference)
		out := DeliveredReference(rec.Reference)
		_, derr := o.deliver(ctx, leaderID, out)
		return out, derr, nil
	}

	rctx, cancel := context.WithTimeout(ctx, o.renderTimeout)
	defer cancel()
	start := time.Now()
	path, err := o.renderer.Render(rctx, url)
	metrics.RenderDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RenderTotal.WithLabelValues("error").Inc()
		o.logger.Error("render failed", "rid", rid, "url", url, "error", err)
		return Outcome{}, nil, &RenderError{URL: url, Err: err}
	}
	metrics.RenderTotal.WithLabelValues("ok").Inc()

	hash, hashErr := hashutil.HashFile(path)
	if hashErr != nil {
		// 无法比较即强制重新投递，绝不静默复用可能过期的内容
		o.logger.Warn("hash artifact failed, forcing fresh delivery", "rid", rid, "path", path, "error", hashErr)
	}

	if decision == DecisionRevalidate && hashErr == nil && hash == rec.ContentHash {
		// 内容未变：跳过投递成本，刷新时间戳延长新鲜期
		o.putRecord(ctx, rid, store.Record{
			Key: url, Reference: rec.Reference, ContentHash: rec.ContentHash, RecordedAt: time.Now(),
		})
		o.removeArtifact(rid, path)
		o.logger.Info("content unchanged, reusing delivered reference", "rid", rid, "url", url, "ref", rec.Reference)
		out := DeliveredReference(rec.Reference)
		_, derr := o.deliver(ctx, leaderID, out)
		return out, derr, nil
	}

	ref, derr := o.deliver(ctx, leaderID, LocalArtifact(path))
	if derr != nil {
		// 产物已经存在：发布本地产物让 follower 各自尝试投递，失败只记在 leader 身上
		return LocalArtifact(path), derr, nil
	}
	if ref == "" {
		// 通道未回传可复用指针，无法入缓存，留给 follower 自行上传
		return LocalArtifact(path), nil, nil
	}
	if hashErr == nil {
		o.putRecord(ctx, rid, store.Record{Key: url, Reference: ref, ContentHash: hash, RecordedAt: time.Now()})
	}
	o.removeArtifact(rid, path)
	return DeliveredReference(ref), nil, nil
}

// deliver 带超时的单次投递；对 Outcome 为引用的情况是一次轻量转发，不产生上传
func (o *Orchestrator) deliver(ctx context.Context, requesterID string, out Outcome) (string, error) {
	dctx, cancel := context.WithTimeout(ctx, o.deliveryTimeout)
	defer cancel()
	return o.channel.Deliver(dctx, requesterID, out)
}

// putRecord 记录写回尽力而为：投递已经发生，持久化失败按下次冷缓存处理
func (o *Orchestrator) putRecord(ctx context.Context, rid string, rec store.Record) {
	if err := o.store.Put(ctx, rec); err != nil {
		o.logger.Error("record store write failed", "rid", rid, "key", rec.Key,
			"error", (&StoreError{Op: "put", Err: err}).Error())
	}
}

func (o *Orchestrator) removeArtifact(rid, path string) {
	if err := os.Remove(path); err != nil {
		o.logger.Warn("remove artifact failed", "rid", rid, "path", path, "error", err)
	}
}
