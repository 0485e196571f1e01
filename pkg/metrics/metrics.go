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

package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// 全局 Registry，供 backend/bot 注册与暴露
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	DefaultRegistry.MustRegister(
		RenderTotal, RenderDuration,
		CacheDecisionTotal, CoalescedFollowerTotal,
		ThrottleRejectTotal, DeliveryFailTotal,
	)
}

// RenderTotal 渲染次数（按结果）
var RenderTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "pagesnap_render_total",
		Help: "渲染次数（按结果）",
	},
	[]string{"status"}, // ok | error
)

// RenderDuration 渲染耗时（秒）
var RenderDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "pagesnap_render_duration_seconds",
		Help:    "渲染耗时（秒）",
		Buckets: prometheus.DefBuckets,
	},
)

// CacheDecisionTotal 新鲜度判定次数（按分支）
var CacheDecisionTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "pagesnap_cache_decision_total",
		Help: "新鲜度判定次数（按分支）",
	},
	[]string{"decision"}, // reuse | revalidate | render_fresh
)

// CoalescedFollowerTotal 合并进行中渲染的 follower 总数
var CoalescedFollowerTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "pagesnap_coalesced_follower_total",
		Help: "合并进行中渲染的 follower 总数",
	},
)

// ThrottleRejectTotal 被限流拒绝的请求总数
var ThrottleRejectTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "pagesnap_throttle_reject_total",
		Help: "被限流拒绝的请求总数",
	},
)

// DeliveryFailTotal 投递失败总数（按阶段）
var DeliveryFailTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "pagesnap_delivery_fail_total",
		Help: "投递失败总数（按阶段）",
	},
	[]string{"stage"}, // upload | fanout
)

// WritePrometheus 将 Prometheus 文本格式写入 w（供 Hertz 复用）
func WritePrometheus(w io.Writer) error {
	metrics, err := DefaultRegistry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range metrics {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
