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

package http

import (
	"bytes"
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	hertzconfig "github.com/cloudwego/hertz/pkg/common/config"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"pagesnap/pkg/metrics"
)

// Router HTTP 路由器
type Router struct {
	handler       *Handler
	enableMetrics bool
}

// NewRouter 创建新的 HTTP 路由器
func NewRouter(handler *Handler, enableMetrics bool) *Router {
	return &Router{handler: handler, enableMetrics: enableMetrics}
}

// Build 创建 Hertz 服务并注册路由，addr 如 ":8080"
func (r *Router) Build(addr string, opts ...hertzconfig.Option) *server.Hertz {
	opts = append(opts, server.WithHostPorts(addr))
	h := server.New(opts...)
	r.Register(h)
	return h
}

// Register 在给定 Hertz 实例上注册全部路由（测试用例直接传入 ut 引擎所属实例）
func (r *Router) Register(h *server.Hertz) {
	h.GET("/api/health", r.handler.HealthCheck)

	v1 := h.Group("/v1")
	{
		v1.POST("/pages", r.handler.SubmitPage)
		v1.GET("/pages/record", r.handler.GetRecord)
	}

	if r.enableMetrics {
		h.GET("/metrics", metricsHandler)
	}
}

// metricsHandler Prometheus 文本格式导出
func metricsHandler(c context.Context, ctx *app.RequestContext) {
	var buf bytes.Buffer
	if err := metrics.WritePrometheus(&buf); err != nil {
		ctx.String(consts.StatusInternalServerError, "collect metrics: %v", err)
		return
	}
	ctx.Data(consts.StatusOK, "text/plain; version=0.0.4; charset=utf-8", buf.Bytes())
}
