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

// Package http 后端 HTTP 接口：接收页面解析请求并交给编排器异步处理。
package http

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"pagesnap/internal/resolve"
	"pagesnap/internal/store"
	"pagesnap/pkg/log"
)

// Resolver 页面解析入口（resolve.Orchestrator 的测试缝）
type Resolver interface {
	Resolve(ctx context.Context, url, requesterID string) (resolve.Outcome, error)
}

// fastRejectWindow 同步等待窗口：限流等即时失败在窗口内返回给调用方，
// 超过窗口的解析转入后台，接口回 202
const fastRejectWindow = 150 * time.Millisecond

// Handler HTTP 处理器
type Handler struct {
	resolver Resolver
	store    store.Store
	logger   *log.Logger
}

// NewHandler 创建新的 HTTP 处理器
func NewHandler(resolver Resolver, st store.Store, logger *log.Logger) *Handler {
	return &Handler{resolver: resolver, store: st, logger: logger}
}

// HealthCheck 健康检查
func (h *Handler) HealthCheck(c context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
		"service":   "pagesnap-backend",
	})
}

// submitPageRequest POST /v1/pages 请求体
type submitPageRequest struct {
	PageURL string `json:"page_url"`
	UserID  string `json:"user_id"`
}

// SubmitPage 提交页面解析请求。投递走编排器配置的通道，接口本身不回传产物；
// 慢路径（渲染）转后台执行并立即回 202，限流等即时拒绝同步回错误码。
// POST /v1/pages
func (h *Handler) SubmitPage(c context.Context, ctx *app.RequestContext) {
	var req submitPageRequest
	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(consts.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	req.PageURL = strings.TrimSpace(req.PageURL)
	req.UserID = strings.TrimSpace(req.UserID)
	if req.PageURL == "" || req.UserID == "" {
		ctx.JSON(consts.StatusBadRequest, map[string]string{"error": "page_url and user_id are required"})
		return
	}
	if !strings.HasPrefix(req.PageURL, "http://") && !strings.HasPrefix(req.PageURL, "https://") {
		ctx.JSON(consts.StatusBadRequest, map[string]string{"error": "page_url must be an http(s) url"})
		return
	}

	// 解析寿命长于本次 HTTP 请求，脱离请求上下文执行
	done := make(chan error, 1)
	go func() {
		_, err := h.resolver.Resolve(context.WithoutCancel(c), req.PageURL, req.UserID)
		if err != nil && !errors.Is(err, resolve.ErrThrottled) {
			h.logger.Error("background resolve failed", "url", req.PageURL, "user", req.UserID, "error", err)
		}
		done <- err
	}()

	select {
	case err := <-done:
		switch {
		case errors.Is(err, resolve.ErrThrottled):
			ctx.JSON(consts.StatusTooManyRequests, map[string]string{"error": "throttled, try again later"})
		case err != nil:
			ctx.JSON(consts.StatusBadGateway, map[string]string{"error": "resolution failed"})
		default:
			ctx.JSON(consts.StatusOK, map[string]string{"status": "delivered"})
		}
	case <-time.After(fastRejectWindow):
		ctx.JSON(consts.StatusAccepted, map[string]string{"status": "accepted"})
	}
}

// GetRecord 查询某 URL 的缓存记录
// GET /v1/pages/record?url=...
func (h *Handler) GetRecord(c context.Context, ctx *app.RequestContext) {
	url := ctx.Query("url")
	if url == "" {
		ctx.JSON(consts.StatusBadRequest, map[string]string{"error": "url query parameter is required"})
		return
	}
	rec, err := h.store.Get(c, url)
	if err != nil {
		h.logger.Error("record lookup failed", "url", url, "error", err)
		ctx.JSON(consts.StatusInternalServerError, map[string]string{"error": "record lookup failed"})
		return
	}
	if rec == nil {
		ctx.JSON(consts.StatusNotFound, map[string]string{"error": "no record for url"})
		return
	}
	ctx.JSON(consts.StatusOK, map[string]interface{}{
		"page_url":     rec.Key,
		"reference":    rec.Reference,
		"content_hash": rec.ContentHash,
		"recorded_at":  rec.RecordedAt.Format(time.RFC3339),
	})
}
