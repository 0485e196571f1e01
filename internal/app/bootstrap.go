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

// Package app 统一装配：配置 → 日志 → 存储 → 渲染 → 通道 → 编排器。
package app

import (
	"context"
	"fmt"
	"time"

	"pagesnap/internal/deliver"
	"pagesnap/internal/render"
	"pagesnap/internal/resolve"
	"pagesnap/internal/store"
	"pagesnap/pkg/config"
	"pagesnap/pkg/log"
)

// Bootstrap 统一初始化：供 backend 与 bot 复用，避免在 cmd 内写装配逻辑
type Bootstrap struct {
	Config       *config.Config
	Logger       *log.Logger
	Store        store.Store
	Channel      *deliver.Telegram
	Orchestrator *resolve.Orchestrator
}

// NewBootstrap 根据配置创建 Bootstrap。
// bot remote 模式不在本进程解析页面，跳过存储/渲染/编排器的创建。
func NewBootstrap(ctx context.Context, cfg *config.Config) (*Bootstrap, error) {
	logCfg := &log.Config{}
	if cfg != nil {
		logCfg.Level = cfg.Log.Level
		logCfg.Format = cfg.Log.Format
		logCfg.File = cfg.Log.File
	}
	logger, err := log.NewLogger(logCfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	b := &Bootstrap{Config: cfg, Logger: logger}
	if cfg == nil {
		return b, nil
	}

	b.Channel = deliver.NewTelegram(cfg.Telegram, logger)
	if cfg.Bot.Mode == "remote" {
		return b, nil
	}

	st, err := store.NewStore(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("init record store: %w", err)
	}
	b.Store = st

	renderer, err := render.NewSingleFile(cfg.Render, logger)
	if err != nil {
		return nil, fmt.Errorf("init renderer: %w", err)
	}

	b.Orchestrator = resolve.NewOrchestrator(renderer, b.Channel, st, logger, resolve.Options{
		RenderTimeout:    config.Duration(cfg.Render.Timeout, 90*time.Second),
		DeliveryTimeout:  config.Duration(cfg.Resolve.DeliveryTimeout, 60*time.Second),
		FreshnessWindow:  config.Duration(cfg.Resolve.FreshnessWindow, 10*time.Minute),
		ThrottleCooldown: config.Duration(cfg.Resolve.ThrottleCooldown, 10*time.Second),
		ThrottlePurge:    config.Duration(cfg.Resolve.ThrottlePurge, 60*time.Second),
	})
	return b, nil
}

// Close 释放编排器与存储
func (b *Bootstrap) Close() error {
	if b.Orchestrator != nil {
		b.Orchestrator.Close()
	}
	if b.Store != nil {
		return b.Store.Close()
	}
	return nil
}
