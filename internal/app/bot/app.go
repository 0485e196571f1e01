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

// Package bot Bot 应用：standalone 模式进程内解析并投递，remote 模式转发后端。
package bot

import (
	"context"
	"fmt"

	"pagesnap/internal/app"
	"pagesnap/internal/bot"
)

// App Bot 应用
type App struct {
	bootstrap *app.Bootstrap
	bot       *bot.Bot
}

// NewApp 创建 Bot 应用（由 cmd/bot 调用）
func NewApp(bootstrap *app.Bootstrap) (*App, error) {
	cfg := bootstrap.Config
	if cfg == nil || cfg.Telegram.Token == "" {
		return nil, fmt.Errorf("telegram token is required")
	}

	var submitter bot.Submitter
	switch cfg.Bot.Mode {
	case "", "standalone":
		submitter = bot.NewStandaloneSubmitter(bootstrap.Orchestrator)
	case "remote":
		if cfg.Bot.BackendURL == "" {
			return nil, fmt.Errorf("bot.backend_url is required in remote mode")
		}
		submitter = bot.NewRemoteSubmitter(cfg.Bot.BackendURL)
	default:
		return nil, fmt.Errorf("unknown bot mode %q", cfg.Bot.Mode)
	}

	b := bot.New(bootstrap.Channel, submitter, bootstrap.Logger, cfg.Telegram.PollTimeout)
	return &App{bootstrap: bootstrap, bot: b}, nil
}

// Run 阻塞运行消息循环直到 ctx 取消
func (a *App) Run(ctx context.Context) error {
	a.bootstrap.Logger.Info("bot starting", "mode", a.bootstrap.Config.Bot.Mode)
	return a.bot.Run(ctx)
}

// Shutdown 释放资源
func (a *App) Shutdown(ctx context.Context) error {
	return a.bootstrap.Close()
}
