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

package bot

import (
	"context"
	"errors"
	"strconv"
	"time"

	"pagesnap/internal/deliver"
	"pagesnap/internal/resolve"
	"pagesnap/pkg/log"
	"pagesnap/pkg/utils"
)

// Messenger Telegram 收发两件事：拉更新、回文本（deliver.Telegram 实现）
type Messenger interface {
	GetUpdates(ctx context.Context, offset int64, timeoutSec int) ([]deliver.Update, error)
	SendMessage(ctx context.Context, chatID, text string) error
}

// Submitter 页面解析提交口。standalone 模式直连编排器，remote 模式转发给后端。
type Submitter interface {
	Submit(ctx context.Context, url, chatID string) error
}

// pollErrorBackoff getUpdates 失败后的重试间隔
const pollErrorBackoff = 3 * time.Second

// Bot 消息循环
type Bot struct {
	messenger   Messenger
	submitter   Submitter
	logger      *log.Logger
	pollTimeout int
}

// New 创建 Bot；pollTimeout 为长轮询秒数，<=0 默认 30
func New(messenger Messenger, submitter Submitter, logger *log.Logger, pollTimeout int) *Bot {
	return &Bot{
		messenger:   messenger,
		submitter:   submitter,
		logger:      logger,
		pollTimeout: utils.DefaultInt(pollTimeout, 30),
	}
}

// Run 阻塞运行消息循环直到 ctx 取消
func (b *Bot) Run(ctx context.Context) error {
	var offset int64
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		updates, err := b.messenger.GetUpdates(ctx, offset, b.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			b.logger.Error("poll updates failed", "error", err)
			select {
			case <-time.After(pollErrorBackoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}
		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			b.handleUpdate(ctx, u)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, u deliver.Update) {
	if u.Message == nil || u.Message.Text == "" {
		return
	}
	chatID := strconv.FormatInt(u.Message.Chat.ID, 10)
	cmd, err := ParseCommand(u.Message.Text)
	switch {
	case errors.Is(err, ErrNotCommand):
		return
	case errors.Is(err, ErrUnknownCommand):
		b.reply(ctx, chatID, helpText)
		return
	case err != nil:
		b.reply(ctx, chatID, "Usage: /getpage <url>")
		return
	}

	switch cmd.Kind {
	case CommandHelp:
		b.reply(ctx, chatID, helpText)
	case CommandGetPage:
		b.getPage(ctx, chatID, cmd.URL)
	}
}

func (b *Bot) getPage(ctx context.Context, chatID, url string) {
	err := b.submitter.Submit(ctx, url, chatID)
	switch {
	case errors.Is(err, resolve.ErrThrottled):
		b.reply(ctx, chatID, "Too many requests, try again later.")
	case err != nil:
		// 细节不外露，完整错误只进日志
		b.logger.Error("page request failed", "chat", chatID, "url", url, "error", err)
		b.reply(ctx, chatID, "Failed to get the page, try again later.")
	}
}

func (b *Bot) reply(ctx context.Context, chatID, text string) {
	if err := b.messenger.SendMessage(ctx, chatID, text); err != nil {
		b.logger.Error("send reply failed", "chat", chatID, "error", err)
	}
}
