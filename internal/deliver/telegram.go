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

// Package deliver 投递通道实现。Telegram 通道把渲染产物以文档形式发给聊天，
// 首次上传后 Bot API 回传 file_id，之后同一内容可凭 file_id 零流量转发。
package deliver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"pagesnap/internal/resolve"
	"pagesnap/pkg/config"
	"pagesnap/pkg/log"
	"pagesnap/pkg/utils"
)

const defaultAPIBaseURL = "https://api.telegram.org"

// Telegram Telegram Bot API 客户端，实现 resolve.Channel。
// requesterID 即 chat_id 字符串。
type Telegram struct {
	client *resty.Client
	token  string
	logger *log.Logger
}

// NewTelegram 创建 Telegram 通道
func NewTelegram(cfg config.TelegramConfig, logger *log.Logger) *Telegram {
	base := utils.CoalesceString(cfg.APIBaseURL, defaultAPIBaseURL)
	client := resty.New().
		SetBaseURL(base).
		SetTimeout(60 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second)
	return &Telegram{client: client, token: cfg.Token, logger: logger}
}

// apiResponse Bot API 统一外层结构
type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

// sentMessage sendDocument 成功时关心的字段
type sentMessage struct {
	MessageID int64 `json:"message_id"`
	Document  struct {
		FileID string `json:"file_id"`
	} `json:"document"`
}

// Deliver 把结果发给 chat。本地产物走 multipart 上传并回传 file_id；
// 已投递引用凭 file_id 转发，不发生上传；空结果不做任何事。
func (t *Telegram) Deliver(ctx context.Context, requesterID string, outcome resolve.Outcome) (string, error) {
	switch outcome.Kind {
	case resolve.OutcomeLocalArtifact:
		return t.uploadDocument(ctx, requesterID, outcome.ArtifactPath)
	case resolve.OutcomeDeliveredReference:
		if err := t.forwardDocument(ctx, requesterID, outcome.Reference); err != nil {
			return "", err
		}
		return outcome.Reference, nil
	default:
		return "", nil
	}
}

func (t *Telegram) uploadDocument(ctx context.Context, chatID, path string) (string, error) {
	var out apiResponse
	resp, err := t.client.R().
		SetContext(ctx).
		SetFile("document", path).
		SetFormData(map[string]string{"chat_id": chatID}).
		SetResult(&out).
		Post(t.method("sendDocument"))
	if err != nil {
		return "", fmt.Errorf("sendDocument upload: %w", err)
	}
	if err := checkResponse(resp, &out); err != nil {
		return "", err
	}
	var msg sentMessage
	if err := json.Unmarshal(out.Result, &msg); err != nil {
		return "", fmt.Errorf("decode sendDocument result: %w", err)
	}
	if msg.Document.FileID == "" {
		// 上传成功但没有拿到可复用指针，调用方按不可缓存处理
		t.logger.Warn("sendDocument returned no file_id", "chat", chatID)
	}
	return msg.Document.FileID, nil
}

func (t *Telegram) forwardDocument(ctx context.Context, chatID, fileID string) error {
	var out apiResponse
	resp, err := t.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"chat_id":  chatID,
			"document": fileID,
		}).
		SetResult(&out).
		Post(t.method("sendDocument"))
	if err != nil {
		return fmt.Errorf("sendDocument forward: %w", err)
	}
	return checkResponse(resp, &out)
}

// SendMessage 发送纯文本消息（Bot 回复用）
func (t *Telegram) SendMessage(ctx context.Context, chatID, text string) error {
	var out apiResponse
	resp, err := t.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"chat_id": chatID,
			"text":    text,
		}).
		SetResult(&out).
		Post(t.method("sendMessage"))
	if err != nil {
		return fmt.Errorf("sendMessage: %w", err)
	}
	return checkResponse(resp, &out)
}

// Chat 消息来源聊天
type Chat struct {
	ID int64 `json:"id"`
}

// Message 入站消息；只保留命令处理需要的字段
type Message struct {
	Chat Chat   `json:"chat"`
	Text string `json:"text"`
}

// Update getUpdates 回传的更新
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message"`
}

// GetUpdates 长轮询拉取更新；timeoutSec 为服务端挂起秒数
func (t *Telegram) GetUpdates(ctx context.Context, offset int64, timeoutSec int) ([]Update, error) {
	var out apiResponse
	resp, err := t.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"offset":  fmt.Sprintf("%d", offset),
			"timeout": fmt.Sprintf("%d", timeoutSec),
		}).
		SetResult(&out).
		Get(t.method("getUpdates"))
	if err != nil {
		return nil, fmt.Errorf("getUpdates: %w", err)
	}
	if err := checkResponse(resp, &out); err != nil {
		return nil, err
	}
	var updates []Update
	if err := json.Unmarshal(out.Result, &updates); err != nil {
		return nil, fmt.Errorf("decode updates: %w", err)
	}
	return updates, nil
}

func (t *Telegram) method(name string) string {
	return "/bot" + t.token + "/" + name
}

func checkResponse(resp *resty.Response, out *apiResponse) error {
	if resp.StatusCode() != http.StatusOK || !out.OK {
		if out.Description != "" {
			return fmt.Errorf("telegram api: %s", out.Description)
		}
		return fmt.Errorf("telegram api: status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
