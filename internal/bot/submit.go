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
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"pagesnap/internal/resolve"
)

// Resolver standalone 模式的解析入口（resolve.Orchestrator）
type Resolver interface {
	Resolve(ctx context.Context, url, requesterID string) (resolve.Outcome, error)
}

// standaloneSubmitter 进程内直连编排器
type standaloneSubmitter struct {
	resolver Resolver
}

// NewStandaloneSubmitter Bot 与编排器同进程时使用
func NewStandaloneSubmitter(resolver Resolver) Submitter {
	return &standaloneSubmitter{resolver: resolver}
}

func (s *standaloneSubmitter) Submit(ctx context.Context, url, chatID string) error {
	_, err := s.resolver.Resolve(ctx, url, chatID)
	return err
}

// remoteSubmitter 把请求转发给后端服务；投递由后端进程完成
type remoteSubmitter struct {
	client *resty.Client
}

// NewRemoteSubmitter backendURL 如 "http://localhost:8080"
func NewRemoteSubmitter(backendURL string) Submitter {
	client := resty.New().
		SetBaseURL(backendURL).
		SetTimeout(30 * time.Second).
		SetHeader("Content-Type", "application/json")
	return &remoteSubmitter{client: client}
}

func (s *remoteSubmitter) Submit(ctx context.Context, url, chatID string) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"page_url": url, "user_id": chatID}).
		Post("/v1/pages")
	if err != nil {
		return fmt.Errorf("submit page: %w", err)
	}
	switch resp.StatusCode() {
	case http.StatusOK, http.StatusAccepted:
		return nil
	case http.StatusTooManyRequests:
		return resolve.ErrThrottled
	default:
		return fmt.Errorf("submit page: backend returned %d: %s", resp.StatusCode(), resp.String())
	}
}
