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

// Package resolve 页面解析编排核心：合并并发请求、新鲜度判定、按请求方限流，
// 决定每个 (url, requester) 是渲染、复用、等待还是拒绝。
package resolve

import "context"

// OutcomeKind 渲染结果变体标签
type OutcomeKind string

const (
	// OutcomeLocalArtifact 刚渲染完成的本地产物，尚未投递/入缓存
	OutcomeLocalArtifact OutcomeKind = "local_artifact"
	// OutcomeDeliveredReference 投递通道已知的引用 id，可直接转发给任意请求方
	OutcomeDeliveredReference OutcomeKind = "delivered_reference"
	// OutcomeEmpty 无可投递内容（如 fallback worker 有意不产出）
	OutcomeEmpty OutcomeKind = "empty"
)

// Outcome 渲染结果；每个值恰好一个变体有效
type Outcome struct {
	Kind         OutcomeKind
	ArtifactPath string // Kind == OutcomeLocalArtifact 时有效
	Reference    string // Kind == OutcomeDeliveredReference 时有效
}

// LocalArtifact 构造本地产物结果
func LocalArtifact(path string) Outcome {
	return Outcome{Kind: OutcomeLocalArtifact, ArtifactPath: path}
}

// DeliveredReference 构造已投递引用结果
func DeliveredReference(id string) Outcome {
	return Outcome{Kind: OutcomeDeliveredReference, Reference: id}
}

// Empty 构造空结果
func Empty() Outcome {
	return Outcome{Kind: OutcomeEmpty}
}

// Renderer 渲染协作方：把 URL 快照为本地文件。可能耗时数秒，失败时可能留下残缺文件。
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// Channel 投递协作方：把结果发送给 requesterID。
// 返回的 reference 仅在通道自身存储了内容、能回传可复用指针时非空。
type Channel interface {
	Deliver(ctx context.Context, requesterID string, outcome Outcome) (reference string, err error)
}
