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
	"errors"
	"fmt"
)

// ErrThrottled 请求方处于冷却窗口内，本次请求被拒绝（用户可见，稍后重试）
var ErrThrottled = errors.New("resolve: requester throttled")

// RenderError 渲染失败：在产物产生之前发生，传播给该 key 上的所有等待者
type RenderError struct {
	URL string
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.URL, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// DeliveryError 投递失败：产物已存在，仅影响对应请求方，不波及其他等待者
type DeliveryError struct {
	RequesterID string
	Err         error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver to %s: %v", e.RequesterID, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// StoreError 持久化失败：记日志按下次冷缓存处理，不推翻已完成的投递
type StoreError struct {
	Op  string // get | put
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("record store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
