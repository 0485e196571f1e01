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

package store

import (
	"context"
	"time"

	"pagesnap/pkg/config"
	pkgerrors "pagesnap/pkg/errors"
)

// Record 每个资源键一条持久记录；仅在一次完整的渲染+投递成功后写入，
// 三个字段（引用、哈希、时间戳）作为同一行原子落盘。
type Record struct {
	Key         string    // 提交的页面 URL，原样字符串，不做归一化
	Reference   string    // 投递通道签发的可复用引用 id
	ContentHash string    // 投递时刻产物字节的内容哈希
	RecordedAt  time.Time // 写入时刻（墙钟）
}

// Store 缓存记录存储：按 key 单行语义，后写覆盖，不做合并。
// 实现必须支持多 key 并发读写。
type Store interface {
	// Get 查询记录；不存在时返回 (nil, nil)
	Get(ctx context.Context, key string) (*Record, error)
	// Put 写入或覆盖记录
	Put(ctx context.Context, rec Record) error
	// Close 释放底层连接（可选，用于优雅退出）
	Close() error
}

// NewStore 根据配置创建 Store；type 为空或 memory 时使用进程内实现
func NewStore(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Type {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = "pagesnap.sqlite3"
		}
		return NewSQLiteStore(dsn)
	case "postgres":
		if cfg.DSN == "" {
			return nil, pkgerrors.Wrap(pkgerrors.ErrInvalidArg, "store: postgres requires a dsn")
		}
		return NewPostgresStore(ctx, cfg.DSN)
	case "redis":
		if cfg.DSN == "" {
			return nil, pkgerrors.Wrap(pkgerrors.ErrInvalidArg, "store: redis requires an addr in dsn")
		}
		return NewRedisStore(ctx, cfg.DSN, cfg.Password, cfg.DB)
	default:
		return nil, pkgerrors.Wrapf(pkgerrors.ErrInvalidArg, "store: unknown type %q", cfg.Type)
	}
}
