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
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "pagesnap:page:"

// redisStore 基于 Redis 的网络化 KV 实现
type redisStore struct {
	client *redis.Client
}

type redisRecord struct {
	Hash       string    `json:"file_hash"`
	Reference  string    `json:"delivered_ref"`
	RecordedAt time.Time `json:"recorded_at"`
}

// NewRedisStore 创建基于 Redis 的记录存储
func NewRedisStore(ctx context.Context, addr, password string, db int) (Store, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &redisStore{client: client}, nil
}

func (s *redisStore) Get(ctx context.Context, key string) (*Record, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rr redisRecord
	if err := json.Unmarshal(raw, &rr); err != nil {
		return nil, err
	}
	return &Record{
		Key:         key,
		ContentHash: rr.Hash,
		Reference:   rr.Reference,
		RecordedAt:  rr.RecordedAt,
	}, nil
}

func (s *redisStore) Put(ctx context.Context, rec Record) error {
	raw, err := json.Marshal(redisRecord{
		Hash:       rec.ContentHash,
		Reference:  rec.Reference,
		RecordedAt: rec.RecordedAt,
	})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, redisKeyPrefix+rec.Key, raw, 0).Err()
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
