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
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgStore PostgreSQL 实现：多实例共享缓存记录时使用
type pgStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore 创建基于 PostgreSQL 的记录存储；dsn 为连接串
func NewPostgresStore(ctx context.Context, dsn string) (Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS page_documents (
			page_url TEXT PRIMARY KEY,
			file_hash TEXT NOT NULL,
			delivered_ref TEXT NOT NULL,
			recorded_at TIMESTAMPTZ NOT NULL)
	`)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return &pgStore{pool: pool}, nil
}

func (s *pgStore) Get(ctx context.Context, key string) (*Record, error) {
	var rec Record
	var recordedAt time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT page_url, file_hash, delivered_ref, recorded_at FROM page_documents WHERE page_url = $1`,
		key).Scan(&rec.Key, &rec.ContentHash, &rec.Reference, &recordedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec.RecordedAt = recordedAt
	return &rec, nil
}

func (s *pgStore) Put(ctx context.Context, rec Record) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO page_documents (page_url, file_hash, delivered_ref, recorded_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (page_url) DO UPDATE SET file_hash = $2, delivered_ref = $3, recorded_at = $4`,
		rec.Key, rec.ContentHash, rec.Reference, rec.RecordedAt)
	return err
}

func (s *pgStore) Close() error {
	s.pool.Close()
	return nil
}
