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
	"database/sql"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// sqliteStore 内嵌文件存储实现，单进程部署的默认持久后端
type sqliteStore struct {
	db *sql.DB
}

const sqliteCreateTable = `
	CREATE TABLE IF NOT EXISTS page_documents (
		page_url TEXT PRIMARY KEY,
		file_hash TEXT NOT NULL,
		delivered_ref TEXT NOT NULL,
		recorded_at INTEGER NOT NULL)
	`

// NewSQLiteStore 打开（或创建）path 指定的数据库文件；":memory:" 可用于测试
func NewSQLiteStore(path string) (Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(sqliteCreateTable); err != nil {
		db.Close()
		return nil, err
	}
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Get(ctx context.Context, key string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT page_url, file_hash, delivered_ref, recorded_at FROM page_documents WHERE page_url = ?`, key)
	var rec Record
	var recordedAt int64
	err := row.Scan(&rec.Key, &rec.ContentHash, &rec.Reference, &recordedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec.RecordedAt = time.UnixMilli(recordedAt)
	return &rec, nil
}

func (s *sqliteStore) Put(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO page_documents (page_url, file_hash, delivered_ref, recorded_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(page_url) DO UPDATE SET file_hash = excluded.file_hash,
			delivered_ref = excluded.delivered_ref, recorded_at = excluded.recorded_at`,
		rec.Key, rec.ContentHash, rec.Reference, rec.RecordedAt.UnixMilli())
	return err
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}
