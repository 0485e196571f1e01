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
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagesnap/internal/store"
	"pagesnap/pkg/log"
)

func newTestLogger(t *testing.T) *log.Logger {
	t.Helper()
	logger, err := log.NewLogger(&log.Config{Level: "error"})
	require.NoError(t, err)
	return logger
}

// failingStore Get 恒定失败的存储，用于验证降级路径
type failingStore struct{}

func (failingStore) Get(ctx context.Context, key string) (*store.Record, error) {
	return nil, errors.New("connection refused")
}
func (failingStore) Put(ctx context.Context, rec store.Record) error { return nil }
func (failingStore) Close() error                                    { return nil }

func TestFreshnessDecideColdKey(t *testing.T) {
	f := NewFreshnessCache(store.NewMemoryStore(), 10*time.Minute, newTestLogger(t))

	decision, rec := f.Decide(context.Background(), "https://a.example")
	assert.Equal(t, DecisionRenderFresh, decision)
	assert.Nil(t, rec)
}

func TestFreshnessDecideWithinWindow(t *testing.T) {
	st := store.NewMemoryStore()
	require.NoError(t, st.Put(context.Background(), store.Record{
		Key:         "https://a.example",
		Reference:   "ref-1",
		ContentHash: "h1",
		RecordedAt:  time.Now().Add(-5 * time.Minute),
	}))
	f := NewFreshnessCache(st, 10*time.Minute, newTestLogger(t))

	decision, rec := f.Decide(context.Background(), "https://a.example")
	assert.Equal(t, DecisionReuse, decision)
	require.NotNil(t, rec)
	assert.Equal(t, "ref-1", rec.Reference)
}

func TestFreshnessDecideExpired(t *testing.T) {
	st := store.NewMemoryStore()
	require.NoError(t, st.Put(context.Background(), store.Record{
		Key:         "https://a.example",
		Reference:   "ref-1",
		ContentHash: "h1",
		RecordedAt:  time.Now().Add(-11 * time.Minute),
	}))
	f := NewFreshnessCache(st, 10*time.Minute, newTestLogger(t))

	decision, rec := f.Decide(context.Background(), "https://a.example")
	assert.Equal(t, DecisionRevalidate, decision)
	require.NotNil(t, rec)
	assert.Equal(t, "h1", rec.ContentHash)
}

func TestFreshnessDecideStoreFailureDegrades(t *testing.T) {
	f := NewFreshnessCache(failingStore{}, 10*time.Minute, newTestLogger(t))

	decision, rec := f.Decide(context.Background(), "https://a.example")
	assert.Equal(t, DecisionRenderFresh, decision)
	assert.Nil(t, rec)
}
