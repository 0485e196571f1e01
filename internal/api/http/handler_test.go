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

package http

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/stretchr/testify/require"

	"pagesnap/internal/resolve"
	"pagesnap/internal/store"
	"pagesnap/pkg/log"
)

// fakeResolver 可编程的 Resolver
type fakeResolver struct {
	err   error
	delay time.Duration
	calls int
}

func (f *fakeResolver) Resolve(ctx context.Context, url, requesterID string) (resolve.Outcome, error) {
	f.calls++
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return resolve.Outcome{}, f.err
	}
	return resolve.DeliveredReference("ref-1"), nil
}

func newTestServer(t *testing.T, resolver Resolver, st store.Store) *server.Hertz {
	t.Helper()
	logger, err := log.NewLogger(&log.Config{Level: "error"})
	require.NoError(t, err)
	if st == nil {
		st = store.NewMemoryStore()
	}
	h := server.Default(server.WithHostPorts(":0"))
	NewRouter(NewHandler(resolver, st, logger), true).Register(h)
	return h
}

func performJSON(h *server.Hertz, method, path, body string) *ut.ResponseRecorder {
	return ut.PerformRequest(h.Engine, method, path,
		&ut.Body{Body: bytes.NewReader([]byte(body)), Len: len(body)},
		ut.Header{Key: "Content-Type", Value: "application/json"})
}

func TestHealthCheck(t *testing.T) {
	h := newTestServer(t, &fakeResolver{}, nil)
	w := ut.PerformRequest(h.Engine, "GET", "/api/health", &ut.Body{Body: bytes.NewReader(nil), Len: 0})
	resp := w.Result()
	if resp.StatusCode() != 200 {
		t.Errorf("HealthCheck status: got %d", resp.StatusCode())
	}
	if !bytes.Contains(resp.Body(), []byte("ok")) {
		t.Errorf("HealthCheck body: %s", resp.Body())
	}
}

func TestSubmitPageDelivered(t *testing.T) {
	h := newTestServer(t, &fakeResolver{}, nil)
	w := performJSON(h, "POST", "/v1/pages", `{"page_url":"https://a.example","user_id":"42"}`)
	resp := w.Result()
	require.Equal(t, 200, resp.StatusCode())
	require.Contains(t, string(resp.Body()), "delivered")
}

func TestSubmitPageSlowResolveAccepted(t *testing.T) {
	resolver := &fakeResolver{delay: 500 * time.Millisecond}
	h := newTestServer(t, resolver, nil)
	w := performJSON(h, "POST", "/v1/pages", `{"page_url":"https://a.example","user_id":"42"}`)
	resp := w.Result()
	require.Equal(t, 202, resp.StatusCode())
	require.Contains(t, string(resp.Body()), "accepted")
}

func TestSubmitPageThrottled(t *testing.T) {
	h := newTestServer(t, &fakeResolver{err: resolve.ErrThrottled}, nil)
	w := performJSON(h, "POST", "/v1/pages", `{"page_url":"https://a.example","user_id":"42"}`)
	resp := w.Result()
	require.Equal(t, 429, resp.StatusCode())
}

func TestSubmitPageValidation(t *testing.T) {
	resolver := &fakeResolver{}
	h := newTestServer(t, resolver, nil)

	for _, body := range []string{
		`{"page_url":"","user_id":"42"}`,
		`{"page_url":"https://a.example","user_id":""}`,
		`{"page_url":"ftp://a.example","user_id":"42"}`,
		`not json`,
	} {
		w := performJSON(h, "POST", "/v1/pages", body)
		if w.Result().StatusCode() != 400 {
			t.Errorf("body %q: got status %d, want 400", body, w.Result().StatusCode())
		}
	}
	require.Zero(t, resolver.calls, "invalid requests must not reach the resolver")
}

func TestGetRecord(t *testing.T) {
	st := store.NewMemoryStore()
	require.NoError(t, st.Put(context.Background(), store.Record{
		Key: "https://a.example", Reference: "FILE-1", ContentHash: "h1", RecordedAt: time.Now(),
	}))
	h := newTestServer(t, &fakeResolver{}, st)

	w := ut.PerformRequest(h.Engine, "GET", "/v1/pages/record?url=https%3A%2F%2Fa.example",
		&ut.Body{Body: bytes.NewReader(nil), Len: 0})
	resp := w.Result()
	require.Equal(t, 200, resp.StatusCode())
	require.Contains(t, string(resp.Body()), "FILE-1")

	w = ut.PerformRequest(h.Engine, "GET", "/v1/pages/record?url=https%3A%2F%2Fmissing.example",
		&ut.Body{Body: bytes.NewReader(nil), Len: 0})
	require.Equal(t, 404, w.Result().StatusCode())
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t, &fakeResolver{}, nil)
	w := ut.PerformRequest(h.Engine, "GET", "/metrics", &ut.Body{Body: bytes.NewReader(nil), Len: 0})
	resp := w.Result()
	require.Equal(t, 200, resp.StatusCode())
	if !strings.Contains(string(resp.Body()), "pagesnap") {
		t.Errorf("metrics body missing collectors: %.200s", resp.Body())
	}
}
