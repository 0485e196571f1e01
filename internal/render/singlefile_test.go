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

package render

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagesnap/pkg/config"
	"pagesnap/pkg/log"
)

func newTestLogger(t *testing.T) *log.Logger {
	t.Helper()
	logger, err := log.NewLogger(&log.Config{Level: "error"})
	require.NoError(t, err)
	return logger
}

// writeScript 生成假 single-file 脚本，$1 为 URL，$2 为输出路径
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixture")
	}
	path := filepath.Join(t.TempDir(), "single-file")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755))
	return path
}

func TestSingleFileRender(t *testing.T) {
	bin := writeScript(t, `printf '<html>%s</html>' "$1" > "$2"`)
	workDir := t.TempDir()
	r, err := NewSingleFile(config.RenderConfig{BinPath: bin, WorkDir: workDir}, newTestLogger(t))
	require.NoError(t, err)

	path, err := r.Render(context.Background(), "https://a.example")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, workDir))
	assert.True(t, strings.HasSuffix(path, ".html"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<html>https://a.example</html>", string(data))
}

func TestSingleFileRenderDistinctArtifacts(t *testing.T) {
	bin := writeScript(t, `echo snapshot > "$2"`)
	r, err := NewSingleFile(config.RenderConfig{BinPath: bin, WorkDir: t.TempDir()}, newTestLogger(t))
	require.NoError(t, err)

	p1, err := r.Render(context.Background(), "https://a.example")
	require.NoError(t, err)
	p2, err := r.Render(context.Background(), "https://a.example")
	require.NoError(t, err)
	assert.NotEqual(t, p1, p2, "each render writes its own artifact")
}

func TestSingleFileRenderFailureCleansPartialFile(t *testing.T) {
	// 脚本先写半个文件再报错，模拟渲染中途崩溃
	bin := writeScript(t, `echo partial > "$2"; exit 3`)
	workDir := t.TempDir()
	r, err := NewSingleFile(config.RenderConfig{BinPath: bin, WorkDir: workDir}, newTestLogger(t))
	require.NoError(t, err)

	_, err = r.Render(context.Background(), "https://a.example")
	require.Error(t, err)

	entries, err := os.ReadDir(workDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "partial artifact must not survive a failed render")
}

func TestSingleFileRenderEmptyArtifact(t *testing.T) {
	bin := writeScript(t, `: > "$2"`)
	r, err := NewSingleFile(config.RenderConfig{BinPath: bin, WorkDir: t.TempDir()}, newTestLogger(t))
	require.NoError(t, err)

	_, err = r.Render(context.Background(), "https://a.example")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty artifact")
}

func TestSingleFileRenderContextCancelled(t *testing.T) {
	bin := writeScript(t, `sleep 30; echo done > "$2"`)
	r, err := NewSingleFile(config.RenderConfig{BinPath: bin, WorkDir: t.TempDir()}, newTestLogger(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Render(ctx, "https://a.example")
	require.ErrorIs(t, err, context.Canceled)
}

func TestSingleFileRenderStderrInError(t *testing.T) {
	bin := writeScript(t, `echo "network unreachable" >&2; exit 1`)
	r, err := NewSingleFile(config.RenderConfig{BinPath: bin, WorkDir: t.TempDir()}, newTestLogger(t))
	require.NoError(t, err)

	_, err = r.Render(context.Background(), "https://a.example")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "network unreachable")
}
