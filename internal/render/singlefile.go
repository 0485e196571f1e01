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

// Package render 页面快照渲染：调用 single-file CLI 把目标 URL 存为单文件 HTML。
package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"

	"pagesnap/pkg/config"
	"pagesnap/pkg/log"
	"pagesnap/pkg/utils"
)

// SingleFile 基于 single-file CLI 的渲染器。每次渲染产出 workDir 下一个
// 独立命名的 .html 文件，调用方投递完成后负责删除。
type SingleFile struct {
	bin     string
	workDir string
	logger  *log.Logger
}

// NewSingleFile 创建渲染器并确保工作目录存在
func NewSingleFile(cfg config.RenderConfig, logger *log.Logger) (*SingleFile, error) {
	bin := utils.CoalesceString(cfg.BinPath, "single-file")
	workDir := utils.CoalesceString(cfg.WorkDir, os.TempDir())
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return nil, fmt.Errorf("create render work dir: %w", err)
	}
	return &SingleFile{bin: bin, workDir: workDir, logger: logger}, nil
}

// Render 把 url 快照为本地 HTML 文件，返回产物路径。
// ctx 取消或超时会杀掉子进程；失败时清理可能残留的半成品文件。
func (s *SingleFile) Render(ctx context.Context, url string) (string, error) {
	outPath := filepath.Join(s.workDir, uuid.New().String()+".html")

	cmd := exec.CommandContext(ctx, s.bin, url, outPath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	s.logger.Debug("rendering page", "url", url, "out", outPath)
	if err := cmd.Run(); err != nil {
		s.cleanup(outPath)
		if ctx.Err() != nil {
			return "", fmt.Errorf("render %s: %w", url, ctx.Err())
		}
		msg := bytes.TrimSpace(stderr.Bytes())
		if len(msg) > 0 {
			return "", fmt.Errorf("render %s: %v: %s", url, err, msg)
		}
		return "", fmt.Errorf("render %s: %w", url, err)
	}

	info, err := os.Stat(outPath)
	if err != nil {
		return "", fmt.Errorf("render %s: no artifact produced: %w", url, err)
	}
	if info.Size() == 0 {
		s.cleanup(outPath)
		return "", fmt.Errorf("render %s: empty artifact", url)
	}
	return outPath, nil
}

func (s *SingleFile) cleanup(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("remove partial artifact failed", "path", path, "error", err)
	}
}
