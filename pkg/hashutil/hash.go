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

// Package hashutil 内容指纹：对产物全量字节做 SHA-256，base64 标准编码。
// 缓存记录里的 content_hash 即该值；读取或摘要失败按「无法比较」处理（调用方强制重新投递）。
package hashutil

import (
	"crypto/sha256"
	"encoding/base64"
	"io"
	"os"
)

// HashFile 计算文件内容哈希；文件不可读时返回错误
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return Hash(f)
}

// Hash 对字节流计算 SHA-256 并以 base64 编码返回
func Hash(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
}
