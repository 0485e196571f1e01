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

// Package bot Telegram Bot 入口：长轮询拉取消息，解析命令并提交页面解析。
package bot

import (
	"errors"
	"strings"
)

// CommandKind 命令类型
type CommandKind int

const (
	// CommandHelp /help
	CommandHelp CommandKind = iota
	// CommandGetPage /getpage <url>
	CommandGetPage
)

// Command 解析后的用户命令
type Command struct {
	Kind CommandKind
	URL  string // Kind == CommandGetPage 时有效
}

// ErrNotCommand 消息不是命令（不以 / 开头），调用方直接忽略
var ErrNotCommand = errors.New("bot: not a command")

// ErrUnknownCommand 未知命令，回复帮助文本
var ErrUnknownCommand = errors.New("bot: unknown command")

// helpText /help 的回复内容
const helpText = `These commands are supported:
/help — Show all commands
/getpage <url> — Get a web page by the URL`

// ParseCommand 解析消息文本。命令名大小写不敏感，支持 /cmd@botname 形式。
func ParseCommand(text string) (Command, error) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return Command{}, ErrNotCommand
	}
	fields := strings.Fields(text)
	name := strings.ToLower(fields[0])
	if i := strings.IndexByte(name, '@'); i > 0 {
		name = name[:i]
	}
	switch name {
	case "/help", "/start":
		return Command{Kind: CommandHelp}, nil
	case "/getpage":
		if len(fields) < 2 {
			return Command{}, errors.New("bot: /getpage requires a url")
		}
		url := fields[1]
		if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
			url = "https://" + url
		}
		return Command{Kind: CommandGetPage, URL: url}, nil
	default:
		return Command{}, ErrUnknownCommand
	}
}
