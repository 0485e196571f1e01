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

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置结构体
type Config struct {
	Backend    BackendConfig    `mapstructure:"backend"`
	Bot        BotConfig        `mapstructure:"bot"`
	Render     RenderConfig     `mapstructure:"render"`
	Store      StoreConfig      `mapstructure:"store"`
	Resolve    ResolveConfig    `mapstructure:"resolve"`
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	Log        LogConfig        `mapstructure:"log"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// BackendConfig 后端 HTTP 服务配置
type BackendConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

// BotConfig Bot 入口配置
type BotConfig struct {
	// Mode standalone | remote；remote 时 Bot 仅把请求转发给 Backend
	Mode string `mapstructure:"mode"`
	// BackendURL remote 模式下的后端地址，如 "http://localhost:8080"
	BackendURL string `mapstructure:"backend_url"`
}

// RenderConfig 页面渲染配置（single-file CLI）
type RenderConfig struct {
	BinPath string `mapstructure:"bin_path"` // single-file 可执行文件路径
	WorkDir string `mapstructure:"work_dir"` // 渲染产物落盘目录
	Timeout string `mapstructure:"timeout"`  // 单次渲染超时，如 "90s"，空则默认 90s
}

// StoreConfig 缓存记录存储配置
type StoreConfig struct {
	Type string `mapstructure:"type"` // memory | sqlite | postgres | redis
	// DSN sqlite 为文件路径（":memory:" 可用于测试）；postgres 为连接串；redis 为 addr
	DSN      string `mapstructure:"dsn"`
	Password string `mapstructure:"password"` // redis 等后端密码，可选
	DB       int    `mapstructure:"db"`       // redis DB 编号
}

// ResolveConfig 解析编排策略配置
type ResolveConfig struct {
	FreshnessWindow  string `mapstructure:"freshness_window"`  // 缓存引用直接复用窗口，如 "10m"，空则默认 10m
	ThrottleCooldown string `mapstructure:"throttle_cooldown"` // 同一请求方两次请求的最小间隔，如 "10s"
	ThrottlePurge    string `mapstructure:"throttle_purge"`    // 限流状态全量清理周期，空则默认 60s
	DeliveryTimeout  string `mapstructure:"delivery_timeout"`  // 单次投递超时，空则默认 60s
}

// TelegramConfig Telegram Bot API 配置
type TelegramConfig struct {
	Token       string `mapstructure:"token"`        // 支持 ${ENV} 形式引用环境变量
	APIBaseURL  string `mapstructure:"api_base_url"` // 空则默认 https://api.telegram.org
	PollTimeout int    `mapstructure:"poll_timeout"` // getUpdates 长轮询秒数，<=0 默认 30
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// MonitoringConfig 监控配置
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
}

// PrometheusConfig Prometheus 配置
type PrometheusConfig struct {
	Enable bool `mapstructure:"enable"`
}

// TracingConfig 链路追踪配置（OpenTelemetry）
type TracingConfig struct {
	Enable         bool   `mapstructure:"enable"`
	ServiceName    string `mapstructure:"service_name"`
	ExportEndpoint string `mapstructure:"export_endpoint"`
	Insecure       bool   `mapstructure:"insecure"`
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	replaceEnvVars(&config)
	return &config, nil
}

// replaceEnvVars 替换配置中的 ${ENV} 引用（token、DSN 等敏感项）
func replaceEnvVars(config *Config) {
	config.Telegram.Token = expandEnv(config.Telegram.Token)
	config.Store.DSN = expandEnv(config.Store.DSN)
	config.Store.Password = expandEnv(config.Store.Password)
}

func expandEnv(v string) string {
	if strings.HasPrefix(v, "${") && strings.HasSuffix(v, "}") {
		if val := os.Getenv(strings.TrimSuffix(strings.TrimPrefix(v, "${"), "}")); val != "" {
			return val
		}
	}
	return v
}

// LoadBackendConfig 加载 Backend 配置（configs/backend.yaml）
func LoadBackendConfig() (*Config, error) {
	return LoadConfig("configs/backend.yaml")
}

// LoadBotConfig 加载 Bot 配置（configs/bot.yaml）
func LoadBotConfig() (*Config, error) {
	return LoadConfig("configs/bot.yaml")
}

// Duration 解析时长字段，空串或非法值回落 def
func Duration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
