// Package appconfig 负责应用级 YAML 配置的加载与校验。
// API Key 一律通过环境变量提供, 配置文件里只写 env 名称。
package appconfig

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig HTTP 服务配置。
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout,omitempty"`
	WriteTimeout    time.Duration `yaml:"write_timeout,omitempty"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout,omitempty"`
}

// ModelConfig 生成模型配置。
type ModelConfig struct {
	Provider    string  `yaml:"provider"` // 当前支持 "gemini"
	Model       string  `yaml:"model"`
	EnvAPIKey   string  `yaml:"env_api_key,omitempty"`
	BaseURL     string  `yaml:"base_url,omitempty"`
	MaxTokens   int     `yaml:"max_tokens,omitempty"`
	Temperature float64 `yaml:"temperature,omitempty"`
}

// EmbedderConfig 向量化配置。
type EmbedderConfig struct {
	Kind      string `yaml:"kind"` // "vertex" | "mock"
	Project   string `yaml:"project,omitempty"`
	Location  string `yaml:"location,omitempty"`
	Model     string `yaml:"model,omitempty"`
	EnvAPIKey string `yaml:"env_api_key,omitempty"`
	BaseURL   string `yaml:"base_url,omitempty"`
}

// VectorStoreConfig 向量存储配置。
type VectorStoreConfig struct {
	Kind  string `yaml:"kind"`            // "memory" | "pgvector" | "bolt"
	DSN   string `yaml:"dsn,omitempty"`   // pgvector 连接串
	Table string `yaml:"table,omitempty"` // pgvector 表名
	Path  string `yaml:"path,omitempty"`  // bolt 数据文件路径
	TopK  int    `yaml:"top_k,omitempty"` // 检索条数, 默认 3

	// Dimension 向量维度, pgvector 建表时使用, 默认 768
	Dimension int `yaml:"dimension,omitempty"`
}

// SpeechConfig 语音合成配置。
type SpeechConfig struct {
	Enabled   bool   `yaml:"enabled"`
	EnvAPIKey string `yaml:"env_api_key,omitempty"`
	BaseURL   string `yaml:"base_url,omitempty"`
}

// TelemetryConfig 遥测配置。
type TelemetryConfig struct {
	// StatsdAddr 为空时使用进程内指标
	StatsdAddr string `yaml:"statsd_addr,omitempty"`
	Namespace  string `yaml:"namespace,omitempty"`
	Service    string `yaml:"service,omitempty"`
	Env        string `yaml:"env,omitempty"`

	// Tracing OTLP 追踪开关
	Tracing      bool   `yaml:"tracing,omitempty"`
	OTLPEndpoint string `yaml:"otlp_endpoint,omitempty"`
}

// ChunkerConfig 文档切分配置。
type ChunkerConfig struct {
	Size    int `yaml:"size,omitempty"`
	Overlap int `yaml:"overlap,omitempty"`
}

// LoggingConfig 日志配置。
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"` // "debug" | "info" | "warn" | "error"
	File  string `yaml:"file,omitempty"`  // 追加写入的日志文件, 可选
}

// Config 顶层应用配置。
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Model       ModelConfig       `yaml:"model"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Speech      SpeechConfig      `yaml:"speech,omitempty"`
	Telemetry   TelemetryConfig   `yaml:"telemetry,omitempty"`
	Chunker     ChunkerConfig     `yaml:"chunker,omitempty"`
	Logging     LoggingConfig     `yaml:"logging,omitempty"`
}

// Load 从指定路径加载 YAML 配置并填充默认值。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default 返回带默认值的配置, 无配置文件时使用。
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Model.Provider == "" {
		c.Model.Provider = "gemini"
	}
	if c.Model.EnvAPIKey == "" {
		c.Model.EnvAPIKey = "GEMINI_API_KEY"
	}
	if c.Embedder.Kind == "" {
		c.Embedder.Kind = "vertex"
	}
	if c.Embedder.Location == "" {
		c.Embedder.Location = "us-central1"
	}
	if c.VectorStore.Kind == "" {
		c.VectorStore.Kind = "memory"
	}
	if c.VectorStore.TopK == 0 {
		c.VectorStore.TopK = 3
	}
	if c.VectorStore.Dimension == 0 {
		c.VectorStore.Dimension = 768
	}
	if c.Speech.EnvAPIKey == "" {
		c.Speech.EnvAPIKey = "ELEVENLABS_API_KEY"
	}
	if c.Telemetry.Service == "" {
		c.Telemetry.Service = "voicedoc"
	}
	if c.Telemetry.Namespace == "" {
		c.Telemetry.Namespace = "voicedoc"
	}
	if c.Telemetry.Env == "" {
		c.Telemetry.Env = "dev"
	}
	if c.Chunker.Size == 0 {
		c.Chunker.Size = 1000
	}
	if c.Chunker.Overlap == 0 {
		c.Chunker.Overlap = 100
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate 检查配置一致性。
func (c *Config) Validate() error {
	if c.Chunker.Overlap >= c.Chunker.Size {
		return fmt.Errorf("chunker: overlap %d must be smaller than size %d", c.Chunker.Overlap, c.Chunker.Size)
	}
	switch c.VectorStore.Kind {
	case "memory":
	case "pgvector":
		if c.VectorStore.DSN == "" {
			return fmt.Errorf("vector_store: pgvector requires dsn")
		}
	case "bolt":
		if c.VectorStore.Path == "" {
			return fmt.Errorf("vector_store: bolt requires path")
		}
	default:
		return fmt.Errorf("vector_store: unknown kind %q", c.VectorStore.Kind)
	}
	switch c.Embedder.Kind {
	case "vertex":
		if c.Embedder.Project == "" && c.Embedder.BaseURL == "" {
			return fmt.Errorf("embedder: vertex requires project")
		}
	case "mock":
	default:
		return fmt.Errorf("embedder: unknown kind %q", c.Embedder.Kind)
	}
	return nil
}

// ModelAPIKey 从环境变量读取模型 API Key。
func (c *Config) ModelAPIKey() string {
	return os.Getenv(c.Model.EnvAPIKey)
}

// EmbedderAPIKey 从环境变量读取向量化 API Key。
func (c *Config) EmbedderAPIKey() string {
	return os.Getenv(c.Embedder.EnvAPIKey)
}

// SpeechAPIKey 从环境变量读取语音合成 API Key。
func (c *Config) SpeechAPIKey() string {
	return os.Getenv(c.Speech.EnvAPIKey)
}
