package types

// ModelConfig 模型提供商配置
type ModelConfig struct {
	// Provider 提供商标识, 当前仅 "gemini"
	Provider string `json:"provider" yaml:"provider"`

	// Model 模型名, 如 "gemini-2.5-flash"
	Model string `json:"model" yaml:"model"`

	// APIKey API 密钥(通常来自环境变量, 不落盘)
	APIKey string `json:"-" yaml:"-"`

	// BaseURL 自定义 API 地址, 为空时使用提供商默认值
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// MaxTokens 单次生成的最大输出 token 数
	MaxTokens int `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`

	// Temperature 采样温度
	Temperature float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`

	// TopP nucleus 采样阈值
	TopP float64 `json:"top_p,omitempty" yaml:"top_p,omitempty"`
}
