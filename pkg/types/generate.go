package types

// GenerateRequest 一次生成请求的完整输入。
// 请求之间相互独立, 除检索存储和指标后端外无共享可变状态。
type GenerateRequest struct {
	// History 调用方重传的对话历史
	History []Message `json:"history,omitempty"`

	// Query 用户问题原文
	Query string `json:"query"`

	// Context 调用方附带的上下文文本(可为空, 检索结果会追加到其后)
	Context string `json:"context,omitempty"`

	// Filename 当前激活文档名, 用于限定检索范围
	Filename string `json:"filename,omitempty"`

	// Persona 文档画像
	Persona Persona `json:"persona,omitempty"`

	// IsNarration 是否为朗读请求(逐字朗读某章节而不是问答)
	IsNarration bool `json:"is_narration,omitempty"`

	// ExpressiveMode 是否叠加情绪标签
	ExpressiveMode bool `json:"expressive_mode,omitempty"`

	// TrafficSource 流量来源标记, 用于区分真实用户与合成流量
	TrafficSource string `json:"traffic_source,omitempty"`
}

// TokenUsage 单次模型调用的 token 统计
type TokenUsage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens,omitempty"`
}

// Add 累加另一次调用的用量(两段式管线需要汇总两次调用)。
func (u *TokenUsage) Add(other TokenUsage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// GenerationResult 两段式管线的最终产物。
// FinalText 在表达模式下是 RawText 加情绪标签,
// 标准模式下是 RawText 去除括号/方括号泄漏后的文本。
type GenerationResult struct {
	RawText   string     `json:"raw_text"`
	FinalText string     `json:"final_text"`
	Usage     TokenUsage `json:"usage"`
}
