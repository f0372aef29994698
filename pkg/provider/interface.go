package provider

import (
	"context"

	"github.com/wordflowlab/voicedoc/pkg/types"
)

// StreamChunkType 流式响应块类型
type StreamChunkType string

const (
	ChunkTypeText  StreamChunkType = "text"
	ChunkTypeUsage StreamChunkType = "usage"
	ChunkTypeError StreamChunkType = "error"
	ChunkTypeDone  StreamChunkType = "done"
)

// StreamChunk 流式响应块
type StreamChunk struct {
	// Type 块类型
	Type StreamChunkType `json:"type"`

	// TextDelta 文本增量
	TextDelta string `json:"text_delta,omitempty"`

	// Usage Token 用量(通常出现在流尾)
	Usage *types.TokenUsage `json:"usage,omitempty"`

	// Error 错误信息
	Error *StreamError `json:"error,omitempty"`

	// FinishReason 完成原因
	FinishReason string `json:"finish_reason,omitempty"`
}

// StreamError 流式错误
type StreamError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Options 单次调用选项。
// System 每次调用单独传入: 两段式管线的两次调用使用完全不同的系统提示词。
type Options struct {
	System      string
	MaxTokens   int
	Temperature float64
	TopP        float64
}

// CompleteResponse 非流式调用的完整响应
type CompleteResponse struct {
	Text  string
	Usage types.TokenUsage
}

// Provider 模型提供商接口
type Provider interface {
	// Complete 非流式对话(阻塞式, 返回完整响应)
	Complete(ctx context.Context, messages []types.Message, opts *Options) (*CompleteResponse, error)

	// Stream 流式对话
	Stream(ctx context.Context, messages []types.Message, opts *Options) (<-chan StreamChunk, error)

	// Close 关闭连接
	Close() error
}
