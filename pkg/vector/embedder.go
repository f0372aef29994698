package vector

import (
	"context"
	"errors"
)

// 检索增强失败不应让整轮请求失败, 调用方据此区分降级路径。
var (
	// ErrEmbeddingUnavailable 上游 embedding 调用出错或未返回任何预测
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")

	// ErrEmbeddingMalformed 预测结果缺少 values 数组
	ErrEmbeddingMalformed = errors.New("embedding response malformed")
)

// Embedder 为文本生成向量的抽象接口。
// 实现内部不做重试, 是否致命由调用方决定。
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}
