package vector

import "context"

// MockEmbedder 一个非常简化的 Embedder 实现, 仅用于示例/测试。
// 只保证同一文本得到相同向量, 不保证语义质量。
type MockEmbedder struct {
	Dim int
}

// NewMockEmbedder 创建 MockEmbedder, dim 指定向量维度, 默认 16。
func NewMockEmbedder(dim int) *MockEmbedder {
	if dim <= 0 {
		dim = 16
	}
	return &MockEmbedder{Dim: dim}
}

// Embed 将文本映射为基于字节值的伪随机向量。
func (e *MockEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	vec := make([]float64, e.Dim)
	if len(text) == 0 {
		return vec, nil
	}
	for j := 0; j < e.Dim; j++ {
		b := text[j%len(text)]
		vec[j] = float64(int(b%97)) / 100.0
	}
	return vec, nil
}
