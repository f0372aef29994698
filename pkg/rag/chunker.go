package rag

import (
	"errors"
	"fmt"
)

// 默认切片参数, 与 embedding 模型的上下文窗口相匹配。
const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 100
)

// ErrInvalidChunking overlap >= chunkSize 时滑动窗口无法推进。
var ErrInvalidChunking = errors.New("chunk overlap must be smaller than chunk size")

// Chunker 将文档全文切成带重叠的固定大小窗口。
type Chunker struct {
	size    int
	overlap int
}

// NewChunker 创建 Chunker。size/overlap <= 0 时使用默认值,
// overlap >= size 返回配置错误而不是让窗口死循环。
func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}
	if overlap >= size {
		return nil, fmt.Errorf("%w: size=%d overlap=%d", ErrInvalidChunking, size, overlap)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Split 按滑动窗口切分文本: 窗口 [start, start+size) 截断到文本末尾,
// 每步前进 size-overlap。非空输入至少产生一个切片。
func (c *Chunker) Split(text string) []string {
	var chunks []string
	for start := 0; start < len(text); start += c.size - c.overlap {
		end := start + c.size
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, text[start:end])
	}
	return chunks
}
