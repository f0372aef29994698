package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/wordflowlab/voicedoc/pkg/vector"
)

// Retriever 把用户问题变成向量并取回 top-K 相关切片。
// 检索是增强而不是前置条件, 失败与否由编排层决定如何处理。
type Retriever struct {
	embedder vector.Embedder
	store    vector.Store
	topK     int
}

// NewRetriever 创建 Retriever。topK <= 0 时使用 vector.DefaultTopK。
func NewRetriever(embedder vector.Embedder, store vector.Store, topK int) *Retriever {
	if topK <= 0 {
		topK = vector.DefaultTopK
	}
	return &Retriever{embedder: embedder, store: store, topK: topK}
}

// Retrieve 检索与 query 最相关的切片, filename 非空时限定文档。
func (r *Retriever) Retrieve(ctx context.Context, query, filename string) ([]vector.Hit, error) {
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := r.store.Search(ctx, vector.Query{
		Vector:   vec,
		TopK:     r.topK,
		Filename: filename,
	})
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}
	return hits, nil
}

// AugmentContext 把检索结果追加到调用方提供的上下文之后。
// 没有命中时原样返回 base。
func AugmentContext(base string, hits []vector.Hit) string {
	if len(hits) == 0 {
		return base
	}
	texts := make([]string, 0, len(hits))
	for _, h := range hits {
		texts = append(texts, h.Chunk.Text)
	}
	return base + "\n\nRelevant Document Excerpts:\n" + strings.Join(texts, "\n\n")
}
