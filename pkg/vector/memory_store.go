package vector

import (
	"context"
	"math"
	"sort"
	"sync"
)

// MemoryStore 内存向量存储, 按余弦相似度做暴力检索。
// 适合单文档规模的部署和测试, 持久化场景用 bolt 或 pgvector 实现。
type MemoryStore struct {
	mu     sync.RWMutex
	chunks map[string]Chunk
	byFile map[string][]string // filename -> []chunkID
}

// NewMemoryStore 创建内存向量存储。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		chunks: make(map[string]Chunk),
		byFile: make(map[string][]string),
	}
}

// Upsert 将切片插入或更新到内存存储。
func (s *MemoryStore) Upsert(_ context.Context, chunks []Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range chunks {
		if c.ID == "" {
			continue
		}
		_, existed := s.chunks[c.ID]
		s.chunks[c.ID] = c
		if !existed {
			s.byFile[c.Filename] = append(s.byFile[c.Filename], c.ID)
		}
	}
	return nil
}

// Delete 从内存存储中删除切片。
func (s *MemoryStore) Delete(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		c, ok := s.chunks[id]
		if !ok {
			continue
		}
		delete(s.chunks, id)

		orig := s.byFile[c.Filename]
		dst := orig[:0]
		for _, cid := range orig {
			if cid != id {
				dst = append(dst, cid)
			}
		}
		if len(dst) == 0 {
			delete(s.byFile, c.Filename)
		} else {
			s.byFile[c.Filename] = dst
		}
	}
	return nil
}

// Search 执行余弦相似度检索, q.Filename 非空时只扫描该文档的切片。
// 结果按相似度降序, 分数相同保持插入顺序。
func (s *MemoryStore) Search(_ context.Context, q Query) ([]Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var candidates []string
	if q.Filename != "" {
		candidates = s.byFile[q.Filename]
	} else {
		for _, ids := range s.byFile {
			candidates = append(candidates, ids...)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	topK := q.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	hits := make([]Hit, 0, len(candidates))
	for _, id := range candidates {
		c, ok := s.chunks[id]
		if !ok || len(c.Embedding) == 0 {
			continue
		}
		score := cosineSimilarity(q.Vector, c.Embedding)
		if math.IsNaN(score) {
			continue
		}
		hits = append(hits, Hit{Chunk: c, Score: score})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// Close 对内存存储无实际作用。
func (s *MemoryStore) Close() error {
	return nil
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
