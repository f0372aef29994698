package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"github.com/wordflowlab/voicedoc/pkg/vector"
)

var bucketChunks = []byte("chunks")

// Store 基于 bbolt 的持久化向量存储。
// 切片以 JSON 形式落盘, 检索时全量扫描做余弦相似度排序,
// 适合单机单文档规模, 大规模场景用 pgvector 实现。
type Store struct {
	db *bbolt.DB
}

// New 打开(或创建)指定路径的 bbolt 存储。
func New(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt store: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketChunks)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Upsert 将切片写入 chunks bucket, 以 ID 为键。
func (s *Store) Upsert(_ context.Context, chunks []vector.Chunk) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketChunks)
		for _, c := range chunks {
			if c.ID == "" {
				continue
			}
			data, err := json.Marshal(c)
			if err != nil {
				return fmt.Errorf("marshal chunk %s: %w", c.ID, err)
			}
			if err := b.Put([]byte(c.ID), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete 按 ID 删除切片。
func (s *Store) Delete(_ context.Context, ids []string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketChunks)
		for _, id := range ids {
			if err := b.Delete([]byte(id)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Search 全量扫描 bucket 做余弦相似度检索。
func (s *Store) Search(_ context.Context, q vector.Query) ([]vector.Hit, error) {
	topK := q.TopK
	if topK <= 0 {
		topK = vector.DefaultTopK
	}

	var hits []vector.Hit
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketChunks)
		return b.ForEach(func(_, v []byte) error {
			var c vector.Chunk
			if err := json.Unmarshal(v, &c); err != nil {
				return err
			}
			if q.Filename != "" && c.Filename != q.Filename {
				return nil
			}
			if len(c.Embedding) == 0 {
				return nil
			}
			score := cosine(q.Vector, c.Embedding)
			if math.IsNaN(score) {
				return nil
			}
			hits = append(hits, vector.Hit{Chunk: c, Score: score})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// Close 关闭底层数据库。
func (s *Store) Close() error {
	return s.db.Close()
}

func cosine(a, b []float64) float64 {
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
