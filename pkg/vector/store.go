package vector

import "context"

// Chunk 表示一条已向量化的文档切片, 检索的基本单位。
// 创建后不可变, 只会随文档删除而删除。
type Chunk struct {
	ID        string    // 全局唯一 ID
	Text      string    // 切片原文
	Embedding []float64 // 文本向量, 维度由 embedding 模型决定
	Filename  string    // 所属文档名
	Persona   string    // 文档画像(透传元数据)
}

// Query 表示一次向量检索请求。
type Query struct {
	Vector   []float64 // 查询向量
	TopK     int       // 返回结果数量, <=0 时取默认值 3
	Filename string    // 非空时只在该文档内检索
}

// Hit 表示一次检索命中。
type Hit struct {
	Chunk Chunk   // 命中的切片
	Score float64 // 相似度分数, 越大越相关
}

// Store 抽象向量存储接口。
// 管线只依赖该接口, 不关心具体实现(内存/bbolt/pgvector)。
// 实现必须支持并发读写。
type Store interface {
	Upsert(ctx context.Context, chunks []Chunk) error
	Delete(ctx context.Context, ids []string) error
	Search(ctx context.Context, q Query) ([]Hit, error)
	Close() error
}

// DefaultTopK 检索默认返回的切片数。
const DefaultTopK = 3
