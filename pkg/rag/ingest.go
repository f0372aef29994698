package rag

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/wordflowlab/voicedoc/pkg/logging"
	"github.com/wordflowlab/voicedoc/pkg/types"
	"github.com/wordflowlab/voicedoc/pkg/vector"
)

// PersonaClassifier 对文档正文做画像分类。
// 分类失败时实现应返回 PersonaNarrative 而不是错误。
type PersonaClassifier interface {
	ClassifyPersona(ctx context.Context, documentText string) types.Persona
}

// DocumentDescriptor 已摄入文档的描述, 仅用于去重。
type DocumentDescriptor struct {
	ContentHash string        `json:"content_hash"`
	Filename    string        `json:"filename"`
	Persona     types.Persona `json:"persona"`
	ChunkCount  int           `json:"chunk_count"`
}

// IngestResult 一次摄入操作的结果。
type IngestResult struct {
	Descriptor     DocumentDescriptor
	Duplicate      bool // 内容哈希已存在, 未重新摄入
	IngestedChunks int  // 实际写入的切片数
	FailedChunks   int  // embedding 失败被丢弃的切片数
}

// Ingestor 负责文档摄入: 去重 -> 切片 -> 并发 embedding -> 入库。
// 切片之间的 embedding 没有顺序依赖, 全部并发执行;
// 入库等待所有 embedding 完成, 单片失败只丢弃该片。
type Ingestor struct {
	chunker    *Chunker
	embedder   vector.Embedder
	store      vector.Store
	classifier PersonaClassifier

	mu   sync.Mutex
	seen map[string]DocumentDescriptor // contentHash -> descriptor
}

// NewIngestor 创建 Ingestor。classifier 可为 nil, 此时画像固定为 narrative。
func NewIngestor(chunker *Chunker, embedder vector.Embedder, store vector.Store, classifier PersonaClassifier) *Ingestor {
	return &Ingestor{
		chunker:    chunker,
		embedder:   embedder,
		store:      store,
		classifier: classifier,
		seen:       make(map[string]DocumentDescriptor),
	}
}

// Ingest 摄入一篇文档全文。
// 相同内容哈希的文档直接返回已有描述, 不重复 embedding。
func (ing *Ingestor) Ingest(ctx context.Context, filename, text string) (*IngestResult, error) {
	if text == "" {
		return nil, fmt.Errorf("document text is empty")
	}

	sum := sha256.Sum256([]byte(text))
	hash := hex.EncodeToString(sum[:])

	ing.mu.Lock()
	if desc, ok := ing.seen[hash]; ok {
		ing.mu.Unlock()
		logging.Info(ctx, "ingest.duplicate", map[string]interface{}{
			"filename": filename,
			"hash":     hash[:8],
		})
		return &IngestResult{Descriptor: desc, Duplicate: true}, nil
	}
	ing.mu.Unlock()

	persona := types.PersonaNarrative
	if ing.classifier != nil {
		persona = ing.classifier.ClassifyPersona(ctx, text)
	}

	pieces := ing.chunker.Split(text)

	type embedded struct {
		index int
		chunk vector.Chunk
		err   error
	}

	results := make([]embedded, len(pieces))
	var wg sync.WaitGroup
	for i, piece := range pieces {
		wg.Add(1)
		go func(i int, piece string) {
			defer wg.Done()
			vec, err := ing.embedder.Embed(ctx, piece)
			if err != nil {
				results[i] = embedded{index: i, err: err}
				return
			}
			results[i] = embedded{index: i, chunk: vector.Chunk{
				ID:        uuid.New().String(),
				Text:      piece,
				Embedding: vec,
				Filename:  filename,
				Persona:   string(persona),
			}}
		}(i, piece)
	}
	wg.Wait()

	chunks := make([]vector.Chunk, 0, len(pieces))
	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			logging.Warn(ctx, "ingest.chunk_embed_failed", map[string]interface{}{
				"filename": filename,
				"index":    r.index,
				"error":    r.err.Error(),
			})
			continue
		}
		chunks = append(chunks, r.chunk)
	}

	if len(chunks) > 0 {
		if err := ing.store.Upsert(ctx, chunks); err != nil {
			return nil, fmt.Errorf("save chunks: %w", err)
		}
	}

	desc := DocumentDescriptor{
		ContentHash: hash,
		Filename:    filename,
		Persona:     persona,
		ChunkCount:  len(chunks),
	}
	ing.mu.Lock()
	ing.seen[hash] = desc
	ing.mu.Unlock()

	logging.Info(ctx, "ingest.completed", map[string]interface{}{
		"filename": filename,
		"chunks":   len(chunks),
		"failed":   failed,
		"persona":  string(persona),
	})

	return &IngestResult{
		Descriptor:     desc,
		IngestedChunks: len(chunks),
		FailedChunks:   failed,
	}, nil
}
