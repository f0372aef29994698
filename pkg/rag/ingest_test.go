package rag

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/wordflowlab/voicedoc/pkg/types"
	"github.com/wordflowlab/voicedoc/pkg/vector"
)

// flakyEmbedder 对包含 "poison" 的切片返回错误, 其余正常。
type flakyEmbedder struct {
	inner vector.Embedder
	mu    sync.Mutex
	calls int
}

func (e *flakyEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if strings.Contains(text, "poison") {
		return nil, fmt.Errorf("%w: synthetic failure", vector.ErrEmbeddingUnavailable)
	}
	return e.inner.Embed(ctx, text)
}

type staticClassifier struct{ persona types.Persona }

func (c staticClassifier) ClassifyPersona(context.Context, string) types.Persona {
	return c.persona
}

func newTestIngestor(t *testing.T, embedder vector.Embedder) (*Ingestor, *vector.MemoryStore) {
	t.Helper()
	chunker, err := NewChunker(10, 2)
	if err != nil {
		t.Fatalf("NewChunker failed: %v", err)
	}
	store := vector.NewMemoryStore()
	return NewIngestor(chunker, embedder, store, staticClassifier{persona: types.PersonaLegal}), store
}

func TestIngestor_Ingest(t *testing.T) {
	ctx := context.Background()
	ing, store := newTestIngestor(t, vector.NewMockEmbedder(4))

	res, err := ing.Ingest(ctx, "contract.pdf", strings.Repeat("legal text ", 10))
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if res.Duplicate {
		t.Error("first ingest reported as duplicate")
	}
	if res.IngestedChunks == 0 {
		t.Fatal("no chunks ingested")
	}
	if res.Descriptor.Persona != types.PersonaLegal {
		t.Errorf("persona = %s, want legal", res.Descriptor.Persona)
	}

	hits, err := store.Search(ctx, vector.Query{Vector: mustEmbed(t, "legal text "), TopK: 1, Filename: "contract.pdf"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected a hit after ingest, got %d", len(hits))
	}
	if hits[0].Chunk.Persona != "legal" {
		t.Errorf("chunk persona = %q, want legal", hits[0].Chunk.Persona)
	}
}

func TestIngestor_DuplicateDetection(t *testing.T) {
	ctx := context.Background()
	fe := &flakyEmbedder{inner: vector.NewMockEmbedder(4)}
	ing, _ := newTestIngestor(t, fe)

	text := strings.Repeat("same content ", 5)
	first, err := ing.Ingest(ctx, "a.pdf", text)
	if err != nil {
		t.Fatalf("first Ingest failed: %v", err)
	}
	callsAfterFirst := fe.calls

	second, err := ing.Ingest(ctx, "b.pdf", text)
	if err != nil {
		t.Fatalf("second Ingest failed: %v", err)
	}
	if !second.Duplicate {
		t.Error("identical content not detected as duplicate")
	}
	if second.Descriptor.ContentHash != first.Descriptor.ContentHash {
		t.Error("descriptors disagree on content hash")
	}
	if fe.calls != callsAfterFirst {
		t.Errorf("duplicate ingest performed %d extra embeddings", fe.calls-callsAfterFirst)
	}
}

func TestIngestor_PartialEmbeddingFailure(t *testing.T) {
	ctx := context.Background()
	fe := &flakyEmbedder{inner: vector.NewMockEmbedder(4)}
	ing, _ := newTestIngestor(t, fe)

	// 切片大小 10, 步长 8: "poisonXXX" 会独占部分窗口
	text := "good text poison bad more good text here"
	res, err := ing.Ingest(ctx, "doc.pdf", text)
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	if res.FailedChunks == 0 {
		t.Error("expected at least one failed chunk")
	}
	if res.IngestedChunks == 0 {
		t.Error("partial failure dropped the whole batch")
	}
	if res.IngestedChunks+res.FailedChunks == 0 {
		t.Error("no chunks processed at all")
	}
}

func TestIngestor_EmptyDocument(t *testing.T) {
	ing, _ := newTestIngestor(t, vector.NewMockEmbedder(4))
	if _, err := ing.Ingest(context.Background(), "empty.pdf", ""); err == nil {
		t.Error("expected error for empty document")
	}
}

func mustEmbed(t *testing.T, text string) []float64 {
	t.Helper()
	vec, err := vector.NewMockEmbedder(4).Embed(context.Background(), text)
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	return vec
}
