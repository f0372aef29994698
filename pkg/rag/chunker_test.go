package rag

import (
	"errors"
	"strings"
	"testing"
)

func TestNewChunker_Validation(t *testing.T) {
	t.Run("overlap >= size is a configuration error", func(t *testing.T) {
		_, err := NewChunker(100, 100)
		if !errors.Is(err, ErrInvalidChunking) {
			t.Errorf("expected ErrInvalidChunking, got %v", err)
		}
		_, err = NewChunker(100, 150)
		if !errors.Is(err, ErrInvalidChunking) {
			t.Errorf("expected ErrInvalidChunking, got %v", err)
		}
	})

	t.Run("defaults", func(t *testing.T) {
		c, err := NewChunker(0, -1)
		if err != nil {
			t.Fatalf("NewChunker failed: %v", err)
		}
		if c.size != DefaultChunkSize || c.overlap != DefaultOverlap {
			t.Errorf("defaults not applied: size=%d overlap=%d", c.size, c.overlap)
		}
	})
}

func TestChunker_Split(t *testing.T) {
	tests := []struct {
		name       string
		size       int
		overlap    int
		textLen    int
		wantChunks int
	}{
		{name: "empty text", size: 1000, overlap: 100, textLen: 0, wantChunks: 0},
		{name: "shorter than window", size: 1000, overlap: 100, textLen: 500, wantChunks: 1},
		{name: "exactly one window", size: 1000, overlap: 100, textLen: 1000, wantChunks: 2},
		{name: "two full steps", size: 1000, overlap: 100, textLen: 1800, wantChunks: 2},
		{name: "long text", size: 1000, overlap: 100, textLen: 4500, wantChunks: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewChunker(tt.size, tt.overlap)
			if err != nil {
				t.Fatalf("NewChunker failed: %v", err)
			}
			text := strings.Repeat("x", tt.textLen)
			chunks := c.Split(text)
			if len(chunks) != tt.wantChunks {
				t.Errorf("got %d chunks, want %d", len(chunks), tt.wantChunks)
			}
		})
	}
}

func TestChunker_SplitCoverageAndOverlap(t *testing.T) {
	c, err := NewChunker(10, 3)
	if err != nil {
		t.Fatalf("NewChunker failed: %v", err)
	}
	text := "abcdefghijklmnopqrstuvwxyz0123456789"
	chunks := c.Split(text)

	// 每个字符都至少出现在一个切片中
	var rebuilt strings.Builder
	for i, ch := range chunks {
		if i == 0 {
			rebuilt.WriteString(ch)
		} else {
			rebuilt.WriteString(ch[min(3, len(ch)):])
		}
	}
	if rebuilt.String() != text {
		t.Errorf("chunks do not cover original text:\n got %q\nwant %q", rebuilt.String(), text)
	}

	// 相邻切片重叠恰好 overlap 个字符(最后一片可能不足)
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		if len(prev) < 10 {
			continue
		}
		if !strings.HasPrefix(chunks[i], prev[len(prev)-3:]) {
			t.Errorf("chunk %d does not overlap its predecessor by 3 chars", i)
		}
	}
}
