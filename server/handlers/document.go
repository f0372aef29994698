package handlers

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wordflowlab/voicedoc/pkg/logging"
	"github.com/wordflowlab/voicedoc/pkg/rag"
)

// maxUploadBytes caps document uploads at 20 MiB
const maxUploadBytes = 20 << 20

// Ingestor runs the chunk/embed/save pipeline for a document
type Ingestor interface {
	Ingest(ctx context.Context, filename, text string) (*rag.IngestResult, error)
}

// IngestMetrics counts accepted documents
type IngestMetrics interface {
	RecordDocumentIngested(chunks int)
}

// DocumentHandler handles document uploads
type DocumentHandler struct {
	ingestor Ingestor
	metrics  IngestMetrics
}

// NewDocumentHandler creates the document upload handler
func NewDocumentHandler(ingestor Ingestor, metrics IngestMetrics) *DocumentHandler {
	return &DocumentHandler{ingestor: ingestor, metrics: metrics}
}

// Upload handles POST /v1/documents. Accepts a multipart "file" field
// with UTF-8 text content and indexes it for retrieval.
func (h *DocumentHandler) Upload(c *gin.Context) {
	ctx := c.Request.Context()

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		internalError(c, "read_failed", "Failed to read uploaded file")
		return
	}
	if len(raw) > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
		return
	}

	text := string(raw)
	if strings.TrimSpace(text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File is empty"})
		return
	}

	result, err := h.ingestor.Ingest(ctx, header.Filename, text)
	if err != nil {
		logging.Error(ctx, "document ingestion failed", map[string]interface{}{
			"filename": header.Filename,
			"error":    err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Upload failed"})
		return
	}

	if result.Duplicate {
		c.JSON(http.StatusOK, gin.H{
			"filename":       result.Descriptor.Filename,
			"persona":        result.Descriptor.Persona,
			"textSummary":    "Document previously uploaded.",
			"ingestedChunks": 0,
			"isDuplicate":    true,
		})
		return
	}

	if h.metrics != nil {
		h.metrics.RecordDocumentIngested(result.IngestedChunks)
	}

	c.JSON(http.StatusOK, gin.H{
		"filename":       result.Descriptor.Filename,
		"persona":        result.Descriptor.Persona,
		"textSummary":    summarize(text),
		"ingestedChunks": result.IngestedChunks,
		"failedChunks":   result.FailedChunks,
	})
}

func summarize(text string) string {
	const limit = 200
	if len(text) <= limit {
		return text
	}
	return text[:limit] + "..."
}
