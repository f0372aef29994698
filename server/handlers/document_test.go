package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wordflowlab/voicedoc/pkg/rag"
	"github.com/wordflowlab/voicedoc/pkg/types"
)

type stubIngestor struct {
	result   *rag.IngestResult
	err      error
	lastText string
	lastName string
}

func (s *stubIngestor) Ingest(_ context.Context, filename, text string) (*rag.IngestResult, error) {
	s.lastName = filename
	s.lastText = text
	return s.result, s.err
}

func uploadFile(t *testing.T, router *gin.Engine, filename, content string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func newDocumentRouter(h *DocumentHandler) *gin.Engine {
	router := gin.New()
	router.POST("/v1/documents", h.Upload)
	return router
}

func TestUploadIngestsDocument(t *testing.T) {
	ing := &stubIngestor{result: &rag.IngestResult{
		Descriptor: rag.DocumentDescriptor{
			Filename: "guide.txt",
			Persona:  types.PersonaTechnical,
		},
		IngestedChunks: 4,
	}}
	h := NewDocumentHandler(ing, nil)

	w := uploadFile(t, newDocumentRouter(h), "guide.txt", "Deploy using containers.")

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "guide.txt", body["filename"])
	assert.Equal(t, "technical", body["persona"])
	assert.Equal(t, float64(4), body["ingestedChunks"])
	assert.Equal(t, "guide.txt", ing.lastName)
	assert.Equal(t, "Deploy using containers.", ing.lastText)
}

func TestUploadDuplicateShortCircuits(t *testing.T) {
	ing := &stubIngestor{result: &rag.IngestResult{
		Descriptor: rag.DocumentDescriptor{
			Filename: "guide.txt",
			Persona:  types.PersonaTechnical,
		},
		Duplicate: true,
	}}
	h := NewDocumentHandler(ing, nil)

	w := uploadFile(t, newDocumentRouter(h), "guide.txt", "same bytes again")

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["isDuplicate"])
	assert.Equal(t, float64(0), body["ingestedChunks"])
}

func TestUploadRejectsMissingFile(t *testing.T) {
	h := NewDocumentHandler(&stubIngestor{}, nil)
	router := newDocumentRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/v1/documents", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadRejectsEmptyFile(t *testing.T) {
	h := NewDocumentHandler(&stubIngestor{}, nil)

	w := uploadFile(t, newDocumentRouter(h), "empty.txt", "   ")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadIngestionFailure(t *testing.T) {
	ing := &stubIngestor{err: errors.New("store unavailable")}
	h := NewDocumentHandler(ing, nil)

	w := uploadFile(t, newDocumentRouter(h), "doc.txt", "content")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Upload failed")
}
