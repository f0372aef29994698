package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wordflowlab/voicedoc/pkg/latency"
	"github.com/wordflowlab/voicedoc/pkg/pipeline"
	"github.com/wordflowlab/voicedoc/pkg/types"
	"github.com/wordflowlab/voicedoc/pkg/vector"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubGenerator yields canned events and captures the request
type stubGenerator struct {
	events  []pipeline.Event
	lastReq types.GenerateRequest
}

func (s *stubGenerator) Stream(_ context.Context, req types.GenerateRequest, _ *latency.Collector) <-chan pipeline.Event {
	s.lastReq = req
	ch := make(chan pipeline.Event, len(s.events))
	for _, ev := range s.events {
		ch <- ev
	}
	close(ch)
	return ch
}

type stubRetriever struct {
	hits []vector.Hit
	err  error
}

func (s *stubRetriever) Retrieve(context.Context, string, string) ([]vector.Hit, error) {
	return s.hits, s.err
}

func newGenerateRouter(h *GenerateHandler) *gin.Engine {
	router := gin.New()
	router.POST("/v1/generate", func(c *gin.Context) {
		c.Set("trafficSource", "user")
		h.Generate(c)
	})
	return router
}

func postGenerate(t *testing.T, router *gin.Engine, body map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/generate", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGenerateStreamsFinalText(t *testing.T) {
	gen := &stubGenerator{events: []pipeline.Event{{Text: "The answer is 42."}}}
	h := NewGenerateHandler(gen, nil, nil, nil)

	w := postGenerate(t, newGenerateRouter(h), map[string]interface{}{
		"query": "what is the answer",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "The answer is 42.", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
}

func TestGenerateRejectsEmptyQuery(t *testing.T) {
	gen := &stubGenerator{}
	h := NewGenerateHandler(gen, nil, nil, nil)

	w := postGenerate(t, newGenerateRouter(h), map[string]interface{}{
		"query": "",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Query required")
}

func TestGenerateDetectsNarration(t *testing.T) {
	gen := &stubGenerator{events: []pipeline.Event{{Text: "chapter text"}}}
	h := NewGenerateHandler(gen, nil, nil, nil)

	postGenerate(t, newGenerateRouter(h), map[string]interface{}{
		"query": "read chapter 1",
	})
	assert.True(t, gen.lastReq.IsNarration)

	postGenerate(t, newGenerateRouter(h), map[string]interface{}{
		"query": "what does chapter 1 say about warranties, please read it to me later",
	})
	assert.False(t, gen.lastReq.IsNarration)
}

func TestGenerateAugmentsContextFromRetrieval(t *testing.T) {
	gen := &stubGenerator{events: []pipeline.Event{{Text: "ok"}}}
	retriever := &stubRetriever{hits: []vector.Hit{
		{Chunk: vector.Chunk{Text: "excerpt one"}},
		{Chunk: vector.Chunk{Text: "excerpt two"}},
	}}
	h := NewGenerateHandler(gen, retriever, nil, nil)

	postGenerate(t, newGenerateRouter(h), map[string]interface{}{
		"query":   "question",
		"context": "base context",
	})

	assert.Contains(t, gen.lastReq.Context, "base context")
	assert.Contains(t, gen.lastReq.Context, "Relevant Document Excerpts:")
	assert.Contains(t, gen.lastReq.Context, "excerpt one")
	assert.Contains(t, gen.lastReq.Context, "excerpt two")
}

func TestGenerateDegradesOnRetrievalFailure(t *testing.T) {
	gen := &stubGenerator{events: []pipeline.Event{{Text: "ok"}}}
	retriever := &stubRetriever{err: errors.New("embedding service down")}
	h := NewGenerateHandler(gen, retriever, nil, nil)

	w := postGenerate(t, newGenerateRouter(h), map[string]interface{}{
		"query":   "question",
		"context": "caller supplied context",
	})

	// retrieval failure is not fatal to the turn
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "caller supplied context", gen.lastReq.Context)
}

func TestGenerateForceError(t *testing.T) {
	gen := &stubGenerator{}
	h := NewGenerateHandler(gen, nil, nil, nil)

	w := postGenerate(t, newGenerateRouter(h), map[string]interface{}{
		"query":      "anything",
		"forceError": true,
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Failed to generate response", body["error"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestGenerateFatalPipelineError(t *testing.T) {
	genErr := &pipeline.GenerationError{Stage: pipeline.StageGrounding, Err: errors.New("upstream 500")}
	gen := &stubGenerator{events: []pipeline.Event{
		{Text: "\n\nERROR: upstream 500\n"},
		{Err: genErr},
	}}
	h := NewGenerateHandler(gen, nil, nil, nil)

	w := postGenerate(t, newGenerateRouter(h), map[string]interface{}{
		"query": "anything",
	})

	// error text already streamed, so the formatted error is the body
	assert.Contains(t, w.Body.String(), "ERROR: upstream 500")
}

func TestGeneratePassesPersonaAndMode(t *testing.T) {
	gen := &stubGenerator{events: []pipeline.Event{{Text: "ok"}}}
	h := NewGenerateHandler(gen, nil, nil, nil)

	postGenerate(t, newGenerateRouter(h), map[string]interface{}{
		"query":          "question",
		"persona":        "legal",
		"expressiveMode": true,
		"filename":       "contract.txt",
	})

	assert.Equal(t, types.PersonaLegal, gen.lastReq.Persona)
	assert.True(t, gen.lastReq.ExpressiveMode)
	assert.Equal(t, "contract.txt", gen.lastReq.Filename)
	assert.Equal(t, "user", gen.lastReq.TrafficSource)

	// unknown persona falls back to narrative
	postGenerate(t, newGenerateRouter(h), map[string]interface{}{
		"query":   "question",
		"persona": "astrology",
	})
	assert.Equal(t, types.PersonaNarrative, gen.lastReq.Persona)
}
