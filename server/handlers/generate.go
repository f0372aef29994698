package handlers

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wordflowlab/voicedoc/pkg/latency"
	"github.com/wordflowlab/voicedoc/pkg/logging"
	"github.com/wordflowlab/voicedoc/pkg/pipeline"
	"github.com/wordflowlab/voicedoc/pkg/rag"
	"github.com/wordflowlab/voicedoc/pkg/telemetry"
	"github.com/wordflowlab/voicedoc/pkg/types"
	"github.com/wordflowlab/voicedoc/pkg/vector"
)

// narrationRe detects narration-style queries up front so the pipeline
// can switch to the verbatim reading path.
var narrationRe = regexp.MustCompile(`(?i)^(read|narrate|tell me|recite|play|start|begin|chapter|section)`)

// Generator runs the two-call generation pipeline
type Generator interface {
	Stream(ctx context.Context, req types.GenerateRequest, lat *latency.Collector) <-chan pipeline.Event
}

// ContextRetriever fetches similar chunks for query augmentation
type ContextRetriever interface {
	Retrieve(ctx context.Context, query, filename string) ([]vector.Hit, error)
}

// GenerationMetrics is the subset of HTTP-level metrics the handler records
type GenerationMetrics interface {
	RecordGeneration(voiceMode, outcome string, duration time.Duration)
	RecordTTFT(voiceMode string, d time.Duration)
}

// GenerateHandler orchestrates one question-answering turn
type GenerateHandler struct {
	generator Generator
	retriever ContextRetriever
	recorder  telemetry.PipelineRecorder
	metrics   GenerationMetrics
}

// NewGenerateHandler creates the generation orchestrator handler.
// retriever and metrics may be nil; recorder falls back to a no-op.
func NewGenerateHandler(g Generator, r ContextRetriever, rec telemetry.PipelineRecorder, m GenerationMetrics) *GenerateHandler {
	if rec == nil {
		rec = telemetry.NopRecorder{}
	}
	return &GenerateHandler{
		generator: g,
		retriever: r,
		recorder:  rec,
		metrics:   m,
	}
}

type generateRequest struct {
	History        []types.Message `json:"history"`
	Query          string          `json:"query"`
	Context        string          `json:"context"`
	Filename       string          `json:"filename"`
	Persona        string          `json:"persona"`
	ExpressiveMode bool            `json:"expressiveMode"`

	// ForceError triggers a deterministic failure so monitors and
	// runbooks can be exercised on demand.
	ForceError bool `json:"forceError"`
}

// Generate handles POST /v1/generate. The response is a streamed
// text/plain body; fatal failures get a JSON error with a timestamp.
func (h *GenerateHandler) Generate(c *gin.Context) {
	start := time.Now()
	ctx := c.Request.Context()

	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	trafficSource := c.GetString("trafficSource")
	voiceMode := string(types.VoiceModeFor(req.ExpressiveMode))
	isNarration := narrationRe.MatchString(req.Query)

	tags := telemetry.RequestTags{
		VoiceMode:   voiceMode,
		IsNarration: isNarration,
		TrafficType: trafficSource,
	}

	h.recorder.RecordHit(tags)
	persona := types.ParsePersona(req.Persona)
	h.recorder.RecordPersona(string(persona), tags)

	if req.ForceError {
		logging.Error(ctx, "forced synthetic failure triggered", nil)
		h.recorder.RecordError("forced_error", tags)
		h.finishGeneration(voiceMode, "error", start)
		fatalGeneration(c, "synthetic failure requested by client")
		return
	}

	if req.Query == "" {
		h.recorder.RecordError("no_query", tags)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query required"})
		return
	}

	// Best-effort retrieval: failures degrade to the caller-supplied
	// context instead of failing the turn.
	augmented := req.Context
	if h.retriever != nil {
		hits, err := h.retriever.Retrieve(ctx, req.Query, req.Filename)
		if err != nil {
			logging.Warn(ctx, "retrieval failed, continuing without augmentation", map[string]interface{}{
				"error": err.Error(),
			})
			h.recorder.RecordError("retrieval_error", tags)
		} else {
			augmented = rag.AugmentContext(req.Context, hits)
		}
	}

	lat := latency.NewCollector()
	events := h.generator.Stream(ctx, types.GenerateRequest{
		History:        req.History,
		Query:          req.Query,
		Context:        augmented,
		Filename:       req.Filename,
		Persona:        persona,
		IsNarration:    isNarration,
		ExpressiveMode: req.ExpressiveMode,
		TrafficSource:  trafficSource,
	}, lat)

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("Cache-Control", "no-cache")

	var streamErr error
	wroteBody := false
	totalBytes := 0

	for event := range events {
		if event.Err != nil {
			streamErr = event.Err
			break
		}
		if event.Text == "" {
			continue
		}
		if err := c.Request.Context().Err(); err != nil {
			// client went away, stop forwarding and let the
			// pipeline goroutine drain into its buffer
			logging.Warn(ctx, "client disconnected mid-stream", nil)
			streamErr = err
			break
		}
		if !wroteBody {
			h.recorder.RecordTTFT(float64(lat.TTFT().Milliseconds()), tags)
			if h.metrics != nil {
				h.metrics.RecordTTFT(voiceMode, lat.TTFT())
			}
		}
		c.Writer.WriteHeaderNow()
		if _, err := c.Writer.WriteString(event.Text); err != nil {
			streamErr = err
			break
		}
		c.Writer.Flush()
		wroteBody = true
		totalBytes += len(event.Text)
	}

	duration := time.Since(start)
	h.recorder.RecordRequestDuration(float64(duration.Milliseconds()), tags)

	if streamErr != nil {
		var genErr *pipeline.GenerationError
		if errors.As(streamErr, &genErr) {
			h.recorder.RecordError("generator_error", tags)
		} else {
			h.recorder.RecordError("stream_error", tags)
		}
		h.finishGeneration(voiceMode, "error", start)

		// headers may already be out; only send the JSON error body
		// when nothing has been written yet
		if !wroteBody {
			fatalGeneration(c, streamErr.Error())
		}
		return
	}

	h.recorder.RecordSuccess(tags)
	h.recorder.RecordResponseLength(totalBytes, tags)
	h.finishGeneration(voiceMode, "success", start)
}

func (h *GenerateHandler) finishGeneration(voiceMode, outcome string, start time.Time) {
	if h.metrics != nil {
		h.metrics.RecordGeneration(voiceMode, outcome, time.Since(start))
	}
}
