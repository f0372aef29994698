package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wordflowlab/voicedoc/pkg/logging"
	"github.com/wordflowlab/voicedoc/pkg/speech"
	"github.com/wordflowlab/voicedoc/pkg/types"
)

// Synthesizer converts final text into audio
type Synthesizer interface {
	Synthesize(ctx context.Context, req speech.Request) ([]byte, string, error)
}

// SynthesisMetrics counts synthesis outcomes
type SynthesisMetrics interface {
	RecordSynthesis(outcome string)
}

// SpeakHandler handles text-to-speech requests
type SpeakHandler struct {
	synthesizer Synthesizer
	metrics     SynthesisMetrics
}

// NewSpeakHandler creates the TTS handler
func NewSpeakHandler(s Synthesizer, m SynthesisMetrics) *SpeakHandler {
	return &SpeakHandler{synthesizer: s, metrics: m}
}

type speakRequest struct {
	Text           string `json:"text"`
	Persona        string `json:"persona"`
	ExpressiveMode bool   `json:"expressiveMode"`
}

// Speak handles POST /v1/speak. Synthesis failures only affect audio
// playback; the client already has the text answer.
func (h *SpeakHandler) Speak(c *gin.Context) {
	ctx := c.Request.Context()

	var req speakRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.Text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Text is required"})
		return
	}

	audio, contentType, err := h.synthesizer.Synthesize(ctx, speech.Request{
		Text:           req.Text,
		Persona:        types.ParsePersona(req.Persona),
		ExpressiveMode: req.ExpressiveMode,
	})
	if err != nil {
		logging.Error(ctx, "speech synthesis failed", map[string]interface{}{
			"error": err.Error(),
		})
		if h.metrics != nil {
			h.metrics.RecordSynthesis("error")
		}
		internalError(c, "synthesis_failed", err.Error())
		return
	}

	if h.metrics != nil {
		h.metrics.RecordSynthesis("success")
	}
	c.Data(http.StatusOK, contentType, audio)
}
