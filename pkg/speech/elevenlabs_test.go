package speech

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wordflowlab/voicedoc/pkg/types"
)

type capturedTTS struct {
	path string
	body ttsRequest
	key  string
}

func newTestSynthesizer(t *testing.T, status int, audio []byte) (*ElevenLabsSynthesizer, *capturedTTS) {
	t.Helper()
	captured := &capturedTTS{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.path = r.URL.Path
		captured.key = r.Header.Get("xi-api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured.body))
		w.WriteHeader(status)
		_, _ = w.Write(audio)
	}))
	t.Cleanup(srv.Close)

	s, err := NewElevenLabs("test-key", WithBaseURL(srv.URL))
	require.NoError(t, err)
	return s, captured
}

func TestSynthesizeStandardStripsTags(t *testing.T) {
	s, captured := newTestSynthesizer(t, http.StatusOK, []byte("mp3data"))

	audio, contentType, err := s.Synthesize(context.Background(), Request{
		Text:    "Hello world.",
		Persona: types.PersonaLegal,
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("mp3data"), audio)
	assert.Equal(t, "audio/mpeg", contentType)
	assert.Equal(t, modelStandard, captured.body.ModelID)
	assert.Equal(t, "test-key", captured.key)
	assert.True(t, strings.HasSuffix(captured.path, VoiceFor(types.PersonaLegal).ID))
}

func TestSynthesizeExpressiveKeepsTags(t *testing.T) {
	s, captured := newTestSynthesizer(t, http.StatusOK, []byte("mp3"))

	_, _, err := s.Synthesize(context.Background(), Request{
		Text:           "[excited] Great news!",
		Persona:        types.PersonaFinancial,
		ExpressiveMode: true,
	})
	require.NoError(t, err)
	assert.Equal(t, modelExpressive, captured.body.ModelID)
	assert.Contains(t, captured.body.Text, "[excited]")
}

func TestSynthesizeInfersExpressiveFromTags(t *testing.T) {
	s, captured := newTestSynthesizer(t, http.StatusOK, []byte("mp3"))

	// 调用方没开表达模式, 但文本里有标签, 自动升级
	_, _, err := s.Synthesize(context.Background(), Request{
		Text: "[whispers] A secret.",
	})
	require.NoError(t, err)
	assert.Equal(t, modelExpressive, captured.body.ModelID)
}

func TestSynthesizeUpstreamError(t *testing.T) {
	s, _ := newTestSynthesizer(t, http.StatusUnauthorized, []byte(`{"detail":"bad key"}`))

	_, _, err := s.Synthesize(context.Background(), Request{Text: "hello"})
	require.ErrorIs(t, err, ErrSynthesis)
}

func TestSynthesizeEmptyAfterStripping(t *testing.T) {
	s, _ := newTestSynthesizer(t, http.StatusOK, nil)

	_, _, err := s.Synthesize(context.Background(), Request{Text: "   "})
	require.ErrorIs(t, err, ErrSynthesis)
}

func TestNewElevenLabsRequiresKey(t *testing.T) {
	_, err := NewElevenLabs("")
	assert.Error(t, err)
}

func TestVoiceForFallback(t *testing.T) {
	assert.Equal(t, VoiceFor(types.PersonaNarrative), VoiceFor(types.Persona("unknown")))
	assert.NotEqual(t, VoiceFor(types.PersonaLegal).ID, VoiceFor(types.PersonaNarrative).ID)
}
