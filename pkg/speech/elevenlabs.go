package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const (
	// ElevenLabsBaseURL 默认 API 地址
	ElevenLabsBaseURL = "https://api.elevenlabs.io"

	// 表达模式用支持情绪标签的 v3 模型, 标准模式用低延迟模型
	modelExpressive = "eleven_v3"
	modelStandard   = "eleven_flash_v2_5"

	outputFormat = "mp3_44100_128"
)

var emotionTagRe = regexp.MustCompile(`\[[^\]]*?\]`)

// ElevenLabsSynthesizer 通过 ElevenLabs HTTP API 合成语音。
type ElevenLabsSynthesizer struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// ElevenLabsOption 可选配置
type ElevenLabsOption func(*ElevenLabsSynthesizer)

// WithBaseURL 覆盖 API 地址, 测试时指向 httptest 服务
func WithBaseURL(url string) ElevenLabsOption {
	return func(s *ElevenLabsSynthesizer) {
		s.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient 覆盖底层 HTTP 客户端
func WithHTTPClient(c *http.Client) ElevenLabsOption {
	return func(s *ElevenLabsSynthesizer) {
		s.client = c
	}
}

// NewElevenLabs 创建合成器。
func NewElevenLabs(apiKey string, opts ...ElevenLabsOption) (*ElevenLabsSynthesizer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("elevenlabs: api key is required")
	}

	s := &ElevenLabsSynthesizer{
		apiKey:  apiKey,
		baseURL: ElevenLabsBaseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

type ttsRequest struct {
	Text         string `json:"text"`
	ModelID      string `json:"model_id"`
	OutputFormat string `json:"output_format,omitempty"`
}

// Synthesize 合成语音。文本中出现情绪标签时自动升级到表达模式,
// 标准模式下标签会被剥离后再送出。
func (s *ElevenLabsSynthesizer) Synthesize(ctx context.Context, req Request) ([]byte, string, error) {
	expressive := req.ExpressiveMode || emotionTagRe.MatchString(req.Text)

	text := req.Text
	model := modelExpressive
	if !expressive {
		text = strings.TrimSpace(emotionTagRe.ReplaceAllString(text, ""))
		model = modelStandard
	}
	if text == "" {
		return nil, "", fmt.Errorf("%w: empty text", ErrSynthesis)
	}

	voice := VoiceFor(req.Persona)

	body, err := json.Marshal(ttsRequest{
		Text:         text,
		ModelID:      model,
		OutputFormat: outputFormat,
	})
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrSynthesis, err)
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s", s.baseURL, voice.ID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrSynthesis, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("xi-api-key", s.apiKey)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrSynthesis, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, "", fmt.Errorf("%w: status %d: %s", ErrSynthesis, resp.StatusCode, string(detail))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrSynthesis, err)
	}

	return audio, "audio/mpeg", nil
}

func (s *ElevenLabsSynthesizer) Close() error { return nil }
