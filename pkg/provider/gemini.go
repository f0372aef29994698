package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wordflowlab/voicedoc/pkg/types"
)

const (
	// GeminiAPIBaseURL Gemini API 基础 URL
	GeminiAPIBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultGeminiModel 默认模型
	DefaultGeminiModel = "gemini-2.5-flash"
)

// GeminiProvider Google Gemini 提供商。
// Gemini 使用专有的 Content/Parts 格式, 角色为 "user"/"model"。
type GeminiProvider struct {
	config     *types.ModelConfig
	baseURL    string
	httpClient *http.Client
}

// GeminiContent Gemini 消息内容格式
type GeminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []GeminiPart `json:"parts"`
}

// GeminiPart Gemini 内容部分
type GeminiPart struct {
	Text string `json:"text,omitempty"`
}

// NewGeminiProvider 创建 Gemini 提供商
func NewGeminiProvider(config *types.ModelConfig) (*GeminiProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Gemini: API key is required")
	}

	if config.Model == "" {
		config.Model = DefaultGeminiModel
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = GeminiAPIBaseURL
	}

	return &GeminiProvider{
		config:     config,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}, nil
}

// Complete 实现非流式对话
func (p *GeminiProvider) Complete(
	ctx context.Context,
	messages []types.Message,
	opts *Options,
) (*CompleteResponse, error) {
	requestBody := p.buildRequest(messages, opts)

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		p.baseURL, p.config.Model, p.config.APIKey)

	bodyBytes, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("Gemini API error: %d - %s", resp.StatusCode, string(body))
	}

	var apiResp map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	text, err := parseCandidateText(apiResp)
	if err != nil {
		return nil, err
	}

	return &CompleteResponse{
		Text:  text,
		Usage: parseUsage(apiResp),
	}, nil
}

// Stream 实现流式对话
func (p *GeminiProvider) Stream(
	ctx context.Context,
	messages []types.Message,
	opts *Options,
) (<-chan StreamChunk, error) {
	requestBody := p.buildRequest(messages, opts)

	url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse&key=%s",
		p.baseURL, p.config.Model, p.config.APIKey)

	bodyBytes, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("Gemini API error: %d - %s", resp.StatusCode, string(body))
	}

	chunks := make(chan StreamChunk, 10)
	go p.parseSSEStream(resp.Body, chunks)

	return chunks, nil
}

// buildRequest 构建请求体
func (p *GeminiProvider) buildRequest(messages []types.Message, opts *Options) map[string]interface{} {
	requestBody := map[string]interface{}{
		"contents": convertMessages(messages),
	}

	if opts != nil && opts.System != "" {
		requestBody["systemInstruction"] = map[string]interface{}{
			"parts": []map[string]interface{}{
				{"text": opts.System},
			},
		}
	}

	generationConfig := make(map[string]interface{})
	if opts != nil {
		if opts.MaxTokens > 0 {
			generationConfig["maxOutputTokens"] = opts.MaxTokens
		}
		if opts.Temperature > 0 {
			generationConfig["temperature"] = opts.Temperature
		}
		if opts.TopP > 0 {
			generationConfig["topP"] = opts.TopP
		}
	}
	if len(generationConfig) > 0 {
		requestBody["generationConfig"] = generationConfig
	}

	return requestBody
}

// convertMessages 转换消息格式为 Gemini 格式。
// system 消息跳过(在 systemInstruction 中处理), assistant 别名在 types 层已归一。
func convertMessages(messages []types.Message) []GeminiContent {
	result := make([]GeminiContent, 0, len(messages))

	for _, msg := range messages {
		if msg.Role == types.RoleSystem {
			continue
		}

		role := "user"
		if msg.Role == types.RoleModel {
			role = "model"
		}

		result = append(result, GeminiContent{
			Role:  role,
			Parts: []GeminiPart{{Text: msg.Text}},
		})
	}

	return result
}

// parseSSEStream 解析 SSE 流
func (p *GeminiProvider) parseSSEStream(body io.ReadCloser, chunks chan<- StreamChunk) {
	defer body.Close()
	defer close(chunks)

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()

		// SSE 格式: "data: {json}"
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data: "))

		var chunk map[string]interface{}
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}

		for _, sc := range parseStreamChunk(chunk) {
			chunks <- sc
		}
	}

	if err := scanner.Err(); err != nil {
		chunks <- StreamChunk{
			Type: ChunkTypeError,
			Error: &StreamError{
				Code:    "stream_error",
				Message: err.Error(),
			},
		}
	}
}

// parseStreamChunk 解析单个流式 chunk
func parseStreamChunk(chunk map[string]interface{}) []StreamChunk {
	result := make([]StreamChunk, 0)

	candidates, ok := chunk["candidates"].([]interface{})
	if ok && len(candidates) > 0 {
		candidate, _ := candidates[0].(map[string]interface{})

		if content, ok := candidate["content"].(map[string]interface{}); ok {
			if parts, ok := content["parts"].([]interface{}); ok {
				for _, partData := range parts {
					part, _ := partData.(map[string]interface{})
					if text, ok := part["text"].(string); ok && text != "" {
						result = append(result, StreamChunk{
							Type:      ChunkTypeText,
							TextDelta: text,
						})
					}
				}
			}
		}

		if finishReason, ok := candidate["finishReason"].(string); ok {
			result = append(result, StreamChunk{
				Type:         ChunkTypeDone,
				FinishReason: strings.ToLower(finishReason),
			})
		}
	}

	if usageData, ok := chunk["usageMetadata"].(map[string]interface{}); ok {
		usage := parseUsageFromMap(usageData)
		result = append(result, StreamChunk{
			Type:  ChunkTypeUsage,
			Usage: &usage,
		})
	}

	return result
}

// parseCandidateText 解析完整响应中的文本
func parseCandidateText(apiResp map[string]interface{}) (string, error) {
	candidates, ok := apiResp["candidates"].([]interface{})
	if !ok || len(candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate, _ := candidates[0].(map[string]interface{})
	content, ok := candidate["content"].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("no content in candidate")
	}

	parts, ok := content["parts"].([]interface{})
	if !ok {
		return "", fmt.Errorf("no parts in content")
	}

	textParts := make([]string, 0, len(parts))
	for _, partData := range parts {
		part, _ := partData.(map[string]interface{})
		if text, ok := part["text"].(string); ok {
			textParts = append(textParts, text)
		}
	}

	return strings.Join(textParts, ""), nil
}

// parseUsage 解析 usage 信息
func parseUsage(apiResp map[string]interface{}) types.TokenUsage {
	usageData, ok := apiResp["usageMetadata"].(map[string]interface{})
	if !ok {
		return types.TokenUsage{}
	}
	return parseUsageFromMap(usageData)
}

func parseUsageFromMap(usageData map[string]interface{}) types.TokenUsage {
	usage := types.TokenUsage{}

	if promptTokens, ok := usageData["promptTokenCount"].(float64); ok {
		usage.PromptTokens = int64(promptTokens)
	}
	if candidatesTokens, ok := usageData["candidatesTokenCount"].(float64); ok {
		usage.CompletionTokens = int64(candidatesTokens)
	}
	if totalTokens, ok := usageData["totalTokenCount"].(float64); ok {
		usage.TotalTokens = int64(totalTokens)
	}

	return usage
}

// Close 关闭连接
func (p *GeminiProvider) Close() error {
	return nil
}
