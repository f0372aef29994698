package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// VertexEmbedder 基于 Vertex AI text embedding 模型的 Embedder 实现。
// 调用 POST {endpoint}/models/{model}:predict, 请求格式:
//
//	{ "instances": [ { "content": "..." } ] }
type VertexEmbedder struct {
	Project  string
	Location string
	Model    string
	APIKey   string
	BaseURL  string // 为空时按 Location 推导
	Client   *http.Client
}

// NewVertexEmbedder 创建 VertexEmbedder。
// model 为空时默认 "text-embedding-005"。
func NewVertexEmbedder(project, location, model, apiKey string) *VertexEmbedder {
	if location == "" {
		location = "us-central1"
	}
	if model == "" {
		model = "text-embedding-005"
	}
	return &VertexEmbedder{
		Project:  project,
		Location: location,
		Model:    model,
		APIKey:   apiKey,
		Client:   &http.Client{Timeout: 30 * time.Second},
	}
}

type vertexPredictRequest struct {
	Instances []vertexInstance `json:"instances"`
}

type vertexInstance struct {
	Content string `json:"content"`
}

type vertexPredictResponse struct {
	Predictions []struct {
		Embeddings struct {
			Values []float64 `json:"values"`
		} `json:"embeddings"`
	} `json:"predictions"`
}

func (e *VertexEmbedder) endpoint() string {
	if e.BaseURL != "" {
		return fmt.Sprintf("%s/v1/projects/%s/locations/%s/publishers/google/models/%s:predict",
			e.BaseURL, e.Project, e.Location, e.Model)
	}
	return fmt.Sprintf("https://%s-aiplatform.googleapis.com/v1/projects/%s/locations/%s/publishers/google/models/%s:predict",
		e.Location, e.Project, e.Location, e.Model)
}

// Embed 调用 Vertex embedding 模型。
// 上游出错或无预测返回 ErrEmbeddingUnavailable,
// 预测缺少 values 数组返回 ErrEmbeddingMalformed。
func (e *VertexEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if e.Project == "" {
		return nil, fmt.Errorf("%w: project is required", ErrEmbeddingUnavailable)
	}

	data, err := json.Marshal(vertexPredictRequest{
		Instances: []vertexInstance{{Content: text}},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint(), bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.APIKey)
	}

	resp, err := e.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: predict API status %s", ErrEmbeddingUnavailable, resp.Status)
	}

	var apiResp vertexPredictResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrEmbeddingMalformed, err)
	}

	if len(apiResp.Predictions) == 0 {
		return nil, fmt.Errorf("%w: no predictions returned", ErrEmbeddingUnavailable)
	}
	values := apiResp.Predictions[0].Embeddings.Values
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: prediction has no embedding values", ErrEmbeddingMalformed)
	}

	return values, nil
}
