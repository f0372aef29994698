package telemetry

import "strconv"

// PipelineRecorder 记录问答管线的业务指标。
// 所有方法都是尽力而为的, 不返回错误。
type PipelineRecorder interface {
	RecordHit(tags RequestTags)
	RecordSuccess(tags RequestTags)
	RecordError(errorType string, tags RequestTags)
	RecordTTFT(millis float64, tags RequestTags)
	RecordRequestDuration(millis float64, tags RequestTags)
	RecordTokens(prompt, completion int, tags RequestTags)
	RecordResponseLength(chars int, tags RequestTags)
	RecordPersona(persona string, tags RequestTags)
}

// RequestTags 每个请求携带的维度标签。
type RequestTags struct {
	VoiceMode   string
	IsNarration bool
	TrafficType string
}

func (t RequestTags) labels() map[string]string {
	labels := map[string]string{
		"voice_mode":   t.VoiceMode,
		"is_narration": strconv.FormatBool(t.IsNarration),
	}
	if t.TrafficType != "" {
		labels["traffic_type"] = t.TrafficType
	}
	return labels
}

// Recorder 基于 Metrics 后端的 PipelineRecorder 实现。
type Recorder struct {
	metrics Metrics
}

// NewRecorder 创建管线指标记录器。metrics 为 nil 时退化为 NopMetrics。
func NewRecorder(metrics Metrics) *Recorder {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &Recorder{metrics: metrics}
}

func (r *Recorder) RecordHit(tags RequestTags) {
	r.metrics.IncrementCounter("generate.hits", 1, tags.labels())
}

func (r *Recorder) RecordSuccess(tags RequestTags) {
	r.metrics.IncrementCounter("generate.success", 1, tags.labels())
}

func (r *Recorder) RecordError(errorType string, tags RequestTags) {
	labels := tags.labels()
	labels["error_type"] = errorType
	r.metrics.IncrementCounter("generate.errors", 1, labels)
}

func (r *Recorder) RecordTTFT(millis float64, tags RequestTags) {
	r.metrics.RecordHistogram("generate.ttft_ms", millis, tags.labels())
}

func (r *Recorder) RecordRequestDuration(millis float64, tags RequestTags) {
	r.metrics.RecordHistogram("generate.duration_ms", millis, tags.labels())
}

func (r *Recorder) RecordTokens(prompt, completion int, tags RequestTags) {
	labels := tags.labels()
	r.metrics.RecordHistogram("generate.tokens.prompt", float64(prompt), labels)
	r.metrics.RecordHistogram("generate.tokens.completion", float64(completion), labels)
	r.metrics.RecordHistogram("generate.tokens.total", float64(prompt+completion), labels)
}

func (r *Recorder) RecordResponseLength(chars int, tags RequestTags) {
	r.metrics.RecordHistogram("generate.response_chars", float64(chars), tags.labels())
}

func (r *Recorder) RecordPersona(persona string, tags RequestTags) {
	labels := tags.labels()
	labels["persona_type"] = persona
	r.metrics.IncrementCounter("generate.persona", 1, labels)
}

// NopRecorder 丢弃所有记录, 用于测试。
type NopRecorder struct{}

func (NopRecorder) RecordHit(RequestTags)                      {}
func (NopRecorder) RecordSuccess(RequestTags)                  {}
func (NopRecorder) RecordError(string, RequestTags)            {}
func (NopRecorder) RecordTTFT(float64, RequestTags)            {}
func (NopRecorder) RecordRequestDuration(float64, RequestTags) {}
func (NopRecorder) RecordTokens(int, int, RequestTags)         {}
func (NopRecorder) RecordResponseLength(int, RequestTags)      {}
func (NopRecorder) RecordPersona(string, RequestTags)          {}
