// Package pipeline 实现两段式语音问答生成管线。
// Call 1 产出严格依据上下文的回答, Call 2 在表达模式下叠加情绪标签。
// 对外契约是一个惰性单产出序列: 恰好产出一段最终文本, 或错误哨兵加失败。
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/wordflowlab/voicedoc/pkg/latency"
	"github.com/wordflowlab/voicedoc/pkg/logging"
	"github.com/wordflowlab/voicedoc/pkg/provider"
	"github.com/wordflowlab/voicedoc/pkg/telemetry"
	"github.com/wordflowlab/voicedoc/pkg/types"
)

// 管线阶段标识, 出现在 GenerationError 和错误指标里。
const (
	StageGrounding = "call1"
	StageTagging   = "call2"
)

// GenerationError 某次 LLM 调用失败导致整轮生成失败。
// 不重试: 管线从不伪造部分回答。
type GenerationError struct {
	Stage string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed at %s: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Event 管线产出的单个事件。Text 与 Err 不会同时非零值。
type Event struct {
	Text string
	Err  error
}

// Pipeline 两段式生成管线。依赖注入的 Provider 和指标记录器,
// 可在测试中替换为桩实现。
type Pipeline struct {
	provider provider.Provider
	recorder telemetry.PipelineRecorder
}

// New 创建管线。recorder 为 nil 时使用 NopRecorder。
func New(p provider.Provider, recorder telemetry.PipelineRecorder) *Pipeline {
	if recorder == nil {
		recorder = telemetry.NopRecorder{}
	}
	return &Pipeline{provider: p, recorder: recorder}
}

// Stream 执行两段式管线, 返回恰好产出一个事件的通道。
// 成功: 一个 Text 事件后通道关闭。
// 失败: 一个格式化错误文本事件, 紧跟一个 Err 事件, 让编排层的错误路径也能触发。
// lat 为 nil 时跳过延迟打点。通道缓冲足够大, goroutine 不会因调用方放弃读取而泄漏。
func (p *Pipeline) Stream(ctx context.Context, req types.GenerateRequest, lat *latency.Collector) <-chan Event {
	out := make(chan Event, 2)

	go func() {
		defer close(out)

		result, err := p.Run(ctx, req, lat)
		if err != nil {
			out <- Event{Text: fmt.Sprintf("\n\nERROR: %s\n", err.Error())}
			out <- Event{Err: err}
			return
		}

		out <- Event{Text: result.FinalText}
	}()

	return out
}

// Run 同步执行管线。Stream 的底层实现, 也供不需要流式外壳的调用方使用。
func (p *Pipeline) Run(ctx context.Context, req types.GenerateRequest, lat *latency.Collector) (*types.GenerationResult, error) {
	tags := telemetry.RequestTags{
		VoiceMode:   string(types.VoiceModeFor(req.ExpressiveMode)),
		IsNarration: req.IsNarration,
		TrafficType: req.TrafficSource,
	}

	raw, usage, err := p.groundedAnswer(ctx, req, lat)
	if err != nil {
		p.recorder.RecordError("call1_error", tags)
		return nil, &GenerationError{Stage: StageGrounding, Err: err}
	}

	if strings.TrimSpace(raw) == "" {
		logging.Warn(ctx, "empty raw response, yielding sentinel", nil)
		return &types.GenerationResult{RawText: raw, FinalText: NoResponseSentinel, Usage: usage}, nil
	}

	var final string
	if req.ExpressiveMode {
		tagged, tagUsage, err := p.overlayEmotionTags(ctx, raw, req.Persona)
		if err != nil {
			// 调用方明确要求表达模式, 不静默回落到未标注文本
			p.recorder.RecordError("call2_error", tags)
			return nil, &GenerationError{Stage: StageTagging, Err: err}
		}
		usage.Add(tagUsage)
		final = StripParentheticals(tagged)
	} else {
		final = StripAnnotations(raw)
	}

	p.recorder.RecordTokens(int(usage.PromptTokens), int(usage.CompletionTokens), tags)
	return &types.GenerationResult{RawText: raw, FinalText: final, Usage: usage}, nil
}

// groundedAnswer 执行 Call 1。内部用流式调用聚合文本,
// 以便在首个增量到达时记录 TTFT。
func (p *Pipeline) groundedAnswer(ctx context.Context, req types.GenerateRequest, lat *latency.Collector) (string, types.TokenUsage, error) {
	var usage types.TokenUsage

	system, message := p.buildCall1(ctx, req)

	messages := make([]types.Message, 0, len(req.History)+1)
	for _, m := range req.History {
		messages = append(messages, types.Message{Role: types.NormalizeRole(string(m.Role)), Text: m.Text})
	}
	messages = append(messages, types.Message{Role: types.RoleUser, Text: message})

	opts := &provider.Options{
		System:      system,
		MaxTokens:   8192,
		Temperature: 0.7,
	}

	if lat != nil {
		lat.StartLlm()
	}

	chunks, err := p.provider.Stream(ctx, messages, opts)
	if err != nil {
		return "", usage, err
	}

	var b strings.Builder
	firstToken := false
	for chunk := range chunks {
		switch chunk.Type {
		case provider.ChunkTypeText:
			if !firstToken {
				firstToken = true
				if lat != nil {
					lat.RecordFirstLlmToken()
				}
			}
			b.WriteString(chunk.TextDelta)
		case provider.ChunkTypeUsage:
			if chunk.Usage != nil {
				usage = *chunk.Usage
			}
		case provider.ChunkTypeError:
			return "", usage, fmt.Errorf("%s: %s", chunk.Error.Code, chunk.Error.Message)
		}
	}

	if lat != nil {
		lat.CompleteLlm()
	}

	return b.String(), usage, nil
}

// buildCall1 选择 Call 1 的系统提示词和出站消息。
// 朗读请求且章节定位成功时, 消息换成固定的开始朗读指令。
func (p *Pipeline) buildCall1(ctx context.Context, req types.GenerateRequest) (system, message string) {
	if req.IsNarration {
		if extracted, ok := ExtractSection(req.Context, req.Query); ok {
			logging.Info(ctx, "narration section extracted", map[string]interface{}{
				"chars": len(extracted),
			})
			return narratorSystemPrompt(extracted), beginReadingMessage
		}
		// 定位失败时按朗读全文处理, 消息维持原查询
		return narratorSystemPrompt(req.Context), req.Query
	}
	return groundedSystemPrompt(req.Context), req.Query
}

// overlayEmotionTags 执行 Call 2: few-shot 示例作为历史, 低温采样。
func (p *Pipeline) overlayEmotionTags(ctx context.Context, rawText string, persona types.Persona) (string, types.TokenUsage, error) {
	messages := append(fewShotHistory(persona), types.Message{
		Role: types.RoleUser,
		Text: taggerUserMessage(rawText),
	})

	opts := &provider.Options{
		System:      taggerSystemPrompt,
		Temperature: 0.2,
		TopP:        0.7,
	}

	resp, err := p.provider.Complete(ctx, messages, opts)
	if err != nil {
		return "", types.TokenUsage{}, err
	}

	tagged := resp.Text
	if strings.TrimSpace(tagged) == "" {
		tagged = rawText
	}
	return tagged, resp.Usage, nil
}
