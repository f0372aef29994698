// Package latency 提供单次请求的延迟打点采集。
// 每个请求持有自己的 Collector 实例, 实例之间不共享状态。
package latency

import (
	"time"
)

// 计时器键。所有阶段共用同一个 string → time.Time 注册表。
const (
	timerVadStart       = "vad.start"
	timerSttStart       = "stt.start"
	timerLlmStart       = "llm.start"
	timerTtsStart       = "tts.start"
	timerUserSpeechStart = "e2e.user_speech_start"
)

// StageRecord 单个阶段的延迟记录。
// FirstUnit 表示首个 token/字节到达的耗时, 未记录时为 0。
type StageRecord struct {
	FirstUnit time.Duration
	Total     time.Duration
	Completed bool
}

// Summary 一次请求的端到端延迟汇总。
type Summary struct {
	Vad StageRecord
	Stt StageRecord
	Llm StageRecord
	Tts StageRecord

	// PerceivableLatency 用户停止说话到听见第一个响应字节的间隔。
	PerceivableLatency time.Duration
	// TotalRoundTripLatency 用户停止说话到响应完全结束的间隔。
	TotalRoundTripLatency time.Duration
}

// Collector 按阶段记录命名计时器并派生延迟指标。
// 缺失的计时器一律按 0 处理, 任何派生值都不为负。
// Collector 不是并发安全的: 它被设计为单请求私有。
type Collector struct {
	timers  map[string]time.Time
	summary Summary

	agentResponseStart    time.Time
	agentResponseComplete time.Time

	// now 可替换, 便于测试
	now func() time.Time
}

// NewCollector 创建空的采集器。
func NewCollector() *Collector {
	return &Collector{
		timers: make(map[string]time.Time),
		now:    time.Now,
	}
}

// Reset 清空所有计时器和记录, 在新的一轮对话开始时调用。
func (c *Collector) Reset() {
	c.timers = make(map[string]time.Time)
	c.summary = Summary{}
	c.agentResponseStart = time.Time{}
	c.agentResponseComplete = time.Time{}
}

// elapsed 返回 max(0, now − timers[key]), 计时器缺失时返回 0。
func (c *Collector) elapsed(key string) time.Duration {
	start, ok := c.timers[key]
	if !ok {
		return 0
	}
	d := c.now().Sub(start)
	if d < 0 {
		return 0
	}
	return d
}

// ---- 语音活动检测 ----

func (c *Collector) StartVad() {
	c.timers[timerVadStart] = c.now()
}

func (c *Collector) CompleteVad() {
	c.summary.Vad.Total = c.elapsed(timerVadStart)
	c.summary.Vad.Completed = true
}

// ---- 语音转写 ----

func (c *Collector) StartStt() {
	c.timers[timerSttStart] = c.now()
}

func (c *Collector) RecordFirstSttToken() {
	c.summary.Stt.FirstUnit = c.elapsed(timerSttStart)
}

func (c *Collector) CompleteStt() {
	c.summary.Stt.Total = c.elapsed(timerSttStart)
	c.summary.Stt.Completed = true
}

// ---- 文本生成 ----

func (c *Collector) StartLlm() {
	c.timers[timerLlmStart] = c.now()
}

// RecordFirstLlmToken 记录 TTFT。重复调用时最后一次覆盖前值。
func (c *Collector) RecordFirstLlmToken() {
	c.summary.Llm.FirstUnit = c.elapsed(timerLlmStart)
}

func (c *Collector) CompleteLlm() {
	c.summary.Llm.Total = c.elapsed(timerLlmStart)
	c.summary.Llm.Completed = true
}

// ---- 语音合成 ----

func (c *Collector) StartTts() {
	c.timers[timerTtsStart] = c.now()
}

func (c *Collector) RecordFirstTtsByte() {
	c.summary.Tts.FirstUnit = c.elapsed(timerTtsStart)
}

func (c *Collector) CompleteTts() {
	c.summary.Tts.Total = c.elapsed(timerTtsStart)
	c.summary.Tts.Completed = true
}

// ---- 端到端 ----

// StartUserSpeech 标记用户说完话的时刻, 端到端指标以它为起点。
func (c *Collector) StartUserSpeech() {
	c.timers[timerUserSpeechStart] = c.now()
}

// RecordAgentResponseStart 标记首个可感知响应字节的时刻。
func (c *Collector) RecordAgentResponseStart() {
	c.agentResponseStart = c.now()
	c.summary.PerceivableLatency = c.sinceUserSpeech(c.agentResponseStart)
}

// RecordAgentResponseComplete 标记响应完全结束的时刻。
func (c *Collector) RecordAgentResponseComplete() {
	c.agentResponseComplete = c.now()
	c.summary.TotalRoundTripLatency = c.sinceUserSpeech(c.agentResponseComplete)
}

func (c *Collector) sinceUserSpeech(at time.Time) time.Duration {
	start, ok := c.timers[timerUserSpeechStart]
	if !ok {
		return 0
	}
	d := at.Sub(start)
	if d < 0 {
		return 0
	}
	return d
}

// TTFT 返回生成阶段首 token 耗时。
func (c *Collector) TTFT() time.Duration {
	return c.summary.Llm.FirstUnit
}

// Snapshot 返回当前汇总的浅拷贝, 调用方修改返回值不影响内部状态。
func (c *Collector) Snapshot() Summary {
	return c.summary
}
