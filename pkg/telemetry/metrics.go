package telemetry

import (
	"sync"
	"time"
)

// Metrics 提供指标收集能力。
// 所有实现都必须是尽力而为的: 指标发送失败不允许影响请求路径。
type Metrics interface {
	// Counter 操作
	IncrementCounter(name string, value int64, labels map[string]string)

	// Gauge 操作
	SetGauge(name string, value float64, labels map[string]string)

	// Histogram 操作
	RecordHistogram(name string, value float64, labels map[string]string)

	// 获取指标快照
	Snapshot() MetricsSnapshot
}

// MetricsSnapshot 指标快照
type MetricsSnapshot struct {
	Counters   map[string]*CounterSnapshot
	Gauges     map[string]*GaugeSnapshot
	Histograms map[string]*HistogramSnapshot
	Timestamp  time.Time
}

// CounterSnapshot 计数器快照
type CounterSnapshot struct {
	Name   string
	Value  int64
	Labels map[string]string
}

// GaugeSnapshot 仪表盘快照
type GaugeSnapshot struct {
	Name   string
	Value  float64
	Labels map[string]string
}

// HistogramSnapshot 直方图快照
type HistogramSnapshot struct {
	Name   string
	Count  int64
	Sum    float64
	Min    float64
	Max    float64
	Mean   float64
	Labels map[string]string
}

// SimpleMetrics 简单的内存 metrics 实现
type SimpleMetrics struct {
	mu         sync.RWMutex
	counters   map[string]*counter
	gauges     map[string]*gauge
	histograms map[string]*histogram
}

type counter struct {
	value  int64
	labels map[string]string
}

type gauge struct {
	value  float64
	labels map[string]string
}

type histogram struct {
	count  int64
	sum    float64
	min    float64
	max    float64
	labels map[string]string
}

// NewSimpleMetrics 创建简单的 metrics 实例
func NewSimpleMetrics() *SimpleMetrics {
	return &SimpleMetrics{
		counters:   make(map[string]*counter),
		gauges:     make(map[string]*gauge),
		histograms: make(map[string]*histogram),
	}
}

func (m *SimpleMetrics) IncrementCounter(name string, value int64, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := makeKey(name, labels)
	if c, ok := m.counters[key]; ok {
		c.value += value
	} else {
		m.counters[key] = &counter{value: value, labels: labels}
	}
}

func (m *SimpleMetrics) SetGauge(name string, value float64, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.gauges[makeKey(name, labels)] = &gauge{value: value, labels: labels}
}

func (m *SimpleMetrics) RecordHistogram(name string, value float64, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := makeKey(name, labels)
	if h, ok := m.histograms[key]; ok {
		h.count++
		h.sum += value
		if value < h.min {
			h.min = value
		}
		if value > h.max {
			h.max = value
		}
	} else {
		m.histograms[key] = &histogram{
			count:  1,
			sum:    value,
			min:    value,
			max:    value,
			labels: labels,
		}
	}
}

func (m *SimpleMetrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := MetricsSnapshot{
		Counters:   make(map[string]*CounterSnapshot),
		Gauges:     make(map[string]*GaugeSnapshot),
		Histograms: make(map[string]*HistogramSnapshot),
		Timestamp:  time.Now(),
	}

	for key, c := range m.counters {
		snapshot.Counters[key] = &CounterSnapshot{
			Name:   key,
			Value:  c.value,
			Labels: copyLabels(c.labels),
		}
	}

	for key, g := range m.gauges {
		snapshot.Gauges[key] = &GaugeSnapshot{
			Name:   key,
			Value:  g.value,
			Labels: copyLabels(g.labels),
		}
	}

	for key, h := range m.histograms {
		mean := 0.0
		if h.count > 0 {
			mean = h.sum / float64(h.count)
		}
		snapshot.Histograms[key] = &HistogramSnapshot{
			Name:   key,
			Count:  h.count,
			Sum:    h.sum,
			Min:    h.min,
			Max:    h.max,
			Mean:   mean,
			Labels: copyLabels(h.labels),
		}
	}

	return snapshot
}

// NopMetrics 丢弃一切的 Metrics 实现, 用于测试和关闭遥测的部署。
type NopMetrics struct{}

func (NopMetrics) IncrementCounter(string, int64, map[string]string)  {}
func (NopMetrics) SetGauge(string, float64, map[string]string)       {}
func (NopMetrics) RecordHistogram(string, float64, map[string]string) {}
func (NopMetrics) Snapshot() MetricsSnapshot                         { return MetricsSnapshot{} }

// 辅助函数
func makeKey(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}

	key := name
	for k, v := range labels {
		key += ":" + k + "=" + v
	}
	return key
}

func copyLabels(labels map[string]string) map[string]string {
	if labels == nil {
		return nil
	}

	out := make(map[string]string, len(labels))
	for k, v := range labels {
		out[k] = v
	}
	return out
}
